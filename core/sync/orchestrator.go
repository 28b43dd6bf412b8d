package sync

import (
	"context"
	"fmt"
	gosync "sync"

	"github.com/mudler/xlog"
	"github.com/sashabaranov/go-openai"

	"github.com/scrossle/claude-subconscious/core/conversations"
	"github.com/scrossle/claude-subconscious/core/cursor"
	"github.com/scrossle/claude-subconscious/core/memdiff"
	"github.com/scrossle/claude-subconscious/core/state"
	"github.com/scrossle/claude-subconscious/pkg/remote"
)

// DeltaMessage is one newly seen assistant message, chronological order
type DeltaMessage struct {
	ID      string                       `json:"id"`
	Date    string                       `json:"date,omitempty"`
	Message openai.ChatCompletionMessage `json:"message"`
}

// Delta is what one sync surfaces to the consumer
type Delta struct {
	SessionID string                 `json:"sessionId"`
	Messages  []DeltaMessage         `json:"messages,omitempty"`
	Blocks    []memdiff.ChangedBlock `json:"blocks,omitempty"`
}

// Emitter delivers a delta to the consumer. Emission commits before the
// state is persisted: an emit failure leaves the record untouched so the
// same delta is recomputed and re-shown next time.
type Emitter interface {
	Emit(*Delta) error
}

// Orchestrator runs one sync per lifecycle checkpoint
type Orchestrator struct {
	client   *remote.Client
	store    *state.Store
	resolver *conversations.Resolver
	emitter  Emitter
	agentID  string
	limit    int
}

// NewOrchestrator wires the sync pipeline for one agent
func NewOrchestrator(client *remote.Client, store *state.Store, resolver *conversations.Resolver, emitter Emitter, agentID string, limit int) *Orchestrator {
	return &Orchestrator{
		client:   client,
		store:    store,
		resolver: resolver,
		emitter:  emitter,
		agentID:  agentID,
		limit:    limit,
	}
}

// Sync loads session state, resolves the conversation, fetches the remote
// snapshot and feed in parallel, computes deltas, emits them, and persists
// the advanced state. No deltas and no state movement means no output and
// no write.
func (o *Orchestrator) Sync(ctx context.Context, sessionID string) error {
	rec := o.store.Load(sessionID)

	convID, err := o.resolver.Resolve(ctx, sessionID, o.agentID, rec)
	if err != nil {
		return fmt.Errorf("resolving conversation: %w", err)
	}

	// the snapshot and the feed have no data dependency, fetch both at once
	var (
		agent    *remote.Agent
		agentErr error
		feed     []remote.Message
	)
	var wg gosync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		agent, agentErr = o.client.GetAgent(ctx, o.agentID)
	}()
	go func() {
		defer wg.Done()
		messages, err := o.client.ListMessages(ctx, convID, o.limit)
		if err != nil {
			// optional call: degrade to an empty feed
			xlog.Warn("Message fetch failed, proceeding without messages", "session", sessionID, "error", err)
			return
		}
		feed = messages
	}()
	wg.Wait()

	if agentErr != nil {
		return fmt.Errorf("fetching agent: %w", agentErr)
	}

	news, newCursor := cursor.NewSince(feed, rec.LastSeenMessageID)
	// First sync means no record was ever persisted, not an empty cursor: a
	// seeded record whose conversation has not produced messages yet still
	// gets every reply delivered once they arrive.
	firstSync := rec.LastBlockValues == nil
	changed := memdiff.Diff(agent.Blocks, rec.LastBlockValues)

	snapshot := map[string]string{}
	for _, b := range agent.Blocks {
		if _, ok := snapshot[b.Label]; !ok {
			snapshot[b.Label] = b.Value
		}
	}

	delta := &Delta{SessionID: sessionID, Blocks: changed}
	if !firstSync {
		// the first sync never floods the consumer with history, the cursor
		// just advances to the newest message
		for _, m := range news {
			delta.Messages = append(delta.Messages, DeltaMessage{
				ID:   m.ID,
				Date: m.Date,
				Message: openai.ChatCompletionMessage{
					Role:    openai.ChatMessageRoleAssistant,
					Content: m.Body(),
				},
			})
		}
	}

	cursorMoved := newCursor != rec.LastSeenMessageID
	blocksMoved := firstSync || !sameSnapshot(rec.LastBlockValues, snapshot)

	if len(delta.Messages) == 0 && len(delta.Blocks) == 0 {
		if !cursorMoved && !blocksMoved {
			xlog.Debug("Nothing new, skipping", "session", sessionID)
			return nil
		}
		// nothing visible to emit, but the cursor or seeded snapshot moved
		return o.persist(sessionID, convID, newCursor, snapshot)
	}

	if err := o.emitter.Emit(delta); err != nil {
		// leave state untouched so the delta is re-shown next sync
		return fmt.Errorf("emitting delta: %w", err)
	}

	return o.persist(sessionID, convID, newCursor, snapshot)
}

// persist re-reads the record so fields owned by concurrent writers (the
// notify worker's processed index) survive the full overwrite.
func (o *Orchestrator) persist(sessionID, convID, newCursor string, snapshot map[string]string) error {
	rec := o.store.Load(sessionID)
	rec.ConversationID = convID
	rec.LastSeenMessageID = newCursor
	rec.LastBlockValues = snapshot
	if err := o.store.Save(sessionID, rec); err != nil {
		return fmt.Errorf("saving session record: %w", err)
	}
	return nil
}

func sameSnapshot(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}
