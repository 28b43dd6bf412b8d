package conversations

import (
	"context"
	"fmt"
	"sync"

	"github.com/mudler/xlog"

	"github.com/scrossle/claude-subconscious/core/state"
	"github.com/scrossle/claude-subconscious/pkg/remote"
)

// Creator creates remote conversations. Satisfied by *remote.Client.
type Creator interface {
	CreateConversation(ctx context.Context, agentID string) (*remote.Conversation, error)
}

// Resolver maps sessions to durable remote conversations. It keeps a
// process-wide cache in front of the on-disk binding table; entries are
// invalidated when the configured agent no longer matches the one the
// conversation was created for.
type Resolver struct {
	convMutex sync.Mutex
	cache     map[string]state.Binding
	store     *state.BindingStore
	creator   Creator
}

// NewResolver creates a resolver over the given binding table
func NewResolver(store *state.BindingStore, creator Creator) *Resolver {
	return &Resolver{
		cache:   map[string]state.Binding{},
		store:   store,
		creator: creator,
	}
}

func (r *Resolver) lookup(sessionID string) (state.Binding, bool) {
	if b, ok := r.cache[sessionID]; ok {
		return b, true
	}
	b, ok := r.store.Get(sessionID)
	if ok {
		r.cache[sessionID] = b
	}
	return b, ok
}

// Resolve returns the conversation id for a session, creating a remote
// conversation when no valid binding exists. The session record is updated
// with the resolved id so subsequent calls take the fast path.
func (r *Resolver) Resolve(ctx context.Context, sessionID, agentID string, rec *state.SessionRecord) (string, error) {
	// fast path: the session already carries its conversation
	if rec != nil && rec.ConversationID != "" {
		return rec.ConversationID, nil
	}

	r.convMutex.Lock()
	defer r.convMutex.Unlock()

	b, ok := r.lookup(sessionID)
	if ok && !b.Legacy() && b.AgentID == agentID {
		xlog.Debug("Reusing conversation binding", "session", sessionID, "conversation", b.ConversationID)
		if rec != nil {
			rec.ConversationID = b.ConversationID
		}
		return b.ConversationID, nil
	}

	if ok {
		// legacy entry or a different agent: the binding is stale
		xlog.Debug("Discarding stale conversation binding", "session", sessionID, "boundAgent", b.AgentID, "agent", agentID)
	}

	conv, err := r.creator.CreateConversation(ctx, agentID)
	if err != nil {
		return "", fmt.Errorf("error creating conversation: %w", err)
	}

	binding := state.Binding{ConversationID: conv.ID, AgentID: agentID}
	r.cache[sessionID] = binding
	if err := r.store.Put(sessionID, binding); err != nil {
		xlog.Warn("Failed to persist conversation binding", "session", sessionID, "error", err)
	}

	xlog.Info("Created conversation", "session", sessionID, "conversation", conv.ID, "agent", agentID)
	if rec != nil {
		rec.ConversationID = conv.ID
	}
	return conv.ID, nil
}

// Lookup is the side-effect-free variant of Resolve: it never creates a
// conversation and reports false when no valid binding exists yet.
func (r *Resolver) Lookup(sessionID, agentID string) (string, bool) {
	r.convMutex.Lock()
	defer r.convMutex.Unlock()

	b, ok := r.lookup(sessionID)
	if !ok || b.Legacy() || b.AgentID != agentID {
		return "", false
	}
	return b.ConversationID, true
}
