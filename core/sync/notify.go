package sync

import (
	"context"

	"github.com/mudler/xlog"
	"github.com/sashabaranov/go-openai"

	"github.com/scrossle/claude-subconscious/core/conversations"
	"github.com/scrossle/claude-subconscious/core/state"
	"github.com/scrossle/claude-subconscious/pkg/remote"
)

// NotifyEarly forwards a prompt to the session's conversation ahead of the
// next full sync, then advances the worker-owned processed index. It runs in
// a detached worker process: everything here is best effort, failures are
// logged and swallowed, and no binding is ever created (a session that has
// no conversation yet simply does not get notified early).
func NotifyEarly(ctx context.Context, client *remote.Client, store *state.Store, resolver *conversations.Resolver, sessionID, agentID, text string) {
	if text == "" {
		return
	}

	rec := store.Load(sessionID)
	convID := rec.ConversationID
	if convID == "" {
		id, ok := resolver.Lookup(sessionID, agentID)
		if !ok {
			xlog.Debug("No conversation bound yet, skipping early notify", "session", sessionID)
			return
		}
		convID = id
	}

	status, err := client.PostMessage(ctx, convID, openai.ChatMessageRoleUser, text)
	if err != nil {
		xlog.Debug("Early notify post failed", "session", sessionID, "error", err)
		return
	}
	xlog.Debug("Early notify posted", "session", sessionID, "status", status)

	if err := store.AdvanceProcessedIndex(sessionID); err != nil {
		xlog.Debug("Failed to advance processed index", "session", sessionID, "error", err)
	}
}
