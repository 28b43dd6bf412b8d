package cursor

import (
	"github.com/scrossle/claude-subconscious/pkg/remote"
)

// Visible filters a feed down to the consumer-visible subsequence. Only
// assistant messages are surfaced; other kinds occupy feed positions but
// never participate in cursor arithmetic.
func Visible(feed []remote.Message) []remote.Message {
	visible := make([]remote.Message, 0, len(feed))
	for _, m := range feed {
		if m.MessageType == remote.MessageTypeAssistant {
			visible = append(visible, m)
		}
	}
	return visible
}

// NewSince computes which messages of a newest-first feed are newer than
// the recorded cursor, and the cursor to record next.
//
// With no cursor the whole visible window counts as new; the caller decides
// whether to show it. A cursor that is not found in the window (it scrolled
// out of the fetch limit) also yields the whole window: re-showing a bounded
// amount of possibly-seen content beats silently dropping messages.
//
// New messages are returned oldest-first so consumers render them in
// chronological order. The new cursor is the id of the newest visible
// message, or the previous cursor when the feed has none.
func NewSince(feed []remote.Message, cursorID string) ([]remote.Message, string) {
	visible := Visible(feed)
	if len(visible) == 0 {
		return nil, cursorID
	}

	cut := len(visible)
	if cursorID != "" {
		cut = -1
		for i, m := range visible {
			if m.ID == cursorID {
				cut = i
				break
			}
		}
		if cut == -1 {
			// cursor scrolled out of the window
			cut = len(visible)
		}
	}

	news := make([]remote.Message, 0, cut)
	for i := cut - 1; i >= 0; i-- {
		news = append(news, visible[i])
	}
	return news, visible[0].ID
}
