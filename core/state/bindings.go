package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/mudler/xlog"
	"github.com/tidwall/gjson"
)

// Binding associates a session with a remote conversation and the agent it
// was created for. A binding with no AgentID was written by an older layout
// (bare conversation-id string) and is always treated as stale.
type Binding struct {
	ConversationID string
	AgentID        string
}

// Legacy reports whether the binding predates agent tracking
func (b Binding) Legacy() bool {
	return b.AgentID == ""
}

type bindingJSON struct {
	ConversationID string `json:"conversationId"`
	AgentID        string `json:"agentId"`
}

// BindingStore persists the session -> conversation binding table shared by
// all sessions of one project scope. Reads fail open: a missing or corrupt
// table behaves as an empty one.
type BindingStore struct {
	sync.Mutex
	file string
}

// Bindings returns the binding table store of this scope
func (s *Store) Bindings() *BindingStore {
	return &BindingStore{
		file: filepath.Join(s.dir, "conversations.json"),
	}
}

// load decodes the table, upgrading legacy bare-string entries on the fly.
// Entry values are duck-typed: a JSON string is the legacy shape, an object
// is the current one.
func (bs *BindingStore) load() map[string]Binding {
	table := map[string]Binding{}

	data, err := os.ReadFile(bs.file)
	if err != nil {
		if !os.IsNotExist(err) {
			xlog.Debug("Failed to read binding table", "file", bs.file, "error", err)
		}
		return table
	}

	parsed := gjson.ParseBytes(data)
	if !parsed.IsObject() {
		xlog.Debug("Discarding corrupt binding table", "file", bs.file)
		return table
	}

	parsed.ForEach(func(key, value gjson.Result) bool {
		switch {
		case value.Type == gjson.String:
			table[key.String()] = Binding{ConversationID: value.String()}
		case value.IsObject():
			table[key.String()] = Binding{
				ConversationID: value.Get("conversationId").String(),
				AgentID:        value.Get("agentId").String(),
			}
		}
		return true
	})

	return table
}

// Get returns the binding recorded for a session, if any
func (bs *BindingStore) Get(sessionID string) (Binding, bool) {
	bs.Lock()
	defer bs.Unlock()

	b, ok := bs.load()[sessionID]
	return b, ok
}

// Put records a binding for a session, rewriting the whole table in the
// current entry shape
func (bs *BindingStore) Put(sessionID string, b Binding) error {
	bs.Lock()
	defer bs.Unlock()

	table := bs.load()
	table[sessionID] = b

	out := map[string]bindingJSON{}
	for k, v := range table {
		out[k] = bindingJSON{ConversationID: v.ConversationID, AgentID: v.AgentID}
	}

	if err := os.MkdirAll(filepath.Dir(bs.file), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(bs.file, data)
}
