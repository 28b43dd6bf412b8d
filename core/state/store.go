package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/mudler/xlog"
	"github.com/tidwall/sjson"
)

// SessionRecord is the durable per-session state. It is overwritten as a
// whole on every save, so callers round-trip fields they do not own.
type SessionRecord struct {
	SessionID         string            `json:"sessionId"`
	ConversationID    string            `json:"conversationId,omitempty"`
	LastSeenMessageID string            `json:"lastSeenMessageId,omitempty"`
	LastBlockValues   map[string]string `json:"lastBlockValues"`

	// NewLastProcessedIndex is owned by the notify worker, which advances
	// it with a single-field write. Everyone else only round-trips it.
	NewLastProcessedIndex int `json:"newLastProcessedIndex,omitempty"`
}

// Store persists session records for one project scope
type Store struct {
	sync.Mutex
	dir string
}

// NewStore creates a store rooted at <stateDir>/<scope>
func NewStore(stateDir, scope string) *Store {
	return &Store{
		dir: filepath.Join(stateDir, scope),
	}
}

func (s *Store) sessionPath(sessionID string) string {
	return filepath.Join(s.dir, "sessions", sessionID+".json")
}

// Load returns the record for a session. A missing or unparseable file
// yields a zero-value record, never an error.
func (s *Store) Load(sessionID string) *SessionRecord {
	s.Lock()
	defer s.Unlock()

	rec := &SessionRecord{SessionID: sessionID}

	data, err := os.ReadFile(s.sessionPath(sessionID))
	if err != nil {
		if !os.IsNotExist(err) {
			xlog.Debug("Failed to read session record", "session", sessionID, "error", err)
		}
		return rec
	}
	if err := json.Unmarshal(data, rec); err != nil {
		xlog.Debug("Discarding corrupt session record", "session", sessionID, "error", err)
		return &SessionRecord{SessionID: sessionID}
	}
	rec.SessionID = sessionID
	return rec
}

// Save overwrites the record on disk, creating the session directory if needed
func (s *Store) Save(sessionID string, rec *SessionRecord) error {
	s.Lock()
	defer s.Unlock()

	path := s.sessionPath(sessionID)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(path, data)
}

// writeFileAtomic writes through a temp file and renames it into place, so
// a concurrent reader never observes a torn record. Writers still race
// whole-record, last one wins.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// AdvanceProcessedIndex increments newLastProcessedIndex in place without
// touching any other field of the record file. Used only by the notify
// worker, which owns that field.
func (s *Store) AdvanceProcessedIndex(sessionID string) error {
	s.Lock()
	defer s.Unlock()

	path := s.sessionPath(sessionID)
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return err
		}
		data = []byte("{}")
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return err
		}
	}

	var rec SessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		// corrupt records are rewritten from scratch elsewhere, skip quietly
		xlog.Debug("Skipping processed-index advance on corrupt record", "session", sessionID, "error", err)
		return nil
	}

	updated, err := sjson.SetBytes(data, "newLastProcessedIndex", rec.NewLastProcessedIndex+1)
	if err != nil {
		return err
	}
	return writeFileAtomic(path, updated)
}

// Dir returns the scope directory backing this store
func (s *Store) Dir() string {
	return s.dir
}
