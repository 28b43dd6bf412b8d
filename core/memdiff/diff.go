package memdiff

import (
	"strings"

	"github.com/scrossle/claude-subconscious/pkg/remote"
)

// Status classifies a changed block
type Status string

const (
	StatusNew      Status = "new"
	StatusModified Status = "modified"
)

// ChangedBlock is one block of the snapshot that differs from the previous
// sync. For modified blocks AddedLines/RemovedLines carry the set-based line
// diff; when both are empty despite a change (pure whitespace or reordering)
// the full value stands in for the diff.
type ChangedBlock struct {
	Label        string   `json:"label"`
	Value        string   `json:"value"`
	Status       Status   `json:"status"`
	AddedLines   []string `json:"addedLines,omitempty"`
	RemovedLines []string `json:"removedLines,omitempty"`
}

// Diff compares a fresh snapshot against the previously recorded block
// values and reports only what changed, in snapshot order. A nil previous
// map means this is the first sync for the session: nothing is reported,
// the caller seeds its state from the snapshot instead.
func Diff(current []remote.Block, previous map[string]string) []ChangedBlock {
	if previous == nil {
		return nil
	}

	changed := []ChangedBlock{}
	seen := map[string]bool{}
	for _, b := range current {
		if seen[b.Label] {
			// duplicate labels: first occurrence is authoritative
			continue
		}
		seen[b.Label] = true

		old, ok := previous[b.Label]
		if !ok {
			changed = append(changed, ChangedBlock{
				Label:  b.Label,
				Value:  b.Value,
				Status: StatusNew,
			})
			continue
		}
		if old == b.Value {
			continue
		}

		added, removed := lineSetDiff(old, b.Value)
		changed = append(changed, ChangedBlock{
			Label:        b.Label,
			Value:        b.Value,
			Status:       StatusModified,
			AddedLines:   added,
			RemovedLines: removed,
		})
	}
	return changed
}

// lineSetDiff compares two values as sets of trimmed, non-empty lines.
// Memory blocks are free-form prose with no alignment guarantee between
// revisions, so set membership conveys what facts changed without chasing
// line positions.
func lineSetDiff(oldValue, newValue string) (added, removed []string) {
	oldSet := lineSet(oldValue)
	newSet := lineSet(newValue)

	for _, line := range splitLines(newValue) {
		if _, ok := oldSet[line]; !ok {
			added = append(added, line)
		}
	}
	for _, line := range splitLines(oldValue) {
		if _, ok := newSet[line]; !ok {
			removed = append(removed, line)
		}
	}
	return added, removed
}

func splitLines(s string) []string {
	seen := map[string]bool{}
	lines := []string{}
	for _, raw := range strings.Split(s, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || seen[line] {
			continue
		}
		seen[line] = true
		lines = append(lines, line)
	}
	return lines
}

func lineSet(s string) map[string]struct{} {
	set := map[string]struct{}{}
	for _, line := range splitLines(s) {
		set[line] = struct{}{}
	}
	return set
}
