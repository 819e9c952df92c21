package snapshot

import (
	"strings"
	"time"

	"bangd/bang"
)

// maxRecent caps the recently-used list.
const maxRecent = 10

// Snapshot is the full persistent local state.
type Snapshot struct {
	Bangs        []bang.Record `json:"bangs"`
	Default      string        `json:"default"`
	UpdatedAt    time.Time     `json:"updatedAt"`
	RecentlyUsed []string      `json:"recentlyUsed"` // MRU order, max 10 keys
}

// MarkUsed returns recent with key moved to the front, deduplicated
// (case-insensitively), capped at 10 and without keys that no longer
// exist. A key that does not exist leaves recent unchanged.
func MarkUsed(recent []string, key string, exists func(string) bool) []string {
	if !exists(key) {
		return recent
	}

	seen := map[string]bool{strings.ToLower(key): true}
	out := []string{key}
	for _, k := range recent {
		lk := strings.ToLower(k)
		if seen[lk] || !exists(k) {
			continue
		}
		seen[lk] = true
		out = append(out, k)
		if len(out) == maxRecent {
			break
		}
	}
	return out
}

func normalize(s Snapshot) Snapshot {
	if s.Bangs == nil {
		s.Bangs = []bang.Record{}
	}
	if s.RecentlyUsed == nil {
		s.RecentlyUsed = []string{}
	}
	return s
}
