package bang

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// idNamespace seeds deterministic ids for records that arrive without one
// (remote fetches, hand-edited snapshots).
var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("bangd:record"))

// Store is the ordered, in-memory collection of records. Insertion order is
// preserved and decides tie-breaks in Match and first-wins lookups in Find.
// Records are addressed by their stable ID, never by position.
type Store struct {
	mu      sync.RWMutex
	records []Record
	version uint64
}

// NewStore returns a store holding records in the given order.
func NewStore(records []Record) *Store {
	s := &Store{}
	s.records = withIDs(records)
	return s
}

// All returns a copy of the records in store order.
func (s *Store) All() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyRecords(s.records)
}

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Version is bumped by every mutation and every Replace.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Get returns the record with the given id.
func (s *Store) Get(id string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexOf(id)
	if i < 0 {
		return Record{}, false
	}
	return s.records[i], true
}

// Find returns the first record whose key matches key case-insensitively.
func (s *Store) Find(key string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return FindKey(s.records, key)
}

// Add appends rec, assigning a fresh id when it has none.
func (s *Store) Add(rec Record) Record {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	s.version++
	return rec
}

// Update replaces the record with the given id in place. The stored record
// keeps the id and its position; the previous value is returned.
func (s *Store) Update(id string, rec Record) (prev Record, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return Record{}, ErrNotFound
	}
	prev = s.records[i]
	rec.ID = id
	s.records[i] = rec
	s.version++
	return prev, nil
}

// Delete removes the record with the given id and returns it.
func (s *Store) Delete(id string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return Record{}, ErrNotFound
	}
	removed := s.records[i]
	s.records = append(s.records[:i:i], s.records[i+1:]...)
	s.version++
	return removed, nil
}

// Replace overwrites the whole sequence. A record without an id takes the
// id of the current record with the same key, so edits addressed by id
// survive a sync overwrite; keys seen for the first time get an id derived
// from the key.
func (s *Store) Replace(records []Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = withIDs(carryIDs(s.records, records))
	s.version++
}

func (s *Store) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i := range s.records {
		if s.records[i].ID == id {
			return i
		}
	}
	return -1
}

// FindKey returns the first record in records whose key equals key,
// ignoring case.
func FindKey(records []Record, key string) (Record, bool) {
	if key == "" {
		return Record{}, false
	}
	for _, r := range records {
		if strings.EqualFold(r.Key, key) {
			return r, true
		}
	}
	return Record{}, false
}

// KeyID is the deterministic id given to a record that has none.
func KeyID(key string) string {
	return uuid.NewSHA1(idNamespace, []byte(strings.ToLower(key))).String()
}

func withIDs(records []Record) []Record {
	out := copyRecords(records)
	seen := make(map[string]bool, len(out))
	for i := range out {
		if out[i].ID == "" || seen[out[i].ID] {
			out[i].ID = KeyID(out[i].Key)
			// Duplicate keys would collide on the derived id.
			if seen[out[i].ID] {
				out[i].ID = uuid.New().String()
			}
		}
		seen[out[i].ID] = true
	}
	return out
}

// carryIDs fills empty ids in next from prev by key. Duplicate keys pair up
// in order: the first "g" in next takes the id of the first "g" in prev.
func carryIDs(prev, next []Record) []Record {
	ids := make(map[string][]string, len(prev))
	for _, r := range prev {
		k := strings.ToLower(r.Key)
		ids[k] = append(ids[k], r.ID)
	}
	out := copyRecords(next)
	for i := range out {
		if out[i].ID != "" {
			continue
		}
		k := strings.ToLower(out[i].Key)
		if q := ids[k]; len(q) > 0 {
			out[i].ID, ids[k] = q[0], q[1:]
		}
	}
	return out
}

func copyRecords(records []Record) []Record {
	out := make([]Record, len(records))
	copy(out, records)
	return out
}
