package registry

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"bangd/bang"
	"bangd/snapshot"
)

// Remote is the remote sync store as seen by the registry and the syncer.
type Remote interface {
	FetchAll(ctx context.Context) ([]bang.Record, error)
	LastUpdated(ctx context.Context) (time.Time, error)
	UpsertAll(ctx context.Context, records []bang.Record, ts time.Time) error
	UpsertOne(ctx context.Context, rec bang.Record, ts time.Time) error
	DeleteByKey(ctx context.Context, key string, ts time.Time) error
}

// Registry is the application state shared by every surface: the bang
// store, the default engine, the recently-used list and the collaborators
// that persist them. Mutations are serialized; each one rewrites the local
// snapshot and mirrors the single change to the remote store.
type Registry struct {
	mu         sync.Mutex
	store      *bang.Store
	file       *snapshot.File
	remote     Remote
	log        *zap.Logger
	now        func() time.Time
	defaultKey string
	updatedAt  time.Time
	recent     []string

	subMu   sync.Mutex
	subs    map[int]func()
	nextSub int
}

// Option configures a Registry.
type Option func(*Registry)

// WithRemote mirrors mutations to rs.
func WithRemote(rs Remote) Option {
	return func(r *Registry) { r.remote = rs }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(r *Registry) { r.log = log }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// New loads the snapshot from file. fallbackDefault is used when the
// snapshot does not name a default engine.
func New(file *snapshot.File, fallbackDefault string, opts ...Option) *Registry {
	r := &Registry{
		file: file,
		log:  zap.NewNop(),
		now:  time.Now,
		subs: make(map[int]func()),
	}
	for _, o := range opts {
		o(r)
	}

	snap := file.Load()
	r.store = bang.NewStore(snap.Bangs)
	r.defaultKey = snap.Default
	if r.defaultKey == "" {
		r.defaultKey = fallbackDefault
	}
	r.updatedAt = snap.UpdatedAt
	r.recent = snap.RecentlyUsed
	r.log.Info("loaded bangs",
		zap.String("path", file.Path()),
		zap.Int("count", r.store.Len()),
		zap.String("default", r.defaultKey))
	return r
}

// HasRemote reports whether a remote store is configured.
func (r *Registry) HasRemote() bool {
	return r.remote != nil
}

// Remote returns the configured remote store, or nil.
func (r *Registry) Remote() Remote {
	return r.remote
}

// Records returns the bangs in store order.
func (r *Registry) Records() []bang.Record {
	return r.store.All()
}

// Get returns the bang with the given id.
func (r *Registry) Get(id string) (bang.Record, bool) {
	return r.store.Get(id)
}

// Find returns the first bang with key.
func (r *Registry) Find(key string) (bang.Record, bool) {
	return r.store.Find(strings.TrimPrefix(key, "!"))
}

// Default returns the default engine key.
func (r *Registry) Default() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.defaultKey
}

// UpdatedAt returns the time of the last local change or sync.
func (r *Registry) UpdatedAt() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.updatedAt
}

// RecentlyUsed returns bang keys in most-recently-used order.
func (r *Registry) RecentlyUsed() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.recent))
	copy(out, r.recent)
	return out
}

// Search tokenizes raw and ranks the bangs against it.
func (r *Registry) Search(raw string) (bang.Query, []bang.Scored) {
	q := bang.Tokenize(raw)
	return q, bang.Rank(r.store.All(), q)
}

// Resolve turns a raw query into a destination. An explicit bang hit is
// recorded in the recently-used list.
func (r *Registry) Resolve(query string) (bang.Resolution, error) {
	res, err := bang.Resolve(query, r.store.All(), r.Default())
	if err != nil {
		return res, err
	}
	if res.Outcome == bang.OutcomeResolved {
		r.markUsed(res.Record.Key)
	}
	return res, nil
}

// Suggest proposes existing keys close to candidate.
func (r *Registry) Suggest(candidate string) []string {
	return bang.Suggest(r.store.All(), candidate)
}

// Add validates and appends rec.
func (r *Registry) Add(ctx context.Context, rec bang.Record) (bang.Record, error) {
	rec, err := bang.Normalize(rec)
	if err != nil {
		return bang.Record{}, err
	}
	rec.ID = ""

	r.mu.Lock()
	added := r.store.Add(rec)
	ts := r.touchLocked()
	r.mirror(func(rs Remote) error { return rs.UpsertOne(ctx, added, ts) })
	r.mu.Unlock()

	r.log.Info("bang added", zap.String("key", added.Key), zap.String("id", added.ID))
	r.notify()
	return added, nil
}

// Update replaces the bang with id. When the key changes the old key is
// removed from the remote store.
func (r *Registry) Update(ctx context.Context, id string, rec bang.Record) (bang.Record, error) {
	rec, err := bang.Normalize(rec)
	if err != nil {
		return bang.Record{}, err
	}

	r.mu.Lock()
	prev, err := r.store.Update(id, rec)
	if err != nil {
		r.mu.Unlock()
		return bang.Record{}, fmt.Errorf("update %s: %w", id, err)
	}
	rec.ID = id
	ts := r.touchLocked()
	if !strings.EqualFold(prev.Key, rec.Key) {
		r.mirror(func(rs Remote) error { return rs.DeleteByKey(ctx, prev.Key, ts) })
	}
	r.mirror(func(rs Remote) error { return rs.UpsertOne(ctx, rec, ts) })
	r.mu.Unlock()

	r.log.Info("bang updated", zap.String("key", rec.Key), zap.String("id", id))
	r.notify()
	return rec, nil
}

// Delete removes the bang with id.
func (r *Registry) Delete(ctx context.Context, id string) (bang.Record, error) {
	r.mu.Lock()
	removed, err := r.store.Delete(id)
	if err != nil {
		r.mu.Unlock()
		return bang.Record{}, fmt.Errorf("delete %s: %w", id, err)
	}
	ts := r.touchLocked()
	r.mirror(func(rs Remote) error { return rs.DeleteByKey(ctx, removed.Key, ts) })
	r.mu.Unlock()

	r.log.Info("bang deleted", zap.String("key", removed.Key), zap.String("id", id))
	r.notify()
	return removed, nil
}

// ImportStats counts the effect of an Import.
type ImportStats struct {
	Added   int `json:"added"`
	Updated int `json:"updated"`
}

// Import adds records in bulk. With replace the store is overwritten;
// otherwise a record whose key already exists updates the first bang with
// that key and the rest are appended. Every record is validated before
// anything changes.
func (r *Registry) Import(ctx context.Context, records []bang.Record, replace bool) (ImportStats, error) {
	clean := make([]bang.Record, 0, len(records))
	for i, rec := range records {
		n, err := bang.Normalize(rec)
		if err != nil {
			return ImportStats{}, fmt.Errorf("record %d: %w", i, err)
		}
		clean = append(clean, n)
	}

	var stats ImportStats
	r.mu.Lock()
	if replace {
		r.store.Replace(clean)
		stats.Added = len(clean)
	} else {
		for _, rec := range clean {
			if existing, ok := r.store.Find(rec.Key); ok {
				if _, err := r.store.Update(existing.ID, rec); err == nil {
					stats.Updated++
				}
				continue
			}
			rec.ID = ""
			r.store.Add(rec)
			stats.Added++
		}
	}
	ts := r.touchLocked()
	all := r.store.All()
	r.mirror(func(rs Remote) error { return rs.UpsertAll(ctx, all, ts) })
	r.mu.Unlock()

	r.log.Info("imported bangs",
		zap.Int("added", stats.Added),
		zap.Int("updated", stats.Updated),
		zap.Bool("replace", replace))
	r.notify()
	return stats, nil
}

// SetDefault makes key the default engine. The key must exist.
func (r *Registry) SetDefault(key string) error {
	rec, ok := r.Find(key)
	if !ok {
		return fmt.Errorf("default %q: %w", key, bang.ErrNotFound)
	}

	r.mu.Lock()
	r.defaultKey = rec.Key
	r.persistLocked()
	r.mu.Unlock()

	r.log.Info("default search engine changed", zap.String("key", rec.Key), zap.String("name", rec.Name))
	r.notify()
	return nil
}

// Version returns the store version, for use with ApplyRemote.
func (r *Registry) Version() uint64 {
	return r.store.Version()
}

// ApplyRemote replaces the local bangs with a fetched remote snapshot
// stamped ts. It refuses, returning false, when the store changed since
// baseVersion was read: a local mutation is newer than the fetch and must
// not be overwritten.
func (r *Registry) ApplyRemote(records []bang.Record, ts time.Time, baseVersion uint64) bool {
	r.mu.Lock()
	if r.store.Version() != baseVersion {
		r.mu.Unlock()
		return false
	}
	r.store.Replace(records)
	r.updatedAt = ts
	r.persistLocked()
	r.mu.Unlock()

	r.log.Info("applied remote snapshot", zap.Int("count", len(records)), zap.Time("remote_updated", ts))
	r.notify()
	return true
}

// SnapshotForPush returns the records, their stamp and the store version,
// read together so a push sends a consistent state.
func (r *Registry) SnapshotForPush() ([]bang.Record, time.Time, uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store.All(), r.updatedAt, r.store.Version()
}

// MarkSynced records that the state read at baseVersion was pushed to the
// remote store with stamp ts. It refuses, returning false, when a local
// mutation landed in the meantime: the remote overwrite may have dropped
// its mirror, so the caller must push again.
func (r *Registry) MarkSynced(ts time.Time, baseVersion uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.store.Version() != baseVersion {
		return false
	}
	r.updatedAt = ts
	r.persistLocked()
	return true
}

// Reload re-reads the snapshot file and adopts it when it is newer than
// the in-memory state. It reports whether anything changed.
func (r *Registry) Reload() bool {
	snap := r.file.Load()

	r.mu.Lock()
	if !snap.UpdatedAt.After(r.updatedAt) {
		r.mu.Unlock()
		return false
	}
	r.store.Replace(snap.Bangs)
	if snap.Default != "" {
		r.defaultKey = snap.Default
	}
	r.updatedAt = snap.UpdatedAt
	r.recent = snap.RecentlyUsed
	r.mu.Unlock()

	r.log.Info("reloaded snapshot", zap.String("path", r.file.Path()), zap.Int("count", len(snap.Bangs)))
	r.notify()
	return true
}

// Subscribe registers fn to run after every change of the bang set. The
// returned function unregisters it.
func (r *Registry) Subscribe(fn func()) (cancel func()) {
	r.subMu.Lock()
	defer r.subMu.Unlock()
	id := r.nextSub
	r.nextSub++
	r.subs[id] = fn
	return func() {
		r.subMu.Lock()
		defer r.subMu.Unlock()
		delete(r.subs, id)
	}
}

func (r *Registry) notify() {
	r.subMu.Lock()
	fns := make([]func(), 0, len(r.subs))
	for _, fn := range r.subs {
		fns = append(fns, fn)
	}
	r.subMu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func (r *Registry) markUsed(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	exists := func(k string) bool {
		_, ok := r.store.Find(k)
		return ok
	}
	r.recent = snapshot.MarkUsed(r.recent, key, exists)
	r.persistLocked()
}

// touchLocked stamps a local change and persists it. Caller holds r.mu.
func (r *Registry) touchLocked() time.Time {
	ts := r.now().UTC()
	r.updatedAt = ts
	r.persistLocked()
	return ts
}

// persistLocked writes the whole snapshot. Failures are logged; the
// in-memory state stays authoritative. Caller holds r.mu.
func (r *Registry) persistLocked() {
	err := r.file.Save(snapshot.Snapshot{
		Bangs:        r.store.All(),
		Default:      r.defaultKey,
		UpdatedAt:    r.updatedAt,
		RecentlyUsed: r.recent,
	})
	if err != nil {
		r.log.Error("save snapshot", zap.String("path", r.file.Path()), zap.Error(err))
	}
}

// mirror runs fn against the remote store, if any. Failures are logged and
// left for the next sync to reconcile.
func (r *Registry) mirror(fn func(Remote) error) {
	if r.remote == nil {
		return
	}
	if err := fn(r.remote); err != nil {
		r.log.Warn("remote mirror failed", zap.Error(err))
	}
}
