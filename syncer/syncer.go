package syncer

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"bangd/bang"
	"bangd/registry"
	"bangd/remote"
)

// Action is what a sync pass did.
type Action string

const (
	ActionPushed  Action = "pushed"
	ActionFetched Action = "fetched"
	ActionInSync  Action = "in_sync"
	ActionSkipped Action = "skipped"
)

// ErrNoRemote is returned when no remote store is configured.
var ErrNoRemote = errors.New("remote sync not configured")

// Syncer reconciles the registry with its remote store. Whichever side was
// updated last overwrites the other wholesale.
type Syncer struct {
	reg   *registry.Registry
	log   *zap.Logger
	now   func() time.Time
	group singleflight.Group
}

// New returns a Syncer for reg. It fails with ErrNoRemote when reg has no
// remote store.
func New(reg *registry.Registry, log *zap.Logger) (*Syncer, error) {
	if !reg.HasRemote() {
		return nil, ErrNoRemote
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Syncer{reg: reg, log: log, now: time.Now}, nil
}

// Sync runs one reconciliation pass. Concurrent callers share a single pass.
// Remote failures end the pass with ActionSkipped and the error; local state
// is never touched in that case.
func (s *Syncer) Sync(ctx context.Context) (Action, error) {
	v, err, _ := s.group.Do("sync", func() (interface{}, error) {
		return s.sync(ctx)
	})
	return v.(Action), err
}

func (s *Syncer) sync(ctx context.Context) (Action, error) {
	rs := s.reg.Remote()
	local := s.reg.UpdatedAt()

	remoteTS, err := rs.LastUpdated(ctx)
	switch {
	case errors.Is(err, remote.ErrNoMetadata):
		s.log.Info("no remote metadata, sending local bangs")
		return s.push(ctx)
	case err != nil:
		s.log.Warn("check remote last update", zap.Error(err))
		return ActionSkipped, err
	}

	s.log.Debug("sync timestamps", zap.Time("local", local), zap.Time("remote", remoteTS))
	switch {
	case local.IsZero() || remoteTS.After(local):
		s.log.Info("remote is newer, fetching")
		return s.fetch(ctx, remoteTS)
	case local.After(remoteTS):
		s.log.Info("local is newer, sending")
		return s.push(ctx)
	case len(s.reg.Records()) == 0:
		s.log.Info("local is empty, fetching")
		return s.fetch(ctx, remoteTS)
	}
	return ActionInSync, nil
}

func (s *Syncer) fetch(ctx context.Context, remoteTS time.Time) (Action, error) {
	base := s.reg.Version()
	records, err := s.reg.Remote().FetchAll(ctx)
	if err != nil {
		s.log.Warn("fetch remote bangs", zap.Error(err))
		return ActionSkipped, err
	}
	if !s.reg.ApplyRemote(records, remoteTS, base) {
		// A local edit landed while fetching; it is newer than the remote.
		s.log.Info("local changed during fetch, sending instead")
		return s.push(ctx)
	}
	return ActionFetched, nil
}

// pushAttempts bounds how often push restarts when local edits keep
// landing while the remote is being overwritten.
const pushAttempts = 3

func (s *Syncer) push(ctx context.Context) (Action, error) {
	for attempt := 1; attempt <= pushAttempts; attempt++ {
		records, ts, base := s.reg.SnapshotForPush()
		if ts.IsZero() {
			ts = s.now().UTC()
		}
		if dups := duplicateKeys(records); len(dups) > 0 {
			// The remote table is keyed by key; later duplicates overwrite earlier ones.
			s.log.Warn("duplicate keys collapse on the remote", zap.Strings("keys", dups))
		}
		if err := s.reg.Remote().UpsertAll(ctx, records, ts); err != nil {
			s.log.Warn("send bangs to remote", zap.Error(err))
			return ActionSkipped, err
		}
		if s.reg.MarkSynced(ts, base) {
			s.log.Info("sent bangs to remote", zap.Int("count", len(records)))
			return ActionPushed, nil
		}
		s.log.Info("local changed during push, sending again", zap.Int("attempt", attempt))
	}
	return ActionSkipped, errPushContended
}

var errPushContended = errors.New("local bangs kept changing during push")

// duplicateKeys lists keys that occur more than once, in first-seen order.
// Keys compare exactly, as the remote primary key does.
func duplicateKeys(records []bang.Record) []string {
	seen := make(map[string]int, len(records))
	var dups []string
	for _, r := range records {
		seen[r.Key]++
		if seen[r.Key] == 2 {
			dups = append(dups, r.Key)
		}
	}
	return dups
}

// Run syncs once immediately and then every interval until ctx is done.
// Errors are logged and never stop the loop.
func (s *Syncer) Run(ctx context.Context, interval time.Duration) error {
	s.runOnce(ctx)
	if interval <= 0 {
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Syncer) runOnce(ctx context.Context) {
	action, err := s.Sync(ctx)
	if err != nil {
		s.log.Warn("sync skipped", zap.Error(err))
		return
	}
	s.log.Debug("sync finished", zap.String("action", string(action)))
}
