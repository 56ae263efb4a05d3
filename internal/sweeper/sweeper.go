// Package sweeper deletes uploaded media that no sent message ever referenced.
package sweeper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/adhocore/gronx"

	"github.com/lojasmm/wabot/internal/store"
	"github.com/lojasmm/wabot/internal/whatsapp"
)

// Dedup ids older than this are pruned on every sweep. Meta stops
// redelivering a webhook long before that.
const processedRetention = 24 * time.Hour

type Store interface {
	Orphans(olderThan time.Duration) ([]store.Upload, error)
	ReleaseUpload(mediaID string) error
	PruneProcessed(olderThan time.Duration) (int, error)
}

type Deleter interface {
	DeleteMedia(ctx context.Context, mediaID string) (bool, error)
}

type Config struct {
	// Cron is a five-field cron expression.
	Cron      string
	OrphanAge time.Duration
}

// Result summarizes one sweep.
type Result struct {
	Deleted int
	Failed  int
	Pruned  int
}

type Sweeper struct {
	store   Store
	deleter Deleter
	cfg     Config
	log     *slog.Logger
	now     func() time.Time
}

func New(st Store, d Deleter, cfg Config, log *slog.Logger) (*Sweeper, error) {
	if !gronx.New().IsValid(cfg.Cron) {
		return nil, fmt.Errorf("invalid sweep schedule %q", cfg.Cron)
	}
	if cfg.OrphanAge <= 0 {
		return nil, fmt.Errorf("orphan age must be positive, got %s", cfg.OrphanAge)
	}
	return &Sweeper{
		store:   st,
		deleter: d,
		cfg:     cfg,
		log:     log.With("component", "sweeper"),
		now:     time.Now,
	}, nil
}

// Sweep deletes every upload older than the orphan age from the provider and
// drops it from the ledger. Media the provider no longer knows is dropped too;
// other failures stay in the ledger for the next sweep.
func (s *Sweeper) Sweep(ctx context.Context) (Result, error) {
	var res Result

	orphans, err := s.store.Orphans(s.cfg.OrphanAge)
	if err != nil {
		return res, fmt.Errorf("listing orphans: %w", err)
	}

	for _, u := range orphans {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		log := s.log.With("media_id", u.MediaID, "recipient", u.Recipient, "uploaded_at", u.UploadedAt)

		ok, err := s.deleter.DeleteMedia(ctx, u.MediaID)
		switch {
		case err != nil && whatsapp.IsNotFound(err):
			log.Info("orphan already gone")
		case err != nil:
			log.Warn("orphan delete failed", "error", err)
			res.Failed++
			continue
		case !ok:
			log.Warn("provider did not confirm orphan delete")
			res.Failed++
			continue
		default:
			res.Deleted++
		}

		if err := s.store.ReleaseUpload(u.MediaID); err != nil {
			log.Warn("failed to release orphan", "error", err)
		}
	}

	pruned, err := s.store.PruneProcessed(processedRetention)
	if err != nil {
		s.log.Warn("failed to prune processed ids", "error", err)
	}
	res.Pruned = pruned

	s.log.Info("sweep finished", "orphans", len(orphans), "deleted", res.Deleted, "failed", res.Failed, "pruned", res.Pruned)
	return res, nil
}

// Run sweeps on the configured schedule until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	for {
		next, err := gronx.NextTickAfter(s.cfg.Cron, s.now(), false)
		if err != nil {
			s.log.Error("cannot schedule next sweep", "cron", s.cfg.Cron, "error", err)
			return
		}

		timer := time.NewTimer(next.Sub(s.now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		if _, err := s.Sweep(ctx); err != nil && ctx.Err() == nil {
			s.log.Error("sweep failed", "error", err)
		}
	}
}
