package sweep

import (
	"context"
	"time"

	"log/slog"

	"github.com/RexySaragih/beaver/internal/store"
	"github.com/RexySaragih/beaver/pkg/metrics"
)

// Sweeper deletes rooms whose last write is older than the TTL. The store's
// own key TTL already bounds staleness; the sweep keeps listings clean and
// covers stores without native expiry.
type Sweeper struct {
	log      *slog.Logger
	store    store.Store
	ttl      time.Duration
	interval time.Duration
}

func New(logger *slog.Logger, st store.Store, ttl, interval time.Duration) *Sweeper {
	return &Sweeper{log: logger, store: st, ttl: ttl, interval: interval}
}

// Run sweeps on a fixed interval until ctx is cancelled
func (s *Sweeper) Run(ctx context.Context) {
	t := time.NewTicker(s.interval)
	defer t.Stop()

	for {
		select {
		case <-t.C:
			s.Sweep(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Sweep runs one pass. A failure on one room never aborts the rest, and
// racing a live join is fine: the next operation recreates the room.
func (s *Sweeper) Sweep(ctx context.Context) {
	ids, err := s.store.ListRoomIDs(ctx)
	if err != nil {
		s.log.Error("sweep.list", "err", err)
		return
	}

	cutoff := time.Now().Add(-s.ttl).UnixMilli()
	expired := 0
	for _, id := range ids {
		rm, err := s.store.Get(ctx, id)
		if err != nil {
			s.log.Error("sweep.get", "room", id, "err", err)
			continue
		}
		if rm == nil || rm.LastUpdated > cutoff {
			continue
		}
		if err := s.store.Delete(ctx, id); err != nil {
			s.log.Error("sweep.delete", "room", id, "err", err)
			continue
		}
		expired++
		metrics.RoomsExpired.Inc()
	}

	if expired > 0 {
		s.log.Info("sweep.done", "expired", expired, "scanned", len(ids))
	}
}
