package session

import (
	"context"
	"log/slog"
	"time"
)

// Janitor prunes expired session records on a fixed interval. Redis expires
// keys on its own; the memory and postgres backends need the sweep.
type Janitor struct {
	store    Store
	interval time.Duration
	log      *slog.Logger
}

func NewJanitor(store Store, interval time.Duration, log *slog.Logger) *Janitor {
	if interval <= 0 {
		interval = time.Hour
	}

	return &Janitor{
		store:    store,
		interval: interval,
		log:      log,
	}
}

func (j *Janitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.log.Info("session janitor stopping")
			return nil

		case <-ticker.C:
			removed, err := j.store.DeleteExpired(ctx, time.Now().UTC())

			if err != nil {
				j.log.Error("session sweep failed", "err", err)
				continue
			}

			if removed > 0 {
				j.log.Info("session sweep", "removed", removed)
			}
		}
	}
}
