package session

import (
	"context"
	"time"
)

// StoreObserver is the metrics hook a store decorator reports into.
type StoreObserver interface {
	ObserveStore(op string, fn func() error) error
}

type instrumentedStore struct {
	next Store
	obs  StoreObserver
}

// InstrumentStore wraps a Store so every operation is timed and counted.
func InstrumentStore(next Store, obs StoreObserver) Store {
	if obs == nil {
		return next
	}
	return &instrumentedStore{next: next, obs: obs}
}

func (s *instrumentedStore) Save(ctx context.Context, sess Session) error {
	return s.obs.ObserveStore("save", func() error {
		return s.next.Save(ctx, sess)
	})
}

func (s *instrumentedStore) Get(ctx context.Context, id string) (Session, error) {
	var out Session

	err := s.obs.ObserveStore("get", func() error {
		var err error
		out, err = s.next.Get(ctx, id)
		return err
	})

	return out, err
}

func (s *instrumentedStore) Delete(ctx context.Context, id string) error {
	return s.obs.ObserveStore("delete", func() error {
		return s.next.Delete(ctx, id)
	})
}

func (s *instrumentedStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	var n int

	err := s.obs.ObserveStore("delete_expired", func() error {
		var err error
		n, err = s.next.DeleteExpired(ctx, now)
		return err
	})

	return n, err
}

func (s *instrumentedStore) Ping(ctx context.Context) error {
	return s.next.Ping(ctx)
}
