package repository

import (
	"context"
	"errors"

	"github.com/noah-isme/sma-timetable-sync/pkg/kvstore"
)

var errInjected = errors.New("quota exceeded")

// flakyStore fails Set for the listed keys and delegates everything else.
type flakyStore struct {
	*kvstore.MemoryStore
	failSet map[string]bool
}

func newFlakyStore() *flakyStore {
	return &flakyStore{MemoryStore: kvstore.NewMemoryStore(), failSet: map[string]bool{}}
}

func (s *flakyStore) Set(ctx context.Context, key, value string) error {
	if s.failSet[key] {
		return errInjected
	}
	return s.MemoryStore.Set(ctx, key, value)
}
