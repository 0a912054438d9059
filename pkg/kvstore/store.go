// Package kvstore provides the string-keyed persistent map that schedule
// aggregates are written to, together with its concrete backends.
package kvstore

import (
	"context"
	"errors"
	"sort"
	"strings"
)

// ErrUnavailable is returned when the backing medium cannot be reached.
var ErrUnavailable = errors.New("kvstore: store unavailable")

// Store is a synchronous, fallible string map. Every call reports failure
// through its error rather than assuming success.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
	Ping(ctx context.Context) error
}

// KeysWithPrefix returns the sorted keys of s that start with prefix.
func KeysWithPrefix(ctx context.Context, s Store, prefix string) ([]string, error) {
	keys, err := s.Keys(ctx)
	if err != nil {
		return nil, err
	}
	matched := make([]string, 0, len(keys))
	for _, key := range keys {
		if strings.HasPrefix(key, prefix) {
			matched = append(matched, key)
		}
	}
	sort.Strings(matched)
	return matched, nil
}
