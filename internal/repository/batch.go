package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/noah-isme/sma-timetable-sync/internal/models"
	"github.com/noah-isme/sma-timetable-sync/pkg/kvstore"
)

// Batch stages whole-aggregate writes and applies them in order. If any write
// fails, keys already written are restored to their previous values so that a
// failed mutation leaves no partial cross-aggregate state behind.
type Batch struct {
	store kvstore.Store
	now   func() time.Time
	ops   []batchOp
	index map[string]int
}

type batchOp struct {
	key   string
	value string
}

type appliedOp struct {
	key     string
	prior   string
	existed bool
}

// PutPersonnel stamps and stages a personnel aggregate. A later put of the same key wins.
func (b *Batch) PutPersonnel(schedule *models.PersonnelSchedule) error {
	schedule.LastModified = b.now()
	return b.stage(PersonnelScheduleKey(schedule.Identity.ID), schedule)
}

// PutClass stamps and stages a class aggregate. A later put of the same key wins.
func (b *Batch) PutClass(schedule *models.ClassSchedule) error {
	schedule.LastModified = b.now()
	return b.stage(ClassScheduleKey(schedule.Identity), schedule)
}

// PutIdentity stamps and stages a directory record, assigning an id when missing.
func (b *Batch) PutIdentity(identity *models.PersonnelIdentity) error {
	stampIdentity(identity, b.now())
	return b.stage(PersonnelIdentityKey(identity.ID), identity)
}

// Keys lists staged keys in apply order.
func (b *Batch) Keys() []string {
	keys := make([]string, len(b.ops))
	for i, op := range b.ops {
		keys[i] = op.key
	}
	return keys
}

// Len reports the number of staged writes.
func (b *Batch) Len() int { return len(b.ops) }

// Commit applies every staged write. On failure it rolls back and returns an
// error wrapping ErrWriteFailed; rollback failures are joined onto it.
func (b *Batch) Commit(ctx context.Context) error {
	applied := make([]appliedOp, 0, len(b.ops))
	for _, op := range b.ops {
		prior, existed, err := b.store.Get(ctx, op.key)
		if err != nil {
			return b.rollback(ctx, applied, fmt.Errorf("%w: read %s before write: %w", ErrWriteFailed, op.key, err))
		}
		if err := b.store.Set(ctx, op.key, op.value); err != nil {
			return b.rollback(ctx, applied, fmt.Errorf("%w: set %s: %w", ErrWriteFailed, op.key, err))
		}
		applied = append(applied, appliedOp{key: op.key, prior: prior, existed: existed})
	}
	return nil
}

func (b *Batch) rollback(ctx context.Context, applied []appliedOp, cause error) error {
	// Restore even when the commit context has expired.
	ctx = context.WithoutCancel(ctx)
	errs := []error{cause}
	for i := len(applied) - 1; i >= 0; i-- {
		op := applied[i]
		var err error
		if op.existed {
			err = b.store.Set(ctx, op.key, op.prior)
		} else {
			err = b.store.Remove(ctx, op.key)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("rollback %s: %w", op.key, err))
		}
	}
	return errors.Join(errs...)
}

func (b *Batch) stage(key string, value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if idx, ok := b.index[key]; ok {
		b.ops[idx].value = string(payload)
		return nil
	}
	b.index[key] = len(b.ops)
	b.ops = append(b.ops, batchOp{key: key, value: string(payload)})
	return nil
}
