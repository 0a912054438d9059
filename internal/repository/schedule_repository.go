package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/noah-isme/sma-timetable-sync/internal/models"
	"github.com/noah-isme/sma-timetable-sync/pkg/kvstore"
)

type personnelFinder interface {
	FindByCode(ctx context.Context, code string) (*models.PersonnelIdentity, error)
}

// ScheduleRepository reads and writes the by-personnel and by-class aggregates.
// Each aggregate lives under one key and is always replaced whole.
type ScheduleRepository struct {
	store     kvstore.Store
	personnel personnelFinder
	now       func() time.Time
}

// NewScheduleRepository constructs a ScheduleRepository.
func NewScheduleRepository(store kvstore.Store, personnel personnelFinder) *ScheduleRepository {
	return &ScheduleRepository{store: store, personnel: personnel, now: func() time.Time { return time.Now().UTC() }}
}

// Ping reports store availability.
func (r *ScheduleRepository) Ping(ctx context.Context) error {
	return r.store.Ping(ctx)
}

// GetPersonnelSchedule loads the aggregate of the personnel with the given code.
// It returns nil when either the code or the aggregate is unknown.
func (r *ScheduleRepository) GetPersonnelSchedule(ctx context.Context, code string) (*models.PersonnelSchedule, error) {
	identity, err := r.personnel.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	schedule, err := r.GetPersonnelScheduleByID(ctx, identity.ID)
	if err != nil || schedule == nil {
		return nil, err
	}
	schedule.Identity = *identity
	return schedule, nil
}

// GetPersonnelScheduleByID loads a personnel aggregate by surrogate id, or nil.
func (r *ScheduleRepository) GetPersonnelScheduleByID(ctx context.Context, personnelID string) (*models.PersonnelSchedule, error) {
	var schedule models.PersonnelSchedule
	found, err := r.load(ctx, PersonnelScheduleKey(personnelID), &schedule)
	if err != nil || !found {
		return nil, err
	}
	return &schedule, nil
}

// GetClassSchedule loads a class aggregate, or nil.
func (r *ScheduleRepository) GetClassSchedule(ctx context.Context, class models.ClassIdentity) (*models.ClassSchedule, error) {
	var schedule models.ClassSchedule
	found, err := r.load(ctx, ClassScheduleKey(class), &schedule)
	if err != nil || !found {
		return nil, err
	}
	return &schedule, nil
}

// UpsertPersonnelSchedule replaces the whole aggregate and bumps LastModified.
func (r *ScheduleRepository) UpsertPersonnelSchedule(ctx context.Context, schedule *models.PersonnelSchedule) error {
	stamped := *schedule
	stamped.LastModified = r.now()
	if err := r.save(ctx, PersonnelScheduleKey(stamped.Identity.ID), &stamped); err != nil {
		return err
	}
	schedule.LastModified = stamped.LastModified
	return nil
}

// UpsertClassSchedule replaces the whole aggregate and bumps LastModified.
func (r *ScheduleRepository) UpsertClassSchedule(ctx context.Context, schedule *models.ClassSchedule) error {
	stamped := *schedule
	stamped.LastModified = r.now()
	if err := r.save(ctx, ClassScheduleKey(stamped.Identity), &stamped); err != nil {
		return err
	}
	schedule.LastModified = stamped.LastModified
	return nil
}

// ListAllPersonnelSchedules scans every personnel aggregate, ordered by personnel code.
func (r *ScheduleRepository) ListAllPersonnelSchedules(ctx context.Context) ([]models.PersonnelSchedule, error) {
	keys, err := kvstore.KeysWithPrefix(ctx, r.store, PersonnelSchedulePrefix)
	if err != nil {
		return nil, fmt.Errorf("list personnel schedules: %w", err)
	}
	schedules := make([]models.PersonnelSchedule, 0, len(keys))
	for _, key := range keys {
		var schedule models.PersonnelSchedule
		found, err := r.load(ctx, key, &schedule)
		if err != nil {
			return nil, err
		}
		if found {
			schedules = append(schedules, schedule)
		}
	}
	sort.SliceStable(schedules, func(i, j int) bool {
		return schedules[i].Identity.PersonnelCode < schedules[j].Identity.PersonnelCode
	})
	return schedules, nil
}

// ListAllClassSchedules scans every class aggregate, ordered by grade, class and field.
func (r *ScheduleRepository) ListAllClassSchedules(ctx context.Context) ([]models.ClassSchedule, error) {
	keys, err := kvstore.KeysWithPrefix(ctx, r.store, ClassSchedulePrefix)
	if err != nil {
		return nil, fmt.Errorf("list class schedules: %w", err)
	}
	schedules := make([]models.ClassSchedule, 0, len(keys))
	for _, key := range keys {
		var schedule models.ClassSchedule
		found, err := r.load(ctx, key, &schedule)
		if err != nil {
			return nil, err
		}
		if found {
			schedules = append(schedules, schedule)
		}
	}
	sort.SliceStable(schedules, func(i, j int) bool {
		return classLess(schedules[i].Identity, schedules[j].Identity)
	})
	return schedules, nil
}

// DeleteEntry removes one entry from one aggregate. Missing aggregates or entries are a no-op.
func (r *ScheduleRepository) DeleteEntry(ctx context.Context, ref models.AggregateRef, entryID string) error {
	switch ref.Kind {
	case models.AggregatePersonnel:
		schedule, err := r.GetPersonnelScheduleByID(ctx, ref.PersonnelID)
		if err != nil || schedule == nil {
			return err
		}
		idx := schedule.Entries.IndexByID(entryID)
		if idx < 0 {
			return nil
		}
		schedule.Entries = schedule.Entries.RemoveAt(idx)
		return r.UpsertPersonnelSchedule(ctx, schedule)
	case models.AggregateClass:
		schedule, err := r.GetClassSchedule(ctx, ref.Class)
		if err != nil || schedule == nil {
			return err
		}
		idx := schedule.Entries.IndexByID(entryID)
		if idx < 0 {
			return nil
		}
		schedule.Entries = schedule.Entries.RemoveAt(idx)
		return r.UpsertClassSchedule(ctx, schedule)
	default:
		return fmt.Errorf("unknown aggregate kind %q", ref.Kind)
	}
}

// ClearAll removes every aggregate key and leaves all other keys alone.
// It returns the number of removed aggregates.
func (r *ScheduleRepository) ClearAll(ctx context.Context) (int, error) {
	removed := 0
	for _, prefix := range []string{PersonnelSchedulePrefix, ClassSchedulePrefix} {
		keys, err := kvstore.KeysWithPrefix(ctx, r.store, prefix)
		if err != nil {
			return removed, fmt.Errorf("list %s keys: %w", prefix, err)
		}
		for _, key := range keys {
			if err := r.store.Remove(ctx, key); err != nil {
				return removed, fmt.Errorf("%w: remove %s: %w", ErrWriteFailed, key, err)
			}
			removed++
		}
	}
	return removed, nil
}

// NewBatch starts a unit of work over this repository's store.
func (r *ScheduleRepository) NewBatch() *Batch {
	return &Batch{store: r.store, now: r.now, index: make(map[string]int)}
}

func (r *ScheduleRepository) load(ctx context.Context, key string, dest interface{}) (bool, error) {
	raw, found, err := r.store.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("get %s: %w", key, err)
	}
	if !found {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (r *ScheduleRepository) save(ctx context.Context, key string, value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := r.store.Set(ctx, key, string(payload)); err != nil {
		return fmt.Errorf("%w: set %s: %w", ErrWriteFailed, key, err)
	}
	return nil
}

func classLess(a, b models.ClassIdentity) bool {
	if a.Grade != b.Grade {
		ai, aErr := strconv.Atoi(a.Grade)
		bi, bErr := strconv.Atoi(b.Grade)
		if aErr == nil && bErr == nil {
			return ai < bi
		}
		return a.Grade < b.Grade
	}
	if a.ClassNumber != b.ClassNumber {
		return a.ClassNumber < b.ClassNumber
	}
	return strings.ToLower(a.Field) < strings.ToLower(b.Field)
}
