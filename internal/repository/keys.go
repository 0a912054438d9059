package repository

import (
	"errors"

	"github.com/noah-isme/sma-timetable-sync/internal/models"
)

// Storage key prefixes. The aggregate prefixes are shared with previously
// stored data and must not change.
const (
	PersonnelSchedulePrefix = "personnel_schedule_"
	ClassSchedulePrefix     = "class_schedule_"
	PersonnelIdentityPrefix = "personnel_identity_"
)

var (
	// ErrNotFound is returned when a directory record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrWriteFailed marks a store write that did not persist.
	ErrWriteFailed = errors.New("store write failed")
)

// PersonnelScheduleKey returns the storage key of a personnel aggregate.
func PersonnelScheduleKey(personnelID string) string {
	return PersonnelSchedulePrefix + personnelID
}

// ClassScheduleKey returns the storage key of a class aggregate.
func ClassScheduleKey(class models.ClassIdentity) string {
	return ClassSchedulePrefix + class.Key()
}

// PersonnelIdentityKey returns the storage key of a directory record.
func PersonnelIdentityKey(id string) string {
	return PersonnelIdentityPrefix + id
}

// KeyFor resolves an aggregate reference to its storage key.
func KeyFor(ref models.AggregateRef) string {
	if ref.Kind == models.AggregatePersonnel {
		return PersonnelScheduleKey(ref.PersonnelID)
	}
	return ClassScheduleKey(ref.Class)
}
