package models

import (
	"fmt"
	"time"
)

// ClassIdentity is the composite natural key of a class section.
type ClassIdentity struct {
	Grade       string `json:"grade"`
	ClassNumber string `json:"classNumber"`
	Field       string `json:"field"`
}

// Key renders the identity as used in storage keys: grade-classNumber-field.
func (c ClassIdentity) Key() string {
	return fmt.Sprintf("%s-%s-%s", c.Grade, c.ClassNumber, c.Field)
}

// String implements fmt.Stringer.
func (c ClassIdentity) String() string { return c.Key() }

// ScheduleEntry is one (day, slot) assignment of a person to a class.
type ScheduleEntry struct {
	ID            string         `json:"id"`
	Day           Day            `json:"day"`
	TimeStart     string         `json:"timeStart"`
	TimeEnd       string         `json:"timeEnd"`
	PersonnelCode string         `json:"personnelCode,omitempty"`
	PersonnelName string         `json:"personnelName,omitempty"`
	Class         *ClassIdentity `json:"classIdentity,omitempty"`
	HourType      HourType       `json:"hourType"`
	TeachingGroup string         `json:"teachingGroup,omitempty"`
	Description   string         `json:"description,omitempty"`
	LastModified  time.Time      `json:"lastModified"`
	OriginSide    OriginSide     `json:"originSide,omitempty"`
}

// HasPersonnel reports whether the entry names a personnel code.
func (e ScheduleEntry) HasPersonnel() bool { return e.PersonnelCode != "" }

// HasClass reports whether the entry names a class.
func (e ScheduleEntry) HasClass() bool { return e.Class != nil }

// InClass reports whether the entry belongs to class c.
func (e ScheduleEntry) InClass(c ClassIdentity) bool {
	return e.Class != nil && *e.Class == c
}

// SameClass reports whether both entries name the same class, or both name none.
func (e ScheduleEntry) SameClass(other ScheduleEntry) bool {
	if e.Class == nil || other.Class == nil {
		return e.Class == nil && other.Class == nil
	}
	return *e.Class == *other.Class
}

// Clone returns a deep copy of e.
func (e ScheduleEntry) Clone() ScheduleEntry {
	if e.Class != nil {
		c := *e.Class
		e.Class = &c
	}
	return e
}

// SameAssignment compares the synchronized fields of two copies. LastModified,
// OriginSide and the display name are ignored.
func (e ScheduleEntry) SameAssignment(other ScheduleEntry) bool {
	return e.ID == other.ID &&
		e.Day == other.Day &&
		e.TimeStart == other.TimeStart &&
		e.TimeEnd == other.TimeEnd &&
		e.PersonnelCode == other.PersonnelCode &&
		e.SameClass(other) &&
		e.HourType == other.HourType &&
		e.TeachingGroup == other.TeachingGroup &&
		e.Description == other.Description
}

// EntryList is the entries array of one aggregate.
type EntryList []ScheduleEntry

// IndexByID returns the position of the entry with id, or -1.
func (l EntryList) IndexByID(id string) int {
	if id == "" {
		return -1
	}
	for i := range l {
		if l[i].ID == id {
			return i
		}
	}
	return -1
}

// IndexBySlot returns the position of the entry exactly covering day, start and end, or -1.
func (l EntryList) IndexBySlot(day Day, start, end string) int {
	for i := range l {
		if l[i].Day == day && l[i].TimeStart == start && (end == "" || l[i].TimeEnd == end) {
			return i
		}
	}
	return -1
}

// Put replaces the entry with the same id or appends it.
func (l EntryList) Put(entry ScheduleEntry) EntryList {
	if idx := l.IndexByID(entry.ID); idx >= 0 {
		out := make(EntryList, len(l))
		copy(out, l)
		out[idx] = entry
		return out
	}
	out := make(EntryList, len(l), len(l)+1)
	copy(out, l)
	return append(out, entry)
}

// RemoveAt drops the entry at idx.
func (l EntryList) RemoveAt(idx int) EntryList {
	out := make(EntryList, 0, len(l))
	out = append(out, l[:idx]...)
	return append(out, l[idx+1:]...)
}

// PersonnelSchedule is the by-personnel aggregate.
type PersonnelSchedule struct {
	Identity     PersonnelIdentity `json:"identity"`
	Entries      EntryList         `json:"entries"`
	LastModified time.Time         `json:"lastModified"`
}

// ClassSchedule is the by-class aggregate.
type ClassSchedule struct {
	Identity     ClassIdentity `json:"identity"`
	Entries      EntryList     `json:"entries"`
	LastModified time.Time     `json:"lastModified"`
}

// AggregateKind distinguishes the two aggregate families.
type AggregateKind string

const (
	AggregatePersonnel AggregateKind = "personnel"
	AggregateClass     AggregateKind = "class"
)

// AggregateRef addresses one stored aggregate.
type AggregateRef struct {
	Kind        AggregateKind `json:"kind"`
	PersonnelID string        `json:"personnelId,omitempty"`
	Class       ClassIdentity `json:"classIdentity"`
}

// PersonnelRef addresses the personnel aggregate with the given surrogate id.
func PersonnelRef(id string) AggregateRef {
	return AggregateRef{Kind: AggregatePersonnel, PersonnelID: id}
}

// ClassRef addresses the class aggregate for c.
func ClassRef(c ClassIdentity) AggregateRef {
	return AggregateRef{Kind: AggregateClass, Class: c}
}

// ConflictKind names the two conflict families.
type ConflictKind string

const (
	ConflictClassSlotTaken        ConflictKind = "classSlotTaken"
	ConflictPersonnelDoubleBooked ConflictKind = "personnelDoubleBooked"
)

// ScheduleConflict describes the existing entry that blocks a mutation.
type ScheduleConflict struct {
	EntryID       string         `json:"entryId"`
	Day           Day            `json:"day"`
	TimeStart     string         `json:"timeStart"`
	TimeEnd       string         `json:"timeEnd"`
	PersonnelCode string         `json:"personnelCode,omitempty"`
	Class         *ClassIdentity `json:"classIdentity,omitempty"`
	Kind          ConflictKind   `json:"kind"`
}

// ConflictFromEntry captures occupant as a conflict of the given kind.
func ConflictFromEntry(kind ConflictKind, occupant ScheduleEntry) ScheduleConflict {
	occupant = occupant.Clone()
	return ScheduleConflict{
		EntryID:       occupant.ID,
		Day:           occupant.Day,
		TimeStart:     occupant.TimeStart,
		TimeEnd:       occupant.TimeEnd,
		PersonnelCode: occupant.PersonnelCode,
		Class:         occupant.Class,
		Kind:          kind,
	}
}

// ScheduleConflictError is returned when a mutation collides with an existing entry.
type ScheduleConflictError struct {
	Kind     ConflictKind     `json:"kind"`
	Message  string           `json:"message"`
	Conflict ScheduleConflict `json:"conflict"`
}

// Error implements the error interface for conflict errors.
func (e *ScheduleConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

// Overridable reports whether the caller may retry with an explicit override.
func (e *ScheduleConflictError) Overridable() bool {
	return e != nil && e.Kind == ConflictClassSlotTaken
}

// SlotConflict is a warning: several entries of one aggregate share a slot.
type SlotConflict struct {
	Day            Day             `json:"day"`
	TimeStart      string          `json:"timeStart"`
	SlotIndex      int             `json:"slotIndex"`
	PersonnelCode  string          `json:"personnelCode,omitempty"`
	Class          *ClassIdentity  `json:"classIdentity,omitempty"`
	EntryIDs       []string        `json:"entryIds"`
	Classes        []ClassIdentity `json:"classes,omitempty"`
	PersonnelCodes []string        `json:"personnelCodes,omitempty"`
}

// ConflictReport aggregates slot conflicts across every stored aggregate.
type ConflictReport struct {
	Personnel   []SlotConflict `json:"personnel"`
	Classes     []SlotConflict `json:"classes"`
	GeneratedAt time.Time      `json:"generatedAt"`
}
