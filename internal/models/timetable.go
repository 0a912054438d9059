package models

import "strings"

// Day is one of the six teaching days of the week.
type Day string

const (
	Saturday  Day = "Saturday"
	Sunday    Day = "Sunday"
	Monday    Day = "Monday"
	Tuesday   Day = "Tuesday"
	Wednesday Day = "Wednesday"
	Thursday  Day = "Thursday"
)

// Week lists the teaching days in timetable order.
var Week = []Day{Saturday, Sunday, Monday, Tuesday, Wednesday, Thursday}

// ParseDay matches raw case-insensitively against Week.
func ParseDay(raw string) (Day, bool) {
	raw = strings.TrimSpace(raw)
	for _, d := range Week {
		if strings.EqualFold(string(d), raw) {
			return d, true
		}
	}
	return "", false
}

// Index returns the position of d in Week, or -1.
func (d Day) Index() int {
	for i, candidate := range Week {
		if candidate == d {
			return i
		}
	}
	return -1
}

// TimeSlot is one period of the daily timetable.
type TimeSlot struct {
	Index int    `json:"index"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// SlotTable is an ordered list of periods. Comparisons always use Index.
type SlotTable []TimeSlot

// DefaultSlots is the 45-minute period table used when a level profile does not define its own.
var DefaultSlots = SlotTable{
	{Index: 0, Start: "08:00", End: "08:45"},
	{Index: 1, Start: "08:45", End: "09:30"},
	{Index: 2, Start: "09:45", End: "10:30"},
	{Index: 3, Start: "10:30", End: "11:15"},
	{Index: 4, Start: "11:30", End: "12:15"},
	{Index: 5, Start: "12:15", End: "13:00"},
	{Index: 6, Start: "13:30", End: "14:15"},
	{Index: 7, Start: "14:15", End: "15:00"},
}

// StartIndex returns the index of the slot beginning at start, or -1.
func (t SlotTable) StartIndex(start string) int {
	start = strings.TrimSpace(start)
	for _, slot := range t {
		if slot.Start == start {
			return slot.Index
		}
	}
	return -1
}

// EndOf returns the end boundary of the slot starting at start.
func (t SlotTable) EndOf(start string) (string, bool) {
	start = strings.TrimSpace(start)
	for _, slot := range t {
		if slot.Start == start {
			return slot.End, true
		}
	}
	return "", false
}

// HourType classifies a scheduled hour.
type HourType string

const (
	HourRegular     HourType = "regular"
	HourOvertime    HourType = "overtime"
	HourSubstitute  HourType = "substitute"
	HourNonTeaching HourType = "non_teaching"
)

// Valid reports whether h is a known hour type.
func (h HourType) Valid() bool {
	switch h {
	case HourRegular, HourOvertime, HourSubstitute, HourNonTeaching:
		return true
	}
	return false
}

// OriginSide records which view an entry was last written through. Diagnostic only.
type OriginSide string

const (
	OriginClass     OriginSide = "class"
	OriginPersonnel OriginSide = "personnel"
)

// Valid reports whether o is a known origin.
func (o OriginSide) Valid() bool {
	return o == OriginClass || o == OriginPersonnel
}
