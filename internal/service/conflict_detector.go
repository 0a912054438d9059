package service

import (
	"sort"

	"github.com/noah-isme/sma-timetable-sync/internal/models"
)

// CheckClassSlot returns the entry of schedule occupying (day, timeStart), ignoring excludingID.
func CheckClassSlot(schedule *models.ClassSchedule, day models.Day, timeStart, excludingID string) *models.ScheduleEntry {
	if schedule == nil {
		return nil
	}
	return occupant(schedule.Entries, day, timeStart, excludingID)
}

// CheckPersonnelSlot returns the entry of schedule occupying (day, timeStart), ignoring excludingID.
func CheckPersonnelSlot(schedule *models.PersonnelSchedule, day models.Day, timeStart, excludingID string) *models.ScheduleEntry {
	if schedule == nil {
		return nil
	}
	return occupant(schedule.Entries, day, timeStart, excludingID)
}

// FindAllConflicts groups a personnel schedule by slot and reports every slot
// claimed by more than one entry. The result feeds a warning list; it never
// blocks a commit.
func FindAllConflicts(schedule models.PersonnelSchedule, excludingID string, slots models.SlotTable) []models.SlotConflict {
	conflicts := groupConflicts(schedule.Entries, excludingID, slots)
	for i := range conflicts {
		conflicts[i].PersonnelCode = schedule.Identity.PersonnelCode
	}
	return conflicts
}

// FindClassConflicts is the class-side counterpart of FindAllConflicts.
func FindClassConflicts(schedule models.ClassSchedule, excludingID string, slots models.SlotTable) []models.SlotConflict {
	conflicts := groupConflicts(schedule.Entries, excludingID, slots)
	for i := range conflicts {
		class := schedule.Identity
		conflicts[i].Class = &class
	}
	return conflicts
}

func occupant(entries models.EntryList, day models.Day, timeStart, excludingID string) *models.ScheduleEntry {
	for i := range entries {
		if entries[i].ID == excludingID && excludingID != "" {
			continue
		}
		if entries[i].Day == day && entries[i].TimeStart == timeStart {
			found := entries[i].Clone()
			return &found
		}
	}
	return nil
}

type slotKey struct {
	day   models.Day
	start string
}

func groupConflicts(entries models.EntryList, excludingID string, slots models.SlotTable) []models.SlotConflict {
	groups := make(map[slotKey][]models.ScheduleEntry)
	var order []slotKey
	for _, entry := range entries {
		if excludingID != "" && entry.ID == excludingID {
			continue
		}
		key := slotKey{day: entry.Day, start: entry.TimeStart}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], entry)
	}

	var conflicts []models.SlotConflict
	for _, key := range order {
		members := groups[key]
		if len(members) < 2 {
			continue
		}
		conflict := models.SlotConflict{
			Day:       key.day,
			TimeStart: key.start,
			SlotIndex: slots.StartIndex(key.start),
		}
		seenClass := make(map[models.ClassIdentity]bool)
		seenCode := make(map[string]bool)
		for _, member := range members {
			conflict.EntryIDs = append(conflict.EntryIDs, member.ID)
			if member.Class != nil && !seenClass[*member.Class] {
				seenClass[*member.Class] = true
				conflict.Classes = append(conflict.Classes, *member.Class)
			}
			if member.PersonnelCode != "" && !seenCode[member.PersonnelCode] {
				seenCode[member.PersonnelCode] = true
				conflict.PersonnelCodes = append(conflict.PersonnelCodes, member.PersonnelCode)
			}
		}
		conflicts = append(conflicts, conflict)
	}

	sort.SliceStable(conflicts, func(i, j int) bool {
		di, dj := conflicts[i].Day.Index(), conflicts[j].Day.Index()
		if di != dj {
			return di < dj
		}
		return conflicts[i].SlotIndex < conflicts[j].SlotIndex
	})
	return conflicts
}
