package dto

import "github.com/noah-isme/sma-timetable-sync/internal/models"

// ClassIdentityPayload addresses a class section in request bodies.
type ClassIdentityPayload struct {
	Grade       string `json:"grade" form:"grade"`
	ClassNumber string `json:"classNumber" form:"classNumber"`
	Field       string `json:"field" form:"field"`
}

// UpsertEntryRequest is the draft an editor submits from either schedule view.
type UpsertEntryRequest struct {
	ID            string                `json:"id"`
	Day           string                `json:"day" validate:"required"`
	TimeStart     string                `json:"timeStart" validate:"required"`
	TimeEnd       string                `json:"timeEnd"`
	PersonnelCode string                `json:"personnelCode" validate:"omitempty,personnelcode"`
	ClassIdentity *ClassIdentityPayload `json:"classIdentity"`
	HourType      string                `json:"hourType" validate:"omitempty,oneof=regular overtime substitute non_teaching"`
	TeachingGroup string                `json:"teachingGroup" validate:"max=100"`
	Description   string                `json:"description" validate:"max=500"`
	Origin        string                `json:"origin" validate:"required,oneof=class personnel"`
	Override      bool                  `json:"override"`
}

// Entry converts the payload into a schedule entry draft.
func (r UpsertEntryRequest) Entry() models.ScheduleEntry {
	entry := models.ScheduleEntry{
		ID:            r.ID,
		Day:           models.Day(r.Day),
		TimeStart:     r.TimeStart,
		TimeEnd:       r.TimeEnd,
		PersonnelCode: r.PersonnelCode,
		HourType:      models.HourType(r.HourType),
		TeachingGroup: r.TeachingGroup,
		Description:   r.Description,
	}
	if r.ClassIdentity != nil {
		entry.Class = &models.ClassIdentity{
			Grade:       r.ClassIdentity.Grade,
			ClassNumber: r.ClassIdentity.ClassNumber,
			Field:       r.ClassIdentity.Field,
		}
	}
	return entry
}

// DeleteEntryQuery carries the aggregate hints and fallback slot for a delete.
type DeleteEntryQuery struct {
	ClassIdentityPayload
	PersonnelCode string `form:"personnelCode"`
	Day           string `form:"day"`
	TimeStart     string `form:"timeStart"`
	TimeEnd       string `form:"timeEnd"`
}

// Class returns the class hint, or nil when no part of it was given.
func (q DeleteEntryQuery) Class() *models.ClassIdentity {
	if q.Grade == "" && q.ClassNumber == "" && q.Field == "" {
		return nil
	}
	return &models.ClassIdentity{Grade: q.Grade, ClassNumber: q.ClassNumber, Field: q.Field}
}

// ClearSchedulesResponse reports how many aggregates a reset removed.
type ClearSchedulesResponse struct {
	Removed int `json:"removed"`
}
