package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/sma-timetable-sync/internal/dto"
	"github.com/noah-isme/sma-timetable-sync/internal/models"
	"github.com/noah-isme/sma-timetable-sync/internal/service"
	appErrors "github.com/noah-isme/sma-timetable-sync/pkg/errors"
	"github.com/noah-isme/sma-timetable-sync/pkg/response"
)

type syncService interface {
	Upsert(ctx context.Context, draft models.ScheduleEntry, origin models.OriginSide, opts service.UpsertOptions) (*service.UpsertResult, error)
	Delete(ctx context.Context, req service.DeleteRequest) (*service.DeleteResult, error)
	ClearAll(ctx context.Context) (int, error)
}

type scheduleService interface {
	GetPersonnelSchedule(ctx context.Context, code string) (*models.PersonnelSchedule, error)
	GetClassSchedule(ctx context.Context, class models.ClassIdentity) (*models.ClassSchedule, error)
	ListPersonnelSchedules(ctx context.Context) ([]models.PersonnelSchedule, error)
	ListClassSchedules(ctx context.Context) ([]models.ClassSchedule, error)
	PersonnelConflicts(ctx context.Context, code string) ([]models.SlotConflict, error)
	ConflictReport(ctx context.Context) (*models.ConflictReport, error)
	Level() service.LevelInfo
}

// ScheduleHandler exposes schedule entry mutations and aggregate views.
type ScheduleHandler struct {
	sync      syncService
	schedules scheduleService
	validator *validator.Validate
}

// NewScheduleHandler constructs handler.
func NewScheduleHandler(sync syncService, schedules scheduleService, validate *validator.Validate) *ScheduleHandler {
	if validate == nil {
		validate = service.NewValidator()
	}
	return &ScheduleHandler{sync: sync, schedules: schedules, validator: validate}
}

// CreateEntry godoc
// @Summary Create or update a schedule entry
// @Description Writes the entry to its class and personnel schedules. Conflicts return 409 with the occupying entry in meta.conflict.
// @Tags Schedule Entries
// @Accept json
// @Produce json
// @Param payload body dto.UpsertEntryRequest true "Entry draft"
// @Success 201 {object} response.Envelope
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /schedule-entries [post]
func (h *ScheduleHandler) CreateEntry(c *gin.Context) {
	h.upsert(c, "")
}

// UpdateEntry godoc
// @Summary Update a schedule entry
// @Tags Schedule Entries
// @Accept json
// @Produce json
// @Param id path string true "Entry ID"
// @Param payload body dto.UpsertEntryRequest true "Entry draft"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /schedule-entries/{id} [put]
func (h *ScheduleHandler) UpdateEntry(c *gin.Context) {
	h.upsert(c, c.Param("id"))
}

func (h *ScheduleHandler) upsert(c *gin.Context, pathID string) {
	var req dto.UpsertEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if pathID != "" {
		if req.ID != "" && req.ID != pathID {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "entry id does not match path"))
			return
		}
		req.ID = pathID
	}
	if err := h.validator.Struct(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	result, err := h.sync.Upsert(c.Request.Context(), req.Entry(), models.OriginSide(req.Origin), service.UpsertOptions{OverrideClassSlot: req.Override})
	if err != nil {
		writeError(c, err)
		return
	}
	if pathID == "" && req.ID == "" {
		response.Created(c, result)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// DeleteEntry godoc
// @Summary Delete a schedule entry from both schedules
// @Tags Schedule Entries
// @Produce json
// @Param id path string true "Entry ID"
// @Param grade query string false "Class grade"
// @Param classNumber query string false "Class number"
// @Param field query string false "Class field"
// @Param personnelCode query string false "Personnel code"
// @Param day query string false "Fallback day"
// @Param timeStart query string false "Fallback slot start"
// @Param timeEnd query string false "Fallback slot end"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /schedule-entries/{id} [delete]
func (h *ScheduleHandler) DeleteEntry(c *gin.Context) {
	var query dto.DeleteEntryQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	result, err := h.sync.Delete(c.Request.Context(), service.DeleteRequest{
		EntryID:       c.Param("id"),
		Class:         query.Class(),
		PersonnelCode: query.PersonnelCode,
		Day:           models.Day(query.Day),
		TimeStart:     query.TimeStart,
		TimeEnd:       query.TimeEnd,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, map[string]interface{}{"removed": len(result.RemovedFrom) > 0})
}

// ClearAll godoc
// @Summary Remove every stored schedule
// @Description Personnel directory records are kept.
// @Tags Schedules
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /schedules [delete]
func (h *ScheduleHandler) ClearAll(c *gin.Context) {
	removed, err := h.sync.ClearAll(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.ClearSchedulesResponse{Removed: removed})
}

// ListPersonnelSchedules godoc
// @Summary List personnel schedules
// @Tags Schedules
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /personnel-schedules [get]
func (h *ScheduleHandler) ListPersonnelSchedules(c *gin.Context) {
	schedules, err := h.schedules.ListPersonnelSchedules(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedules, map[string]interface{}{"total": len(schedules)})
}

// GetPersonnelSchedule godoc
// @Summary Get the schedule of one personnel
// @Tags Schedules
// @Produce json
// @Param code path string true "Personnel code"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /personnel-schedules/{code} [get]
func (h *ScheduleHandler) GetPersonnelSchedule(c *gin.Context) {
	schedule, err := h.schedules.GetPersonnelSchedule(c.Request.Context(), c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule)
}

// PersonnelConflicts godoc
// @Summary List doubly claimed slots of one personnel
// @Tags Conflicts
// @Produce json
// @Param code path string true "Personnel code"
// @Success 200 {object} response.Envelope
// @Router /personnel-schedules/{code}/conflicts [get]
func (h *ScheduleHandler) PersonnelConflicts(c *gin.Context) {
	conflicts, err := h.schedules.PersonnelConflicts(c.Request.Context(), c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, conflicts)
}

// ListClassSchedules godoc
// @Summary List class schedules
// @Tags Schedules
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /class-schedules [get]
func (h *ScheduleHandler) ListClassSchedules(c *gin.Context) {
	schedules, err := h.schedules.ListClassSchedules(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedules, map[string]interface{}{"total": len(schedules)})
}

// GetClassSchedule godoc
// @Summary Get the schedule of one class
// @Tags Schedules
// @Produce json
// @Param grade path string true "Grade"
// @Param classNumber path string true "Class number"
// @Param field path string true "Field, '-' when the level has none"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /class-schedules/{grade}/{classNumber}/{field} [get]
func (h *ScheduleHandler) GetClassSchedule(c *gin.Context) {
	field := c.Param("field")
	if field == "-" {
		field = ""
	}
	schedule, err := h.schedules.GetClassSchedule(c.Request.Context(), models.ClassIdentity{
		Grade:       c.Param("grade"),
		ClassNumber: c.Param("classNumber"),
		Field:       field,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule)
}

// ConflictReport godoc
// @Summary Report doubly claimed slots across every schedule
// @Tags Conflicts
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /conflicts [get]
func (h *ScheduleHandler) ConflictReport(c *gin.Context) {
	report, err := h.schedules.ConflictReport(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report)
}

// Level godoc
// @Summary Describe the configured school level
// @Tags Level
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /level [get]
func (h *ScheduleHandler) Level(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.schedules.Level())
}

// writeError adds the blocking entry to the envelope for conflict errors.
func writeError(c *gin.Context, err error) {
	var conflict *models.ScheduleConflictError
	if errors.As(err, &conflict) {
		response.Error(c, err, map[string]interface{}{
			"conflict":    conflict.Conflict,
			"overridable": conflict.Overridable(),
		})
		return
	}
	response.Error(c, err)
}
