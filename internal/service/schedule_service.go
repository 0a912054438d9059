package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-sync/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-sync/pkg/errors"
)

type scheduleReader interface {
	GetPersonnelSchedule(ctx context.Context, code string) (*models.PersonnelSchedule, error)
	GetClassSchedule(ctx context.Context, class models.ClassIdentity) (*models.ClassSchedule, error)
	ListAllPersonnelSchedules(ctx context.Context) ([]models.PersonnelSchedule, error)
	ListAllClassSchedules(ctx context.Context) ([]models.ClassSchedule, error)
	Ping(ctx context.Context) error
}

// LevelInfo is the vocabulary a client needs to render schedule grids.
type LevelInfo struct {
	models.LevelProfile
	Days             []models.Day `json:"days"`
	StrictClassSlots bool         `json:"strictClassSlots"`
}

// ScheduleService serves read-only views over the stored aggregates.
type ScheduleService struct {
	repo   scheduleReader
	cfg    SyncConfig
	logger *zap.Logger
	now    func() time.Time
}

// NewScheduleService instantiates ScheduleService.
func NewScheduleService(repo scheduleReader, cfg SyncConfig, logger *zap.Logger) *ScheduleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(cfg.Level.Slots) == 0 {
		cfg.Level.Slots = models.DefaultSlots
	}
	return &ScheduleService{repo: repo, cfg: cfg, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// Ready reports whether the backing store answers.
func (s *ScheduleService) Ready(ctx context.Context) error {
	if err := s.repo.Ping(ctx); err != nil {
		return appErrors.WrapAs(appErrors.ErrStorageUnavailable, err, "")
	}
	return nil
}

// Level describes the configured school level.
func (s *ScheduleService) Level() LevelInfo {
	return LevelInfo{LevelProfile: s.cfg.Level, Days: models.Week, StrictClassSlots: s.cfg.StrictClassSlots}
}

// GetPersonnelSchedule returns the aggregate of the personnel owning code.
func (s *ScheduleService) GetPersonnelSchedule(ctx context.Context, code string) (*models.PersonnelSchedule, error) {
	code = strings.TrimSpace(code)
	if !models.ValidPersonnelCode(code) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "personnel code must be exactly 8 digits")
	}
	schedule, err := s.repo.GetPersonnelSchedule(ctx, code)
	if err != nil {
		return nil, s.readError("personnel schedule", err)
	}
	if schedule == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "personnel schedule not found")
	}
	return schedule, nil
}

// GetClassSchedule returns the aggregate of one class.
func (s *ScheduleService) GetClassSchedule(ctx context.Context, class models.ClassIdentity) (*models.ClassSchedule, error) {
	class = models.ClassIdentity{
		Grade:       strings.TrimSpace(class.Grade),
		ClassNumber: strings.TrimSpace(class.ClassNumber),
		Field:       strings.TrimSpace(class.Field),
	}
	if class.Grade == "" || class.ClassNumber == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "class identity requires grade and class number")
	}
	schedule, err := s.repo.GetClassSchedule(ctx, class)
	if err != nil {
		return nil, s.readError("class schedule", err)
	}
	if schedule == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "class schedule not found")
	}
	return schedule, nil
}

// ListPersonnelSchedules returns every personnel aggregate.
func (s *ScheduleService) ListPersonnelSchedules(ctx context.Context) ([]models.PersonnelSchedule, error) {
	schedules, err := s.repo.ListAllPersonnelSchedules(ctx)
	if err != nil {
		return nil, s.readError("personnel schedules", err)
	}
	return schedules, nil
}

// ListClassSchedules returns every class aggregate.
func (s *ScheduleService) ListClassSchedules(ctx context.Context) ([]models.ClassSchedule, error) {
	schedules, err := s.repo.ListAllClassSchedules(ctx)
	if err != nil {
		return nil, s.readError("class schedules", err)
	}
	return schedules, nil
}

// PersonnelConflicts lists the slots of one personnel schedule claimed more than once.
func (s *ScheduleService) PersonnelConflicts(ctx context.Context, code string) ([]models.SlotConflict, error) {
	schedule, err := s.GetPersonnelSchedule(ctx, code)
	if err != nil {
		return nil, err
	}
	conflicts := FindAllConflicts(*schedule, "", s.cfg.Level.SlotTable())
	if conflicts == nil {
		conflicts = []models.SlotConflict{}
	}
	return conflicts, nil
}

// ConflictReport scans every stored aggregate for doubly claimed slots.
func (s *ScheduleService) ConflictReport(ctx context.Context) (*models.ConflictReport, error) {
	slots := s.cfg.Level.SlotTable()
	report := &models.ConflictReport{
		Personnel:   []models.SlotConflict{},
		Classes:     []models.SlotConflict{},
		GeneratedAt: s.now(),
	}

	people, err := s.ListPersonnelSchedules(ctx)
	if err != nil {
		return nil, err
	}
	for _, schedule := range people {
		report.Personnel = append(report.Personnel, FindAllConflicts(schedule, "", slots)...)
	}

	classes, err := s.ListClassSchedules(ctx)
	if err != nil {
		return nil, err
	}
	for _, schedule := range classes {
		report.Classes = append(report.Classes, FindClassConflicts(schedule, "", slots)...)
	}

	if n := len(report.Personnel) + len(report.Classes); n > 0 {
		s.logger.Warn("stored schedules contain slot conflicts", zap.Int("count", n))
	}
	return report, nil
}

func (s *ScheduleService) readError(what string, err error) error {
	s.logger.Error("schedule read failed", zap.String("target", what), zap.Error(err))
	return appErrors.WrapAs(appErrors.ErrStorageUnavailable, err, "failed to load "+what)
}
