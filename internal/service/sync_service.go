package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-sync/internal/models"
	"github.com/noah-isme/sma-timetable-sync/internal/repository"
	appErrors "github.com/noah-isme/sma-timetable-sync/pkg/errors"
)

const (
	opUpsert   = "upsert"
	opDelete   = "delete"
	opClear    = "clear"
	opRegister = "register"
)

type scheduleRepository interface {
	GetClassSchedule(ctx context.Context, class models.ClassIdentity) (*models.ClassSchedule, error)
	GetPersonnelScheduleByID(ctx context.Context, personnelID string) (*models.PersonnelSchedule, error)
	ListAllPersonnelSchedules(ctx context.Context) ([]models.PersonnelSchedule, error)
	ListAllClassSchedules(ctx context.Context) ([]models.ClassSchedule, error)
	ClearAll(ctx context.Context) (int, error)
	NewBatch() *repository.Batch
}

type personnelDirectory interface {
	FindByCode(ctx context.Context, code string) (*models.PersonnelIdentity, error)
	Resolve(ctx context.Context, code string) (*models.PersonnelIdentity, error)
	Prepare(ctx context.Context, req RegisterPersonnelRequest) (*models.PersonnelIdentity, *models.PersonnelIdentity, error)
}

// SyncConfig governs conflict policy and the level vocabulary used for validation.
type SyncConfig struct {
	Level            models.LevelProfile
	StrictClassSlots bool
	// WriteTimeout bounds one commit against the store. Zero means no bound.
	WriteTimeout time.Duration
}

// UpsertOptions carries caller intent for a single upsert.
type UpsertOptions struct {
	// OverrideClassSlot replaces a different occupant of the class slot.
	// It never overrides a personnel double booking.
	OverrideClassSlot bool
}

// UpsertResult reports the committed entry and the aggregates it now lives in.
type UpsertResult struct {
	Entry             models.ScheduleEntry      `json:"entry"`
	ClassSchedule     *models.ClassSchedule     `json:"classSchedule,omitempty"`
	PersonnelSchedule *models.PersonnelSchedule `json:"personnelSchedule,omitempty"`
	Displaced         *models.ScheduleEntry     `json:"displaced,omitempty"`
	Unchanged         bool                      `json:"unchanged"`
}

// DeleteRequest identifies the entry to remove. Day, TimeStart and TimeEnd are
// the fallback match used when the id is not found in an aggregate.
type DeleteRequest struct {
	EntryID       string
	Class         *models.ClassIdentity
	PersonnelCode string
	Day           models.Day
	TimeStart     string
	TimeEnd       string
}

// DeleteResult lists the aggregates an entry was removed from. An empty list means no-op.
type DeleteResult struct {
	RemovedFrom []models.AggregateRef `json:"removedFrom"`
}

// SyncService is the single entry point for schedule mutations. It keeps the
// by-class and by-personnel aggregates consistent and rejects conflicting slots.
// Mutations are serialized so two commits never interleave their store writes.
type SyncService struct {
	mu        sync.Mutex
	repo      scheduleRepository
	directory personnelDirectory
	cfg       SyncConfig
	metrics   *MetricsService
	logger    *zap.Logger
	now       func() time.Time
}

// NewSyncService wires the coordinator.
func NewSyncService(repo scheduleRepository, directory personnelDirectory, cfg SyncConfig, metrics *MetricsService, logger *zap.Logger) *SyncService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(cfg.Level.Slots) == 0 {
		cfg.Level.Slots = models.DefaultSlots
	}
	return &SyncService{
		repo:      repo,
		directory: directory,
		cfg:       cfg,
		metrics:   metrics,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Level returns the vocabulary drafts are validated against.
func (s *SyncService) Level() models.LevelProfile {
	return s.cfg.Level
}

// Upsert validates draft, checks both target aggregates for slot conflicts and
// writes the entry to every aggregate it belongs to. A rejected or failed
// upsert leaves all stored aggregates untouched.
func (s *SyncService) Upsert(ctx context.Context, draft models.ScheduleEntry, origin models.OriginSide, opts UpsertOptions) (*UpsertResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, fresh, err := s.normalize(draft, origin)
	if err != nil {
		s.metrics.RecordMutation(opUpsert, ResultRejected)
		return nil, err
	}

	ws := newWorkingSet()
	var classSchedule *models.ClassSchedule
	if entry.Class != nil {
		if classSchedule, err = s.loadClass(ctx, ws, *entry.Class); err != nil {
			return nil, s.readFailure(opUpsert, err)
		}
	}

	var identity *models.PersonnelIdentity
	var personnelSchedule *models.PersonnelSchedule
	if entry.HasPersonnel() {
		if identity, err = s.directory.FindByCode(ctx, entry.PersonnelCode); err != nil {
			return nil, s.readFailure(opUpsert, err)
		}
		if identity != nil {
			if personnelSchedule, err = s.loadPersonnel(ctx, ws, identity.ID); err != nil {
				return nil, s.readFailure(opUpsert, err)
			}
		}
	}

	displaced, err := s.checkConflicts(entry, classSchedule, personnelSchedule, opts)
	if err != nil {
		return nil, err
	}

	if entry.HasPersonnel() && identity == nil {
		if identity, err = s.directory.Resolve(ctx, entry.PersonnelCode); err != nil {
			s.metrics.RecordMutation(opUpsert, ResultFailed)
			return nil, err
		}
	}
	if identity != nil {
		entry.PersonnelName = identity.FullName
	}

	if !fresh {
		if err := s.removeStaleCopies(ctx, ws, entry, identity); err != nil {
			return nil, s.readFailure(opUpsert, err)
		}
	}
	if displaced != nil {
		if err := s.evict(ctx, ws, *displaced, classSchedule, personnelSchedule); err != nil {
			return nil, s.readFailure(opUpsert, err)
		}
	}

	if ws.clean() && alreadyStored(entry, classSchedule, personnelSchedule) {
		s.metrics.RecordMutation(opUpsert, ResultUnchanged)
		return &UpsertResult{Entry: storedCopy(entry, classSchedule, personnelSchedule), ClassSchedule: classSchedule, PersonnelSchedule: personnelSchedule, Unchanged: true}, nil
	}

	entry.LastModified = s.now()
	if entry.Class != nil {
		if classSchedule == nil {
			classSchedule = &models.ClassSchedule{Identity: *entry.Class}
			ws.classes[*entry.Class] = classSchedule
		}
		classSchedule.Entries = classSchedule.Entries.Put(entry.Clone())
		ws.markClass(*entry.Class)
	}
	if identity != nil {
		if personnelSchedule == nil {
			personnelSchedule = &models.PersonnelSchedule{}
			ws.personnel[identity.ID] = personnelSchedule
		}
		personnelSchedule.Identity = *identity
		personnelSchedule.Entries = personnelSchedule.Entries.Put(entry.Clone())
		ws.markPersonnel(identity.ID)
	}

	if err := s.commit(ctx, opUpsert, ws); err != nil {
		return nil, err
	}

	s.metrics.RecordMutation(opUpsert, ResultApplied)
	s.logger.Info("schedule entry synced",
		zap.String("entry_id", entry.ID),
		zap.String("origin", string(entry.OriginSide)),
		zap.String("day", string(entry.Day)),
		zap.String("time_start", entry.TimeStart),
		zap.Strings("aggregates", ws.keys()),
	)
	return &UpsertResult{Entry: entry, ClassSchedule: classSchedule, PersonnelSchedule: personnelSchedule, Displaced: displaced}, nil
}

// Delete removes an entry from its class and personnel aggregates. Each side is
// matched by id first and by (day, timeStart, timeEnd) when the id is not found.
// Deleting an entry that does not exist is a no-op.
func (s *SyncService) Delete(ctx context.Context, req DeleteRequest) (*DeleteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, err := s.normalizeDelete(req)
	if err != nil {
		s.metrics.RecordMutation(opDelete, ResultRejected)
		return nil, err
	}

	ws := newWorkingSet()
	result := &DeleteResult{RemovedFrom: []models.AggregateRef{}}
	hint := slotHint{day: req.Day, start: req.TimeStart, end: req.TimeEnd}
	code := req.PersonnelCode

	if req.Class != nil {
		removed, err := s.removeFromClass(ctx, ws, *req.Class, req.EntryID, hint)
		if err != nil {
			return nil, s.readFailure(opDelete, err)
		}
		if removed != nil {
			result.RemovedFrom = append(result.RemovedFrom, models.ClassRef(*req.Class))
			if code == "" {
				code = removed.PersonnelCode
			}
			hint = hint.orFrom(*removed)
		}
	}

	if code != "" {
		identity, err := s.directory.FindByCode(ctx, code)
		if err != nil {
			return nil, s.readFailure(opDelete, err)
		}
		if identity != nil {
			removed, err := s.removeFromPersonnel(ctx, ws, identity.ID, req.EntryID, hint)
			if err != nil {
				return nil, s.readFailure(opDelete, err)
			}
			if removed != nil {
				result.RemovedFrom = append(result.RemovedFrom, models.PersonnelRef(identity.ID))
				if req.Class == nil && removed.Class != nil {
					class := *removed.Class
					counterpart, err := s.removeFromClass(ctx, ws, class, req.EntryID, hint.orFrom(*removed))
					if err != nil {
						return nil, s.readFailure(opDelete, err)
					}
					if counterpart != nil {
						result.RemovedFrom = append(result.RemovedFrom, models.ClassRef(class))
					}
				}
			}
		}
	}

	if ws.clean() {
		s.metrics.RecordMutation(opDelete, ResultNoop)
		return result, nil
	}
	if err := s.commit(ctx, opDelete, ws); err != nil {
		return nil, err
	}

	s.metrics.RecordMutation(opDelete, ResultApplied)
	s.logger.Info("schedule entry deleted", zap.String("entry_id", req.EntryID), zap.Strings("aggregates", ws.keys()))
	return result, nil
}

// RegisterPersonnel adds or updates a directory record. When the code or name
// of a scheduled person changes, every stored copy of their entries is
// rewritten in the same commit as the record.
func (s *SyncService) RegisterPersonnel(ctx context.Context, req RegisterPersonnelRequest) (*models.PersonnelIdentity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	identity, previous, err := s.directory.Prepare(ctx, req)
	if err != nil {
		if errors.Is(err, appErrors.ErrValidation) || errors.Is(err, appErrors.ErrConflict) {
			s.metrics.RecordMutation(opRegister, ResultRejected)
		}
		return nil, err
	}

	ws := newWorkingSet()
	batch := s.repo.NewBatch()
	if err := batch.PutIdentity(identity); err != nil {
		return nil, s.writeFailure(opRegister, ws, err)
	}
	if previous != nil && (previous.PersonnelCode != identity.PersonnelCode || previous.FullName != identity.FullName) {
		if err := s.propagateIdentity(ctx, ws, *identity); err != nil {
			return nil, s.readFailure(opRegister, err)
		}
	}
	if err := s.commitBatch(ctx, opRegister, ws, batch); err != nil {
		return nil, err
	}

	s.metrics.RecordMutation(opRegister, ResultApplied)
	fields := []zap.Field{zap.String("personnel_id", identity.ID), zap.String("personnel_code", identity.PersonnelCode), zap.Strings("aggregates", ws.keys())}
	if previous != nil && previous.PersonnelCode != identity.PersonnelCode {
		fields = append(fields, zap.String("previous_code", previous.PersonnelCode))
	}
	s.logger.Info("personnel registered", fields...)
	return identity, nil
}

// ClearAll removes every stored aggregate. Directory records and unrelated keys survive.
func (s *SyncService) ClearAll(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed, err := s.repo.ClearAll(ctx)
	if err != nil {
		s.metrics.RecordMutation(opClear, ResultFailed)
		s.logger.Error("clear schedules failed", zap.Int("removed", removed), zap.Error(err))
		return removed, appErrors.WrapAs(appErrors.ErrStorageWrite, err, "failed to clear schedules")
	}
	s.metrics.RecordMutation(opClear, ResultApplied)
	s.logger.Warn("all schedules cleared", zap.Int("removed", removed))
	return removed, nil
}

func (s *SyncService) checkConflicts(entry models.ScheduleEntry, classSchedule *models.ClassSchedule, personnelSchedule *models.PersonnelSchedule, opts UpsertOptions) (*models.ScheduleEntry, error) {
	overridable := opts.OverrideClassSlot && !s.cfg.StrictClassSlots

	var displaced *models.ScheduleEntry
	if occupant := CheckClassSlot(classSchedule, entry.Day, entry.TimeStart, entry.ID); occupant != nil {
		if !overridable {
			return nil, s.conflict(models.ConflictClassSlotTaken, "class already has an entry in this slot", *occupant)
		}
		displaced = occupant
	}

	if occupant := CheckPersonnelSlot(personnelSchedule, entry.Day, entry.TimeStart, entry.ID); occupant != nil {
		if !occupant.SameClass(entry) {
			return nil, s.conflict(models.ConflictPersonnelDoubleBooked, "personnel already teaches another class in this slot", *occupant)
		}
		if displaced == nil {
			if !overridable {
				return nil, s.conflict(models.ConflictClassSlotTaken, "personnel already has an entry for this class in this slot", *occupant)
			}
			displaced = occupant
		}
	}
	return displaced, nil
}

func (s *SyncService) conflict(kind models.ConflictKind, message string, occupant models.ScheduleEntry) error {
	s.metrics.RecordMutation(opUpsert, ResultConflict)
	s.metrics.RecordConflict(string(kind))
	s.logger.Warn("schedule conflict",
		zap.String("kind", string(kind)),
		zap.String("occupant_id", occupant.ID),
		zap.String("day", string(occupant.Day)),
		zap.String("time_start", occupant.TimeStart),
	)

	sentinel := appErrors.ErrClassSlotTaken
	if kind == models.ConflictPersonnelDoubleBooked {
		sentinel = appErrors.ErrDoubleBooked
	}
	domainErr := &models.ScheduleConflictError{Kind: kind, Message: message, Conflict: models.ConflictFromEntry(kind, occupant)}
	return appErrors.Wrap(domainErr, sentinel.Code, sentinel.Status, fmt.Sprintf("schedule conflict: %s", message))
}

// evict removes a displaced occupant from every aggregate holding it.
func (s *SyncService) evict(ctx context.Context, ws *workingSet, occupant models.ScheduleEntry, classSchedule *models.ClassSchedule, personnelSchedule *models.PersonnelSchedule) error {
	if classSchedule != nil {
		if idx := classSchedule.Entries.IndexByID(occupant.ID); idx >= 0 {
			classSchedule.Entries = classSchedule.Entries.RemoveAt(idx)
			ws.markClass(classSchedule.Identity)
		}
	}
	if personnelSchedule != nil {
		if idx := personnelSchedule.Entries.IndexByID(occupant.ID); idx >= 0 {
			personnelSchedule.Entries = personnelSchedule.Entries.RemoveAt(idx)
			ws.markPersonnel(personnelSchedule.Identity.ID)
		}
	}
	if occupant.Class != nil {
		if _, err := s.removeFromClass(ctx, ws, *occupant.Class, occupant.ID, slotHint{}); err != nil {
			return err
		}
	}
	if occupant.HasPersonnel() {
		identity, err := s.directory.FindByCode(ctx, occupant.PersonnelCode)
		if err != nil {
			return err
		}
		if identity != nil {
			if _, err := s.removeFromPersonnel(ctx, ws, identity.ID, occupant.ID, slotHint{}); err != nil {
				return err
			}
		}
	}
	return nil
}

// removeStaleCopies drops copies of entry.ID from aggregates that are no longer
// its targets, which happens when an edit moves an entry to another class or person.
func (s *SyncService) removeStaleCopies(ctx context.Context, ws *workingSet, entry models.ScheduleEntry, identity *models.PersonnelIdentity) error {
	classes, err := s.repo.ListAllClassSchedules(ctx)
	if err != nil {
		return err
	}
	for i := range classes {
		class := classes[i].Identity
		if entry.InClass(class) || classes[i].Entries.IndexByID(entry.ID) < 0 {
			continue
		}
		if _, err := s.removeFromClass(ctx, ws, class, entry.ID, slotHint{}); err != nil {
			return err
		}
	}

	people, err := s.repo.ListAllPersonnelSchedules(ctx)
	if err != nil {
		return err
	}
	for i := range people {
		personnelID := people[i].Identity.ID
		if identity != nil && identity.ID == personnelID {
			continue
		}
		if people[i].Entries.IndexByID(entry.ID) < 0 {
			continue
		}
		if _, err := s.removeFromPersonnel(ctx, ws, personnelID, entry.ID, slotHint{}); err != nil {
			return err
		}
	}
	return nil
}

// propagateIdentity rewrites the personnel code and display name on every copy
// of the person's entries, on both sides.
func (s *SyncService) propagateIdentity(ctx context.Context, ws *workingSet, identity models.PersonnelIdentity) error {
	schedule, err := s.loadPersonnel(ctx, ws, identity.ID)
	if err != nil || schedule == nil {
		return err
	}

	entries := make(models.EntryList, 0, len(schedule.Entries))
	for _, entry := range schedule.Entries {
		oldCode := entry.PersonnelCode
		entry = entry.Clone()
		entry.PersonnelCode = identity.PersonnelCode
		entry.PersonnelName = identity.FullName
		entries = append(entries, entry)
		if entry.Class == nil {
			continue
		}

		class, err := s.loadClass(ctx, ws, *entry.Class)
		if err != nil {
			return err
		}
		if class == nil {
			continue
		}
		idx := slotHint{}.orFrom(entry).match(class.Entries, entry.ID)
		if idx < 0 || class.Entries[idx].PersonnelCode != oldCode {
			continue
		}
		counterpart := class.Entries[idx].Clone()
		counterpart.PersonnelCode = identity.PersonnelCode
		counterpart.PersonnelName = identity.FullName
		class.Entries = class.Entries.Put(counterpart)
		ws.markClass(class.Identity)
	}

	schedule.Identity = identity
	schedule.Entries = entries
	ws.markPersonnel(identity.ID)
	return nil
}

func (s *SyncService) removeFromClass(ctx context.Context, ws *workingSet, class models.ClassIdentity, entryID string, hint slotHint) (*models.ScheduleEntry, error) {
	schedule, err := s.loadClass(ctx, ws, class)
	if err != nil || schedule == nil {
		return nil, err
	}
	idx := hint.match(schedule.Entries, entryID)
	if idx < 0 {
		return nil, nil
	}
	removed := schedule.Entries[idx].Clone()
	schedule.Entries = schedule.Entries.RemoveAt(idx)
	ws.markClass(class)
	return &removed, nil
}

func (s *SyncService) removeFromPersonnel(ctx context.Context, ws *workingSet, personnelID, entryID string, hint slotHint) (*models.ScheduleEntry, error) {
	schedule, err := s.loadPersonnel(ctx, ws, personnelID)
	if err != nil || schedule == nil {
		return nil, err
	}
	idx := hint.match(schedule.Entries, entryID)
	if idx < 0 {
		return nil, nil
	}
	removed := schedule.Entries[idx].Clone()
	schedule.Entries = schedule.Entries.RemoveAt(idx)
	ws.markPersonnel(personnelID)
	return &removed, nil
}

func (s *SyncService) loadClass(ctx context.Context, ws *workingSet, class models.ClassIdentity) (*models.ClassSchedule, error) {
	if schedule, ok := ws.classes[class]; ok {
		return schedule, nil
	}
	schedule, err := s.repo.GetClassSchedule(ctx, class)
	if err != nil {
		return nil, err
	}
	if schedule != nil {
		ws.classes[class] = schedule
	}
	return schedule, nil
}

func (s *SyncService) loadPersonnel(ctx context.Context, ws *workingSet, personnelID string) (*models.PersonnelSchedule, error) {
	if schedule, ok := ws.personnel[personnelID]; ok {
		return schedule, nil
	}
	schedule, err := s.repo.GetPersonnelScheduleByID(ctx, personnelID)
	if err != nil {
		return nil, err
	}
	if schedule != nil {
		ws.personnel[personnelID] = schedule
	}
	return schedule, nil
}

func (s *SyncService) commit(ctx context.Context, operation string, ws *workingSet) error {
	return s.commitBatch(ctx, operation, ws, s.repo.NewBatch())
}

func (s *SyncService) commitBatch(ctx context.Context, operation string, ws *workingSet, batch *repository.Batch) error {
	for _, class := range ws.dirtyClasses {
		if err := batch.PutClass(ws.classes[class]); err != nil {
			return s.writeFailure(operation, ws, err)
		}
	}
	for _, personnelID := range ws.dirtyPersonnel {
		if err := batch.PutPersonnel(ws.personnel[personnelID]); err != nil {
			return s.writeFailure(operation, ws, err)
		}
	}

	if s.cfg.WriteTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.WriteTimeout)
		defer cancel()
	}

	start := time.Now()
	if err := batch.Commit(ctx); err != nil {
		return s.writeFailure(operation, ws, err)
	}
	s.metrics.ObserveCommit(time.Since(start))
	return nil
}

func (s *SyncService) writeFailure(operation string, ws *workingSet, err error) error {
	s.metrics.RecordMutation(operation, ResultFailed)
	s.logger.Error("schedule commit failed", zap.String("operation", operation), zap.Strings("aggregates", ws.keys()), zap.Error(err))
	return appErrors.WrapAs(appErrors.ErrStorageWrite, err, "")
}

func (s *SyncService) readFailure(operation string, err error) error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return err
	}
	s.metrics.RecordMutation(operation, ResultFailed)
	s.logger.Error("schedule read failed", zap.String("operation", operation), zap.Error(err))
	return appErrors.WrapAs(appErrors.ErrStorageUnavailable, err, "")
}

// normalize validates a draft and returns the canonical entry. fresh reports
// whether the id was generated here, in which case no stored copy can exist.
func (s *SyncService) normalize(draft models.ScheduleEntry, origin models.OriginSide) (models.ScheduleEntry, bool, error) {
	entry := draft.Clone()
	invalid := func(message string) (models.ScheduleEntry, bool, error) {
		return models.ScheduleEntry{}, false, appErrors.Clone(appErrors.ErrValidation, message)
	}

	if !origin.Valid() {
		return invalid("origin must be class or personnel")
	}
	entry.OriginSide = origin

	day, ok := models.ParseDay(string(entry.Day))
	if !ok {
		return invalid(fmt.Sprintf("unknown day %q", entry.Day))
	}
	entry.Day = day

	slots := s.cfg.Level.SlotTable()
	entry.TimeStart = strings.TrimSpace(entry.TimeStart)
	slotEnd, ok := slots.EndOf(entry.TimeStart)
	if !ok {
		return invalid(fmt.Sprintf("unknown time slot %q", entry.TimeStart))
	}
	// An entry occupies exactly one slot, so (day, timeStart) identifies it.
	entry.TimeEnd = strings.TrimSpace(entry.TimeEnd)
	if entry.TimeEnd == "" {
		entry.TimeEnd = slotEnd
	} else if entry.TimeEnd != slotEnd {
		return invalid(fmt.Sprintf("time end %q does not close the slot starting at %q", entry.TimeEnd, entry.TimeStart))
	}

	entry.PersonnelCode = strings.TrimSpace(entry.PersonnelCode)
	if entry.PersonnelCode != "" && !models.ValidPersonnelCode(entry.PersonnelCode) {
		return invalid("personnel code must be exactly 8 digits")
	}

	if entry.Class != nil {
		class := models.ClassIdentity{
			Grade:       strings.TrimSpace(entry.Class.Grade),
			ClassNumber: strings.TrimSpace(entry.Class.ClassNumber),
			Field:       strings.TrimSpace(entry.Class.Field),
		}
		if class == (models.ClassIdentity{}) {
			entry.Class = nil
		} else {
			if msg := s.validateClass(class); msg != "" {
				return invalid(msg)
			}
			entry.Class = &class
		}
	}

	switch {
	case origin == models.OriginClass && entry.Class == nil:
		return invalid("class identity is required for entries edited from the class view")
	case origin == models.OriginPersonnel && entry.PersonnelCode == "":
		return invalid("personnel code is required for entries edited from the personnel view")
	}

	if entry.HourType == "" {
		entry.HourType = models.HourRegular
	}
	if !entry.HourType.Valid() {
		return invalid(fmt.Sprintf("unknown hour type %q", entry.HourType))
	}

	entry.TeachingGroup = strings.TrimSpace(entry.TeachingGroup)
	if entry.TeachingGroup != "" && !s.cfg.Level.HasTeachingGroup(entry.TeachingGroup) {
		return invalid(fmt.Sprintf("unknown teaching group %q", entry.TeachingGroup))
	}
	entry.Description = strings.TrimSpace(entry.Description)

	entry.ID = strings.TrimSpace(entry.ID)
	fresh := entry.ID == ""
	if fresh {
		entry.ID = uuid.NewString()
	}
	return entry, fresh, nil
}

func (s *SyncService) validateClass(class models.ClassIdentity) string {
	level := s.cfg.Level
	switch {
	case class.Grade == "" || class.ClassNumber == "":
		return "class identity requires grade and class number"
	case level.RequiresField() && class.Field == "":
		return "class identity requires a field at this school level"
	case !level.HasGrade(class.Grade):
		return fmt.Sprintf("unknown grade %q", class.Grade)
	case !level.HasClassOption(class.ClassNumber):
		return fmt.Sprintf("unknown class number %q", class.ClassNumber)
	case class.Field != "" && !level.HasField(class.Field):
		return fmt.Sprintf("unknown field %q", class.Field)
	}
	return ""
}

func (s *SyncService) normalizeDelete(req DeleteRequest) (DeleteRequest, error) {
	req.EntryID = strings.TrimSpace(req.EntryID)
	req.PersonnelCode = strings.TrimSpace(req.PersonnelCode)
	if req.PersonnelCode != "" && !models.ValidPersonnelCode(req.PersonnelCode) {
		return req, appErrors.Clone(appErrors.ErrValidation, "personnel code must be exactly 8 digits")
	}
	if req.Class != nil && *req.Class == (models.ClassIdentity{}) {
		req.Class = nil
	}
	if req.Class == nil && req.PersonnelCode == "" {
		return req, appErrors.Clone(appErrors.ErrValidation, "class identity or personnel code is required")
	}
	if req.EntryID == "" && req.Day == "" {
		return req, appErrors.Clone(appErrors.ErrValidation, "entry id or slot is required")
	}
	if req.Day != "" {
		day, ok := models.ParseDay(string(req.Day))
		if !ok {
			return req, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown day %q", req.Day))
		}
		req.Day = day
	}
	return req, nil
}

func alreadyStored(entry models.ScheduleEntry, classSchedule *models.ClassSchedule, personnelSchedule *models.PersonnelSchedule) bool {
	if entry.Class != nil {
		if classSchedule == nil {
			return false
		}
		idx := classSchedule.Entries.IndexByID(entry.ID)
		if idx < 0 || !classSchedule.Entries[idx].SameAssignment(entry) {
			return false
		}
	}
	if entry.HasPersonnel() {
		if personnelSchedule == nil {
			return false
		}
		idx := personnelSchedule.Entries.IndexByID(entry.ID)
		if idx < 0 || !personnelSchedule.Entries[idx].SameAssignment(entry) {
			return false
		}
	}
	return true
}

func storedCopy(entry models.ScheduleEntry, classSchedule *models.ClassSchedule, personnelSchedule *models.PersonnelSchedule) models.ScheduleEntry {
	if classSchedule != nil {
		if idx := classSchedule.Entries.IndexByID(entry.ID); idx >= 0 {
			return classSchedule.Entries[idx].Clone()
		}
	}
	if personnelSchedule != nil {
		if idx := personnelSchedule.Entries.IndexByID(entry.ID); idx >= 0 {
			return personnelSchedule.Entries[idx].Clone()
		}
	}
	return entry
}

type slotHint struct {
	day   models.Day
	start string
	end   string
}

func (h slotHint) orFrom(entry models.ScheduleEntry) slotHint {
	if h.day == "" {
		return slotHint{day: entry.Day, start: entry.TimeStart, end: entry.TimeEnd}
	}
	return h
}

func (h slotHint) match(entries models.EntryList, entryID string) int {
	if idx := entries.IndexByID(entryID); idx >= 0 {
		return idx
	}
	if h.day == "" || h.start == "" {
		return -1
	}
	return entries.IndexBySlot(h.day, h.start, h.end)
}

// workingSet holds the aggregates loaded for one mutation and tracks which of
// them must be written back.
type workingSet struct {
	classes        map[models.ClassIdentity]*models.ClassSchedule
	personnel      map[string]*models.PersonnelSchedule
	dirtyClasses   []models.ClassIdentity
	dirtyPersonnel []string
}

func newWorkingSet() *workingSet {
	return &workingSet{
		classes:   make(map[models.ClassIdentity]*models.ClassSchedule),
		personnel: make(map[string]*models.PersonnelSchedule),
	}
}

func (w *workingSet) markClass(class models.ClassIdentity) {
	for _, existing := range w.dirtyClasses {
		if existing == class {
			return
		}
	}
	w.dirtyClasses = append(w.dirtyClasses, class)
}

func (w *workingSet) markPersonnel(personnelID string) {
	for _, existing := range w.dirtyPersonnel {
		if existing == personnelID {
			return
		}
	}
	w.dirtyPersonnel = append(w.dirtyPersonnel, personnelID)
}

func (w *workingSet) clean() bool {
	return len(w.dirtyClasses) == 0 && len(w.dirtyPersonnel) == 0
}

func (w *workingSet) keys() []string {
	keys := make([]string, 0, len(w.dirtyClasses)+len(w.dirtyPersonnel))
	for _, class := range w.dirtyClasses {
		keys = append(keys, repository.ClassScheduleKey(class))
	}
	for _, personnelID := range w.dirtyPersonnel {
		keys = append(keys, repository.PersonnelScheduleKey(personnelID))
	}
	return keys
}
