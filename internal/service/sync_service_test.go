package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-sync/internal/models"
	"github.com/noah-isme/sma-timetable-sync/internal/repository"
	appErrors "github.com/noah-isme/sma-timetable-sync/pkg/errors"
	"github.com/noah-isme/sma-timetable-sync/pkg/kvstore"
)

var (
	classElectronicsA = models.ClassIdentity{Grade: "10", ClassNumber: "A", Field: "Electronics"}
	classElectronicsB = models.ClassIdentity{Grade: "10", ClassNumber: "B", Field: "Electronics"}
	classComputerA    = models.ClassIdentity{Grade: "11", ClassNumber: "A", Field: "Computer"}
)

var errQuota = errors.New("quota exceeded")

// failingStore rejects Set for the listed keys.
type failingStore struct {
	*kvstore.MemoryStore
	failSet map[string]bool
}

func (s *failingStore) Set(ctx context.Context, key, value string) error {
	if s.failSet[key] {
		return errQuota
	}
	return s.MemoryStore.Set(ctx, key, value)
}

type syncFixture struct {
	store     *failingStore
	schedules *repository.ScheduleRepository
	directory *PersonnelService
	sync      *SyncService
}

func newSyncFixture(t *testing.T, strict bool) *syncFixture {
	t.Helper()
	level, ok := models.LevelProfileFor("vocational")
	require.True(t, ok)

	store := &failingStore{MemoryStore: kvstore.NewMemoryStore(), failSet: map[string]bool{}}
	personnelRepo := repository.NewPersonnelRepository(store)
	schedules := repository.NewScheduleRepository(store, personnelRepo)
	directory := NewPersonnelService(personnelRepo, NewValidator(), zap.NewNop())
	cfg := SyncConfig{Level: level, StrictClassSlots: strict}
	return &syncFixture{
		store:     store,
		schedules: schedules,
		directory: directory,
		sync:      NewSyncService(schedules, directory, cfg, NewMetricsService(), zap.NewNop()),
	}
}

func (f *syncFixture) snapshot(t *testing.T) map[string]string {
	t.Helper()
	ctx := context.Background()
	keys, err := f.store.Keys(ctx)
	require.NoError(t, err)
	out := make(map[string]string, len(keys))
	for _, key := range keys {
		value, _, err := f.store.Get(ctx, key)
		require.NoError(t, err)
		out[key] = value
	}
	return out
}

func (f *syncFixture) classEntries(t *testing.T, class models.ClassIdentity) models.EntryList {
	t.Helper()
	schedule, err := f.schedules.GetClassSchedule(context.Background(), class)
	require.NoError(t, err)
	if schedule == nil {
		return nil
	}
	return schedule.Entries
}

func (f *syncFixture) personnelEntries(t *testing.T, code string) models.EntryList {
	t.Helper()
	schedule, err := f.schedules.GetPersonnelSchedule(context.Background(), code)
	require.NoError(t, err)
	if schedule == nil {
		return nil
	}
	return schedule.Entries
}

func draft(id string, day models.Day, start, code string, class *models.ClassIdentity) models.ScheduleEntry {
	entry := models.ScheduleEntry{ID: id, Day: day, TimeStart: start, PersonnelCode: code, HourType: models.HourRegular}
	if class != nil {
		c := *class
		entry.Class = &c
	}
	return entry
}

func TestSyncUpsertWritesBothAggregates(t *testing.T) {
	f := newSyncFixture(t, false)
	ctx := context.Background()

	d := draft("e1", models.Saturday, "08:00", "11112222", &classElectronicsA)
	d.TeachingGroup = "Electronics"
	result, err := f.sync.Upsert(ctx, d, models.OriginClass, UpsertOptions{})
	require.NoError(t, err)
	assert.False(t, result.Unchanged)
	assert.Nil(t, result.Displaced)
	assert.Equal(t, "08:45", result.Entry.TimeEnd)
	assert.Equal(t, models.OriginClass, result.Entry.OriginSide)
	assert.False(t, result.Entry.LastModified.IsZero())

	classEntries := f.classEntries(t, classElectronicsA)
	personnelEntries := f.personnelEntries(t, "11112222")
	require.Len(t, classEntries, 1)
	require.Len(t, personnelEntries, 1)
	assert.True(t, classEntries[0].SameAssignment(personnelEntries[0]))
	assert.Equal(t, "e1", classEntries[0].ID)
	assert.Equal(t, "Electronics", classEntries[0].TeachingGroup)

	identity, err := f.directory.FindByCode(ctx, "11112222")
	require.NoError(t, err)
	require.NotNil(t, identity, "unknown codes are registered on first use")
}

func TestSyncUpsertGeneratesIDAndDefaults(t *testing.T) {
	f := newSyncFixture(t, false)

	d := draft("", "monday", "10:30", "", &classElectronicsA)
	d.HourType = ""
	result, err := f.sync.Upsert(context.Background(), d, models.OriginClass, UpsertOptions{})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Entry.ID)
	assert.Equal(t, models.Monday, result.Entry.Day)
	assert.Equal(t, models.HourRegular, result.Entry.HourType)
	assert.Nil(t, result.PersonnelSchedule)
	assert.Len(t, f.classEntries(t, classElectronicsA), 1)
}

func TestSyncUpsertClassSlotTakenLeavesStoreUnchanged(t *testing.T) {
	f := newSyncFixture(t, false)
	ctx := context.Background()

	e1 := draft("e1", models.Saturday, "08:00", "11112222", &classElectronicsA)
	e1.TeachingGroup = "Electronics"
	_, err := f.sync.Upsert(ctx, e1, models.OriginClass, UpsertOptions{})
	require.NoError(t, err)
	before := f.snapshot(t)

	e2 := draft("e2", models.Saturday, "08:00", "33334444", &classElectronicsA)
	_, err = f.sync.Upsert(ctx, e2, models.OriginClass, UpsertOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrClassSlotTaken))

	var conflict *models.ScheduleConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, models.ConflictClassSlotTaken, conflict.Kind)
	assert.True(t, conflict.Overridable())
	assert.Equal(t, "e1", conflict.Conflict.EntryID)
	assert.Equal(t, "11112222", conflict.Conflict.PersonnelCode)

	assert.Equal(t, before, f.snapshot(t))
	found, err := f.directory.FindByCode(ctx, "33334444")
	require.NoError(t, err)
	assert.Nil(t, found, "rejected drafts register nobody")
}

func TestSyncUpsertOverrideDisplacesOccupant(t *testing.T) {
	f := newSyncFixture(t, false)
	ctx := context.Background()

	_, err := f.sync.Upsert(ctx, draft("e1", models.Saturday, "08:00", "11112222", &classElectronicsA), models.OriginClass, UpsertOptions{})
	require.NoError(t, err)

	result, err := f.sync.Upsert(ctx, draft("e2", models.Saturday, "08:00", "33334444", &classElectronicsA), models.OriginClass, UpsertOptions{OverrideClassSlot: true})
	require.NoError(t, err)
	require.NotNil(t, result.Displaced)
	assert.Equal(t, "e1", result.Displaced.ID)

	classEntries := f.classEntries(t, classElectronicsA)
	require.Len(t, classEntries, 1)
	assert.Equal(t, "e2", classEntries[0].ID)
	assert.Empty(t, f.personnelEntries(t, "11112222"))
	assert.Len(t, f.personnelEntries(t, "33334444"), 1)
}

func TestSyncUpsertStrictModeRefusesOverride(t *testing.T) {
	f := newSyncFixture(t, true)
	ctx := context.Background()

	_, err := f.sync.Upsert(ctx, draft("e1", models.Saturday, "08:00", "11112222", &classElectronicsA), models.OriginClass, UpsertOptions{})
	require.NoError(t, err)

	_, err = f.sync.Upsert(ctx, draft("e2", models.Saturday, "08:00", "33334444", &classElectronicsA), models.OriginClass, UpsertOptions{OverrideClassSlot: true})
	assert.True(t, errors.Is(err, appErrors.ErrClassSlotTaken))
}

func TestSyncUpsertRejectsDoubleBooking(t *testing.T) {
	f := newSyncFixture(t, false)
	ctx := context.Background()

	_, err := f.sync.Upsert(ctx, draft("e1", models.Sunday, "09:45", "11112222", &classElectronicsA), models.OriginClass, UpsertOptions{})
	require.NoError(t, err)
	before := f.snapshot(t)

	for _, override := range []bool{false, true} {
		_, err = f.sync.Upsert(ctx, draft("e3", models.Sunday, "09:45", "11112222", &classComputerA), models.OriginPersonnel, UpsertOptions{OverrideClassSlot: override})
		require.Error(t, err)
		assert.True(t, errors.Is(err, appErrors.ErrDoubleBooked))

		var conflict *models.ScheduleConflictError
		require.True(t, errors.As(err, &conflict))
		assert.False(t, conflict.Overridable())
		assert.Equal(t, classElectronicsA, *conflict.Conflict.Class)
		assert.Equal(t, before, f.snapshot(t))
	}
}

func TestSyncUpsertPersonnelOnlyEntriesShareSlotAsClassConflict(t *testing.T) {
	f := newSyncFixture(t, false)
	ctx := context.Background()

	_, err := f.sync.Upsert(ctx, draft("p1", models.Tuesday, "08:00", "11112222", nil), models.OriginPersonnel, UpsertOptions{})
	require.NoError(t, err)

	_, err = f.sync.Upsert(ctx, draft("p2", models.Tuesday, "08:00", "11112222", nil), models.OriginPersonnel, UpsertOptions{})
	assert.True(t, errors.Is(err, appErrors.ErrClassSlotTaken))

	_, err = f.sync.Upsert(ctx, draft("p3", models.Tuesday, "08:00", "11112222", &classElectronicsA), models.OriginPersonnel, UpsertOptions{})
	assert.True(t, errors.Is(err, appErrors.ErrDoubleBooked))

	result, err := f.sync.Upsert(ctx, draft("p2", models.Tuesday, "08:00", "11112222", nil), models.OriginPersonnel, UpsertOptions{OverrideClassSlot: true})
	require.NoError(t, err)
	require.NotNil(t, result.Displaced)
	entries := f.personnelEntries(t, "11112222")
	require.Len(t, entries, 1)
	assert.Equal(t, "p2", entries[0].ID)
}

func TestSyncUpsertIsIdempotent(t *testing.T) {
	f := newSyncFixture(t, false)
	ctx := context.Background()

	d := draft("e1", models.Wednesday, "11:30", "11112222", &classElectronicsA)
	_, err := f.sync.Upsert(ctx, d, models.OriginClass, UpsertOptions{})
	require.NoError(t, err)
	before := f.snapshot(t)

	result, err := f.sync.Upsert(ctx, d, models.OriginClass, UpsertOptions{})
	require.NoError(t, err)
	assert.True(t, result.Unchanged)
	assert.Equal(t, "e1", result.Entry.ID)
	assert.Equal(t, before, f.snapshot(t))
}

func TestSyncUpsertCompletesPartialAssignment(t *testing.T) {
	f := newSyncFixture(t, false)
	ctx := context.Background()

	_, err := f.sync.Upsert(ctx, draft("e1", models.Thursday, "13:30", "", &classElectronicsA), models.OriginClass, UpsertOptions{})
	require.NoError(t, err)
	require.Len(t, f.classEntries(t, classElectronicsA), 1)

	_, err = f.sync.Upsert(ctx, draft("e1", models.Thursday, "13:30", "55556666", &classElectronicsA), models.OriginClass, UpsertOptions{})
	require.NoError(t, err)

	classEntries := f.classEntries(t, classElectronicsA)
	personnelEntries := f.personnelEntries(t, "55556666")
	require.Len(t, classEntries, 1)
	require.Len(t, personnelEntries, 1)
	assert.Equal(t, "55556666", classEntries[0].PersonnelCode)
	assert.True(t, classEntries[0].SameAssignment(personnelEntries[0]))
}

func TestSyncUpsertMoveRemovesStaleCopies(t *testing.T) {
	f := newSyncFixture(t, false)
	ctx := context.Background()

	_, err := f.sync.Upsert(ctx, draft("e1", models.Monday, "08:00", "11112222", &classElectronicsA), models.OriginClass, UpsertOptions{})
	require.NoError(t, err)

	_, err = f.sync.Upsert(ctx, draft("e1", models.Monday, "08:45", "11112222", &classElectronicsB), models.OriginPersonnel, UpsertOptions{})
	require.NoError(t, err)
	assert.Empty(t, f.classEntries(t, classElectronicsA))
	require.Len(t, f.classEntries(t, classElectronicsB), 1)
	personnelEntries := f.personnelEntries(t, "11112222")
	require.Len(t, personnelEntries, 1)
	assert.Equal(t, "08:45", personnelEntries[0].TimeStart)

	_, err = f.sync.Upsert(ctx, draft("e1", models.Monday, "08:45", "33334444", &classElectronicsB), models.OriginClass, UpsertOptions{})
	require.NoError(t, err)
	assert.Empty(t, f.personnelEntries(t, "11112222"))
	assert.Len(t, f.personnelEntries(t, "33334444"), 1)
	classEntries := f.classEntries(t, classElectronicsB)
	require.Len(t, classEntries, 1)
	assert.Equal(t, "33334444", classEntries[0].PersonnelCode)
}

func TestSyncUpsertRollsBackOnWriteFailure(t *testing.T) {
	f := newSyncFixture(t, false)
	ctx := context.Background()

	identity, err := f.sync.RegisterPersonnel(ctx, RegisterPersonnelRequest{PersonnelCode: "11112222", FullName: "Rahmat Hidayat"})
	require.NoError(t, err)
	_, err = f.sync.Upsert(ctx, draft("e0", models.Saturday, "08:45", "11112222", &classElectronicsA), models.OriginClass, UpsertOptions{})
	require.NoError(t, err)
	before := f.snapshot(t)

	f.store.failSet[repository.PersonnelScheduleKey(identity.ID)] = true
	_, err = f.sync.Upsert(ctx, draft("e1", models.Saturday, "08:00", "11112222", &classElectronicsA), models.OriginClass, UpsertOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrStorageWrite))
	assert.True(t, errors.Is(err, repository.ErrWriteFailed))
	assert.Equal(t, before, f.snapshot(t))
}

func TestSyncUpsertValidation(t *testing.T) {
	f := newSyncFixture(t, false)
	ctx := context.Background()

	noField := models.ClassIdentity{Grade: "10", ClassNumber: "A"}
	unknownGrade := models.ClassIdentity{Grade: "7", ClassNumber: "A", Field: "Computer"}
	badGroup := draft("x", models.Saturday, "08:00", "", &classElectronicsA)
	badGroup.TeachingGroup = "Astronomy"
	badHour := draft("x", models.Saturday, "08:00", "", &classElectronicsA)
	badHour.HourType = "night"
	badEnd := draft("x", models.Saturday, "09:45", "", &classElectronicsA)
	badEnd.TimeEnd = "08:45"

	cases := []struct {
		name   string
		draft  models.ScheduleEntry
		origin models.OriginSide
	}{
		{"short code", draft("x", models.Saturday, "08:00", "1234", &classElectronicsA), models.OriginClass},
		{"letters in code", draft("x", models.Saturday, "08:00", "1111222a", &classElectronicsA), models.OriginClass},
		{"unknown day", draft("x", "Friday", "08:00", "", &classElectronicsA), models.OriginClass},
		{"unknown slot", draft("x", models.Saturday, "07:00", "", &classElectronicsA), models.OriginClass},
		{"end before start", badEnd, models.OriginClass},
		{"missing field", draft("x", models.Saturday, "08:00", "", &noField), models.OriginClass},
		{"unknown grade", draft("x", models.Saturday, "08:00", "", &unknownGrade), models.OriginClass},
		{"class origin without class", draft("x", models.Saturday, "08:00", "11112222", nil), models.OriginClass},
		{"personnel origin without code", draft("x", models.Saturday, "08:00", "", &classElectronicsA), models.OriginPersonnel},
		{"unknown origin", draft("x", models.Saturday, "08:00", "11112222", nil), "timetable"},
		{"unknown teaching group", badGroup, models.OriginClass},
		{"unknown hour type", badHour, models.OriginClass},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.sync.Upsert(ctx, tc.draft, tc.origin, UpsertOptions{})
			require.Error(t, err)
			assert.True(t, errors.Is(err, appErrors.ErrValidation))
		})
	}
	assert.Empty(t, f.snapshot(t))
}

func TestSyncUpsertKeepsOneEntryPerSlot(t *testing.T) {
	f := newSyncFixture(t, false)
	ctx := context.Background()

	codes := []string{"11112222", "33334444", "55556666"}
	classes := []models.ClassIdentity{classElectronicsA, classElectronicsB, classComputerA}
	starts := []string{"08:00", "08:45"}
	n := 0
	for _, code := range codes {
		for _, class := range classes {
			for _, start := range starts {
				n++
				c := class
				_, _ = f.sync.Upsert(ctx, draft("", models.Saturday, start, code, &c), models.OriginClass, UpsertOptions{OverrideClassSlot: n%2 == 0})
			}
		}
	}

	all, err := f.schedules.ListAllClassSchedules(ctx)
	require.NoError(t, err)
	for _, schedule := range all {
		assert.Empty(t, FindClassConflicts(schedule, "", models.DefaultSlots), schedule.Identity.Key())
	}
	people, err := f.schedules.ListAllPersonnelSchedules(ctx)
	require.NoError(t, err)
	for _, schedule := range people {
		assert.Empty(t, FindAllConflicts(schedule, "", models.DefaultSlots), schedule.Identity.PersonnelCode)
		for _, entry := range schedule.Entries {
			require.NotNil(t, entry.Class)
			classEntries := f.classEntries(t, *entry.Class)
			idx := classEntries.IndexByID(entry.ID)
			require.GreaterOrEqual(t, idx, 0, "personnel copy %s has no class counterpart", entry.ID)
			assert.True(t, classEntries[idx].SameAssignment(entry))
		}
	}
}

func TestSyncDeleteRemovesBothCopies(t *testing.T) {
	f := newSyncFixture(t, false)
	ctx := context.Background()

	_, err := f.sync.Upsert(ctx, draft("e1", models.Saturday, "08:00", "11112222", &classElectronicsA), models.OriginClass, UpsertOptions{})
	require.NoError(t, err)
	_, err = f.sync.Upsert(ctx, draft("e2", models.Saturday, "08:45", "11112222", &classElectronicsA), models.OriginClass, UpsertOptions{})
	require.NoError(t, err)

	class := classElectronicsA
	result, err := f.sync.Delete(ctx, DeleteRequest{EntryID: "e1", Class: &class})
	require.NoError(t, err)
	assert.Len(t, result.RemovedFrom, 2)
	assert.Equal(t, models.AggregateClass, result.RemovedFrom[0].Kind)
	assert.Equal(t, models.AggregatePersonnel, result.RemovedFrom[1].Kind)

	classEntries := f.classEntries(t, classElectronicsA)
	personnelEntries := f.personnelEntries(t, "11112222")
	require.Len(t, classEntries, 1)
	require.Len(t, personnelEntries, 1)
	assert.Equal(t, "e2", classEntries[0].ID)
	assert.Equal(t, "e2", personnelEntries[0].ID)

	result, err = f.sync.Delete(ctx, DeleteRequest{EntryID: "e2", PersonnelCode: "11112222"})
	require.NoError(t, err)
	assert.Len(t, result.RemovedFrom, 2)
	assert.Empty(t, f.classEntries(t, classElectronicsA))
	assert.Empty(t, f.personnelEntries(t, "11112222"))
}

func TestSyncDeleteMissingEntryIsNoop(t *testing.T) {
	f := newSyncFixture(t, false)
	ctx := context.Background()

	_, err := f.sync.Upsert(ctx, draft("e1", models.Saturday, "08:00", "11112222", &classElectronicsA), models.OriginClass, UpsertOptions{})
	require.NoError(t, err)
	before := f.snapshot(t)

	class := classElectronicsA
	result, err := f.sync.Delete(ctx, DeleteRequest{EntryID: "ghost", Class: &class})
	require.NoError(t, err)
	assert.Empty(t, result.RemovedFrom)

	result, err = f.sync.Delete(ctx, DeleteRequest{EntryID: "ghost", PersonnelCode: "99998888"})
	require.NoError(t, err)
	assert.Empty(t, result.RemovedFrom)
	assert.Equal(t, before, f.snapshot(t))
}

func TestSyncDeleteFallsBackToSlot(t *testing.T) {
	f := newSyncFixture(t, false)
	ctx := context.Background()

	_, err := f.sync.Upsert(ctx, draft("e1", models.Sunday, "12:15", "11112222", &classElectronicsA), models.OriginClass, UpsertOptions{})
	require.NoError(t, err)

	class := classElectronicsA
	result, err := f.sync.Delete(ctx, DeleteRequest{EntryID: "legacy-id", Class: &class, Day: "sunday", TimeStart: "12:15", TimeEnd: "13:00"})
	require.NoError(t, err)
	assert.Len(t, result.RemovedFrom, 2)
	assert.Empty(t, f.classEntries(t, classElectronicsA))
	assert.Empty(t, f.personnelEntries(t, "11112222"))
}

func TestSyncDeleteValidation(t *testing.T) {
	f := newSyncFixture(t, false)
	ctx := context.Background()

	_, err := f.sync.Delete(ctx, DeleteRequest{EntryID: "e1"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = f.sync.Delete(ctx, DeleteRequest{EntryID: "e1", PersonnelCode: "12"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	class := classElectronicsA
	_, err = f.sync.Delete(ctx, DeleteRequest{Class: &class, Day: "Friday", TimeStart: "08:00"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestSyncClearAllKeepsDirectory(t *testing.T) {
	f := newSyncFixture(t, false)
	ctx := context.Background()

	_, err := f.sync.Upsert(ctx, draft("e1", models.Saturday, "08:00", "11112222", &classElectronicsA), models.OriginClass, UpsertOptions{})
	require.NoError(t, err)
	_, err = f.sync.Upsert(ctx, draft("e2", models.Saturday, "08:00", "33334444", &classComputerA), models.OriginClass, UpsertOptions{})
	require.NoError(t, err)
	require.NoError(t, f.store.Set(ctx, "settings_theme", "dark"))

	removed, err := f.sync.ClearAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, removed)

	people, err := f.schedules.ListAllPersonnelSchedules(ctx)
	require.NoError(t, err)
	assert.Empty(t, people)
	classes, err := f.schedules.ListAllClassSchedules(ctx)
	require.NoError(t, err)
	assert.Empty(t, classes)

	value, found, err := f.store.Get(ctx, "settings_theme")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "dark", value)

	identity, err := f.directory.FindByCode(ctx, "11112222")
	require.NoError(t, err)
	assert.NotNil(t, identity)
}

func TestSyncUpsertRejectsMultiPeriodEntry(t *testing.T) {
	f := newSyncFixture(t, false)
	ctx := context.Background()

	block := draft("e1", models.Saturday, "08:00", "11112222", &classElectronicsA)
	block.TimeEnd = "09:30"
	_, err := f.sync.Upsert(ctx, block, models.OriginClass, UpsertOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
	assert.Empty(t, f.snapshot(t))

	single := draft("e1", models.Saturday, "08:00", "11112222", &classElectronicsA)
	single.TimeEnd = "08:45"
	_, err = f.sync.Upsert(ctx, single, models.OriginClass, UpsertOptions{})
	require.NoError(t, err)
	_, err = f.sync.Upsert(ctx, draft("e2", models.Saturday, "08:45", "11112222", &classElectronicsB), models.OriginClass, UpsertOptions{})
	require.NoError(t, err)

	_, err = f.sync.Upsert(ctx, draft("e3", models.Saturday, "08:45", "11112222", &classComputerA), models.OriginClass, UpsertOptions{})
	assert.True(t, errors.Is(err, appErrors.ErrDoubleBooked))

	people, err := f.schedules.ListAllPersonnelSchedules(ctx)
	require.NoError(t, err)
	require.Len(t, people, 1)
	assert.Len(t, people[0].Entries, 2)
	assert.Empty(t, FindAllConflicts(people[0], "", models.DefaultSlots))
}

func TestSyncRegisterPersonnelCodeChangeRewritesCopies(t *testing.T) {
	f := newSyncFixture(t, false)
	ctx := context.Background()

	identity, err := f.sync.RegisterPersonnel(ctx, RegisterPersonnelRequest{PersonnelCode: "11112222", FullName: "Rahmat Hidayat"})
	require.NoError(t, err)
	_, err = f.sync.Upsert(ctx, draft("e1", models.Saturday, "08:00", "11112222", &classElectronicsA), models.OriginClass, UpsertOptions{})
	require.NoError(t, err)
	_, err = f.sync.Upsert(ctx, draft("e2", models.Sunday, "08:00", "11112222", nil), models.OriginPersonnel, UpsertOptions{})
	require.NoError(t, err)

	updated, err := f.sync.RegisterPersonnel(ctx, RegisterPersonnelRequest{ID: identity.ID, PersonnelCode: "99998888", FullName: "Rahmat Hidayat, S.T"})
	require.NoError(t, err)
	assert.Equal(t, identity.ID, updated.ID)
	assert.True(t, identity.CreatedAt.Equal(updated.CreatedAt))

	assert.Empty(t, f.personnelEntries(t, "11112222"))
	personnelEntries := f.personnelEntries(t, "99998888")
	require.Len(t, personnelEntries, 2)
	for _, entry := range personnelEntries {
		assert.Equal(t, "99998888", entry.PersonnelCode)
		assert.Equal(t, "Rahmat Hidayat, S.T", entry.PersonnelName)
	}
	classEntries := f.classEntries(t, classElectronicsA)
	require.Len(t, classEntries, 1)
	assert.Equal(t, "99998888", classEntries[0].PersonnelCode)
	assert.Equal(t, "Rahmat Hidayat, S.T", classEntries[0].PersonnelName)

	class := classElectronicsA
	result, err := f.sync.Delete(ctx, DeleteRequest{EntryID: "e1", Class: &class})
	require.NoError(t, err)
	assert.Equal(t, []models.AggregateRef{models.ClassRef(classElectronicsA), models.PersonnelRef(identity.ID)}, result.RemovedFrom)
	assert.Empty(t, f.classEntries(t, classElectronicsA))
	remaining := f.personnelEntries(t, "99998888")
	require.Len(t, remaining, 1)
	assert.Equal(t, "e2", remaining[0].ID)
}

func TestSyncRegisterPersonnelRollsBackWithCopies(t *testing.T) {
	f := newSyncFixture(t, false)
	ctx := context.Background()

	identity, err := f.sync.RegisterPersonnel(ctx, RegisterPersonnelRequest{PersonnelCode: "11112222", FullName: "Rahmat Hidayat"})
	require.NoError(t, err)
	_, err = f.sync.Upsert(ctx, draft("e1", models.Saturday, "08:00", "11112222", &classElectronicsA), models.OriginClass, UpsertOptions{})
	require.NoError(t, err)
	before := f.snapshot(t)

	f.store.failSet[repository.ClassScheduleKey(classElectronicsA)] = true
	_, err = f.sync.RegisterPersonnel(ctx, RegisterPersonnelRequest{ID: identity.ID, PersonnelCode: "99998888", FullName: "Rahmat Hidayat"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrStorageWrite))
	assert.Equal(t, before, f.snapshot(t))

	owner, err := f.directory.FindByCode(ctx, "11112222")
	require.NoError(t, err)
	require.NotNil(t, owner)
	assert.Equal(t, identity.ID, owner.ID)
}

func TestSyncRegisterPersonnelRejectsTakenCode(t *testing.T) {
	f := newSyncFixture(t, false)
	ctx := context.Background()

	first, err := f.sync.RegisterPersonnel(ctx, RegisterPersonnelRequest{PersonnelCode: "11112222", FullName: "Rahmat Hidayat"})
	require.NoError(t, err)
	_, err = f.sync.RegisterPersonnel(ctx, RegisterPersonnelRequest{PersonnelCode: "33334444", FullName: "Dewi Lestari"})
	require.NoError(t, err)
	before := f.snapshot(t)

	_, err = f.sync.RegisterPersonnel(ctx, RegisterPersonnelRequest{ID: first.ID, PersonnelCode: "33334444", FullName: "Rahmat Hidayat"})
	assert.True(t, errors.Is(err, appErrors.ErrConflict))
	assert.Equal(t, before, f.snapshot(t))
}

func TestSyncDeletePartialAssignment(t *testing.T) {
	f := newSyncFixture(t, false)
	ctx := context.Background()

	_, err := f.sync.Upsert(ctx, draft("c1", models.Saturday, "08:00", "", &classElectronicsA), models.OriginClass, UpsertOptions{})
	require.NoError(t, err)
	_, err = f.sync.Upsert(ctx, draft("p1", models.Saturday, "08:00", "11112222", nil), models.OriginPersonnel, UpsertOptions{})
	require.NoError(t, err)
	identity, err := f.directory.FindByCode(ctx, "11112222")
	require.NoError(t, err)
	require.NotNil(t, identity)
	personnelKey := repository.PersonnelScheduleKey(identity.ID)
	classKey := repository.ClassScheduleKey(classElectronicsA)
	before := f.snapshot(t)

	class := classElectronicsA
	result, err := f.sync.Delete(ctx, DeleteRequest{EntryID: "c1", Class: &class})
	require.NoError(t, err)
	assert.Equal(t, []models.AggregateRef{models.ClassRef(classElectronicsA)}, result.RemovedFrom)
	assert.Empty(t, f.classEntries(t, classElectronicsA))
	afterClassDelete := f.snapshot(t)
	assert.Equal(t, before[personnelKey], afterClassDelete[personnelKey])
	assert.Len(t, afterClassDelete, len(before))

	result, err = f.sync.Delete(ctx, DeleteRequest{EntryID: "p1", PersonnelCode: "11112222"})
	require.NoError(t, err)
	assert.Equal(t, []models.AggregateRef{models.PersonnelRef(identity.ID)}, result.RemovedFrom)
	assert.Empty(t, f.personnelEntries(t, "11112222"))
	assert.Equal(t, afterClassDelete[classKey], f.snapshot(t)[classKey])
}

func TestSyncDeleteReachesCopyWithDivergedID(t *testing.T) {
	f := newSyncFixture(t, false)
	ctx := context.Background()

	_, err := f.sync.Upsert(ctx, draft("e1", models.Monday, "09:45", "11112222", &classElectronicsA), models.OriginClass, UpsertOptions{})
	require.NoError(t, err)
	identity, err := f.directory.FindByCode(ctx, "11112222")
	require.NoError(t, err)
	require.NotNil(t, identity)

	schedule, err := f.schedules.GetPersonnelScheduleByID(ctx, identity.ID)
	require.NoError(t, err)
	require.Len(t, schedule.Entries, 1)
	schedule.Entries[0].ID = "e1-personnel"
	require.NoError(t, f.schedules.UpsertPersonnelSchedule(ctx, schedule))

	class := classElectronicsA
	result, err := f.sync.Delete(ctx, DeleteRequest{EntryID: "e1", Class: &class})
	require.NoError(t, err)
	assert.Equal(t, []models.AggregateRef{models.ClassRef(classElectronicsA), models.PersonnelRef(identity.ID)}, result.RemovedFrom)
	assert.Empty(t, f.classEntries(t, classElectronicsA))
	assert.Empty(t, f.personnelEntries(t, "11112222"))
}
