package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-sync/internal/models"
	"github.com/noah-isme/sma-timetable-sync/pkg/kvstore"
)

var classA = models.ClassIdentity{Grade: "10", ClassNumber: "A", Field: "Electronics"}

func newScheduleRepo(store kvstore.Store) (*ScheduleRepository, *PersonnelRepository) {
	personnel := NewPersonnelRepository(store)
	return NewScheduleRepository(store, personnel), personnel
}

func entry(id string, day models.Day, start string) models.ScheduleEntry {
	class := classA
	return models.ScheduleEntry{ID: id, Day: day, TimeStart: start, TimeEnd: "08:45", Class: &class, HourType: models.HourRegular}
}

func TestScheduleKeysMatchStoredLayout(t *testing.T) {
	assert.Equal(t, "personnel_schedule_p-1", PersonnelScheduleKey("p-1"))
	assert.Equal(t, "class_schedule_10-A-Electronics", ClassScheduleKey(classA))
	assert.Equal(t, "class_schedule_10-A-Electronics", KeyFor(models.ClassRef(classA)))
	assert.Equal(t, "personnel_schedule_p-1", KeyFor(models.PersonnelRef("p-1")))
}

func TestScheduleRepositoryClassRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo, _ := newScheduleRepo(kvstore.NewMemoryStore())

	missing, err := repo.GetClassSchedule(ctx, classA)
	require.NoError(t, err)
	assert.Nil(t, missing)

	schedule := &models.ClassSchedule{Identity: classA, Entries: models.EntryList{entry("e1", models.Saturday, "08:00")}}
	require.NoError(t, repo.UpsertClassSchedule(ctx, schedule))
	assert.False(t, schedule.LastModified.IsZero())

	loaded, err := repo.GetClassSchedule(ctx, classA)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.Len(t, loaded.Entries, 1)
	assert.Equal(t, "e1", loaded.Entries[0].ID)
	assert.Equal(t, classA, *loaded.Entries[0].Class)
}

func TestScheduleRepositoryPersonnelByCode(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	repo, personnel := newScheduleRepo(store)

	none, err := repo.GetPersonnelSchedule(ctx, "11112222")
	require.NoError(t, err)
	assert.Nil(t, none)

	identity := &models.PersonnelIdentity{PersonnelCode: "11112222", FullName: "Sara Ahmadi"}
	require.NoError(t, personnel.Save(ctx, identity))
	require.NoError(t, repo.UpsertPersonnelSchedule(ctx, &models.PersonnelSchedule{Identity: *identity}))

	loaded, err := repo.GetPersonnelSchedule(ctx, "11112222")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, identity.ID, loaded.Identity.ID)
}

func TestScheduleRepositoryListAllSorted(t *testing.T) {
	ctx := context.Background()
	repo, _ := newScheduleRepo(kvstore.NewMemoryStore())

	for _, class := range []models.ClassIdentity{
		{Grade: "11", ClassNumber: "A", Field: "Computer"},
		{Grade: "9", ClassNumber: "B", Field: ""},
		{Grade: "10", ClassNumber: "A", Field: "Electronics"},
	} {
		require.NoError(t, repo.UpsertClassSchedule(ctx, &models.ClassSchedule{Identity: class}))
	}

	schedules, err := repo.ListAllClassSchedules(ctx)
	require.NoError(t, err)
	require.Len(t, schedules, 3)
	assert.Equal(t, "9", schedules[0].Identity.Grade)
	assert.Equal(t, "10", schedules[1].Identity.Grade)
	assert.Equal(t, "11", schedules[2].Identity.Grade)
}

func TestScheduleRepositoryDeleteEntry(t *testing.T) {
	ctx := context.Background()
	repo, _ := newScheduleRepo(kvstore.NewMemoryStore())
	require.NoError(t, repo.UpsertClassSchedule(ctx, &models.ClassSchedule{
		Identity: classA,
		Entries:  models.EntryList{entry("e1", models.Saturday, "08:00"), entry("e2", models.Sunday, "08:00")},
	}))

	require.NoError(t, repo.DeleteEntry(ctx, models.ClassRef(classA), "e1"))
	require.NoError(t, repo.DeleteEntry(ctx, models.ClassRef(classA), "unknown"))
	require.NoError(t, repo.DeleteEntry(ctx, models.PersonnelRef("nobody"), "e2"))

	loaded, err := repo.GetClassSchedule(ctx, classA)
	require.NoError(t, err)
	require.Len(t, loaded.Entries, 1)
	assert.Equal(t, "e2", loaded.Entries[0].ID)
}

func TestScheduleRepositoryUpsertSurfacesWriteFailure(t *testing.T) {
	ctx := context.Background()
	store := newFlakyStore()
	store.failSet[ClassScheduleKey(classA)] = true
	repo, _ := newScheduleRepo(store)

	schedule := &models.ClassSchedule{Identity: classA}
	err := repo.UpsertClassSchedule(ctx, schedule)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrWriteFailed))
	assert.True(t, errors.Is(err, errInjected))
	assert.True(t, schedule.LastModified.IsZero())
}

func TestScheduleRepositoryClearAllKeepsUnrelatedKeys(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	repo, personnel := newScheduleRepo(store)

	identity := &models.PersonnelIdentity{PersonnelCode: "11112222"}
	require.NoError(t, personnel.Save(ctx, identity))
	require.NoError(t, repo.UpsertPersonnelSchedule(ctx, &models.PersonnelSchedule{Identity: *identity}))
	require.NoError(t, repo.UpsertClassSchedule(ctx, &models.ClassSchedule{Identity: classA}))
	require.NoError(t, store.Set(ctx, "ui_preferences", "{}"))

	removed, err := repo.ClearAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	keys, err := store.Keys(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"ui_preferences", PersonnelIdentityKey(identity.ID)}, keys)
}
