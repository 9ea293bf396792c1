package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myyrakle/batchman/internal/apierr"
	"github.com/myyrakle/batchman/internal/cdc"
	"github.com/myyrakle/batchman/internal/dbsetup"
	"github.com/myyrakle/batchman/internal/model"
	"github.com/myyrakle/batchman/internal/repo"
	"github.com/myyrakle/batchman/internal/service"
)

func newTestScheduleService(t *testing.T) (*service.ScheduleService, repo.TaskDefinitionRepository, *cdc.Bus) {
	t.Helper()
	db, err := dbsetup.Open("sqlite://:memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	taskDefs := repo.NewSQLiteTaskDefinitionRepository(db)
	scheds := repo.NewSQLiteScheduleRepository(db)
	bus := cdc.New(discardLogger())
	return service.NewScheduleService(scheds, taskDefs, bus, discardLogger()), taskDefs, bus
}

func TestScheduleService_CreateSchedule_RejectsBadCron(t *testing.T) {
	svc, taskDefs, _ := newTestScheduleService(t)
	tdID := mustCreateTaskDefinition(t, taskDefs)

	_, err := svc.CreateSchedule(context.Background(), &model.Schedule{
		Name:             "bad",
		JobName:          "bad",
		CronExpression:   "not a cron",
		TaskDefinitionID: tdID,
	})
	require.Error(t, err)
	assert.True(t, apierr.Is(err, apierr.ErrInvalidCronExpression))
}

func TestScheduleService_CreateSchedule_RejectsUnknownTaskDefinition(t *testing.T) {
	svc, _, _ := newTestScheduleService(t)

	_, err := svc.CreateSchedule(context.Background(), &model.Schedule{
		Name:             "x",
		JobName:          "x",
		CronExpression:   "* * * * *",
		TaskDefinitionID: 999,
	})
	require.Error(t, err)
	assert.True(t, apierr.Is(err, apierr.ErrTaskDefinitionNotFound))
}

func TestScheduleService_CreateSchedule_PublishesCDCEvent(t *testing.T) {
	svc, taskDefs, bus := newTestScheduleService(t)
	tdID := mustCreateTaskDefinition(t, taskDefs)

	id, err := svc.CreateSchedule(context.Background(), &model.Schedule{
		Name:             "nightly",
		JobName:          "nightly",
		CronExpression:   "* * * * *",
		TaskDefinitionID: tdID,
	})
	require.NoError(t, err)
	assert.NotZero(t, id)
	assert.True(t, bus.TryDrain())
}

func TestScheduleService_PatchSchedule_InvalidCronLeavesRowUnchanged(t *testing.T) {
	svc, taskDefs, _ := newTestScheduleService(t)
	tdID := mustCreateTaskDefinition(t, taskDefs)
	id, err := svc.CreateSchedule(context.Background(), &model.Schedule{
		Name: "x", JobName: "x", CronExpression: "* * * * *", TaskDefinitionID: tdID,
	})
	require.NoError(t, err)

	err = svc.PatchSchedule(context.Background(), id, service.SchedulePatchInput{
		CronExpression: ptrStr("garbage"),
	})
	require.Error(t, err)
	assert.True(t, apierr.Is(err, apierr.ErrInvalidCronExpression))

	list, err := svc.ListSchedules(context.Background(), repo.ScheduleFilter{ScheduleID: &id})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "* * * * *", list[0].CronExpression)
}

func TestScheduleService_DeleteSchedule_PublishesCDCEvent(t *testing.T) {
	svc, taskDefs, bus := newTestScheduleService(t)
	tdID := mustCreateTaskDefinition(t, taskDefs)
	id, err := svc.CreateSchedule(context.Background(), &model.Schedule{
		Name: "x", JobName: "x", CronExpression: "* * * * *", TaskDefinitionID: tdID,
	})
	require.NoError(t, err)
	bus.TryDrain()

	require.NoError(t, svc.DeleteSchedule(context.Background(), id))
	assert.True(t, bus.TryDrain())
}

func TestScheduleService_MarkTriggered_DoesNotPublish(t *testing.T) {
	svc, taskDefs, bus := newTestScheduleService(t)
	tdID := mustCreateTaskDefinition(t, taskDefs)
	id, err := svc.CreateSchedule(context.Background(), &model.Schedule{
		Name: "x", JobName: "x", CronExpression: "* * * * *", TaskDefinitionID: tdID,
	})
	require.NoError(t, err)
	bus.TryDrain()

	require.NoError(t, svc.MarkTriggered(context.Background(), id, time.Now().UTC()))
	assert.False(t, bus.TryDrain())
}

func ptrStr(s string) *string { return &s }
