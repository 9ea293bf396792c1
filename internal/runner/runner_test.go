package runner

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myyrakle/batchman/internal/containerrt"
	"github.com/myyrakle/batchman/internal/dbsetup"
	"github.com/myyrakle/batchman/internal/model"
	"github.com/myyrakle/batchman/internal/repo"
	"github.com/myyrakle/batchman/internal/service"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

func newTestLoop(t *testing.T) (*Loop, repo.JobRepository, repo.TaskDefinitionRepository) {
	t.Helper()
	db, err := dbsetup.Open("sqlite://:memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	taskDefs := repo.NewSQLiteTaskDefinitionRepository(db)
	jobs := repo.NewSQLiteJobRepository(db)
	jobSvc := service.NewJobService(jobs, taskDefs, containerrt.NewFake(), discardLogger())
	loop := New(jobSvc, 5, 10*time.Millisecond, discardLogger())
	return loop, jobs, taskDefs
}

func TestLoop_Tick_EmptyReturnsTrue(t *testing.T) {
	loop, _, _ := newTestLoop(t)
	assert.True(t, loop.tick(context.Background()))
}

func TestLoop_Tick_RunsPendingJobsToRunning(t *testing.T) {
	loop, jobs, taskDefs := newTestLoop(t)
	ctx := context.Background()

	tdID, err := taskDefs.Create(ctx, &model.TaskDefinition{Name: "etl", Image: "busybox", Enabled: true})
	require.NoError(t, err)
	jobID, err := jobs.Create(ctx, &model.Job{Name: "nightly", TaskDefinitionID: tdID})
	require.NoError(t, err)

	backoff := loop.tick(ctx)
	assert.False(t, backoff)

	job, err := jobs.Get(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, model.JobRunning, job.Status)
}

func TestLoop_RunOne_MarksFailedOnRunError(t *testing.T) {
	loop, jobs, taskDefs := newTestLoop(t)
	ctx := context.Background()

	fake := containerrt.NewFake()
	fake.RunErr = assertErr{}
	jobSvc := service.NewJobService(jobs, taskDefs, fake, discardLogger())
	loop.jobs = jobSvc

	tdID, err := taskDefs.Create(ctx, &model.TaskDefinition{Name: "etl", Image: "busybox", Enabled: true})
	require.NoError(t, err)
	job := &model.Job{ID: mustCreateJob(t, jobs, tdID), TaskDefinitionID: tdID}

	loop.runOne(ctx, job)

	updated, err := jobs.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobFailed, updated.Status)
}

func TestLoop_StartStop(t *testing.T) {
	loop, _, _ := newTestLoop(t)
	require.NoError(t, loop.Start(context.Background()))
	time.Sleep(20 * time.Millisecond)
	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, loop.Stop(stopCtx))
}

func mustCreateJob(t *testing.T, jobs repo.JobRepository, tdID int64) int64 {
	t.Helper()
	id, err := jobs.Create(context.Background(), &model.Job{Name: "j", TaskDefinitionID: tdID})
	require.NoError(t, err)
	return id
}

type assertErr struct{}

func (assertErr) Error() string { return "run failed" }
