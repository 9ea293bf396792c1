package tracker

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

func newTestLoop(t *testing.T) (*Loop, repo.JobRepository, repo.TaskDefinitionRepository, *containerrt.Fake) {
	t.Helper()
	db, err := dbsetup.Open("sqlite://:memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	taskDefs := repo.NewSQLiteTaskDefinitionRepository(db)
	jobs := repo.NewSQLiteJobRepository(db)
	fake := containerrt.NewFake()
	jobSvc := service.NewJobService(jobs, taskDefs, fake, discardLogger())
	loop := New(jobSvc, 5*time.Millisecond, 10*time.Millisecond, discardLogger())
	return loop, jobs, taskDefs, fake
}

func TestLoop_Tick_EmptyReturnsFalse(t *testing.T) {
	loop, _, _, _ := newTestLoop(t)
	assert.False(t, loop.tick(context.Background()))
}

func TestLoop_Tick_ReconcilesFinishedJob(t *testing.T) {
	loop, jobs, taskDefs, fake := newTestLoop(t)
	ctx := context.Background()

	tdID, err := taskDefs.Create(ctx, &model.TaskDefinition{Name: "etl", Image: "busybox", Enabled: true})
	require.NoError(t, err)
	jobID, err := jobs.Create(ctx, &model.Job{Name: "j", TaskDefinitionID: tdID})
	require.NoError(t, err)
	require.NoError(t, loop.jobs.RunPendingJob(ctx, &model.Job{ID: jobID, TaskDefinitionID: tdID}))

	job, err := jobs.Get(ctx, jobID)
	require.NoError(t, err)
	fake.FinishContainer(*job.ContainerID, 3)

	ok := loop.tick(ctx)
	assert.True(t, ok)

	finished, err := jobs.Get(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, model.JobFinished, finished.Status)
	require.NotNil(t, finished.ExitCode)
	assert.Equal(t, 3, *finished.ExitCode)
}

func TestLoop_StartStop(t *testing.T) {
	loop, _, _, _ := newTestLoop(t)
	require.NoError(t, loop.Start(context.Background()))
	time.Sleep(20 * time.Millisecond)
	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, loop.Stop(stopCtx))
}
