package service_test

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myyrakle/batchman/internal/apierr"
	"github.com/myyrakle/batchman/internal/containerrt"
	"github.com/myyrakle/batchman/internal/dbsetup"
	"github.com/myyrakle/batchman/internal/model"
	"github.com/myyrakle/batchman/internal/repo"
	"github.com/myyrakle/batchman/internal/service"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

func newTestServices(t *testing.T) (*service.JobService, repo.TaskDefinitionRepository, repo.JobRepository, *containerrt.Fake) {
	t.Helper()
	db, err := dbsetup.Open("sqlite://:memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	taskDefs := repo.NewSQLiteTaskDefinitionRepository(db)
	jobs := repo.NewSQLiteJobRepository(db)
	fake := containerrt.NewFake()
	jobSvc := service.NewJobService(jobs, taskDefs, fake, discardLogger())
	return jobSvc, taskDefs, jobs, fake
}

func mustCreateTaskDefinition(t *testing.T, taskDefs repo.TaskDefinitionRepository) int64 {
	t.Helper()
	id, err := taskDefs.Create(context.Background(), &model.TaskDefinition{Name: "runner", Image: "busybox", Enabled: true})
	require.NoError(t, err)
	return id
}

func TestJobService_SubmitJob_UnknownTaskDefinition(t *testing.T) {
	jobSvc, _, _, _ := newTestServices(t)
	_, err := jobSvc.SubmitJob(context.Background(), 999, "x", nil)
	require.Error(t, err)
	assert.True(t, apierr.Is(err, apierr.ErrTaskDefinitionNotFound))
}

func TestJobService_RunPendingJob_TransitionsToRunning(t *testing.T) {
	jobSvc, taskDefs, jobs, fake := newTestServices(t)
	ctx := context.Background()

	tdID := mustCreateTaskDefinition(t, taskDefs)
	jobID, err := jobSvc.SubmitJob(ctx, tdID, "nightly", nil)
	require.NoError(t, err)

	job, err := jobs.Get(ctx, jobID)
	require.NoError(t, err)

	require.NoError(t, jobSvc.RunPendingJob(ctx, job))

	updated, err := jobs.Get(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, model.JobRunning, updated.Status)
	require.NotNil(t, updated.ContainerID)
	require.NotNil(t, updated.StartedAt)

	_, err = fake.Inspect(ctx, *updated.ContainerID)
	require.NoError(t, err)
}

func TestJobService_TrackRunningJob_FinishedTakesExitCode(t *testing.T) {
	jobSvc, taskDefs, jobs, fake := newTestServices(t)
	ctx := context.Background()

	tdID := mustCreateTaskDefinition(t, taskDefs)
	jobID, err := jobSvc.SubmitJob(ctx, tdID, "nightly", nil)
	require.NoError(t, err)
	job, err := jobs.Get(ctx, jobID)
	require.NoError(t, err)
	require.NoError(t, jobSvc.RunPendingJob(ctx, job))

	job, err = jobs.Get(ctx, jobID)
	require.NoError(t, err)
	fake.FinishContainer(*job.ContainerID, 0)

	require.NoError(t, jobSvc.TrackRunningJob(ctx, job))

	finished, err := jobs.Get(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, model.JobFinished, finished.Status)
	require.NotNil(t, finished.ExitCode)
	assert.Equal(t, 0, *finished.ExitCode)
}

func TestJobService_TrackRunningJob_DeadMarksFailed(t *testing.T) {
	jobSvc, taskDefs, jobs, fake := newTestServices(t)
	ctx := context.Background()

	tdID := mustCreateTaskDefinition(t, taskDefs)
	jobID, err := jobSvc.SubmitJob(ctx, tdID, "nightly", nil)
	require.NoError(t, err)
	job, err := jobs.Get(ctx, jobID)
	require.NoError(t, err)
	require.NoError(t, jobSvc.RunPendingJob(ctx, job))

	job, err = jobs.Get(ctx, jobID)
	require.NoError(t, err)
	fake.KillContainer(*job.ContainerID, "oom")

	require.NoError(t, jobSvc.TrackRunningJob(ctx, job))

	failed, err := jobs.Get(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, model.JobFailed, failed.Status)
	require.NotNil(t, failed.ErrorMessage)
}

func TestJobService_TrackRunningJob_StillRunningNoOp(t *testing.T) {
	jobSvc, taskDefs, jobs, _ := newTestServices(t)
	ctx := context.Background()

	tdID := mustCreateTaskDefinition(t, taskDefs)
	jobID, err := jobSvc.SubmitJob(ctx, tdID, "nightly", nil)
	require.NoError(t, err)
	job, err := jobs.Get(ctx, jobID)
	require.NoError(t, err)
	require.NoError(t, jobSvc.RunPendingJob(ctx, job))

	job, err = jobs.Get(ctx, jobID)
	require.NoError(t, err)

	require.NoError(t, jobSvc.TrackRunningJob(ctx, job))

	still, err := jobs.Get(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, model.JobRunning, still.Status)
}

func TestJobService_StopJob_RequiresContainerID(t *testing.T) {
	jobSvc, taskDefs, _, _ := newTestServices(t)
	ctx := context.Background()

	tdID := mustCreateTaskDefinition(t, taskDefs)
	jobID, err := jobSvc.SubmitJob(ctx, tdID, "nightly", nil)
	require.NoError(t, err)

	err = jobSvc.StopJob(ctx, jobID)
	require.Error(t, err)
	assert.True(t, apierr.Is(err, apierr.ErrJobHasNoContainerID))
}

func TestJobService_MarkFailed(t *testing.T) {
	jobSvc, taskDefs, jobs, _ := newTestServices(t)
	ctx := context.Background()

	tdID := mustCreateTaskDefinition(t, taskDefs)
	jobID, err := jobSvc.SubmitJob(ctx, tdID, "nightly", nil)
	require.NoError(t, err)

	require.NoError(t, jobSvc.MarkFailed(ctx, jobID, "boom"))

	job, err := jobs.Get(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, model.JobFailed, job.Status)
	require.NotNil(t, job.ErrorMessage)
	assert.Equal(t, "boom", *job.ErrorMessage)
}

// loggingRuntime wraps containerrt.Fake to additionally report a real log
// file path from Inspect, so ListJobLogs/CountJobLogs can be exercised
// without a real container runtime.
type loggingRuntime struct {
	*containerrt.Fake
	logPath string
}

func (r *loggingRuntime) Inspect(ctx context.Context, containerID string) (containerrt.Inspection, error) {
	insp, err := r.Fake.Inspect(ctx, containerID)
	if err != nil {
		return insp, err
	}
	insp.LogPath = r.logPath
	return insp, nil
}

func TestJobService_ListJobLogs_PagesLines(t *testing.T) {
	db, err := dbsetup.Open("sqlite://:memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	taskDefs := repo.NewSQLiteTaskDefinitionRepository(db)
	jobs := repo.NewSQLiteJobRepository(db)

	logFile := filepath.Join(t.TempDir(), "container.log")
	var content string
	for i := 0; i < 5; i++ {
		content += fmt.Sprintf(`{"time":"2026-07-30T00:00:0%dZ","log":"line-%d\n"}`+"\n", i, i)
	}
	require.NoError(t, os.WriteFile(logFile, []byte(content), 0o644))

	runtime := &loggingRuntime{Fake: containerrt.NewFake(), logPath: logFile}
	jobSvc := service.NewJobService(jobs, taskDefs, runtime, discardLogger())
	ctx := context.Background()

	tdID := mustCreateTaskDefinition(t, taskDefs)
	jobID, err := jobSvc.SubmitJob(ctx, tdID, "nightly", nil)
	require.NoError(t, err)
	job, err := jobs.Get(ctx, jobID)
	require.NoError(t, err)
	require.NoError(t, jobSvc.RunPendingJob(ctx, job))

	lines, err := jobSvc.ListJobLogs(ctx, jobID, 2, 2)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "line-2\n", lines[0].Message)
	assert.Equal(t, "line-3\n", lines[1].Message)

	count, err := jobSvc.CountJobLogs(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, 5, count)

	beyond, err := jobSvc.ListJobLogs(ctx, jobID, 100, 10)
	require.NoError(t, err)
	assert.Empty(t, beyond)
}

func TestJobService_ListJobLogs_ExpiredLogsFail(t *testing.T) {
	db, err := dbsetup.Open("sqlite://:memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	taskDefs := repo.NewSQLiteTaskDefinitionRepository(db)
	jobs := repo.NewSQLiteJobRepository(db)
	fake := containerrt.NewFake()
	jobSvc := service.NewJobService(jobs, taskDefs, fake, discardLogger())
	ctx := context.Background()

	tdID := mustCreateTaskDefinition(t, taskDefs)
	jobID, err := jobSvc.SubmitJob(ctx, tdID, "nightly", nil)
	require.NoError(t, err)

	require.NoError(t, jobs.Update(ctx, jobID, repo.JobPatch{LogExpired: boolPtr(true)}))

	_, err = jobSvc.ListJobLogs(ctx, jobID, 0, 10)
	require.Error(t, err)
	assert.True(t, apierr.Is(err, apierr.ErrJobLogExpired))
}

func boolPtr(b bool) *bool { return &b }
