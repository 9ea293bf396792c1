// Package service implements JobService and ScheduleService (spec §4.3,
// §4.4): the orchestration layer between the HTTP/background-loop callers
// and the repo/containerrt/cdc capabilities. No package here talks to
// *sql.DB or exec.Cmd directly — only through the capability interfaces, per
// spec §9 "avoid inheritance — compose services from capability handles".
package service

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/myyrakle/batchman/internal/apierr"
	"github.com/myyrakle/batchman/internal/containerrt"
	"github.com/myyrakle/batchman/internal/model"
	"github.com/myyrakle/batchman/internal/repo"
)

// stopGraceTimeout is the 3-second graceful-stop timeout spec §5 mandates
// for stop_job.
const stopGraceTimeout = 3 * time.Second

// JobService orchestrates job state transitions (spec §4.3).
type JobService struct {
	jobs     repo.JobRepository
	taskDefs repo.TaskDefinitionRepository
	runtime  containerrt.Runtime
	logger   *slog.Logger
}

// NewJobService constructs a JobService from its capability handles.
func NewJobService(jobs repo.JobRepository, taskDefs repo.TaskDefinitionRepository, runtime containerrt.Runtime, logger *slog.Logger) *JobService {
	return &JobService{jobs: jobs, taskDefs: taskDefs, runtime: runtime, logger: logger.With(slog.String("component", "JobService"))}
}

// SubmitJob persists a new Pending job for taskDefinitionID (spec §4.3
// submit_job).
func (s *JobService) SubmitJob(ctx context.Context, taskDefinitionID int64, jobName string, logExpireAfter *time.Duration) (int64, error) {
	if _, err := s.taskDefs.Get(ctx, taskDefinitionID); err != nil {
		return 0, err
	}

	job := &model.Job{
		Name:             jobName,
		TaskDefinitionID: taskDefinitionID,
		Status:           model.JobPending,
		ContainerType:    model.ContainerTypeDocker,
		LogExpireAfter:   logExpireAfter,
	}
	return s.jobs.Create(ctx, job)
}

// StopJob requests a graceful container stop for jobID (spec §4.3
// stop_job). The tracker loop, not StopJob, reconciles the resulting status.
func (s *JobService) StopJob(ctx context.Context, jobID int64) error {
	job, err := s.jobs.Get(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Status == model.JobFinished {
		return apierr.New(apierr.ErrJobAlreadyFinished, fmt.Sprintf("job %d already finished", jobID), nil)
	}
	if job.Status == model.JobFailed {
		return apierr.New(apierr.ErrJobAlreadyFailed, fmt.Sprintf("job %d already failed", jobID), nil)
	}
	if job.ContainerID == nil {
		return apierr.New(apierr.ErrJobHasNoContainerID, fmt.Sprintf("job %d has no container id", jobID), nil)
	}
	return s.runtime.Stop(ctx, *job.ContainerID, stopGraceTimeout)
}

// RunPendingJob executes the transition protocol of spec §4.3
// run_pending_job. Invoked only by RunnerLoop. On failure at any step the
// error is returned for the caller to mark the job Failed; RunPendingJob
// itself only ever drives the job forward (Pending -> Starting -> Running),
// never to Failed, since repo.JobRepository.Update enforces monotonicity.
func (s *JobService) RunPendingJob(ctx context.Context, job *model.Job) error {
	now := time.Now().UTC()
	startingStatus := model.JobStarting
	startedAtPtr := &now
	if err := s.jobs.Update(ctx, job.ID, repo.JobPatch{Status: &startingStatus, StartedAt: &startedAtPtr}); err != nil {
		return err
	}

	taskDef, err := s.taskDefs.Get(ctx, job.TaskDefinitionID)
	if err != nil {
		return err
	}

	containerID, err := s.runtime.Run(ctx, taskDef)
	if err != nil {
		return err
	}

	runningStatus := model.JobRunning
	containerIDPtr := &containerID
	return s.jobs.Update(ctx, job.ID, repo.JobPatch{Status: &runningStatus, ContainerID: &containerIDPtr})
}

// TrackRunningJob reconciles job against the runtime's reported state,
// applying the precedence of spec §4.3 track_running_job: running wins over
// dead wins over finished_at, per SPEC_FULL.md's Open Question decision
// (spec.md's order is authoritative over original_source's).
func (s *JobService) TrackRunningJob(ctx context.Context, job *model.Job) error {
	if job.ContainerID == nil {
		return apierr.New(apierr.ErrContainerIDNotFound, fmt.Sprintf("job %d has no container id", job.ID), nil)
	}

	inspection, err := s.runtime.Inspect(ctx, *job.ContainerID)
	if err != nil {
		return err
	}
	state := inspection.State

	switch {
	case state.Running:
		return nil
	case state.Dead:
		failedStatus := model.JobFailed
		errMsg := fmt.Sprintf("Container is dead: %s", state.Error)
		errMsgPtr := &errMsg
		return s.jobs.Update(ctx, job.ID, repo.JobPatch{Status: &failedStatus, ErrorMessage: &errMsgPtr})
	case state.FinishedAt != nil:
		finishedStatus := model.JobFinished
		finishedAtPtr := state.FinishedAt
		return s.jobs.Update(ctx, job.ID, repo.JobPatch{
			Status:     &finishedStatus,
			FinishedAt: &finishedAtPtr,
			ExitCode:   &state.ExitCode,
		})
	default:
		return nil
	}
}

// MarkFailed patches job to Failed with errMsg, used by RunnerLoop and
// TrackerLoop's error paths (spec §4.5, §4.6). Errors from this patch are
// logged and swallowed by the caller, not propagated further.
func (s *JobService) MarkFailed(ctx context.Context, jobID int64, errMsg string) error {
	failedStatus := model.JobFailed
	errMsgPtr := &errMsg
	return s.jobs.Update(ctx, jobID, repo.JobPatch{Status: &failedStatus, ErrorMessage: &errMsgPtr})
}

// ListPendingJobs returns up to limit jobs with status Pending, in the
// database's default order (spec §4.5).
func (s *JobService) ListPendingJobs(ctx context.Context, limit int) ([]*model.Job, error) {
	return s.jobs.ListByStatus(ctx, model.JobPending, limit)
}

// ListRunningJobs returns all jobs with status Running (spec §4.6).
func (s *JobService) ListRunningJobs(ctx context.Context) ([]*model.Job, error) {
	return s.jobs.ListByStatus(ctx, model.JobRunning, 0)
}

// ListJobs is the paginated read path backing GET /jobs (spec §4.3, §6).
func (s *JobService) ListJobs(ctx context.Context, filter repo.JobFilter) ([]*model.Job, int64, error) {
	return s.jobs.List(ctx, filter)
}

// LogLine is one record of a job's line-delimited JSON log file.
type LogLine struct {
	Index   int       `json:"index"`
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
}

// rawLogRecord mirrors the runtime's emitted {time, log} line shape.
type rawLogRecord struct {
	Time time.Time `json:"time"`
	Log  string    `json:"log"`
}

// ListJobLogs pages through job's log file starting at offset, returning up
// to limit lines (spec §4.3 list_job_logs). Fails with apierr.ErrJobLogExpired
// if the job's logs have expired; an offset at or beyond the total line
// count returns an empty slice, never an error (spec §8 boundary behavior).
func (s *JobService) ListJobLogs(ctx context.Context, jobID int64, offset, limit int) ([]LogLine, error) {
	job, err := s.jobs.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.LogExpired {
		return nil, apierr.New(apierr.ErrJobLogExpired, fmt.Sprintf("job %d logs have expired", jobID), nil)
	}
	if job.ContainerID == nil {
		return nil, apierr.New(apierr.ErrContainerIDNotFound, fmt.Sprintf("job %d has no container id", jobID), nil)
	}

	inspection, err := s.runtime.Inspect(ctx, *job.ContainerID)
	if err != nil {
		return nil, err
	}

	return readLogLines(inspection.LogPath, offset, limit)
}

// CountJobLogs returns the total number of lines in job's log file (spec
// §4.3 count_job_logs).
func (s *JobService) CountJobLogs(ctx context.Context, jobID int64) (int, error) {
	job, err := s.jobs.Get(ctx, jobID)
	if err != nil {
		return 0, err
	}
	if job.LogExpired {
		return 0, apierr.New(apierr.ErrJobLogExpired, fmt.Sprintf("job %d logs have expired", jobID), nil)
	}
	if job.ContainerID == nil {
		return 0, apierr.New(apierr.ErrContainerIDNotFound, fmt.Sprintf("job %d has no container id", jobID), nil)
	}

	inspection, err := s.runtime.Inspect(ctx, *job.ContainerID)
	if err != nil {
		return 0, err
	}

	lines, err := readLogLines(inspection.LogPath, 0, -1)
	if err != nil {
		return 0, err
	}
	return len(lines), nil
}

func readLogLines(path string, offset, limit int) ([]LogLine, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []LogLine{}, nil
		}
		return nil, apierr.New(apierr.ErrIO, fmt.Sprintf("open log file %s", path), err)
	}
	defer f.Close()

	var out []LogLine
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	index := 0
	for scanner.Scan() {
		if index < offset {
			index++
			continue
		}
		if limit >= 0 && len(out) >= limit {
			break
		}

		var rec rawLogRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			index++
			continue
		}
		out = append(out, LogLine{Index: index, Time: rec.Time, Message: rec.Log})
		index++
	}
	if err := scanner.Err(); err != nil {
		return nil, apierr.New(apierr.ErrIO, fmt.Sprintf("read log file %s", path), err)
	}
	if out == nil {
		out = []LogLine{}
	}
	return out, nil
}
