package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/myyrakle/batchman/internal/cdc"
	"github.com/myyrakle/batchman/internal/cronspec"
	"github.com/myyrakle/batchman/internal/model"
	"github.com/myyrakle/batchman/internal/repo"
)

// ScheduleService validates and mutates schedules, emitting CDC events so
// SchedulerLoop's working set stays coherent (spec §4.4).
type ScheduleService struct {
	schedules repo.ScheduleRepository
	taskDefs  repo.TaskDefinitionRepository
	bus       *cdc.Bus
	logger    *slog.Logger
}

// NewScheduleService constructs a ScheduleService from its capability
// handles.
func NewScheduleService(schedules repo.ScheduleRepository, taskDefs repo.TaskDefinitionRepository, bus *cdc.Bus, logger *slog.Logger) *ScheduleService {
	return &ScheduleService{schedules: schedules, taskDefs: taskDefs, bus: bus, logger: logger.With(slog.String("component", "ScheduleService"))}
}

// CreateSchedule parses+validates the cron expression, verifies the task
// definition exists, inserts the row, and emits a cdc.Insert event (spec §4.4
// create_schedule).
func (s *ScheduleService) CreateSchedule(ctx context.Context, sched *model.Schedule) (int64, error) {
	if _, err := cronspec.Parse(sched.CronExpression); err != nil {
		return 0, err
	}
	if _, err := s.taskDefs.Get(ctx, sched.TaskDefinitionID); err != nil {
		return 0, err
	}

	id, err := s.schedules.Create(ctx, sched)
	if err != nil {
		return 0, err
	}
	s.bus.Publish(cdc.Insert, id)
	return id, nil
}

// SchedulePatchInput carries the PATCH /schedules/{id} body (spec §6). A nil
// field leaves the column unchanged.
type SchedulePatchInput struct {
	Name                  *string
	JobName               *string
	CronExpression        *string
	TaskDefinitionID      *int64
	Command               *string
	Timezone              *string
	TimezoneOffsetMinutes *int
	Enabled               *bool
}

// PatchSchedule applies a partial update, parsing+validating CronExpression
// if provided (spec §8 property #5: an invalid patch leaves the row
// unchanged — validation happens before any write), and emits CDC::Update.
func (s *ScheduleService) PatchSchedule(ctx context.Context, id int64, in SchedulePatchInput) error {
	if in.CronExpression != nil {
		if _, err := cronspec.Parse(*in.CronExpression); err != nil {
			return err
		}
	}
	if _, err := s.schedules.Get(ctx, id); err != nil {
		return err
	}

	patch := repo.SchedulePatch{
		Name:                  in.Name,
		JobName:               in.JobName,
		CronExpression:        in.CronExpression,
		TaskDefinitionID:      in.TaskDefinitionID,
		Command:               in.Command,
		Timezone:              in.Timezone,
		TimezoneOffsetMinutes: in.TimezoneOffsetMinutes,
		Enabled:               in.Enabled,
	}
	if err := s.schedules.Update(ctx, id, patch); err != nil {
		return err
	}
	s.bus.Publish(cdc.Update, id)
	return nil
}

// DeleteSchedule removes the row and emits CDC::Delete (spec §4.4
// delete_schedule).
func (s *ScheduleService) DeleteSchedule(ctx context.Context, id int64) error {
	if err := s.schedules.Delete(ctx, id); err != nil {
		return err
	}
	s.bus.Publish(cdc.Delete, id)
	return nil
}

// ListSchedules is a pass-through to the repository (spec §4.4
// list_schedules).
func (s *ScheduleService) ListSchedules(ctx context.Context, filter repo.ScheduleFilter) ([]*model.Schedule, error) {
	return s.schedules.List(ctx, filter)
}

// MarkTriggered stamps schedule id's last_triggered_at, used by
// SchedulerLoop after a successful submit (spec §4.7 step 5). This does not
// emit a CDC event: the scheduler already holds the authoritative in-memory
// copy it just updated and a self-triggered reload would be redundant.
func (s *ScheduleService) MarkTriggered(ctx context.Context, id int64, at time.Time) error {
	atPtr := &at
	return s.schedules.Update(ctx, id, repo.SchedulePatch{LastTriggeredAt: &atPtr})
}
