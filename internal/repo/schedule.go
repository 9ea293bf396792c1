package repo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/myyrakle/batchman/internal/apierr"
	"github.com/myyrakle/batchman/internal/model"
)

// SQLiteScheduleRepository implements ScheduleRepository over a shared
// *sql.DB.
type SQLiteScheduleRepository struct {
	db *sql.DB
}

// NewSQLiteScheduleRepository creates a repository using db.
func NewSQLiteScheduleRepository(db *sql.DB) *SQLiteScheduleRepository {
	return &SQLiteScheduleRepository{db: db}
}

var _ ScheduleRepository = (*SQLiteScheduleRepository)(nil)

func (r *SQLiteScheduleRepository) Create(ctx context.Context, sched *model.Schedule) (int64, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO schedule
			(name, job_name, cron_expression, task_definition_id, command,
			 timezone, timezone_offset_minutes, enabled, created_at, last_triggered_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)`,
		sched.Name, sched.JobName, sched.CronExpression, sched.TaskDefinitionID, sched.Command,
		sched.Timezone, sched.TimezoneOffsetMinutes, boolToInt(sched.Enabled), now.Format(timeLayout),
	)
	if err != nil {
		return 0, apierr.New(apierr.ErrDatabase, "insert schedule", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteScheduleRepository) Get(ctx context.Context, id int64) (*model.Schedule, error) {
	row := r.db.QueryRowContext(ctx, scheduleSelectCols+` WHERE id = ?`, id)
	sched, err := scanSchedule(row)
	if err == sql.ErrNoRows {
		return nil, apierr.New(apierr.ErrScheduleNotFound, fmt.Sprintf("schedule %d not found", id), nil)
	}
	if err != nil {
		return nil, apierr.New(apierr.ErrDatabase, "scan schedule", err)
	}
	return sched, nil
}

func (r *SQLiteScheduleRepository) Update(ctx context.Context, id int64, patch SchedulePatch) error {
	sets := make([]string, 0, 8)
	args := make([]any, 0, 9)

	if patch.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *patch.Name)
	}
	if patch.JobName != nil {
		sets = append(sets, "job_name = ?")
		args = append(args, *patch.JobName)
	}
	if patch.CronExpression != nil {
		sets = append(sets, "cron_expression = ?")
		args = append(args, *patch.CronExpression)
	}
	if patch.TaskDefinitionID != nil {
		sets = append(sets, "task_definition_id = ?")
		args = append(args, *patch.TaskDefinitionID)
	}
	if patch.Command != nil {
		sets = append(sets, "command = ?")
		args = append(args, *patch.Command)
	}
	if patch.Timezone != nil {
		sets = append(sets, "timezone = ?")
		args = append(args, *patch.Timezone)
	}
	if patch.TimezoneOffsetMinutes != nil {
		sets = append(sets, "timezone_offset_minutes = ?")
		args = append(args, *patch.TimezoneOffsetMinutes)
	}
	if patch.Enabled != nil {
		sets = append(sets, "enabled = ?")
		args = append(args, boolToInt(*patch.Enabled))
	}
	if patch.LastTriggeredAt != nil {
		sets = append(sets, "last_triggered_at = ?")
		args = append(args, toNullString(*patch.LastTriggeredAt))
	}
	if len(sets) == 0 {
		return nil
	}

	args = append(args, id)
	res, err := r.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE schedule SET %s WHERE id = ?`, strings.Join(sets, ", ")), args...)
	if err != nil {
		return apierr.New(apierr.ErrDatabase, "update schedule", err)
	}
	return requireRowAffected(res, apierr.ErrScheduleNotFound, fmt.Sprintf("schedule %d not found", id))
}

func (r *SQLiteScheduleRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM schedule WHERE id = ?`, id)
	if err != nil {
		return apierr.New(apierr.ErrDatabase, "delete schedule", err)
	}
	return requireRowAffected(res, apierr.ErrScheduleNotFound, fmt.Sprintf("schedule %d not found", id))
}

func (r *SQLiteScheduleRepository) List(ctx context.Context, filter ScheduleFilter) ([]*model.Schedule, error) {
	where := make([]string, 0, 4)
	args := make([]any, 0, 4)

	if filter.ScheduleID != nil {
		where = append(where, "id = ?")
		args = append(args, *filter.ScheduleID)
	}
	if filter.Name != nil {
		where = append(where, "name = ?")
		args = append(args, *filter.Name)
	}
	if filter.ContainsName != nil {
		where = append(where, "name LIKE ?")
		args = append(args, "%"+*filter.ContainsName+"%")
	}
	if filter.Enabled != nil {
		where = append(where, "enabled = ?")
		args = append(args, boolToInt(*filter.Enabled))
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = " WHERE " + strings.Join(where, " AND ")
	}

	rows, err := r.db.QueryContext(ctx, scheduleSelectCols+whereClause+" ORDER BY id ASC", args...)
	if err != nil {
		return nil, apierr.New(apierr.ErrDatabase, "list schedules", err)
	}
	defer rows.Close()
	return scanScheduleRows(rows)
}

func (r *SQLiteScheduleRepository) ListAll(ctx context.Context) ([]*model.Schedule, error) {
	rows, err := r.db.QueryContext(ctx, scheduleSelectCols+" ORDER BY id ASC")
	if err != nil {
		return nil, apierr.New(apierr.ErrDatabase, "list all schedules", err)
	}
	defer rows.Close()
	return scanScheduleRows(rows)
}

const scheduleSelectCols = `
	SELECT id, name, job_name, cron_expression, task_definition_id, command,
	       timezone, timezone_offset_minutes, enabled, created_at, last_triggered_at
	FROM schedule`

func scanSchedule(s rowScanner) (*model.Schedule, error) {
	var (
		sched           model.Schedule
		enabled         int64
		createdAtStr    string
		lastTriggeredAt sql.NullString
	)
	if err := s.Scan(
		&sched.ID, &sched.Name, &sched.JobName, &sched.CronExpression, &sched.TaskDefinitionID, &sched.Command,
		&sched.Timezone, &sched.TimezoneOffsetMinutes, &enabled, &createdAtStr, &lastTriggeredAt,
	); err != nil {
		return nil, err
	}

	sched.Enabled = intToBool(enabled)

	createdAt, err := time.Parse(timeLayout, createdAtStr)
	if err != nil {
		return nil, err
	}
	sched.CreatedAt = createdAt

	if sched.LastTriggeredAt, err = fromNullString(lastTriggeredAt); err != nil {
		return nil, err
	}

	return &sched, nil
}

func scanScheduleRows(rows *sql.Rows) ([]*model.Schedule, error) {
	var out []*model.Schedule
	for rows.Next() {
		sched, err := scanSchedule(rows)
		if err != nil {
			return nil, apierr.New(apierr.ErrDatabase, "scan schedule", err)
		}
		out = append(out, sched)
	}
	if err := rows.Err(); err != nil {
		return nil, apierr.New(apierr.ErrDatabase, "iterate schedules", err)
	}
	return out, nil
}
