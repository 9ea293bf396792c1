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

// SQLiteJobRepository implements JobRepository over a shared *sql.DB.
type SQLiteJobRepository struct {
	db *sql.DB
}

// NewSQLiteJobRepository creates a repository using db.
func NewSQLiteJobRepository(db *sql.DB) *SQLiteJobRepository {
	return &SQLiteJobRepository{db: db}
}

var _ JobRepository = (*SQLiteJobRepository)(nil)

func (r *SQLiteJobRepository) Create(ctx context.Context, job *model.Job) (int64, error) {
	now := time.Now().UTC()
	var logExpireSeconds sql.NullInt64
	if job.LogExpireAfter != nil {
		logExpireSeconds = sql.NullInt64{Int64: int64(job.LogExpireAfter.Seconds()), Valid: true}
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO job
			(name, task_definition_id, status, submited_at, container_type,
			 log_expire_after_s, log_expired, created_at)
		VALUES (?, ?, ?, ?, ?, ?, 0, ?)`,
		job.Name, job.TaskDefinitionID, string(model.JobPending), now.Format(timeLayout),
		string(model.ContainerTypeDocker), logExpireSeconds, now.Format(timeLayout),
	)
	if err != nil {
		return 0, apierr.New(apierr.ErrDatabase, "insert job", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteJobRepository) Get(ctx context.Context, id int64) (*model.Job, error) {
	row := r.db.QueryRowContext(ctx, jobSelectCols+` WHERE id = ?`, id)
	job, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, apierr.New(apierr.ErrJobNotFound, fmt.Sprintf("job %d not found", id), nil)
	}
	if err != nil {
		return nil, apierr.New(apierr.ErrDatabase, "scan job", err)
	}
	return job, nil
}

// Update applies patch to job id. If patch.Status is set, the new status is
// checked against model.CanTransition(current, *patch.Status); an illegal
// transition is rejected without writing (spec §8 property #1).
func (r *SQLiteJobRepository) Update(ctx context.Context, id int64, patch JobPatch) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return apierr.New(apierr.ErrDatabase, "begin transaction", err)
	}
	defer tx.Rollback()

	if patch.Status != nil {
		var currentStatus string
		if err := tx.QueryRowContext(ctx, `SELECT status FROM job WHERE id = ?`, id).Scan(&currentStatus); err != nil {
			if err == sql.ErrNoRows {
				return apierr.New(apierr.ErrJobNotFound, fmt.Sprintf("job %d not found", id), nil)
			}
			return apierr.New(apierr.ErrDatabase, "read current job status", err)
		}
		from := model.JobStatus(currentStatus)
		if !model.CanTransition(from, *patch.Status) {
			switch from {
			case model.JobFinished:
				return apierr.New(apierr.ErrJobAlreadyFinished, fmt.Sprintf("job %d already finished", id), nil)
			case model.JobFailed:
				return apierr.New(apierr.ErrJobAlreadyFailed, fmt.Sprintf("job %d already failed", id), nil)
			default:
				return apierr.New(apierr.ErrDatabase, fmt.Sprintf("illegal job transition %s -> %s", from, *patch.Status), nil)
			}
		}
	}

	sets := make([]string, 0, 7)
	args := make([]any, 0, 8)

	if patch.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*patch.Status))
	}
	if patch.StartedAt != nil {
		sets = append(sets, "started_at = ?")
		args = append(args, toNullString(*patch.StartedAt))
	}
	if patch.FinishedAt != nil {
		sets = append(sets, "finished_at = ?")
		args = append(args, toNullString(*patch.FinishedAt))
	}
	if patch.ContainerID != nil {
		sets = append(sets, "container_id = ?")
		args = append(args, nullString(*patch.ContainerID))
	}
	if patch.ExitCode != nil {
		sets = append(sets, "exit_code = ?")
		args = append(args, nullInt64FromInt(*patch.ExitCode))
	}
	if patch.ErrorMessage != nil {
		sets = append(sets, "error_message = ?")
		args = append(args, nullString(*patch.ErrorMessage))
	}
	if patch.LogExpired != nil {
		sets = append(sets, "log_expired = ?")
		args = append(args, boolToInt(*patch.LogExpired))
	}

	if len(sets) > 0 {
		args = append(args, id)
		res, err := tx.ExecContext(ctx,
			fmt.Sprintf(`UPDATE job SET %s WHERE id = ?`, strings.Join(sets, ", ")), args...)
		if err != nil {
			return apierr.New(apierr.ErrDatabase, "update job", err)
		}
		if err := requireRowAffected(res, apierr.ErrJobNotFound, fmt.Sprintf("job %d not found", id)); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return apierr.New(apierr.ErrDatabase, "commit transaction", err)
	}
	return nil
}

func (r *SQLiteJobRepository) ListByStatus(ctx context.Context, status model.JobStatus, limit int) ([]*model.Job, error) {
	// SQLite treats LIMIT 0 as "zero rows", not "unlimited" — only a
	// negative limit means unbounded, so a caller-supplied limit <= 0
	// (the "fetch all" case) must be translated to -1.
	sqlLimit := limit
	if sqlLimit <= 0 {
		sqlLimit = -1
	}
	rows, err := r.db.QueryContext(ctx,
		jobSelectCols+` WHERE status = ? ORDER BY id ASC LIMIT ?`, string(status), sqlLimit)
	if err != nil {
		return nil, apierr.New(apierr.ErrDatabase, "list jobs by status", err)
	}
	defer rows.Close()
	return scanJobRows(rows)
}

func (r *SQLiteJobRepository) List(ctx context.Context, filter JobFilter) ([]*model.Job, int64, error) {
	where := make([]string, 0, 4)
	args := make([]any, 0, 4)

	if filter.JobID != nil {
		where = append(where, "id = ?")
		args = append(args, *filter.JobID)
	}
	if filter.Status != nil {
		where = append(where, "status = ?")
		args = append(args, string(*filter.Status))
	}
	if filter.ContainsName != nil {
		where = append(where, "name LIKE ?")
		args = append(args, "%"+*filter.ContainsName+"%")
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM job"+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, apierr.New(apierr.ErrDatabase, "count jobs", err)
	}

	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	pageNumber := filter.PageNumber
	if pageNumber <= 0 {
		pageNumber = 1
	}
	offset := (pageNumber - 1) * pageSize

	queryArgs := append(append([]any{}, args...), pageSize, offset)
	rows, err := r.db.QueryContext(ctx,
		jobSelectCols+whereClause+" ORDER BY id DESC LIMIT ? OFFSET ?", queryArgs...)
	if err != nil {
		return nil, 0, apierr.New(apierr.ErrDatabase, "list jobs", err)
	}
	defer rows.Close()

	jobs, err := scanJobRows(rows)
	if err != nil {
		return nil, 0, err
	}
	return jobs, total, nil
}

const jobSelectCols = `
	SELECT id, name, task_definition_id, status, submited_at, started_at, finished_at,
	       container_type, container_id, exit_code, error_message,
	       log_expire_after_s, log_expired, created_at
	FROM job`

func scanJob(s rowScanner) (*model.Job, error) {
	var (
		j                model.Job
		status           string
		submitedAtStr    string
		startedAt        sql.NullString
		finishedAt       sql.NullString
		containerType    string
		containerID      sql.NullString
		exitCode         sql.NullInt64
		errorMessage     sql.NullString
		logExpireSeconds sql.NullInt64
		logExpired       int64
		createdAtStr     string
	)
	if err := s.Scan(
		&j.ID, &j.Name, &j.TaskDefinitionID, &status, &submitedAtStr, &startedAt, &finishedAt,
		&containerType, &containerID, &exitCode, &errorMessage,
		&logExpireSeconds, &logExpired, &createdAtStr,
	); err != nil {
		return nil, err
	}

	j.Status = model.JobStatus(status)
	j.ContainerType = model.ContainerType(containerType)
	j.ContainerID = stringPtrFromNull(containerID)
	j.ExitCode = intPtrFromNull(exitCode)
	j.ErrorMessage = stringPtrFromNull(errorMessage)
	j.LogExpired = intToBool(logExpired)

	submitedAt, err := time.Parse(timeLayout, submitedAtStr)
	if err != nil {
		return nil, err
	}
	j.SubmitedAt = submitedAt

	createdAt, err := time.Parse(timeLayout, createdAtStr)
	if err != nil {
		return nil, err
	}
	j.CreatedAt = createdAt

	if j.StartedAt, err = fromNullString(startedAt); err != nil {
		return nil, err
	}
	if j.FinishedAt, err = fromNullString(finishedAt); err != nil {
		return nil, err
	}

	if logExpireSeconds.Valid {
		d := time.Duration(logExpireSeconds.Int64) * time.Second
		j.LogExpireAfter = &d
	}

	return &j, nil
}

func scanJobRows(rows *sql.Rows) ([]*model.Job, error) {
	var out []*model.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, apierr.New(apierr.ErrDatabase, "scan job", err)
		}
		out = append(out, job)
	}
	if err := rows.Err(); err != nil {
		return nil, apierr.New(apierr.ErrDatabase, "iterate jobs", err)
	}
	return out, nil
}
