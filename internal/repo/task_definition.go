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

// SQLiteTaskDefinitionRepository implements TaskDefinitionRepository over a
// shared *sql.DB.
type SQLiteTaskDefinitionRepository struct {
	db *sql.DB
}

// NewSQLiteTaskDefinitionRepository creates a repository using db.
func NewSQLiteTaskDefinitionRepository(db *sql.DB) *SQLiteTaskDefinitionRepository {
	return &SQLiteTaskDefinitionRepository{db: db}
}

var _ TaskDefinitionRepository = (*SQLiteTaskDefinitionRepository)(nil)

// Create inserts the next version of task.Name inside a transaction: reads
// the current max version, flips any existing is_latest row for the name to
// false, then inserts the new row as is_latest=true (spec §3 invariant).
func (r *SQLiteTaskDefinitionRepository) Create(ctx context.Context, task *model.TaskDefinition) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, apierr.New(apierr.ErrDatabase, "begin transaction", err)
	}
	defer tx.Rollback()

	var maxVersion sql.NullInt64
	if err := tx.QueryRowContext(ctx,
		`SELECT MAX(version) FROM task_definition WHERE name = ?`, task.Name,
	).Scan(&maxVersion); err != nil {
		return 0, apierr.New(apierr.ErrDatabase, "query max version", err)
	}
	nextVersion := int64(1)
	if maxVersion.Valid {
		nextVersion = maxVersion.Int64 + 1
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE task_definition SET is_latest = 0 WHERE name = ? AND is_latest = 1`, task.Name,
	); err != nil {
		return 0, apierr.New(apierr.ErrDatabase, "flip predecessor is_latest", err)
	}

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx, `
		INSERT INTO task_definition
			(name, version, description, image, command, args, env,
			 memory_limit_mb, cpu_shares, enabled, is_latest, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?)`,
		task.Name, nextVersion, task.Description, task.Image,
		strings.Join(task.Command, ","), task.Args, task.Env,
		nullInt64FromInt(task.MemoryLimitMB), nullInt64FromInt(task.CPUShares),
		boolToInt(task.Enabled), now.Format(timeLayout),
	)
	if err != nil {
		return 0, apierr.New(apierr.ErrDatabase, "insert task definition", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, apierr.New(apierr.ErrDatabase, "read inserted id", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, apierr.New(apierr.ErrDatabase, "commit transaction", err)
	}
	return id, nil
}

func (r *SQLiteTaskDefinitionRepository) Get(ctx context.Context, id int64) (*model.TaskDefinition, error) {
	row := r.db.QueryRowContext(ctx, taskDefinitionSelectCols+` WHERE id = ?`, id)
	task, err := scanTaskDefinition(row)
	if err == sql.ErrNoRows {
		return nil, apierr.New(apierr.ErrTaskDefinitionNotFound, fmt.Sprintf("task definition %d not found", id), nil)
	}
	if err != nil {
		return nil, apierr.New(apierr.ErrDatabase, "scan task definition", err)
	}
	return task, nil
}

func (r *SQLiteTaskDefinitionRepository) GetLatest(ctx context.Context, name string) (*model.TaskDefinition, error) {
	row := r.db.QueryRowContext(ctx, taskDefinitionSelectCols+` WHERE name = ? AND is_latest = 1`, name)
	task, err := scanTaskDefinition(row)
	if err == sql.ErrNoRows {
		return nil, apierr.New(apierr.ErrTaskDefinitionNotFound, fmt.Sprintf("task definition %q not found", name), nil)
	}
	if err != nil {
		return nil, apierr.New(apierr.ErrDatabase, "scan task definition", err)
	}
	return task, nil
}

func (r *SQLiteTaskDefinitionRepository) Update(ctx context.Context, id int64, patch TaskDefinitionPatch) error {
	sets := make([]string, 0, 8)
	args := make([]any, 0, 9)

	if patch.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *patch.Description)
	}
	if patch.Image != nil {
		sets = append(sets, "image = ?")
		args = append(args, *patch.Image)
	}
	if patch.Command != nil {
		sets = append(sets, "command = ?")
		args = append(args, strings.Join(*patch.Command, ","))
	}
	if patch.Args != nil {
		sets = append(sets, "args = ?")
		args = append(args, *patch.Args)
	}
	if patch.Env != nil {
		sets = append(sets, "env = ?")
		args = append(args, *patch.Env)
	}
	if patch.MemoryLimitMB != nil {
		sets = append(sets, "memory_limit_mb = ?")
		args = append(args, nullInt64FromInt(*patch.MemoryLimitMB))
	}
	if patch.CPUShares != nil {
		sets = append(sets, "cpu_shares = ?")
		args = append(args, nullInt64FromInt(*patch.CPUShares))
	}
	if patch.Enabled != nil {
		sets = append(sets, "enabled = ?")
		args = append(args, boolToInt(*patch.Enabled))
	}
	if len(sets) == 0 {
		return nil
	}

	args = append(args, id)
	res, err := r.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE task_definition SET %s WHERE id = ?`, strings.Join(sets, ", ")), args...)
	if err != nil {
		return apierr.New(apierr.ErrDatabase, "update task definition", err)
	}
	return requireRowAffected(res, apierr.ErrTaskDefinitionNotFound, fmt.Sprintf("task definition %d not found", id))
}

func (r *SQLiteTaskDefinitionRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM task_definition WHERE id = ?`, id)
	if err != nil {
		return apierr.New(apierr.ErrDatabase, "delete task definition", err)
	}
	return requireRowAffected(res, apierr.ErrTaskDefinitionNotFound, fmt.Sprintf("task definition %d not found", id))
}

func (r *SQLiteTaskDefinitionRepository) List(ctx context.Context, filter TaskDefinitionFilter) ([]*model.TaskDefinition, int64, error) {
	where := make([]string, 0, 4)
	args := make([]any, 0, 4)

	if filter.TaskDefinitionID != nil {
		where = append(where, "id = ?")
		args = append(args, *filter.TaskDefinitionID)
	}
	if filter.Name != nil {
		where = append(where, "name = ?")
		args = append(args, *filter.Name)
	}
	if filter.ContainsName != nil {
		where = append(where, "name LIKE ?")
		args = append(args, "%"+*filter.ContainsName+"%")
	}
	if filter.IsLatestOnly {
		where = append(where, "is_latest = 1")
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM task_definition"+whereClause, args...,
	).Scan(&total); err != nil {
		return nil, 0, apierr.New(apierr.ErrDatabase, "count task definitions", err)
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
		taskDefinitionSelectCols+whereClause+" ORDER BY id ASC LIMIT ? OFFSET ?", queryArgs...)
	if err != nil {
		return nil, 0, apierr.New(apierr.ErrDatabase, "list task definitions", err)
	}
	defer rows.Close()

	var out []*model.TaskDefinition
	for rows.Next() {
		task, err := scanTaskDefinition(rows)
		if err != nil {
			return nil, 0, apierr.New(apierr.ErrDatabase, "scan task definition", err)
		}
		out = append(out, task)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apierr.New(apierr.ErrDatabase, "iterate task definitions", err)
	}
	return out, total, nil
}

const taskDefinitionSelectCols = `
	SELECT id, name, version, description, image, command, args, env,
	       memory_limit_mb, cpu_shares, enabled, is_latest, created_at
	FROM task_definition`

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTaskDefinition(s rowScanner) (*model.TaskDefinition, error) {
	var (
		t            model.TaskDefinition
		command      string
		memoryLimit  sql.NullInt64
		cpuShares    sql.NullInt64
		enabled      int64
		isLatest     int64
		createdAtStr string
	)
	if err := s.Scan(
		&t.ID, &t.Name, &t.Version, &t.Description, &t.Image, &command, &t.Args, &t.Env,
		&memoryLimit, &cpuShares, &enabled, &isLatest, &createdAtStr,
	); err != nil {
		return nil, err
	}

	t.Command = splitCSV(command)
	t.MemoryLimitMB = intPtrFromNull(memoryLimit)
	t.CPUShares = intPtrFromNull(cpuShares)
	t.Enabled = intToBool(enabled)
	t.IsLatest = intToBool(isLatest)

	createdAt, err := time.Parse(timeLayout, createdAtStr)
	if err != nil {
		return nil, err
	}
	t.CreatedAt = createdAt

	return &t, nil
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

func requireRowAffected(res sql.Result, sentinel error, detail string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return apierr.New(apierr.ErrDatabase, "read rows affected", err)
	}
	if n == 0 {
		return apierr.New(sentinel, detail, nil)
	}
	return nil
}
