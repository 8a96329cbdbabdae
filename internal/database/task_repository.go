package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/therealutkarshpriyadarshi/tasktracker/internal/errs"
	"github.com/therealutkarshpriyadarshi/tasktracker/pkg/models"
)

const taskColumns = `id, owner_id, title, description, status, created_at, updated_at`

// TaskRepository stores tasks in PostgreSQL
type TaskRepository struct {
	db *DB
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create inserts a task and fills in its ID and timestamps
func (r *TaskRepository) Create(ctx context.Context, t *models.Task) (err error) {
	defer track("task_insert", &err)()

	query := `
		INSERT INTO tasks (owner_id, title, description, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`

	err = r.db.Pool.QueryRow(ctx, query, t.OwnerID, t.Title, t.Description, t.Status).
		Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	return nil
}

// Get retrieves a task by ID regardless of owner
func (r *TaskRepository) Get(ctx context.Context, id int64) (t *models.Task, err error) {
	defer track("task_get", &err)()

	t, err = scanTask(r.db.Pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return t, nil
}

// List returns one page of tasks matching filter, ordered by ID, plus the
// total number of matches.
func (r *TaskRepository) List(ctx context.Context, filter models.TaskFilter, limit, offset int) (tasks []*models.Task, total int, err error) {
	defer track("task_list", &err)()

	where, args := taskWhere(filter)

	if err = r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM tasks`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count tasks: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM tasks%s ORDER BY id LIMIT $%d OFFSET $%d`,
		taskColumns, where, len(args)+1, len(args)+2)

	rows, err := r.db.Pool.Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	tasks = make([]*models.Task, 0, limit)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate tasks: %w", err)
	}

	return tasks, total, nil
}

// Update overwrites the mutable fields of t and refreshes UpdatedAt
func (r *TaskRepository) Update(ctx context.Context, t *models.Task) (err error) {
	defer track("task_update", &err)()

	query := `
		UPDATE tasks
		SET title = $2, description = $3, status = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err = r.db.Pool.QueryRow(ctx, query, t.ID, t.Title, t.Description, t.Status).Scan(&t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return errs.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	return nil
}

// Delete removes a task
func (r *TaskRepository) Delete(ctx context.Context, id int64) (err error) {
	defer track("task_delete", &err)()

	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func taskWhere(filter models.TaskFilter) (string, []any) {
	var (
		clauses []string
		args    []any
	)

	if !filter.AllOwners {
		args = append(args, filter.OwnerID)
		clauses = append(clauses, fmt.Sprintf("owner_id = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(args)))
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func scanTask(row pgx.Row) (*models.Task, error) {
	var t models.Task
	err := row.Scan(&t.ID, &t.OwnerID, &t.Title, &t.Description, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
