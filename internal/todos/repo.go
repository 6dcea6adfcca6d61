package todos

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/odyssey-erp/odyssey-todo/internal/platform/db"
	"github.com/odyssey-erp/odyssey-todo/internal/shared"
)

// Repository defines persistence operations for todos. Every method is
// scoped to an owner; rows belonging to someone else behave as absent.
type Repository interface {
	Create(ctx context.Context, ownerID uuid.UUID, in CreateInput) (Todo, error)
	List(ctx context.Context, ownerID uuid.UUID) ([]Todo, error)
	Get(ctx context.Context, ownerID, id uuid.UUID) (Todo, error)
	Update(ctx context.Context, ownerID, id uuid.UUID, in UpdateInput) (Todo, error)
	SetCompletion(ctx context.Context, ownerID, id uuid.UUID, completed bool) (Todo, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) (bool, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	db db.DBTX
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(conn db.DBTX) *PGRepository {
	return &PGRepository{db: conn}
}

const (
	todoColumns = `id, user_id, title, description, completed, created_at, updated_at`
	// ownedBy is the one predicate every single-row statement uses: $1 is the
	// todo id, $2 the owner.
	ownedBy = `id = $1 AND user_id = $2`
)

// Create inserts a todo stamped with ownerID.
func (r *PGRepository) Create(ctx context.Context, ownerID uuid.UUID, in CreateInput) (Todo, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO todos (id, user_id, title, description, completed)
VALUES ($1, $2, $3, $4, $5)
RETURNING `+todoColumns, uuid.New(), ownerID, in.Title, in.Description, in.Completed)
	todo, err := scanTodo(row)
	if err != nil {
		return Todo{}, fmt.Errorf("todos: create: %w", err)
	}
	return todo, nil
}

// List returns the owner's todos in insertion order.
func (r *PGRepository) List(ctx context.Context, ownerID uuid.UUID) ([]Todo, error) {
	rows, err := r.db.Query(ctx, `SELECT `+todoColumns+` FROM todos WHERE user_id = $1 ORDER BY created_at, id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("todos: list: %w", err)
	}
	defer rows.Close()

	items := make([]Todo, 0)
	for rows.Next() {
		todo, err := scanTodo(rows)
		if err != nil {
			return nil, fmt.Errorf("todos: list scan: %w", err)
		}
		items = append(items, todo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("todos: list: %w", err)
	}
	return items, nil
}

// Get fetches one todo by id and owner.
func (r *PGRepository) Get(ctx context.Context, ownerID, id uuid.UUID) (Todo, error) {
	row := r.db.QueryRow(ctx, `SELECT `+todoColumns+` FROM todos WHERE `+ownedBy, id, ownerID)
	return scanOwned(row, "get")
}

// Update applies the fields present in in. A set but nil description is
// stored as NULL.
func (r *PGRepository) Update(ctx context.Context, ownerID, id uuid.UUID, in UpdateInput) (Todo, error) {
	row := r.db.QueryRow(ctx, `UPDATE todos SET
	title = COALESCE($3::text, title),
	description = CASE WHEN $6::boolean THEN $4::text ELSE description END,
	completed = COALESCE($5::boolean, completed),
	updated_at = NOW()
WHERE `+ownedBy+`
RETURNING `+todoColumns, id, ownerID, in.Title, in.Description, in.Completed, in.DescriptionSet)
	return scanOwned(row, "update")
}

// SetCompletion changes only the completed flag.
func (r *PGRepository) SetCompletion(ctx context.Context, ownerID, id uuid.UUID, completed bool) (Todo, error) {
	row := r.db.QueryRow(ctx, `UPDATE todos SET completed = $3, updated_at = NOW()
WHERE `+ownedBy+`
RETURNING `+todoColumns, id, ownerID, completed)
	return scanOwned(row, "set completion")
}

// Delete removes a todo and reports whether a row was affected.
func (r *PGRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM todos WHERE `+ownedBy, id, ownerID)
	if err != nil {
		return false, fmt.Errorf("todos: delete: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func scanOwned(row pgx.Row, op string) (Todo, error) {
	todo, err := scanTodo(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Todo{}, shared.ErrNotFound
		}
		return Todo{}, fmt.Errorf("todos: %s: %w", op, err)
	}
	return todo, nil
}

func scanTodo(row pgx.Row) (Todo, error) {
	var t Todo
	err := row.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &t.Completed, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

var _ Repository = (*PGRepository)(nil)
