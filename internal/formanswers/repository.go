package formanswers

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/festahub/festahub/internal/forms"
	"github.com/festahub/festahub/internal/shared"
)

// ErrNotFound indicates the submission does not exist or is not visible.
var ErrNotFound = errors.New("formanswers: not found")

// ErrAlreadyAnswered rejects a second submission for the same form.
var ErrAlreadyAnswered = errors.New("formanswers: form already answered")

// RepositoryPort defines data access methods for form submissions.
type RepositoryPort interface {
	Create(ctx context.Context, a *FormAnswer) error
	FindByID(ctx context.Context, id string) (*FormAnswer, error)
	FindByFormAndProject(ctx context.Context, formID, projectID string) (*FormAnswer, error)
	ListByForm(ctx context.Context, formID string) ([]FormAnswer, error)
	Update(ctx context.Context, id string, items []forms.AnswerValue) error
}

// Repository provides PostgreSQL backed persistence. Items are stored as a
// jsonb document.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const answerColumns = `id, project_id, form_id, items, created_at, updated_at`

// Create inserts the submission. A unique constraint on (form_id,
// project_id) enforces one submission per project.
func (r *Repository) Create(ctx context.Context, a *FormAnswer) error {
	items, err := json.Marshal(a.Items)
	if err != nil {
		return err
	}
	err = r.pool.QueryRow(ctx, `
		INSERT INTO form_answers (id, project_id, form_id, items)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`,
		a.ID, a.ProjectID, a.FormID, items,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if shared.IsUniqueViolation(err) {
			return ErrAlreadyAnswered
		}
		return err
	}
	return nil
}

// FindByID fetches a submission.
func (r *Repository) FindByID(ctx context.Context, id string) (*FormAnswer, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+answerColumns+` FROM form_answers WHERE id = $1`, id)
	return scanAnswer(row)
}

// FindByFormAndProject fetches a project's submission to a form.
func (r *Repository) FindByFormAndProject(ctx context.Context, formID, projectID string) (*FormAnswer, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+answerColumns+` FROM form_answers WHERE form_id = $1 AND project_id = $2`, formID, projectID)
	return scanAnswer(row)
}

// ListByForm returns all submissions to a form.
func (r *Repository) ListByForm(ctx context.Context, formID string) ([]FormAnswer, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+answerColumns+` FROM form_answers WHERE form_id = $1 ORDER BY created_at, id`, formID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []FormAnswer
	for rows.Next() {
		a, err := scanAnswer(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	return result, rows.Err()
}

// Update overwrites the submitted items.
func (r *Repository) Update(ctx context.Context, id string, values []forms.AnswerValue) error {
	items, err := json.Marshal(values)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, `UPDATE form_answers SET items = $2, updated_at = NOW() WHERE id = $1`, id, items)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnswer(row rowScanner) (*FormAnswer, error) {
	var (
		a     FormAnswer
		items []byte
	)
	if err := row.Scan(&a.ID, &a.ProjectID, &a.FormID, &items, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(items, &a.Items); err != nil {
		return nil, err
	}
	return &a, nil
}

var _ RepositoryPort = (*Repository)(nil)
