package forms

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/festahub/festahub/internal/shared"
)

// ErrNotFound indicates the form does not exist or is not visible.
var ErrNotFound = errors.New("forms: not found")

// RepositoryPort defines data access methods for forms.
type RepositoryPort interface {
	Create(ctx context.Context, f *Form) error
	FindByID(ctx context.Context, id string) (*Form, error)
	List(ctx context.Context) ([]Form, error)
	Update(ctx context.Context, f *Form) error
	SoftDelete(ctx context.Context, id string) error
}

// Repository provides PostgreSQL backed persistence. Items are stored as a
// jsonb document alongside the form row.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const formColumns = `id, title, description, starts_at, ends_at, categories, attributes, items, is_draft, created_at, updated_at, deleted_at`

// Create inserts the form.
func (r *Repository) Create(ctx context.Context, f *Form) error {
	items, err := json.Marshal(f.Items)
	if err != nil {
		return err
	}
	return r.pool.QueryRow(ctx, `
		INSERT INTO forms (id, title, description, starts_at, ends_at, categories, attributes, items, is_draft)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`,
		f.ID, f.Title, f.Description, f.Window.StartsAt, f.Window.EndsAt,
		categoryNames(f.Categories), attributeNames(f.Attributes), items, f.IsDraft,
	).Scan(&f.CreatedAt, &f.UpdatedAt)
}

// FindByID fetches a form regardless of soft-delete state.
func (r *Repository) FindByID(ctx context.Context, id string) (*Form, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+formColumns+` FROM forms WHERE id = $1`, id)
	return scanForm(row)
}

// List returns all live forms, newest first.
func (r *Repository) List(ctx context.Context) ([]Form, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+formColumns+` FROM forms WHERE deleted_at IS NULL ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Form
	for rows.Next() {
		f, err := scanForm(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *f)
	}
	return result, rows.Err()
}

// Update rewrites a live form.
func (r *Repository) Update(ctx context.Context, f *Form) error {
	items, err := json.Marshal(f.Items)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE forms
		SET title = $2, description = $3, starts_at = $4, ends_at = $5,
		    categories = $6, attributes = $7, items = $8, is_draft = $9, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`,
		f.ID, f.Title, f.Description, f.Window.StartsAt, f.Window.EndsAt,
		categoryNames(f.Categories), attributeNames(f.Attributes), items, f.IsDraft)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SoftDelete marks the form deleted.
func (r *Repository) SoftDelete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE forms SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
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

func scanForm(row rowScanner) (*Form, error) {
	var (
		f         Form
		catNames  []string
		attrNames []string
		items     []byte
		deleted   *time.Time
	)
	err := row.Scan(&f.ID, &f.Title, &f.Description, &f.Window.StartsAt, &f.Window.EndsAt,
		&catNames, &attrNames, &items, &f.IsDraft, &f.CreatedAt, &f.UpdatedAt, &deleted)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(items, &f.Items); err != nil {
		return nil, err
	}
	cats, err := parseCategoryNames(catNames)
	if err != nil {
		return nil, err
	}
	attrs, err := parseAttributeNames(attrNames)
	if err != nil {
		return nil, err
	}
	f.Categories = cats
	f.Attributes = attrs
	f.DeletedAt = deleted
	return &f, nil
}

func categoryNames(s shared.CategorySet) []string {
	cats := s.Slice()
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = c.String()
	}
	return names
}

func parseCategoryNames(names []string) (shared.CategorySet, error) {
	cats := make([]shared.ProjectCategory, len(names))
	for i, name := range names {
		c, err := shared.ParseProjectCategory(name)
		if err != nil {
			return shared.CategorySet{}, err
		}
		cats[i] = c
	}
	return shared.NewCategorySet(cats...), nil
}

func attributeNames(s shared.AttributeSet) []string {
	attrs := s.Slice()
	names := make([]string, len(attrs))
	for i, a := range attrs {
		names[i] = a.String()
	}
	return names
}

func parseAttributeNames(names []string) (shared.AttributeSet, error) {
	attrs := make([]shared.ProjectAttribute, len(names))
	for i, name := range names {
		a, err := shared.ParseProjectAttribute(name)
		if err != nil {
			return shared.AttributeSet{}, err
		}
		attrs[i] = a
	}
	return shared.NewAttributeSet(attrs...), nil
}

var _ RepositoryPort = (*Repository)(nil)
