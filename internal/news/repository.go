package news

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/festahub/festahub/internal/shared"
)

// ErrNotFound indicates the announcement does not exist or is not visible.
var ErrNotFound = errors.New("news: not found")

// RepositoryPort defines data access methods for announcements.
type RepositoryPort interface {
	Create(ctx context.Context, n *News) error
	FindByID(ctx context.Context, id string) (*News, error)
	List(ctx context.Context) ([]News, error)
	Update(ctx context.Context, n *News) error
	SoftDelete(ctx context.Context, id string) error
	ListDue(ctx context.Context, now time.Time) ([]News, error)
	MarkPublished(ctx context.Context, id string, at time.Time) error
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const newsColumns = `id, state, title, body, attachments, categories, attributes, publish_at, created_at, updated_at, deleted_at`

// Create inserts the announcement.
func (r *Repository) Create(ctx context.Context, n *News) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO news (id, state, title, body, attachments, categories, attributes, publish_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`,
		n.ID, n.State.String(), n.Title, n.Body, n.Attachments, categoryNames(n.Categories), attributeNames(n.Attributes), n.PublishAt,
	).Scan(&n.CreatedAt, &n.UpdatedAt)
}

// FindByID fetches an announcement regardless of soft-delete state.
func (r *Repository) FindByID(ctx context.Context, id string) (*News, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+newsColumns+` FROM news WHERE id = $1`, id)
	return scanNews(row)
}

// List returns all live announcements, newest first.
func (r *Repository) List(ctx context.Context) ([]News, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+newsColumns+` FROM news WHERE deleted_at IS NULL ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectNews(rows)
}

// Update rewrites the mutable fields of a live announcement.
func (r *Repository) Update(ctx context.Context, n *News) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE news
		SET state = $2, title = $3, body = $4, attachments = $5, categories = $6, attributes = $7, publish_at = $8, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`,
		n.ID, n.State.String(), n.Title, n.Body, n.Attachments, categoryNames(n.Categories), attributeNames(n.Attributes), n.PublishAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SoftDelete marks the announcement deleted.
func (r *Repository) SoftDelete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE news SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListDue returns scheduled announcements whose publish time has passed.
func (r *Repository) ListDue(ctx context.Context, now time.Time) ([]News, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+newsColumns+` FROM news
		WHERE deleted_at IS NULL AND state = 'scheduled' AND publish_at <= $1
		ORDER BY publish_at`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectNews(rows)
}

// MarkPublished flips a scheduled announcement to published.
func (r *Repository) MarkPublished(ctx context.Context, id string, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE news SET state = 'published', publish_at = $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL AND state = 'scheduled'`, id, at)
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

func scanNews(row rowScanner) (*News, error) {
	var (
		n         News
		stateStr  string
		catNames  []string
		attrNames []string
		publishAt *time.Time
		deleted   *time.Time
	)
	err := row.Scan(&n.ID, &stateStr, &n.Title, &n.Body, &n.Attachments, &catNames, &attrNames, &publishAt, &n.CreatedAt, &n.UpdatedAt, &deleted)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	state, err := ParseState(stateStr)
	if err != nil {
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
	n.State = state
	n.Categories = cats
	n.Attributes = attrs
	n.PublishAt = publishAt
	n.DeletedAt = deleted
	return &n, nil
}

func collectNews(rows pgx.Rows) ([]News, error) {
	var result []News
	for rows.Next() {
		n, err := scanNews(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *n)
	}
	return result, rows.Err()
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
