package files

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates the file does not exist or is not visible.
var ErrNotFound = errors.New("files: not found")

// RepositoryPort defines data access methods for file metadata.
type RepositoryPort interface {
	Create(ctx context.Context, f *FileMeta) error
	FindByID(ctx context.Context, id string) (*FileMeta, error)
	ListByProject(ctx context.Context, projectID string) ([]FileMeta, error)
	ListPublic(ctx context.Context) ([]FileMeta, error)
	SoftDelete(ctx context.Context, id string) error
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const fileColumns = `id, key, name, mime_type, size_bytes, owner_project_id, created_at, updated_at, deleted_at`

// Create inserts the file metadata.
func (r *Repository) Create(ctx context.Context, f *FileMeta) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO files (id, key, name, mime_type, size_bytes, owner_project_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`,
		f.ID, f.Key, f.Name, f.MimeType, f.SizeBytes, f.OwnerProjectID,
	).Scan(&f.CreatedAt, &f.UpdatedAt)
}

// FindByID fetches file metadata regardless of soft-delete state.
func (r *Repository) FindByID(ctx context.Context, id string) (*FileMeta, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+fileColumns+` FROM files WHERE id = $1`, id)
	return scanFile(row)
}

// ListByProject returns a project's live files in upload order.
func (r *Repository) ListByProject(ctx context.Context, projectID string) ([]FileMeta, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+fileColumns+` FROM files WHERE owner_project_id = $1 AND deleted_at IS NULL ORDER BY created_at, id`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectFiles(rows)
}

// ListPublic returns all live public files.
func (r *Repository) ListPublic(ctx context.Context) ([]FileMeta, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+fileColumns+` FROM files WHERE owner_project_id IS NULL AND deleted_at IS NULL ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectFiles(rows)
}

// SoftDelete marks the file deleted. The object itself stays in storage.
func (r *Repository) SoftDelete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE files SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
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

func scanFile(row rowScanner) (*FileMeta, error) {
	var (
		f       FileMeta
		owner   *string
		deleted *time.Time
	)
	err := row.Scan(&f.ID, &f.Key, &f.Name, &f.MimeType, &f.SizeBytes, &owner, &f.CreatedAt, &f.UpdatedAt, &deleted)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	f.OwnerProjectID = owner
	f.DeletedAt = deleted
	return &f, nil
}

func collectFiles(rows pgx.Rows) ([]FileMeta, error) {
	var result []FileMeta
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *f)
	}
	return result, rows.Err()
}

var _ RepositoryPort = (*Repository)(nil)
