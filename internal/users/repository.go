package users

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/festahub/festahub/internal/authz"
	"github.com/festahub/festahub/internal/reqctx"
)

// ErrNotFound indicates the user does not exist or is not visible.
var ErrNotFound = errors.New("users: not found")

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	FindByID(ctx context.Context, id string) (*User, error)
	List(ctx context.Context) ([]User, error)
	UpdateRole(ctx context.Context, id string, role authz.Role) error
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

const userColumns = `id, name, kana_name, email, phone, role, created_at, updated_at, deleted_at`

// FindByID fetches a user regardless of soft-delete state; visibility rules
// decide whether the caller may observe it.
func (r *Repository) FindByID(ctx context.Context, id string) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

// List returns all live users ordered by kana name.
func (r *Repository) List(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users WHERE deleted_at IS NULL ORDER BY kana_name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *user)
	}
	return result, rows.Err()
}

// UpdateRole changes the stored role of a live user.
func (r *Repository) UpdateRole(ctx context.Context, id string, role authz.Role) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET role = $2, updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id, role.String())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SoftDelete marks the user deleted.
func (r *Repository) SoftDelete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
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

func scanUser(row rowScanner) (*User, error) {
	var (
		user    User
		roleStr string
		deleted *time.Time
	)
	if err := row.Scan(&user.ID, &user.Name, &user.KanaName, &user.Email, &user.Phone, &roleStr, &user.CreatedAt, &user.UpdatedAt, &deleted); err != nil {
		return nil, err
	}
	role, err := authz.ParseRole(roleStr)
	if err != nil {
		return nil, err
	}
	user.Role = role
	user.DeletedAt = deleted
	return &user, nil
}

var _ RepositoryPort = (*Repository)(nil)

// Directory adapts the repository to actor resolution. Absent and
// soft-deleted users both resolve as missing directory entries.
type Directory struct {
	repo RepositoryPort
}

// NewDirectory wraps a repository for reqctx resolution.
func NewDirectory(repo RepositoryPort) *Directory {
	return &Directory{repo: repo}
}

// FindUserByID implements reqctx.UserDirectory.
func (d *Directory) FindUserByID(ctx context.Context, id string) (*reqctx.DirectoryUser, error) {
	user, err := d.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &reqctx.DirectoryUser{ID: user.ID, Role: user.Role, Deleted: user.DeletedAt != nil}, nil
}

var _ reqctx.UserDirectory = (*Directory)(nil)
