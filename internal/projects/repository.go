package projects

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/festahub/festahub/internal/reqctx"
	"github.com/festahub/festahub/internal/shared"
)

// ErrNotFound indicates the project does not exist or is not visible.
var ErrNotFound = errors.New("projects: not found")

// ErrAlreadyOwner rejects a second project for the same owner.
var ErrAlreadyOwner = errors.New("projects: user already owns a project")

// ErrSubOwnerTaken rejects binding a sub-owner to a project that has one,
// or binding a user who already belongs to a project.
var ErrSubOwnerTaken = errors.New("projects: sub-owner slot unavailable")

// UpdateFields carries the mutable project fields for an update.
type UpdateFields struct {
	Title         string
	KanaTitle     string
	GroupName     string
	KanaGroupName string
	Category      shared.ProjectCategory
	Attributes    shared.AttributeSet
	Remarks       string
}

// RepositoryPort defines data access methods for projects.
type RepositoryPort interface {
	Create(ctx context.Context, p *Project) error
	FindByID(ctx context.Context, id string) (*Project, error)
	FindByOwner(ctx context.Context, userID string) (*Project, error)
	FindBySubOwner(ctx context.Context, userID string) (*Project, error)
	List(ctx context.Context) ([]Project, error)
	Update(ctx context.Context, id string, fields UpdateFields) error
	AssignSubOwner(ctx context.Context, id, userID string) error
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

const projectColumns = `id, index, title, kana_title, group_name, kana_group_name, category, attributes, owner_id, sub_owner_id, remarks, created_at, updated_at, deleted_at`

// Create inserts the project and fills in the assigned display index. A
// unique constraint on owner_id enforces one live project per owner.
func (r *Repository) Create(ctx context.Context, p *Project) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO projects (id, title, kana_title, group_name, kana_group_name, category, attributes, owner_id, remarks)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING index, created_at, updated_at`,
		p.ID, p.Title, p.KanaTitle, p.GroupName, p.KanaGroupName, p.Category.String(), attributeNames(p.Attributes), p.OwnerID, p.Remarks,
	).Scan(&p.Index, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if shared.IsUniqueViolation(err) {
			return ErrAlreadyOwner
		}
		return err
	}
	return nil
}

// FindByID fetches a project regardless of soft-delete state.
func (r *Repository) FindByID(ctx context.Context, id string) (*Project, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id)
	return scanProject(row)
}

// FindByOwner fetches the live project owned by userID.
func (r *Repository) FindByOwner(ctx context.Context, userID string) (*Project, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE owner_id = $1 AND deleted_at IS NULL`, userID)
	return scanProject(row)
}

// FindBySubOwner fetches the live project sub-owned by userID.
func (r *Repository) FindBySubOwner(ctx context.Context, userID string) (*Project, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE sub_owner_id = $1 AND deleted_at IS NULL`, userID)
	return scanProject(row)
}

// List returns all live projects. Ordering by kana title happens in the
// service, where the Japanese collator lives.
func (r *Repository) List(ctx context.Context) ([]Project, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+projectColumns+` FROM projects WHERE deleted_at IS NULL ORDER BY index`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	return result, rows.Err()
}

// Update rewrites the mutable fields of a live project.
func (r *Repository) Update(ctx context.Context, id string, f UpdateFields) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE projects
		SET title = $2, kana_title = $3, group_name = $4, kana_group_name = $5,
		    category = $6, attributes = $7, remarks = $8, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`,
		id, f.Title, f.KanaTitle, f.GroupName, f.KanaGroupName, f.Category.String(), attributeNames(f.Attributes), f.Remarks)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AssignSubOwner fills the sub-owner slot. The guards keep the slot
// single-use and stop the owner from sub-owning their own project; a unique
// constraint on sub_owner_id stops a user joining two projects.
func (r *Repository) AssignSubOwner(ctx context.Context, id, userID string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE projects SET sub_owner_id = $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL AND sub_owner_id IS NULL AND owner_id <> $2`,
		id, userID)
	if err != nil {
		if shared.IsUniqueViolation(err) {
			return ErrSubOwnerTaken
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSubOwnerTaken
	}
	return nil
}

// SoftDelete marks the project deleted.
func (r *Repository) SoftDelete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE projects SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
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

func scanProject(row rowScanner) (*Project, error) {
	var (
		p           Project
		categoryStr string
		attrNames   []string
		subOwner    *string
		deleted     *time.Time
	)
	err := row.Scan(&p.ID, &p.Index, &p.Title, &p.KanaTitle, &p.GroupName, &p.KanaGroupName,
		&categoryStr, &attrNames, &p.OwnerID, &subOwner, &p.Remarks, &p.CreatedAt, &p.UpdatedAt, &deleted)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	category, err := shared.ParseProjectCategory(categoryStr)
	if err != nil {
		return nil, err
	}
	attrs, err := parseAttributeNames(attrNames)
	if err != nil {
		return nil, err
	}
	p.Category = category
	p.Attributes = attrs
	p.SubOwnerID = subOwner
	p.DeletedAt = deleted
	return &p, nil
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

// Directory adapts the repository to ownership resolution in request
// contexts. Missing projects resolve as absent entries.
type Directory struct {
	repo RepositoryPort
}

// NewDirectory wraps a repository for reqctx resolution.
func NewDirectory(repo RepositoryPort) *Directory {
	return &Directory{repo: repo}
}

// FindProjectByOwner implements reqctx.ProjectDirectory.
func (d *Directory) FindProjectByOwner(ctx context.Context, userID string) (*reqctx.ProjectRef, error) {
	return toRef(d.repo.FindByOwner(ctx, userID))
}

// FindProjectBySubOwner implements reqctx.ProjectDirectory.
func (d *Directory) FindProjectBySubOwner(ctx context.Context, userID string) (*reqctx.ProjectRef, error) {
	return toRef(d.repo.FindBySubOwner(ctx, userID))
}

func toRef(p *Project, err error) (*reqctx.ProjectRef, error) {
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &reqctx.ProjectRef{ID: p.ID, Category: p.Category, Attributes: p.Attributes}, nil
}

var _ reqctx.ProjectDirectory = (*Directory)(nil)
