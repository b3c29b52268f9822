package invitations

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/festahub/festahub/internal/platform/db"
	"github.com/festahub/festahub/internal/shared"
)

// ErrNotFound indicates the invitation does not exist or is not visible.
var ErrNotFound = errors.New("invitations: not found")

// ErrAlreadyUsed rejects redeeming a spent invitation.
var ErrAlreadyUsed = errors.New("invitations: already used")

// ErrPositionTaken rejects a redemption the project cannot accept: the
// sub-owner slot is filled, or the receiver already belongs to a project.
var ErrPositionTaken = errors.New("invitations: position unavailable")

// RepositoryPort defines data access methods for invitations.
type RepositoryPort interface {
	Create(ctx context.Context, i *Invitation) error
	FindByID(ctx context.Context, id string) (*Invitation, error)
	List(ctx context.Context) ([]Invitation, error)
	ListByInviter(ctx context.Context, inviterID string) ([]Invitation, error)
	SoftDelete(ctx context.Context, id string) error
	Redeem(ctx context.Context, id, userID string) (*Invitation, error)
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const invitationColumns = `id, inviter_id, project_id, position, used_by, created_at, updated_at, deleted_at`

// Create inserts the invitation.
func (r *Repository) Create(ctx context.Context, i *Invitation) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO invitations (id, inviter_id, project_id, position)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`,
		i.ID, i.InviterID, i.ProjectID, i.Position.String(),
	).Scan(&i.CreatedAt, &i.UpdatedAt)
}

// FindByID fetches an invitation regardless of soft-delete state.
func (r *Repository) FindByID(ctx context.Context, id string) (*Invitation, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+invitationColumns+` FROM invitations WHERE id = $1`, id)
	return scanInvitation(row)
}

// List returns all live invitations, newest first.
func (r *Repository) List(ctx context.Context) ([]Invitation, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+invitationColumns+` FROM invitations WHERE deleted_at IS NULL ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectInvitations(rows)
}

// ListByInviter returns the live invitations created by one user.
func (r *Repository) ListByInviter(ctx context.Context, inviterID string) ([]Invitation, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+invitationColumns+` FROM invitations WHERE inviter_id = $1 AND deleted_at IS NULL ORDER BY created_at DESC, id`, inviterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectInvitations(rows)
}

// SoftDelete marks the invitation deleted.
func (r *Repository) SoftDelete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE invitations SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Redeem marks the invitation used by userID and binds the project role it
// grants, all in one serializable transaction. The invitation row is locked
// first so concurrent redemptions of the same ticket serialize.
func (r *Repository) Redeem(ctx context.Context, id, userID string) (*Invitation, error) {
	var redeemed *Invitation
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `SELECT `+invitationColumns+` FROM invitations WHERE id = $1 FOR UPDATE`, id)
		inv, err := scanInvitation(row)
		if err != nil {
			return err
		}
		if inv.DeletedAt != nil {
			return ErrNotFound
		}
		if inv.Used() {
			return ErrAlreadyUsed
		}

		switch inv.Position {
		case PositionSubOwner:
			tag, err := tx.Exec(ctx, `
				UPDATE projects SET sub_owner_id = $2, updated_at = NOW()
				WHERE id = $1 AND deleted_at IS NULL AND sub_owner_id IS NULL AND owner_id <> $2`,
				inv.ProjectID, userID)
			if err != nil {
				if shared.IsUniqueViolation(err) {
					return ErrPositionTaken
				}
				return err
			}
			if tag.RowsAffected() == 0 {
				return ErrPositionTaken
			}
		case PositionOwner:
			tag, err := tx.Exec(ctx, `
				UPDATE projects SET owner_id = $2, updated_at = NOW()
				WHERE id = $1 AND deleted_at IS NULL AND owner_id <> $2
				  AND (sub_owner_id IS NULL OR sub_owner_id <> $2)`,
				inv.ProjectID, userID)
			if err != nil {
				if shared.IsUniqueViolation(err) {
					return ErrPositionTaken
				}
				return err
			}
			if tag.RowsAffected() == 0 {
				return ErrPositionTaken
			}
		}

		if _, err := tx.Exec(ctx, `UPDATE invitations SET used_by = $2, updated_at = NOW() WHERE id = $1`, id, userID); err != nil {
			return err
		}
		inv.UsedBy = &userID
		redeemed = inv
		return nil
	})
	if err != nil {
		return nil, err
	}
	return redeemed, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvitation(row rowScanner) (*Invitation, error) {
	var (
		i           Invitation
		positionStr string
		usedBy      *string
		deleted     *time.Time
	)
	err := row.Scan(&i.ID, &i.InviterID, &i.ProjectID, &positionStr, &usedBy, &i.CreatedAt, &i.UpdatedAt, &deleted)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	position, err := ParsePosition(positionStr)
	if err != nil {
		return nil, err
	}
	i.Position = position
	i.UsedBy = usedBy
	i.DeletedAt = deleted
	return &i, nil
}

func collectInvitations(rows pgx.Rows) ([]Invitation, error) {
	var result []Invitation
	for rows.Next() {
		i, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *i)
	}
	return result, rows.Err()
}

var _ RepositoryPort = (*Repository)(nil)
