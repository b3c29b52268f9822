package users

import (
	"time"

	"github.com/festahub/festahub/internal/authz"
)

// User represents a platform account.
type User struct {
	ID        string
	Name      string
	KanaName  string
	Email     string
	Phone     string
	Role      authz.Role
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// VisibleTo implements the instance-level visibility rule: a user record is
// visible to itself and to holders of user.read_all. Soft-deleted records
// additionally require read_deleted regardless of who asks.
func (u User) VisibleTo(v authz.Viewer) bool {
	if u.DeletedAt != nil && !v.Actor.HasPermission(authz.PermReadDeleted) {
		return false
	}
	if v.Actor.UserID() == u.ID {
		return true
	}
	return v.Actor.HasPermission(authz.PermUserReadAll)
}

var _ authz.Resource = User{}
