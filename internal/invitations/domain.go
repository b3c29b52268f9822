package invitations

import (
	"fmt"
	"time"

	"github.com/festahub/festahub/internal/authz"
)

// Position names the project role an invitation grants on receipt.
type Position uint8

const (
	PositionOwner Position = iota
	PositionSubOwner

	positionCount
)

var positionNames = [positionCount]string{
	PositionOwner:    "owner",
	PositionSubOwner: "sub_owner",
}

// String returns the stored name of the position.
func (p Position) String() string {
	if p >= positionCount {
		return "unknown"
	}
	return positionNames[p]
}

// ParsePosition converts a stored name back into a position.
func ParsePosition(s string) (Position, error) {
	for p := Position(0); p < positionCount; p++ {
		if positionNames[p] == s {
			return p, nil
		}
	}
	return PositionOwner, fmt.Errorf("invitations: unknown position %q", s)
}

// Invitation is a single-use ticket binding its receiver to a project.
// Position owner transfers ownership; position sub_owner fills the
// sub-owner slot. UsedBy is set exactly once.
type Invitation struct {
	ID        string
	InviterID string
	ProjectID string
	Position  Position
	UsedBy    *string
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// Used reports whether the invitation has been redeemed.
func (i Invitation) Used() bool {
	return i.UsedBy != nil
}

// VisibleTo admits the inviter and invitation.read_all holders.
func (i Invitation) VisibleTo(v authz.Viewer) bool {
	if i.DeletedAt != nil && !v.Actor.HasPermission(authz.PermReadDeleted) {
		return false
	}
	if i.InviterID == v.Actor.UserID() {
		return true
	}
	return v.Actor.HasPermission(authz.PermInvitationReadAll)
}

var _ authz.Resource = Invitation{}
