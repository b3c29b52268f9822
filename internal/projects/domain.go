package projects

import (
	"time"

	"github.com/festahub/festahub/internal/authz"
	"github.com/festahub/festahub/internal/shared"
)

// Project is a registered festival project. Index is a sequential display
// number assigned at creation; ID is the stable identifier. SubOwnerID is
// nil until an invitation has been redeemed.
type Project struct {
	ID            string
	Index         int
	Title         string
	KanaTitle     string
	GroupName     string
	KanaGroupName string
	Category      shared.ProjectCategory
	Attributes    shared.AttributeSet
	OwnerID       string
	SubOwnerID    *string
	Remarks       string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	DeletedAt     *time.Time
}

// IsMember reports whether userID is the owner or sub-owner.
func (p Project) IsMember(userID string) bool {
	if p.OwnerID == userID {
		return true
	}
	return p.SubOwnerID != nil && *p.SubOwnerID == userID
}

// VisibleTo hides soft-deleted projects from everyone but read_deleted
// holders, shows members their own project, and otherwise requires
// project.read_all.
func (p Project) VisibleTo(v authz.Viewer) bool {
	if p.DeletedAt != nil && !v.Actor.HasPermission(authz.PermReadDeleted) {
		return false
	}
	if p.IsMember(v.Actor.UserID()) {
		return true
	}
	return v.Actor.HasPermission(authz.PermProjectReadAll)
}

var _ authz.Resource = Project{}

// RemarksVisibleTo reports whether the viewer may see the committee remarks.
// Remarks are internal notes: even the project members do not see them
// without project.read_remarks. This drives response shaping only; it never
// hides the project itself.
func (p Project) RemarksVisibleTo(v authz.Viewer) bool {
	return v.Actor.HasPermission(authz.PermProjectReadRemarks)
}
