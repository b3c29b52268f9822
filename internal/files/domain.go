package files

import (
	"time"

	"github.com/festahub/festahub/internal/authz"
)

// FileMeta describes a stored object. Key is the object storage location;
// Name is the display name used on download. A nil OwnerProjectID marks a
// public file, such as a news attachment.
type FileMeta struct {
	ID             string
	Key            string
	Name           string
	MimeType       string
	SizeBytes      int64
	OwnerProjectID *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      *time.Time
}

// Public reports whether the file belongs to no project.
func (f FileMeta) Public() bool {
	return f.OwnerProjectID == nil
}

// VisibleTo admits everyone to public files, the owning project's members
// to owned files, and file.read_all holders to everything.
func (f FileMeta) VisibleTo(v authz.Viewer) bool {
	if f.DeletedAt != nil && !v.Actor.HasPermission(authz.PermReadDeleted) {
		return false
	}
	if f.Public() {
		return true
	}
	if v.OwnsProject(*f.OwnerProjectID) {
		return true
	}
	return v.Actor.HasPermission(authz.PermFileReadAll)
}

var _ authz.Resource = FileMeta{}
