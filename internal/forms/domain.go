package forms

import (
	"time"

	"github.com/festahub/festahub/internal/authz"
	"github.com/festahub/festahub/internal/shared"
)

// Form is a questionnaire sent to project holders. Categories and
// Attributes target which projects must answer; both empty targets every
// project. Window bounds when answers are accepted.
type Form struct {
	ID          string
	Title       string
	Description string
	Window      shared.Window
	Categories  shared.CategorySet
	Attributes  shared.AttributeSet
	Items       []Item
	IsDraft     bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   *time.Time
}

// Targets reports whether the form is aimed at the given project audience.
func (f Form) Targets(category shared.ProjectCategory, attrs shared.AttributeSet) bool {
	return f.Categories.Contains(category) && f.Attributes.Matches(attrs)
}

// VisibleTo hides drafts from everyone but form.read_all holders. A
// published form reaches a viewer whose project matches its targeting.
// Window checks are time-dependent and live in the service.
func (f Form) VisibleTo(v authz.Viewer) bool {
	if f.DeletedAt != nil && !v.Actor.HasPermission(authz.PermReadDeleted) {
		return false
	}
	if v.Actor.HasPermission(authz.PermFormReadAll) {
		return true
	}
	if f.IsDraft {
		return false
	}
	if v.Owned == nil {
		return false
	}
	return f.Targets(v.Owned.Category, v.Owned.Attributes)
}

var _ authz.Resource = Form{}

// Item returns the form item with the given id.
func (f Form) Item(id string) (Item, bool) {
	for _, it := range f.Items {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}
