package news

import (
	"fmt"
	"time"

	"github.com/festahub/festahub/internal/authz"
	"github.com/festahub/festahub/internal/shared"
)

// State is the publication state of an announcement.
type State uint8

const (
	StateDraft State = iota
	StateScheduled
	StatePublished

	stateCount
)

var stateNames = [stateCount]string{
	StateDraft:     "draft",
	StateScheduled: "scheduled",
	StatePublished: "published",
}

// String returns the stored name of the state.
func (s State) String() string {
	if s >= stateCount {
		return "unknown"
	}
	return stateNames[s]
}

// ParseState converts a stored name back into a state.
func ParseState(v string) (State, error) {
	for s := State(0); s < stateCount; s++ {
		if stateNames[s] == v {
			return s, nil
		}
	}
	return StateDraft, fmt.Errorf("news: unknown state %q", v)
}

// News is an announcement to project holders. Categories and Attributes
// target which projects see it once published; both empty means everyone.
// PublishAt is set for scheduled announcements and records the publication
// time once published.
type News struct {
	ID          string
	State       State
	Title       string
	Body        string
	Attachments []string
	Categories  shared.CategorySet
	Attributes  shared.AttributeSet
	PublishAt   *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   *time.Time
}

// Targets reports whether the announcement is aimed at the given project
// audience. Empty targeting reaches every project.
func (n News) Targets(category shared.ProjectCategory, attrs shared.AttributeSet) bool {
	return n.Categories.Contains(category) && n.Attributes.Matches(attrs)
}

// VisibleTo hides drafts and scheduled announcements from everyone but
// news.read_all holders. A published announcement reaches a viewer when its
// targeting is empty, or when the viewer's project matches.
func (n News) VisibleTo(v authz.Viewer) bool {
	if n.DeletedAt != nil && !v.Actor.HasPermission(authz.PermReadDeleted) {
		return false
	}
	if v.Actor.HasPermission(authz.PermNewsReadAll) {
		return true
	}
	if n.State != StatePublished {
		return false
	}
	if n.Categories.IsEmpty() && n.Attributes.IsEmpty() {
		return true
	}
	if v.Owned == nil {
		return false
	}
	return n.Targets(v.Owned.Category, v.Owned.Attributes)
}

var _ authz.Resource = News{}
