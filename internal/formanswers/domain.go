package formanswers

import (
	"time"

	"github.com/festahub/festahub/internal/authz"
	"github.com/festahub/festahub/internal/forms"
)

// FormAnswer is a project's submission to a form. One submission per
// project and form; updates overwrite the items in place.
type FormAnswer struct {
	ID        string
	ProjectID string
	FormID    string
	Items     []forms.AnswerValue
	CreatedAt time.Time
	UpdatedAt time.Time
}

// VisibleTo admits the owning project's members and form_answer.read_all
// holders.
func (a FormAnswer) VisibleTo(v authz.Viewer) bool {
	if v.OwnsProject(a.ProjectID) {
		return true
	}
	return v.Actor.HasPermission(authz.PermFormAnswerReadAll)
}

var _ authz.Resource = FormAnswer{}
