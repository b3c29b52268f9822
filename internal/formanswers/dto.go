package formanswers

import (
	"time"

	"github.com/festahub/festahub/internal/forms"
)

// AnswerResponse is the wire representation of a submission.
type AnswerResponse struct {
	ID        string              `json:"id"`
	ProjectID string              `json:"project_id"`
	FormID    string              `json:"form_id"`
	Items     []forms.AnswerValue `json:"items"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// CreateAnswerRequest submits answers to a form.
type CreateAnswerRequest struct {
	FormID string              `json:"form_id" validate:"required,uuid"`
	Items  []forms.AnswerValue `json:"items" validate:"required"`
}

// UpdateAnswerRequest overwrites a submission.
type UpdateAnswerRequest struct {
	Items []forms.AnswerValue `json:"items" validate:"required"`
}

func toResponse(a FormAnswer) AnswerResponse {
	items := a.Items
	if items == nil {
		items = []forms.AnswerValue{}
	}
	return AnswerResponse{
		ID:        a.ID,
		ProjectID: a.ProjectID,
		FormID:    a.FormID,
		Items:     items,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func toResponses(answers []FormAnswer) []AnswerResponse {
	out := make([]AnswerResponse, len(answers))
	for i, a := range answers {
		out[i] = toResponse(a)
	}
	return out
}
