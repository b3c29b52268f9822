package forms

import (
	"time"

	"github.com/festahub/festahub/internal/shared"
)

// FormResponse is the wire representation of a form.
type FormResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
	Categories  []string  `json:"categories"`
	Attributes  []string  `json:"attributes"`
	Items       []Item    `json:"items"`
	IsDraft     bool      `json:"is_draft"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// FormRequest creates or rewrites a form.
type FormRequest struct {
	Title       string    `json:"title" validate:"required,max=200"`
	Description string    `json:"description"`
	StartsAt    time.Time `json:"starts_at" validate:"required"`
	EndsAt      time.Time `json:"ends_at" validate:"required"`
	Categories  []string  `json:"categories"`
	Attributes  []string  `json:"attributes"`
	Items       []Item    `json:"items" validate:"required,min=1"`
	IsDraft     bool      `json:"is_draft"`
}

func toResponse(f Form) FormResponse {
	items := f.Items
	if items == nil {
		items = []Item{}
	}
	return FormResponse{
		ID:          f.ID,
		Title:       f.Title,
		Description: f.Description,
		StartsAt:    f.Window.StartsAt,
		EndsAt:      f.Window.EndsAt,
		Categories:  categoryNames(f.Categories),
		Attributes:  attributeNames(f.Attributes),
		Items:       items,
		IsDraft:     f.IsDraft,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

func toResponses(items []Form) []FormResponse {
	out := make([]FormResponse, len(items))
	for i, f := range items {
		out[i] = toResponse(f)
	}
	return out
}

func (req FormRequest) toInput() (Input, error) {
	cats, err := parseCategoryNames(req.Categories)
	if err != nil {
		return Input{}, err
	}
	attrs, err := parseAttributeNames(req.Attributes)
	if err != nil {
		return Input{}, err
	}
	return Input{
		Title:       req.Title,
		Description: req.Description,
		Window:      shared.Window{StartsAt: req.StartsAt, EndsAt: req.EndsAt},
		Categories:  cats,
		Attributes:  attrs,
		Items:       req.Items,
		IsDraft:     req.IsDraft,
	}, nil
}
