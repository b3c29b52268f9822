package projects

import (
	"time"

	"github.com/festahub/festahub/internal/shared"
)

// ProjectResponse is the wire representation of a project. Remarks is
// omitted entirely for callers without read access.
type ProjectResponse struct {
	ID            string    `json:"id"`
	Index         int       `json:"index"`
	Title         string    `json:"title"`
	KanaTitle     string    `json:"kana_title"`
	GroupName     string    `json:"group_name"`
	KanaGroupName string    `json:"kana_group_name"`
	Category      string    `json:"category"`
	Attributes    []string  `json:"attributes"`
	OwnerID       string    `json:"owner_id"`
	SubOwnerID    *string   `json:"sub_owner_id,omitempty"`
	Remarks       *string   `json:"remarks,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CreateProjectRequest registers a new project.
type CreateProjectRequest struct {
	Title         string   `json:"title" validate:"required,max=100"`
	KanaTitle     string   `json:"kana_title" validate:"required,max=200"`
	GroupName     string   `json:"group_name" validate:"required,max=100"`
	KanaGroupName string   `json:"kana_group_name" validate:"required,max=200"`
	Category      string   `json:"category" validate:"required"`
	Attributes    []string `json:"attributes"`
}

// UpdateProjectRequest rewrites a project.
type UpdateProjectRequest struct {
	Title         string   `json:"title" validate:"required,max=100"`
	KanaTitle     string   `json:"kana_title" validate:"required,max=200"`
	GroupName     string   `json:"group_name" validate:"required,max=100"`
	KanaGroupName string   `json:"kana_group_name" validate:"required,max=200"`
	Category      string   `json:"category" validate:"required"`
	Attributes    []string `json:"attributes"`
	Remarks       *string  `json:"remarks"`
}

func toResponse(p Project, withRemarks bool) ProjectResponse {
	resp := ProjectResponse{
		ID:            p.ID,
		Index:         p.Index,
		Title:         p.Title,
		KanaTitle:     p.KanaTitle,
		GroupName:     p.GroupName,
		KanaGroupName: p.KanaGroupName,
		Category:      p.Category.String(),
		Attributes:    attributeNames(p.Attributes),
		OwnerID:       p.OwnerID,
		SubOwnerID:    p.SubOwnerID,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
	if withRemarks {
		remarks := p.Remarks
		resp.Remarks = &remarks
	}
	return resp
}

func toResponses(result []Project, withRemarks bool) []ProjectResponse {
	out := make([]ProjectResponse, len(result))
	for i, p := range result {
		out[i] = toResponse(p, withRemarks)
	}
	return out
}

func parseAudience(category string, attributes []string) (shared.ProjectCategory, shared.AttributeSet, error) {
	cat, err := shared.ParseProjectCategory(category)
	if err != nil {
		return 0, shared.AttributeSet{}, err
	}
	attrs, err := parseAttributeNames(attributes)
	if err != nil {
		return 0, shared.AttributeSet{}, err
	}
	return cat, attrs, nil
}
