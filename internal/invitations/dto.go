package invitations

import "time"

// InvitationResponse is the wire representation of an invitation.
type InvitationResponse struct {
	ID        string    `json:"id"`
	InviterID string    `json:"inviter_id"`
	ProjectID string    `json:"project_id"`
	Position  string    `json:"position"`
	UsedBy    *string   `json:"used_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateInvitationRequest issues an invitation. ProjectID is honored only
// for invitation.create_all holders.
type CreateInvitationRequest struct {
	Position  string `json:"position" validate:"required,oneof=owner sub_owner"`
	ProjectID string `json:"project_id" validate:"omitempty,uuid"`
	Email     string `json:"email" validate:"omitempty,email"`
}

func toResponse(i Invitation) InvitationResponse {
	return InvitationResponse{
		ID:        i.ID,
		InviterID: i.InviterID,
		ProjectID: i.ProjectID,
		Position:  i.Position.String(),
		UsedBy:    i.UsedBy,
		CreatedAt: i.CreatedAt,
		UpdatedAt: i.UpdatedAt,
	}
}

func toResponses(items []Invitation) []InvitationResponse {
	out := make([]InvitationResponse, len(items))
	for i, inv := range items {
		out[i] = toResponse(inv)
	}
	return out
}
