package audit

import "time"

// TimelineRowResponse is the JSON shape of one audit entry.
type TimelineRowResponse struct {
	At       time.Time      `json:"at"`
	ActorID  string         `json:"actor_id"`
	Role     string         `json:"role"`
	Action   string         `json:"action"`
	Entity   string         `json:"entity"`
	EntityID string         `json:"entity_id"`
	Meta     map[string]any `json:"meta,omitempty"`
}

// PagingResponse mirrors PagingInfo for JSON responses.
type PagingResponse struct {
	Page     int  `json:"page"`
	PageSize int  `json:"page_size"`
	HasNext  bool `json:"has_next"`
	PrevPage int  `json:"prev_page,omitempty"`
	NextPage int  `json:"next_page,omitempty"`
}

func toResponses(rows []TimelineRow) []TimelineRowResponse {
	result := make([]TimelineRowResponse, 0, len(rows))
	for _, row := range rows {
		result = append(result, TimelineRowResponse{
			At:       row.At,
			ActorID:  row.ActorID,
			Role:     row.Role,
			Action:   row.Action,
			Entity:   row.Entity,
			EntityID: row.EntityID,
			Meta:     row.Meta,
		})
	}
	return result
}

func toPaging(p PagingInfo) PagingResponse {
	return PagingResponse{
		Page:     p.Page,
		PageSize: p.PageSize,
		HasNext:  p.HasNext,
		PrevPage: p.PrevPage,
		NextPage: p.NextPage,
	}
}
