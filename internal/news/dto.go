package news

import "time"

// NewsResponse is the wire representation of an announcement.
type NewsResponse struct {
	ID          string     `json:"id"`
	State       string     `json:"state"`
	Title       string     `json:"title"`
	Body        string     `json:"body"`
	Attachments []string   `json:"attachments"`
	Categories  []string   `json:"categories"`
	Attributes  []string   `json:"attributes"`
	PublishAt   *time.Time `json:"publish_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewsRequest creates or rewrites an announcement. Empty categories and
// attributes target every project.
type NewsRequest struct {
	Title       string     `json:"title" validate:"required,max=200"`
	Body        string     `json:"body" validate:"required"`
	Attachments []string   `json:"attachments" validate:"dive,uuid"`
	Categories  []string   `json:"categories"`
	Attributes  []string   `json:"attributes"`
	Draft       bool       `json:"draft"`
	PublishAt   *time.Time `json:"publish_at"`
}

func toResponse(n News) NewsResponse {
	attachments := n.Attachments
	if attachments == nil {
		attachments = []string{}
	}
	return NewsResponse{
		ID:          n.ID,
		State:       n.State.String(),
		Title:       n.Title,
		Body:        n.Body,
		Attachments: attachments,
		Categories:  categoryNames(n.Categories),
		Attributes:  attributeNames(n.Attributes),
		PublishAt:   n.PublishAt,
		CreatedAt:   n.CreatedAt,
		UpdatedAt:   n.UpdatedAt,
	}
}

func toResponses(items []News) []NewsResponse {
	out := make([]NewsResponse, len(items))
	for i, n := range items {
		out[i] = toResponse(n)
	}
	return out
}

func (req NewsRequest) toInput() (Input, error) {
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
		Body:        req.Body,
		Attachments: req.Attachments,
		Categories:  cats,
		Attributes:  attrs,
		Draft:       req.Draft,
		PublishAt:   req.PublishAt,
	}, nil
}
