package audit

import "time"

// TimelineFilters narrows the audit timeline query. Zero values mean "no
// filter" for every field.
type TimelineFilters struct {
	From     time.Time
	To       time.Time
	ActorID  string
	Entity   string
	Action   string
	Page     int
	PageSize int
}

// TimelineRow is one recorded authorization-sensitive operation.
type TimelineRow struct {
	At       time.Time
	ActorID  string
	Role     string
	Action   string
	Entity   string
	EntityID string
	Meta     map[string]any
}

// PagingInfo carries pagination metadata for a timeline page.
type PagingInfo struct {
	Page     int
	PageSize int
	HasNext  bool
	PrevPage int
	NextPage int
}

// Result bundles a timeline page with its paging info.
type Result struct {
	Rows   []TimelineRow
	Paging PagingInfo
}
