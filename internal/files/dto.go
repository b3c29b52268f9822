package files

import "time"

// FileResponse is the wire representation of file metadata.
type FileResponse struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	MimeType       string    `json:"mime_type"`
	SizeBytes      int64     `json:"size_bytes"`
	OwnerProjectID *string   `json:"owner_project_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toResponse(f FileMeta) FileResponse {
	return FileResponse{
		ID:             f.ID,
		Name:           f.Name,
		MimeType:       f.MimeType,
		SizeBytes:      f.SizeBytes,
		OwnerProjectID: f.OwnerProjectID,
		CreatedAt:      f.CreatedAt,
		UpdatedAt:      f.UpdatedAt,
	}
}

func toResponses(items []FileMeta) []FileResponse {
	out := make([]FileResponse, len(items))
	for i, f := range items {
		out[i] = toResponse(f)
	}
	return out
}
