package model

import "time"

// Image is the metadata record kept for one successfully uploaded image.
// The provider-assigned ID is the public identifier; RowID is the local
// autoincrement key the variant rows hang off.
type Image struct {
	RowID       int64             `json:"-"`
	ID          string            `json:"id"`
	FileName    string            `json:"file_name"`
	Description string            `json:"description,omitempty"`
	MimeType    string            `json:"mime_type"`
	SizeBytes   int64             `json:"size_in_bytes"`
	Width       int               `json:"width,omitempty"`
	Height      int               `json:"height,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	Variants    map[string]string `json:"availableUrls,omitempty"`
}

// ImagePage is one page of a listing, newest first.
type ImagePage struct {
	Images  []*Image `json:"images"`
	Total   int      `json:"total"`
	Limit   int      `json:"limit"`
	Offset  int      `json:"offset"`
	HasMore bool     `json:"hasMore"`
}
