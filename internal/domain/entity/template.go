package entity

import "time"

// Template is an uploaded document template used to render artifacts
type Template struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	FileName    string    `json:"file_name"`
	StorageKey  string    `json:"storage_key"`
	URL         string    `json:"url"`
	FileType    string    `json:"file_type"`
	CreatedAt   time.Time `json:"created_at"`
}
