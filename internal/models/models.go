package models

import "time"

// StripRecord is one submitted photo strip as the admin surface sees it.
type StripRecord struct {
	ID          string     `json:"id"`
	ImagePath   string     `json:"image_path"`
	ImageRef    string     `json:"image_ref"`
	TemplateRef string     `json:"template_ref,omitempty"`
	EventLabel  string     `json:"event_label,omitempty"`
	ByteSize    int64      `json:"byte_size"`
	PrintCount  int        `json:"print_count"`
	PrintedAt   *time.Time `json:"printed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
