package models

import "time"

// FileKind distinguishes archived scan logs from floor-plan images.
type FileKind string

const (
	FileKindLog       FileKind = "log"
	FileKindFloorPlan FileKind = "floorplan"
)

// FileInfo represents metadata about an uploaded file.
type FileInfo struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Kind        FileKind  `json:"kind"`
	ContentType string    `json:"contentType,omitempty"`
	Size        int64     `json:"size"`
	UploadedAt  time.Time `json:"uploadedAt"`
}
