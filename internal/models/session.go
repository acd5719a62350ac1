package models

import "time"

// SessionStatus represents the status of an analysis session.
type SessionStatus string

const (
	SessionStatusEmpty  SessionStatus = "empty"
	SessionStatusLoaded SessionStatus = "loaded"
	SessionStatusError  SessionStatus = "error"
)

// Session represents one viewer workspace: at most one loaded scan log
// and everything derived from it.
type Session struct {
	ID               string        `json:"id"`
	Status           SessionStatus `json:"status"`
	FileName         string        `json:"fileName,omitempty"`
	FileID           string        `json:"fileId,omitempty"`
	DeviceCount      int           `json:"deviceCount"`
	RetainedCount    int           `json:"retainedCount"`
	EventCount       int           `json:"eventCount"`
	ScanInfo         *ScanInfo     `json:"scanInfo,omitempty"`
	PageSize         int           `json:"pageSize,omitempty"`
	TotalPages       int           `json:"totalPages"`
	ProcessingTimeMs int64         `json:"processingTimeMs,omitempty"`
	FloorPlanID      string        `json:"floorPlanId,omitempty"`
	ExportID         string        `json:"exportId,omitempty"`
	CreatedAt        time.Time     `json:"createdAt"`
	Errors           []LoadError   `json:"errors,omitempty"`
}

// LoadError describes why a log could not be loaded.
type LoadError struct {
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

// NewSession creates a new Session in empty status.
func NewSession(id string) *Session {
	return &Session{
		ID:        id,
		Status:    SessionStatusEmpty,
		CreatedAt: time.Now(),
		Errors:    make([]LoadError, 0),
	}
}
