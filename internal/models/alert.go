package models

import (
	"fmt"
	"time"
)

// AlertSeverity is the severity the backend stores with an accident
type AlertSeverity string

const (
	// AlertSeverityUnset is what the model service sends; operators grade severity later.
	AlertSeverityUnset  AlertSeverity = "no severity"
	AlertSeverityLow    AlertSeverity = "low"
	AlertSeverityMedium AlertSeverity = "medium"
	AlertSeverityHigh   AlertSeverity = "high"
)

// AlertStatus represents the review state of an accident record
type AlertStatus string

const (
	AlertStatusActive    AlertStatus = "active"
	AlertStatusReviewed  AlertStatus = "reviewed"
	AlertStatusDismissed AlertStatus = "dismissed"
)

// IsValid checks if the alert status is valid
func (s AlertStatus) IsValid() bool {
	switch s {
	case AlertStatusActive, AlertStatusReviewed, AlertStatusDismissed:
		return true
	default:
		return false
	}
}

// RunMetadata is the caller-supplied context of a scan request
type RunMetadata struct {
	CameraID string `json:"cameraId"`
	Location string `json:"location"`
}

// AlertDocument is the accident payload POSTed to the backend.
// Field names follow the backend's accident schema.
type AlertDocument struct {
	CameraID      string        `json:"cameraId"`
	Location      string        `json:"location"`
	OccurredAt    int64         `json:"date"` // Unix milliseconds
	DisplayDate   *string       `json:"displayDate"`
	DisplayTime   *string       `json:"displayTime"`
	Severity      AlertSeverity `json:"severity"`
	VideoRef      string        `json:"video"`
	Description   *string       `json:"description"`
	AssignedTo    *string       `json:"assignedTo"`
	Status        AlertStatus   `json:"status"`
	FalsePositive bool          `json:"falsePositive"`
}

// NewAlertDocument builds the document for an accepted event whose clip lives at videoURL.
func NewAlertDocument(event AccidentEvent, meta RunMetadata, videoURL string, now time.Time) AlertDocument {
	description := fmt.Sprintf("%.2f", event.Confidence)
	return AlertDocument{
		CameraID:      meta.CameraID,
		Location:      meta.Location,
		OccurredAt:    now.UnixMilli(),
		Severity:      AlertSeverityUnset,
		VideoRef:      videoURL,
		Description:   &description,
		Status:        AlertStatusActive,
		FalsePositive: false,
	}
}
