package models

import (
	"encoding/json"
	"time"
)

// DispatchOutcome is the terminal state of one event's dispatch
type DispatchOutcome string

const (
	DispatchDelivered          DispatchOutcome = "delivered"
	DispatchExtractionFailed   DispatchOutcome = "extractionFailed"
	DispatchUploadFailed       DispatchOutcome = "uploadFailed"
	DispatchBackendRejected    DispatchOutcome = "backendRejected"
	DispatchBackendUnreachable DispatchOutcome = "backendUnreachable"
)

// String returns the string representation of DispatchOutcome
func (o DispatchOutcome) String() string {
	return string(o)
}

// DispatchResult records how one AccidentEvent was handled
type DispatchResult struct {
	Outcome    DispatchOutcome `json:"outcome"`
	Event      AccidentEvent   `json:"event"`
	CameraID   string          `json:"camera_id"`
	VideoURL   string          `json:"video_url,omitempty"`
	StatusCode int             `json:"status_code,omitempty"`
	Err        error           `json:"-"`
}

// Delivered reports whether the backend accepted the alert
func (r DispatchResult) Delivered() bool {
	return r.Outcome == DispatchDelivered
}

// MarshalJSON adds the error text, which error values do not carry through encoding/json
func (r DispatchResult) MarshalJSON() ([]byte, error) {
	type alias DispatchResult
	out := struct {
		alias
		Error string `json:"error,omitempty"`
	}{alias: alias(r)}
	if r.Err != nil {
		out.Error = r.Err.Error()
	}
	return json.Marshal(out)
}

// ScanReport summarises one finished scan job
type ScanReport struct {
	JobID      string           `json:"job_id"`
	VideoID    string           `json:"video_id"`
	CameraID   string           `json:"camera_id"`
	Frames     int              `json:"frames"`
	Events     int              `json:"events"`
	Results    []DispatchResult `json:"results"`
	Err        error            `json:"-"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
}

// Delivered counts the events whose alert reached the backend
func (r ScanReport) Delivered() int {
	n := 0
	for _, res := range r.Results {
		if res.Delivered() {
			n++
		}
	}
	return n
}

// MarshalJSON adds the scan error text
func (r ScanReport) MarshalJSON() ([]byte, error) {
	type alias ScanReport
	out := struct {
		alias
		Error string `json:"error,omitempty"`
	}{alias: alias(r)}
	if r.Err != nil {
		out.Error = r.Err.Error()
	}
	return json.Marshal(out)
}
