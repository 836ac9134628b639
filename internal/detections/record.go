// Package detections implements the detection record domain: the upload
// pipeline that normalizes an image, runs detection, and stores one row per
// upload, plus read access to the stored rows.
package detections

import (
	"time"

	"github.com/google/uuid"
)

// TimestampLayout is the stored timestamp format, local clock, second precision.
const TimestampLayout = "2006-01-02 15:04:05"

// Record is one processed upload. Records are written once and never updated.
type Record struct {
	ID              uuid.UUID `json:"id"`
	Filename        string    `json:"filename"`
	DetectedClasses string    `json:"detected_classes"`
	Timestamp       string    `json:"timestamp"`
	Location        *string   `json:"location"`
	Incharge        *string   `json:"incharge"`
}

// LocationText returns the location or "" when unset.
func (r Record) LocationText() string {
	if r.Location == nil {
		return ""
	}
	return *r.Location
}

// InchargeText returns the person in charge or "" when unset.
func (r Record) InchargeText() string {
	if r.Incharge == nil {
		return ""
	}
	return *r.Incharge
}

// CreateCommand carries one upload through the pipeline.
type CreateCommand struct {
	Data     []byte
	Filename string
	Location string
	Incharge string
}

// FormatTimestamp renders t in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
