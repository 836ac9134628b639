// Package analytics aggregates detection records into size-category counts
// and map entries for the dashboard.
package analytics

import (
	"encoding/json"
	"strings"

	"github.com/JaimeStill/sightline/internal/detections"
	"github.com/JaimeStill/sightline/internal/geo"
)

// Category is a detection size bucket.
type Category string

const (
	Small     Category = "small"
	Medium    Category = "medium"
	Large     Category = "large"
	Unmatched Category = ""
)

var colors = map[Category]string{
	Small:     "#28a745",
	Medium:    "#ffc107",
	Large:     "#dc3545",
	Unmatched: "#6c757d",
}

// Resolver maps location text to coordinates.
type Resolver interface {
	Resolve(text string) geo.Coordinates
}

// Entry is one marker on the detection map.
type Entry struct {
	ID        string  `json:"id"`
	Filename  string  `json:"filename"`
	Detected  string  `json:"detected"`
	Timestamp string  `json:"timestamp"`
	Location  *string `json:"location"`
	Incharge  *string `json:"incharge"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	Color     string  `json:"color"`
}

// Summary holds the aggregated view of all records.
type Summary struct {
	Small   int     `json:"small"`
	Medium  int     `json:"medium"`
	Large   int     `json:"large"`
	Entries []Entry `json:"entries"`
}

// Categorize returns the first of small, medium and large that appears in
// detected, case-insensitively, or Unmatched.
func Categorize(detected string) Category {
	lower := strings.ToLower(detected)
	for _, c := range []Category{Small, Medium, Large} {
		if strings.Contains(lower, string(c)) {
			return c
		}
	}
	return Unmatched
}

// Color returns the marker color for c.
func Color(c Category) string {
	return colors[c]
}

// Aggregate counts records per category and builds one map entry per record,
// preserving record order.
func Aggregate(records []detections.Record, resolver Resolver) Summary {
	s := Summary{Entries: make([]Entry, 0, len(records))}

	for _, rec := range records {
		cat := Categorize(rec.DetectedClasses)
		switch cat {
		case Small:
			s.Small++
		case Medium:
			s.Medium++
		case Large:
			s.Large++
		}

		coords := resolver.Resolve(rec.LocationText())
		s.Entries = append(s.Entries, Entry{
			ID:        rec.ID.String(),
			Filename:  rec.Filename,
			Detected:  rec.DetectedClasses,
			Timestamp: rec.Timestamp,
			Location:  rec.Location,
			Incharge:  rec.Incharge,
			Lat:       coords.Lat,
			Lon:       coords.Lon,
			Color:     Color(cat),
		})
	}

	return s
}

// Chart returns the counts in chart order: small, medium, large.
func (s Summary) Chart() []int {
	return []int{s.Small, s.Medium, s.Large}
}

// MapJSON returns the entries as a JSON array.
func (s Summary) MapJSON() string {
	entries := s.Entries
	if entries == nil {
		entries = []Entry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return "[]"
	}
	return string(data)
}
