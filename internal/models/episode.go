package models

import (
	"slices"
	"time"
)

// Episode represents the resolved metadata exposed for a single audio file.
type Episode struct {
	Path              string    `json:"-"`
	Filename          string    `json:"filename"`
	RelativeDirectory string    `json:"relative_directory"`
	Title             string    `json:"title"`
	Timestamp         time.Time `json:"timestamp"`
	SizeBytes         int64     `json:"size_bytes"`
	DurationSeconds   *int      `json:"duration_seconds,omitempty"`
	MimeType          *string   `json:"mime_type,omitempty"`
	CoverImageURL     *string   `json:"cover_image_url,omitempty"`
	PublicURL         string    `json:"public_url"`
}

// Channel is the podcast-level container for an ordered set of episodes.
type Channel struct {
	RootDirectory string
	RootURL       string
	Title         string
	Link          string
	Description   string
	Language      string
	Author        string
	ImageURL      *string
	Episodes      []Episode
}

// CompareEpisodes orders episodes by ascending timestamp.
func CompareEpisodes(a, b Episode) int {
	return a.Timestamp.Compare(b.Timestamp)
}

// SortEpisodes sorts in place by timestamp. Equal timestamps keep their
// enumeration order.
func SortEpisodes(episodes []Episode) {
	slices.SortStableFunc(episodes, CompareEpisodes)
}

// LatestTimestamp returns the newest episode timestamp, or the zero time when
// the slice is empty.
func LatestTimestamp(episodes []Episode) time.Time {
	var latest time.Time
	for _, ep := range episodes {
		if ep.Timestamp.After(latest) {
			latest = ep.Timestamp
		}
	}
	return latest
}
