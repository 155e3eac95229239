package engine

import "time"

// --- YouTube search types ---

// WatchURLPrefix is prepended to a video ID to build its watch link.
const WatchURLPrefix = "https://www.youtube.com/watch?v="

// WatchURL returns the canonical watch link for a video ID.
func WatchURL(videoID string) string {
	return WatchURLPrefix + videoID
}

// VideoRef is a lightweight search hit before resolution.
type VideoRef struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
}

// CandidateRecord is one fully resolved search hit.
type CandidateRecord struct {
	Title      string    `json:"title"`
	Uploader   string    `json:"uploader"`
	UploadDate time.Time `json:"upload_date"` // zero when the platform did not report one
	VideoID    string    `json:"video_id"`
	URL        string    `json:"url"`
}

// HasUploadDate reports whether the platform supplied an upload date.
func (r CandidateRecord) HasUploadDate() bool {
	return !r.UploadDate.IsZero()
}

// Match is a candidate that passed relevance, recency and novelty checks.
type Match struct {
	Title      string    `json:"title"`
	Uploader   string    `json:"uploader"`
	URL        string    `json:"url"`
	UploadDate time.Time `json:"upload_date"`
	FoundAt    time.Time `json:"found_at"`
}
