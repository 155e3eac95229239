package ledger

import (
	"strings"

	"github.com/anatolykoptev/ytwatch/internal/engine"
)

// Separator joins the fields of a key. The field order and separator are
// the on-disk format of the seen file and must not change.
const Separator = " | "

// UnknownUploader stands in for a missing uploader name.
const UnknownUploader = "Unknown author"

var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// Key builds the dedup key for an upload. It is pure: the same inputs
// always give the same key, in this process or any later one.
func Key(title, uploader, watchURL string) string {
	if strings.TrimSpace(uploader) == "" {
		uploader = UnknownUploader
	}
	return lineBreaks.Replace(title) + Separator +
		lineBreaks.Replace(uploader) + Separator +
		lineBreaks.Replace(watchURL)
}

// Set is an in-memory snapshot of seen keys.
type Set map[string]struct{}

// NewSet returns a set holding keys.
func NewSet(keys ...string) Set {
	s := make(Set, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

// Has reports whether key is in the set.
func (s Set) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// Add inserts key.
func (s Set) Add(key string) { s[key] = struct{}{} }

// Len returns the number of distinct keys.
func (s Set) Len() int { return len(s) }

// RecordKey builds the key for a resolved search hit. The watch link falls
// back to one derived from the video ID.
func RecordKey(rec engine.CandidateRecord) string {
	link := rec.URL
	if link == "" {
		link = engine.WatchURL(rec.VideoID)
	}
	return Key(rec.Title, rec.Uploader, link)
}
