package models

import "strings"

// MediaType is the persisted file type. The set is closed: every value outside
// the constants below is a contract violation.
type MediaType string

const (
	MediaPDF   MediaType = "pdf"
	MediaTXT   MediaType = "txt"
	MediaDOC   MediaType = "doc"
	MediaJPG   MediaType = "jpg"
	MediaPNG   MediaType = "png"
	MediaMP3   MediaType = "mp3"
	MediaMP4   MediaType = "mp4"
	MediaOther MediaType = "other"
)

var mediaTypes = []MediaType{MediaPDF, MediaTXT, MediaDOC, MediaJPG, MediaPNG, MediaMP3, MediaMP4, MediaOther}

// AllMediaTypes returns the closed set in schema order.
func AllMediaTypes() []MediaType {
	out := make([]MediaType, len(mediaTypes))
	copy(out, mediaTypes)
	return out
}

// ParseMediaType accepts only members of the closed set.
func ParseMediaType(s string) (MediaType, bool) {
	for _, m := range mediaTypes {
		if string(m) == s {
			return m, true
		}
	}
	return "", false
}

// mimeRules are evaluated in order; the first match wins.
var mimeRules = []struct {
	needles []string
	media   MediaType
}{
	{[]string{"pdf"}, MediaPDF},
	{[]string{"text/plain"}, MediaTXT},
	{[]string{"word", "document"}, MediaDOC},
	{[]string{"jpeg", "jpg"}, MediaJPG},
	{[]string{"png"}, MediaPNG},
	{[]string{"mp3", "audio"}, MediaMP3},
	{[]string{"mp4", "video"}, MediaMP4},
}

// MediaTypeFromMIME maps a free-form declared MIME type onto the closed set.
// It is total: anything unrecognised is MediaOther.
func MediaTypeFromMIME(mime string) MediaType {
	lower := strings.ToLower(mime)
	for _, rule := range mimeRules {
		for _, needle := range rule.needles {
			if strings.Contains(lower, needle) {
				return rule.media
			}
		}
	}
	return MediaOther
}

// Thumbnailable reports whether a completed upload of this type gets a
// thumbnail job.
func (m MediaType) Thumbnailable() bool {
	switch m {
	case MediaPDF, MediaDOC, MediaMP4, MediaJPG, MediaPNG:
		return true
	}
	return false
}
