package playback

import (
	"regexp"
	"strings"
)

var (
	bareVideoID     = regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`)
	videoIDPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?:youtube\.com/watch\?(?:[^#]*&)?v=|youtu\.be/|youtube\.com/embed/)([^&\n?#/]+)`),
		regexp.MustCompile(`youtube\.com/(?:v|shorts)/([^&\n?#/]+)`),
	}
)

// MediaID derives the stable identifier used to key persisted settings from a
// part reference. YouTube links collapse to their video id; anything else is
// used as given.
func MediaID(ref string) string {
	ref = strings.TrimSpace(ref)
	if bareVideoID.MatchString(ref) {
		return ref
	}
	for _, pattern := range videoIDPatterns {
		if m := pattern.FindStringSubmatch(ref); len(m) > 1 && m[1] != "" {
			return m[1]
		}
	}
	return ref
}
