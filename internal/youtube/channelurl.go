package youtube

import (
	"regexp"
	"strings"
)

var channelURLPatterns = []*regexp.Regexp{
	regexp.MustCompile(`youtube\.com/channel/(UC[a-zA-Z0-9_-]{22})`),
	regexp.MustCompile(`youtube\.com/@([a-zA-Z0-9_.-]+)`),
	regexp.MustCompile(`youtube\.com/c/([a-zA-Z0-9_-]+)`),
	regexp.MustCompile(`youtube\.com/user/([a-zA-Z0-9_-]+)`),
}

// IsChannelID reports whether s has the shape of a canonical channel id.
func IsChannelID(s string) bool {
	return len(s) == 24 && strings.HasPrefix(s, "UC")
}

// ParseChannelURL extracts the channel identifier from a channel URL. The
// result is either a canonical channel id or a handle/custom name that
// still needs resolving through a channel search.
func ParseChannelURL(raw string) (identifier string, ok bool) {
	raw = strings.TrimSpace(raw)
	for _, re := range channelURLPatterns {
		if m := re.FindStringSubmatch(raw); m != nil {
			return m[1], true
		}
	}
	return "", false
}
