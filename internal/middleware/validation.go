package middleware

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
)

// Field length limits matching database schema constraints.
const (
	MaxChannelIDLen = 32 // channels.id VARCHAR(32)
	MaxIDListLen    = 100
	MaxSearchLen    = 100
)

// channelIDRe matches YouTube channel IDs: alphanumeric, dash, underscore.
var channelIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ErrorResponse is a helper that returns a standard API error response.
func ErrorResponse(c fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    code,
			"message": message,
		},
	})
}

// ValidateChannelID checks that a channel ID is well-formed.
func ValidateChannelID(id string) (string, string) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", "channelId is required"
	}
	if len(id) > MaxChannelIDLen {
		return "", "channelId must be at most 32 characters"
	}
	if !channelIDRe.MatchString(id) {
		return "", "channelId contains invalid characters"
	}
	return id, ""
}

// ParseChannelIDList splits a comma-separated list of channel ids, dropping
// empty entries. An empty input yields a nil slice.
func ParseChannelIDList(raw string) ([]string, string) {
	if strings.TrimSpace(raw) == "" {
		return nil, ""
	}
	var ids []string
	for _, part := range strings.Split(raw, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		id, errMsg := ValidateChannelID(part)
		if errMsg != "" {
			return nil, errMsg
		}
		ids = append(ids, id)
	}
	if len(ids) > MaxIDListLen {
		return nil, fmt.Sprintf("at most %d channel ids allowed", MaxIDListLen)
	}
	return ids, ""
}

// SplitList splits a comma-separated query value into trimmed, non-empty,
// upper-cased parts.
func SplitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.ToUpper(strings.TrimSpace(part)); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ParseTimeParam parses an optional RFC3339 query value. Empty yields the
// zero time.
func ParseTimeParam(name, raw string) (time.Time, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, ""
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, name + " must be a valid RFC3339 timestamp"
	}
	return t, ""
}
