package ratelimit

import "strings"

// KeyForUser builds the limiter key for an account. Empty for anonymous
// callers, which the limiter treats as unlimited.
func KeyForUser(userID string) string {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ""
	}
	return "u:" + userID
}
