package models

import "strings"

// SanitizeKeySegment escapes delimiter characters in rate limit key segments
// so an identifier containing ':' cannot address an adjacent bucket.
func SanitizeKeySegment(s string) string {
	return strings.ReplaceAll(s, ":", "_")
}

// BucketKey builds the sliding-window key for an endpoint class and client IP.
func BucketKey(class EndpointClass, ip string) string {
	return "rl:" + string(class) + ":" + SanitizeKeySegment(ip)
}

// CooldownKey normalizes an email into its cooldown slot key.
func CooldownKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SuspiciousKey builds the failure counter key for a client IP.
func SuspiciousKey(ip string) string {
	return "sus:" + SanitizeKeySegment(ip)
}
