// Package attrs reads values back out of slog-style key/value lists.
package attrs

// ExtractString returns the string stored under key in a [k1, v1, k2, v2, ...]
// list, or "" when the key is absent or its value is not a string.
func ExtractString(list []any, key string) string {
	return ExtractFirst(list, key)
}

// ExtractFirst returns the first non-empty string value among keys, checked
// in order.
func ExtractFirst(list []any, keys ...string) string {
	for _, key := range keys {
		for i := 0; i+1 < len(list); i += 2 {
			if k, ok := list[i].(string); ok && k == key {
				if v, ok := list[i+1].(string); ok && v != "" {
					return v
				}
			}
		}
	}
	return ""
}
