package observability

import "strings"

// MeterFilter reports whether a series must be denied. Filters are pure: the
// same id always yields the same answer.
type MeterFilter func(id MeterID) bool

// DenyURIPrefix denies every series tagged with a uri that starts with prefix.
func DenyURIPrefix(prefix string) MeterFilter {
	return func(id MeterID) bool {
		uri, ok := id.Label("uri")
		return ok && strings.HasPrefix(uri, prefix)
	}
}

// Denied reports whether any of filters denies id.
func Denied(id MeterID, filters []MeterFilter) bool {
	for _, f := range filters {
		if f != nil && f(id) {
			return true
		}
	}
	return false
}
