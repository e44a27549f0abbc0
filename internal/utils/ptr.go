package utils

import "strings"

func Ptr[T any](v T) *T {
	return &v
}

func OrZero[T comparable](v *T) T {
	if v == nil {
		var zero T
		return zero
	}
	return *v
}

// Returns nil on an empty or all whitespace string
func StringOrNil(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Unique keeps the first occurrence of every value, in order.
func Unique[T comparable](values []T) []T {
	seen := make(map[T]struct{}, len(values))
	out := make([]T, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// FirstMissing returns the first wanted value that is not in have. ok is false
// when one is missing.
func FirstMissing[T comparable](wanted, have []T) (missing T, ok bool) {
	found := make(map[T]struct{}, len(have))
	for _, v := range have {
		found[v] = struct{}{}
	}
	for _, v := range wanted {
		if _, in := found[v]; !in {
			return v, false
		}
	}
	return missing, true
}
