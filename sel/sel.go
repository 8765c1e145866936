// Package sel implements collection selection filters.
package sel

import (
	"slices"
)

// Filter returns true if a collection is allowed.
type Filter func(coll string) bool

// AllowAll allows every collection.
func AllowAll(string) bool {
	return true
}

// MakeFilter builds a Filter from include and exclude collection lists.
// Exclusion takes precedence. A non-empty include list switches to
// whitelist logic: collections not listed are denied.
//
// The reserved system prefix is handled by the enumerator, not here; it
// cannot be bypassed by any filter.
func MakeFilter(include, exclude []string) Filter {
	if len(include) == 0 && len(exclude) == 0 {
		return AllowAll
	}

	return func(coll string) bool {
		if slices.Contains(exclude, coll) {
			return false
		}

		if len(include) > 0 {
			return slices.Contains(include, coll)
		}

		return true
	}
}
