package options

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Ordinal bounds for the selection filters. Values outside these ranges are
// rejected and the filter falls back to FilterNone.
const (
	MaxGroupOrdinal   = 100
	MaxCaseOrdinal    = 100
	MaxSubtestOrdinal = 1000
)

// FilterKind discriminates the variants of a selection Filter.
type FilterKind int

const (
	// FilterNone matches everything.
	FilterNone FilterKind = iota
	// FilterOrdinal matches a single ordinal.
	FilterOrdinal
	// FilterName matches a name, optionally using glob syntax.
	FilterName
)

// Filter selects a single group, case or sub-test for a run. It is a tagged
// variant resolved once when the options are built; there is no state where
// both an ordinal and a name are set.
type Filter struct {
	kind    FilterKind
	ordinal int
	pattern string
}

// NoFilter returns the filter that matches everything.
func NoFilter() Filter {
	return Filter{}
}

// OrdinalFilter returns a filter matching the given ordinal. Ordinal 0 means
// "no filter". Ordinals outside [0, limit] are rejected.
func OrdinalFilter(ordinal, limit int) (Filter, error) {
	if ordinal < 0 || ordinal > limit {
		return Filter{}, fmt.Errorf("ordinal %d out of range [0, %d]", ordinal, limit)
	}
	if ordinal == 0 {
		return Filter{}, nil
	}
	return Filter{kind: FilterOrdinal, ordinal: ordinal}, nil
}

// NameFilter returns a filter matching the given name pattern. Patterns may
// use glob syntax (e.g. 'Array*'). An empty pattern means "no filter".
func NameFilter(pattern string) Filter {
	if pattern == "" {
		return Filter{}
	}
	return Filter{kind: FilterName, pattern: pattern}
}

// ParseFilter builds a filter from a command-line value. A value that parses
// as a non-negative integer selects by ordinal; anything else selects by
// name. An empty value means "no filter".
func ParseFilter(value string, limit int) (Filter, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Filter{}, nil
	}
	if n, err := strconv.Atoi(value); err == nil {
		return OrdinalFilter(n, limit)
	}
	return NameFilter(value), nil
}

// Kind returns the filter variant.
func (f Filter) Kind() FilterKind {
	return f.kind
}

// Ordinal returns the selected ordinal, or 0 when the filter is not an
// ordinal filter.
func (f Filter) Ordinal() int {
	return f.ordinal
}

// Pattern returns the selected name pattern, or "" when the filter is not a
// name filter.
func (f Filter) Pattern() string {
	return f.pattern
}

// Active reports whether the filter selects anything at all.
func (f Filter) Active() bool {
	return f.kind != FilterNone
}

// Matches reports whether the given (ordinal, name) identity passes the
// filter. An inactive filter matches everything.
func (f Filter) Matches(ordinal int, name string) bool {
	switch f.kind {
	case FilterOrdinal:
		return f.ordinal == ordinal
	case FilterName:
		ok, err := doublestar.Match(f.pattern, name)
		if err != nil {
			// Invalid glob patterns fall back to literal comparison.
			return f.pattern == name
		}
		return ok
	default:
		return true
	}
}

// String renders the filter for diagnostics.
func (f Filter) String() string {
	switch f.kind {
	case FilterOrdinal:
		return strconv.Itoa(f.ordinal)
	case FilterName:
		return f.pattern
	default:
		return "<none>"
	}
}
