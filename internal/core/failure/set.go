package failure

import "strings"

// Set is the collection of failure kinds an executor treats as retryable.
// The zero value matches nothing.
type Set struct {
	any   bool
	kinds []Kind
}

// Any matches every non-nil error, classified or not.
func Any() Set {
	return Set{any: true}
}

// Of matches classified failures whose kind descends from one of kinds.
func Of(kinds ...Kind) Set {
	return Set{kinds: append([]Kind(nil), kinds...)}
}

// Match reports whether err is a member of the set.
func (s Set) Match(err error) bool {
	if err == nil {
		return false
	}
	if s.any {
		return true
	}
	k, ok := KindOf(err)
	if !ok {
		return false
	}
	for _, want := range s.kinds {
		if k.IsA(want) {
			return true
		}
	}
	return false
}

// IsAny reports whether the set is the catch-all.
func (s Set) IsAny() bool {
	return s.any
}

// Kinds returns the configured kinds in order.
func (s Set) Kinds() []Kind {
	return append([]Kind(nil), s.kinds...)
}

func (s Set) String() string {
	if s.any {
		return "any"
	}
	names := make([]string, len(s.kinds))
	for i, k := range s.kinds {
		names[i] = k.String()
	}
	return "[" + strings.Join(names, ",") + "]"
}
