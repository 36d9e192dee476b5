package field

import "github.com/google/go-cmp/cmp"

// Equal reports whether two field trees are structurally identical:
// same types, names, paths, and values at every position.
func Equal(a, b Value) bool {
	return cmp.Equal(a, b)
}

// Diff returns a human-readable description of the first structural
// difference between a and b, or "" if they are equal.
func Diff(a, b Value) string {
	return cmp.Diff(a, b)
}
