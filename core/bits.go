package core

import "golang.org/x/exp/constraints"

// bit returns a mask with bit n set.
func bit[T constraints.Unsigned](n T) uint32 {
	return 1 << uint32(n)
}

// inRange reports whether v lies in [lo, hi].
func inRange[T constraints.Unsigned](v, lo, hi T) bool {
	return v >= lo && v <= hi
}
