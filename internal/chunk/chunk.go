// Package chunk splits sequences into bounded groups so that no single
// statement exceeds the backing store's bound-parameter limit.
//
// The final group is simply shorter. Nothing is padded, so zero values
// (an offset of 0, an empty string) are never mistaken for filler.
package chunk

import (
	"fmt"
	"iter"
)

// Seq groups items into slices of exactly size elements; the last slice
// holds the remainder. Each group is a fresh slice the caller may keep.
// It panics if size < 1.
func Seq[T any](items iter.Seq[T], size int) iter.Seq[[]T] {
	mustPositive(size)
	return func(yield func([]T) bool) {
		group := make([]T, 0, size)
		for item := range items {
			group = append(group, item)
			if len(group) == size {
				if !yield(group) {
					return
				}
				group = make([]T, 0, size)
			}
		}
		if len(group) > 0 {
			yield(group)
		}
	}
}

// Slice is Seq over a slice. Groups are copies, not views into items.
func Slice[T any](items []T, size int) iter.Seq[[]T] {
	mustPositive(size)
	return func(yield func([]T) bool) {
		for start := 0; start < len(items); start += size {
			end := min(start+size, len(items))
			group := make([]T, end-start)
			copy(group, items[start:end])
			if !yield(group) {
				return
			}
		}
	}
}

// Count reports how many groups n items produce.
func Count(n, size int) int {
	mustPositive(size)
	if n <= 0 {
		return 0
	}
	return (n + size - 1) / size
}

func mustPositive(size int) {
	if size < 1 {
		panic(fmt.Sprintf("chunk: size must be positive, got %d", size))
	}
}
