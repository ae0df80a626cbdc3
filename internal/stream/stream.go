// Package stream provides pull-based lazy sequences and the operators the
// occupancy pipeline is built from.
//
// A Stream computes its next element only when Next is called. Producers
// hold at most a cursor between pulls, so a consumer may stop pulling at any
// point without draining or closing anything; this is what makes unbounded
// recurrence sequences safe to feed through Merge and Union.
package stream

import "iter"

// Stream is a lazily evaluated sequence. Next returns the following element
// and true, or the zero value and false once the sequence is exhausted.
// Exhausted streams keep returning false.
type Stream[T any] interface {
	Next() (T, bool)
}

// Func adapts a closure to the Stream interface.
type Func[T any] func() (T, bool)

// Next calls f.
func (f Func[T]) Next() (T, bool) { return f() }

// Empty returns a stream with no elements.
func Empty[T any]() Stream[T] {
	return Func[T](func() (T, bool) {
		var zero T
		return zero, false
	})
}

// Of returns a finite stream over the given items. The slice is not copied.
func Of[T any](items ...T) Stream[T] {
	idx := 0
	return Func[T](func() (T, bool) {
		if idx >= len(items) {
			var zero T
			return zero, false
		}
		item := items[idx]
		idx++
		return item, true
	})
}

// TakeWhile yields elements of s until keep reports false for one of them.
// The rejected element is consumed and s is not pulled again.
func TakeWhile[T any](s Stream[T], keep func(T) bool) Stream[T] {
	stopped := false
	return Func[T](func() (T, bool) {
		var zero T
		if stopped {
			return zero, false
		}
		item, ok := s.Next()
		if !ok || !keep(item) {
			stopped = true
			return zero, false
		}
		return item, true
	})
}

// Take pulls at most n elements from s.
func Take[T any](s Stream[T], n int) []T {
	out := make([]T, 0, max(n, 0))
	for len(out) < n {
		item, ok := s.Next()
		if !ok {
			break
		}
		out = append(out, item)
	}
	return out
}

// Collect drains s. It must only be used on streams known to be finite.
func Collect[T any](s Stream[T]) []T {
	var out []T
	for item, ok := s.Next(); ok; item, ok = s.Next() {
		out = append(out, item)
	}
	return out
}

// All exposes s as a range-over-func sequence. Breaking out of the loop simply
// stops pulling.
func All[T any](s Stream[T]) iter.Seq[T] {
	return func(yield func(T) bool) {
		for item, ok := s.Next(); ok; item, ok = s.Next() {
			if !yield(item) {
				return
			}
		}
	}
}
