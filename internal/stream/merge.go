package stream

import (
	"container/heap"

	"github.com/example/occupancy-scheduler/internal/interval"
)

// head is the buffered next element of one source, tagged with the source's
// registration index so equal values keep input order.
type head[T any] struct {
	value  T
	source int
}

// headHeap is a min-heap of source heads. Implements container/heap.Interface.
type headHeap[T any] struct {
	items []head[T]
	cmp   func(a, b T) int
}

func (h *headHeap[T]) Len() int { return len(h.items) }

func (h *headHeap[T]) Less(i, j int) bool {
	if c := h.cmp(h.items[i].value, h.items[j].value); c != 0 {
		return c < 0
	}
	return h.items[i].source < h.items[j].source
}

func (h *headHeap[T]) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }

func (h *headHeap[T]) Push(x any) { h.items = append(h.items, x.(head[T])) }

func (h *headHeap[T]) Pop() any {
	old := h.items
	entry := old[len(old)-1]
	h.items = old[:len(old)-1]
	return entry
}

type merger[T any] struct {
	sources []Stream[T]
	heads   headHeap[T]
	primed  bool
}

// Merge combines ascending sources into one ascending stream containing every
// element of every source. Elements comparing equal are emitted in source
// registration order; duplicates are kept. Nothing is pulled from any source
// until the merged stream itself is pulled.
func Merge[T any](cmp func(a, b T) int, sources ...Stream[T]) Stream[T] {
	return &merger[T]{
		sources: append([]Stream[T](nil), sources...),
		heads:   headHeap[T]{cmp: cmp},
	}
}

// MergeIntervals merges ascending interval streams ordered by start, then end.
func MergeIntervals(sources ...Stream[interval.Interval]) Stream[interval.Interval] {
	return Merge(interval.Compare, sources...)
}

func (m *merger[T]) prime() {
	m.primed = true
	m.heads.items = make([]head[T], 0, len(m.sources))
	for idx, src := range m.sources {
		if src == nil {
			continue
		}
		value, ok := src.Next()
		if !ok {
			m.sources[idx] = nil
			continue
		}
		m.heads.items = append(m.heads.items, head[T]{value: value, source: idx})
	}
	heap.Init(&m.heads)
}

// Next yields the smallest buffered head and refills it from the same source.
func (m *merger[T]) Next() (T, bool) {
	if !m.primed {
		m.prime()
	}
	if m.heads.Len() == 0 {
		var zero T
		return zero, false
	}

	top := m.heads.items[0]
	if value, ok := m.sources[top.source].Next(); ok {
		m.heads.items[0].value = value
		heap.Fix(&m.heads, 0)
	} else {
		m.sources[top.source] = nil
		heap.Pop(&m.heads)
	}
	return top.value, true
}
