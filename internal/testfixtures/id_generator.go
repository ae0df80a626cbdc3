package testfixtures

import (
	"fmt"
	"sync/atomic"
)

// IDGenerator yields "<prefix>-1", "<prefix>-2", ... and is safe for
// concurrent use.
type IDGenerator struct {
	prefix  string
	counter atomic.Uint64
}

// NewIDGenerator returns a generator for prefix, or "id" when prefix is empty.
func NewIDGenerator(prefix string) *IDGenerator {
	if prefix == "" {
		prefix = "id"
	}
	return &IDGenerator{prefix: prefix}
}

// Next returns the next identifier.
func (g *IDGenerator) Next() string {
	return fmt.Sprintf("%s-%d", g.prefix, g.counter.Add(1))
}

// NextFunc adapts the generator to func() string dependencies such as
// calendar.WithIDGenerator. A nil generator yields empty ids.
func (g *IDGenerator) NextFunc() func() string {
	if g == nil {
		return func() string { return "" }
	}
	return g.Next
}

// Reset restarts the sequence so the next identifier ends in 1.
func (g *IDGenerator) Reset() {
	g.counter.Store(0)
}
