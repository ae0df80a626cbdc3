package stream

import "github.com/example/occupancy-scheduler/internal/interval"

type union struct {
	src    Stream[interval.Interval]
	acc    interval.Interval
	active bool
	done   bool
}

// Union collapses an ascending-by-start interval stream into the maximal
// disjoint intervals covering the same points. Intervals merge when the next
// start is not after the accumulated end, so touching intervals join. Only
// the current accumulator is held between pulls.
func Union(src Stream[interval.Interval]) Stream[interval.Interval] {
	return &union{src: src}
}

func (u *union) Next() (interval.Interval, bool) {
	if u.done {
		return interval.Interval{}, false
	}
	if !u.active {
		first, ok := u.src.Next()
		if !ok {
			u.done = true
			return interval.Interval{}, false
		}
		u.acc = first
		u.active = true
	}

	for {
		next, ok := u.src.Next()
		if !ok {
			u.done = true
			return u.acc, true
		}
		if next.Start.After(u.acc.End) {
			out := u.acc
			u.acc = next
			return out, true
		}
		u.acc.End = interval.Later(u.acc.End, next.End)
	}
}
