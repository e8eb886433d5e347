// Package hal abstracts the host boundary: the tick source driving
// the kernel. Tests bypass it and call Kernel.Step directly.
package hal

import "time"

// Clock delivers monotonically increasing tick sequence numbers.
type Clock interface {
	Ticks() <-chan uint64
	Stop()
}

// NewTicker returns a real-time clock firing hz times per second.
// limit > 0 closes the tick channel after that many ticks. Ticks the
// consumer fails to drain are dropped, not queued without bound.
func NewTicker(hz int, limit uint64) Clock {
	if hz <= 0 {
		hz = 100
	}
	c := &ticker{
		ch:   make(chan uint64, 1024),
		done: make(chan struct{}),
	}
	interval := time.Second / time.Duration(hz)
	if interval <= 0 {
		interval = time.Millisecond
	}
	go c.run(interval, limit)
	return c
}

type ticker struct {
	ch   chan uint64
	done chan struct{}
	seq  uint64
}

func (t *ticker) Ticks() <-chan uint64 { return t.ch }

func (t *ticker) Stop() {
	select {
	case <-t.done:
	default:
		close(t.done)
	}
}

func (t *ticker) run(interval time.Duration, limit uint64) {
	tk := time.NewTicker(interval)
	defer tk.Stop()
	defer close(t.ch)
	for {
		select {
		case <-t.done:
			return
		case <-tk.C:
			t.seq++
			select {
			case t.ch <- t.seq:
			default:
			}
			if limit > 0 && t.seq >= limit {
				return
			}
		}
	}
}
