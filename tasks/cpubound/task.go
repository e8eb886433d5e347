// Package cpubound is a synthetic workload that burns CPU quanta
// without ever blocking.
package cpubound

import "advos/kernel"

// Task consumes one full quantum per step for a fixed number of
// quanta, then exits.
type Task struct {
	remaining int
	sink      uint64
}

// New creates a workload that runs for iters quanta.
func New(iters int) *Task {
	if iters < 1 {
		iters = 1
	}
	return &Task{remaining: iters}
}

func (t *Task) Step(ctx *kernel.Context) {
	// A little arithmetic stands in for real work.
	for i := 0; i < 1024; i++ {
		t.sink = t.sink*1664525 + 1013904223
	}
	t.remaining--
	if t.remaining <= 0 {
		ctx.Printf("cpubound: pid %d done\n", ctx.PID())
		ctx.Exit(0)
	}
}
