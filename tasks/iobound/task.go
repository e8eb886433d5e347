// Package iobound is a synthetic workload that alternates a sliver of
// work with a timed pause, keeping its IO count high and CPU low.
package iobound

import "advos/kernel"

// Task pauses for pause ticks between cycles of minimal work.
type Task struct {
	cycles int
	pause  uint64
}

// New creates a workload that performs cycles pause/work rounds.
func New(cycles int, pause uint64) *Task {
	if cycles < 1 {
		cycles = 1
	}
	if pause == 0 {
		pause = 1
	}
	return &Task{cycles: cycles, pause: pause}
}

func (t *Task) Step(ctx *kernel.Context) {
	t.cycles--
	if t.cycles <= 0 {
		ctx.Printf("iobound: pid %d done\n", ctx.PID())
		ctx.Exit(0)
		return
	}
	ctx.Pause(t.pause)
}
