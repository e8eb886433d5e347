// Package mixed is a synthetic workload alternating CPU bursts with
// timed pauses, in the spirit of a process doing interleaved compute
// and IO.
package mixed

import "advos/kernel"

// Task runs bursts of CPU quanta separated by pauses.
type Task struct {
	bursts   int
	burstLen int
	pause    uint64

	left int
	sink uint64
}

// New creates a workload with the given burst count, quanta per
// burst, and pause length in ticks.
func New(bursts, burstLen int, pause uint64) *Task {
	if bursts < 1 {
		bursts = 1
	}
	if burstLen < 1 {
		burstLen = 1
	}
	if pause == 0 {
		pause = 1
	}
	return &Task{bursts: bursts, burstLen: burstLen, pause: pause, left: burstLen}
}

func (t *Task) Step(ctx *kernel.Context) {
	for i := 0; i < 512; i++ {
		t.sink = t.sink*6364136223846793005 + 1442695040888963407
	}
	t.left--
	if t.left > 0 {
		return
	}
	t.bursts--
	if t.bursts <= 0 {
		ctx.Printf("mixed: pid %d done\n", ctx.PID())
		ctx.Exit(0)
		return
	}
	t.left = t.burstLen
	ctx.Pause(t.pause)
}
