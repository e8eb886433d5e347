package kernel

import (
	"context"
	"io"
)

const (
	defaultMaxProcs         = 64
	defaultSnapshotInterval = 20
	defaultStalenessWindow  = 60
	defaultPipeCapacity     = 1024
)

// Options configure a kernel instance. Zero fields take defaults.
type Options struct {
	// MaxProcs is the number of process-table slots.
	MaxProcs int
	// SnapshotInterval is the tick period of the accounting snapshot
	// block; it also defines the recent-CPU decay epoch.
	SnapshotInterval uint64
	// StalenessWindow is the maximum tick age at which advice may
	// still steer a scheduling decision.
	StalenessWindow uint64
	// Console receives process output and snapshot blocks. Defaults
	// to discarding.
	Console io.Writer
}

// Kernel is a tick-driven cooperative kernel: a process table, an
// advisory-biased scheduler, byte pipes, and a periodic accounting
// snapshot. All process state changes happen on the goroutine calling
// Step; the host may concurrently write into pipes, which carry their
// own locks.
type Kernel struct {
	table    *Table
	advisory *Advisory
	sched    *scheduler
	snap     *snapshotLogger
	console  io.Writer
	tick     uint64
}

// New creates a kernel.
func New(opts Options) *Kernel {
	if opts.MaxProcs <= 0 {
		opts.MaxProcs = defaultMaxProcs
	}
	if opts.SnapshotInterval == 0 {
		opts.SnapshotInterval = defaultSnapshotInterval
	}
	if opts.StalenessWindow == 0 {
		opts.StalenessWindow = defaultStalenessWindow
	}
	console := opts.Console
	if console == nil {
		console = io.Discard
	}

	t := NewTable(opts.MaxProcs)
	adv := &Advisory{}
	return &Kernel{
		table:    t,
		advisory: adv,
		sched:    &scheduler{table: t, advisory: adv, staleness: opts.StalenessWindow, cursor: opts.MaxProcs - 1},
		snap:     &snapshotLogger{interval: opts.SnapshotInterval, w: console},
		console:  console,
	}
}

// Spawn creates a detached process (no waiting parent; the kernel
// reaps it once it exits).
func (k *Kernel) Spawn(name string, task Task) (PID, error) {
	return k.spawn(name, task, 0)
}

func (k *Kernel) spawn(name string, task Task, parent PID) (PID, error) {
	k.table.mu.Lock()
	defer k.table.mu.Unlock()
	return k.table.alloc(name, task, parent)
}

// NewPipe allocates a pipe and returns a handle carrying both rights;
// restrict it before handing it to a service.
func (k *Kernel) NewPipe(capacity int) Handle {
	if capacity <= 0 {
		capacity = defaultPipeCapacity
	}
	return Handle{p: newPipe(capacity), rights: RightRead | RightWrite}
}

// Advisory exposes the advisory singleton for privileged callers
// outside the task context (boot wiring, tests).
func (k *Kernel) Advisory() *Advisory { return k.advisory }

// Now returns the current tick count.
func (k *Kernel) Now() uint64 { return k.tick }

// LastScheduled reports the pid selected by the most recent decision
// and whether advice steered it. Zero pid means nothing has run.
func (k *Kernel) LastScheduled() (PID, bool) {
	return k.sched.lastPID, k.sched.lastAdvised
}

// Procs returns a copied-out view of every occupied slot.
func (k *Kernel) Procs() []ProcInfo { return k.table.infos() }

// LiveProcs counts processes that are neither Unused nor Zombie.
func (k *Kernel) LiveProcs() int {
	k.table.mu.Lock()
	defer k.table.mu.Unlock()
	return k.table.liveCount()
}

// Step advances the kernel by one timer tick and runs at most one
// quantum. Returns whether a process was dispatched.
//
// Per-tick order: wake sleepers, scheduling decision (advice gated,
// round-robin fallback), timer accounting for the running process and
// every Runnable one, epoch fold on the snapshot boundary, the task's
// quantum, transition settlement, orphan reaping, snapshot emission.
func (k *Kernel) Step() bool {
	k.tick++
	t := k.table

	t.mu.Lock()
	k.wakeSleepers()
	idx, ok := k.sched.pick(k.tick)
	var run *proc
	if ok {
		run = &t.slots[idx]
		run.state = StateRunning
		t.chargeRun(run)
	}
	t.chargeWaiters()
	if k.snap.due(k.tick) {
		t.foldEpoch()
	}
	t.mu.Unlock()

	if run != nil {
		ctx := &Context{k: k, p: run}
		run.task.Step(ctx)
		k.settle(run, ctx)
	}

	t.mu.Lock()
	k.reapOrphans()
	t.mu.Unlock()

	k.snap.maybeEmit(k.tick, t)
	return run != nil
}

// Run drives Step from a tick source until the context is cancelled,
// the source closes, or no live process remains.
func (k *Kernel) Run(ctx context.Context, ticks <-chan uint64) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-ticks:
			if !ok {
				return nil
			}
			k.Step()
			if k.LiveProcs() == 0 {
				return nil
			}
		}
	}
}

// wakeSleepers re-checks every Sleeping process's wake condition.
// Poll-based so pipe code never has to reach back into the table.
// Caller holds Table.mu.
func (k *Kernel) wakeSleepers() {
	t := k.table
	for i := range t.slots {
		p := &t.slots[i]
		if p.state != StateSleeping {
			continue
		}
		wake := false
		switch p.block {
		case blockTick:
			wake = k.tick >= p.wakeTick
		case blockRead:
			wake = p.pipe != nil && p.pipe.readable()
		case blockWrite:
			wake = p.pipe != nil && p.pipe.writable(p.wantN)
		case blockChild:
			if _, ok := t.zombieChild(p.pid); ok {
				wake = true
			} else if !t.hasChild(p.pid) {
				wake = true
			}
		default:
			wake = true
		}
		if wake {
			p.state = StateRunnable
			p.block = blockNone
			p.pipe = nil
			p.wantN = 0
			p.wakeTick = 0
		}
	}
}

// settle applies the transition a task requested during its quantum.
func (k *Kernel) settle(run *proc, ctx *Context) {
	t := k.table
	t.mu.Lock()
	defer t.mu.Unlock()
	run.ioCount += ctx.ioDelta
	switch {
	case ctx.exited:
		run.state = StateZombie
		run.exitCode = ctx.exitCode
	case ctx.block != blockNone:
		run.state = StateSleeping
		run.block = ctx.block
		run.wakeTick = ctx.wakeTick
		run.pipe = ctx.pipe
		run.wantN = ctx.wantN
	default:
		run.state = StateRunnable
	}
}

// reapOrphans frees Zombie slots that no live parent will ever wait
// for. Caller holds Table.mu.
func (k *Kernel) reapOrphans() {
	t := k.table
	for i := range t.slots {
		p := &t.slots[i]
		if p.state == StateZombie && (p.parent <= 0 || !t.parentLive(p)) {
			t.free(p)
		}
	}
}
