package kernel

import (
	"errors"
	"sync"
)

// ErrTableFull is returned by Spawn when every slot is occupied.
var ErrTableFull = errors.New("process table full")

// Table is the process table. One mutex guards every slot's state and
// accounting fields; it is never held across a task Step and never
// acquired while the advisory lock is held.
type Table struct {
	mu      sync.Mutex
	slots   []proc
	nextPID PID
}

// NewTable creates a table with n slots.
func NewTable(n int) *Table {
	if n < 1 {
		n = 1
	}
	return &Table{slots: make([]proc, n), nextPID: 1}
}

// alloc claims an Unused slot: Unused -> Embryo while the slot is
// initialized and its accounting zeroed, then Runnable. Caller holds mu.
func (t *Table) alloc(name string, task Task, parent PID) (PID, error) {
	for i := range t.slots {
		p := &t.slots[i]
		if p.state != StateUnused {
			continue
		}
		pid := t.nextPID
		t.nextPID++
		*p = proc{pid: pid, name: name, state: StateEmbryo, parent: parent, task: task}
		p.state = StateRunnable
		return pid, nil
	}
	return 0, ErrTableFull
}

// free reclaims a slot. Caller holds mu.
func (t *Table) free(p *proc) {
	*p = proc{}
}

// findRunnable returns the slot index for pid if that slot is exactly
// Runnable. Caller holds mu.
func (t *Table) findRunnable(pid PID) (int, bool) {
	if pid <= 0 {
		return 0, false
	}
	for i := range t.slots {
		p := &t.slots[i]
		if p.pid == pid && p.state == StateRunnable {
			return i, true
		}
	}
	return 0, false
}

// byPID returns the slot holding a live or zombie process with pid.
// Caller holds mu.
func (t *Table) byPID(pid PID) (*proc, bool) {
	if pid <= 0 {
		return nil, false
	}
	for i := range t.slots {
		p := &t.slots[i]
		if p.state != StateUnused && p.pid == pid {
			return p, true
		}
	}
	return nil, false
}

// liveCount counts slots that are neither Unused nor Zombie.
// Caller holds mu.
func (t *Table) liveCount() int {
	n := 0
	for i := range t.slots {
		if t.slots[i].live() {
			n++
		}
	}
	return n
}

// zombieChild returns a Zombie slot whose parent is pid. Caller holds mu.
func (t *Table) zombieChild(pid PID) (*proc, bool) {
	for i := range t.slots {
		p := &t.slots[i]
		if p.state == StateZombie && p.parent == pid {
			return p, true
		}
	}
	return nil, false
}

// hasChild reports whether any non-Unused slot names pid as parent.
// Caller holds mu.
func (t *Table) hasChild(pid PID) bool {
	for i := range t.slots {
		p := &t.slots[i]
		if p.state != StateUnused && p.parent == pid {
			return true
		}
	}
	return false
}

// parentLive reports whether the parent of p still occupies a live slot.
// Caller holds mu.
func (t *Table) parentLive(p *proc) bool {
	if p.parent <= 0 {
		return false
	}
	for i := range t.slots {
		q := &t.slots[i]
		if q.pid == p.parent && q.live() {
			return true
		}
	}
	return false
}

// infos copies out every non-Unused slot in slot order.
func (t *Table) infos() []ProcInfo {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []ProcInfo
	for i := range t.slots {
		p := &t.slots[i]
		if p.state == StateUnused {
			continue
		}
		out = append(out, ProcInfo{
			PID:       p.pid,
			Name:      p.name,
			State:     p.state,
			CPUTicks:  p.cpuTicks,
			WaitTicks: p.waitTicks,
			IOCount:   p.ioCount,
			RecentCPU: p.recentCPU,
		})
	}
	return out
}
