package kernel

import (
	"errors"
	"sync"
)

// ErrAdviceRejected is returned by Submit for a non-positive PID.
// Whether the PID names a live Runnable process is not checked here;
// that validation is deferred to the scheduler at consumption time so
// the submit path stays lock-cheap.
var ErrAdviceRejected = errors.New("advice rejected: pid must be positive")

// Advice is a value copy of the advisory tuple. The tuple is either
// fully populated (Valid true, PID > 0, Tick set) or zero.
type Advice struct {
	PID   PID
	Valid bool
	Tick  uint64
}

// Usable reports whether the advice may steer the next scheduling
// decision at tick now: it must be valid and no older than window.
func (a Advice) Usable(now, window uint64) bool {
	return a.Valid && now-a.Tick <= window
}

// Advisory is the shared scheduling recommendation. Its mutex guards
// the tuple and nothing else; the process-table lock is never acquired
// while it is held. There is no clear operation: advice is replaced by
// the next Submit or goes stale past the staleness window.
type Advisory struct {
	mu  sync.Mutex
	cur Advice
}

// Submit atomically overwrites the advisory tuple with (pid, valid,
// now). Rejects pid <= 0 without touching the tuple.
func (a *Advisory) Submit(pid PID, now uint64) error {
	if pid <= 0 {
		return ErrAdviceRejected
	}
	a.mu.Lock()
	a.cur = Advice{PID: pid, Valid: true, Tick: now}
	a.mu.Unlock()
	return nil
}

// Snapshot returns a value copy of the tuple. This is the only read
// path, so a reader can never observe the tuple while still holding
// the advisory lock.
func (a *Advisory) Snapshot() Advice {
	a.mu.Lock()
	cur := a.cur
	a.mu.Unlock()
	return cur
}
