package kernel

// scheduler picks the next Runnable slot each quantum. Advice is a
// hint, never a mandate: anything wrong with it (invalid, stale,
// target not Runnable) degrades silently to round-robin.
type scheduler struct {
	table     *Table
	advisory  *Advisory
	staleness uint64

	cursor int // slot index of the previous selection

	lastPID     PID
	lastAdvised bool
}

// pick runs one scheduling decision at tick now and returns the index
// of the selected slot. Caller holds Table.mu.
//
// The advisory tuple is copied out before the table is scanned; the
// advisory lock is released by then, so the two locks are never held
// together.
func (s *scheduler) pick(now uint64) (int, bool) {
	adv := s.advisory.Snapshot()
	if adv.Usable(now, s.staleness) {
		if i, ok := s.table.findRunnable(adv.PID); ok {
			s.cursor = i
			s.lastPID = s.table.slots[i].pid
			s.lastAdvised = true
			return i, true
		}
	}

	n := len(s.table.slots)
	for off := 1; off <= n; off++ {
		i := (s.cursor + off) % n
		if s.table.slots[i].state == StateRunnable {
			s.cursor = i
			s.lastPID = s.table.slots[i].pid
			s.lastAdvised = false
			return i, true
		}
	}
	return 0, false
}
