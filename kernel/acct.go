package kernel

// Accounting hooks. All run on the kernel quantum path with Table.mu
// held: O(1) per slot, no allocation, no blocking, never fail.

// chargeRun credits one CPU tick to the running slot.
func (t *Table) chargeRun(p *proc) {
	p.cpuTicks++
	p.epochTicks++
}

// chargeWaiters credits one wait tick to every Runnable slot. Applied
// to the whole pool each timer tick so wait time is comparable across
// processes, not just the one that was selected.
func (t *Table) chargeWaiters() {
	for i := range t.slots {
		p := &t.slots[i]
		if p.state == StateRunnable {
			p.waitTicks++
		}
	}
}

// foldEpoch folds the per-epoch CPU accumulator into the decayed
// recent-CPU estimate: recent = recent/2 + ticks this epoch. Called
// once per epoch (the snapshot interval), not every tick.
func (t *Table) foldEpoch() {
	for i := range t.slots {
		p := &t.slots[i]
		if p.state == StateUnused {
			continue
		}
		p.recentCPU = p.recentCPU/2 + p.epochTicks
		p.epochTicks = 0
	}
}
