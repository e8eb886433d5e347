package kernel

import (
	"io"

	"advos/proto"
)

// snapshotLogger periodically serializes the process table onto the
// console stream as a self-delimiting block. The block is written with
// a single Write call so its lines stay contiguous even though the
// stream is shared with process output.
type snapshotLogger struct {
	interval uint64
	w        io.Writer
	buf      []byte
}

func (l *snapshotLogger) due(tick uint64) bool {
	return l.interval > 0 && tick%l.interval == 0
}

func (l *snapshotLogger) maybeEmit(tick uint64, t *Table) {
	if l.w == nil || !l.due(tick) {
		return
	}
	infos := t.infos()
	rows := make([]proto.ProcRow, 0, len(infos))
	for _, in := range infos {
		rows = append(rows, proto.ProcRow{
			PID:       int(in.PID),
			State:     in.State.Wire(),
			CPUTicks:  in.CPUTicks,
			WaitTicks: in.WaitTicks,
			IOCount:   in.IOCount,
			RecentCPU: in.RecentCPU,
		})
	}
	l.buf = proto.AppendBlock(l.buf[:0], tick, rows)
	_, _ = l.w.Write(l.buf)
}
