package proto

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// Snapshot block markers. A block is one self-delimited emission of
// the whole process table:
//
//	SCHED_LOG_START
//	TIMESTAMP:<tick>
//	PROC:<pid>,<state>,<cpu_ticks>,<wait_ticks>,<io_count>,<recent_cpu>
//	...
//	SCHED_LOG_END
//
// Blocks share the console stream with arbitrary process output; the
// markers let a consumer extract exactly the block's lines from the
// interleaved stream. Blocks never nest.
const (
	BlockStartMarker = "SCHED_LOG_START"
	BlockEndMarker   = "SCHED_LOG_END"

	timestampPrefix = "TIMESTAMP:"
	procPrefix      = "PROC:"
)

// ProcRow is one process line within a snapshot block. Field order is
// fixed; rows appear in slot order, stable enough for a consumer to
// diff successive snapshots by pid.
type ProcRow struct {
	PID       int
	State     int
	CPUTicks  uint64
	WaitTicks uint64
	IOCount   uint64
	RecentCPU uint64
}

// Block is one parsed snapshot.
type Block struct {
	Timestamp uint64
	Rows      []ProcRow
}

// AppendBlock appends one encoded snapshot block to dst and returns
// the extended slice. An empty rows slice yields a well-formed block
// whose start marker is immediately followed by the timestamp and end
// marker.
func AppendBlock(dst []byte, ts uint64, rows []ProcRow) []byte {
	dst = append(dst, BlockStartMarker...)
	dst = append(dst, '\n')
	dst = append(dst, timestampPrefix...)
	dst = strconv.AppendUint(dst, ts, 10)
	dst = append(dst, '\n')
	for _, r := range rows {
		dst = append(dst, procPrefix...)
		dst = strconv.AppendInt(dst, int64(r.PID), 10)
		dst = append(dst, ',')
		dst = strconv.AppendInt(dst, int64(r.State), 10)
		dst = append(dst, ',')
		dst = strconv.AppendUint(dst, r.CPUTicks, 10)
		dst = append(dst, ',')
		dst = strconv.AppendUint(dst, r.WaitTicks, 10)
		dst = append(dst, ',')
		dst = strconv.AppendUint(dst, r.IOCount, 10)
		dst = append(dst, ',')
		dst = strconv.AppendUint(dst, r.RecentCPU, 10)
		dst = append(dst, '\n')
	}
	dst = append(dst, BlockEndMarker...)
	dst = append(dst, '\n')
	return dst
}

// ParseBlocks extracts every complete snapshot block from a stream
// that may interleave arbitrary console text between (but not inside
// lines of) blocks. Unrecognized or malformed lines inside a block are
// skipped rather than failing the parse; a partial block at EOF is
// discarded. The only reported errors are reader failures.
func ParseBlocks(r io.Reader) ([]Block, error) {
	var blocks []Block
	var cur *Block

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if cur == nil {
			// An unterminated console write (a shell prompt, say) can end
			// up glued ahead of the start marker on the same line, so the
			// marker is accepted anywhere in it.
			if strings.Contains(line, BlockStartMarker) {
				cur = &Block{}
			}
			continue
		}
		switch {
		case strings.HasPrefix(line, BlockEndMarker):
			blocks = append(blocks, *cur)
			cur = nil
		case strings.HasPrefix(line, timestampPrefix):
			if ts, err := strconv.ParseUint(line[len(timestampPrefix):], 10, 64); err == nil {
				cur.Timestamp = ts
			}
		case strings.HasPrefix(line, procPrefix):
			if row, ok := parseProcRow(line[len(procPrefix):]); ok {
				cur.Rows = append(cur.Rows, row)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return blocks, nil
}

func parseProcRow(s string) (ProcRow, bool) {
	parts := strings.Split(s, ",")
	if len(parts) != 6 {
		return ProcRow{}, false
	}
	pid, err := strconv.Atoi(parts[0])
	if err != nil {
		return ProcRow{}, false
	}
	state, err := strconv.Atoi(parts[1])
	if err != nil {
		return ProcRow{}, false
	}
	var u [4]uint64
	for i := 0; i < 4; i++ {
		v, err := strconv.ParseUint(parts[2+i], 10, 64)
		if err != nil {
			return ProcRow{}, false
		}
		u[i] = v
	}
	return ProcRow{PID: pid, State: state, CPUTicks: u[0], WaitTicks: u[1], IOCount: u[2], RecentCPU: u[3]}, true
}
