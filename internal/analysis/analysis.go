// Package analysis summarizes scheduler behavior from a console
// capture: it extracts snapshot blocks from the interleaved stream and
// reports per-process deltas and distribution statistics.
package analysis

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"gonum.org/v1/gonum/stat"

	"advos/proto"
)

// ProcSummary aggregates one pid across every snapshot it appears in.
type ProcSummary struct {
	PID       int
	Snapshots int

	// Deltas between the first and last snapshot containing the pid.
	CPUDelta  uint64
	WaitDelta uint64
	IODelta   uint64

	// Distribution of the decayed recent-CPU estimate.
	MeanRecent   float64
	StddevRecent float64
}

// Report is the result of analyzing one capture.
type Report struct {
	Blocks    int
	FirstTick uint64
	LastTick  uint64
	Procs     []ProcSummary
}

// Analyze parses every snapshot block in r and aggregates per pid.
func Analyze(r io.Reader) (*Report, error) {
	blocks, err := proto.ParseBlocks(r)
	if err != nil {
		return nil, fmt.Errorf("parse snapshot blocks: %w", err)
	}
	rep := &Report{Blocks: len(blocks)}
	if len(blocks) == 0 {
		return rep, nil
	}
	rep.FirstTick = blocks[0].Timestamp
	rep.LastTick = blocks[len(blocks)-1].Timestamp

	type series struct {
		first, last proto.ProcRow
		recent      []float64
		n           int
	}
	byPID := map[int]*series{}
	for _, b := range blocks {
		for _, row := range b.Rows {
			s, ok := byPID[row.PID]
			if !ok {
				s = &series{first: row}
				byPID[row.PID] = s
			}
			s.last = row
			s.recent = append(s.recent, float64(row.RecentCPU))
			s.n++
		}
	}

	for pid, s := range byPID {
		sum := ProcSummary{
			PID:        pid,
			Snapshots:  s.n,
			CPUDelta:   s.last.CPUTicks - s.first.CPUTicks,
			WaitDelta:  s.last.WaitTicks - s.first.WaitTicks,
			IODelta:    s.last.IOCount - s.first.IOCount,
			MeanRecent: stat.Mean(s.recent, nil),
		}
		if len(s.recent) > 1 {
			sum.StddevRecent = stat.StdDev(s.recent, nil)
		}
		rep.Procs = append(rep.Procs, sum)
	}
	sort.Slice(rep.Procs, func(i, j int) bool { return rep.Procs[i].PID < rep.Procs[j].PID })
	return rep, nil
}

// WriteText renders the report as an aligned table.
func (r *Report) WriteText(w io.Writer) error {
	fmt.Fprintf(w, "%d snapshot blocks, ticks %d..%d\n", r.Blocks, r.FirstTick, r.LastTick)
	if len(r.Procs) == 0 {
		return nil
	}
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PID\tSNAPS\tCPU+\tWAIT+\tIO+\tRECENT mean\tRECENT stddev")
	for _, p := range r.Procs {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%d\t%.1f\t%.1f\n",
			p.PID, p.Snapshots, p.CPUDelta, p.WaitDelta, p.IODelta, p.MeanRecent, p.StddevRecent)
	}
	return tw.Flush()
}
