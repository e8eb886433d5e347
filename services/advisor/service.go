// Package advisor receives forwarded advisory lines and performs the
// privileged call that updates the scheduler's advisory state.
package advisor

import (
	"advos/kernel"
	"advos/linebuf"
	"advos/proto"
)

// Service reads lines from its private pipe (fed exclusively by the
// console router), parses the advice grammar, and submits valid pids.
// Malformed lines are dropped silently: never fatal, never retried.
// The service terminates only when its input pipe closes.
type Service struct {
	in      kernel.Handle
	asm     *linebuf.Assembler
	scratch [128]byte
}

// New creates the injection service.
func New(in kernel.Handle, lineMax int) *Service {
	if lineMax <= 0 {
		lineMax = 256
	}
	return &Service{in: in, asm: linebuf.New(lineMax)}
}

func (s *Service) Step(ctx *kernel.Context) {
	n, ok := ctx.Read(s.in, s.scratch[:])
	if !ok {
		if line, out := s.asm.Flush(); out != linebuf.None {
			s.inject(ctx, line)
		}
		ctx.Exit(0)
		return
	}
	if n == 0 {
		return
	}
	for _, c := range s.scratch[:n] {
		line, out := s.asm.Feed(c)
		if out == linebuf.None {
			continue
		}
		s.inject(ctx, line)
	}
}

func (s *Service) inject(ctx *kernel.Context, line []byte) {
	pid, ok := proto.ParseAdvice(line)
	if !ok {
		return
	}
	if err := ctx.SubmitAdvice(kernel.PID(pid)); err != nil {
		ctx.Printf("advisor: failed to inject pid %d\n", pid)
		return
	}
	ctx.Printf("advisor: injected pid %d\n", pid)
}
