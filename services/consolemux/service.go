// Package consolemux owns the only read handle on the console input
// device and splits the stream between the interactive shell and the
// advisory injection process, so neither can steal the other's input.
package consolemux

import (
	"advos/kernel"
	"advos/linebuf"
	"advos/proto"
)

// DefaultLineMax bounds line assembly when no capacity is configured.
const DefaultLineMax = 256

// Service is the console input router. Every byte read from the input
// pipe is forwarded to exactly one downstream pipe: assembled lines
// starting with the advisory prefix go to the advice pipe, everything
// else to the shell pipe. A line and its terminator are forwarded as
// one atomic write, so lines never interleave at the destination.
type Service struct {
	in     kernel.Handle
	shell  kernel.Handle
	advice kernel.Handle

	asm       *linebuf.Assembler
	inbuf     []byte
	pending   []byte
	pendingTo kernel.Handle
	eof       bool
	scratch   [128]byte
}

// New creates the router. lineMax bounds line assembly; an overlong
// line is truncated and forwarded rather than stalling input.
func New(in, shellOut, adviceOut kernel.Handle, lineMax int) *Service {
	if lineMax <= 0 {
		lineMax = DefaultLineMax
	}
	return &Service{
		in:     in,
		shell:  shellOut,
		advice: adviceOut,
		asm:    linebuf.New(lineMax),
	}
}

func (s *Service) Step(ctx *kernel.Context) {
	if s.pending != nil {
		if !ctx.Write(s.pendingTo, s.pending) {
			return
		}
		s.pending, s.pendingTo = nil, kernel.Handle{}
	}
	if !s.drain(ctx) {
		return
	}
	if s.eof {
		s.shutdown(ctx)
		return
	}

	n, ok := ctx.Read(s.in, s.scratch[:])
	switch {
	case !ok:
		// End of input: deliver any partial line, then terminate the
		// whole interactive session by closing both downstream pipes.
		s.eof = true
		if line, out := s.asm.Flush(); out != linebuf.None {
			if !s.forward(ctx, line) {
				return
			}
		}
		s.shutdown(ctx)
	case n == 0:
		// Blocked until input arrives.
	default:
		s.inbuf = append(s.inbuf, s.scratch[:n]...)
		if !s.drain(ctx) {
			return
		}
	}
}

// drain feeds buffered input through the assembler, forwarding each
// completed line. Returns false if a forward blocked on a full
// destination; the unconsumed input stays buffered for the retry.
func (s *Service) drain(ctx *kernel.Context) bool {
	for len(s.inbuf) > 0 {
		c := s.inbuf[0]
		s.inbuf = s.inbuf[1:]
		line, out := s.asm.Feed(c)
		if out == linebuf.None {
			continue
		}
		if !s.forward(ctx, line) {
			return false
		}
	}
	return true
}

func (s *Service) forward(ctx *kernel.Context, line []byte) bool {
	dst := s.shell
	if proto.IsAdviceLine(line) {
		dst = s.advice
	}
	msg := append(line, '\n')
	if !ctx.Write(dst, msg) {
		s.pending, s.pendingTo = msg, dst
		return false
	}
	return true
}

func (s *Service) shutdown(ctx *kernel.Context) {
	ctx.Close(s.shell)
	ctx.Close(s.advice)
	ctx.Exit(0)
}
