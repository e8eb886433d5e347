// Package shell is the interactive console consumer: a minimal
// command interpreter fed by the console router's shell pipe.
package shell

import (
	"strconv"
	"strings"

	"advos/kernel"
	"advos/linebuf"
	"advos/tasks/cpubound"
	"advos/tasks/iobound"
	"advos/tasks/mixed"
)

const prompt = "$ "

// Service interprets one command per line. Bad input is reported and
// never fatal; the shell exits only when its input pipe closes.
type Service struct {
	in  kernel.Handle
	asm *linebuf.Assembler

	inbuf    []byte
	scratch  [128]byte
	waiting  bool
	prompted bool
}

// New creates the shell reading from in.
func New(in kernel.Handle, lineMax int) *Service {
	if lineMax <= 0 {
		lineMax = 256
	}
	return &Service{in: in, asm: linebuf.New(lineMax)}
}

func (s *Service) Step(ctx *kernel.Context) {
	if s.waiting {
		pid, reaped, blocked := ctx.Wait()
		if blocked {
			return
		}
		s.waiting = false
		if reaped {
			ctx.Printf("sh: pid %d exited\n", pid)
		} else {
			ctx.Print("sh: no children\n")
		}
		s.prompt(ctx)
	}
	if !s.prompted {
		s.prompt(ctx)
	}
	if !s.drain(ctx) {
		return
	}

	n, ok := ctx.Read(s.in, s.scratch[:])
	if !ok {
		ctx.Exit(0)
		return
	}
	if n == 0 {
		return
	}
	s.inbuf = append(s.inbuf, s.scratch[:n]...)
	s.drain(ctx)
}

// drain executes buffered complete lines. Returns false if a command
// blocked (wait); remaining input stays buffered.
func (s *Service) drain(ctx *kernel.Context) bool {
	for len(s.inbuf) > 0 {
		c := s.inbuf[0]
		s.inbuf = s.inbuf[1:]
		line, out := s.asm.Feed(c)
		if out == linebuf.None {
			continue
		}
		s.exec(ctx, string(line))
		if s.waiting {
			return false
		}
		s.prompt(ctx)
	}
	return true
}

func (s *Service) prompt(ctx *kernel.Context) {
	ctx.Print(prompt)
	s.prompted = true
}

func (s *Service) exec(ctx *kernel.Context, line string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}
	switch fields[0] {
	case "help":
		ctx.Print("commands: ps uptime spawn advice wait echo help\n")
	case "ps":
		ctx.Print("  PID STATE     NAME          CPU   WAIT   IO RECENT\n")
		for _, p := range ctx.Procs() {
			ctx.Printf("%5d %-9s %-10s %6d %6d %4d %6d\n",
				p.PID, p.State, p.Name, p.CPUTicks, p.WaitTicks, p.IOCount, p.RecentCPU)
		}
	case "uptime":
		ctx.Printf("%d ticks\n", ctx.Uptime())
	case "echo":
		ctx.Print(strings.Join(fields[1:], " ") + "\n")
	case "spawn":
		s.spawn(ctx, fields[1:])
	case "advice":
		s.advice(ctx, fields[1:])
	case "wait":
		s.waiting = true
	default:
		ctx.Printf("sh: unknown command: %s\n", fields[0])
	}
}

func (s *Service) spawn(ctx *kernel.Context, args []string) {
	if len(args) == 0 {
		ctx.Print("usage: spawn cpu|io|mixed\n")
		return
	}
	var task kernel.Task
	switch args[0] {
	case "cpu":
		task = cpubound.New(200)
	case "io":
		task = iobound.New(50, 5)
	case "mixed":
		task = mixed.New(10, 8, 4)
	default:
		ctx.Printf("sh: unknown workload: %s\n", args[0])
		return
	}
	pid, err := ctx.Spawn(args[0], task)
	if err != nil {
		ctx.Printf("sh: spawn failed: %v\n", err)
		return
	}
	ctx.Printf("started %s (pid %d)\n", args[0], pid)
}

func (s *Service) advice(ctx *kernel.Context, args []string) {
	if len(args) == 0 {
		ctx.Print("usage: advice <pid>\n")
		return
	}
	pid, err := strconv.Atoi(args[0])
	if err != nil {
		ctx.Printf("sh: bad pid: %s\n", args[0])
		return
	}
	if err := ctx.SubmitAdvice(kernel.PID(pid)); err != nil {
		ctx.Printf("sh: %v\n", err)
		return
	}
	ctx.Printf("advice recorded for pid %d\n", pid)
}
