// Package boot assembles a complete system: kernel, console pipes,
// router, shell, advisor, and the configured synthetic workloads.
package boot

import (
	"fmt"
	"io"

	"advos/internal/config"
	"advos/kernel"
	"advos/services/advisor"
	"advos/services/consolemux"
	"advos/services/shell"
	"advos/tasks/cpubound"
	"advos/tasks/iobound"
	"advos/tasks/mixed"
)

// System is a booted kernel plus the write side of its console input
// device. The host feeds bytes through Input; everything downstream of
// it is routed inside the kernel.
type System struct {
	Kernel *kernel.Kernel
	Input  kernel.Handle
}

// New builds a system from cfg. Console receives process output and
// snapshot blocks.
func New(cfg *config.Config, console io.Writer) (*System, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	k := kernel.New(kernel.Options{
		MaxProcs:         cfg.MaxProcs,
		SnapshotInterval: cfg.SnapshotInterval,
		StalenessWindow:  cfg.StalenessWindow,
		Console:          console,
	})

	in := k.NewPipe(cfg.PipeCapacity)
	shellPipe := k.NewPipe(cfg.PipeCapacity)
	advicePipe := k.NewPipe(cfg.PipeCapacity)

	mux := consolemux.New(
		in.Restrict(kernel.RightRead),
		shellPipe.Restrict(kernel.RightWrite),
		advicePipe.Restrict(kernel.RightWrite),
		cfg.LineMax,
	)
	if _, err := k.Spawn("consolemux", mux); err != nil {
		return nil, fmt.Errorf("spawn consolemux: %w", err)
	}
	if _, err := k.Spawn("sh", shell.New(shellPipe.Restrict(kernel.RightRead), cfg.LineMax)); err != nil {
		return nil, fmt.Errorf("spawn shell: %w", err)
	}
	if _, err := k.Spawn("advisor", advisor.New(advicePipe.Restrict(kernel.RightRead), cfg.LineMax)); err != nil {
		return nil, fmt.Errorf("spawn advisor: %w", err)
	}

	for i, w := range cfg.Workloads {
		for n := 0; n < w.Count; n++ {
			if _, err := k.Spawn(w.Kind, newWorkload(w)); err != nil {
				return nil, fmt.Errorf("spawn workloads[%d] %s: %w", i, w.Kind, err)
			}
		}
	}

	return &System{Kernel: k, Input: in.Restrict(kernel.RightWrite)}, nil
}

func newWorkload(w config.Workload) kernel.Task {
	iters := w.Iters
	pause := w.Pause
	if pause == 0 {
		pause = 4
	}
	switch w.Kind {
	case "io":
		if iters <= 0 {
			iters = 100
		}
		return iobound.New(iters, pause)
	case "mixed":
		if iters <= 0 {
			iters = 20
		}
		return mixed.New(iters, 8, pause)
	default:
		if iters <= 0 {
			iters = 400
		}
		return cpubound.New(iters)
	}
}
