package kernel

// PID identifies a live process. PIDs are unique while the process is
// live and are reused only after its slot is reclaimed.
type PID int

// State is the scheduling state of a process slot.
type State uint8

const (
	StateUnused State = iota
	StateEmbryo
	StateSleeping
	StateRunnable
	StateRunning
	StateZombie
)

func (s State) String() string {
	switch s {
	case StateUnused:
		return "unused"
	case StateEmbryo:
		return "embryo"
	case StateSleeping:
		return "sleeping"
	case StateRunnable:
		return "runnable"
	case StateRunning:
		return "running"
	case StateZombie:
		return "zombie"
	default:
		return "unknown"
	}
}

// Wire returns the numeric state code used in snapshot PROC lines.
func (s State) Wire() int { return int(s) }

// Task is a unit of execution. Step runs one scheduling quantum and
// must return; a task suspends by issuing a blocking call on the
// Context and returning, and is stepped again once it is woken.
type Task interface {
	Step(*Context)
}

type blockKind uint8

const (
	blockNone blockKind = iota
	blockTick
	blockRead
	blockWrite
	blockChild
)

// proc is one process-table slot. All fields are guarded by Table.mu
// except during the owning task's Step call, when the slot is Running
// and only the kernel goroutine touches it.
type proc struct {
	pid    PID
	name   string
	state  State
	parent PID
	task   Task

	// accounting
	cpuTicks   uint64
	waitTicks  uint64
	ioCount    uint64
	recentCPU  uint64
	epochTicks uint64

	// wake condition while Sleeping
	block    blockKind
	wakeTick uint64
	pipe     *Pipe
	wantN    int

	exitCode int
}

func (p *proc) live() bool {
	switch p.state {
	case StateUnused, StateZombie:
		return false
	}
	return true
}

// ProcInfo is a copied-out view of one slot, safe to hold without locks.
type ProcInfo struct {
	PID       PID
	Name      string
	State     State
	CPUTicks  uint64
	WaitTicks uint64
	IOCount   uint64
	RecentCPU uint64
}
