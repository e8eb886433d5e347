package kernel

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// parentTask spawns one child, waits for it, then exits with the
// child's observation recorded.
type parentTask struct {
	child  Task
	waited PID
	phase  int
}

func (t *parentTask) Step(ctx *Context) {
	switch t.phase {
	case 0:
		if _, err := ctx.Spawn("child", t.child); err != nil {
			ctx.Exit(1)
			return
		}
		t.phase = 1
	case 1:
		pid, reaped, blocked := ctx.Wait()
		if blocked {
			return
		}
		if reaped {
			t.waited = pid
		}
		t.phase = 2
		ctx.Exit(0)
	}
}

// readerTask drains a pipe into buf until end of stream.
type readerTask struct {
	in  Handle
	buf *bytes.Buffer
	eof *bool
}

func (t *readerTask) Step(ctx *Context) {
	var b [32]byte
	n, ok := ctx.Read(t.in, b[:])
	if !ok {
		*t.eof = true
		ctx.Exit(0)
		return
	}
	if n > 0 {
		t.buf.Write(b[:n])
	}
}

// writerTask writes payloads one per quantum, retrying blocked writes,
// then closes the pipe and exits.
type writerTask struct {
	out  Handle
	msgs [][]byte
}

func (t *writerTask) Step(ctx *Context) {
	if len(t.msgs) == 0 {
		ctx.Close(t.out)
		ctx.Exit(0)
		return
	}
	if ctx.Write(t.out, t.msgs[0]) {
		t.msgs = t.msgs[1:]
	}
}

func stepUntil(t *testing.T, k *Kernel, limit int, cond func() bool) {
	t.Helper()
	for i := 0; i < limit; i++ {
		if cond() {
			return
		}
		k.Step()
	}
	require.True(t, cond(), "condition not reached within %d ticks", limit)
}

func TestWaitReapsExitedChild(t *testing.T) {
	k := newTestKernel(t, 8, 10)
	pt := &parentTask{child: &exitTask{code: 3}}
	_, err := k.Spawn("parent", pt)
	require.NoError(t, err)

	stepUntil(t, k, 32, func() bool { return len(k.Procs()) == 0 })
	require.Equal(t, PID(2), pt.waited, "parent observed the child pid")
}

func TestWaitWithoutChildrenDoesNotBlock(t *testing.T) {
	k := newTestKernel(t, 8, 10)
	var reaped, blocked bool
	task := taskFunc(func(ctx *Context) {
		_, reaped, blocked = ctx.Wait()
		ctx.Exit(0)
	})
	_, err := k.Spawn("lonely", task)
	require.NoError(t, err)

	require.True(t, k.Step())
	require.False(t, reaped)
	require.False(t, blocked)
}

type taskFunc func(*Context)

func (f taskFunc) Step(ctx *Context) { f(ctx) }

func TestKernelReapsOrphanedZombie(t *testing.T) {
	k := newTestKernel(t, 8, 10)
	_, err := k.Spawn("orphan", &exitTask{})
	require.NoError(t, err)

	require.True(t, k.Step())
	require.Empty(t, k.Procs(), "detached zombie is reclaimed by the kernel")
	require.Zero(t, k.LiveProcs())
}

func TestPipeBlockingBetweenTasks(t *testing.T) {
	k := newTestKernel(t, 8, 10)
	h := k.NewPipe(4) // small on purpose: the writer must block and retry

	var buf bytes.Buffer
	var eof bool
	_, err := k.Spawn("rd", &readerTask{in: h.Restrict(RightRead), buf: &buf, eof: &eof})
	require.NoError(t, err)
	_, err = k.Spawn("wr", &writerTask{
		out:  h.Restrict(RightWrite),
		msgs: [][]byte{[]byte("abcd"), []byte("efgh"), []byte("ij")},
	})
	require.NoError(t, err)

	stepUntil(t, k, 64, func() bool { return eof })
	require.Equal(t, "abcdefghij", buf.String())
	require.Empty(t, k.Procs())
}

func TestBlockedReadCountsOneEventPerBlock(t *testing.T) {
	k := newTestKernel(t, 8, 10)
	h := k.NewPipe(16)

	var buf bytes.Buffer
	var eof bool
	pid, err := k.Spawn("rd", &readerTask{in: h.Restrict(RightRead), buf: &buf, eof: &eof})
	require.NoError(t, err)

	require.True(t, k.Step()) // empty pipe: blocks
	require.Equal(t, uint64(1), infoByPID(t, k, pid).IOCount)
	require.Equal(t, StateSleeping, infoByPID(t, k, pid).State)

	require.False(t, k.Step()) // still parked, no extra event
	require.Equal(t, uint64(1), infoByPID(t, k, pid).IOCount)

	w := h.Restrict(RightWrite)
	require.True(t, w.p.tryWrite([]byte("hi")))
	require.True(t, k.Step()) // woken by data; successful read is free
	require.Equal(t, uint64(1), infoByPID(t, k, pid).IOCount)
	require.Equal(t, "hi", buf.String())
}

func TestRunStopsOnCancel(t *testing.T) {
	k := newTestKernel(t, 8, 10)
	spawnSpinners(t, k, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ticks := make(chan uint64)
	require.ErrorIs(t, k.Run(ctx, ticks), context.Canceled)
}

func TestRunStopsWhenTickSourceCloses(t *testing.T) {
	k := newTestKernel(t, 8, 10)
	spawnSpinners(t, k, 1)

	ticks := make(chan uint64, 4)
	ticks <- 1
	ticks <- 2
	close(ticks)
	require.NoError(t, k.Run(context.Background(), ticks))
	require.Equal(t, uint64(2), k.Now())
}

func TestRunStopsWhenNoLiveProcessRemains(t *testing.T) {
	k := newTestKernel(t, 8, 10)
	_, err := k.Spawn("quit", &exitTask{})
	require.NoError(t, err)

	ticks := make(chan uint64, 8)
	for i := 0; i < 8; i++ {
		ticks <- uint64(i)
	}
	require.NoError(t, k.Run(context.Background(), ticks))
	require.Equal(t, uint64(1), k.Now(), "halts on the tick the last process exits")
}

func TestSpawnFailsWhenTableFull(t *testing.T) {
	k := newTestKernel(t, 2, 10)
	spawnSpinners(t, k, 2)
	_, err := k.Spawn("extra", spinTask{})
	require.ErrorIs(t, err, ErrTableFull)
}

func TestEmptySnapshotBlockIsWellFormed(t *testing.T) {
	var out bytes.Buffer
	k := New(Options{MaxProcs: 4, SnapshotInterval: 3, Console: &out})

	k.Step()
	k.Step()
	require.Zero(t, out.Len(), "nothing before the boundary")
	k.Step()
	require.Equal(t, "SCHED_LOG_START\nTIMESTAMP:3\nSCHED_LOG_END\n", out.String())
}

func TestConsolePrintReachesWriter(t *testing.T) {
	var out bytes.Buffer
	k := New(Options{MaxProcs: 4, SnapshotInterval: 1 << 30, Console: &out})
	_, err := k.Spawn("hi", taskFunc(func(ctx *Context) {
		ctx.Printf("hello from %d\n", ctx.PID())
		ctx.Exit(0)
	}))
	require.NoError(t, err)

	k.Step()
	require.Equal(t, "hello from 1\n", out.String())
}
