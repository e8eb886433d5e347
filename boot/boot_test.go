package boot

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"advos/internal/config"
	"advos/kernel"
	"advos/proto"
)

// testConfig keeps the timing small so staleness is observable within
// a short run. Workload pids are 4..6 (after router, shell, advisor).
func testConfig() *config.Config {
	return &config.Config{
		MaxProcs:         16,
		SnapshotInterval: 5,
		StalenessWindow:  10,
		PipeCapacity:     256,
		LineMax:          64,
		TickHz:           100,
		Workloads:        []config.Workload{{Kind: "cpu", Count: 3, Iters: 1 << 20}},
	}
}

func bootSystem(t *testing.T) (*System, *bytes.Buffer) {
	t.Helper()
	cfg := testConfig()
	require.NoError(t, cfg.Validate())
	var out bytes.Buffer
	sys, err := New(cfg, &out)
	require.NoError(t, err)
	return sys, &out
}

func typeInput(t *testing.T, sys *System, s string) {
	t.Helper()
	_, err := sys.Input.Writer().Write([]byte(s))
	require.NoError(t, err)
}

func stepUntilOutput(t *testing.T, sys *System, out *bytes.Buffer, want string) {
	t.Helper()
	for i := 0; i < 500; i++ {
		if strings.Contains(out.String(), want) {
			return
		}
		sys.Kernel.Step()
	}
	t.Fatalf("output never contained %q; console:\n%s", want, out.String())
}

func TestBootSpawnsServicesAndWorkloads(t *testing.T) {
	sys, _ := bootSystem(t)
	procs := sys.Kernel.Procs()
	require.Len(t, procs, 6)

	names := make(map[string]int)
	for _, p := range procs {
		names[p.Name]++
	}
	require.Equal(t, 1, names["consolemux"])
	require.Equal(t, 1, names["sh"])
	require.Equal(t, 1, names["advisor"])
	require.Equal(t, 3, names["cpu"])
}

func TestInjectedAdviceSteersNextDecision(t *testing.T) {
	sys, out := bootSystem(t)
	typeInput(t, sys, "ADVICE:PID=5 TS=1 V=1\n")
	stepUntilOutput(t, sys, out, "advisor: injected pid 5")

	sys.Kernel.Step()
	pid, advised := sys.Kernel.LastScheduled()
	require.Equal(t, kernel.PID(5), pid)
	require.True(t, advised, "the decision after injection selects the advised pid")
}

func TestAdviceExpiresAfterStalenessWindow(t *testing.T) {
	sys, out := bootSystem(t)
	typeInput(t, sys, "ADVICE:PID=5\n")
	stepUntilOutput(t, sys, out, "advisor: injected pid 5")

	// Inside the window every decision is the advised workload; the
	// services stay parked on their empty pipes.
	for i := 0; i < 5; i++ {
		sys.Kernel.Step()
		pid, advised := sys.Kernel.LastScheduled()
		require.Equal(t, kernel.PID(5), pid)
		require.True(t, advised)
	}

	// Step well past the window, then watch rotation resume.
	for i := 0; i < 10; i++ {
		sys.Kernel.Step()
	}
	seen := make(map[kernel.PID]bool)
	for i := 0; i < 6; i++ {
		sys.Kernel.Step()
		pid, advised := sys.Kernel.LastScheduled()
		require.False(t, advised, "stale advice must not steer")
		seen[pid] = true
	}
	require.True(t, seen[4] && seen[5] && seen[6],
		"round-robin shares the CPU across all workloads again: %v", seen)
}

func TestAdviceForUnknownPIDDegradesSilently(t *testing.T) {
	sys, out := bootSystem(t)
	typeInput(t, sys, "ADVICE:PID=13\n") // no such process
	stepUntilOutput(t, sys, out, "advisor: injected pid 13")

	for i := 0; i < 6; i++ {
		sys.Kernel.Step()
		_, advised := sys.Kernel.LastScheduled()
		require.False(t, advised, "unknown target falls back to rotation")
	}
	require.NotZero(t, sys.Kernel.LiveProcs())
}

func TestShellAndAdviceStreamsStaySeparate(t *testing.T) {
	sys, out := bootSystem(t)
	typeInput(t, sys, "echo scheduling demo\nADVICE:PID=4\n")
	stepUntilOutput(t, sys, out, "scheduling demo\n")
	stepUntilOutput(t, sys, out, "advisor: injected pid 4")

	require.NotContains(t, out.String(), "sh: unknown command: ADVICE:PID=4",
		"advice lines never reach the shell")
}

func TestMalformedAdviceLineIsIgnoredEndToEnd(t *testing.T) {
	sys, out := bootSystem(t)
	typeInput(t, sys, "ADVICE:PID=oops\nuptime\n")
	stepUntilOutput(t, sys, out, "ticks\n")

	require.False(t, sys.Kernel.Advisory().Snapshot().Valid)
	require.NotContains(t, out.String(), "advisor:")
}

func TestSnapshotBlocksInterleaveParseably(t *testing.T) {
	sys, out := bootSystem(t)
	typeInput(t, sys, "echo noise between blocks\n")
	for i := 0; i < 23; i++ {
		sys.Kernel.Step()
	}

	blocks, err := proto.ParseBlocks(bytes.NewReader(out.Bytes()))
	require.NoError(t, err)
	require.Len(t, blocks, 4, "one block per interval boundary")
	require.Equal(t, uint64(5), blocks[0].Timestamp)
	require.Equal(t, uint64(20), blocks[3].Timestamp)

	for _, b := range blocks {
		require.NotEmpty(t, b.Rows)
		for _, row := range b.Rows {
			require.Positive(t, row.PID)
			require.GreaterOrEqual(t, row.State, 0)
			require.LessOrEqual(t, row.State, 5)
		}
	}
}

func TestSessionWindsDownAfterEOF(t *testing.T) {
	cfg := testConfig()
	cfg.Workloads = []config.Workload{{Kind: "cpu", Count: 2, Iters: 5}}
	var out bytes.Buffer
	sys, err := New(cfg, &out)
	require.NoError(t, err)

	sys.Input.Close()
	for i := 0; i < 200 && sys.Kernel.LiveProcs() > 0; i++ {
		sys.Kernel.Step()
	}
	require.Zero(t, sys.Kernel.LiveProcs(),
		"services exit on EOF and finished workloads are reaped")
	require.Contains(t, out.String(), fmt.Sprintf("cpubound: pid %d done", 4))
}
