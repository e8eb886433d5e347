package cpubound

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"advos/kernel"
)

func TestRunsForExactlyItersQuantaThenExits(t *testing.T) {
	var out bytes.Buffer
	k := kernel.New(kernel.Options{MaxProcs: 4, SnapshotInterval: 1 << 30, Console: &out})
	_, err := k.Spawn("cpu", New(5))
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		require.True(t, k.Step())
		require.Equal(t, 1, k.LiveProcs())
	}
	require.True(t, k.Step())
	require.Zero(t, k.LiveProcs())
	require.Contains(t, out.String(), "cpubound: pid 1 done")
}

func TestNeverBlocks(t *testing.T) {
	k := kernel.New(kernel.Options{MaxProcs: 4, SnapshotInterval: 1 << 30})
	pid, err := k.Spawn("cpu", New(10))
	require.NoError(t, err)

	for i := 0; i < 6; i++ {
		require.True(t, k.Step())
	}
	for _, p := range k.Procs() {
		if p.PID == pid {
			require.Zero(t, p.IOCount)
			require.Equal(t, uint64(6), p.CPUTicks)
		}
	}
}
