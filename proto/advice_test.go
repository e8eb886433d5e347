package proto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsAdviceLine(t *testing.T) {
	assert.True(t, IsAdviceLine([]byte("ADVICE:PID=3")))
	assert.True(t, IsAdviceLine([]byte("ADVICE:junk")), "classification is prefix-only")
	assert.False(t, IsAdviceLine([]byte("advice:PID=3")), "case-sensitive")
	assert.False(t, IsAdviceLine([]byte(" ADVICE:PID=3")))
	assert.False(t, IsAdviceLine([]byte("ADVIC")))
	assert.False(t, IsAdviceLine(nil))
}

func TestParseAdviceAccepts(t *testing.T) {
	for _, tc := range []struct {
		line string
		pid  int
	}{
		{"ADVICE:PID=7", 7},
		{"ADVICE:PID=123", 123},
		{"ADVICE:PID=7 TS=100 V=1", 7},
		{"ADVICE:PID=42\tTS=9", 42},
		{"ADVICE:PID=5 trailing junk is ignored", 5},
		{"ADVICE:PID=0007", 7},
	} {
		pid, ok := ParseAdvice([]byte(tc.line))
		require.True(t, ok, "line %q", tc.line)
		assert.Equal(t, tc.pid, pid, "line %q", tc.line)
	}
}

func TestParseAdviceRejects(t *testing.T) {
	for _, line := range []string{
		"",
		"ADVICE:",
		"ADVICE:PID=",
		"ADVICE:PID=x",
		"ADVICE:PID=12x",      // junk glued to the digits
		"ADVICE:PID=0",        // pids are positive
		"ADVICE:PID=-3",       // sign is not part of the grammar
		"ADVICE:PID= 7",       // no space before the digits
		"advice:pid=7",        // case-sensitive
		"ADVICE:PID=99999999999999999999", // overflow is malformed, not clamped
		"SCHED:PID=7",
	} {
		pid, ok := ParseAdvice([]byte(line))
		assert.False(t, ok, "line %q", line)
		assert.Zero(t, pid, "line %q", line)
	}
}

func TestFormatAdviceRoundTrips(t *testing.T) {
	line := FormatAdvice(37, 1200)
	require.Equal(t, "ADVICE:PID=37 TS=1200 V=1", line)
	require.True(t, IsAdviceLine([]byte(line)))

	pid, ok := ParseAdvice([]byte(line))
	require.True(t, ok)
	require.Equal(t, 37, pid)
}
