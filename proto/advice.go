// Package proto defines the two text wire formats shared with the
// external advisory collaborator: the advisory line it produces and
// the scheduler snapshot block it consumes.
package proto

import "fmt"

// AdviceLinePrefix classifies a console line as advisory traffic. The
// match is exact and case-sensitive.
const AdviceLinePrefix = "ADVICE:"

// advicePIDPrefix is the full fixed grammar prefix of an advice line.
const advicePIDPrefix = "ADVICE:PID="

// maxAdvicePID bounds accepted pids; anything larger is malformed.
const maxAdvicePID = 1 << 30

// IsAdviceLine reports whether line starts with the advisory prefix.
func IsAdviceLine(line []byte) bool {
	return len(line) >= len(AdviceLinePrefix) && string(line[:len(AdviceLinePrefix)]) == AdviceLinePrefix
}

// ParseAdvice parses `ADVICE:PID=<digits>` followed by optional
// whitespace-separated fields (TS=..., V=..., or anything else), which
// are ignored for forward compatibility. Returns ok=false for a wrong
// prefix, missing digits, a junk suffix glued to the digits, a
// non-positive pid, or an absurdly large one.
func ParseAdvice(line []byte) (int, bool) {
	if len(line) < len(advicePIDPrefix) || string(line[:len(advicePIDPrefix)]) != advicePIDPrefix {
		return 0, false
	}
	rest := line[len(advicePIDPrefix):]
	pid := 0
	i := 0
	for ; i < len(rest); i++ {
		c := rest[i]
		if c < '0' || c > '9' {
			break
		}
		pid = pid*10 + int(c-'0')
		if pid > maxAdvicePID {
			return 0, false
		}
	}
	if i == 0 {
		return 0, false
	}
	if i < len(rest) && rest[i] != ' ' && rest[i] != '\t' {
		return 0, false
	}
	if pid <= 0 {
		return 0, false
	}
	return pid, true
}

// FormatAdvice renders the advice line the external bridge writes,
// including its timestamp and version fields.
func FormatAdvice(pid int, ts uint64) string {
	return fmt.Sprintf("ADVICE:PID=%d TS=%d V=1", pid, ts)
}
