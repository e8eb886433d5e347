// Package linebuf assembles newline-delimited lines from a byte
// stream under an explicit capacity bound.
package linebuf

// Outcome describes what Feed produced.
type Outcome uint8

const (
	// None: the byte was buffered (or swallowed as the LF of a CRLF
	// pair); no line is ready.
	None Outcome = iota
	// Delivered: a complete line terminated by \n, \r\n, or a lone \r.
	Delivered
	// Truncated: the buffer reached capacity before a terminator; the
	// collected prefix is delivered rather than blocking or growing.
	Truncated
)

// Assembler is a bounded line assembler. Line terminators (\n, \r\n,
// lone \r) are normalized away; delivered lines carry no terminator.
type Assembler struct {
	buf   []byte
	max   int
	sawCR bool
}

// New creates an assembler holding at most max bytes per line.
func New(max int) *Assembler {
	if max < 1 {
		max = 1
	}
	return &Assembler{buf: make([]byte, 0, max), max: max}
}

// Feed consumes one byte. The returned line is a copy and remains
// valid after further Feed calls.
func (a *Assembler) Feed(c byte) ([]byte, Outcome) {
	if a.sawCR {
		a.sawCR = false
		if c == '\n' {
			return nil, None
		}
	}
	switch c {
	case '\r':
		a.sawCR = true
		return a.take(), Delivered
	case '\n':
		return a.take(), Delivered
	}
	a.buf = append(a.buf, c)
	if len(a.buf) >= a.max {
		return a.take(), Truncated
	}
	return nil, None
}

// Flush delivers a partial line at end of input, if any.
func (a *Assembler) Flush() ([]byte, Outcome) {
	if len(a.buf) == 0 {
		return nil, None
	}
	return a.take(), Delivered
}

func (a *Assembler) take() []byte {
	line := make([]byte, len(a.buf))
	copy(line, a.buf)
	a.buf = a.buf[:0]
	return line
}
