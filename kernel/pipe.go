package kernel

import (
	"io"
	"sync"
	"time"
)

// Rights define which operations a Handle permits.
type Rights uint8

const (
	RightRead Rights = 1 << iota
	RightWrite
)

// Pipe is a bounded unidirectional byte channel between processes.
// Bytes are delivered in write order and each write is queued whole,
// so lines written as one call are never interleaved at the reader.
//
// The pipe carries its own mutex so the host boundary may inject bytes
// while the kernel goroutine runs; blocked processes are woken by the
// kernel's wake scan, not by callbacks, so pipe code never touches the
// process table.
type Pipe struct {
	mu     sync.Mutex
	buf    []byte
	max    int
	closed bool
}

func newPipe(capacity int) *Pipe {
	if capacity < 1 {
		capacity = 1
	}
	return &Pipe{max: capacity}
}

// tryWrite queues b whole, or nothing. Writes to a closed pipe are
// discarded but reported as accepted so an exiting consumer cannot
// wedge its producer.
func (p *Pipe) tryWrite(b []byte) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return true
	}
	if p.max-len(p.buf) < len(b) {
		return false
	}
	p.buf = append(p.buf, b...)
	return true
}

// read copies up to len(dst) buffered bytes. eof is reported only once
// the pipe is closed and drained.
func (p *Pipe) read(dst []byte) (n int, eof bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.buf) == 0 {
		return 0, p.closed
	}
	n = copy(dst, p.buf)
	rest := copy(p.buf, p.buf[n:])
	p.buf = p.buf[:rest]
	return n, false
}

// readable reports whether a blocked reader should wake: data is
// buffered or end-of-stream is observable.
func (p *Pipe) readable() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.buf) > 0 || p.closed
}

// writable reports whether a blocked writer of n bytes should wake.
func (p *Pipe) writable(n int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed || p.max-len(p.buf) >= n
}

func (p *Pipe) close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
}

func (p *Pipe) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Handle grants restricted access to a pipe. It is opaque by
// construction and may be passed to services at boot.
type Handle struct {
	p      *Pipe
	rights Rights
}

func (h Handle) Valid() bool { return h.p != nil && h.rights != 0 }

func (h Handle) canRead() bool  { return h.p != nil && h.rights&RightRead != 0 }
func (h Handle) canWrite() bool { return h.p != nil && h.rights&RightWrite != 0 }

// Restrict returns a handle with a reduced set of rights.
func (h Handle) Restrict(r Rights) Handle {
	if !h.Valid() {
		return Handle{}
	}
	rr := h.rights & r
	if rr == 0 {
		return Handle{}
	}
	return Handle{p: h.p, rights: rr}
}

// Close marks the pipe closed for writing. Readers drain any buffered
// bytes and then observe end-of-stream.
func (h Handle) Close() {
	if h.canWrite() {
		h.p.close()
	}
}

// Writer adapts the handle for host-side use (feeding the input device
// from stdin). Write blocks with a short backoff while the pipe is
// full; it fails once the pipe is closed. Not for use inside tasks.
func (h Handle) Writer() io.WriteCloser {
	return &hostWriter{h: h}
}

type hostWriter struct {
	h Handle
}

func (w *hostWriter) Write(b []byte) (int, error) {
	if !w.h.canWrite() {
		return 0, io.ErrClosedPipe
	}
	total := 0
	for total < len(b) {
		chunk := b[total:]
		if len(chunk) > w.h.p.max {
			chunk = chunk[:w.h.p.max]
		}
		for {
			if w.h.p.isClosed() {
				return total, io.ErrClosedPipe
			}
			if w.h.p.tryWrite(chunk) {
				break
			}
			time.Sleep(time.Millisecond)
		}
		total += len(chunk)
	}
	return total, nil
}

func (w *hostWriter) Close() error {
	w.h.Close()
	return nil
}
