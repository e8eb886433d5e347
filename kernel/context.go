package kernel

import "fmt"

// Context provides task-local access to kernel operations for one
// quantum. Blocking calls do not suspend the goroutine: they record a
// wake condition and the task returns from Step; the kernel parks the
// process Sleeping and steps it again once the condition holds, at
// which point the task retries the call.
type Context struct {
	k *Kernel
	p *proc

	exited   bool
	exitCode int
	block    blockKind
	wakeTick uint64
	pipe     *Pipe
	wantN    int
	ioDelta  uint64
}

// PID returns the current process id.
func (c *Context) PID() PID { return c.p.pid }

// Uptime returns the current kernel tick count.
func (c *Context) Uptime() uint64 { return c.k.tick }

// Read copies buffered bytes from the pipe into dst.
//
// Returns n > 0 while bytes are available. (0, false) is end of
// stream: the pipe is closed and drained (or the handle lacks the read
// right). (0, true) means the process blocked; the task should return
// from Step and retry when stepped again.
func (c *Context) Read(h Handle, dst []byte) (int, bool) {
	if !h.canRead() {
		return 0, false
	}
	n, eof := h.p.read(dst)
	if n > 0 {
		return n, true
	}
	if eof {
		return 0, false
	}
	c.block = blockRead
	c.pipe = h.p
	c.ioDelta++
	return 0, true
}

// Write queues b on the pipe as one atomic unit: either every byte is
// accepted or none is. A false return means the process blocked for
// space; the task should return and retry the same write when stepped
// again. Writes to a closed pipe (or without the write right) are
// silently discarded so a vanished consumer cannot wedge its producer.
func (c *Context) Write(h Handle, b []byte) bool {
	if !h.canWrite() {
		return true
	}
	if h.p.tryWrite(b) {
		return true
	}
	c.block = blockWrite
	c.pipe = h.p
	c.wantN = len(b)
	return false
}

// Close marks the pipe closed for writing; readers drain then see EOF.
func (c *Context) Close(h Handle) { h.Close() }

// Pause blocks the process for n ticks. Counts as an IO-style blocking
// event whether or not n is zero.
func (c *Context) Pause(n uint64) {
	c.ioDelta++
	if n == 0 {
		return
	}
	c.block = blockTick
	c.wakeTick = c.k.tick + n
}

// Exit terminates the process at the end of this quantum. The slot
// stays Zombie until reaped by a waiting parent or by the kernel.
func (c *Context) Exit(code int) {
	c.exited = true
	c.exitCode = code
}

// Spawn creates a child process running task.
func (c *Context) Spawn(name string, task Task) (PID, error) {
	return c.k.spawn(name, task, c.p.pid)
}

// Wait reaps one Zombie child. Returns (pid, true, false) after
// reaping, (0, false, false) when the process has no children, and
// (0, false, true) when it blocked waiting for a child to exit.
// Counts as an IO-style blocking event.
func (c *Context) Wait() (PID, bool, bool) {
	c.ioDelta++
	t := c.k.table
	t.mu.Lock()
	defer t.mu.Unlock()
	if z, ok := t.zombieChild(c.p.pid); ok {
		pid := z.pid
		t.free(z)
		return pid, true, false
	}
	if !t.hasChild(c.p.pid) {
		return 0, false, false
	}
	c.block = blockChild
	return 0, false, true
}

// SubmitAdvice performs the privileged advisory update on behalf of
// the calling process. The only local check is pid > 0; whether the
// pid names a Runnable process is decided by the scheduler when the
// advice is consumed.
func (c *Context) SubmitAdvice(pid PID) error {
	return c.k.advisory.Submit(pid, c.k.tick)
}

// Procs returns a copied-out view of every occupied slot.
func (c *Context) Procs() []ProcInfo { return c.k.table.infos() }

// Print writes s to the kernel console.
func (c *Context) Print(s string) {
	if c.k.console != nil {
		_, _ = c.k.console.Write([]byte(s))
	}
}

// Printf formats to the kernel console.
func (c *Context) Printf(format string, args ...any) {
	c.Print(fmt.Sprintf(format, args...))
}
