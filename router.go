package pgsh

import (
	"fmt"
	"io"
	"os"
	"os/signal"

	"golang.org/x/sys/unix"
)

// Router forwards the two job-control signals a terminal driver sends the
// foreground process group leader — SIGINT and SIGTSTP — to whichever job
// currently holds the foreground, instead of letting the shell process
// itself receive and act on them. SIGCHLD is the reaper's concern; SIGCONT
// needs no forwarding here, since nothing sends it to a foregrounded shell.
type Router struct {
	jt          *JobTable
	stdout      io.Writer
	interactive bool
	sig         chan os.Signal
	done        chan struct{}
}

// NewRouter creates a router bound to jt. interactive gates the Suspended
// banner the same way Launch gates its background-job announcement: a
// batch or script run should never print job-control chatter. Call Start
// to begin forwarding.
func NewRouter(jt *JobTable, stdout io.Writer, interactive bool) *Router {
	return &Router{
		jt:          jt,
		stdout:      stdout,
		interactive: interactive,
		sig:         make(chan os.Signal, 1),
		done:        make(chan struct{}),
	}
}

// Start installs the SIGINT/SIGTSTP notification and begins forwarding in a
// background goroutine.
func (rt *Router) Start() {
	signal.Notify(rt.sig, unix.SIGINT, unix.SIGTSTP)
	go rt.loop()
}

// Stop removes the notification and halts the forwarding goroutine.
func (rt *Router) Stop() {
	signal.Stop(rt.sig)
	close(rt.done)
}

func (rt *Router) loop() {
	for {
		select {
		case s := <-rt.sig:
			rt.handle(s)
		case <-rt.done:
			return
		}
	}
}

func (rt *Router) handle(s os.Signal) {
	id, ok := rt.jt.GetFG()
	if !ok {
		// No foreground job: the signal was meant for the shell's own
		// prompt (e.g. Ctrl-C on an empty line). Nothing to forward.
		return
	}
	switch s {
	case unix.SIGINT:
		_ = rt.jt.Term(id)
	case unix.SIGTSTP:
		if err := rt.jt.Stop(id); err == nil && rt.interactive {
			pgid, _ := rt.jt.GetPGID(id)
			cmd, _ := rt.jt.GetCmd(id)
			fmt.Fprintf(rt.stdout, "[%d] %d  Suspended  %s\n", id, pgid, cmd)
		}
	}
}
