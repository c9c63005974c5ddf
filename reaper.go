package pgsh

import (
	"os"
	"os/signal"

	"golang.org/x/sys/unix"
)

// Reaper is the asynchronous child-status handler. It runs its own
// goroutine, woken by SIGCHLD, and drains every pending child-status
// change on each wakeup: terminated, stopped, or continued events are all
// routed to the JobTable. Because every JobTable entry point it calls takes
// the table's mutex, the reaper can never interleave with a pipeline
// registration that is still in flight.
type Reaper struct {
	jt   *JobTable
	sig  chan os.Signal
	done chan struct{}
}

// NewReaper creates a reaper bound to jt. Call Start to begin handling
// SIGCHLD.
func NewReaper(jt *JobTable) *Reaper {
	return &Reaper{
		jt:   jt,
		sig:  make(chan os.Signal, 1),
		done: make(chan struct{}),
	}
}

// Start installs the SIGCHLD notification and begins draining child
// status changes in a background goroutine.
func (r *Reaper) Start() {
	signal.Notify(r.sig, unix.SIGCHLD)
	go r.loop()
}

// Stop removes the SIGCHLD notification and halts the drain goroutine.
func (r *Reaper) Stop() {
	signal.Stop(r.sig)
	close(r.done)
}

func (r *Reaper) loop() {
	for {
		select {
		case <-r.sig:
			r.drain()
		case <-r.done:
			return
		}
	}
}

// drain performs a non-blocking wait loop that also reports stopped and
// continued children, using WNOHANG|WUNTRACED|WCONTINUED so a single
// SIGCHLD wakeup drains every pending status change before returning.
func (r *Reaper) drain() {
	for {
		var status unix.WaitStatus
		pid, err := unix.Wait4(-1, &status, unix.WNOHANG|unix.WUNTRACED|unix.WCONTINUED, nil)
		if err != nil || pid <= 0 {
			return
		}
		switch {
		case status.Stopped():
			_ = r.jt.StopPID(pid)
		case status.Continued():
			_ = r.jt.ContPID(pid)
		default:
			_ = r.jt.DeletePID(pid, status.ExitStatus())
		}
	}
}
