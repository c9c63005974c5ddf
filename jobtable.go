package pgsh

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// JobTable is the canonical inventory of live jobs. It is the single piece
// of shared mutable state touched by the main shell loop, the signal
// reaper, and the interactive-signal router.
//
// Every exported method brackets its work in jt.mu. Go delivers asynchronous
// signals to an ordinary goroutine (via os/signal), not as a preemptive
// handler, so a held mutex gives the same exclusion a POSIX signal mask
// gives: it prevents the reaper or signal router from observing the table
// mid-mutation while a multi-step operation is in flight.
type JobTable struct {
	mu        sync.Mutex
	jobs      []*Job // insertion order; last element is most recently created
	fg        *Job
	completed []HistoryEntry // completed jobs pending TakeCompletedHistory
}

// NewJobTable returns an empty job table.
func NewJobTable() *JobTable {
	return &JobTable{}
}

func (jt *JobTable) locked(fn func()) {
	jt.mu.Lock()
	defer jt.mu.Unlock()
	fn()
}

// nextID computes the smallest positive integer not presently in use,
// O(n) in job count.
func (jt *JobTable) nextID() int {
	n := 1
	for _, j := range jt.jobs {
		if j.ID > n {
			n = j.ID
		}
	}
	present := make([]bool, n+1)
	for _, j := range jt.jobs {
		present[j.ID] = true
	}
	for i := 1; i <= n; i++ {
		if !present[i] {
			return i
		}
	}
	return n + 1
}

func (jt *JobTable) findByID(id int) *Job {
	for _, j := range jt.jobs {
		if j.ID == id {
			return j
		}
	}
	return nil
}

func (jt *JobTable) findByPID(pid int) *Job {
	for _, j := range jt.jobs {
		for _, m := range j.Members {
			if m.PID == pid {
				return j
			}
		}
	}
	return nil
}

func (jt *JobTable) findByPGID(pgid int) *Job {
	for _, j := range jt.jobs {
		if j.PGID() == pgid {
			return j
		}
	}
	return nil
}

// addLocked registers a new job without acquiring jt.mu; callers that
// already hold the lock (PipelineLauncher, which must register the job
// atomically with respect to the forked children) use this directly.
func (jt *JobTable) addLocked(cmdline string, pids []int) int {
	now := time.Now()
	j := &Job{
		ID:          jt.nextID(),
		CommandText: cmdline,
		Status:      StatusRunning,
		StartTime:   now,
		PauseTime:   now,
	}
	j.Members = make([]Member, len(pids))
	for i, pid := range pids {
		j.Members[i] = Member{PID: pid}
	}
	jt.jobs = append(jt.jobs, j)
	return j.ID
}

// Add registers a new job, which must carry at least one member pid.
func (jt *JobTable) Add(cmdline string, pids []int) int {
	var id int
	jt.locked(func() { id = jt.addLocked(cmdline, pids) })
	return id
}

func killPGID(pgid int, sig unix.Signal) error {
	return unix.Kill(-pgid, sig)
}

// Stop sends SIGTSTP to the job's process group.
func (jt *JobTable) Stop(id int) error {
	var err error
	jt.locked(func() {
		j := jt.findByID(id)
		if j == nil {
			err = ErrNotFound
			return
		}
		if j.Status == StatusStopped || j.Status == StatusDone {
			err = ErrAlreadyInTargetState
			return
		}
		err = killPGID(j.PGID(), unix.SIGTSTP)
	})
	return err
}

// Cont sends SIGCONT to the job's process group.
func (jt *JobTable) Cont(id int) error {
	var err error
	jt.locked(func() {
		j := jt.findByID(id)
		if j == nil {
			err = ErrNotFound
			return
		}
		if j.Status == StatusRunning || j.Status == StatusDone {
			err = ErrAlreadyInTargetState
			return
		}
		err = killPGID(j.PGID(), unix.SIGCONT)
	})
	return err
}

// Term sends SIGTERM to the job's process group.
func (jt *JobTable) Term(id int) error {
	var err error
	jt.locked(func() {
		j := jt.findByID(id)
		if j == nil {
			err = ErrNotFound
			return
		}
		if j.Status == StatusDone {
			err = ErrAlreadyInTargetState
			return
		}
		err = killPGID(j.PGID(), unix.SIGTERM)
	})
	return err
}

// removeLocked drops a job from the table outright (no Done bookkeeping).
func (jt *JobTable) removeLocked(id int) {
	for i, j := range jt.jobs {
		if j.ID == id {
			jt.jobs = append(jt.jobs[:i], jt.jobs[i+1:]...)
			return
		}
	}
}

// DeletePID marks the member with the given pid terminated, recording its
// exit status. If every member of its job is now terminated, the job
// becomes Done, a HistoryEntry for it is appended to jt.completed (see
// TakeCompletedHistory), and if that job was the foreground job it is
// evicted immediately and fg is cleared. Background Done jobs linger in
// the table until the next PrintAll.
func (jt *JobTable) DeletePID(pid int, exitStatus int) error {
	var err error
	jt.locked(func() {
		j := jt.findByPID(pid)
		if j == nil {
			err = ErrNotFound
			return
		}
		for i, m := range j.Members {
			if m.PID == pid {
				j.Members[i].Terminated = true
				j.Members[i].ExitStatus = exitStatus
			}
		}
		if j.allTerminated() {
			if j.Status == StatusRunning {
				j.PauseTime = time.Now()
			}
			j.Status = StatusDone
			jt.completed = append(jt.completed, HistoryEntry{
				CommandText: j.CommandText,
				StartTime:   j.StartTime,
				EndTime:     j.PauseTime,
				ExitStatus:  j.lastExitStatus(),
			})
			if j == jt.fg {
				jt.removeLocked(j.ID)
				jt.fg = nil
			}
		}
	})
	return err
}

// TakeCompletedHistory returns every HistoryEntry recorded since the last
// call and clears the backlog. Callers (Shell) drain this periodically to
// persist completed jobs, foreground or background, to history.
func (jt *JobTable) TakeCompletedHistory() []HistoryEntry {
	var out []HistoryEntry
	jt.locked(func() {
		out = jt.completed
		jt.completed = nil
	})
	return out
}

// ContPID is called by the reaper when the OS reports a leader pid as
// continued; it only acts on the leader, because only the leader's report
// reliably indicates a whole-group state change.
func (jt *JobTable) ContPID(pid int) error {
	var err error
	jt.locked(func() {
		j := jt.findByPGID(pid)
		if j == nil {
			err = ErrNotFound
			return
		}
		j.StartTime = j.StartTime.Add(time.Since(j.PauseTime))
		j.Status = StatusRunning
	})
	return err
}

// StopPID is called by the reaper when the OS reports a leader pid as
// stopped. A stopped foreground job is no longer blocking the prompt, so
// fg is cleared.
func (jt *JobTable) StopPID(pid int) error {
	var err error
	jt.locked(func() {
		j := jt.findByPGID(pid)
		if j == nil {
			err = ErrNotFound
			return
		}
		if j == jt.fg {
			jt.fg = nil
		}
		j.Status = StatusStopped
		j.PauseTime = time.Now()
	})
	return err
}

// setFgLocked is SetFG's body, for callers (PipelineLauncher) that already
// hold jt.mu as part of a larger atomic registration.
func (jt *JobTable) setFgLocked(id int) error {
	if jt.fg != nil {
		return ErrForegroundBusy
	}
	j := jt.findByID(id)
	if j == nil {
		return ErrNotFound
	}
	jt.fg = j
	return nil
}

// SetFG designates a job as the foreground job.
func (jt *JobTable) SetFG(id int) error {
	var err error
	jt.locked(func() { err = jt.setFgLocked(id) })
	return err
}

// GetFG returns the foreground job's id, or ok=false if there is none.
func (jt *JobTable) GetFG() (id int, ok bool) {
	jt.locked(func() {
		if jt.fg != nil {
			id, ok = jt.fg.ID, true
		}
	})
	return
}

// GetLast returns the id of the most recently created job.
func (jt *JobTable) GetLast() (id int, ok bool) {
	jt.locked(func() {
		if len(jt.jobs) > 0 {
			id, ok = jt.jobs[len(jt.jobs)-1].ID, true
		}
	})
	return
}

// GetJob resolves a member pid to the id of its job.
func (jt *JobTable) GetJob(pid int) (id int, ok bool) {
	jt.locked(func() {
		if j := jt.findByPID(pid); j != nil {
			id, ok = j.ID, true
		}
	})
	return
}

// GetPGID returns a job's process group id.
func (jt *JobTable) GetPGID(id int) (pgid int, ok bool) {
	jt.locked(func() {
		if j := jt.findByID(id); j != nil {
			pgid, ok = j.PGID(), true
		}
	})
	return
}

// GetCmd returns a job's original command text.
func (jt *JobTable) GetCmd(id int) (cmd string, ok bool) {
	jt.locked(func() {
		if j := jt.findByID(id); j != nil {
			cmd, ok = j.CommandText, true
		}
	})
	return
}

// PrintAll writes one line per job to w, then evicts every Done job: a
// Done background job is displayed exactly once.
func (jt *JobTable) PrintAll(w io.Writer) error {
	var err error
	jt.locked(func() {
		now := time.Now()
		for _, j := range jt.jobs {
			elapsed := j.PauseTime.Sub(j.StartTime)
			if j.Status == StatusRunning {
				elapsed = now.Sub(j.StartTime)
			}
			_, werr := fmt.Fprintf(w, "[%d] %d  %-9s  %s  %s\n",
				j.ID, j.PGID(), j.Status.String(), formatElapsed(elapsed), j.CommandText)
			if werr != nil && err == nil {
				err = werr
			}
		}
		kept := jt.jobs[:0]
		for _, j := range jt.jobs {
			if j.Status != StatusDone {
				kept = append(kept, j)
			}
		}
		jt.jobs = kept
	})
	return err
}

func formatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Seconds())
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total/60)%60, total%60)
}

// KillAll sends SIGKILL to every non-Done job's process group and waits
// for each member to be reaped, recording a HistoryEntry for each, then
// empties the table. Used on shell shutdown to avoid leaving zombies.
func (jt *JobTable) KillAll() {
	jt.locked(func() {
		for _, j := range jt.jobs {
			if j.Status == StatusDone {
				continue
			}
			_ = killPGID(j.PGID(), unix.SIGKILL)
			for i, m := range j.Members {
				if m.Terminated {
					continue
				}
				var status unix.WaitStatus
				_, _ = unix.Wait4(m.PID, &status, 0, nil)
				j.Members[i].Terminated = true
				j.Members[i].ExitStatus = status.ExitStatus()
			}
			jt.completed = append(jt.completed, HistoryEntry{
				CommandText: j.CommandText,
				StartTime:   j.StartTime,
				EndTime:     time.Now(),
				ExitStatus:  j.lastExitStatus(),
			})
		}
		jt.jobs = nil
		jt.fg = nil
	})
}

// WaitFG blocks until there is no foreground job, returning immediately if
// there already isn't one (e.g. a background submission).
func (jt *JobTable) WaitFG(ctx context.Context) {
	for {
		if _, ok := jt.GetFG(); !ok {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(25 * time.Millisecond):
		}
	}
}
