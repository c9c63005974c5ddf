package pgsh

import "time"

// Status is a Job's place in the Running -> Stopped/Running -> Done
// lifecycle described by the job-control core.
type Status int

const (
	StatusRunning Status = iota
	StatusStopped
	StatusDone
)

func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "Running"
	case StatusStopped:
		return "Suspended"
	case StatusDone:
		return "Done"
	default:
		return "Unknown"
	}
}

// Member is one process of a pipeline. Terminated is set once the process
// has exited, by whatever means; a Job is Done exactly when every member's
// Terminated flag is set. ExitStatus is only meaningful once Terminated.
type Member struct {
	PID        int
	Terminated bool
	ExitStatus int
}

// Job is a unit of user-visible work: one pipeline of processes sharing a
// process group. Members[0].PID is, by construction, the process group id
// used to signal the whole pipeline atomically.
type Job struct {
	ID          int
	CommandText string
	Status      Status
	StartTime   time.Time
	PauseTime   time.Time
	Members     []Member
}

// PGID is the process group id of the job: the PID of its first member.
func (j *Job) PGID() int {
	return j.Members[0].PID
}

// allTerminated reports whether every member's Terminated flag is set.
func (j *Job) allTerminated() bool {
	for _, m := range j.Members {
		if !m.Terminated {
			return false
		}
	}
	return true
}

// lastExitStatus is the pipeline's overall exit status: the last stage's,
// by shell convention.
func (j *Job) lastExitStatus() int {
	return j.Members[len(j.Members)-1].ExitStatus
}
