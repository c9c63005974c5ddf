package pgsh

import (
	"os"
	"time"

	"github.com/google/uuid"
)

// Session records who is running this shell process and for how long, for
// inclusion in log lines and, eventually, history rows. It carries no
// job-control behavior of its own.
type Session struct {
	StartTime time.Time
	EndTime   time.Time
	UserID    int
	UserName  string
	MachineID string
	SessionID string
}

// NewSession initializes a new session from the current environment.
func NewSession() *Session {
	hostname, _ := os.Hostname()
	return &Session{
		StartTime: time.Now(),
		UserID:    os.Getuid(),
		UserName:  os.Getenv("USER"),
		MachineID: hostname,
		SessionID: uuid.New().String(),
	}
}

// Close marks the session's end time.
func (s *Session) Close() {
	s.EndTime = time.Now()
}
