package pgsh

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/chzyer/readline"
	"golang.org/x/term"

	"pgsh/parser"
)

// Shell ties the job-control core to an interactive (or file-driven) read
// loop: it owns the JobTable, the Reaper and Router bound to it, and the
// ancillary Session/HistoryManager/prompt machinery the core itself doesn't
// need. Line editing and history recall come from readline; interactive
// prompting is gated on whether stdin is actually a terminal.
type Shell struct {
	JT      *JobTable
	Reaper  *Reaper
	Router  *Router
	History *HistoryManager
	Session *Session

	interactive bool
	stdout      io.Writer
	rl          *readline.Instance
	scanner     *bufio.Scanner
}

// NewShell wires a Shell reading from in (os.Stdin for an interactive
// session, an opened script file in batch mode) and writing to os.Stdout.
// historyPath may be empty to use the default location.
func NewShell(in *os.File, historyPath string) (*Shell, error) {
	jt := NewJobTable()
	stdout := os.Stdout
	interactive := in == os.Stdin && term.IsTerminal(int(in.Fd()))

	sh := &Shell{
		JT:          jt,
		Reaper:      NewReaper(jt),
		Router:      NewRouter(jt, stdout, interactive),
		Session:     NewSession(),
		interactive: interactive,
		stdout:      stdout,
	}

	if sh.interactive {
		rl, err := readline.NewEx(&readline.Config{
			Prompt:      GetPrompt(),
			HistoryFile: historyPath,
		})
		if err != nil {
			return nil, fmt.Errorf("readline: %w", err)
		}
		sh.rl = rl
	} else {
		sh.scanner = bufio.NewScanner(in)
	}

	hm, err := NewHistoryManager(historyPath)
	if err != nil {
		Noticef("history unavailable: %v", err)
	} else {
		sh.History = hm
	}

	return sh, nil
}

// Close releases the shell's readline instance and history database.
func (sh *Shell) Close() {
	if sh.rl != nil {
		sh.rl.Close()
	}
	if sh.History != nil {
		sh.History.Close()
	}
}

// Run starts the reaper and router, then reads and executes lines from the
// shell's input until EOF or an exit/quit builtin, returning the process exit code.
func (sh *Shell) Run() int {
	sh.Reaper.Start()
	sh.Router.Start()
	defer sh.Reaper.Stop()
	defer sh.Router.Stop()

	for {
		sh.recordHistory()

		line, err := sh.readLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				sh.JT.KillAll()
				sh.recordHistory()
				return 0
			}
			return 1
		}

		code, exit := sh.execute(line)
		if exit {
			sh.recordHistory()
			return code
		}
	}
}

func (sh *Shell) readLine() (string, error) {
	if sh.rl != nil {
		sh.rl.SetPrompt(GetPrompt())
		return sh.rl.Readline()
	}
	if !sh.scanner.Scan() {
		if err := sh.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return sh.scanner.Text(), nil
}

// execute parses and runs one line. The returned bool is true when the
// shell should terminate, in which case the int is the process exit code.
func (sh *Shell) execute(line string) (int, bool) {
	pc := parser.Parse(line)
	if pc.Err != nil {
		fmt.Fprintln(os.Stderr, pc.Err)
		return 0, false
	}
	if len(pc.Seq) == 0 {
		return 0, false
	}

	// A line consisting of exactly one stage naming a builtin is dispatched
	// in-process against the live JobTable, so it can see and affect the
	// shell's own jobs. Anything else — including a builtin embedded in a
	// longer pipeline — goes through Launch, which re-execs it in its own
	// process per stageCommand's doc comment.
	if len(pc.Seq) == 1 && isBuiltinName(pc.Seq[0][0]) {
		start := time.Now()
		err := Dispatch(sh.JT, pc.Seq[0], sh.stdout, os.Stderr)
		sh.insertHistory(pc.Raw, start, time.Now(), builtinExitStatus(err))
		if err == nil {
			return 0, false
		}
		var exitReq *ExitRequest
		if errors.As(err, &exitReq) {
			return exitReq.Code, true
		}
		PrintDiagnostic(os.Stderr, err)
		return 0, false
	}

	if _, err := Launch(sh.JT, pc, sh.interactive, sh.stdout); err != nil {
		PrintDiagnostic(os.Stderr, err)
	}
	sh.recordHistory()
	return 0, false
}

// builtinExitStatus turns a Dispatch error into the exit status a history
// entry should record: 0 for success, an ExitRequest's own code for
// exit/quit, 1 for anything else.
func builtinExitStatus(err error) int {
	if err == nil {
		return 0
	}
	var exitReq *ExitRequest
	if errors.As(err, &exitReq) {
		return exitReq.Code
	}
	return 1
}

// insertHistory records a single builtin invocation. Pipeline jobs are
// recorded separately, by recordHistory, once the JobTable reports them
// Done — a builtin never becomes a Job, so it has no other path into
// history.
func (sh *Shell) insertHistory(cmdText string, start, end time.Time, status int) {
	if sh.History == nil {
		return
	}
	entry := HistoryEntry{CommandText: cmdText, StartTime: start, EndTime: end, ExitStatus: status}
	if err := sh.History.Insert(entry); err != nil {
		Noticef("history insert failed: %v", err)
	}
}

// recordHistory drains every job the JobTable has completed since the last
// call and persists it. Called after a foreground Launch returns and once
// per read-loop iteration, so a background job's completion is picked up
// even though nothing is waiting on it synchronously.
func (sh *Shell) recordHistory() {
	if sh.History == nil {
		return
	}
	for _, e := range sh.JT.TakeCompletedHistory() {
		if err := sh.History.Insert(e); err != nil {
			Noticef("history insert failed: %v", err)
		}
	}
}
