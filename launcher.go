package pgsh

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"

	"pgsh/parser"
)

// Launch forks one process per pipeline stage, wires pipes between
// consecutive stages, applies optional endpoint redirection, places every
// child in a single process group led by the first child, and registers
// the result as a new Job. It returns the new job's id.
//
// The fork loop and the JobTable registration happen inside a single held
// lock, so the reaper cannot observe a child's status change before the Job
// exists in the table.
func Launch(jt *JobTable, pc *parser.Command, interactive bool, stdout io.Writer) (int, error) {
	if len(pc.Seq) == 0 {
		return 0, nil
	}

	var jobID int
	var err error
	jt.locked(func() {
		jobID, err = launchLocked(jt, pc, interactive, stdout)
	})
	if err != nil {
		return 0, err
	}

	jt.WaitFG(context.Background())
	return jobID, nil
}

func launchLocked(jt *JobTable, pc *parser.Command, interactive bool, stdout io.Writer) (int, error) {
	n := len(pc.Seq)
	cmds := make([]*exec.Cmd, 0, n)
	opened := make([]*os.File, 0, n+1) // fds this process must close once the children have inherited them

	closeOpened := func() {
		for _, f := range opened {
			f.Close()
		}
	}

	var prevRead *os.File
	var leaderPID int

	for i, argv := range pc.Seq {
		last := i == n-1

		cmd := stageCommand(argv)

		switch {
		case i == 0 && pc.In != nil:
			f, ferr := os.Open(*pc.In)
			if ferr != nil {
				killStarted(cmds)
				closeOpened()
				return 0, fmt.Errorf("%s: %w", *pc.In, ferr)
			}
			cmd.Stdin = f
			opened = append(opened, f)
		case i > 0:
			cmd.Stdin = prevRead
		}
		stageRead := prevRead

		var curWrite *os.File
		switch {
		case !last:
			r, w, perr := os.Pipe()
			if perr != nil {
				killStarted(cmds)
				closeOpened()
				return 0, fmt.Errorf("pipe: %w", perr)
			}
			cmd.Stdout = w
			curWrite = w
			prevRead = r
		case pc.Out != nil:
			f, ferr := os.OpenFile(*pc.Out, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
			if ferr != nil {
				killStarted(cmds)
				closeOpened()
				return 0, fmt.Errorf("%s: %w", *pc.Out, ferr)
			}
			cmd.Stdout = f
			opened = append(opened, f)
		default:
			cmd.Stdout = stdout
		}
		cmd.Stderr = os.Stderr

		if i == 0 {
			cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
		} else {
			cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true, Pgid: leaderPID}
		}

		if serr := cmd.Start(); serr != nil {
			killStarted(cmds)
			closeOpened()
			if curWrite != nil {
				curWrite.Close()
			}
			return 0, fmt.Errorf("%s: %w", argv[0], serr)
		}

		if i == 0 {
			leaderPID = cmd.Process.Pid
		}
		// The parent's copy of the previous stage's read end, and of this
		// stage's write end, must close now: both children inherited their
		// own descriptors via Start(), and the parent holding these open
		// would stop EOF from propagating down the pipeline once writers
		// exit.
		if i > 0 {
			stageRead.Close()
		}
		if curWrite != nil {
			curWrite.Close()
		}

		cmds = append(cmds, cmd)
	}

	closeOpened()

	pids := make([]int, len(cmds))
	for i, cmd := range cmds {
		pids[i] = cmd.Process.Pid
	}

	id := jt.addLocked(pc.Raw, pids)
	if pc.Bg {
		if interactive {
			fmt.Fprintf(stdout, "[%d] %d\n", id, pids[0])
		}
	} else {
		_ = jt.setFgLocked(id)
	}
	return id, nil
}

// stageCommand builds the exec.Cmd for one pipeline stage. A stage naming
// one of the job-control builtins is executed by re-exec'ing this binary:
// the builtin runs against a fresh, empty JobTable in that child process,
// so `jobs` (or any other builtin) run mid-pipeline reports nothing, by
// design — a pipeline stage never shares the parent shell's job table.
//
// A stage whose argv[0] cannot be found on PATH is, for the same reason,
// also run by re-exec'ing this binary: unlike a forked child's execvp,
// Go's exec.Cmd.Start performs the PATH lookup itself and fails before any
// process exists, which would otherwise leave no Job for this stage to
// report through. Re-exec'ing turns the lookup failure into an ordinary
// child that prints the diagnostic and exits nonzero, so it is started,
// piped, and reaped exactly like any other stage.
func stageCommand(argv []string) *exec.Cmd {
	if isBuiltinName(argv[0]) {
		reexecArgv := reexecBuiltinArgv(argv)
		return exec.Command(reexecArgv[0], reexecArgv[1:]...)
	}
	if _, err := exec.LookPath(argv[0]); err != nil {
		reexecArgv := reexecExecFailArgv(argv[0])
		return exec.Command(reexecArgv[0], reexecArgv[1:]...)
	}
	return exec.Command(argv[0], argv[1:]...)
}

// killStarted terminates every already-started stage of a pipeline whose
// launch failed partway through, so a fork/pipe/redirection failure never
// leaves orphaned children the JobTable doesn't know about.
func killStarted(cmds []*exec.Cmd) {
	for _, cmd := range cmds {
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
			_, _ = cmd.Process.Wait()
		}
	}
}
