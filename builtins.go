package pgsh

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// builtinNames enumerates the job-control family plus the shell-control
// builtins this dispatcher recognizes. Built-ins outside this family (cd,
// echo, alias, ...) are handled, if at all, by a separate collaborator;
// this core never sees them.
var builtinNames = map[string]bool{
	"jobs": true,
	"fg":   true,
	"bg":   true,
	"stop": true,
	"exit": true,
	"quit": true,
}

func isBuiltinName(name string) bool {
	return builtinNames[name]
}

// ExitRequest is returned by Dispatch when the command was exit/quit, so
// the caller (the REPL loop) can terminate the process after flushing any
// remaining output, rather than Dispatch calling os.Exit itself.
type ExitRequest struct {
	Code int
}

func (e *ExitRequest) Error() string {
	return fmt.Sprintf("exit requested with code %d", e.Code)
}

// resolveTarget implements the shared %N / bare-pid / default-to-last
// argument rule used by fg, bg, and stop.
func resolveTarget(jt *JobTable, args []string) (int, error) {
	if len(args) > 1 {
		return 0, fmt.Errorf("too many arguments")
	}
	if len(args) == 0 {
		id, ok := jt.GetLast()
		if !ok {
			return 0, ErrNotFound
		}
		return id, nil
	}

	arg := args[0]
	if strings.HasPrefix(arg, "%") {
		n, err := strconv.Atoi(strings.TrimPrefix(arg, "%"))
		if err != nil {
			return 0, ErrInvalidArgument
		}
		return n, nil
	}

	pid, err := strconv.Atoi(arg)
	if err != nil {
		return 0, ErrInvalidArgument
	}
	id, ok := jt.GetJob(pid)
	if !ok {
		return 0, ErrNotFound
	}
	return id, nil
}

// Dispatch recognizes and executes the builtins named in builtinNames.
// argv[0] is the builtin name; argv[1:] are its arguments. It returns
// *ExitRequest (via errors.As) when the shell should terminate.
func Dispatch(jt *JobTable, argv []string, stdout, stderr io.Writer) error {
	name, args := argv[0], argv[1:]
	switch name {
	case "jobs":
		return jt.PrintAll(stdout)

	case "fg":
		id, err := resolveTarget(jt, args)
		if err != nil {
			return fmt.Errorf("fg: %w", err)
		}
		_ = jt.Cont(id)
		if err := jt.SetFG(id); err != nil {
			return fmt.Errorf("fg: %w", err)
		}
		jt.WaitFG(context.Background())
		return nil

	case "bg":
		id, err := resolveTarget(jt, args)
		if err != nil {
			return fmt.Errorf("bg: %w", err)
		}
		if err := jt.Cont(id); err != nil {
			return fmt.Errorf("bg: %w", err)
		}
		return nil

	case "stop":
		id, err := resolveTarget(jt, args)
		if err != nil {
			return fmt.Errorf("stop: %w", err)
		}
		if err := jt.Stop(id); err != nil {
			return fmt.Errorf("stop: %w", err)
		}
		return nil

	case "exit", "quit":
		code := 0
		if len(args) > 1 {
			return fmt.Errorf("%s: too many arguments", name)
		}
		if len(args) == 1 {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("%s: numeric argument required", name)
			}
			code = n
		}
		jt.KillAll()
		return &ExitRequest{Code: code}

	default:
		return fmt.Errorf("%s: not a builtin", name)
	}
}

// PrintDiagnostic writes a builtin's failure the way the dispatcher's
// callers (the REPL loop, the reexec entry point) report it: one line to
// stderr, no trailing punctuation beyond what err already carries.
func PrintDiagnostic(stderr io.Writer, err error) {
	fmt.Fprintln(stderr, err)
}
