package pgsh

import (
	"fmt"
	"io"
	"os"
)

// reexecFlag is the hidden first argument cmd/pgsh/main.go recognizes to
// mean "don't start a shell, run one builtin against a fresh job table and
// exit" — the re-exec entry point for a builtin embedded as a pipeline
// stage.
const reexecFlag = "-pgsh-reexec-builtin"

// reexecBuiltinArgv builds the argv for re-invoking this binary as a single
// builtin. os.Args[0] is used rather than a resolved absolute path: exec.Cmd
// already does PATH lookup for a bare name, and the shell itself was
// necessarily found that way to be running at all.
func reexecBuiltinArgv(argv []string) []string {
	out := make([]string, 0, len(argv)+2)
	out = append(out, os.Args[0], reexecFlag)
	out = append(out, argv...)
	return out
}

// IsReexecBuiltin reports whether os.Args names this process as a re-exec'd
// builtin child, and if so returns the builtin's own argv (name plus its
// arguments, with the marker flag stripped).
func IsReexecBuiltin(args []string) (argv []string, ok bool) {
	if len(args) >= 2 && args[0] == reexecFlag {
		return args[1:], true
	}
	return nil, false
}

// RunReexecBuiltin is the re-exec child's entire body: construct a fresh,
// empty JobTable and dispatch argv against it. A builtin run this way can
// only ever see the jobs it creates itself within this one-shot process, by
// design — see stageCommand's doc comment in launcher.go. It returns the
// process exit code.
func RunReexecBuiltin(argv []string, stdout, stderr io.Writer) int {
	if len(argv) == 0 {
		fmt.Fprintln(stderr, "pgsh: missing builtin name")
		return 1
	}
	if !isBuiltinName(argv[0]) {
		fmt.Fprintf(stderr, "%s: not a builtin\n", argv[0])
		return 1
	}

	jt := NewJobTable()
	err := Dispatch(jt, argv, stdout, stderr)
	if err == nil {
		return 0
	}
	if exitErr, ok := err.(*ExitRequest); ok {
		return exitErr.Code
	}
	PrintDiagnostic(stderr, err)
	return 1
}

// reexecExecFailFlag marks a re-exec child standing in for a pipeline
// stage whose command could not be found on PATH.
const reexecExecFailFlag = "-pgsh-reexec-exec-fail"

// reexecExecFailArgv builds the argv for re-invoking this binary to report
// a missing command in a child process of its own, the same way a forked
// child's execvp failure would.
func reexecExecFailArgv(name string) []string {
	return []string{os.Args[0], reexecExecFailFlag, name}
}

// IsReexecExecFail reports whether os.Args names this process as a
// re-exec'd stand-in for a missing command, and if so returns that
// command's name.
func IsReexecExecFail(args []string) (name string, ok bool) {
	if len(args) == 2 && args[0] == reexecExecFailFlag {
		return args[1], true
	}
	return "", false
}

// RunReexecExecFail is the re-exec child's entire body for a missing
// command: print the diagnostic a failed execvp would have produced and
// exit nonzero, so the stage is a genuine process the rest of the pipeline
// can pipe to and the reaper can reap.
func RunReexecExecFail(name string, stderr io.Writer) int {
	fmt.Fprintf(stderr, "%s: No such file or directory\n", name)
	return 127
}
