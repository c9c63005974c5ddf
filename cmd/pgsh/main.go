// Command pgsh is a small interactive job-control shell: it launches
// pipelines in their own process groups, tracks them as jobs, and exposes
// jobs/fg/bg/stop/exit to move jobs between foreground, background, and
// stopped.
package main

import (
	"fmt"
	"os"

	"pgsh"
)

func main() {
	if argv, ok := pgsh.IsReexecBuiltin(os.Args[1:]); ok {
		os.Exit(pgsh.RunReexecBuiltin(argv, os.Stdout, os.Stderr))
	}
	if name, ok := pgsh.IsReexecExecFail(os.Args[1:]); ok {
		os.Exit(pgsh.RunReexecExecFail(name, os.Stderr))
	}

	var in *os.File
	switch len(os.Args) {
	case 1:
		in = os.Stdin
	case 2:
		f, err := os.Open(os.Args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "pgsh: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		in = f
	default:
		fmt.Fprintln(os.Stderr, "usage: pgsh [script]")
		os.Exit(2)
	}

	sh, err := pgsh.NewShell(in, "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "pgsh: %v\n", err)
		os.Exit(1)
	}
	defer sh.Close()

	os.Exit(sh.Run())
}
