// Package parser turns a raw command line into the ParsedCommand contract
// the job-control core consumes: a sequence of pipeline stages, optional
// endpoint redirection, a background flag, and the original text.
//
// This is deliberately thin. Quoting is limited to single and double quotes,
// there is no variable expansion, globbing, or here-doc support.
package parser

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var cmdLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "String", Pattern: `"(\\.|[^"])*"`},
	{Name: "SingleString", Pattern: `'[^']*'`},
	{Name: "Redirect", Pattern: `<|>`},
	{Name: "Pipe", Pattern: `\|`},
	{Name: "Amp", Pattern: `&`},
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "Word", Pattern: `[^\s|&<>"']+`},
})

type line struct {
	Stages []*stage `parser:"@@ ( '|' @@ )*"`
	Amp    bool     `parser:"@'&'?"`
}

type stage struct {
	Parts []*part `parser:"@@+"`
}

type part struct {
	Redir *redir  `parser:"(  @@"`
	Word  *string `parser:" | @(Word|String|SingleString) )"`
}

type redir struct {
	Op   string `parser:"@Redirect"`
	File string `parser:"@(Word|String|SingleString)"`
}

var grammar = participle.MustBuild[line](
	participle.Lexer(cmdLexer),
	participle.Elide("Whitespace"),
	participle.Unquote("String", "SingleString"),
)

// Command is the ParsedCommand contract: a sequence of pipeline stage argv
// vectors, optional input/output redirection filenames for the first/last
// stage, a background flag, a parse error (nil on success), and the
// original raw text.
type Command struct {
	Seq [][]string
	In  *string
	Out *string
	Bg  bool
	Err error
	Raw string
}

// Parse parses a single command line. It never returns nil: on a syntax
// error, the returned Command has Err set and Seq empty.
func Parse(raw string) *Command {
	cmd := &Command{Raw: raw}

	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return cmd
	}

	parsed, err := grammar.ParseString("", raw)
	if err != nil {
		cmd.Err = fmt.Errorf("parse error: %w", err)
		return cmd
	}

	cmd.Bg = parsed.Amp
	for i, st := range parsed.Stages {
		var argv []string
		last := i == len(parsed.Stages)-1
		for _, p := range st.Parts {
			switch {
			case p.Word != nil:
				argv = append(argv, *p.Word)
			case p.Redir != nil:
				switch p.Redir.Op {
				case "<":
					if i == 0 {
						file := p.Redir.File
						cmd.In = &file
					}
				case ">":
					if last {
						file := p.Redir.File
						cmd.Out = &file
					}
				}
			}
		}
		if len(argv) == 0 {
			cmd.Err = fmt.Errorf("parse error: empty command in pipeline")
			cmd.Seq = nil
			return cmd
		}
		cmd.Seq = append(cmd.Seq, argv)
	}

	return cmd
}

// Format reconstructs a human-readable rendering of a stage sequence,
// e.g. for display in job listings when the original raw text is absent.
func Format(seq [][]string) string {
	stages := make([]string, len(seq))
	for i, argv := range seq {
		stages[i] = strings.Join(argv, " ")
	}
	return strings.Join(stages, " | ")
}
