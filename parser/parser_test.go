package parser

import "testing"

func TestParseSimpleCommand(t *testing.T) {
	c := Parse("echo hello world")
	if c.Err != nil {
		t.Fatalf("unexpected error: %v", c.Err)
	}
	if len(c.Seq) != 1 {
		t.Fatalf("expected 1 stage, got %d", len(c.Seq))
	}
	want := []string{"echo", "hello", "world"}
	if len(c.Seq[0]) != len(want) {
		t.Fatalf("expected %v, got %v", want, c.Seq[0])
	}
	for i := range want {
		if c.Seq[0][i] != want[i] {
			t.Fatalf("expected %v, got %v", want, c.Seq[0])
		}
	}
}

func TestParsePipeline(t *testing.T) {
	c := Parse("cat file.txt | grep foo | wc -l")
	if c.Err != nil {
		t.Fatalf("unexpected error: %v", c.Err)
	}
	if len(c.Seq) != 3 {
		t.Fatalf("expected 3 stages, got %d", len(c.Seq))
	}
}

func TestParseBackground(t *testing.T) {
	c := Parse("sleep 10 &")
	if c.Err != nil {
		t.Fatalf("unexpected error: %v", c.Err)
	}
	if !c.Bg {
		t.Fatalf("expected Bg to be true")
	}
}

func TestParseRedirection(t *testing.T) {
	c := Parse("sort < in.txt > out.txt")
	if c.Err != nil {
		t.Fatalf("unexpected error: %v", c.Err)
	}
	if c.In == nil || *c.In != "in.txt" {
		t.Fatalf("expected In=in.txt, got %v", c.In)
	}
	if c.Out == nil || *c.Out != "out.txt" {
		t.Fatalf("expected Out=out.txt, got %v", c.Out)
	}
}

func TestParseQuotedWord(t *testing.T) {
	c := Parse(`echo "hello world"`)
	if c.Err != nil {
		t.Fatalf("unexpected error: %v", c.Err)
	}
	if len(c.Seq[0]) != 2 || c.Seq[0][1] != "hello world" {
		t.Fatalf("expected quoted word preserved, got %v", c.Seq[0])
	}
}

func TestParseBlankAndComment(t *testing.T) {
	for _, in := range []string{"", "   ", "# a comment"} {
		c := Parse(in)
		if c.Err != nil {
			t.Fatalf("unexpected error for %q: %v", in, c.Err)
		}
		if len(c.Seq) != 0 {
			t.Fatalf("expected no stages for %q, got %v", in, c.Seq)
		}
	}
}

func TestParseEmptyPipelineStageIsError(t *testing.T) {
	c := Parse("echo hi | | wc")
	if c.Err == nil {
		t.Fatalf("expected a parse error for an empty pipeline stage")
	}
}

func TestFormat(t *testing.T) {
	seq := [][]string{{"echo", "hi"}, {"wc", "-l"}}
	got := Format(seq)
	want := "echo hi | wc -l"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}
