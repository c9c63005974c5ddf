package pgsh

import (
	"bytes"
	"strings"
	"testing"
)

func TestJobTableSmallestFreeID(t *testing.T) {
	jt := NewJobTable()
	id1 := jt.Add("cmd one", []int{100})
	id2 := jt.Add("cmd two", []int{101})
	id3 := jt.Add("cmd three", []int{102})
	if id1 != 1 || id2 != 2 || id3 != 3 {
		t.Fatalf("expected ids 1,2,3, got %d,%d,%d", id1, id2, id3)
	}

	if err := jt.DeletePID(101, 0); err != nil {
		t.Fatalf("DeletePID: %v", err)
	}
	// Job 2 is a Done background job; it keeps its id until a listing
	// evicts it.
	if err := jt.PrintAll(&bytes.Buffer{}); err != nil {
		t.Fatalf("PrintAll: %v", err)
	}

	id4 := jt.Add("cmd four", []int{103})
	if id4 != 2 {
		t.Fatalf("expected reused id 2, got %d", id4)
	}
}

func TestJobTableStopAlreadyStoppedIsError(t *testing.T) {
	jt := NewJobTable()
	// fabricate a job whose pgid is -1, which names no real process group,
	// and exercise the state-check path only by marking it stopped directly
	// via StopPID, so Stop never reaches killPGID.
	id := jt.Add("sleep 100", []int{-1})
	if err := jt.StopPID(-1); err != nil {
		t.Fatalf("StopPID: %v", err)
	}
	if err := jt.Stop(id); err != ErrAlreadyInTargetState {
		t.Fatalf("expected ErrAlreadyInTargetState, got %v", err)
	}
}

func TestJobTableNotFound(t *testing.T) {
	jt := NewJobTable()
	if err := jt.Stop(42); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := jt.Cont(42); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := jt.Term(42); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestJobTableForegroundBusy(t *testing.T) {
	jt := NewJobTable()
	id1 := jt.Add("sleep 100", []int{-1})
	id2 := jt.Add("sleep 200", []int{-2})

	if err := jt.SetFG(id1); err != nil {
		t.Fatalf("SetFG: %v", err)
	}
	if err := jt.SetFG(id2); err != ErrForegroundBusy {
		t.Fatalf("expected ErrForegroundBusy, got %v", err)
	}
}

func TestJobTableDeletePIDEvictsForegroundJob(t *testing.T) {
	jt := NewJobTable()
	id := jt.Add("sleep 100", []int{-1})
	if err := jt.SetFG(id); err != nil {
		t.Fatalf("SetFG: %v", err)
	}
	if err := jt.DeletePID(-1, 0); err != nil {
		t.Fatalf("DeletePID: %v", err)
	}
	if _, ok := jt.GetFG(); ok {
		t.Fatalf("expected no foreground job after it terminated")
	}
	if jt.findByID(id) != nil {
		t.Fatalf("expected the foreground job to be evicted immediately on completion")
	}
}

func TestJobTablePrintAllEvictsDoneJobsExactlyOnce(t *testing.T) {
	jt := NewJobTable()
	id := jt.Add("sleep 100", []int{-1})
	if err := jt.DeletePID(-1, 0); err != nil {
		t.Fatalf("DeletePID: %v", err)
	}

	var buf bytes.Buffer
	if err := jt.PrintAll(&buf); err != nil {
		t.Fatalf("PrintAll: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Done") {
		t.Fatalf("expected Done status in output, got %q", out)
	}
	if !strings.Contains(out, "sleep 100") {
		t.Fatalf("expected command text in output, got %q", out)
	}

	buf.Reset()
	if err := jt.PrintAll(&buf); err != nil {
		t.Fatalf("PrintAll: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected job %d to be evicted after first listing, got %q", id, buf.String())
	}
}

func TestJobTableTakeCompletedHistory(t *testing.T) {
	jt := NewJobTable()
	jt.Add("sleep 100", []int{-1})
	if err := jt.DeletePID(-1, 7); err != nil {
		t.Fatalf("DeletePID: %v", err)
	}

	entries := jt.TakeCompletedHistory()
	if len(entries) != 1 {
		t.Fatalf("expected 1 completed entry, got %d", len(entries))
	}
	if entries[0].CommandText != "sleep 100" || entries[0].ExitStatus != 7 {
		t.Fatalf("unexpected entry: %+v", entries[0])
	}

	if more := jt.TakeCompletedHistory(); len(more) != 0 {
		t.Fatalf("expected backlog to be drained, got %v", more)
	}
}

func TestJobTableGetLastIsMostRecentlyCreated(t *testing.T) {
	jt := NewJobTable()
	jt.Add("first", []int{-1})
	id2 := jt.Add("second", []int{-2})

	last, ok := jt.GetLast()
	if !ok || last != id2 {
		t.Fatalf("expected last job %d, got %d (ok=%v)", id2, last, ok)
	}
}
