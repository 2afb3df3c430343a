package ingest

import (
	"errors"
	"reflect"
	"testing"
)

func TestBuildOutcome(t *testing.T) {
	cause := errors.New("bad record")
	results := []Result{
		NewCreated(0, "first question?"),
		NewDuplicate(1, "second question?"),
		NewFailed(2, "third question?", cause),
		NewCreated(3, "fourth question?"),
		NewDuplicate(4, "fifth question?"),
	}

	o := BuildOutcome(results)

	if o.Total() != 5 {
		t.Errorf("Total = %d, want 5", o.Total())
	}
	if o.Created() != 2 || o.Duplicates() != 2 || o.Failed() != 1 {
		t.Errorf("got created=%d dup=%d failed=%d, want 2/2/1",
			o.Created(), o.Duplicates(), o.Failed())
	}
	if got := o.Created() + o.Duplicates() + o.Failed(); got != o.Total() {
		t.Errorf("counters sum to %d, total is %d", got, o.Total())
	}
}

func TestOutcome_DuplicateTexts(t *testing.T) {
	o := BuildOutcome([]Result{
		NewCreated(0, "kept"),
		NewDuplicate(1, "dup one"),
		NewDuplicate(2, "dup two"),
	})

	want := []string{"dup one", "dup two"}
	if got := o.DuplicateTexts(); !reflect.DeepEqual(got, want) {
		t.Errorf("DuplicateTexts = %v, want %v", got, want)
	}
}

func TestOutcome_Failures(t *testing.T) {
	cause := errors.New("broken")
	o := BuildOutcome([]Result{
		NewCreated(0, "ok"),
		NewFailed(1, "broken record", cause),
	})

	failures := o.Failures()
	if len(failures) != 1 {
		t.Fatalf("failures = %d, want 1", len(failures))
	}
	if failures[0].Index() != 1 || !errors.Is(failures[0].Err(), cause) {
		t.Errorf("unexpected failure %+v", failures[0])
	}
}

func TestBuildOutcome_Empty(t *testing.T) {
	o := BuildOutcome(nil)
	if o.Total() != 0 || o.Created() != 0 || o.Duplicates() != 0 || o.Failed() != 0 {
		t.Errorf("empty outcome has nonzero counters: %+v", o)
	}
	if o.DuplicateTexts() != nil {
		t.Errorf("DuplicateTexts = %v, want nil", o.DuplicateTexts())
	}
}

func TestResultConstructors(t *testing.T) {
	cause := errors.New("nope")
	tests := []struct {
		name   string
		result Result
		status ItemStatus
		err    error
	}{
		{name: "created", result: NewCreated(3, "q"), status: StatusCreated},
		{name: "duplicate", result: NewDuplicate(3, "q"), status: StatusDuplicate},
		{name: "failed", result: NewFailed(3, "q", cause), status: StatusFailed, err: cause},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.result.Status() != tt.status {
				t.Errorf("status = %q, want %q", tt.result.Status(), tt.status)
			}
			if tt.result.Index() != 3 || tt.result.Text() != "q" {
				t.Errorf("index/text = %d/%q", tt.result.Index(), tt.result.Text())
			}
			if !errors.Is(tt.result.Err(), tt.err) {
				t.Errorf("err = %v, want %v", tt.result.Err(), tt.err)
			}
		})
	}
}
