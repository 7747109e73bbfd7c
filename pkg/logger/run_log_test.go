package logger

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestRunLog_KeepsLastLines(t *testing.T) {
	var buf bytes.Buffer
	r := NewRunLog(3, NewWithWriter(&buf, Config{Level: "info"}))
	r.SetClock(func() time.Time { return time.Date(2025, 1, 1, 9, 5, 7, 0, time.UTC) })

	for i := 1; i <= 5; i++ {
		r.Append(fmt.Sprintf("line %d", i))
	}

	got := r.Snapshot()
	want := []string{"[09:05:07] line 3", "[09:05:07] line 4", "[09:05:07] line 5"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("Snapshot() = %v, want %v", got, want)
	}
	if r.Appended() != 5 {
		t.Errorf("Appended() = %d, want 5", r.Appended())
	}
	if !strings.Contains(buf.String(), "line 1") {
		t.Error("evicted lines must still reach the structured log")
	}
}

func TestRunLog_PartialAndReset(t *testing.T) {
	r := NewRunLog(0, NewWithWriter(&bytes.Buffer{}, Config{Level: "disabled"}))

	r.Append("first")
	if got := r.Snapshot(); len(got) != 1 || !strings.HasSuffix(got[0], "] first") {
		t.Errorf("Snapshot() = %v", got)
	}

	for i := 0; i < DefaultRunLogCapacity+2; i++ {
		r.Append("x")
	}
	if got := len(r.Snapshot()); got != DefaultRunLogCapacity {
		t.Errorf("Snapshot() kept %d lines, want %d", got, DefaultRunLogCapacity)
	}

	r.Reset()
	if len(r.Snapshot()) != 0 || r.Appended() != 0 {
		t.Error("Reset() should clear the log")
	}
}

func TestProgressReporter_Snapshot(t *testing.T) {
	pr := NewProgressReporter("extraction")
	var fn ProgressFunc = pr.Report

	fn(3, 12, "Mar 2025")

	p := pr.Snapshot()
	if p.Phase != "extraction" || p.Current != 3 || p.Total != 12 || p.Message != "Mar 2025" {
		t.Errorf("unexpected snapshot: %+v", p)
	}
	if p.Percent != 25 {
		t.Errorf("Percent = %v, want 25", p.Percent)
	}

	pr.Start("trends", 4)
	if p := pr.Snapshot(); p.Phase != "trends" || p.Current != 0 || p.Total != 4 {
		t.Errorf("Start() did not reset: %+v", p)
	}
}
