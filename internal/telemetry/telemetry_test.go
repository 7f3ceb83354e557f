package telemetry

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestTimerMarksAreOrdered(t *testing.T) {
	clock := time.Unix(0, 0)
	now := func() time.Time { return clock }
	timer := newTimerAt(now, clock)

	clock = clock.Add(5 * time.Millisecond)
	timer.Mark("decode")
	clock = clock.Add(10 * time.Millisecond)
	timer.Mark("execute")

	marks := timer.Marks()
	if len(marks) != 2 {
		t.Fatalf("got %d marks", len(marks))
	}
	if marks[0].Name != "decode" || marks[0].Elapsed != 5*time.Millisecond {
		t.Fatalf("mark[0] = %+v", marks[0])
	}
	if marks[1].Elapsed != 15*time.Millisecond {
		t.Fatalf("mark[1] = %+v", marks[1])
	}
	if timer.Total() != 15*time.Millisecond {
		t.Fatalf("total = %v", timer.Total())
	}
}

func TestWarnOnceDeduplicates(t *testing.T) {
	var buf bytes.Buffer
	w := NewWarnOnce(slog.New(slog.NewTextHandler(&buf, nil)))

	w.Warn("provider/x", "capability metadata missing")
	w.Warn("provider/x", "capability metadata missing")
	w.Warn("provider/y", "capability metadata missing")

	if n := strings.Count(buf.String(), "capability metadata missing"); n != 2 {
		t.Fatalf("logged %d times, want 2 (one per key)", n)
	}

	w.Reset()
	w.Warn("provider/x", "capability metadata missing")
	if n := strings.Count(buf.String(), "capability metadata missing"); n != 3 {
		t.Fatalf("after reset logged %d times, want 3", n)
	}
}
