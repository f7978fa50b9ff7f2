package progress

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func TestReporter_StepLifecycle(t *testing.T) {
	t.Parallel()

	ch := make(chan Event, 16)
	r := NewReporter("run1", ch)
	ctx := context.Background()

	update := r.Step(ctx, "render")
	update(40)
	r.Done(ctx, "render")
	r.Finish(ctx, nil)
	close(ch)

	var got []Event
	for ev := range ch {
		got = append(got, ev)
	}
	if len(got) != 4 {
		t.Fatalf("expected 4 events, got %d", len(got))
	}
	if got[0].Percent != 0 || got[1].Percent != 40 || !got[2].Done || !got[3].Final {
		t.Fatalf("unexpected events: %+v", got)
	}
	for _, ev := range got {
		if ev.RunID != "run1" || ev.At.IsZero() {
			t.Fatalf("event not stamped: %+v", ev)
		}
	}
}

func TestReporter_DropsUpdatesWhenFull(t *testing.T) {
	t.Parallel()

	ch := make(chan Event, 1)
	r := NewReporter("run1", ch)
	update := r.Step(context.Background(), "scale")
	for i := 0; i < 100; i++ {
		update(float64(i))
	}
	if len(ch) != 1 {
		t.Fatalf("expected only the step start to be buffered")
	}
}

func TestReporter_Nil(t *testing.T) {
	t.Parallel()

	var r *Reporter
	r.Step(context.Background(), "x")(10)
	r.Done(context.Background(), "x")
	r.Finish(context.Background(), errors.New("boom"))
}

func TestConsole_NonTTYSamples(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	c := NewConsole(&buf)
	for _, p := range []float64{0, 5, 10, 26, 30, 55, 80, 100} {
		c.Render(Event{Step: "final render", Percent: p})
	}
	c.Render(Event{Step: "failed", Final: true, Err: "transcode failure\ntail"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	want := []string{
		"final render   0%",
		"final render  26%",
		"final render  55%",
		"final render  80%",
		"final render 100%",
		"failed: transcode failure",
	}
	if strings.Join(lines, "|") != strings.Join(want, "|") {
		t.Fatalf("unexpected output:\n%s", buf.String())
	}
}

func TestTracker_Tee(t *testing.T) {
	t.Parallel()

	in := make(chan Event, 2)
	out := make(chan Event, 2)
	tr := NewTracker()
	in <- Event{RunID: "a", Step: "one", Percent: 10}
	in <- Event{RunID: "a", Step: "two", Percent: 20}
	close(in)
	tr.Tee(in, out)

	ev, ok := tr.Latest("a")
	if !ok || ev.Step != "two" {
		t.Fatalf("latest = %+v, %v", ev, ok)
	}
	if len(out) != 2 {
		t.Fatalf("expected forwarded events")
	}
	if _, ok := <-out; !ok {
		t.Fatalf("expected buffered event")
	}
}
