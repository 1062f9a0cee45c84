package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type recorder struct {
	events []SprintEvent
	err    error
}

func (r *recorder) SprintCompleted(_ context.Context, evt SprintEvent) error {
	r.events = append(r.events, evt)
	return r.err
}

func TestMulti_FansOutAndJoinsErrors(t *testing.T) {
	ok := &recorder{}
	bad := &recorder{err: errors.New("boom")}
	m := Multi{bad, ok}

	err := m.SprintCompleted(context.Background(), SprintEvent{SprintID: "s1"})
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Errorf("Multi error = %v, want boom", err)
	}
	if len(ok.events) != 1 || len(bad.events) != 1 {
		t.Errorf("deliveries ok=%d bad=%d, want 1 each", len(ok.events), len(bad.events))
	}
}

func TestMulti_Empty(t *testing.T) {
	if err := (Multi{}).SprintCompleted(context.Background(), SprintEvent{}); err != nil {
		t.Errorf("empty Multi error = %v", err)
	}
}

func TestSend_NilAndFailureAreSwallowed(t *testing.T) {
	Send(context.Background(), nil, SprintEvent{})
	r := &recorder{err: errors.New("down")}
	Send(context.Background(), r, SprintEvent{SprintID: "s1"})
	if len(r.events) != 1 {
		t.Errorf("Send delivered %d events, want 1", len(r.events))
	}
}

func TestFormatSprintCompleted(t *testing.T) {
	evt := SprintEvent{
		SprintName:  "Sprint 7",
		CompletedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Kept:        3,
		Reassigned:  2,
		Snapshots:   1,
	}
	msg := FormatSprintCompleted(evt)
	if !strings.Contains(msg.Title, "Sprint 7") {
		t.Errorf("Title = %q", msg.Title)
	}
	if !strings.Contains(msg.Body, "3 issue(s) done") || !strings.Contains(msg.Body, "2 returned") {
		t.Errorf("Body = %q", msg.Body)
	}
	if msg.Color != ColorSuccess || len(msg.Fields) != 2 {
		t.Errorf("Color/Fields = %s/%d", msg.Color, len(msg.Fields))
	}

	evt.Skipped, evt.Failed = 1, 2
	msg = FormatSprintCompleted(evt)
	if msg.Color != ColorWarning || len(msg.Fields) != 4 {
		t.Errorf("with failures Color/Fields = %s/%d", msg.Color, len(msg.Fields))
	}
}
