// Package notify announces sprint completions to chat platforms.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"
)

// Status colors used as sidebar hints.
const (
	ColorSuccess = "#36a64f"
	ColorWarning = "#daa038"
)

// SprintEvent describes a completed sprint.
type SprintEvent struct {
	SprintID    string
	SprintName  string
	ProjectID   string
	CompletedAt time.Time
	Kept        int // DONE issues that stay in the sprint
	Reassigned  int // open issues moved back to the backlog
	Snapshots   int // diagrams snapshotted
	Skipped     int // diagrams skipped for having no XML
	Failed      int // diagram snapshot saves that failed
}

// Message is a platform-neutral rendering of an event.
type Message struct {
	Title  string
	Body   string
	Color  string
	Fields []Field
}

// Field is a key-value pair displayed with a message.
type Field struct {
	Name  string
	Value string
	Short bool // hint: render side-by-side with another field
}

// Notifier delivers sprint events to one destination.
type Notifier interface {
	SprintCompleted(ctx context.Context, evt SprintEvent) error
}

// Multi fans an event out to every notifier and joins their errors.
type Multi []Notifier

// SprintCompleted implements Notifier.
func (m Multi) SprintCompleted(ctx context.Context, evt SprintEvent) error {
	var errs []error
	for _, n := range m {
		if err := n.SprintCompleted(ctx, evt); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Send delivers evt through n and logs any failure. A nil notifier is a no-op.
func Send(ctx context.Context, n Notifier, evt SprintEvent) {
	if n == nil {
		return
	}
	if err := n.SprintCompleted(ctx, evt); err != nil {
		log.Printf("notify: sprint %s: %v", evt.SprintID, err)
	}
}

// FormatSprintCompleted renders evt for chat.
func FormatSprintCompleted(evt SprintEvent) Message {
	msg := Message{
		Title: fmt.Sprintf("Sprint %q completed", evt.SprintName),
		Body:  fmt.Sprintf("%d issue(s) done, %d returned to the backlog.", evt.Kept, evt.Reassigned),
		Color: ColorSuccess,
		Fields: []Field{
			{Name: "Diagrams snapshotted", Value: fmt.Sprint(evt.Snapshots), Short: true},
			{Name: "Completed at", Value: evt.CompletedAt.UTC().Format(time.RFC3339), Short: true},
		},
	}
	if evt.Skipped > 0 {
		msg.Fields = append(msg.Fields, Field{Name: "Skipped (no XML)", Value: fmt.Sprint(evt.Skipped), Short: true})
	}
	if evt.Failed > 0 {
		msg.Color = ColorWarning
		msg.Fields = append(msg.Fields, Field{Name: "Snapshot failures", Value: fmt.Sprint(evt.Failed), Short: true})
	}
	return msg
}
