package reconcile

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// nextCronDuration parses a 5-field cron expression and returns the duration
// until the next fire time. Returns 0 on parse error.
func nextCronDuration(expr string, now time.Time) time.Duration {
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return 0
	}
	d := sched.Next(now).Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// Schedule runs a repair pass each time expr fires until ctx is cancelled.
// It returns immediately when expr is empty or does not parse.
func Schedule(ctx context.Context, db *gorm.DB, expr string, opts Opts) {
	if expr == "" {
		return
	}
	d := nextCronDuration(expr, time.Now())
	if d <= 0 {
		log.Printf("reconcile: schedule %q does not parse, not scheduling", expr)
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			rep, err := Run(db, opts)
			if err != nil {
				log.Printf("reconcile: scheduled pass: %v", err)
			} else if rep.Changed() {
				log.Printf("reconcile: %s", rep)
			}
			if d := nextCronDuration(expr, time.Now()); d > 0 {
				timer.Reset(d)
			}
		}
	}
}
