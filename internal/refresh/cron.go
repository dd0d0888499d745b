// Package refresh orchestrates one end-to-end scheduling cycle: pull the
// qualified/ranked snapshot and moderation events from the platform,
// replay them through the pure core packages, and persist whatever
// changed, all or nothing.
package refresh

import (
	"time"

	"github.com/robfig/cron/v3"
)

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// nextCronDuration parses a 5-field cron expression and returns the duration
// until the next fire time. Returns 0 on parse error.
func nextCronDuration(expr string) time.Duration {
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return 0
	}
	next := sched.Next(time.Now())
	d := time.Until(next)
	if d < 0 {
		return 0
	}
	return d
}

// RunForever blocks, calling run once immediately and then again every
// time cronExpr next fires, until stop is closed.
func RunForever(cronExpr string, stop <-chan struct{}, run func()) {
	run()
	for {
		d := nextCronDuration(cronExpr)
		if d == 0 {
			d = time.Minute
		}
		timer := time.NewTimer(d)
		select {
		case <-timer.C:
			run()
		case <-stop:
			timer.Stop()
			return
		}
	}
}
