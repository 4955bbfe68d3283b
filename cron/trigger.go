// Package cron turns ScrapeTime expressions into harvest.Trigger values
// using github.com/robfig/cron/v3.
package cron

import (
	"fmt"
	"time"

	"github.com/fwojciec/harvest"
	"github.com/robfig/cron/v3"
)

var _ harvest.TriggerParser = (*Parser)(nil)

// Parser parses "HH:MM" daily times and standard 5-field cron expressions.
type Parser struct {
	loc *time.Location
}

// NewParser returns a Parser evaluating schedules in loc.
// A nil loc means time.Local.
func NewParser(loc *time.Location) *Parser {
	if loc == nil {
		loc = time.Local
	}
	return &Parser{loc: loc}
}

// Parse returns a Trigger for expr. Returns EINVALID on malformed input and
// on expressions that never fire, such as "0 0 30 2 *".
func (p *Parser) Parse(expr string) (harvest.Trigger, error) {
	spec := expr
	if h, m, ok := harvest.ParseClock(expr); ok {
		spec = fmt.Sprintf("%d %d * * *", m, h)
	}
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, harvest.Errorf(harvest.EINVALID, "invalid schedule %q: %v", expr, err)
	}
	// robfig returns the zero time when nothing matches within five years.
	if sched.Next(time.Now().In(p.loc)).IsZero() {
		return nil, harvest.Errorf(harvest.EINVALID, "invalid schedule %q: never fires", expr)
	}
	return &trigger{sched: sched, loc: p.loc}, nil
}

type trigger struct {
	sched cron.Schedule
	loc   *time.Location
}

// Next returns the zero time if the schedule has no fire time after t.
func (t *trigger) Next(after time.Time) time.Time {
	return t.sched.Next(after.In(t.loc))
}
