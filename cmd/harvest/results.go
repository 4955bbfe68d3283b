package main

import (
	"fmt"
	"time"

	"github.com/fwojciec/harvest"
)

// Run executes the results command.
func (c *ResultsCmd) Run(deps *Dependencies) error {
	filter := harvest.ResultFilter{Limit: c.Limit}
	if c.Target != "" {
		filter.TargetID = &c.Target
	}
	if c.Outcome != "" {
		outcome := harvest.Outcome(c.Outcome)
		switch outcome {
		case harvest.OutcomeOK, harvest.OutcomeEmpty, harvest.OutcomeFailed:
		default:
			err := harvest.Errorf(harvest.EINVALID, "invalid outcome %q: must be ok, empty or failed", c.Outcome)
			fmt.Fprintf(deps.Stderr, "error: %s\n", harvest.ErrorMessage(err))
			return err
		}
		filter.Outcome = &outcome
	}

	results, err := deps.Results.FindResults(deps.Ctx, filter)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", harvest.ErrorMessage(err))
		return err
	}

	if len(results) == 0 {
		fmt.Fprintln(deps.Stdout, "No results found.")
		return nil
	}

	for _, r := range results {
		fmt.Fprintf(deps.Stdout, "%s  ", r.ScrapedAt.Local().Format(time.DateTime))
		printResult(deps.Stdout, r)
		for _, f := range r.Fragments {
			fmt.Fprintf(deps.Stdout, "  %s\n", f)
		}
	}
	return nil
}
