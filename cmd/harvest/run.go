package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fwojciec/harvest"
)

// Run executes the run command.
func (c *RunCmd) Run(deps *Dependencies) error {
	batch, err := deps.Scheduler.RunAll(deps.Ctx)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", harvest.ErrorMessage(err))
		return err
	}

	for _, r := range batch.Results {
		printResult(deps.Stdout, r)
	}
	fmt.Fprintf(deps.Stdout, "Batch finished: %d ok, %d empty, %d failed in %s\n",
		batch.Succeeded, batch.Empty, batch.Failed, batch.FinishedAt.Sub(batch.StartedAt).Round(time.Millisecond))
	return nil
}

// Run executes the scrape command.
func (c *ScrapeCmd) Run(deps *Dependencies) error {
	result, err := deps.Scheduler.RunTarget(deps.Ctx, c.ID)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", harvest.ErrorMessage(err))
		return err
	}

	printResult(deps.Stdout, result)
	for _, f := range result.Fragments {
		fmt.Fprintf(deps.Stdout, "  %s\n", f)
	}
	return nil
}

// printResult writes a one-line summary of r.
func printResult(w io.Writer, r *harvest.ExtractionResult) {
	name := r.TargetName
	if name == "" {
		name = r.TargetID
	}
	var detail strings.Builder
	switch r.Outcome {
	case harvest.OutcomeFailed:
		fmt.Fprintf(&detail, "%s", r.Failure)
		if r.Error != "" {
			fmt.Fprintf(&detail, ": %s", r.Error)
		}
	default:
		fmt.Fprintf(&detail, "%d fragments", len(r.Fragments))
	}
	fmt.Fprintf(w, "%-7s %s  %s (attempts: %d)\n", r.Outcome, name, detail.String(), r.Attempts)
}
