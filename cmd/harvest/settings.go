package main

import (
	"fmt"
	"io"

	"github.com/fwojciec/harvest"
)

// Run executes the settings show command.
func (c *SettingsShowCmd) Run(deps *Dependencies) error {
	policy, err := deps.Policy.FindPolicy(deps.Ctx)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", harvest.ErrorMessage(err))
		return err
	}
	printPolicy(deps.Stdout, policy)
	return nil
}

// Run executes the settings set command. The schedule is parsed before
// anything is stored.
func (c *SettingsSetCmd) Run(deps *Dependencies) error {
	upd := harvest.PolicyUpdate{
		ScrapeTime:       c.ScrapeTime,
		MaxRetries:       c.MaxRetries,
		Timeout:          c.Timeout,
		InterTargetDelay: c.InterTargetDelay,
		RetryDelay:       c.RetryDelay,
		Dedup:            c.Dedup,
	}

	if upd.ScrapeTime != nil {
		if _, err := deps.Triggers.Parse(*upd.ScrapeTime); err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", harvest.ErrorMessage(err))
			return err
		}
	}

	policy, err := deps.Policy.UpdatePolicy(deps.Ctx, upd)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", harvest.ErrorMessage(err))
		return err
	}

	fmt.Fprintln(deps.Stdout, "Settings updated. A running server applies them on restart.")
	printPolicy(deps.Stdout, policy)
	return nil
}

func printPolicy(w io.Writer, p *harvest.SchedulePolicy) {
	fmt.Fprintf(w, "scrape_time:        %s\n", p.ScrapeTime)
	fmt.Fprintf(w, "max_retries:        %d\n", p.MaxRetries)
	fmt.Fprintf(w, "timeout:            %s\n", p.Timeout)
	fmt.Fprintf(w, "inter_target_delay: %s\n", p.InterTargetDelay)
	fmt.Fprintf(w, "retry_delay:        %s\n", p.RetryDelay)
	fmt.Fprintf(w, "dedup:              %t\n", p.Dedup)
}
