package main

import (
	harvesthttp "github.com/fwojciec/harvest/http"
	"golang.org/x/sync/errgroup"
)

// Run executes the serve command. The API server and the scheduler loop stop
// together when the context is cancelled or either of them fails.
func (c *ServeCmd) Run(deps *Dependencies) error {
	server := harvesthttp.NewServer(deps.Logger)
	server.Addr = c.Addr
	server.TargetService = deps.Targets
	server.ResultService = deps.Results
	server.PolicyService = deps.Policy
	server.StatsService = deps.Stats
	server.ScrapeService = deps.Scheduler

	g, ctx := errgroup.WithContext(deps.Ctx)
	g.Go(func() error {
		return server.ListenAndServe(ctx)
	})
	g.Go(func() error {
		return deps.Scheduler.Run(ctx)
	})
	return g.Wait()
}
