package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/harvest"
	"github.com/fwojciec/harvest/cron"
	"github.com/fwojciec/harvest/goquery"
	harvesthttp "github.com/fwojciec/harvest/http"
	"github.com/fwojciec/harvest/rod"
	"github.com/fwojciec/harvest/scrape"
	harvestslog "github.com/fwojciec/harvest/slog"
	"github.com/fwojciec/harvest/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Database path used when --db and HARVEST_DB are unset.
	DBPath string

	// SQLite database used by SQLite service implementations.
	DB *sqlite.DB

	// Services for end-to-end testing.
	TargetService harvest.TargetService
	ResultService harvest.ResultService
	PolicyService harvest.PolicyService
	StatsService  harvest.StatsService

	closers []func() error
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		DBPath: defaultDBPath(),
	}
}

// Close gracefully stops the program. Resources are released in reverse
// order of acquisition.
func (m *Main) Close() error {
	var firstErr error
	for i := len(m.closers) - 1; i >= 0; i-- {
		if err := m.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	m.closers = nil
	if m.DB != nil {
		if err := m.DB.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("harvest"),
		kong.Description("Extract text fragments from web pages on a schedule"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'harvest --help' to see available commands")
	}

	if cmd := args[0]; cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	logger, closeLog, err := newLogger(cli.Log, stderr)
	if err != nil {
		return err
	}
	m.closers = append(m.closers, closeLog)
	deps.Logger = logger

	path := cli.DB
	if path == "" {
		path = m.DBPath
	}
	m.DB = sqlite.NewDB(path)
	if err := m.DB.Open(); err != nil {
		fmt.Fprintf(stderr, "Hint: Set HARVEST_DB to use a different database path\n")
		_ = m.Close()
		return fmt.Errorf("failed to open database at %q: %w", path, err)
	}
	defer m.Close()

	m.TargetService = sqlite.NewTargetService(m.DB)
	m.ResultService = harvestslog.NewLoggingResultService(sqlite.NewResultService(m.DB), logger)
	m.PolicyService = sqlite.NewPolicyService(m.DB)
	m.StatsService = sqlite.NewStatsService(m.DB)
	deps.Targets = m.TargetService
	deps.Results = m.ResultService
	deps.Policy = m.PolicyService
	deps.Stats = m.StatsService
	deps.Triggers = cron.NewParser(nil)

	switch command := strings.Fields(kongCtx.Command())[0]; command {
	case "serve", "run", "scrape":
		scheduler, err := m.newScheduler(ctx, cli.Fetch, deps.Triggers, logger)
		if err != nil {
			return err
		}
		deps.Scheduler = scheduler
	}

	return kongCtx.Run(deps)
}

// newScheduler wires fetchers, the extractor and the runner into a
// scheduler using the stored policy. The browser starts on first use.
func (m *Main) newScheduler(ctx context.Context, flags FetchFlags, triggers harvest.TriggerParser, logger *slog.Logger) (*scrape.Scheduler, error) {
	policy, err := m.PolicyService.FindPolicy(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	static := harvesthttp.NewFetcher(harvesthttp.WithUserAgent(flags.UserAgent))
	m.closers = append(m.closers, static.Close)

	managerOpts := []rod.ManagerOption{rod.WithMaxConcurrentPages(flags.MaxPages)}
	if flags.BrowserURL != "" {
		managerOpts = append(managerOpts, rod.WithControlURL(flags.BrowserURL))
	}
	dynamic := rod.NewFetcher(rod.NewBrowserManager(managerOpts...))
	m.closers = append(m.closers, dynamic.Close)

	runner := &scrape.Runner{
		Static:    harvestslog.NewLoggingFetcher(static, logger),
		Dynamic:   harvestslog.NewLoggingFetcher(dynamic, logger),
		Extractor: goquery.NewExtractor(),
		Limiter:   scrape.NewHostLimiter(flags.HostRPS),
		Logger:    logger,
	}

	scheduler, err := scrape.NewScheduler(m.TargetService, m.ResultService, runner, triggers, policy, logger)
	if err != nil {
		return nil, fmt.Errorf("invalid stored settings: %w", err)
	}
	return scheduler, nil
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "harvest.db"
	}
	dir := filepath.Join(home, ".harvest")
	_ = os.MkdirAll(dir, 0755)
	return filepath.Join(dir, "harvest.db")
}
