package main

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/fwojciec/harvest"
)

// Scheduler runs the recurring batch loop and serves on-demand runs.
type Scheduler interface {
	harvest.ScrapeService
	Run(ctx context.Context) error
}

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx       context.Context
	Stdout    io.Writer
	Stderr    io.Writer
	Logger    *slog.Logger
	Targets   harvest.TargetService
	Results   harvest.ResultService
	Policy    harvest.PolicyService
	Stats     harvest.StatsService
	Triggers  harvest.TriggerParser
	Scheduler Scheduler
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	DB    string     `name:"db" env:"HARVEST_DB" help:"SQLite database path (default ~/.harvest/harvest.db)"`
	Log   LogFlags   `embed:""`
	Fetch FetchFlags `embed:""`

	Serve    ServeCmd    `cmd:"" help:"Serve the HTTP API and run batches on schedule"`
	Run      RunCmd      `cmd:"" help:"Run one batch over all active targets"`
	Scrape   ScrapeCmd   `cmd:"" help:"Run a single target now"`
	Add      AddCmd      `cmd:"" help:"Add a target"`
	List     ListCmd     `cmd:"" help:"List targets"`
	Update   UpdateCmd   `cmd:"" help:"Update a target"`
	Delete   DeleteCmd   `cmd:"" help:"Delete a target and its results"`
	Results  ResultsCmd  `cmd:"" help:"Show stored results"`
	Settings SettingsCmd `cmd:"" help:"Show or change schedule settings"`
	Import   ImportCmd   `cmd:"" help:"Import targets from a YAML file"`
}

// LogFlags configure the process logger.
type LogFlags struct {
	Level  string `name:"log-level" env:"HARVEST_LOG_LEVEL" enum:"debug,info,warn,error" default:"info" help:"Log level (debug, info, warn, error)"`
	Format string `name:"log-format" enum:"text,json" default:"text" help:"Log format (text, json)"`
	File   string `name:"log-file" help:"Write logs to a rotated file instead of stderr"`
}

// FetchFlags configure fetching for commands that run targets.
type FetchFlags struct {
	MaxPages   int64   `name:"max-pages" default:"4" help:"Maximum concurrently open browser pages"`
	BrowserURL string  `name:"browser-url" env:"HARVEST_BROWSER_URL" help:"Connect to a running browser instead of launching one"`
	HostRPS    float64 `name:"host-rps" default:"1" help:"Requests per second allowed per host"`
	UserAgent  string  `name:"user-agent" default:"harvest/1.0 (+https://github.com/fwojciec/harvest)" help:"User-Agent for static fetches"`
}

// ServeCmd is the "serve" subcommand.
type ServeCmd struct {
	Addr string `env:"HARVEST_ADDR" default:":3001" help:"HTTP listen address"`
}

// RunCmd is the "run" subcommand.
type RunCmd struct{}

// ScrapeCmd is the "scrape" subcommand.
type ScrapeCmd struct {
	ID string `arg:"" help:"Target ID"`
}

// AddCmd is the "add" subcommand.
type AddCmd struct {
	Name     string `arg:"" help:"Target name"`
	URL      string `arg:"" help:"Page URL"`
	Selector string `arg:"" help:"CSS selector"`
	Mode     string `short:"m" enum:"static,dynamic" default:"static" help:"Render mode (static, dynamic)"`
	Category string `short:"c" default:"general" help:"Category"`
	Inactive bool   `help:"Create the target disabled"`
}

// ListCmd is the "list" subcommand.
type ListCmd struct {
	Active   bool   `help:"Only active targets"`
	Category string `help:"Only targets in this category"`
}

// UpdateCmd is the "update" subcommand. Empty flags leave fields unchanged.
type UpdateCmd struct {
	ID       string `arg:"" help:"Target ID"`
	Name     string `help:"New name"`
	URL      string `name:"url" help:"New URL"`
	Selector string `help:"New CSS selector"`
	Mode     string `help:"New render mode (static, dynamic)"`
	Category string `help:"New category"`
	Enable   bool   `xor:"state" help:"Activate the target"`
	Disable  bool   `xor:"state" help:"Deactivate the target"`
}

// DeleteCmd is the "delete" subcommand.
type DeleteCmd struct {
	ID    string `arg:"" help:"Target ID"`
	Force bool   `help:"Confirm deletion"`
}

// ResultsCmd is the "results" subcommand.
type ResultsCmd struct {
	Target  string `short:"t" help:"Only results for this target ID"`
	Outcome string `help:"Only results with this outcome (ok, empty, failed)"`
	Limit   int    `short:"n" default:"50" help:"Maximum number of results"`
}

// SettingsCmd is the "settings" subcommand.
type SettingsCmd struct {
	Show SettingsShowCmd `cmd:"" default:"1" help:"Show settings"`
	Set  SettingsSetCmd  `cmd:"" help:"Change settings"`
}

// SettingsShowCmd is the "settings show" subcommand.
type SettingsShowCmd struct{}

// SettingsSetCmd is the "settings set" subcommand. Unset flags leave values
// unchanged.
type SettingsSetCmd struct {
	ScrapeTime       *string        `name:"scrape-time" help:"Daily HH:MM time or 5-field cron expression"`
	MaxRetries       *int           `name:"max-retries" help:"Extra attempts after the first"`
	Timeout          *time.Duration `help:"Per-attempt timeout (e.g. 30s)"`
	InterTargetDelay *time.Duration `name:"inter-target-delay" help:"Pause between targets (e.g. 2s)"`
	RetryDelay       *time.Duration `name:"retry-delay" help:"First retry backoff (e.g. 1s)"`
	Dedup            *bool          `help:"Drop repeated fragments within a result"`
}

// ImportCmd is the "import" subcommand.
type ImportCmd struct {
	File         string `arg:"" type:"existingfile" help:"YAML file with a targets list"`
	SkipExisting bool   `name:"skip-existing" help:"Skip targets whose name and URL already exist"`
}
