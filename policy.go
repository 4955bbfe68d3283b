package harvest

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Policy defaults.
const (
	DefaultScrapeTime       = "09:00"
	DefaultMaxRetries       = 3
	DefaultTimeout          = 30 * time.Second
	DefaultInterTargetDelay = 2 * time.Second
	DefaultRetryDelay       = 1 * time.Second
)

// SchedulePolicy controls when batches run and how each target is attempted.
type SchedulePolicy struct {
	// ScrapeTime is a daily "HH:MM" time or a 5-field cron expression.
	ScrapeTime string `json:"scrapeTime" validate:"required,schedule"`

	// MaxRetries is the number of extra attempts after the first one.
	MaxRetries int `json:"maxRetries" validate:"gte=0"`

	// Timeout bounds a single attempt.
	Timeout time.Duration `json:"timeout" validate:"gt=0"`

	// InterTargetDelay is the pause between targets in a batch.
	InterTargetDelay time.Duration `json:"interTargetDelay" validate:"gte=0"`

	// RetryDelay is the first backoff delay; later retries double it.
	RetryDelay time.Duration `json:"retryDelay" validate:"gt=0"`

	// Dedup drops repeated fragments within a single result.
	Dedup bool `json:"dedup"`
}

// DefaultPolicy returns the policy used before any settings are stored.
func DefaultPolicy() *SchedulePolicy {
	return &SchedulePolicy{
		ScrapeTime:       DefaultScrapeTime,
		MaxRetries:       DefaultMaxRetries,
		Timeout:          DefaultTimeout,
		InterTargetDelay: DefaultInterTargetDelay,
		RetryDelay:       DefaultRetryDelay,
	}
}

var policyValidator = newPolicyValidator()

func newPolicyValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("schedule", func(fl validator.FieldLevel) bool {
		return IsScheduleExpr(fl.Field().String())
	})
	return v
}

// Validate returns EINVALID if any field is out of range.
func (p *SchedulePolicy) Validate() error {
	err := policyValidator.Struct(p)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return Errorf(EINVALID, "invalid policy: %s failed %q (value %v)", fe.Field(), fe.Tag(), fe.Value())
	}
	return Errorf(EINVALID, "invalid policy: %v", err)
}

// Clone returns a copy of the policy.
func (p *SchedulePolicy) Clone() *SchedulePolicy {
	other := *p
	return &other
}

// Apply copies the set fields of upd onto the policy.
func (p *SchedulePolicy) Apply(upd PolicyUpdate) {
	if upd.ScrapeTime != nil {
		p.ScrapeTime = *upd.ScrapeTime
	}
	if upd.MaxRetries != nil {
		p.MaxRetries = *upd.MaxRetries
	}
	if upd.Timeout != nil {
		p.Timeout = *upd.Timeout
	}
	if upd.InterTargetDelay != nil {
		p.InterTargetDelay = *upd.InterTargetDelay
	}
	if upd.RetryDelay != nil {
		p.RetryDelay = *upd.RetryDelay
	}
	if upd.Dedup != nil {
		p.Dedup = *upd.Dedup
	}
}

// IsScheduleExpr reports whether s looks like "HH:MM" or has the five fields
// of a cron expression. Cron fields are checked fully by a TriggerParser.
func IsScheduleExpr(s string) bool {
	if _, _, ok := ParseClock(s); ok {
		return true
	}
	return len(strings.Fields(s)) == 5
}

// ParseClock parses a 24-hour "HH:MM" time of day.
func ParseClock(s string) (hour, minute int, ok bool) {
	hh, mm, found := strings.Cut(strings.TrimSpace(s), ":")
	if !found || len(hh) == 0 || len(hh) > 2 || len(mm) != 2 {
		return 0, 0, false
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, 0, false
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, 0, false
	}
	return h, m, true
}

// PolicyUpdate represents fields that can be updated on the policy.
type PolicyUpdate struct {
	ScrapeTime       *string        `json:"scrapeTime"`
	MaxRetries       *int           `json:"maxRetries"`
	Timeout          *time.Duration `json:"timeout"`
	InterTargetDelay *time.Duration `json:"interTargetDelay"`
	RetryDelay       *time.Duration `json:"retryDelay"`
	Dedup            *bool          `json:"dedup"`
}

// PolicyService persists the schedule policy.
type PolicyService interface {
	// FindPolicy returns the stored policy, falling back to defaults for
	// settings that were never written.
	FindPolicy(ctx context.Context) (*SchedulePolicy, error)

	// UpdatePolicy validates and stores the updated policy.
	// Returns EINVALID and stores nothing if the result is invalid.
	UpdatePolicy(ctx context.Context, upd PolicyUpdate) (*SchedulePolicy, error)
}

// String renders the policy for logs and CLI output.
func (p *SchedulePolicy) String() string {
	return fmt.Sprintf("scrape_time=%s max_retries=%d timeout=%s inter_target_delay=%s retry_delay=%s dedup=%t",
		p.ScrapeTime, p.MaxRetries, p.Timeout, p.InterTargetDelay, p.RetryDelay, p.Dedup)
}
