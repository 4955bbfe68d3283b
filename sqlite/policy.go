package sqlite

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/fwojciec/harvest"
)

// Compile-time interface verification.
var _ harvest.PolicyService = (*PolicyService)(nil)

// Setting keys. Durations are stored in milliseconds.
const (
	keyScrapeTime       = "scrape_time"
	keyMaxRetries       = "max_retries"
	keyTimeout          = "timeout"
	keyInterTargetDelay = "inter_target_delay"
	keyRetryDelay       = "retry_delay"
	keyDedup            = "dedup"
)

// PolicyService implements harvest.PolicyService over the settings table.
type PolicyService struct {
	db *DB
}

// NewPolicyService creates a new PolicyService.
func NewPolicyService(db *DB) *PolicyService {
	return &PolicyService{db: db}
}

// FindPolicy returns the stored policy. Missing keys keep their defaults.
func (s *PolicyService) FindPolicy(ctx context.Context) (*harvest.SchedulePolicy, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM settings")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		settings[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return decodePolicy(settings)
}

// UpdatePolicy applies upd, validates the result and stores every setting
// in one transaction.
func (s *PolicyService) UpdatePolicy(ctx context.Context, upd harvest.PolicyUpdate) (*harvest.SchedulePolicy, error) {
	policy, err := s.FindPolicy(ctx)
	if err != nil {
		return nil, err
	}

	policy.Apply(upd)
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	for key, value := range encodePolicy(policy) {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO settings (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value
		`, key, value); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return policy, nil
}

func encodePolicy(p *harvest.SchedulePolicy) map[string]string {
	return map[string]string{
		keyScrapeTime:       p.ScrapeTime,
		keyMaxRetries:       strconv.Itoa(p.MaxRetries),
		keyTimeout:          strconv.FormatInt(p.Timeout.Milliseconds(), 10),
		keyInterTargetDelay: strconv.FormatInt(p.InterTargetDelay.Milliseconds(), 10),
		keyRetryDelay:       strconv.FormatInt(p.RetryDelay.Milliseconds(), 10),
		keyDedup:            strconv.FormatBool(p.Dedup),
	}
}

func decodePolicy(settings map[string]string) (*harvest.SchedulePolicy, error) {
	p := harvest.DefaultPolicy()

	if v, ok := settings[keyScrapeTime]; ok {
		p.ScrapeTime = v
	}
	if v, ok := settings[keyMaxRetries]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", keyMaxRetries, err)
		}
		p.MaxRetries = n
	}
	for key, dst := range map[string]*time.Duration{
		keyTimeout:          &p.Timeout,
		keyInterTargetDelay: &p.InterTargetDelay,
		keyRetryDelay:       &p.RetryDelay,
	} {
		v, ok := settings[key]
		if !ok {
			continue
		}
		ms, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", key, err)
		}
		*dst = time.Duration(ms) * time.Millisecond
	}
	if v, ok := settings[keyDedup]; ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", keyDedup, err)
		}
		p.Dedup = b
	}

	return p, nil
}
