package harvest

import (
	"context"
	"net/url"
	"time"
)

// RenderMode selects how a target's page is retrieved.
type RenderMode string

const (
	// ModeStatic fetches raw HTML with a single HTTP GET.
	ModeStatic RenderMode = "static"
	// ModeDynamic renders the page in a headless browser before extraction.
	ModeDynamic RenderMode = "dynamic"
)

// DefaultCategory is assigned to targets created without a category.
const DefaultCategory = "general"

// ParseRenderMode converts s into a RenderMode.
// Returns EINVALID for anything other than "static" or "dynamic".
func ParseRenderMode(s string) (RenderMode, error) {
	switch m := RenderMode(s); m {
	case ModeStatic, ModeDynamic:
		return m, nil
	default:
		return "", Errorf(EINVALID, "invalid render mode %q: must be %q or %q", s, ModeStatic, ModeDynamic)
	}
}

// Target describes a page to extract fragments from.
type Target struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	URL       string     `json:"url"`
	Selector  string     `json:"selector"`
	Mode      RenderMode `json:"type"`
	Category  string     `json:"category"`
	Active    bool       `json:"active"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Validate returns an error if the target contains invalid fields.
func (t *Target) Validate() error {
	if t.Name == "" {
		return Errorf(EINVALID, "target name required")
	}
	if t.URL == "" {
		return Errorf(EINVALID, "target URL required")
	}
	u, err := url.Parse(t.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Errorf(EINVALID, "target URL must be an absolute http(s) URL: %q", t.URL)
	}
	if t.Selector == "" {
		return Errorf(EINVALID, "target selector required")
	}
	if _, err := ParseRenderMode(string(t.Mode)); err != nil {
		return err
	}
	return nil
}

// ApplyDefaults fills in the mode and category of a newly created target.
func (t *Target) ApplyDefaults() {
	if t.Mode == "" {
		t.Mode = ModeStatic
	}
	if t.Category == "" {
		t.Category = DefaultCategory
	}
}

// TargetService represents a service for managing targets.
type TargetService interface {
	// CreateTarget creates a new target. Empty mode and category are defaulted.
	CreateTarget(ctx context.Context, target *Target) error

	// FindTargetByID retrieves a target by ID.
	// Returns ENOTFOUND if target does not exist.
	FindTargetByID(ctx context.Context, id string) (*Target, error)

	// FindTargets retrieves targets matching the filter, oldest first.
	FindTargets(ctx context.Context, filter TargetFilter) ([]*Target, error)

	// UpdateTarget updates an existing target.
	// Returns ENOTFOUND if target does not exist.
	UpdateTarget(ctx context.Context, id string, upd TargetUpdate) (*Target, error)

	// DeleteTarget permanently removes a target and all of its results.
	// Returns ENOTFOUND if target does not exist.
	DeleteTarget(ctx context.Context, id string) error
}

// TargetFilter represents a filter for FindTargets.
type TargetFilter struct {
	ID       *string `json:"id"`
	Name     *string `json:"name"`
	Active   *bool   `json:"active"`
	Category *string `json:"category"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// TargetUpdate represents fields that can be updated on a target.
type TargetUpdate struct {
	Name     *string     `json:"name"`
	URL      *string     `json:"url"`
	Selector *string     `json:"selector"`
	Mode     *RenderMode `json:"type"`
	Category *string     `json:"category"`
	Active   *bool       `json:"active"`
}
