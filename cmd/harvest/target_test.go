package main_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/fwojciec/harvest"
	main "github.com/fwojciec/harvest/cmd/harvest"
	"github.com/fwojciec/harvest/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDeps(targets harvest.TargetService) (*main.Dependencies, *bytes.Buffer, *bytes.Buffer) {
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	return &main.Dependencies{
		Ctx:     context.Background(),
		Stdout:  stdout,
		Stderr:  stderr,
		Targets: targets,
	}, stdout, stderr
}

func TestAddCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("creates active target", func(t *testing.T) {
		t.Parallel()

		var created *harvest.Target
		deps, stdout, stderr := newDeps(&mock.TargetService{
			CreateTargetFn: func(ctx context.Context, target *harvest.Target) error {
				target.ID = "t-1"
				created = target
				return nil
			},
		})

		cmd := &main.AddCmd{Name: "prices", URL: "https://shop.example.com", Selector: ".price", Mode: "dynamic", Category: "shop"}
		require.NoError(t, cmd.Run(deps))

		require.NotNil(t, created)
		assert.Equal(t, harvest.ModeDynamic, created.Mode)
		assert.Equal(t, "shop", created.Category)
		assert.True(t, created.Active)
		assert.Contains(t, stdout.String(), `Added target "prices" (t-1)`)
		assert.Empty(t, stderr.String())
	})

	t.Run("creates inactive target", func(t *testing.T) {
		t.Parallel()

		deps, _, _ := newDeps(&mock.TargetService{
			CreateTargetFn: func(ctx context.Context, target *harvest.Target) error {
				assert.False(t, target.Active)
				return nil
			},
		})

		cmd := &main.AddCmd{Name: "x", URL: "https://example.com", Selector: "p", Mode: "static", Inactive: true}
		require.NoError(t, cmd.Run(deps))
	})

	t.Run("reports validation error", func(t *testing.T) {
		t.Parallel()

		deps, stdout, stderr := newDeps(&mock.TargetService{
			CreateTargetFn: func(ctx context.Context, target *harvest.Target) error {
				return harvest.Errorf(harvest.EINVALID, "target selector required")
			},
		})

		err := (&main.AddCmd{Name: "x", URL: "https://example.com"}).Run(deps)
		require.Error(t, err)
		assert.Contains(t, stderr.String(), "error: target selector required")
		assert.Empty(t, stdout.String())
	})
}

func TestListCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("lists targets", func(t *testing.T) {
		t.Parallel()

		deps, stdout, _ := newDeps(&mock.TargetService{
			FindTargetsFn: func(ctx context.Context, filter harvest.TargetFilter) ([]*harvest.Target, error) {
				return []*harvest.Target{
					{ID: "t-1", Name: "news", URL: "https://example.com", Selector: "h1", Mode: harvest.ModeStatic, Category: "general", Active: true},
					{ID: "t-2", Name: "spa", URL: "https://app.example.com", Selector: ".item", Mode: harvest.ModeDynamic, Category: "apps"},
				}, nil
			},
		})

		require.NoError(t, (&main.ListCmd{}).Run(deps))
		output := stdout.String()
		assert.Contains(t, output, "t-1  news  static  general  active")
		assert.Contains(t, output, "t-2  spa  dynamic  apps  inactive")
	})

	t.Run("passes filters", func(t *testing.T) {
		t.Parallel()

		deps, _, _ := newDeps(&mock.TargetService{
			FindTargetsFn: func(ctx context.Context, filter harvest.TargetFilter) ([]*harvest.Target, error) {
				require.NotNil(t, filter.Active)
				assert.True(t, *filter.Active)
				require.NotNil(t, filter.Category)
				assert.Equal(t, "news", *filter.Category)
				return nil, nil
			},
		})

		require.NoError(t, (&main.ListCmd{Active: true, Category: "news"}).Run(deps))
	})

	t.Run("shows helpful message when no targets exist", func(t *testing.T) {
		t.Parallel()

		deps, stdout, _ := newDeps(&mock.TargetService{
			FindTargetsFn: func(ctx context.Context, filter harvest.TargetFilter) ([]*harvest.Target, error) {
				return []*harvest.Target{}, nil
			},
		})

		require.NoError(t, (&main.ListCmd{}).Run(deps))
		assert.Contains(t, stdout.String(), "harvest add")
	})

	t.Run("returns store error", func(t *testing.T) {
		t.Parallel()

		deps, _, stderr := newDeps(&mock.TargetService{
			FindTargetsFn: func(ctx context.Context, filter harvest.TargetFilter) ([]*harvest.Target, error) {
				return nil, errors.New("database locked")
			},
		})

		require.Error(t, (&main.ListCmd{}).Run(deps))
		assert.Contains(t, stderr.String(), "Internal error.")
	})
}

func TestUpdateCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("sends only set fields", func(t *testing.T) {
		t.Parallel()

		deps, stdout, _ := newDeps(&mock.TargetService{
			UpdateTargetFn: func(ctx context.Context, id string, upd harvest.TargetUpdate) (*harvest.Target, error) {
				assert.Equal(t, "t-1", id)
				assert.Nil(t, upd.Name)
				require.NotNil(t, upd.Selector)
				assert.Equal(t, "article h2", *upd.Selector)
				require.NotNil(t, upd.Mode)
				assert.Equal(t, harvest.ModeDynamic, *upd.Mode)
				require.NotNil(t, upd.Active)
				assert.False(t, *upd.Active)
				return &harvest.Target{ID: id, Name: "news"}, nil
			},
		})

		cmd := &main.UpdateCmd{ID: "t-1", Selector: "article h2", Mode: "dynamic", Disable: true}
		require.NoError(t, cmd.Run(deps))
		assert.Contains(t, stdout.String(), `Updated target "news"`)
	})

	t.Run("leaves active flag alone without enable or disable", func(t *testing.T) {
		t.Parallel()

		deps, _, _ := newDeps(&mock.TargetService{
			UpdateTargetFn: func(ctx context.Context, id string, upd harvest.TargetUpdate) (*harvest.Target, error) {
				assert.Nil(t, upd.Active)
				return &harvest.Target{ID: id}, nil
			},
		})

		require.NoError(t, (&main.UpdateCmd{ID: "t-1", Name: "renamed"}).Run(deps))
	})

	t.Run("rejects unknown mode before updating", func(t *testing.T) {
		t.Parallel()

		deps, _, stderr := newDeps(&mock.TargetService{})

		err := (&main.UpdateCmd{ID: "t-1", Mode: "headless"}).Run(deps)
		require.Error(t, err)
		assert.Equal(t, harvest.EINVALID, harvest.ErrorCode(err))
		assert.Contains(t, stderr.String(), "invalid render mode")
	})
}

func TestDeleteCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("requires force", func(t *testing.T) {
		t.Parallel()

		deps, _, stderr := newDeps(&mock.TargetService{})
		err := (&main.DeleteCmd{ID: "t-1"}).Run(deps)
		require.Error(t, err)
		assert.Contains(t, stderr.String(), "--force")
	})

	t.Run("deletes existing target", func(t *testing.T) {
		t.Parallel()

		deleted := ""
		deps, stdout, _ := newDeps(&mock.TargetService{
			FindTargetByIDFn: func(ctx context.Context, id string) (*harvest.Target, error) {
				return &harvest.Target{ID: id, Name: "news"}, nil
			},
			DeleteTargetFn: func(ctx context.Context, id string) error {
				deleted = id
				return nil
			},
		})

		require.NoError(t, (&main.DeleteCmd{ID: "t-1", Force: true}).Run(deps))
		assert.Equal(t, "t-1", deleted)
		assert.Contains(t, stdout.String(), `Deleted target "news"`)
	})

	t.Run("reports missing target", func(t *testing.T) {
		t.Parallel()

		deps, _, stderr := newDeps(&mock.TargetService{
			FindTargetByIDFn: func(ctx context.Context, id string) (*harvest.Target, error) {
				return nil, harvest.Errorf(harvest.ENOTFOUND, "target not found")
			},
		})

		err := (&main.DeleteCmd{ID: "missing", Force: true}).Run(deps)
		require.Error(t, err)
		assert.Equal(t, harvest.ENOTFOUND, harvest.ErrorCode(err))
		assert.Contains(t, stderr.String(), "harvest list")
	})
}
