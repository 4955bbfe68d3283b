package main_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/fwojciec/harvest"
	main "github.com/fwojciec/harvest/cmd/harvest"
	"github.com/fwojciec/harvest/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "targets.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestImportCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("creates targets with defaults", func(t *testing.T) {
		t.Parallel()

		path := writeFile(t, `
targets:
  - name: headlines
    url: https://example.com/news
    selector: h2.title
  - name: app
    url: https://app.example.com
    selector: .row
    type: dynamic
    category: apps
    active: false
`)

		var created []*harvest.Target
		deps, stdout, _ := newDeps(&mock.TargetService{
			CreateTargetFn: func(ctx context.Context, target *harvest.Target) error {
				target.ID = "id-" + target.Name
				created = append(created, target)
				return nil
			},
		})

		require.NoError(t, (&main.ImportCmd{File: path}).Run(deps))
		require.Len(t, created, 2)
		assert.Equal(t, harvest.ModeStatic, created[0].Mode)
		assert.Equal(t, harvest.DefaultCategory, created[0].Category)
		assert.True(t, created[0].Active)
		assert.Equal(t, harvest.ModeDynamic, created[1].Mode)
		assert.Equal(t, "apps", created[1].Category)
		assert.False(t, created[1].Active)
		assert.Contains(t, stdout.String(), "Imported 2 targets, skipped 0")
	})

	t.Run("validates every target before creating any", func(t *testing.T) {
		t.Parallel()

		path := writeFile(t, `
targets:
  - name: ok
    url: https://example.com
    selector: h1
  - name: broken
    url: https://example.com
`)

		deps, _, stderr := newDeps(&mock.TargetService{
			CreateTargetFn: func(ctx context.Context, target *harvest.Target) error {
				t.Fatal("nothing must be created from an invalid file")
				return nil
			},
		})

		err := (&main.ImportCmd{File: path}).Run(deps)
		require.Error(t, err)
		assert.Equal(t, harvest.EINVALID, harvest.ErrorCode(err))
		assert.Contains(t, stderr.String(), `target 2 ("broken")`)
	})

	t.Run("rejects unknown keys", func(t *testing.T) {
		t.Parallel()

		path := writeFile(t, `
targets:
  - name: x
    url: https://example.com
    selecter: h1
`)

		deps, _, _ := newDeps(&mock.TargetService{})
		err := (&main.ImportCmd{File: path}).Run(deps)
		require.Error(t, err)
		assert.Equal(t, harvest.EINVALID, harvest.ErrorCode(err))
	})

	t.Run("skips existing targets", func(t *testing.T) {
		t.Parallel()

		path := writeFile(t, `
targets:
  - name: news
    url: https://example.com/news
    selector: h1
  - name: blog
    url: https://example.com/blog
    selector: h2
`)

		var created []string
		deps, stdout, _ := newDeps(&mock.TargetService{
			FindTargetsFn: func(ctx context.Context, filter harvest.TargetFilter) ([]*harvest.Target, error) {
				if *filter.Name == "news" {
					return []*harvest.Target{{ID: "old", Name: "news", URL: "https://example.com/news"}}, nil
				}
				return nil, nil
			},
			CreateTargetFn: func(ctx context.Context, target *harvest.Target) error {
				created = append(created, target.Name)
				return nil
			},
		})

		require.NoError(t, (&main.ImportCmd{File: path, SkipExisting: true}).Run(deps))
		assert.Equal(t, []string{"blog"}, created)
		assert.Contains(t, stdout.String(), "Imported 1 targets, skipped 1")
	})
}

func TestMain_Import(t *testing.T) {
	t.Parallel()

	path := writeFile(t, `
targets:
  - name: docs
    url: https://example.com/docs
    selector: main h1
`)
	dbPath := filepath.Join(t.TempDir(), "harvest.db")

	_, _, err := runMain(t, dbPath, "import", path)
	require.NoError(t, err)

	stdout, _, err := runMain(t, dbPath, "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "docs")
	assert.Contains(t, stdout, `"main h1"`)
}
