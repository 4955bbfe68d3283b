package sqlite_test

import (
	"context"
	"testing"

	"github.com/fwojciec/harvest"
	"github.com/fwojciec/harvest/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTargetService_CreateTarget(t *testing.T) {
	t.Parallel()

	t.Run("creates target with generated ID, timestamps and defaults", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		svc := sqlite.NewTargetService(db)
		ctx := context.Background()

		target := &harvest.Target{
			Name:     "headlines",
			URL:      "https://example.com/news",
			Selector: "h2.title",
			Active:   true,
		}

		err := svc.CreateTarget(ctx, target)
		require.NoError(t, err)

		assert.NotEmpty(t, target.ID, "ID should be generated")
		assert.False(t, target.CreatedAt.IsZero(), "CreatedAt should be set")
		assert.Equal(t, harvest.ModeStatic, target.Mode)
		assert.Equal(t, harvest.DefaultCategory, target.Category)
	})

	t.Run("returns error for invalid target", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		svc := sqlite.NewTargetService(db)
		ctx := context.Background()

		err := svc.CreateTarget(ctx, &harvest.Target{Name: "x", URL: "not a url", Selector: "p"})
		require.Error(t, err)
		assert.Equal(t, harvest.EINVALID, harvest.ErrorCode(err))
	})
}

func TestTargetService_FindTargetByID(t *testing.T) {
	t.Parallel()

	t.Run("returns target when found", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		svc := sqlite.NewTargetService(db)
		ctx := context.Background()

		target := &harvest.Target{
			Name:     "prices",
			URL:      "https://shop.example.com",
			Selector: ".price",
			Mode:     harvest.ModeDynamic,
			Category: "shopping",
			Active:   true,
		}
		require.NoError(t, svc.CreateTarget(ctx, target))

		found, err := svc.FindTargetByID(ctx, target.ID)
		require.NoError(t, err)
		assert.Equal(t, target.Name, found.Name)
		assert.Equal(t, target.URL, found.URL)
		assert.Equal(t, target.Selector, found.Selector)
		assert.Equal(t, harvest.ModeDynamic, found.Mode)
		assert.Equal(t, "shopping", found.Category)
		assert.True(t, found.Active)
		assert.True(t, target.CreatedAt.Equal(found.CreatedAt))
	})

	t.Run("returns ENOTFOUND when not found", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		svc := sqlite.NewTargetService(db)

		_, err := svc.FindTargetByID(context.Background(), "nonexistent-id")
		require.Error(t, err)
		assert.Equal(t, harvest.ENOTFOUND, harvest.ErrorCode(err))
	})
}

func TestTargetService_FindTargets(t *testing.T) {
	t.Parallel()

	t.Run("returns targets oldest first", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		svc := sqlite.NewTargetService(db)
		for _, name := range []string{"c", "a", "b"} {
			createTarget(t, db, name)
		}

		targets, err := svc.FindTargets(context.Background(), harvest.TargetFilter{})
		require.NoError(t, err)
		require.Len(t, targets, 3)
		assert.Equal(t, "c", targets[0].Name)
		assert.Equal(t, "a", targets[1].Name)
		assert.Equal(t, "b", targets[2].Name)
	})

	t.Run("filters by active flag", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		svc := sqlite.NewTargetService(db)
		ctx := context.Background()

		createTarget(t, db, "on")
		off := createTarget(t, db, "off")
		inactive := false
		_, err := svc.UpdateTarget(ctx, off.ID, harvest.TargetUpdate{Active: &inactive})
		require.NoError(t, err)

		active := true
		targets, err := svc.FindTargets(ctx, harvest.TargetFilter{Active: &active})
		require.NoError(t, err)
		require.Len(t, targets, 1)
		assert.Equal(t, "on", targets[0].Name)
	})

	t.Run("filters by category", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		svc := sqlite.NewTargetService(db)
		ctx := context.Background()

		createTarget(t, db, "general")
		require.NoError(t, svc.CreateTarget(ctx, &harvest.Target{
			Name: "news", URL: "https://example.com", Selector: "h1", Category: "news", Active: true,
		}))

		category := "news"
		targets, err := svc.FindTargets(ctx, harvest.TargetFilter{Category: &category})
		require.NoError(t, err)
		require.Len(t, targets, 1)
		assert.Equal(t, "news", targets[0].Name)
	})

	t.Run("applies offset and limit", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		svc := sqlite.NewTargetService(db)
		for _, name := range []string{"a", "b", "c", "d"} {
			createTarget(t, db, name)
		}

		targets, err := svc.FindTargets(context.Background(), harvest.TargetFilter{Offset: 1, Limit: 2})
		require.NoError(t, err)
		require.Len(t, targets, 2)
		assert.Equal(t, "b", targets[0].Name)
		assert.Equal(t, "c", targets[1].Name)
	})

	t.Run("returns empty slice when no targets", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		targets, err := sqlite.NewTargetService(db).FindTargets(context.Background(), harvest.TargetFilter{})
		require.NoError(t, err)
		assert.NotNil(t, targets)
		assert.Empty(t, targets)
	})
}

func TestTargetService_UpdateTarget(t *testing.T) {
	t.Parallel()

	t.Run("updates only the given fields", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		svc := sqlite.NewTargetService(db)
		ctx := context.Background()
		target := createTarget(t, db, "old")

		selector := "article p"
		mode := harvest.ModeDynamic
		updated, err := svc.UpdateTarget(ctx, target.ID, harvest.TargetUpdate{Selector: &selector, Mode: &mode})
		require.NoError(t, err)
		assert.Equal(t, "old", updated.Name)
		assert.Equal(t, "article p", updated.Selector)
		assert.Equal(t, harvest.ModeDynamic, updated.Mode)

		found, err := svc.FindTargetByID(ctx, target.ID)
		require.NoError(t, err)
		assert.Equal(t, "article p", found.Selector)
		assert.False(t, found.UpdatedAt.Before(found.CreatedAt))
	})

	t.Run("rejects invalid values", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		svc := sqlite.NewTargetService(db)
		target := createTarget(t, db, "t")

		mode := harvest.RenderMode("headless")
		_, err := svc.UpdateTarget(context.Background(), target.ID, harvest.TargetUpdate{Mode: &mode})
		require.Error(t, err)
		assert.Equal(t, harvest.EINVALID, harvest.ErrorCode(err))
	})

	t.Run("returns ENOTFOUND for unknown target", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		name := "x"
		_, err := sqlite.NewTargetService(db).UpdateTarget(context.Background(), "missing", harvest.TargetUpdate{Name: &name})
		require.Error(t, err)
		assert.Equal(t, harvest.ENOTFOUND, harvest.ErrorCode(err))
	})
}

func TestTargetService_DeleteTarget(t *testing.T) {
	t.Parallel()

	t.Run("deletes target and its results", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		svc := sqlite.NewTargetService(db)
		ctx := context.Background()
		target := createTarget(t, db, "gone")

		require.NoError(t, sqlite.NewResultService(db).CreateResult(ctx, &harvest.ExtractionResult{
			TargetID: target.ID, Outcome: harvest.OutcomeEmpty, Attempts: 1,
		}))

		require.NoError(t, svc.DeleteTarget(ctx, target.ID))

		_, err := svc.FindTargetByID(ctx, target.ID)
		assert.Equal(t, harvest.ENOTFOUND, harvest.ErrorCode(err))

		var count int
		require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM results").Scan(&count))
		assert.Zero(t, count)
	})

	t.Run("returns ENOTFOUND for unknown target", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		err := sqlite.NewTargetService(db).DeleteTarget(context.Background(), "missing")
		require.Error(t, err)
		assert.Equal(t, harvest.ENOTFOUND, harvest.ErrorCode(err))
	})
}
