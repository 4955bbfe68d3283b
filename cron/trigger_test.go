package cron_test

import (
	"testing"
	"time"

	"github.com/fwojciec/harvest"
	"github.com/fwojciec/harvest/cron"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParser_Parse(t *testing.T) {
	t.Parallel()

	p := cron.NewParser(time.UTC)

	t.Run("daily clock fires later the same day", func(t *testing.T) {
		t.Parallel()

		tr, err := p.Parse("09:00")
		require.NoError(t, err)

		now := time.Date(2025, 3, 10, 8, 15, 0, 0, time.UTC)
		assert.Equal(t, time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC), tr.Next(now))
	})

	t.Run("daily clock rolls to next day once passed", func(t *testing.T) {
		t.Parallel()

		tr, err := p.Parse("09:00")
		require.NoError(t, err)

		now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
		assert.Equal(t, time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC), tr.Next(now))
	})

	t.Run("cron expression", func(t *testing.T) {
		t.Parallel()

		tr, err := p.Parse("*/15 * * * *")
		require.NoError(t, err)

		now := time.Date(2025, 3, 10, 8, 16, 0, 0, time.UTC)
		assert.Equal(t, time.Date(2025, 3, 10, 8, 30, 0, 0, time.UTC), tr.Next(now))
	})

	t.Run("rejects invalid expression", func(t *testing.T) {
		t.Parallel()

		_, err := p.Parse("61 * * * *")
		require.Error(t, err)
		assert.Equal(t, harvest.EINVALID, harvest.ErrorCode(err))
	})

	t.Run("rejects expression that never fires", func(t *testing.T) {
		t.Parallel()

		_, err := p.Parse("0 0 30 2 *")
		require.Error(t, err)
		assert.Equal(t, harvest.EINVALID, harvest.ErrorCode(err))
		assert.Contains(t, harvest.ErrorMessage(err), "never fires")
	})

	t.Run("rejects garbage", func(t *testing.T) {
		t.Parallel()

		_, err := p.Parse("tomorrow")
		require.Error(t, err)
		assert.Equal(t, harvest.EINVALID, harvest.ErrorCode(err))
	})
}
