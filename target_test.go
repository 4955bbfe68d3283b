package harvest_test

import (
	"testing"

	"github.com/fwojciec/harvest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRenderMode(t *testing.T) {
	t.Parallel()

	t.Run("accepts static and dynamic", func(t *testing.T) {
		t.Parallel()

		m, err := harvest.ParseRenderMode("static")
		require.NoError(t, err)
		assert.Equal(t, harvest.ModeStatic, m)

		m, err = harvest.ParseRenderMode("dynamic")
		require.NoError(t, err)
		assert.Equal(t, harvest.ModeDynamic, m)
	})

	t.Run("rejects unknown mode", func(t *testing.T) {
		t.Parallel()

		_, err := harvest.ParseRenderMode("text")
		require.Error(t, err)
		assert.Equal(t, harvest.EINVALID, harvest.ErrorCode(err))
	})
}

func TestTarget_Validate(t *testing.T) {
	t.Parallel()

	valid := func() *harvest.Target {
		return &harvest.Target{
			Name:     "Example",
			URL:      "https://example.com/news",
			Selector: "h1",
			Mode:     harvest.ModeStatic,
		}
	}

	t.Run("accepts valid target", func(t *testing.T) {
		t.Parallel()

		require.NoError(t, valid().Validate())
	})

	tests := []struct {
		name   string
		modify func(*harvest.Target)
	}{
		{"missing name", func(tg *harvest.Target) { tg.Name = "" }},
		{"missing URL", func(tg *harvest.Target) { tg.URL = "" }},
		{"relative URL", func(tg *harvest.Target) { tg.URL = "/news" }},
		{"non-http scheme", func(tg *harvest.Target) { tg.URL = "ftp://example.com" }},
		{"missing selector", func(tg *harvest.Target) { tg.Selector = "" }},
		{"unknown mode", func(tg *harvest.Target) { tg.Mode = "text" }},
		{"empty mode", func(tg *harvest.Target) { tg.Mode = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tg := valid()
			tt.modify(tg)
			err := tg.Validate()
			require.Error(t, err)
			assert.Equal(t, harvest.EINVALID, harvest.ErrorCode(err))
		})
	}
}

func TestTarget_ApplyDefaults(t *testing.T) {
	t.Parallel()

	t.Run("fills empty mode and category", func(t *testing.T) {
		t.Parallel()

		tg := &harvest.Target{}
		tg.ApplyDefaults()

		assert.Equal(t, harvest.ModeStatic, tg.Mode)
		assert.Equal(t, harvest.DefaultCategory, tg.Category)
	})

	t.Run("keeps explicit values", func(t *testing.T) {
		t.Parallel()

		tg := &harvest.Target{Mode: harvest.ModeDynamic, Category: "tech"}
		tg.ApplyDefaults()

		assert.Equal(t, harvest.ModeDynamic, tg.Mode)
		assert.Equal(t, "tech", tg.Category)
	})
}
