package harvest_test

import (
	"testing"

	"github.com/fwojciec/harvest"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeFragments(t *testing.T) {
	t.Parallel()

	t.Run("trims collapses and drops empty", func(t *testing.T) {
		t.Parallel()

		got := harvest.NormalizeFragments([]string{"Hello", "  Hello  ", "", " a \n\t b  c "})

		assert.Equal(t, []string{"Hello", "Hello", "a b c"}, got)
	})

	t.Run("returns empty slice for no input", func(t *testing.T) {
		t.Parallel()

		got := harvest.NormalizeFragments(nil)

		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("is deterministic", func(t *testing.T) {
		t.Parallel()

		in := []string{" x ", "y", "  ", "x"}

		assert.Equal(t, harvest.NormalizeFragments(in), harvest.NormalizeFragments(in))
	})
}

func TestDedupFragments(t *testing.T) {
	t.Parallel()

	got := harvest.DedupFragments([]string{"Hello", "World", "Hello"})

	assert.Equal(t, []string{"Hello", "World"}, got)
}

func TestHashFragments(t *testing.T) {
	t.Parallel()

	t.Run("is a 16 character hex digest", func(t *testing.T) {
		t.Parallel()

		assert.Len(t, harvest.HashFragments([]string{"one", "two"}), 16)
	})

	t.Run("same fragments hash the same", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t,
			harvest.HashFragments([]string{"ab", "c"}),
			harvest.HashFragments([]string{"ab", "c"}),
		)
	})

	t.Run("different split hashes differently", func(t *testing.T) {
		t.Parallel()

		assert.NotEqual(t,
			harvest.HashFragments([]string{"ab", "c"}),
			harvest.HashFragments([]string{"a", "bc"}),
		)
	})
}
