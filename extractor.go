package harvest

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Extractor applies a CSS selector to fetched content.
type Extractor interface {
	// Extract returns the normalized text of every element matching
	// selector, in document order. Zero matches yield an empty slice and no
	// error. An invalid selector yields a *SelectorError.
	Extract(ctx context.Context, content Content, selector string) ([]string, error)
}

// SelectorError reports a selector that could not be compiled or evaluated.
// It is never retried.
type SelectorError struct {
	Selector string
	Err      error
}

func (e *SelectorError) Error() string {
	return fmt.Sprintf("invalid selector %q: %v", e.Selector, e.Err)
}

func (e *SelectorError) Unwrap() error { return e.Err }

// NormalizeFragments trims each text, collapses internal whitespace runs to
// a single space and drops texts that end up empty. Order is preserved.
func NormalizeFragments(texts []string) []string {
	out := make([]string, 0, len(texts))
	for _, t := range texts {
		if s := strings.Join(strings.Fields(t), " "); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// DedupFragments removes repeated fragments, keeping the first occurrence.
func DedupFragments(fragments []string) []string {
	seen := make(map[string]struct{}, len(fragments))
	out := make([]string, 0, len(fragments))
	for _, f := range fragments {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

// HashFragments returns the hex xxHash of fragments. Each fragment is
// terminated by a NUL byte so that different splits of the same text hash
// differently.
func HashFragments(fragments []string) string {
	d := xxhash.New()
	for _, f := range fragments {
		_, _ = d.WriteString(f)
		_, _ = d.Write([]byte{0})
	}
	return hex.EncodeToString(d.Sum(nil))
}
