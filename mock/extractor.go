package mock

import (
	"context"

	"github.com/fwojciec/harvest"
)

var _ harvest.Extractor = (*Extractor)(nil)

// Extractor is a mock implementation of harvest.Extractor.
type Extractor struct {
	ExtractFn func(ctx context.Context, content harvest.Content, selector string) ([]string, error)
}

func (e *Extractor) Extract(ctx context.Context, content harvest.Content, selector string) ([]string, error) {
	return e.ExtractFn(ctx, content, selector)
}
