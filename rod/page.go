package rod

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fwojciec/harvest"
	"github.com/go-rod/rod"
)

var _ harvest.Page = (*document)(nil)

// textsJS returns the textContent of every match in document order.
const textsJS = `(selector) => Array.from(document.querySelectorAll(selector)).map(el => el.textContent || '')`

// document exposes a live rod page to the extractor.
type document struct {
	page *rod.Page
	url  string
}

// Texts evaluates selector in the page. A selector the page rejects is a
// *harvest.SelectorError; an expired deadline is a timeout fetch error.
func (d *document) Texts(ctx context.Context, selector string) ([]string, error) {
	val, err := d.page.Context(ctx).Eval(textsJS, selector)
	if err != nil {
		var evalErr *rod.EvalError
		if errors.As(err, &evalErr) {
			return nil, &harvest.SelectorError{Selector: selector, Err: err}
		}
		return nil, fetchError(ctx, d.url, err)
	}

	raw, err := val.Value.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("reading evaluation result: %w", err)
	}
	var texts []string
	if err := json.Unmarshal(raw, &texts); err != nil {
		return nil, fmt.Errorf("decoding evaluation result: %w", err)
	}
	return texts, nil
}
