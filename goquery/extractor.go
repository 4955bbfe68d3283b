// Package goquery implements harvest.Extractor with goquery for static HTML
// and in-page evaluation for rendered documents.
package goquery

import (
	"context"
	"errors"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/fwojciec/harvest"
)

var errEmptySelector = errors.New("empty selector")

// Ensure Extractor implements harvest.Extractor at compile time.
var _ harvest.Extractor = (*Extractor)(nil)

// Extractor selects fragments from fetched content.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract compiles selector, applies it to content and returns normalized
// fragments in document order.
func (e *Extractor) Extract(ctx context.Context, content harvest.Content, selector string) ([]string, error) {
	// goquery silently matches nothing on a bad selector, so compile first.
	sel, err := Compile(selector)
	if err != nil {
		return nil, err
	}

	var texts []string
	switch content.Mode {
	case harvest.ModeStatic:
		texts, err = selectTexts(content.HTML, sel)
	case harvest.ModeDynamic:
		if content.Page == nil {
			return nil, harvest.Errorf(harvest.EINTERNAL, "dynamic content without a page")
		}
		texts, err = content.Page.Texts(ctx, selector)
	default:
		return nil, harvest.Errorf(harvest.EINVALID, "invalid render mode %q", content.Mode)
	}
	if err != nil {
		return nil, err
	}

	return harvest.NormalizeFragments(texts), nil
}

// Compile parses a CSS selector group.
// Returns a *harvest.SelectorError if the selector is malformed.
func Compile(selector string) (cascadia.Selector, error) {
	if strings.TrimSpace(selector) == "" {
		return nil, &harvest.SelectorError{Selector: selector, Err: errEmptySelector}
	}
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, &harvest.SelectorError{Selector: selector, Err: err}
	}
	return sel, nil
}

func selectTexts(html string, sel cascadia.Selector) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, harvest.Errorf(harvest.EINVALID, "failed to parse HTML: %v", err)
	}

	var texts []string
	doc.FindMatcher(sel).Each(func(_ int, s *goquery.Selection) {
		texts = append(texts, s.Text())
	})
	return texts, nil
}
