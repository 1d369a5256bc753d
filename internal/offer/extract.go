package offer

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"

	"flyhigh/internal/components/telemetry"
	"flyhigh/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

const report_fragment = "fragment"

// Extractor finds offers in already rendered result documents.
type Extractor struct {
	selectors Selectors
	tel       telemetry.API
}

// NewExtractor creates an extractor, zero fields of `selectors` fall back to
// GoogleFlightsSelectors.
func NewExtractor(selectors Selectors, tel telemetry.API) Extractor {
	if selectors.Item == "" {
		selectors.Item = GoogleFlightsSelectors.Item
	}
	if selectors.IdAttr == "" {
		selectors.IdAttr = GoogleFlightsSelectors.IdAttr
	}
	if selectors.Times == "" {
		selectors.Times = GoogleFlightsSelectors.Times
	}
	if selectors.Duration == "" {
		selectors.Duration = GoogleFlightsSelectors.Duration
	}
	if selectors.Price == "" {
		selectors.Price = GoogleFlightsSelectors.Price
	}
	if tel == nil {
		tel = telemetry.SlogAPI{}
	}
	return Extractor{
		selectors: selectors,
		tel:       telemetry.NewScopedAPI("extractor", tel),
	}
}

// Extract yields every result item of `doc` in document order. An item that cannot
// be extracted yields its index together with a *FragmentError and extraction moves
// on to the next item. If ctx is cancelled the sequence yields ctx.Err() and stops.
//
// The document is only read, extracting the same document twice yields the same
// fragments.
func (e Extractor) Extract(ctx context.Context, doc *goquery.Document) iter.Seq2[RawFragment, error] {
	return func(yield func(RawFragment, error) bool) {
		items := doc.Find(e.selectors.Item)
		for i := range items.Nodes {
			if err := ctx.Err(); err != nil {
				yield(RawFragment{Index: i}, err)
				return
			}
			fragment, err := e.fragment(i, items.Eq(i))
			if err != nil {
				e.tel.ReportWarning(report_fragment, err)
			}
			if !yield(fragment, err) {
				return
			}
		}
	}
}

// ExtractHTML parses `contents` and extracts it with Extract.
func (e Extractor) ExtractHTML(ctx context.Context, contents string) (iter.Seq2[RawFragment, error], error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(contents))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return e.Extract(ctx, doc), nil
}

func (e Extractor) fragment(index int, item *goquery.Selection) (RawFragment, error) {
	fragment := RawFragment{Index: index}

	id, ok := item.Attr(e.selectors.IdAttr)
	id = strings.TrimSpace(id)
	if !ok || id == "" {
		return fragment, &FragmentError{
			Index: index,
			Err:   fmt.Errorf("%w: %s", ErrMissingAttribute, e.selectors.IdAttr),
		}
	}
	fragment.FlightID = id

	times, ok := htmlutil.SelectionText(item.Find(e.selectors.Times))
	if !ok {
		return fragment, &FragmentError{
			Index:    index,
			FlightID: id,
			Err:      fmt.Errorf("%w: %s", ErrMissingElement, e.selectors.Times),
		}
	}
	fragment.Times = times

	fragment.Duration, fragment.HasDuration = htmlutil.SelectionText(item.Find(e.selectors.Duration))
	fragment.Price, fragment.HasPrice = htmlutil.SelectionText(item.Find(e.selectors.Price))

	return fragment, nil
}

// Collect drains an extraction sequence. Fragment failures are gathered in the
// report, any other error (cancellation) stops collection and is returned.
func Collect(seq iter.Seq2[RawFragment, error]) ([]RawFragment, ExtractionReport, error) {
	var fragments []RawFragment
	var report ExtractionReport
	for fragment, err := range seq {
		if err != nil {
			var fragmentErr *FragmentError
			if !errors.As(err, &fragmentErr) {
				return fragments, report, err
			}
			report.Total++
			report.Failures = append(report.Failures, fragmentErr)
			continue
		}
		report.Total++
		fragments = append(fragments, fragment)
	}
	return fragments, report, nil
}
