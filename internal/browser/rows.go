package browser

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"bidwatcher/internal/listing"
)

// ParseRows extracts raw result rows from a rendered document. It is shared
// by the chromedp session and by tests that feed canned HTML. Header rows
// (no link cell) and completely empty rows are skipped; field-level problems
// are left for the normalizer to classify.
func ParseRows(html string, baseURL string, sel Selectors) ([]listing.RawRow, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse rendered page: %w", err)
	}

	base, _ := url.Parse(baseURL)

	var rows []listing.RawRow
	doc.Find(sel.Rows).Each(func(_ int, s *goquery.Selection) {
		row := listing.RawRow{}

		titleSel := s.Find(sel.Title)
		if attr, ok := titleSel.Attr("title"); ok && strings.TrimSpace(attr) != "" {
			row[listing.FieldTitle] = strings.TrimSpace(attr)
		} else {
			row[listing.FieldTitle] = strings.TrimSpace(titleSel.Text())
		}

		if href, ok := s.Find(sel.Link).Attr("href"); ok {
			row[listing.FieldDetailURL] = resolveURL(base, href)
		}
		if src, ok := s.Find(sel.Image).Attr("src"); ok {
			row[listing.FieldImageURL] = resolveURL(base, src)
		}

		row[listing.FieldCondition] = strings.TrimSpace(s.Find(sel.Condition).Text())
		row[listing.FieldLocation] = strings.TrimSpace(s.Find(sel.Location).Text())
		row[listing.FieldEndTime] = strings.TrimSpace(s.Find(sel.EndTime).Text())
		row[listing.FieldPrice] = strings.TrimSpace(s.Find(sel.Price).Text())

		// Header and filler rows render without a link cell and without text.
		if row[listing.FieldTitle] == "" && row[listing.FieldDetailURL] == "" {
			return
		}
		rows = append(rows, row)
	})

	return rows, nil
}

func resolveURL(base *url.URL, raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(raw, "data:") || strings.HasPrefix(raw, "javascript:") {
		return ""
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if base == nil || ref.IsAbs() {
		return ref.String()
	}
	return base.ResolveReference(ref).String()
}
