// Package scraper defines the per-platform extraction strategies and the
// field-locator cascade they share. Markup drift on a target site is
// absorbed by adding locator candidates, not by rewriting extraction logic.
package scraper

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"market-scanner/browser"
	"market-scanner/models"
)

// Extractor produces raw per-listing records from one platform's pages.
type Extractor interface {
	Platform() models.Platform
	Extract(ctx context.Context, sess browser.Browser) (*Result, error)
}

// Result is one platform run: the collected raw records plus how many
// visible items failed field extraction and were skipped.
type Result struct {
	Listings []*models.RawListing
	Skipped  int
}

// FieldLocator is one candidate strategy for pulling a field out of a
// listing element: a selector, an optional attribute (text when empty), and
// an optional pattern whose first group trims the value.
type FieldLocator struct {
	Selector string
	Attr     string
	Pattern  *regexp.Regexp
}

// ExtractField tries each locator in order and returns the first non-empty
// value. An empty string means every candidate missed.
func ExtractField(sel *goquery.Selection, cascade []FieldLocator) string {
	for _, loc := range cascade {
		found := sel.Find(loc.Selector).First()
		if found.Length() == 0 {
			continue
		}

		var val string
		if loc.Attr != "" {
			val, _ = found.Attr(loc.Attr)
		} else {
			val = found.Text()
		}
		val = strings.TrimSpace(val)
		if val == "" {
			continue
		}

		if loc.Pattern != nil {
			m := loc.Pattern.FindStringSubmatch(val)
			if len(m) < 2 {
				continue
			}
			val = m[1]
		}
		return val
	}
	return ""
}

// ParseDoc builds a goquery document from a rendered DOM snapshot.
func ParseDoc(html string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

// DismissConsent best-effort clicks a cookie/consent interstitial, trying
// each candidate selector with a short timeout. Absence is not an error.
func DismissConsent(sess browser.Browser, candidates []string, perCandidate time.Duration) bool {
	sel, ok := sess.WaitForAny(candidates, perCandidate)
	if !ok {
		return false
	}
	js := fmt.Sprintf(`(function(){var el=document.querySelector(%q); if(el){el.click(); return true;} return false;})()`, sel)
	var clicked bool
	if err := sess.Evaluate(js, &clicked); err != nil {
		return false
	}
	return clicked
}

// AbsURL resolves href against base, returning "" for unusable links.
func AbsURL(base, href string) string {
	if href == "" {
		return ""
	}
	b, err := url.Parse(base)
	if err != nil {
		return ""
	}
	h, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return b.ResolveReference(h).String()
}
