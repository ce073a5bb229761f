package airbnb

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"market-scanner/browser"
	"market-scanner/config"
	"market-scanner/errs"
	"market-scanner/models"
	"market-scanner/ratelimit"
	"market-scanner/scraper"
	"market-scanner/utils"
)

const platform = models.PlatformAirbnb

var consentSelectors = []string{
	`[data-testid="accept-btn"]`,
	`button[data-testid*="cookie"]`,
	`button[aria-label*="Accept"]`,
	`button[aria-label*="Got it"]`,
	`button[class*="accept"]`,
}

var containerSelectors = []string{
	`[data-testid="card-container"]`,
	`[itemprop="itemListElement"]`,
	`div[data-testid="listing-card-wrapper"]`,
}

var (
	ratingPattern = regexp.MustCompile(`([\d.]+)\s*out of 5`)
	reviewPattern = regexp.MustCompile(`(\d+)\s*review`)

	titleCascade = []scraper.FieldLocator{
		{Selector: `[data-testid="listing-card-title"]`},
		{Selector: `[itemprop="name"]`},
		{Selector: `div[id*="title"]`},
	}
	priceCascade = []scraper.FieldLocator{
		{Selector: `[data-testid="price-availability-row"]`},
		{Selector: `[data-testid="listing-card-price"]`},
		{Selector: `span[class*="price"]`},
	}
	urlCascade = []scraper.FieldLocator{
		{Selector: `a[href*="/rooms/"]`, Attr: "href"},
	}
	ratingCascade = []scraper.FieldLocator{
		{Selector: `[aria-label*="out of 5"]`, Attr: "aria-label", Pattern: ratingPattern},
		{Selector: `[aria-label*="rating"]`, Attr: "aria-label", Pattern: regexp.MustCompile(`([\d.]+)`)},
		{Selector: `span[class*="r4a59j5"]`, Pattern: regexp.MustCompile(`(\d\.\d+)`)},
	}
	reviewCascade = []scraper.FieldLocator{
		{Selector: `[aria-label*="review"]`, Attr: "aria-label", Pattern: reviewPattern},
		{Selector: `span[class*="review"]`, Pattern: regexp.MustCompile(`(\d+)`)},
	}
)

// Extractor scrapes Airbnb search results for one area.
type Extractor struct {
	area    config.AreaConfig
	cfg     *config.Config
	limiter *ratelimit.Limiter
	retry   *utils.RetryConfig
	seen    *utils.URLSet
	log     zerolog.Logger
}

// New creates a ready-to-use Airbnb extractor.
func New(area config.AreaConfig, cfg *config.Config, limiter *ratelimit.Limiter, retry *utils.RetryConfig, log zerolog.Logger) *Extractor {
	return &Extractor{
		area:    area,
		cfg:     cfg,
		limiter: limiter,
		retry:   retry,
		seen:    utils.NewURLSet(),
		log:     log,
	}
}

func (e *Extractor) Platform() models.Platform { return platform }

// Extract navigates the map-bounded search page, dismisses the consent
// interstitial if present, triggers lazy loading, and parses visible cards.
func (e *Extractor) Extract(ctx context.Context, sess browser.Browser) (*scraper.Result, error) {
	searchURL := e.searchURL()
	e.log.Info().Str("url", searchURL).Msg("starting search page scan")

	timeout := time.Duration(e.cfg.Scan.NavTimeoutSec) * time.Second
	if err := e.navigate(ctx, sess, "airbnb-search", searchURL, timeout); err != nil {
		sess.Screenshot("airbnb-error")
		return nil, err
	}

	if scraper.DismissConsent(sess, consentSelectors, 2*time.Second) {
		e.log.Debug().Msg("dismissed consent interstitial")
	}

	if _, ok := sess.WaitForAny(containerSelectors, 5*time.Second); !ok {
		sess.Screenshot("airbnb-no-container")
		return nil, errs.NewNavigation(string(platform), e.area.Name,
			"listing container never appeared", e.retry.MaxAttempts, nil)
	}

	if err := sess.ScrollToBottom(4, 800*time.Millisecond); err != nil {
		return nil, errs.NewNavigation(string(platform), e.area.Name, "scroll failed", 1, err)
	}

	html, err := sess.HTML()
	if err != nil {
		return nil, errs.NewNavigation(string(platform), e.area.Name, "dom capture failed", 1, err)
	}
	doc, err := scraper.ParseDoc(html)
	if err != nil {
		return nil, errs.NewNavigation(string(platform), e.area.Name, "dom parse failed", 1, err)
	}

	result := parseCards(doc, e.seen)
	e.log.Info().Int("listings", len(result.Listings)).Int("skipped", result.Skipped).Msg("search page parsed")
	return result, nil
}

// searchURL builds the map-bounded homes search for the area.
func (e *Extractor) searchURL() string {
	slug := strings.ReplaceAll(e.area.SearchTerm(), " ", "-")
	q := url.Values{}
	q.Set("refinement_paths[]", "/homes")
	q.Set("search_by_map", "true")
	q.Set("ne_lat", fmt.Sprintf("%.4f", e.area.Boundaries.Lat[1]))
	q.Set("ne_lng", fmt.Sprintf("%.4f", e.area.Boundaries.Lng[1]))
	q.Set("sw_lat", fmt.Sprintf("%.4f", e.area.Boundaries.Lat[0]))
	q.Set("sw_lng", fmt.Sprintf("%.4f", e.area.Boundaries.Lng[0]))
	q.Set("adults", "2")
	return "https://www.airbnb.com/s/" + url.PathEscape(slug) + "/homes?" + q.Encode()
}

func (e *Extractor) navigate(ctx context.Context, sess browser.Browser, op, target string, timeout time.Duration) error {
	err := e.retry.Do(ctx, op, func() error {
		if err := e.limiter.Acquire(ctx); err != nil {
			return err
		}
		return sess.Navigate(target, timeout)
	})
	if err != nil {
		return errs.NewNavigation(string(platform), e.area.Name, "navigation failed", e.retry.MaxAttempts, err)
	}
	return nil
}

// parseCards walks the visible listing cards with the field-locator
// cascades. Items missing a detail URL are skipped and counted; every other
// missing field just yields an absent value.
func parseCards(doc *goquery.Document, seen *utils.URLSet) *scraper.Result {
	result := &scraper.Result{}

	cards := doc.Find(strings.Join(containerSelectors, ", "))
	cards.Each(func(_ int, card *goquery.Selection) {
		href := scraper.ExtractField(card, urlCascade)
		detailURL := scraper.AbsURL("https://www.airbnb.com/", href)
		if detailURL == "" {
			result.Skipped++
			return
		}
		if !seen.Add(detailURL) {
			return
		}

		result.Listings = append(result.Listings, &models.RawListing{
			Title:       scraper.ExtractField(card, titleCascade),
			RawPrice:    scraper.ExtractField(card, priceCascade),
			URL:         detailURL,
			Rating:      scraper.ExtractField(card, ratingCascade),
			ReviewCount: scraper.ExtractField(card, reviewCascade),
			Details:     strings.TrimSpace(card.Text()),
			Platform:    platform,
			ScrapedAt:   time.Now(),
		})
	})

	return result
}
