package booking

import (
	"context"
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

const platform = models.PlatformBooking

var consentSelectors = []string{
	`#onetrust-accept-btn-handler`,
	`button[aria-label*="Accept"]`,
	`button[data-testid*="cookie"]`,
}

var containerSelectors = []string{
	`[data-testid="property-card"]`,
	`div[data-testid="property-card-container"]`,
}

var (
	titleCascade = []scraper.FieldLocator{
		{Selector: `[data-testid="title"]`},
		{Selector: `.sr-hotel__name`},
		{Selector: `h3`},
	}
	priceCascade = []scraper.FieldLocator{
		{Selector: `[data-testid="price-and-discounted-price"]`},
		{Selector: `.bui-price-display__value`},
		{Selector: `span[class*="price"]`},
	}
	urlCascade = []scraper.FieldLocator{
		{Selector: `a[data-testid="title-link"]`, Attr: "href"},
		{Selector: `a.hotel_name_link`, Attr: "href"},
		{Selector: `a[href*="/hotel/"]`, Attr: "href"},
	}
	ratingCascade = []scraper.FieldLocator{
		{Selector: `[data-testid="review-score"]`, Pattern: regexp.MustCompile(`([\d.]+)`)},
		{Selector: `.review-score-badge`},
	}
	reviewCascade = []scraper.FieldLocator{
		{Selector: `[data-testid="review-score"]`, Pattern: regexp.MustCompile(`([\d,]+)\s*review`)},
		{Selector: `.review-score-widget`, Attr: "data-reviews"},
	}
)

// Extractor scrapes Booking.com search results for one area.
type Extractor struct {
	area    config.AreaConfig
	cfg     *config.Config
	limiter *ratelimit.Limiter
	retry   *utils.RetryConfig
	seen    *utils.URLSet
	log     zerolog.Logger
}

// New creates a ready-to-use Booking.com extractor.
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

// Extract loads the area search results and parses the visible property cards.
func (e *Extractor) Extract(ctx context.Context, sess browser.Browser) (*scraper.Result, error) {
	searchURL := e.searchURL()
	e.log.Info().Str("url", searchURL).Msg("starting search page scan")

	timeout := time.Duration(e.cfg.Scan.NavTimeoutSec) * time.Second
	err := e.retry.Do(ctx, "booking-search", func() error {
		if err := e.limiter.Acquire(ctx); err != nil {
			return err
		}
		return sess.Navigate(searchURL, timeout)
	})
	if err != nil {
		sess.Screenshot("booking-error")
		return nil, errs.NewNavigation(string(platform), e.area.Name, "navigation failed", e.retry.MaxAttempts, err)
	}

	if scraper.DismissConsent(sess, consentSelectors, 2*time.Second) {
		e.log.Debug().Msg("dismissed consent interstitial")
	}

	if _, ok := sess.WaitForAny(containerSelectors, 5*time.Second); !ok {
		sess.Screenshot("booking-no-container")
		return nil, errs.NewNavigation(string(platform), e.area.Name,
			"listing container never appeared", e.retry.MaxAttempts, nil)
	}

	if err := sess.ScrollToBottom(3, 700*time.Millisecond); err != nil {
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

func (e *Extractor) searchURL() string {
	q := url.Values{}
	q.Set("ss", e.area.SearchTerm()+", Cape Town, South Africa")
	q.Set("group_adults", "2")
	return "https://www.booking.com/searchresults.html?" + q.Encode()
}

func parseCards(doc *goquery.Document, seen *utils.URLSet) *scraper.Result {
	result := &scraper.Result{}

	cards := doc.Find(strings.Join(containerSelectors, ", "))
	cards.Each(func(_ int, card *goquery.Selection) {
		href := scraper.ExtractField(card, urlCascade)
		detailURL := scraper.AbsURL("https://www.booking.com/", href)
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
