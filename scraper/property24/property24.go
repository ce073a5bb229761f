package property24

import (
	"context"
	"fmt"
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

const (
	platform = models.PlatformProperty24
	baseURL  = "https://www.property24.com"
)

var containerSelectors = []string{
	`.p24_regularTile`,
	`[class*="listingResult"]`,
	`[class*="propertyTile"]`,
	`[class*="propertyCard"]`,
}

var (
	titleCascade = []scraper.FieldLocator{
		{Selector: `h2`},
		{Selector: `[class*="title"]`},
		{Selector: `[class*="heading"]`},
		{Selector: `[class*="description"]`},
	}
	priceCascade = []scraper.FieldLocator{
		{Selector: `.p24_price`},
		{Selector: `[class*="price"]`},
	}
	urlCascade = []scraper.FieldLocator{
		{Selector: `a[href*="/to-rent/"]`, Attr: "href"},
	}
	detailsCascade = []string{
		`.p24_propertyInfo`,
		`.p24_features`,
		`[class*="features"]`,
		`[class*="details"]`,
		`[class*="specs"]`,
		`[class*="description"]`,
	}
	nextPageSelectors = []string{
		`a[class*="pull-right"]`,
		`a[class*="next"]`,
		`ul.pagination a[rel="next"]`,
	}
)

// Extractor scrapes the long-term rental portal for one area, paging until
// the minimum listing threshold is met or pagination is exhausted.
type Extractor struct {
	area    config.AreaConfig
	cfg     *config.Config
	limiter *ratelimit.Limiter
	retry   *utils.RetryConfig
	seen    *utils.URLSet
	log     zerolog.Logger
}

// New creates a ready-to-use Property24 extractor.
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

// Extract pages through the rental search, accumulating unique raw records.
func (e *Extractor) Extract(ctx context.Context, sess browser.Browser) (*scraper.Result, error) {
	result := &scraper.Result{}
	timeout := time.Duration(e.cfg.Scan.NavTimeoutSec) * time.Second

	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return result, nil // cancelled mid-scan: partial batch is acceptable
		}

		pageURL := e.pageURL(page)
		e.log.Info().Int("page", page).Str("url", pageURL).Msg("loading rental page")

		err := e.retry.Do(ctx, fmt.Sprintf("property24-page-%d", page), func() error {
			if err := e.limiter.Acquire(ctx); err != nil {
				return err
			}
			return sess.Navigate(pageURL, timeout)
		})
		if err != nil {
			if page > 1 {
				// Keep what earlier pages yielded.
				e.log.Warn().Err(err).Int("page", page).Msg("pagination aborted")
				break
			}
			sess.Screenshot("property24-error")
			return nil, errs.NewNavigation(string(platform), e.area.Name, "navigation failed", e.retry.MaxAttempts, err)
		}

		if _, ok := sess.WaitForAny(containerSelectors, 5*time.Second); !ok {
			if page > 1 {
				break
			}
			sess.Screenshot("property24-no-container")
			return nil, errs.NewNavigation(string(platform), e.area.Name,
				"listing container never appeared", e.retry.MaxAttempts, nil)
		}

		if err := sess.ScrollToBottom(3, 600*time.Millisecond); err != nil {
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

		if page == 1 {
			if err := e.verifyLocation(doc); err != nil {
				sess.Screenshot("property24-wrong-location")
				return nil, err
			}
		}

		pageResult := parseCards(doc, e.seen)
		result.Listings = append(result.Listings, pageResult.Listings...)
		result.Skipped += pageResult.Skipped
		e.log.Info().Int("page", page).Int("total", len(result.Listings)).Msg("rental page parsed")

		if len(result.Listings) >= e.area.MinListings || !hasNextPage(doc) {
			break
		}
		if err := utils.SleepCtx(ctx, 2*time.Second); err != nil {
			break
		}
	}

	if e.cfg.Scan.EnrichDetails {
		e.enrich(ctx, sess, result.Listings)
	}

	return result, nil
}

func (e *Extractor) pageURL(page int) string {
	base := baseURL + "/to-rent/" + strings.Trim(e.area.RentalPath, "/")
	if page == 1 {
		return base
	}
	return fmt.Sprintf("%s/p%d", base, page)
}

// verifyLocation guards against the portal silently redirecting a stale area
// path to a different suburb.
func (e *Extractor) verifyLocation(doc *goquery.Document) error {
	heading := strings.ToLower(doc.Find("h1, .searchheading, .p24_content").Text())
	if !strings.Contains(heading, strings.ToLower(e.area.Name)) {
		return errs.NewNavigation(string(platform), e.area.Name,
			"landed on wrong location page", 1, nil)
	}
	return nil
}

func hasNextPage(doc *goquery.Document) bool {
	for _, sel := range nextPageSelectors {
		link := doc.Find(sel).First()
		if link.Length() == 0 {
			continue
		}
		if link.HasClass("disabled") {
			continue
		}
		if href, ok := link.Attr("href"); ok && href != "" && href != "#" {
			return true
		}
	}
	return false
}

func parseCards(doc *goquery.Document, seen *utils.URLSet) *scraper.Result {
	result := &scraper.Result{}

	cards := doc.Find(strings.Join(containerSelectors, ", "))
	cards.Each(func(_ int, card *goquery.Selection) {
		href := scraper.ExtractField(card, urlCascade)
		detailURL := scraper.AbsURL(baseURL, href)
		if detailURL == "" {
			result.Skipped++
			return
		}
		if !seen.Add(detailURL) {
			return
		}

		var details strings.Builder
		for _, sel := range detailsCascade {
			if txt := strings.TrimSpace(card.Find(sel).Text()); txt != "" {
				details.WriteString(txt)
				details.WriteString(" ")
			}
		}
		blob := strings.TrimSpace(details.String())
		if blob == "" {
			blob = strings.TrimSpace(card.Text())
		}

		result.Listings = append(result.Listings, &models.RawListing{
			Title:     scraper.ExtractField(card, titleCascade),
			RawPrice:  scraper.ExtractField(card, priceCascade),
			URL:       detailURL,
			Details:   blob,
			Platform:  platform,
			ScrapedAt: time.Now(),
		})
	})

	return result
}

// enrich opens each detail page in a short-lived secondary tab to pick up
// the amenity/description text the list view omits. Detail requests spend
// the same rate-limit budget as primary navigation.
func (e *Extractor) enrich(ctx context.Context, sess browser.Browser, listings []*models.RawListing) {
	timeout := time.Duration(e.cfg.Scan.NavTimeoutSec) * time.Second

	for _, l := range listings {
		if ctx.Err() != nil {
			return
		}
		if l.URL == "" {
			continue
		}

		blob, err := e.fetchDetail(ctx, sess, l.URL, timeout)
		if err != nil {
			e.log.Warn().Err(err).Str("url", l.URL).Msg("detail enrichment failed")
			continue
		}
		if blob != "" {
			l.Details = l.Details + " " + blob
		}
	}
}

func (e *Extractor) fetchDetail(ctx context.Context, sess browser.Browser, url string, timeout time.Duration) (string, error) {
	tab, err := sess.NewTab()
	if err != nil {
		return "", err
	}
	defer tab.Close()

	err = e.retry.Do(ctx, "property24-detail", func() error {
		if err := e.limiter.Acquire(ctx); err != nil {
			return err
		}
		return tab.Navigate(url, timeout)
	})
	if err != nil {
		return "", err
	}

	if _, ok := tab.WaitForAny(detailsCascade, 3*time.Second); !ok {
		return "", nil
	}

	html, err := tab.HTML()
	if err != nil {
		return "", err
	}
	doc, err := scraper.ParseDoc(html)
	if err != nil {
		return "", err
	}

	var details strings.Builder
	for _, sel := range append([]string{".p24_description"}, detailsCascade...) {
		if txt := strings.TrimSpace(doc.Find(sel).First().Text()); txt != "" {
			details.WriteString(txt)
			details.WriteString(" ")
		}
	}
	return strings.TrimSpace(details.String()), nil
}
