package scanner

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"market-scanner/browser"
	"market-scanner/config"
	"market-scanner/errs"
	"market-scanner/models"
	"market-scanner/ratelimit"
	"market-scanner/scraper"
	"market-scanner/services"
	"market-scanner/storage"
)

// SessionFactory creates the browser session an area scan runs in.
type SessionFactory func(ctx context.Context) (browser.Browser, error)

// AreaScanner runs the full pipeline for one area: extract per platform,
// normalize, validate, dedupe, persist, and report.
//
// A session that cannot be created aborts the whole scan. A platform whose
// navigation fails is skipped; the remaining platforms still run. Per-item
// failures are counted in the report and never stop the batch.
type AreaScanner struct {
	area       config.AreaConfig
	extractors []scraper.Extractor
	normalizer *services.Normalizer
	validator  *services.Validator
	gateway    storage.PersistenceGateway
	rawWriter  storage.RawListingWriter
	limiter    *ratelimit.Limiter
	sessions   SessionFactory
	log        zerolog.Logger
}

// New creates an AreaScanner. rawWriter may be nil to skip the audit dump.
func New(
	area config.AreaConfig,
	extractors []scraper.Extractor,
	normalizer *services.Normalizer,
	validator *services.Validator,
	gateway storage.PersistenceGateway,
	rawWriter storage.RawListingWriter,
	limiter *ratelimit.Limiter,
	sessions SessionFactory,
	log zerolog.Logger,
) *AreaScanner {
	return &AreaScanner{
		area:       area,
		extractors: extractors,
		normalizer: normalizer,
		validator:  validator,
		gateway:    gateway,
		rawWriter:  rawWriter,
		limiter:    limiter,
		sessions:   sessions,
		log:        log,
	}
}

// Scan executes one full pass over every configured platform and returns
// the report. The returned error is non-nil only when the scan could not
// start at all.
func (s *AreaScanner) Scan(ctx context.Context) (*models.ScanReport, error) {
	report := models.NewScanReport(s.area.Name)

	sess, err := s.sessions(ctx)
	if err != nil {
		return report, errs.NewInitialization(s.area.Name, "browser session setup failed", err)
	}
	defer sess.Close()

	for _, ex := range s.extractors {
		if ctx.Err() != nil {
			break
		}
		s.scanPlatform(ctx, sess, ex, report)
	}

	if s.limiter != nil {
		report.RateLimitHits = s.limiter.Hits()
	}
	report.ProcessingTimeSeconds = time.Since(report.StartedAt).Seconds()

	s.log.Info().
		Str("area", report.Area).
		Int("total", report.TotalListings).
		Int("new", report.NewListings).
		Int("updated", report.UpdatedListings).
		Int("errors", report.ErrorCount).
		Int("rate_limit_hits", report.RateLimitHits).
		Float64("seconds", report.ProcessingTimeSeconds).
		Msg("area scan complete")

	return report, nil
}

func (s *AreaScanner) scanPlatform(ctx context.Context, sess browser.Browser, ex scraper.Extractor, report *models.ScanReport) {
	platform := ex.Platform()
	metrics := report.Platform(platform)
	log := s.log.With().Str("platform", string(platform)).Logger()

	result, err := ex.Extract(ctx, sess)
	if err != nil {
		log.Error().Err(err).Msg("platform extraction failed")
		metrics.Errors++
		report.ErrorCount++
		return
	}

	metrics.Attempted = len(result.Listings) + result.Skipped
	metrics.Errors += result.Skipped
	report.ErrorCount += result.Skipped

	if s.rawWriter != nil && len(result.Listings) > 0 {
		if err := s.rawWriter.WriteRaw(result.Listings); err != nil {
			log.Warn().Err(err).Msg("raw audit dump failed")
		}
	}

	batch := make([]*models.Listing, 0, len(result.Listings))
	for _, raw := range result.Listings {
		l := s.normalizer.Normalize(raw)
		metrics.Normalized++
		if !s.validator.Validate(l) {
			metrics.Rejected++
			continue
		}
		batch = append(batch, l)
	}
	batch = services.Dedupe(batch)

	var priceSum float64
	for _, l := range batch {
		if ctx.Err() != nil {
			break
		}
		created, err := s.gateway.Upsert(ctx, l)
		if err != nil {
			log.Error().Err(errs.NewPersistence(string(platform), "upsert failed", err)).
				Str("external_id", l.ExternalID).Msg("listing not persisted")
			metrics.Errors++
			report.ErrorCount++
			continue
		}
		metrics.Persisted++
		priceSum += l.CurrentPrice
		if created {
			metrics.NewCount++
		} else {
			metrics.UpdateCount++
		}
	}
	if metrics.Persisted > 0 {
		metrics.AvgPrice = priceSum / float64(metrics.Persisted)
	}

	report.TotalListings += metrics.Persisted
	report.NewListings += metrics.NewCount
	report.UpdatedListings += metrics.UpdateCount

	log.Info().
		Int("attempted", metrics.Attempted).
		Int("normalized", metrics.Normalized).
		Int("rejected", metrics.Rejected).
		Int("persisted", metrics.Persisted).
		Int("new", metrics.NewCount).
		Int("updated", metrics.UpdateCount).
		Msg("platform scan complete")
}
