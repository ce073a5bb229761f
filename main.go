package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"market-scanner/browser"
	"market-scanner/config"
	"market-scanner/logger"
	"market-scanner/models"
	"market-scanner/ratelimit"
	"market-scanner/report"
	"market-scanner/scanner"
	"market-scanner/scraper"
	"market-scanner/scraper/airbnb"
	"market-scanner/scraper/booking"
	"market-scanner/scraper/property24"
	"market-scanner/services"
	"market-scanner/storage"
	"market-scanner/utils"
)

func main() {
	logger.Init()
	log := logger.New("main")

	cfg := config.Load()

	sf, err := config.LoadScannerFile(cfg.ScannerConfigPath)
	if err != nil {
		log.Fatal().Err(err).Msg("scanner configuration invalid")
	}

	gateway, err := storage.NewPostgresGateway(cfg.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("postgres unavailable")
	}
	defer gateway.Close()

	publisher := report.NewRedisPublisher(cfg.RedisAddr, cfg.RedisDB, cfg.ReportStream, cfg.StreamMaxLength)
	defer publisher.Close()

	var rawWriter storage.RawListingWriter
	if cfg.CSVOutputPath != "" {
		w, err := storage.NewCSVWriter(cfg.CSVOutputPath)
		if err != nil {
			log.Fatal().Err(err).Msg("csv audit writer setup failed")
		}
		defer w.Close()
		rawWriter = w
	}

	var budget *ratelimit.DailyBudget
	if cfg.MemcacheAddr != "" {
		budget = ratelimit.NewDailyBudget(cfg.MemcacheAddr, cfg.RateLimit.MaxDailyRequests)
		log.Info().Str("addr", cfg.MemcacheAddr).Int("max", cfg.RateLimit.MaxDailyRequests).
			Msg("shared daily request budget enabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().
		Int("areas", len(sf.Areas)).
		Int("concurrency", cfg.Scan.Concurrency).
		Int("poll_interval_min", cfg.Scan.PollIntervalMin).
		Msg("market scanner starting")

	for {
		runPass(ctx, cfg, sf, gateway, rawWriter, publisher, budget)

		if cfg.Scan.PollIntervalMin <= 0 {
			return
		}
		log.Info().Int("minutes", cfg.Scan.PollIntervalMin).Msg("scan pass complete, sleeping")
		if err := utils.SleepCtx(ctx, time.Duration(cfg.Scan.PollIntervalMin)*time.Minute); err != nil {
			log.Info().Msg("shutting down")
			return
		}
	}
}

// runPass fans the configured areas out over the worker pool and publishes
// one report per area.
func runPass(
	ctx context.Context,
	cfg *config.Config,
	sf *config.ScannerFile,
	gateway storage.PersistenceGateway,
	rawWriter storage.RawListingWriter,
	publisher report.Publisher,
	budget *ratelimit.DailyBudget,
) {
	pool := utils.NewWorkerPool(cfg.Scan.Concurrency)
	for _, area := range sf.Areas {
		area := area
		pool.Submit(func() {
			scanArea(ctx, cfg, area, sf.Validation, gateway, rawWriter, publisher, budget)
		})
	}
	pool.Wait()
}

func scanArea(
	ctx context.Context,
	cfg *config.Config,
	area config.AreaConfig,
	rules config.ValidationConfig,
	gateway storage.PersistenceGateway,
	rawWriter storage.RawListingWriter,
	publisher report.Publisher,
	budget *ratelimit.DailyBudget,
) {
	log := logger.New("scanner").With().Str("area", area.Name).Logger()

	// Each area worker paces its own requests; the daily budget is shared.
	limiter := ratelimit.New(cfg.RateLimit, budget, log)
	retry := &utils.RetryConfig{
		MaxAttempts:    cfg.Scan.MaxRetries,
		InitialBackoff: time.Duration(cfg.Scan.RetryDelayMs) * time.Millisecond,
		Multiplier:     cfg.Scan.RetryMultiplier,
		MaxBackoff:     time.Duration(cfg.Scan.RetryMaxBackoffMs) * time.Millisecond,
		Logger:         log,
	}

	extractors := buildExtractors(area, cfg, limiter, retry, log)

	s := scanner.New(
		area,
		extractors,
		services.NewNormalizer(area),
		services.NewValidator(area, rules, log),
		gateway,
		rawWriter,
		limiter,
		func(ctx context.Context) (browser.Browser, error) {
			return browser.NewSession(ctx, cfg, log)
		},
		log,
	)

	rep, err := s.Scan(ctx)
	if err != nil {
		log.Error().Err(err).Msg("area scan aborted")
	}

	if err := publisher.Publish(ctx, rep); err != nil {
		log.Error().Err(err).Msg("report publish failed")
	}
}

// buildExtractors assembles the per-platform strategies for an area. The
// long-term portal only runs for areas with a configured rental path.
func buildExtractors(area config.AreaConfig, cfg *config.Config, limiter *ratelimit.Limiter, retry *utils.RetryConfig, log zerolog.Logger) []scraper.Extractor {
	extractors := []scraper.Extractor{
		airbnb.New(area, cfg, limiter, retry, logger.ForPlatform(log, string(models.PlatformAirbnb), area.Name)),
		booking.New(area, cfg, limiter, retry, logger.ForPlatform(log, string(models.PlatformBooking), area.Name)),
	}
	if area.RentalPath != "" {
		extractors = append(extractors,
			property24.New(area, cfg, limiter, retry, logger.ForPlatform(log, string(models.PlatformProperty24), area.Name)))
	}
	return extractors
}
