package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ethical-rent/config"
	"ethical-rent/models"
	"ethical-rent/pricing"
	"ethical-rent/scraper/listing"
	"ethical-rent/services"
	"ethical-rent/storage"
	"ethical-rent/utils"
)

func main() {
	logger := utils.NewLogger()
	cfg := config.Load()
	logger.SetLevel(utils.ParseLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("=== Ethical rent pricing starting ===")
	logger.Info("Config: source: %s | concurrency: %d | rate: %dms",
		cfg.PropertySource, cfg.MaxConcurrency, cfg.RateLimitMs)

	tables := pricing.DefaultTables()
	if cfg.PricingTablesPath != "" {
		loaded, err := pricing.LoadTables(cfg.PricingTablesPath)
		if err != nil {
			logger.Error("Failed to load pricing tables: %v", err)
			os.Exit(1)
		}
		tables = loaded
		logger.Info("Pricing tables loaded from %s", cfg.PricingTablesPath)
	}
	engine := pricing.NewEngine(tables)

	cleaner := services.NewCleaner(logger, tables)
	records, err := loadRecords(ctx, cfg, logger, cleaner)
	if err != nil {
		logger.Error("Failed to load properties: %v", err)
		os.Exit(1)
	}
	if len(records) == 0 {
		logger.Error("No properties left to price. Exiting.")
		os.Exit(1)
	}

	pricer := services.NewPricer(engine, logger, cfg.MaxConcurrency)
	priced, skipped := pricer.PriceAll(records)

	insightSvc := services.NewInsightService(logger)
	report := insightSvc.Generate(priced, skipped)
	insightSvc.Print(report)

	fmt.Printf("  Done. Run %s priced %d of %d properties.\n\n",
		report.RunID, report.PricedProperties, report.TotalProperties)
}

// loadRecords reads the configured source and returns validated records.
func loadRecords(ctx context.Context, cfg *config.Config, logger *utils.Logger, cleaner *services.Cleaner) ([]*models.PropertyRecord, error) {
	switch cfg.PropertySource {
	case config.SourceCSV:
		reader, err := storage.NewCSVReader(cfg.PropertiesCSVPath)
		if err != nil {
			return nil, err
		}
		defer reader.Close()
		return readRaw(ctx, reader, cleaner)

	case config.SourcePostgres:
		retry := &utils.RetryConfig{MaxAttempts: cfg.MaxRetries, BaseDelay: 2 * time.Second, Logger: logger}
		reader, err := storage.NewPostgresReader(ctx, cfg.DSN(), retry)
		if err != nil {
			logger.Error("Make sure Docker is running: docker compose up -d")
			return nil, err
		}
		defer reader.Close()
		if cfg.PropertyID != "" {
			rec, err := reader.FetchByID(ctx, cfg.PropertyID)
			if err != nil {
				return nil, err
			}
			return cleaner.Screen([]*models.PropertyRecord{rec}), nil
		}
		return fetchTyped(ctx, reader, cleaner)

	case config.SourceListing:
		if len(cfg.ListingURLs) == 0 {
			return nil, fmt.Errorf("LISTING_URLS is empty")
		}
		raw, err := listing.New(cfg, logger).Import(ctx, cfg.ListingURLs)
		if err != nil {
			return nil, err
		}
		return cleaner.Clean(raw), nil
	}
	return nil, fmt.Errorf("unknown PROPERTY_SOURCE %q", cfg.PropertySource)
}

func readRaw(ctx context.Context, r storage.RawPropertyReader, cleaner *services.Cleaner) ([]*models.PropertyRecord, error) {
	raw, err := r.ReadRaw(ctx)
	if err != nil {
		return nil, err
	}
	return cleaner.Clean(raw), nil
}

func fetchTyped(ctx context.Context, r storage.PropertyReader, cleaner *services.Cleaner) ([]*models.PropertyRecord, error) {
	records, err := r.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	return cleaner.Screen(records), nil
}
