package main

import (
	"context"
	"flag"
	"os"

	"propfinder/alerts"
	"propfinder/analysis"
	"propfinder/config"
	"propfinder/models"
	"propfinder/rates"
	"propfinder/scraper"
	"propfinder/scraper/argenprop"
	"propfinder/scraper/zonaprop"
	"propfinder/server"
	"propfinder/storage"
	"propfinder/utils"
)

func main() {
	sourceFlag := flag.String("source", "all", "portal to scrape: zonaprop, argenprop or all")
	limitFlag := flag.Int("limit", 50, "maximum listings per portal")
	notifyFlag := flag.Bool("notify", false, "send Telegram alerts for detected opportunities")
	serveFlag := flag.Bool("serve", false, "start the API server after processing")
	flag.Parse()

	cfg := config.Load()
	logger := utils.NewFileLogger(cfg.LogFile)

	logger.Info("=== Property Opportunity Finder starting ===")
	logger.Info("Config — source: %s | limit: %d | pages: %d | concurrency: %d",
		*sourceFlag, *limitFlag, cfg.PagesToScrape, cfg.MaxConcurrency)

	analysisCfg, err := config.LoadAnalysis(cfg.AnalysisConfigPath)
	if err != nil {
		logger.Warn("Analysis config problem (using defaults): %v", err)
	}

	csvWriter, err := storage.NewCSVWriter(cfg.CSVOutputPath)
	if err != nil {
		logger.Error("Failed to create CSV writer: %v", err)
		os.Exit(1)
	}
	defer csvWriter.Close()

	store, err := storage.NewPostgresStore(cfg.DSN())
	if err != nil {
		logger.Error("Failed to connect to PostgreSQL: %v", err)
		logger.Error("Make sure Docker is running: docker compose up -d")
		os.Exit(1)
	}
	defer store.Close()

	scrapers := buildScrapers(*sourceFlag, cfg, logger)
	if len(scrapers) == 0 {
		logger.Error("Unknown source %q — use zonaprop, argenprop or all", *sourceFlag)
		os.Exit(1)
	}

	ctx := context.Background()

	var rawListings []models.RawListing
	for _, sc := range scrapers {
		batch, err := sc.Scrape(ctx, *limitFlag)
		if err != nil {
			logger.Error("%s scrape failed: %v", sc.Source(), err)
			continue
		}
		rawListings = append(rawListings, batch...)
	}

	if len(rawListings) == 0 {
		logger.Error("No listings were scraped. Exiting.")
		os.Exit(1)
	}

	logger.Info("Scraped %d raw listings — writing to CSV...", len(rawListings))
	if err := csvWriter.WriteRaw(rawListings); err != nil {
		logger.Error("CSV write failed: %v", err)
	} else {
		logger.Info("Raw listings saved to %s", cfg.CSVOutputPath)
	}

	historical, err := store.FetchHistorical()
	if err != nil {
		logger.Warn("Could not load historical pool, relisting detection degraded: %v", err)
	}

	rateClient := rates.NewClient(cfg.RateAPIURL, analysisCfg.MEPRateFallback, logger)
	mepRate := rateClient.MEPRate(ctx)

	pipeline := analysis.NewPipeline(analysisCfg, cfg.MaxConcurrency, logger)
	scored := pipeline.Run(rawListings, historical, mepRate)

	if err := store.Upsert(scored); err != nil {
		logger.Error("PostgreSQL upsert failed: %v", err)
	} else {
		logger.Info("Stored %d scored listings (table: listings)", len(scored))
	}

	markVanished(store, scored, logger)

	if *notifyFlag {
		opportunities := analysis.Opportunities(scored, analysisCfg.OpportunityThreshold)
		alerter := alerts.NewTelegramAlerter(cfg.TelegramBotToken, cfg.TelegramChatID, logger)
		if err := alerter.SendOpportunities(ctx, opportunities); err != nil {
			logger.Error("Telegram alerts failed: %v", err)
		}
	}

	reporter := analysis.NewReporter(logger)
	reporter.Print(reporter.Generate(scored))

	if *serveFlag {
		srv := server.New(cfg.ServerAddr, store, analysisCfg.OpportunityThreshold, logger)
		if err := srv.Run(); err != nil {
			logger.Error("API server stopped: %v", err)
			os.Exit(1)
		}
	}
}

func buildScrapers(source string, cfg *config.Config, logger *utils.Logger) []scraper.Scraper {
	switch source {
	case "zonaprop":
		return []scraper.Scraper{zonaprop.New(cfg, logger)}
	case "argenprop":
		return []scraper.Scraper{argenprop.New(cfg, logger)}
	case "all":
		return []scraper.Scraper{zonaprop.New(cfg, logger), argenprop.New(cfg, logger)}
	}
	return nil
}

// markVanished flips listings that are in the store but absent from the
// current batch to delisted, feeding future relisting detection. The core
// pipeline never makes this decision itself.
func markVanished(store storage.ListingStore, scored []models.Listing, logger *utils.Logger) {
	existing, err := store.FetchIDs()
	if err != nil {
		logger.Warn("Could not fetch stored ids, skipping delist pass: %v", err)
		return
	}

	inBatch := make(map[string]struct{}, len(scored))
	for i := range scored {
		inBatch[scored[i].ID] = struct{}{}
	}

	var vanished []string
	for id := range existing {
		if _, ok := inBatch[id]; !ok {
			vanished = append(vanished, id)
		}
	}

	if len(vanished) == 0 {
		return
	}
	if err := store.MarkDelisted(vanished); err != nil {
		logger.Error("Mark delisted failed: %v", err)
		return
	}
	logger.Info("Marked %d vanished listings as delisted", len(vanished))
}
