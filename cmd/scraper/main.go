// Package main provides the trending-music scraper: fetch, normalize, and write
// JSONL/CSV datasets.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ttmusic/internal/config"
	"ttmusic/internal/crawler"
	"ttmusic/internal/dataset"
	"ttmusic/internal/formatter"
	"ttmusic/internal/logger"
	"ttmusic/internal/metrics"
	"ttmusic/internal/normalizer"
	"ttmusic/pkg/metadata"

	"github.com/google/uuid"
)

func main() {
	os.Exit(run())
}

func run() int {
	// 1. Define Command-Line Flags
	// ---------------------------
	configPath := flag.String("config", "", "Path to YAML config file (optional)")
	region := flag.String("region", "", "Region code, e.g. US")
	limit := flag.Int("limit", 0, "Maximum number of items to fetch")
	inputPath := flag.String("input", "", "Run input file (JSON or YAML with region and limit)")
	out := flag.String("out", "", "JSONL output path (default data/out.jsonl)")
	csvPath := flag.String("csv", "", "Optional CSV output path")
	mock := flag.String("mock", "", "Use the mock file instead of the live endpoint (true/false)")
	endpoint := flag.String("endpoint", "", "Live trending-music endpoint")
	preview := flag.Bool("preview", false, "Print a markdown preview of the normalized items")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")

	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Failed to load config: %v\n", err)

		return 1
	}

	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}

	log, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Failed to open log file: %v\n", err)

		return 1
	}

	defer func() { _ = log.Sync() }()

	runID := uuid.New().String()
	log = log.With("run_id", runID)

	log.Debug("Loaded configuration", "config", cfg.String())

	// 2. Resolve Run Settings
	// -----------------------
	var in *config.InputFile
	if *inputPath != "" {
		in, err = config.LoadInputFile(*inputPath)
		if err != nil {
			log.Error("❌ Failed to load input file", "error", err)

			return 1
		}
	}

	settings := config.Resolve(cfg, config.CLIArgs{
		Region:   *region,
		Endpoint: *endpoint,
		Mock:     *mock,
		Out:      *out,
		CSV:      *csvPath,
		Limit:    *limit,
	}, in, os.Getenv)

	log.Info("🚀 Starting trending music scraper",
		"region", settings.Region,
		"limit", settings.Limit,
		"mock", settings.Mock,
		"endpoint", settings.Endpoint,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Ingestion
	// ------------
	startTime := time.Now()

	client := crawler.NewClientWithDeps(crawler.NewScraperWithConfig(cfg), log, crawler.SourceOptions{
		Endpoint: settings.Endpoint,
		MockPath: settings.MockPath,
		Mock:     settings.Mock,
	})

	fetched, err := client.Fetch(ctx, settings.Region, settings.Limit)
	if err != nil {
		log.Error("❌ Fetch failed", "error", err)

		return 1
	}

	log.Info("✅ Fetched items",
		"count", len(fetched.Items),
		"source", fetched.Source,
		"duration", time.Since(startTime),
	)

	// 4. Normalization
	// ----------------
	processor := normalizer.NewProcessorWithDeps(log, nil)

	batch, err := processor.ProcessAll(fetched.Items, settings.Region)
	if err != nil {
		log.Error("❌ Normalization failed", "error", err)

		return 1
	}

	// 5. Output
	// ---------
	if err := dataset.WriteJSONL(settings.JSONLPath, batch.Items); err != nil {
		log.Error("❌ Failed to write JSONL", "error", err)

		return 1
	}

	log.Info("💾 Wrote JSONL", "path", settings.JSONLPath, "rows", len(batch.Items))

	if settings.CSVPath != "" {
		if err := writeCSV(settings.CSVPath, batch); err != nil {
			log.Error("❌ Failed to write CSV", "error", err)

			return 1
		}

		log.Info("💾 Wrote CSV", "path", settings.CSVPath)
	}

	if cfg.Output.WriteManifest {
		manifestPath, err := metadata.Write(settings.JSONLPath, &metadata.Manifest{
			RunID:          runID,
			Region:         settings.Region,
			Source:         fetched.Source,
			FallbackReason: string(fetched.Reason),
			ScrapedAt:      batch.ScrapedAt,
			Retrieved:      batch.Retrieved(),
			Normalized:     len(batch.Items),
			Failed:         batch.Failed,
			Mock:           settings.Mock,
		})
		if err != nil {
			log.Error("❌ Failed to write manifest", "error", err)

			return 1
		}

		log.Debug("Wrote manifest", "path", manifestPath)
	}

	metrics.LastRunTimestamp.SetToCurrentTime()

	if cfg.Metrics.Textfile != "" {
		if err := metrics.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			log.Warn("⚠️  Failed to write metrics textfile", "error", err)
		}
	}

	if *preview || cfg.Features.EnablePreview {
		fmt.Println(formatter.PreviewTable(batch.Items, cfg.Logging.SampleRows))
	}

	fmt.Printf("retrieved %d, normalized %d, failed %d\n", batch.Retrieved(), len(batch.Items), batch.Failed)

	return 0
}

func newLogger(cfg *config.Config) (*logger.Logger, error) {
	if cfg.Logging.File == "" {
		return logger.NewLogger(cfg.Logging.Level), nil
	}

	return logger.NewLoggerWithFile(cfg.Logging.Level, cfg.Logging.File)
}

func writeCSV(path string, batch *normalizer.BatchResult) error {
	rows, err := dataset.ToRows(batch.Items)
	if err != nil {
		return err
	}

	return dataset.WriteCSV(path, rows)
}
