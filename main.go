package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"skinflow/catalog"
	"skinflow/config"
	"skinflow/logger"
	"skinflow/processor"
	"skinflow/reader/steam"
	"skinflow/writer"
)

func main() {
	log := logger.GetLogger()

	// Load environment variables from .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Error loading .env file")
	}

	configPath := flag.String("config", "config/config.yml", "Path to configuration file")
	inputPath := flag.String("input", "", "Catalog JSON path (overrides config)")
	outputPath := flag.String("output", "", "Checkpoint JSON path (overrides config)")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}
	if *inputPath != "" {
		cfg.Catalog.Input = *inputPath
	}
	if *outputPath != "" {
		cfg.Catalog.Checkpoint = *outputPath
	}

	if err := log.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, cfg.Logging.MaxAge); err != nil {
		log.WithError(err).Error("Failed to configure logger")
		os.Exit(1)
	}

	if cfg.Logging.DashboardName != "" {
		logger.InitCloudWatch(cfg.Storage.S3.Region, "", cfg.Logging.DashboardName)
	}

	runID := uuid.New().String()
	log.WithFields(logger.Fields{
		"service":     cfg.Skinflow.Name,
		"version":     cfg.Skinflow.Version,
		"environment": config.AppEnvironment(),
		"run_id":      runID,
	}).Info("starting skinflow")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.WithFields(logger.Fields{"signal": sig.String()}).Info("shutdown signal received, finishing current item")
		cancel()
	}()

	if strings.ToLower(cfg.Logging.Level) == "report" {
		logger.StartReport(ctx, log, 30*time.Second)
	}

	// The catalog gates everything: a bad input file aborts the run before
	// any network traffic.
	items, err := catalog.Load(cfg.Catalog.Input)
	if err != nil {
		log.WithError(err).Error("failed to load catalog")
		os.Exit(1)
	}

	limiter := steam.NewLimiter(cfg.Client.RateLimit)
	client := steam.NewClient(cfg, limiter)
	checkpoint := writer.NewCheckpoint(cfg.Catalog.Checkpoint)
	batch := processor.NewBatch(cfg, client, checkpoint)

	records, summary, err := batch.Run(ctx, runID, items)
	interrupted := errors.Is(err, context.Canceled)
	if err != nil && !interrupted {
		log.WithError(err).Error("batch run failed")
		os.Exit(1)
	}

	client.ReportPace()

	if interrupted {
		log.WithFields(logger.Fields{
			"checkpoint": checkpoint.Path(),
			"done":       summary.Succeeded + summary.Failed,
			"total":      summary.Total,
		}).Warn("run interrupted, checkpoint preserved, skipping export")
	} else if cfg.Export.Parquet.Enabled || cfg.Storage.S3.Enabled {
		exporter, err := writer.NewExporter(ctx, cfg)
		if err != nil {
			log.WithError(err).Error("failed to initialize exporter")
		} else {
			if cfg.Export.Parquet.Enabled {
				if _, err := exporter.Export(ctx, records, summary); err != nil {
					log.WithError(err).Error("parquet export failed")
				}
			}
			if err := exporter.MirrorCheckpoint(ctx, checkpoint.Path(), summary); err != nil {
				log.WithError(err).Error("checkpoint upload failed")
			}
		}
	}

	log.WithFields(logger.Fields{
		"run_id":     summary.RunID,
		"total":      summary.Total,
		"succeeded":  summary.Succeeded,
		"failed":     summary.Failed,
		"skipped":    summary.Skipped,
		"elapsed_ms": summary.ElapsedMs,
	}).Info("skinflow finished")
}
