package processor

import (
	"context"
	"fmt"
	"strings"
	"time"

	appconfig "skinflow/config"
	"skinflow/internal/hashname"
	"skinflow/logger"
	"skinflow/models"
	"skinflow/reader/steam"
	"skinflow/writer"
)

// Checkpointer persists the accumulated records after every item.
// *writer.Checkpoint is the production implementation.
type Checkpointer interface {
	Init() error
	Write(records []models.ProcessedRecord) error
}

var _ Checkpointer = (*writer.Checkpoint)(nil)

// Batch walks the catalog strictly in order, one item at a time, so every
// request funnels through the shared limiter. Items fail independently: a
// bad item becomes an error record, never an aborted run. The checkpoint
// is rewritten after each item, so the file on disk is always a complete
// snapshot of progress.
type Batch struct {
	config     *appconfig.Config
	client     *steam.Client
	checkpoint Checkpointer
	log        *logger.Log
}

// NewBatch wires a batch run over an explicitly shared client and
// checkpoint writer.
func NewBatch(cfg *appconfig.Config, client *steam.Client, checkpoint Checkpointer) *Batch {
	return &Batch{
		config:     cfg,
		client:     client,
		checkpoint: checkpoint,
		log:        logger.GetLogger(),
	}
}

// Run processes every catalog item and returns the accumulated records
// with a summary of outcomes. The only errors returned are cancellation
// and checkpoint write failures; per-item failures live in the records.
func (b *Batch) Run(ctx context.Context, runID string, items []models.CatalogItem) ([]models.ProcessedRecord, models.RunSummary, error) {
	summary := models.RunSummary{
		RunID:     runID,
		Total:     len(items),
		StartedAt: time.Now(),
	}

	log := b.log.WithComponent("batch").WithFields(logger.Fields{
		"run_id": runID,
		"total":  len(items),
	})
	log.Info("starting batch run")

	if err := b.checkpoint.Init(); err != nil {
		return nil, finishSummary(summary), err
	}

	records := make([]models.ProcessedRecord, 0, len(items))

	for i, item := range items {
		if ctx.Err() != nil {
			log.WithFields(logger.Fields{"done": i}).Warn("batch run interrupted")
			return records, finishSummary(summary), ctx.Err()
		}

		position := i + 1
		if item.Name == "" {
			logger.IncrementItemSkipped()
			summary.Skipped++
			log.WithFields(logger.Fields{"position": position}).Warn("skipping item without a name")
			continue
		}

		start := time.Now()
		record := b.processItem(ctx, item)
		if ctx.Err() != nil && record.Error != "" {
			// The in-flight item failed because the run was cancelled, not
			// on its own. Drop it so the checkpoint holds real outcomes only.
			log.WithFields(logger.Fields{
				"item":     item.Name,
				"position": position,
			}).Warn("run cancelled mid-item, dropping partial outcome")
			return records, finishSummary(summary), ctx.Err()
		}

		records = append(records, record)
		if record.Error != "" {
			logger.IncrementItemFailed()
			summary.Failed++
		} else {
			logger.IncrementItemSucceeded()
			summary.Succeeded++
		}

		if err := b.checkpoint.Write(records); err != nil {
			// Progress can no longer be persisted, continuing would lie.
			log.WithError(err).Error("checkpoint write failed, stopping run")
			return records, finishSummary(summary), err
		}

		logger.LogPerformanceEntry(log, "batch", "process_item", time.Since(start), logger.Fields{
			"item":     item.Name,
			"position": position,
		})
		log.WithFields(logger.Fields{
			"done":     position,
			"total":    len(items),
			"progress": fmt.Sprintf("%.1f%%", float64(position)/float64(len(items))*100),
		}).Info("progress")
	}

	summary = finishSummary(summary)
	logger.LogDataFlowEntry(log, "steam_market", "checkpoint", len(records), "processed_records")
	log.WithFields(logger.Fields{
		"succeeded":  summary.Succeeded,
		"failed":     summary.Failed,
		"skipped":    summary.Skipped,
		"elapsed_ms": summary.ElapsedMs,
	}).Info("batch run complete")

	return records, summary, nil
}

func (b *Batch) processItem(ctx context.Context, item models.CatalogItem) models.ProcessedRecord {
	record := models.ProcessedRecord{CatalogItem: item}
	log := b.log.WithComponent("batch").WithFields(logger.Fields{"item": item.Name})

	weapon, skin, ok := splitName(item.Name)
	if !ok {
		record.Error = fmt.Sprintf("item name %q is not in Weapon | Skin form", item.Name)
		log.Error("malformed item name")
		return record
	}

	hash, err := hashname.Build(weapon, skin, item.Wear, item.Stat != 0)
	if err != nil {
		record.Error = err.Error()
		log.WithError(err).Error("failed to build market hashname")
		return record
	}

	listingID, err := b.client.ResolveListingID(ctx, hash)
	if err != nil {
		record.Error = err.Error()
		log.WithError(err).Error("failed to resolve listing id")
		return record
	}

	snapshot, err := b.client.FetchOrderBook(ctx, listingID, hash)
	if err != nil {
		record.Error = err.Error()
		log.WithError(err).Error("failed to fetch order book")
		return record
	}

	record.Market = &snapshot
	log.WithFields(logger.Fields{
		"listing_id": snapshot.ListingID,
		"buy_price":  snapshot.BuyPrice,
		"sell_price": snapshot.SellPrice,
	}).Info("item processed")
	return record
}

// splitName breaks the composite "Weapon | Skin" name. Extra segments past
// the second are ignored, matching how downstream names are built.
func splitName(name string) (weapon, skin string, ok bool) {
	parts := strings.Split(name, " | ")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

func finishSummary(s models.RunSummary) models.RunSummary {
	s.FinishedAt = time.Now()
	s.ElapsedMs = s.FinishedAt.Sub(s.StartedAt).Milliseconds()
	return s
}
