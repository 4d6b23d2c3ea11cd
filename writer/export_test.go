package writer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	appconfig "skinflow/config"
	"skinflow/models"
)

func testSummary() models.RunSummary {
	finished := time.Date(2026, 8, 25, 12, 30, 0, 0, time.UTC)
	return models.RunSummary{
		RunID:      "a1b2c3d4",
		Total:      3,
		Succeeded:  2,
		Failed:     1,
		StartedAt:  finished.Add(-time.Minute),
		FinishedAt: finished,
	}
}

func testRecords() []models.ProcessedRecord {
	volume := int64(1406)
	return []models.ProcessedRecord{
		{
			CatalogItem: models.CatalogItem{ID: "skin-1", Name: "AK-47 | Redline", Wear: 2},
			Market: &models.OrderBookSnapshot{
				ListingID: 176321,
				BuyPrice:  10.5,
				SellPrice: 11.25,
				BuyDepth:  []models.DepthLevel{{Price: 10.5, Count: 3}, {Price: 10.25, Count: 9}},
				SellDepth: []models.DepthLevel{{Price: 11.25, Count: 2}},
				Volume:    &volume,
			},
		},
		{
			CatalogItem: models.CatalogItem{ID: "skin-2", Name: "AWP | Asiimov", Wear: 3},
			Error:       "order_histogram: marker not found",
		},
		{
			CatalogItem: models.CatalogItem{ID: "skin-3", Name: "Glock-18 | Fade"},
			Market: &models.OrderBookSnapshot{
				ListingID: 42,
				BuyPrice:  250.00,
				SellPrice: 260.10,
				BuyDepth:  []models.DepthLevel{},
				SellDepth: []models.DepthLevel{},
			},
		},
	}
}

func TestFlattenRecords(t *testing.T) {
	rows := flattenRecords(testRecords(), testSummary())

	// First item: 2 quote rows + 3 depth rows. Third: 2 quote rows.
	// The error record contributes nothing.
	if len(rows) != 7 {
		t.Fatalf("expected 7 rows, got %d", len(rows))
	}

	quote := rows[0]
	if quote.Side != "buy" || quote.Level != 0 || quote.Price != 10.5 || quote.Count != 0 {
		t.Errorf("unexpected buy quote row: %+v", quote)
	}
	if rows[1].Side != "sell" || rows[1].Price != 11.25 {
		t.Errorf("unexpected sell quote row: %+v", rows[1])
	}

	depth := rows[3]
	if depth.Side != "buy" || depth.Level != 2 || depth.Price != 10.25 || depth.Count != 9 {
		t.Errorf("unexpected second buy depth row: %+v", depth)
	}
	if rows[4].Side != "sell" || rows[4].Level != 1 {
		t.Errorf("unexpected sell depth row: %+v", rows[4])
	}

	if rows[0].Volume == nil || *rows[0].Volume != 1406 {
		t.Errorf("volume lost on first item rows: %+v", rows[0])
	}
	if rows[5].Volume != nil {
		t.Errorf("volume should stay absent for third item: %+v", rows[5])
	}
	for i, row := range rows {
		if row.RunID != "a1b2c3d4" {
			t.Fatalf("row %d missing run id: %+v", i, row)
		}
	}
}

func TestExportKey(t *testing.T) {
	got := exportKey(testSummary())
	want := "date=2026-08-25/skinflow_a1b2c3d4.parquet"
	if got != want {
		t.Errorf("exportKey = %q, want %q", got, want)
	}
}

func TestExportWritesParquetFile(t *testing.T) {
	cfg := appconfig.Default()
	cfg.Export.Parquet.Enabled = true
	cfg.Export.Parquet.Dir = t.TempDir()

	exporter, err := NewExporter(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewExporter returned error: %v", err)
	}

	path, err := exporter.Export(context.Background(), testRecords(), testSummary())
	if err != nil {
		t.Fatalf("Export returned error: %v", err)
	}

	want := filepath.Join(cfg.Export.Parquet.Dir, "date=2026-08-25", "skinflow_a1b2c3d4.parquet")
	if path != want {
		t.Errorf("export path = %q, want %q", path, want)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("parquet file not written: %v", err)
	}
	if info.Size() == 0 {
		t.Error("parquet file is empty")
	}

	if _, err := os.Stat(filepath.Join(cfg.Export.Parquet.Dir, "metadata", "metadata.json")); err != nil {
		t.Errorf("run manifest not written: %v", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.Export.Parquet.Dir, "catalog", "skinflow.json")); err != nil {
		t.Errorf("catalog entry not written: %v", err)
	}
}

func TestExportNothingToWrite(t *testing.T) {
	cfg := appconfig.Default()
	cfg.Export.Parquet.Dir = t.TempDir()

	exporter, err := NewExporter(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewExporter returned error: %v", err)
	}

	records := []models.ProcessedRecord{
		{CatalogItem: models.CatalogItem{Name: "AWP | Asiimov"}, Error: "listing_page: marker not found"},
	}
	path, err := exporter.Export(context.Background(), records, testSummary())
	if err != nil {
		t.Fatalf("Export returned error: %v", err)
	}
	if path != "" {
		t.Errorf("expected no file for error-only run, got %q", path)
	}
}
