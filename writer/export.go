package writer

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"

	appconfig "skinflow/config"
	"skinflow/internal/metadata"
	"skinflow/logger"
	"skinflow/models"
)

// ParquetRecord is one flattened order book row in the export dataset.
// Level 0 carries the top-of-book quote for its side; levels 1 and up
// carry the cumulative depth curve in source order.
type ParquetRecord struct {
	RunID     string  `parquet:"name=run_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	ItemID    string  `parquet:"name=item_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Name      string  `parquet:"name=name, type=BYTE_ARRAY, convertedtype=UTF8"`
	Wear      int32   `parquet:"name=wear, type=INT32"`
	Stat      int32   `parquet:"name=stat, type=INT32"`
	ListingID int64   `parquet:"name=listing_id, type=INT64"`
	Side      string  `parquet:"name=side, type=BYTE_ARRAY, convertedtype=UTF8"`
	Level     int32   `parquet:"name=level, type=INT32"`
	Price     float64 `parquet:"name=price, type=DOUBLE"`
	Count     int64   `parquet:"name=count, type=INT64"`
	Volume    *int64  `parquet:"name=volume, type=INT64, repetitiontype=OPTIONAL"`
	Timestamp int64   `parquet:"name=timestamp, type=INT64"`
}

// memoryFileWriter implements the ParquetFile interface for in-memory writing
type memoryFileWriter struct {
	buffer *bytes.Buffer
}

func newMemoryFileWriter() *memoryFileWriter {
	return &memoryFileWriter{
		buffer: &bytes.Buffer{},
	}
}

func (mfw *memoryFileWriter) Create(name string) (source.ParquetFile, error) {
	return mfw, nil
}

func (mfw *memoryFileWriter) Open(name string) (source.ParquetFile, error) {
	return mfw, nil
}

func (mfw *memoryFileWriter) Seek(offset int64, whence int) (int64, error) {
	// Write path never seeks backwards, reporting the current length is enough.
	return int64(mfw.buffer.Len()), nil
}

func (mfw *memoryFileWriter) Read(b []byte) (int, error) {
	return mfw.buffer.Read(b)
}

func (mfw *memoryFileWriter) Write(b []byte) (int, error) {
	return mfw.buffer.Write(b)
}

func (mfw *memoryFileWriter) Close() error {
	return nil
}

func (mfw *memoryFileWriter) Bytes() []byte {
	return mfw.buffer.Bytes()
}

// Exporter turns a finished run into a parquet dataset: one file per run,
// date-partitioned, committed to a table manifest and optionally mirrored
// to S3.
type Exporter struct {
	config   *appconfig.Config
	s3Client *s3Uploader
	metaGen  *metadata.Generator
	log      *logger.Entry
}

// NewExporter builds an exporter from cfg. The S3 mirror is only wired up
// when storage is enabled, so a local-only run needs no AWS credentials.
func NewExporter(ctx context.Context, cfg *appconfig.Config) (*Exporter, error) {
	e := &Exporter{
		config:  cfg,
		metaGen: metadata.NewGenerator(cfg.Export.Parquet.Dir, cfg.Skinflow.Name),
		log:     logger.GetLogger().WithComponent("exporter"),
	}

	if cfg.Storage.S3.Enabled {
		uploader, err := newS3Uploader(ctx, cfg)
		if err != nil {
			return nil, err
		}
		e.s3Client = uploader
	}

	e.log.WithFields(logger.Fields{
		"dir":         cfg.Export.Parquet.Dir,
		"compression": cfg.Export.Parquet.Compression,
		"s3_mirror":   cfg.Storage.S3.Enabled,
	}).Info("exporter initialized")

	return e, nil
}

// Export flattens the successful records of a run into one parquet file,
// writes it under the export directory and commits it to the run manifest.
// Returns the local file path, or "" when there was nothing to export.
func (e *Exporter) Export(ctx context.Context, records []models.ProcessedRecord, summary models.RunSummary) (string, error) {
	rows := flattenRecords(records, summary)
	log := e.log.WithFields(logger.Fields{
		"run_id":    summary.RunID,
		"rows":      len(rows),
		"operation": "export",
	})
	if len(rows) == 0 {
		log.Warn("no successful records to export")
		return "", nil
	}

	data, err := e.createParquetFile(rows)
	if err != nil {
		return "", err
	}

	key := exportKey(summary)
	localPath := filepath.Join(e.config.Export.Parquet.Dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}
	if err := os.WriteFile(localPath, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write parquet file: %w", err)
	}
	logger.IncrementExportWrite(int64(len(data)))
	log.WithFields(logger.Fields{
		"path":      localPath,
		"file_size": len(data),
	}).Info("parquet export written")

	df := metadata.DataFile{
		Path:        localPath,
		FileSize:    int64(len(data)),
		RecordCount: int64(len(rows)),
		Partition: map[string]any{
			"date":   summary.FinishedAt.UTC().Format("2006-01-02"),
			"run_id": summary.RunID,
		},
		Timestamp: summary.FinishedAt,
	}
	if err := e.metaGen.AddFile(df); err != nil {
		log.WithError(err).Warn("failed to update run manifest")
	}
	if err := e.metaGen.WriteCatalogEntry(filepath.Join(e.config.Export.Parquet.Dir, "catalog")); err != nil {
		log.WithError(err).Warn("failed to write catalog entry")
	}

	if e.s3Client != nil {
		meta := map[string]string{
			"compression":      e.config.Export.Parquet.Compression,
			"skinflow-version": e.config.Skinflow.Version,
		}
		s3Key := path.Join(e.config.Storage.S3.Prefix, key)
		if err := e.s3Client.upload(ctx, s3Key, data, "application/octet-stream", meta); err != nil {
			return localPath, err
		}
	}

	return localPath, nil
}

// MirrorCheckpoint uploads the final checkpoint JSON alongside the parquet
// export so the raw run output survives the host. No-op without S3.
func (e *Exporter) MirrorCheckpoint(ctx context.Context, checkpointPath string, summary models.RunSummary) error {
	if e.s3Client == nil {
		return nil
	}
	data, err := os.ReadFile(checkpointPath)
	if err != nil {
		return fmt.Errorf("failed to read checkpoint for upload: %w", err)
	}
	key := path.Join(e.config.Storage.S3.Prefix, fmt.Sprintf("date=%s/%s_%s.json",
		summary.FinishedAt.UTC().Format("2006-01-02"),
		e.config.Skinflow.Name,
		summary.RunID))
	meta := map[string]string{"skinflow-version": e.config.Skinflow.Version}
	return e.s3Client.upload(ctx, key, data, "application/json", meta)
}

func exportKey(summary models.RunSummary) string {
	return fmt.Sprintf("date=%s/skinflow_%s.parquet",
		summary.FinishedAt.UTC().Format("2006-01-02"),
		summary.RunID)
}

func flattenRecords(records []models.ProcessedRecord, summary models.RunSummary) []ParquetRecord {
	ts := summary.FinishedAt.UnixMilli()
	var rows []ParquetRecord
	for _, rec := range records {
		if rec.Market == nil {
			continue
		}
		base := ParquetRecord{
			RunID:     summary.RunID,
			ItemID:    rec.ID,
			Name:      rec.Name,
			Wear:      int32(rec.Wear),
			Stat:      int32(rec.Stat),
			ListingID: rec.Market.ListingID,
			Volume:    rec.Market.Volume,
			Timestamp: ts,
		}

		buy := base
		buy.Side = "buy"
		buy.Price = rec.Market.BuyPrice
		rows = append(rows, buy)

		sell := base
		sell.Side = "sell"
		sell.Price = rec.Market.SellPrice
		rows = append(rows, sell)

		for i, lvl := range rec.Market.BuyDepth {
			row := base
			row.Side = "buy"
			row.Level = int32(i + 1)
			row.Price = lvl.Price
			row.Count = lvl.Count
			rows = append(rows, row)
		}
		for i, lvl := range rec.Market.SellDepth {
			row := base
			row.Side = "sell"
			row.Level = int32(i + 1)
			row.Price = lvl.Price
			row.Count = lvl.Count
			rows = append(rows, row)
		}
	}
	return rows
}

func (e *Exporter) createParquetFile(rows []ParquetRecord) ([]byte, error) {
	fw := newMemoryFileWriter()

	pw, err := writer.NewParquetWriter(fw, new(ParquetRecord), 4)
	if err != nil {
		return nil, fmt.Errorf("failed to create parquet writer: %w", err)
	}

	switch e.config.Export.Parquet.Compression {
	case "snappy":
		pw.CompressionType = parquet.CompressionCodec_SNAPPY
	case "gzip":
		pw.CompressionType = parquet.CompressionCodec_GZIP
	case "lzo":
		pw.CompressionType = parquet.CompressionCodec_LZO
	default:
		pw.CompressionType = parquet.CompressionCodec_UNCOMPRESSED
	}

	for _, row := range rows {
		if err := pw.Write(row); err != nil {
			pw.WriteStop()
			return nil, fmt.Errorf("failed to write parquet record: %w", err)
		}
	}

	if err := pw.WriteStop(); err != nil {
		return nil, fmt.Errorf("failed to finalize parquet writing: %w", err)
	}

	return fw.Bytes(), nil
}
