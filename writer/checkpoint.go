package writer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"skinflow/logger"
	"skinflow/models"
)

// Checkpoint persists the accumulated run output as one JSON array. Every
// write replaces the whole file through a temp file and rename, so an
// interrupt always leaves the last complete snapshot on disk, never a
// half-written one.
type Checkpoint struct {
	path string
	log  *logger.Entry
}

// NewCheckpoint returns a checkpoint writer targeting path.
func NewCheckpoint(path string) *Checkpoint {
	return &Checkpoint{
		path: path,
		log:  logger.GetLogger().WithComponent("checkpoint"),
	}
}

// Path returns the checkpoint file location.
func (c *Checkpoint) Path() string { return c.path }

// Init resets the checkpoint to an empty array before the first item runs.
func (c *Checkpoint) Init() error {
	if err := c.Write(nil); err != nil {
		return fmt.Errorf("failed to initialize checkpoint: %w", err)
	}
	c.log.WithFields(logger.Fields{"path": c.path}).Info("checkpoint initialized")
	return nil
}

// Write replaces the checkpoint contents with records. Item names carry
// literal "|" and trademark characters, so HTML escaping stays off to keep
// the file grep-able.
func (c *Checkpoint) Write(records []models.ProcessedRecord) error {
	if records == nil {
		records = []models.ProcessedRecord{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("failed to encode checkpoint records: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(c.path), filepath.Base(c.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create checkpoint temp file: %w", err)
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write checkpoint temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close checkpoint temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace checkpoint file: %w", err)
	}

	logger.IncrementCheckpointWrite(int64(buf.Len()))
	return nil
}
