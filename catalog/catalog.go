// Package catalog loads the item catalog that drives a scrape run. A
// catalog that cannot be read or decoded aborts the run before any
// network activity, so errors here are returned rather than degraded.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"

	"skinflow/logger"
	"skinflow/models"
)

// Load reads and decodes the catalog JSON at path. The file must hold a
// top-level array of item objects; anything else is a fatal input error.
func Load(path string) ([]models.CatalogItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var items []models.CatalogItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file: %w", err)
	}

	log := logger.GetLogger().WithComponent("catalog")
	log.WithFields(logger.Fields{
		"path":  path,
		"items": len(items),
	}).Info("catalog loaded")
	if len(items) == 0 {
		log.Warn("catalog is empty, run will produce no records")
	}

	return items, nil
}
