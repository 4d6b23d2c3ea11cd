package models

import "time"

// CatalogItem represents a single skin entry from the input catalog.
// Name carries the composite "Weapon | Skin" form.
type CatalogItem struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
	Wear int    `json:"wear"`
	Stat int    `json:"stat"`
}

// DepthLevel represents one point on a cumulative order-depth curve.
type DepthLevel struct {
	Price float64 `json:"price"`
	Count int64   `json:"count"`
}

// OrderBookSnapshot represents the market state captured for one item.
// Depth slices keep the order the market reported them in; Volume is nil
// when the overview endpoint gave nothing usable.
type OrderBookSnapshot struct {
	ListingID int64        `json:"listing_id"`
	BuyPrice  float64      `json:"buy_price"`
	SellPrice float64      `json:"sell_price"`
	BuyDepth  []DepthLevel `json:"buy_depth"`
	SellDepth []DepthLevel `json:"sell_depth"`
	Volume    *int64       `json:"volume,omitempty"`
}

// ProcessedRecord represents the outcome for one catalog item: the item's own
// fields plus either market data or the error that stopped it.
type ProcessedRecord struct {
	CatalogItem
	Market *OrderBookSnapshot `json:"market_data,omitempty"`
	Error  string             `json:"error,omitempty"`
}

// RunSummary aggregates the outcome counts of a whole batch run.
type RunSummary struct {
	RunID      string    `json:"run_id"`
	Total      int       `json:"total"`
	Succeeded  int       `json:"succeeded"`
	Failed     int       `json:"failed"`
	Skipped    int       `json:"skipped"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	ElapsedMs  int64     `json:"elapsed_ms"`
}
