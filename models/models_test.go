package models

import (
	"encoding/json"
	"testing"
)

func TestProcessedRecordJSONSuccess(t *testing.T) {
	vol := int64(1234)
	rec := ProcessedRecord{
		CatalogItem: CatalogItem{ID: "ak47-redline", Name: "AK-47 | Redline", Wear: 2, Stat: 1},
		Market: &OrderBookSnapshot{
			ListingID: 12345,
			BuyPrice:  10.5,
			SellPrice: 11.25,
			BuyDepth:  []DepthLevel{{Price: 10.5, Count: 3}},
			SellDepth: []DepthLevel{},
			Volume:    &vol,
		},
	}
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	// Embedded catalog fields must sit at the top level of the record.
	if raw["name"] != "AK-47 | Redline" {
		t.Errorf("unexpected name: %v", raw["name"])
	}
	if _, ok := raw["market_data"]; !ok {
		t.Error("expected market_data on success record")
	}
	if _, ok := raw["error"]; ok {
		t.Error("unexpected error field on success record")
	}

	market, ok := raw["market_data"].(map[string]interface{})
	if !ok {
		t.Fatalf("market_data is not an object: %T", raw["market_data"])
	}
	if market["buy_price"] != 10.5 {
		t.Errorf("unexpected buy_price: %v", market["buy_price"])
	}
	if market["volume"] != float64(1234) {
		t.Errorf("unexpected volume: %v", market["volume"])
	}
}

func TestProcessedRecordJSONFailure(t *testing.T) {
	rec := ProcessedRecord{
		CatalogItem: CatalogItem{Name: "AK-47 | Redline", Wear: 2},
		Error:       "listing page: marker not found",
	}
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := raw["market_data"]; ok {
		t.Error("unexpected market_data on failure record")
	}
	if raw["error"] != "listing page: marker not found" {
		t.Errorf("unexpected error field: %v", raw["error"])
	}
}

func TestOrderBookSnapshotVolumeOmitted(t *testing.T) {
	snap := OrderBookSnapshot{ListingID: 1, BuyPrice: 1.0, SellPrice: 2.0}
	data, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := raw["volume"]; ok {
		t.Error("expected volume to be omitted when nil")
	}
}
