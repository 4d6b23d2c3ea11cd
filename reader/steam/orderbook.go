package steam

import (
	"context"
	"fmt"

	ratemetrics "skinflow/internal/metrics/rate"
	"skinflow/logger"
	"skinflow/models"
)

// FetchOrderBook pulls the order histogram for listingID plus the traded
// volume for hashname. The buy and sell prices are mandatory and fail the
// item when absent; the depth graphs degrade per side to empty slices and the
// volume degrades to nil, neither ever aborts the item.
func (c *Client) FetchOrderBook(ctx context.Context, listingID int64, hashname string) (models.OrderBookSnapshot, error) {
	steamCfg := c.config.Source.Steam

	url := fmt.Sprintf("%s?country=%s&currency=%d&language=%s&two_factor=0&item_nameid=%d",
		steamCfg.HistogramURL, steamCfg.Country, steamCfg.Currency, steamCfg.Language, listingID)

	body, err := c.get(ctx, endpointHistogram, hashname, url)
	if err != nil {
		return models.OrderBookSnapshot{}, err
	}
	logger.IncrementHistogramRead(len(body))

	text := string(body)
	buyPrice, ok := parseCents(text, buyPriceMarker)
	if !ok {
		ratemetrics.ReportLimitFromMessage(c.log, endpointHistogram, hashname, text)
		return models.OrderBookSnapshot{}, &ParseError{Endpoint: endpointHistogram, Marker: buyPriceMarker}
	}
	sellPrice, ok := parseCents(text, sellPriceMarker)
	if !ok {
		return models.OrderBookSnapshot{}, &ParseError{Endpoint: endpointHistogram, Marker: sellPriceMarker}
	}

	snapshot := models.OrderBookSnapshot{
		ListingID: listingID,
		BuyPrice:  buyPrice,
		SellPrice: sellPrice,
		BuyDepth:  c.parseDepth(text, buyGraphMarker, hashname),
		SellDepth: c.parseDepth(text, sellGraphMarker, hashname),
	}
	snapshot.Volume = c.fetchVolume(ctx, hashname)

	return snapshot, nil
}

// parseDepth extracts one side's order graph, degrading to an empty slice
// when the text is unreadable.
func (c *Client) parseDepth(text, label, hashname string) []models.DepthLevel {
	levels, err := extractDepth(text, label)
	if err != nil {
		c.log.WithComponent("steam_client").WithFields(logger.Fields{
			"hashname": hashname,
			"label":    label,
		}).WithError(err).Warn("depth graph unreadable, continuing without it")
		return []models.DepthLevel{}
	}
	return levels
}

// fetchVolume asks the price overview for the 24h sales count. Nil means
// unknown; no failure here is allowed to surface.
func (c *Client) fetchVolume(ctx context.Context, hashname string) *int64 {
	steamCfg := c.config.Source.Steam
	url := fmt.Sprintf("%s?appid=%d&currency=%d&market_hash_name=%s",
		steamCfg.OverviewURL, steamCfg.AppID, steamCfg.Currency, hashname)

	log := c.log.WithComponent("steam_client")

	body, err := c.get(ctx, endpointOverview, hashname, url)
	if err != nil {
		log.WithFields(logger.Fields{"hashname": hashname}).WithError(err).Warn("volume fetch failed, recording as absent")
		return nil
	}
	logger.IncrementOverviewRead(len(body))

	vol, ok := parseVolume(string(body))
	if !ok {
		log.WithFields(logger.Fields{"hashname": hashname}).Warn("volume unreadable, recording as absent")
		return nil
	}
	return &vol
}
