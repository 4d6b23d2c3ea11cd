package steam

import (
	"context"
	"fmt"
	"strconv"

	ratemetrics "skinflow/internal/metrics/rate"
	"skinflow/logger"
)

// ResolveListingID fetches the listing page for hashname and extracts the
// numeric item_nameid the histogram endpoint is keyed by. A missing or
// unusable marker fails the item: a defaulted id would poison every
// downstream fetch for it.
func (c *Client) ResolveListingID(ctx context.Context, hashname string) (int64, error) {
	url := fmt.Sprintf("%s/%s", c.config.Source.Steam.ListingURL, hashname)

	body, err := c.get(ctx, endpointListing, hashname, url)
	if err != nil {
		return 0, err
	}
	logger.IncrementListingRead(len(body))

	text := string(body)
	token, ok := extractMarked(text, listingMarker, " ")
	if !ok {
		// A 200 interstitial looks exactly like a format drift here.
		ratemetrics.ReportLimitFromMessage(c.log, endpointListing, hashname, text)
		return 0, &ParseError{Endpoint: endpointListing, Marker: listingMarker}
	}

	id, err := strconv.ParseInt(token, 10, 64)
	if err != nil {
		return 0, &ParseError{Endpoint: endpointListing, Marker: listingMarker}
	}
	return id, nil
}
