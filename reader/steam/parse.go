package steam

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"skinflow/models"
)

// Response bodies are treated as opaque text: markers locate the values and
// everything around them may drift without notice.
const (
	listingMarker   = "Market_LoadOrderSpread( "
	buyPriceMarker  = `"highest_buy_order":"`
	sellPriceMarker = `"lowest_sell_order":"`
	buyGraphMarker  = `"buy_order_graph":`
	sellGraphMarker = `"sell_order_graph":`
	volumeMarker    = `volume":"`
)

// extractMarked returns the text between the first occurrence of marker and
// the next terminator.
func extractMarked(text, marker, terminator string) (string, bool) {
	idx := strings.Index(text, marker)
	if idx == -1 {
		return "", false
	}
	rest := text[idx+len(marker):]
	end := strings.Index(rest, terminator)
	if end == -1 {
		return "", false
	}
	return rest[:end], true
}

// parseCents reads a scaled-integer price field and converts cents to a
// decimal price.
func parseCents(text, marker string) (float64, bool) {
	token, ok := extractMarked(text, marker, `"`)
	if !ok {
		return 0, false
	}
	cents, err := strconv.ParseInt(token, 10, 64)
	if err != nil {
		return 0, false
	}
	return float64(cents) / 100, true
}

// parseVolume reads the 24h sales count from a price overview body. The
// value ships with thousands separators.
func parseVolume(text string) (int64, bool) {
	token, ok := extractMarked(text, volumeMarker, `"`)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(strings.ReplaceAll(token, ",", ""), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// extractDepth pulls one order graph out of a histogram body. The graph is a
// JSON list of rows shaped [price, cumulativeCount, description]; rows keep
// the order the market sent them in. The scan runs from the label to the
// closing "]]" of the outer list.
func extractDepth(text, label string) ([]models.DepthLevel, error) {
	idx := strings.Index(text, label)
	if idx == -1 {
		return nil, fmt.Errorf("label %q not found", label)
	}
	rest := text[idx+len(label):]
	end := strings.Index(rest, "]]")
	if end == -1 {
		return nil, fmt.Errorf("unterminated graph after %q", label)
	}

	var rows [][]interface{}
	if err := json.Unmarshal([]byte(rest[:end+2]), &rows); err != nil {
		return nil, fmt.Errorf("parse graph: %w", err)
	}

	levels := make([]models.DepthLevel, 0, len(rows))
	for i, row := range rows {
		if len(row) < 2 {
			return nil, fmt.Errorf("graph row %d has %d elements", i, len(row))
		}
		price, ok := row[0].(float64)
		if !ok {
			return nil, fmt.Errorf("graph row %d has non-numeric price", i)
		}
		count, ok := row[1].(float64)
		if !ok {
			return nil, fmt.Errorf("graph row %d has non-numeric count", i)
		}
		levels = append(levels, models.DepthLevel{Price: price, Count: int64(count)})
	}
	return levels, nil
}
