package hashname

import (
	"fmt"
	"strings"
)

// wearNames maps the catalog wear tier to the exterior name embedded in the
// market hash name, with spaces already percent-encoded.
var wearNames = map[int]string{
	0: "Factory%20New",
	1: "Minimal%20Wear",
	2: "Field-Tested",
	3: "Well-Worn",
	4: "Battle-Scarred",
}

// statPrefix is the encoded "StatTrak™ " marker, trademark sign included.
const statPrefix = "StatTrak%E2%84%A2%20"

// Build renders the market hash name for a skin exactly as the listing URL
// path expects it: spaces percent-encoded, the weapon/skin delimiter as
// %20%7C%20 and the wear tier as a parenthesized suffix. Wear tiers outside
// the five known exteriors are rejected.
func Build(weapon, skin string, wear int, stat bool) (string, error) {
	wearName, ok := wearNames[wear]
	if !ok {
		return "", fmt.Errorf("wear tier %d out of range [0,4]", wear)
	}
	w := strings.ReplaceAll(weapon, " ", "%20")
	s := strings.ReplaceAll(skin, " ", "%20")
	if stat {
		w = statPrefix + w
	}
	return w + "%20%7C%20" + s + "%20%28" + wearName + "%29", nil
}
