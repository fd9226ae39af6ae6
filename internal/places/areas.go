package places

import (
	"strings"

	a "github.com/petar-dambovaliev/aho-corasick"
)

// SingaporeAreas is the fixed district table used to normalize addresses into
// a known area name. Earlier entries win when an address mentions several.
var SingaporeAreas = []string{
	"Orchard", "Bugis", "Clarke Quay", "Chinatown", "Tanjong Pagar",
	"Marina Bay", "Raffles Place", "Newton", "Tiong Bahru", "Katong",
	"Tanjong Katong", "Bedok", "Tampines", "Pasir Ris", "Hougang",
	"Sengkang", "Punggol", "Jurong", "Clementi", "Buona Vista",
	"Holland Village", "Dempsey", "Novena", "Bishan", "Ang Mo Kio",
	"Yishun", "Woodlands", "Sembawang", "Choa Chu Kang", "Bukit Timah",
	"Changi", "Tanah Merah", "Paya Lebar", "Geylang", "Lavender",
	"Toa Payoh", "Little India", "Rochor", "Kallang", "Marine Parade",
	"Siglap", "East Coast", "Dhoby Ghaut", "Harbourfront", "Sentosa",
	"Robertson Quay", "Boat Quay", "Outram", "Queenstown", "Redhill",
	"River Valley", "Joo Chiat", "Serangoon", "Braddell",
}

var (
	areaBuilder = a.NewAhoCorasickBuilder(a.Opts{
		AsciiCaseInsensitive: true,
		MatchOnlyWholeWords:  false,
	})
	areaMatcher = areaBuilder.Build(SingaporeAreas)
)

// ExtractArea returns the first known Singapore district mentioned in an
// address string, or nil when none matches.
func ExtractArea(address string) *string {
	if address == "" {
		return nil
	}
	best := -1
	for _, m := range areaMatcher.FindAll(strings.ToLower(address)) {
		if best == -1 || m.Pattern() < best {
			best = m.Pattern()
		}
	}
	if best == -1 {
		return nil
	}
	area := SingaporeAreas[best]
	return &area
}

// addressComponent mirrors the Places v1 addressComponents entries.
type addressComponent struct {
	LongText  string   `json:"longText"`
	ShortText string   `json:"shortText"`
	Types     []string `json:"types"`
}

// areaFromComponents looks for a known area inside sublocality/neighborhood
// components, which are more reliable than the formatted address.
func areaFromComponents(components []addressComponent) *string {
	for _, c := range components {
		relevant := false
		for _, t := range c.Types {
			if t == "sublocality_level_1" || t == "neighborhood" {
				relevant = true
				break
			}
		}
		if !relevant {
			continue
		}
		text := c.LongText
		if text == "" {
			text = c.ShortText
		}
		if area := ExtractArea(text); area != nil {
			return area
		}
	}
	return nil
}
