package analysis

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"propfinder/models"
	"propfinder/utils"
)

// uncoveredAreaRatio estimates total area from covered area when the portal
// only publishes the latter (balconies, patios, amenities share).
const uncoveredAreaRatio = 1.15

var (
	// roomsRegexp captures an explicit numeral next to a room-indicating word.
	roomsRegexp = regexp.MustCompile(`(\d+)\s*(?:amb|ambiente|dormitorio|habitacion)`)
	// areaRegexp captures the numeral immediately preceding an area unit.
	areaRegexp = regexp.MustCompile(`([\d.,]+)\s*(?:m²|m2|mts|metros)`)
	// numberRegexp captures any locale-formatted numeral.
	numberRegexp = regexp.MustCompile(`[\d.,]+`)
	// intRegexp captures a bare integer (floor numbers).
	intRegexp = regexp.MustCompile(`\d+`)

	nonWordRegexp    = regexp.MustCompile(`[^\w\s]`)
	whitespaceRegexp = regexp.MustCompile(`\s+`)

	// deaccenter strips combining diacritical marks after NFD decomposition.
	deaccenter = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// spelledRooms maps spelled-out Spanish numerals to room counts. Order
// matters: "un " must not shadow "uno"/"una" and vice versa, so this is a
// slice, not a map.
var spelledRooms = []struct {
	word string
	n    int
}{
	{"un ", 1}, {"uno", 1}, {"una", 1},
	{"dos", 2},
	{"tres", 3},
	{"cuatro", 4},
	{"cinco", 5},
	{"seis", 6},
	{"siete", 7},
}

// addressReplacements expands the usual Buenos Aires address abbreviations.
// Applied in order.
var addressReplacements = []struct {
	old, new string
}{
	{"av.", "avenida"},
	{"av ", "avenida "},
	{"calle ", ""},
	{"esq.", "esquina"},
	{"dto.", "departamento"},
	{"dpto.", "departamento"},
	{"depto.", "departamento"},
}

// Normalizer converts RawListings into canonical Listings. It never fails:
// every unparseable input degrades to a zero value so one malformed record
// cannot abort a batch.
type Normalizer struct {
	logger *utils.Logger
}

// NewNormalizer creates a Normalizer with the given logger.
func NewNormalizer(logger *utils.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

// Normalize builds the canonical Listing for a raw record. mepRate is the
// ARS-per-USD conversion rate, already resolved by the caller (including any
// fallback on lookup failure).
func (n *Normalizer) Normalize(raw models.RawListing, mepRate float64) models.Listing {
	portalID := raw.PortalID
	if portalID == "" {
		portalID = raw.URL
	}

	areaTotal := ParseArea(raw.AreaTotalText)
	areaCovered := ParseArea(raw.AreaCoveredText)
	if areaTotal == 0 && areaCovered > 0 {
		areaTotal = areaCovered * uncoveredAreaRatio
	}

	priceUSD := ConvertToUSD(raw.Price, raw.Currency, mepRate)
	if priceUSD == 0 && raw.Price > 0 {
		n.logger.Debug("[normalizer] Price dropped to 0 for %s (currency=%s rate=%.2f)",
			raw.URL, raw.Currency, mepRate)
	}

	pricePerArea := 0.0
	if priceUSD > 0 && areaTotal > 0 {
		pricePerArea = priceUSD / areaTotal
	}

	return models.Listing{
		ID:     models.ListingID(raw.Source, portalID),
		Source: raw.Source,
		URL:    raw.URL,

		PriceOriginal: raw.Price,
		Currency:      raw.Currency,
		PriceUSD:      priceUSD,
		PricePerArea:  pricePerArea,

		AreaTotal:   areaTotal,
		AreaCovered: areaCovered,
		Rooms:       ParseRooms(raw.RoomsText),
		Floor:       parseFloor(raw.FloorText),

		AddressRaw:        raw.Address,
		AddressNormalized: NormalizeAddress(raw.Address),
		Neighborhood:      raw.Neighborhood,
		Lat:               raw.Lat,
		Lng:               raw.Lng,

		Title:       raw.Title,
		Description: raw.Description,

		FirstSeen: raw.ScrapedAt,
		LastSeen:  raw.ScrapedAt,
		Status:    models.StatusActive,
	}
}

// ConvertToUSD expresses a price in USD. Local-currency prices are divided
// by the MEP rate; a missing or degenerate rate yields 0, never an error.
func ConvertToUSD(price float64, currency string, mepRate float64) float64 {
	if price <= 0 {
		return 0
	}
	if strings.EqualFold(currency, "USD") {
		return price
	}
	if mepRate > 0 {
		return price / mepRate
	}
	return 0
}

// ParseRooms extracts a room count from free text. An explicit numeral next
// to a room word wins, then the "mono" cue, then spelled-out numerals.
// Anything else is 0.
func ParseRooms(text string) int {
	if text == "" {
		return 0
	}
	text = strings.ToLower(strings.TrimSpace(text))

	if m := roomsRegexp.FindStringSubmatch(text); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			return v
		}
	}

	if strings.Contains(text, "mono") {
		return 1
	}

	for _, sr := range spelledRooms {
		if strings.Contains(text, sr.word) {
			return sr.n
		}
	}
	return 0
}

// ParseArea extracts square meters from free text. A numeral next to an area
// unit is preferred; a bare numeral is accepted as fallback. Unparseable
// text yields 0.
func ParseArea(text string) float64 {
	if text == "" {
		return 0.0
	}
	text = strings.ToLower(text)

	if m := areaRegexp.FindStringSubmatch(text); m != nil {
		if v, ok := parseLocaleFloat(m[1]); ok {
			return v
		}
	}

	if m := numberRegexp.FindString(text); m != "" {
		if v, ok := parseLocaleFloat(m); ok {
			return v
		}
	}
	return 0.0
}

// parseLocaleFloat parses a number written with period as thousands
// separator and comma as decimal separator ("1.234,5" → 1234.5).
func parseLocaleFloat(s string) (float64, bool) {
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// NormalizeAddress canonicalizes an address for matching: lowercase, no
// diacritics, abbreviations expanded, punctuation collapsed to spaces. The
// result is a stable fixed point: normalizing it again changes nothing.
func NormalizeAddress(address string) string {
	if address == "" {
		return ""
	}

	s := strings.ToLower(strings.TrimSpace(address))

	if stripped, _, err := transform.String(deaccenter, s); err == nil {
		s = stripped
	}

	for _, r := range addressReplacements {
		s = strings.ReplaceAll(s, r.old, r.new)
	}

	s = nonWordRegexp.ReplaceAllString(s, " ")
	s = whitespaceRegexp.ReplaceAllString(s, " ")

	return strings.TrimSpace(s)
}

func parseFloor(text string) *int {
	if text == "" {
		return nil
	}
	m := intRegexp.FindString(text)
	if m == "" {
		return nil
	}
	v, err := strconv.Atoi(m)
	if err != nil {
		return nil
	}
	return &v
}
