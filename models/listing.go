package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Status is the lifecycle state of a listing.
type Status string

const (
	StatusActive   Status = "active"
	StatusRelisted Status = "relisted"
	StatusDelisted Status = "delisted"
)

// RawListing holds unprocessed scraped data straight from a portal adapter.
// Free-text fields (rooms, areas, floor) are parsed by the normalizer; the
// price is numeric already because the adapters strip the currency marker
// while extracting it.
type RawListing struct {
	Source      string
	PortalID    string
	URL         string
	Title       string
	Description string

	Price    float64
	Currency string

	RoomsText       string
	AreaTotalText   string
	AreaCoveredText string
	FloorText       string

	Address      string
	Neighborhood string
	Lat          *float64
	Lng          *float64

	ScrapedAt time.Time
}

// Listing is the canonical record flowing through the analysis pipeline.
// Each stage returns a new value carrying forward everything set before it;
// no stage mutates a listing in place.
type Listing struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	URL    string `json:"url"`

	PriceOriginal float64 `json:"price_original"`
	Currency      string  `json:"currency"`
	PriceUSD      float64 `json:"price_usd"`
	PricePerArea  float64 `json:"price_per_area"`

	AreaTotal   float64 `json:"area_total"`
	AreaCovered float64 `json:"area_covered"`
	Rooms       int     `json:"rooms"`
	Floor       *int    `json:"floor,omitempty"`

	AddressRaw        string   `json:"address_raw"`
	AddressNormalized string   `json:"address_normalized"`
	Neighborhood      string   `json:"neighborhood"`
	Lat               *float64 `json:"lat,omitempty"`
	Lng               *float64 `json:"lng,omitempty"`

	Title       string `json:"title"`
	Description string `json:"description"`

	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
	Status    Status    `json:"status"`

	OriginalID    string   `json:"original_id,omitempty"`
	PriceDeltaPct *float64 `json:"price_delta_pct,omitempty"`

	MicrozoneMean        float64 `json:"microzone_mean"`
	MicrozoneStd         float64 `json:"microzone_std"`
	MicrozoneMedian      float64 `json:"microzone_median"`
	MicrozoneCount       int     `json:"microzone_count"`
	MicrozoneMeanPerArea float64 `json:"microzone_mean_per_area"`
	Zscore               float64 `json:"zscore"`
	ZscorePerArea        float64 `json:"zscore_per_area"`

	OpportunityScore   int      `json:"opportunity_score"`
	OpportunityReasons []string `json:"opportunity_reasons"`
	KeywordsDetected   []string `json:"keywords_detected"`
	DaysOnline         int      `json:"days_online"`
	IsOpportunity      bool     `json:"is_opportunity"`
}

// ListingID derives the stable identifier for a listing from its source
// portal and the portal's own id for it.
func ListingID(source, portalID string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s_%s", source, portalID)))
	return hex.EncodeToString(sum[:])[:16]
}

// HasCoordinates reports whether both latitude and longitude are present.
func (l *Listing) HasCoordinates() bool {
	return l.Lat != nil && l.Lng != nil
}
