package analysis

import (
	"math"
	"strings"

	"propfinder/config"
	"propfinder/models"
	"propfinder/utils"
)

// Evidence-group weights for relisting confidence. A group's maximum only
// enters the denominator when the required fields are present on both sides,
// so missing evidence shrinks the denominator instead of the score.
const (
	addressWeightFull     = 40
	addressWeightPartial  = 30
	geoWeightFull         = 25
	geoWeightPartial      = 15
	featuresWeightFull    = 20
	featuresWeightPartial = 10
	descWeightFull        = 15
	descWeightPartial     = 8

	addressFuzzyThreshold = 0.8
	descSimilarityFull    = 0.7
	descSimilarityPartial = 0.5
	areaTolerance         = 0.05
)

// Detector decides whether a new listing is a previously seen physical unit
// reappearing under a new identifier.
type Detector struct {
	cfg    config.AnalysisConfig
	logger *utils.Logger
}

// NewDetector creates a Detector with the given analysis configuration.
func NewDetector(cfg config.AnalysisConfig, logger *utils.Logger) *Detector {
	return &Detector{cfg: cfg, logger: logger}
}

// Detect scans the historical pool in its given order and returns the first
// candidate whose weighted confidence clears the configured threshold.
// This is a first-match policy, not best-match: later candidates are not
// examined for a better fit. The returned delta is the signed percentage
// change from the matched original's price, nil when either price is
// missing.
func (d *Detector) Detect(newListing models.Listing, historical []models.Listing) (bool, *models.Listing, *float64) {
	for i := range historical {
		old := &historical[i]

		if newListing.ID == old.ID {
			continue
		}
		// Same source and URL means the same still-live publication, not a
		// unit reappearing under a new one.
		if newListing.Source == old.Source && newListing.URL == old.URL {
			continue
		}

		confidence := d.confidence(&newListing, old)
		if confidence < d.cfg.ConfidenceThreshold {
			continue
		}

		var deltaPct *float64
		if newListing.PriceUSD > 0 && old.PriceUSD > 0 {
			delta := (newListing.PriceUSD - old.PriceUSD) / old.PriceUSD * 100
			deltaPct = &delta
		}
		return true, old, deltaPct
	}
	return false, nil, nil
}

// Annotate marks relistings across a batch, producing new Listing values.
// Non-matching listings come back active with all relisting fields cleared.
func (d *Detector) Annotate(listings []models.Listing, historical []models.Listing) []models.Listing {
	out := make([]models.Listing, len(listings))
	for i, l := range listings {
		matched, original, deltaPct := d.Detect(l, historical)
		if matched {
			l.Status = models.StatusRelisted
			l.OriginalID = original.ID
			l.PriceDeltaPct = deltaPct
			if deltaPct != nil {
				d.logger.Info("[relisting] %s matches %s (Δ %.1f%%)", l.ID, original.ID, *deltaPct)
			} else {
				d.logger.Info("[relisting] %s matches %s (no price delta)", l.ID, original.ID)
			}
		} else {
			l.Status = models.StatusActive
			l.OriginalID = ""
			l.PriceDeltaPct = nil
		}
		out[i] = l
	}
	return out
}

// confidence accumulates weighted evidence across the four groups and
// normalizes by the applicable maximum.
func (d *Detector) confidence(newListing, old *models.Listing) float64 {
	score, maxScore := 0, 0

	// 1. Normalized address.
	if newListing.AddressNormalized != "" && old.AddressNormalized != "" {
		maxScore += addressWeightFull
		if newListing.AddressNormalized == old.AddressNormalized {
			score += addressWeightFull
		} else if JaccardSimilarity(newListing.AddressNormalized, old.AddressNormalized) > addressFuzzyThreshold {
			score += addressWeightPartial
		}
	}

	// 2. Geographic proximity.
	if newListing.HasCoordinates() && old.HasCoordinates() {
		maxScore += geoWeightFull
		distance := Haversine(*newListing.Lat, *newListing.Lng, *old.Lat, *old.Lng)
		if distance < d.cfg.GeoThresholdMeters {
			score += geoWeightFull
		} else if distance < d.cfg.GeoThresholdMeters*2 {
			score += geoWeightPartial
		}
	}

	// 3. Structural features. Only feature pairs present on both sides are
	// comparable; with none comparable the whole group is skipped.
	comparable, matched := 0, 0
	if newListing.AreaTotal > 0 && old.AreaTotal > 0 {
		comparable++
		if math.Abs(newListing.AreaTotal-old.AreaTotal)/old.AreaTotal < areaTolerance {
			matched++
		}
	}
	if newListing.Rooms > 0 && old.Rooms > 0 {
		comparable++
		if newListing.Rooms == old.Rooms {
			matched++
		}
	}
	if newListing.Floor != nil && old.Floor != nil {
		comparable++
		if *newListing.Floor == *old.Floor {
			matched++
		}
	}
	if newListing.Neighborhood != "" && old.Neighborhood != "" {
		comparable++
		if strings.EqualFold(newListing.Neighborhood, old.Neighborhood) {
			matched++
		}
	}
	if comparable > 0 {
		maxScore += featuresWeightFull
		if matched >= 3 {
			score += featuresWeightFull
		} else if matched >= 2 {
			score += featuresWeightPartial
		}
	}

	// 4. Description similarity.
	if newListing.Description != "" && old.Description != "" {
		maxScore += descWeightFull
		similarity := JaccardSimilarity(newListing.Description, old.Description)
		if similarity > descSimilarityFull {
			score += descWeightFull
		} else if similarity > descSimilarityPartial {
			score += descWeightPartial
		}
	}

	if maxScore == 0 {
		return 0
	}
	return float64(score) / float64(maxScore)
}
