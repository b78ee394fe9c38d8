package analysis

import (
	"fmt"
	"strings"
	"time"

	"propfinder/config"
	"propfinder/models"
	"propfinder/utils"
)

// Scorer combines market discount, microzone deviation, urgency keywords,
// listing age and relisting discount into a single bounded score with a
// human-readable justification per contribution. Reasons are appended in
// contribution order; that order is part of the explainability contract.
type Scorer struct {
	cfg    config.AnalysisConfig
	logger *utils.Logger
	now    func() time.Time
}

// NewScorer creates a Scorer with the given analysis configuration.
func NewScorer(cfg config.AnalysisConfig, logger *utils.Logger) *Scorer {
	return &Scorer{cfg: cfg, logger: logger, now: time.Now}
}

// Score returns a new Listing with the scoring annotations populated.
// Missing inputs contribute their floor of 0; this stage never fails.
func (s *Scorer) Score(l models.Listing) models.Listing {
	score := 0
	var reasons []string

	// 1. Market discount against the neighborhood reference price per m².
	reference := s.referencePrice(l.Neighborhood)
	if reference > 0 && l.PricePerArea > 0 {
		discount := (reference - l.PricePerArea) / reference * 100
		if points := discountPoints(discount); points > 0 {
			score += points
			reasons = append(reasons, fmt.Sprintf(
				"Priced %.0f%% below market reference ($%.0f vs $%.0f per m²)",
				discount, l.PricePerArea, reference))
		}
	}

	// 2. Historical deviation within the microzone.
	if points := zscorePoints(l.Zscore); points > 0 {
		score += points
		reasons = append(reasons, fmt.Sprintf("Price %.2f std devs below microzone mean", -l.Zscore))
	}

	// 3. Urgency keyword signal.
	keywords := s.DetectKeywords(l.Title + " " + l.Description)
	if kwScore := s.keywordScore(keywords); kwScore > 0 {
		score += kwScore
		reasons = append(reasons, fmt.Sprintf("Urgency keywords: %s", strings.Join(keywords, ", ")))
	}

	// 4. Listing age.
	daysOnline := s.daysOnline(l.FirstSeen)
	if points := agePoints(daysOnline); points > 0 {
		score += points
		reasons = append(reasons, fmt.Sprintf("Online for %d days", daysOnline))
	}

	// 5. Relisting discount.
	if l.Status == models.StatusRelisted && l.PriceDeltaPct != nil {
		if points := relistingPoints(*l.PriceDeltaPct); points > 0 {
			score += points
			reasons = append(reasons, fmt.Sprintf("Relisted %.1f%% below previous price", -*l.PriceDeltaPct))
		}
	}

	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}

	l.OpportunityScore = score
	l.OpportunityReasons = reasons
	l.KeywordsDetected = keywords
	l.DaysOnline = daysOnline
	l.IsOpportunity = score >= s.cfg.OpportunityThreshold

	return l
}

// referencePrice looks up the expected price per m² for a neighborhood,
// using the default entry when the area is unknown.
func (s *Scorer) referencePrice(neighborhood string) float64 {
	if ref, ok := s.cfg.MarketReference[strings.ToLower(strings.TrimSpace(neighborhood))]; ok {
		return ref
	}
	return s.cfg.MarketReferenceDefault
}

func discountPoints(discountPct float64) int {
	switch {
	case discountPct >= 30:
		return 50
	case discountPct >= 20:
		return 40
	case discountPct >= 15:
		return 30
	case discountPct >= 10:
		return 20
	case discountPct >= 5:
		return 10
	}
	return 0
}

func zscorePoints(z float64) int {
	switch {
	case z < -1.5:
		return 15
	case z < -1.0:
		return 10
	case z < -0.5:
		return 5
	}
	return 0
}

func agePoints(days int) int {
	switch {
	case days > 90:
		return 10
	case days > 60:
		return 7
	case days > 30:
		return 4
	}
	return 0
}

func relistingPoints(deltaPct float64) int {
	switch {
	case deltaPct < -10:
		return 10
	case deltaPct < -5:
		return 5
	}
	return 0
}

// DetectKeywords scans text for urgency keywords, primary list first, with
// set semantics: each matched keyword appears once.
func (s *Scorer) DetectKeywords(text string) []string {
	if text == "" {
		return nil
	}
	lower := strings.ToLower(text)

	var found []string
	seen := make(map[string]struct{})
	for _, kw := range s.cfg.PrimaryKeywords {
		if strings.Contains(lower, kw) {
			if _, dup := seen[kw]; !dup {
				seen[kw] = struct{}{}
				found = append(found, kw)
			}
		}
	}
	for _, kw := range s.cfg.SecondaryKeywords {
		if strings.Contains(lower, kw) {
			if _, dup := seen[kw]; !dup {
				seen[kw] = struct{}{}
				found = append(found, kw)
			}
		}
	}
	return found
}

// keywordScore sums the matched keyword weights, capped at the configured
// maximum.
func (s *Scorer) keywordScore(keywords []string) int {
	score := 0
	for _, kw := range keywords {
		if w, ok := s.cfg.KeywordWeights[kw]; ok {
			score += w
		} else {
			score += s.cfg.KeywordWeightDefault
		}
	}
	if score > s.cfg.KeywordScoreCap {
		score = s.cfg.KeywordScoreCap
	}
	return score
}

func (s *Scorer) daysOnline(firstSeen time.Time) int {
	if firstSeen.IsZero() {
		return 0
	}
	days := int(s.now().Sub(firstSeen).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}
