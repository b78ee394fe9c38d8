package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AnalysisConfig carries every tunable of the analysis pipeline. It is
// threaded explicitly into each stage so the pipeline stays pure and
// testable; nothing in the analysis package reads ambient state.
type AnalysisConfig struct {
	// MEPRateFallback is the ARS→USD rate used when the market-rate lookup
	// is unreachable.
	MEPRateFallback float64 `yaml:"mep_rate_fallback"`

	// MicrozoneRadiusMeters bounds the geographic comparison set.
	MicrozoneRadiusMeters float64 `yaml:"microzone_radius_meters"`

	// GeoThresholdMeters is the full-credit distance for relisting matching.
	GeoThresholdMeters float64 `yaml:"geo_threshold_meters"`

	// ConfidenceThreshold is the minimum weighted-evidence confidence for a
	// historical candidate to be accepted as the same physical unit.
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`

	// OpportunityThreshold is the minimum score for IsOpportunity.
	OpportunityThreshold int `yaml:"opportunity_threshold"`

	// MarketReference maps a lowercase neighborhood name to its expected
	// price per m² in USD. MarketReferenceDefault covers unknown areas.
	MarketReference        map[string]float64 `yaml:"market_reference"`
	MarketReferenceDefault float64            `yaml:"market_reference_default"`

	// Urgency keyword tables. Weights override the default for individual
	// high-signal terms; anything matched without an entry contributes
	// KeywordWeightDefault. The summed signal is capped at KeywordScoreCap.
	PrimaryKeywords      []string       `yaml:"primary_keywords"`
	SecondaryKeywords    []string       `yaml:"secondary_keywords"`
	KeywordWeights       map[string]int `yaml:"keyword_weights"`
	KeywordWeightDefault int            `yaml:"keyword_weight_default"`
	KeywordScoreCap      int            `yaml:"keyword_score_cap"`
}

// DefaultAnalysis returns the built-in analysis configuration.
func DefaultAnalysis() AnalysisConfig {
	return AnalysisConfig{
		MEPRateFallback:       1150.0,
		MicrozoneRadiusMeters: 400,
		GeoThresholdMeters:    50,
		ConfidenceThreshold:   0.6,
		OpportunityThreshold:  30,

		MarketReference: map[string]float64{
			"palermo":           3200,
			"palermo soho":      3400,
			"palermo hollywood": 3000,
			"recoleta":          2900,
			"belgrano":          2800,
			"colegiales":        2600,
			"villa crespo":      2300,
			"almagro":           2000,
			"caballito":         2100,
		},
		MarketReferenceDefault: 2500,

		PrimaryKeywords: []string{
			"urgente", "urge vender", "urge",
			"sucesión", "sucesion",
			"retasado", "retasada",
			"rebajado", "rebajada",
			"oportunidad única", "oportunidad",
			"acepta permuta", "permuta",
			"escucha ofertas", "escucho ofertas",
			"a tratar", "muy negociable", "negociable",
			"liquidación", "liquido",
			"divorcio", "separación",
			"viaje", "viajo",
			"mudanza", "me mudo",
			"venta rápida", "venta rapida",
			"dueño directo", "dueño vende", "sin intermediarios",
			"bajo tasación", "bajo tasacion",
			"por debajo", "ganga", "regalar", "regalo",
		},
		SecondaryKeywords: []string{
			"excelente precio", "muy buen precio",
			"imperdible", "no te lo pierdas",
			"última oportunidad", "ultima oportunidad",
			"ocasión", "ocasion",
			"financiación", "financiacion", "cuotas",
		},
		KeywordWeights: map[string]int{
			"urgente":        5,
			"sucesión":       5,
			"sucesion":       5,
			"retasado":       4,
			"retasada":       4,
			"acepta permuta": 4,
			"divorcio":       4,
			"liquidación":    4,
			"bajo tasación":  4,
			"bajo tasacion":  4,
		},
		KeywordWeightDefault: 2,
		KeywordScoreCap:      15,
	}
}

// LoadAnalysis reads the YAML analysis config at path, layered over the
// defaults. A missing file is not an error: the defaults are returned so the
// pipeline always has a complete configuration.
func LoadAnalysis(path string) (AnalysisConfig, error) {
	cfg := DefaultAnalysis()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: read %q: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return DefaultAnalysis(), fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}
