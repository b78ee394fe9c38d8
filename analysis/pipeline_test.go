package analysis

import (
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"propfinder/config"
	"propfinder/models"
)

func TestPipelineEmptyBatch(t *testing.T) {
	p := NewPipeline(config.DefaultAnalysis(), 4, newTestLogger())
	if out := p.Run(nil, nil, 1150); out != nil {
		t.Errorf("empty batch should yield nil, got %d listings", len(out))
	}
}

func TestPipelineDetectsRelistingEndToEnd(t *testing.T) {
	p := NewPipeline(config.DefaultAnalysis(), 4, newTestLogger())

	// Scraped "now" so the age contribution stays out of the expected score.
	scrapedAt := time.Now().UTC()
	raw := models.RawListing{
		Source:        "zonaprop",
		PortalID:      "new-49693812",
		URL:           "https://www.zonaprop.com.ar/new-49693812.html",
		Title:         "Departamento en venta",
		Description:   "luminoso departamento al frente con balcon",
		Price:         88000,
		Currency:      "USD",
		RoomsText:     "2 amb",
		AreaTotalText: "50 m2",
		FloorText:     "Piso 3",
		Address:       "Av. Santa Fe 1234, Palermo",
		Neighborhood:  "Palermo",
		Lat:           fp(-34.6000),
		Lng:           fp(-58.4000),
		ScrapedAt:     scrapedAt,
	}

	// The same unit, delisted six months ago under another portal, 100k USD.
	historical := models.Listing{
		ID:                models.ListingID("argenprop", "old-777"),
		Source:            "argenprop",
		URL:               "https://www.argenprop.com/departamento--777",
		Description:       "luminoso departamento al frente con balcon",
		PriceUSD:          100000,
		Status:            models.StatusDelisted,
		AddressNormalized: NormalizeAddress("Av. Santa Fe 1234, Palermo"),
		Neighborhood:      "Palermo",
		Lat:               fp(-34.60004),
		Lng:               fp(-58.4000),
		AreaTotal:         50,
		Rooms:             2,
		Floor:             ip(3),
		FirstSeen:         scrapedAt.AddDate(0, -6, 0),
	}

	out := p.Run([]models.RawListing{raw}, []models.Listing{historical}, 1150)
	if len(out) != 1 {
		t.Fatalf("got %d listings, want 1", len(out))
	}

	l := out[0]
	if l.Status != models.StatusRelisted {
		t.Fatalf("status: got %s, want relisted", l.Status)
	}
	if l.OriginalID != historical.ID {
		t.Errorf("original: got %s, want %s", l.OriginalID, historical.ID)
	}
	if l.PriceDeltaPct == nil || math.Abs(*l.PriceDeltaPct-(-12.0)) > 1e-9 {
		t.Fatalf("delta: got %v, want -12.0", l.PriceDeltaPct)
	}

	// Palermo reference 3200 vs 1760/m² is a 45% discount (50 points); the
	// -12% relisting delta adds 10 more. The single-listing microzone has
	// zero deviation and the listing is brand new, so nothing else fires.
	if l.OpportunityScore != 60 {
		t.Errorf("score: got %d, want 60\nreasons: %v", l.OpportunityScore, l.OpportunityReasons)
	}
	if !l.IsOpportunity {
		t.Error("expected an opportunity flag")
	}

	foundRelistingReason := false
	for _, reason := range l.OpportunityReasons {
		if strings.Contains(reason, "Relisted 12.0%") {
			foundRelistingReason = true
		}
	}
	if !foundRelistingReason {
		t.Errorf("missing relisting reason in %v", l.OpportunityReasons)
	}
}

func TestPipelinePreservesOrder(t *testing.T) {
	p := NewPipeline(config.DefaultAnalysis(), 8, newTestLogger())

	now := time.Now()
	raws := make([]models.RawListing, 20)
	for i := range raws {
		raws[i] = models.RawListing{
			Source:    "argenprop",
			PortalID:  fmt.Sprintf("p%d", i),
			URL:       fmt.Sprintf("https://example.com/p%d", i),
			Price:     100000 + float64(i),
			Currency:  "USD",
			ScrapedAt: now,
		}
	}

	out := p.Run(raws, nil, 1150)
	if len(out) != len(raws) {
		t.Fatalf("got %d listings, want %d", len(out), len(raws))
	}
	for i := range out {
		if out[i].URL != raws[i].URL {
			t.Errorf("position %d: got %s, want %s", i, out[i].URL, raws[i].URL)
		}
	}
}
