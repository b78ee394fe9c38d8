package analysis

import (
	"math"
	"testing"

	"propfinder/config"
	"propfinder/models"
)

// matchedPair builds a new/old listing pair agreeing on every evidence group.
func matchedPair() (models.Listing, models.Listing) {
	newListing := models.Listing{
		ID:                models.ListingID("zonaprop", "new1"),
		Source:            "zonaprop",
		URL:               "https://www.zonaprop.com.ar/new1.html",
		Description:       "hermoso departamento luminoso con balcon al frente",
		PriceUSD:          88000,
		AddressNormalized: "avenida santa fe 1234 palermo",
		Neighborhood:      "Palermo",
		Lat:               fp(-34.6000),
		Lng:               fp(-58.4000),
		AreaTotal:         50,
		Rooms:             2,
		Floor:             ip(3),
	}
	old := models.Listing{
		ID:                models.ListingID("argenprop", "old1"),
		Source:            "argenprop",
		URL:               "https://www.argenprop.com/departamento--old1",
		Description:       "hermoso departamento luminoso con balcon al frente",
		PriceUSD:          100000,
		Status:            models.StatusDelisted,
		AddressNormalized: "avenida santa fe 1234 palermo",
		Neighborhood:      "palermo",
		Lat:               fp(-34.60004),
		Lng:               fp(-58.4000),
		AreaTotal:         50,
		Rooms:             2,
		Floor:             ip(3),
	}
	return newListing, old
}

func TestDetectFullEvidenceMatch(t *testing.T) {
	d := NewDetector(config.DefaultAnalysis(), newTestLogger())
	newListing, old := matchedPair()

	matched, original, delta := d.Detect(newListing, []models.Listing{old})
	if !matched {
		t.Fatal("expected a relisting match")
	}
	if original.ID != old.ID {
		t.Errorf("original: got %s, want %s", original.ID, old.ID)
	}
	if delta == nil {
		t.Fatal("expected a price delta")
	}
	if math.Abs(*delta-(-12.0)) > 1e-9 {
		t.Errorf("delta: got %.4f, want -12.0", *delta)
	}

	if conf := d.confidence(&newListing, &old); conf != 1.0 {
		t.Errorf("confidence: got %.2f, want 1.0", conf)
	}
}

func TestDetectAddressOnlyEvidence(t *testing.T) {
	d := NewDetector(config.DefaultAnalysis(), newTestLogger())

	newListing := models.Listing{
		ID:                models.ListingID("zonaprop", "a"),
		Source:            "zonaprop",
		URL:               "https://example.com/a",
		AddressNormalized: "gorriti 5800",
	}
	old := models.Listing{
		ID:                models.ListingID("argenprop", "b"),
		Source:            "argenprop",
		URL:               "https://example.com/b",
		AddressNormalized: "gorriti 5800",
	}

	// Only the address group is comparable, so the denominator shrinks to 40
	// and an exact match alone is decisive.
	if conf := d.confidence(&newListing, &old); conf != 1.0 {
		t.Fatalf("confidence: got %.2f, want 1.0", conf)
	}

	matched, _, delta := d.Detect(newListing, []models.Listing{old})
	if !matched {
		t.Error("address-only agreement should match")
	}
	if delta != nil {
		t.Errorf("delta should be nil without prices, got %.2f", *delta)
	}
}

func TestDetectSkipsSamePublication(t *testing.T) {
	d := NewDetector(config.DefaultAnalysis(), newTestLogger())
	newListing, old := matchedPair()

	// Same source and URL is the same live publication, never a relisting.
	old.Source = newListing.Source
	old.URL = newListing.URL

	if matched, _, _ := d.Detect(newListing, []models.Listing{old}); matched {
		t.Error("same source and URL must not match")
	}
}

func TestDetectSkipsSameID(t *testing.T) {
	d := NewDetector(config.DefaultAnalysis(), newTestLogger())
	newListing, old := matchedPair()
	old.ID = newListing.ID

	if matched, _, _ := d.Detect(newListing, []models.Listing{old}); matched {
		t.Error("identical ids must not match")
	}
}

func TestDetectFirstMatchPolicy(t *testing.T) {
	d := NewDetector(config.DefaultAnalysis(), newTestLogger())
	newListing, first := matchedPair()

	second := first
	second.ID = models.ListingID("argenprop", "old2")
	second.URL = "https://www.argenprop.com/departamento--old2"
	second.PriceUSD = 50000

	matched, original, _ := d.Detect(newListing, []models.Listing{first, second})
	if !matched {
		t.Fatal("expected a match")
	}
	if original.ID != first.ID {
		t.Errorf("first-match policy violated: got %s, want %s", original.ID, first.ID)
	}
}

func TestDetectDeltaNilWhenPriceMissing(t *testing.T) {
	d := NewDetector(config.DefaultAnalysis(), newTestLogger())
	newListing, old := matchedPair()
	old.PriceUSD = 0

	matched, _, delta := d.Detect(newListing, []models.Listing{old})
	if !matched {
		t.Fatal("expected a match")
	}
	if delta != nil {
		t.Errorf("delta should be nil when the original price is missing, got %.2f", *delta)
	}
}

func TestAnnotate(t *testing.T) {
	d := NewDetector(config.DefaultAnalysis(), newTestLogger())
	newListing, old := matchedPair()

	unrelated := models.Listing{
		ID:                models.ListingID("zonaprop", "other"),
		Source:            "zonaprop",
		URL:               "https://example.com/other",
		AddressNormalized: "cabildo 2200 belgrano",
		Status:            models.StatusRelisted, // stale marker, must be reset
		OriginalID:        "stale",
		PriceDeltaPct:     fp(-3),
	}

	out := d.Annotate([]models.Listing{newListing, unrelated}, []models.Listing{old})

	if out[0].Status != models.StatusRelisted {
		t.Errorf("listing 0 status: got %s, want relisted", out[0].Status)
	}
	if out[0].OriginalID != old.ID {
		t.Errorf("listing 0 original: got %s, want %s", out[0].OriginalID, old.ID)
	}
	if out[0].PriceDeltaPct == nil || math.Abs(*out[0].PriceDeltaPct-(-12.0)) > 1e-9 {
		t.Error("listing 0 should carry a -12.0 price delta")
	}

	if out[1].Status != models.StatusActive {
		t.Errorf("listing 1 status: got %s, want active", out[1].Status)
	}
	if out[1].OriginalID != "" || out[1].PriceDeltaPct != nil {
		t.Error("listing 1 relisting fields should be cleared")
	}
}
