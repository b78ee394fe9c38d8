package models

import "testing"

func TestListingID(t *testing.T) {
	id := ListingID("zonaprop", "49693812")

	if len(id) != 16 {
		t.Fatalf("id length: got %d, want 16", len(id))
	}
	if again := ListingID("zonaprop", "49693812"); again != id {
		t.Error("same inputs should produce the same id")
	}
	if other := ListingID("argenprop", "49693812"); other == id {
		t.Error("same portal id on another source must produce a different id")
	}
}

func TestHasCoordinates(t *testing.T) {
	lat, lng := -34.6, -58.4

	var l Listing
	if l.HasCoordinates() {
		t.Error("no coordinates set")
	}

	l.Lat = &lat
	if l.HasCoordinates() {
		t.Error("latitude alone is not enough")
	}

	l.Lng = &lng
	if !l.HasCoordinates() {
		t.Error("both coordinates set")
	}
}
