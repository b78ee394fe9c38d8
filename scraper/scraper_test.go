package scraper

import "testing"

func TestCleanPrice(t *testing.T) {
	tests := []struct {
		text         string
		wantPrice    float64
		wantCurrency string
	}{
		{"USD 120.000", 120000, "USD"},
		{"U$S 99.500", 99500, "USD"},
		{"US$150.000", 150000, "USD"},
		{"$ 95.000.000", 95000000, "ARS"},
		{"95.000.000 pesos", 95000000, "ARS"},
		{"Consultar precio", 0, "ARS"},
		{"", 0, "ARS"},
	}

	for _, tt := range tests {
		price, currency := CleanPrice(tt.text)
		if price != tt.wantPrice || currency != tt.wantCurrency {
			t.Errorf("CleanPrice(%q) = %.2f, %s; want %.2f, %s",
				tt.text, price, currency, tt.wantPrice, tt.wantCurrency)
		}
	}
}

func TestPortalIDFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.argenprop.com/departamento--14523987", "14523987"},
		{"https://www.zonaprop.com.ar/propiedades/dto-49693812.html", "dto-49693812"},
		{"https://www.zonaprop.com.ar/propiedades/dto-49693812.html/", "dto-49693812.html"},
		{"plainid", "plainid"},
	}

	for _, tt := range tests {
		if got := PortalIDFromURL(tt.url); got != tt.want {
			t.Errorf("PortalIDFromURL(%q) = %q; want %q", tt.url, got, tt.want)
		}
	}
}

func TestExtractNeighborhood(t *testing.T) {
	tests := []struct {
		address string
		want    string
	}{
		{"Thames 1800, Palermo Soho", "Palermo Soho"},
		{"Av. Santa Fe 1234, Palermo, Capital Federal", "Capital Federal"},
		{"Gorriti 5800", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := ExtractNeighborhood(tt.address); got != tt.want {
			t.Errorf("ExtractNeighborhood(%q) = %q; want %q", tt.address, got, tt.want)
		}
	}
}
