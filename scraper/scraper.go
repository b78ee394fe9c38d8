// Package scraper defines the portal adapter contract and the helpers shared
// by the adapters. Adapters are thin: they extract raw fields and hand them
// to the analysis pipeline untouched.
package scraper

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"propfinder/models"
)

// Scraper is implemented by every portal adapter.
type Scraper interface {
	// Source returns the portal identifier ("zonaprop", "argenprop").
	Source() string
	// Scrape extracts up to limit raw listings.
	Scrape(ctx context.Context, limit int) ([]models.RawListing, error)
}

var priceNumberRegexp = regexp.MustCompile(`[\d.,]+`)

// CleanPrice extracts a numeric value and a currency from a portal price
// string ("USD 120.000" → 120000, "USD"; "$ 95.000.000" → 95000000, "ARS").
// Unparseable text yields 0 with the detected currency.
func CleanPrice(text string) (float64, string) {
	t := strings.ToUpper(strings.TrimSpace(text))

	currency := "ARS"
	if strings.Contains(t, "USD") || strings.Contains(t, "U$S") || strings.Contains(t, "US$") {
		currency = "USD"
	}

	m := priceNumberRegexp.FindString(t)
	if m == "" {
		return 0.0, currency
	}

	m = strings.ReplaceAll(m, ".", "")
	m = strings.ReplaceAll(m, ",", ".")
	price, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0.0, currency
	}
	return price, currency
}

// PortalIDFromURL derives the portal's listing id from its URL: the segment
// after the last "--", or the last path segment with any ".html" suffix
// stripped.
func PortalIDFromURL(url string) string {
	if i := strings.LastIndex(url, "--"); i >= 0 {
		return url[i+2:]
	}
	url = strings.TrimSuffix(url, "/")
	if i := strings.LastIndex(url, "/"); i >= 0 {
		url = url[i+1:]
	}
	return strings.TrimSuffix(url, ".html")
}

// ExtractNeighborhood takes the trailing comma-separated component of an
// address line ("Thames 1800, Palermo Soho" → "Palermo Soho").
func ExtractNeighborhood(address string) string {
	parts := strings.Split(address, ",")
	if len(parts) < 2 {
		return ""
	}
	return strings.TrimSpace(parts[len(parts)-1])
}
