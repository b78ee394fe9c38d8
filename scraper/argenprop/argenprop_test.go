package argenprop

import (
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"propfinder/config"
	"propfinder/utils"
)

const cardHTML = `
<div class="listing__item">
  <a class="card" href="/departamento--14523987"></a>
  <p class="card__price">USD 120.000</p>
  <h2 class="card__title">Departamento en venta</h2>
  <p class="card__address">Thames 1800, Palermo Soho</p>
  <p class="card__info">Luminoso depto al frente, urgente</p>
  <ul class="card__main-features">
    <li>45 m² cubiertos</li>
    <li>2 ambientes</li>
    <li>Piso 3</li>
  </ul>
</div>`

func newTestScraper() *Scraper {
	return New(&config.Config{MaxRetries: 1, RateLimitMs: 0, PagesToScrape: 1}, utils.NewLogger())
}

func TestParseCard(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(cardHTML))
	if err != nil {
		t.Fatal(err)
	}

	s := newTestScraper()
	now := time.Now()

	raw, ok := s.parseCard(doc.Find(".listing__item").First(), now)
	if !ok {
		t.Fatal("expected a parsed listing")
	}

	if raw.URL != "https://www.argenprop.com/departamento--14523987" {
		t.Errorf("url: got %s", raw.URL)
	}
	if raw.PortalID != "14523987" {
		t.Errorf("portal id: got %s, want 14523987", raw.PortalID)
	}
	if raw.Price != 120000 || raw.Currency != "USD" {
		t.Errorf("price: got %.0f %s, want 120000 USD", raw.Price, raw.Currency)
	}
	if raw.Neighborhood != "Palermo Soho" {
		t.Errorf("neighborhood: got %q", raw.Neighborhood)
	}
	if raw.AreaTotalText != "45 m² cubiertos" {
		t.Errorf("area text: got %q", raw.AreaTotalText)
	}
	if raw.RoomsText != "2 ambientes" {
		t.Errorf("rooms text: got %q", raw.RoomsText)
	}
	if raw.FloorText != "Piso 3" {
		t.Errorf("floor text: got %q", raw.FloorText)
	}
	if !raw.ScrapedAt.Equal(now) {
		t.Error("scraped_at should be the capture time")
	}
}

func TestParseCardWithoutLink(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<div class="listing__item"><p class="card__price">USD 1</p></div>`))
	if err != nil {
		t.Fatal(err)
	}

	s := newTestScraper()
	if _, ok := s.parseCard(doc.Find(".listing__item").First(), time.Now()); ok {
		t.Error("a card without a link must be dropped")
	}
}
