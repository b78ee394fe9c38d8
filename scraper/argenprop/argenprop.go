package argenprop

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"propfinder/config"
	"propfinder/models"
	"propfinder/scraper"
	"propfinder/utils"
)

const (
	source  = "argenprop"
	baseURL = "https://www.argenprop.com"

	userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Scraper extracts listing cards from Argenprop's server-rendered search
// pages.
type Scraper struct {
	cfg        *config.Config
	logger     *utils.Logger
	httpClient *http.Client
	limiter    *rate.Limiter
	retry      *utils.RetryConfig
	seen       *utils.URLSet
}

// New creates a ready-to-use Argenprop Scraper.
func New(cfg *config.Config, logger *utils.Logger) *Scraper {
	interval := time.Duration(cfg.RateLimitMs) * time.Millisecond
	if interval <= 0 {
		interval = time.Second
	}
	return &Scraper{
		cfg:        cfg,
		logger:     logger,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Every(interval), 1),
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
		seen: utils.NewURLSet(),
	}
}

func (s *Scraper) Source() string { return source }

// Scrape walks the paginated search results until limit listings were
// collected or a page comes back empty.
func (s *Scraper) Scrape(ctx context.Context, limit int) ([]models.RawListing, error) {
	s.logger.Info("[argenprop] Starting scrape — up to %d listings over %d pages",
		limit, s.cfg.PagesToScrape)

	var listings []models.RawListing

	for page := 1; page <= s.cfg.PagesToScrape && len(listings) < limit; page++ {
		pageURL := fmt.Sprintf("%s/departamento-venta-localidad-palermo?pagina-%d", baseURL, page)

		doc, err := s.fetchDocument(ctx, pageURL)
		if err != nil {
			s.logger.Error("[argenprop] Page %d failed: %v", page, err)
			break
		}

		found := 0
		now := time.Now()
		doc.Find(".listing__item").EachWithBreak(func(_ int, card *goquery.Selection) bool {
			raw, ok := s.parseCard(card, now)
			if ok && s.seen.Add(raw.URL) {
				listings = append(listings, raw)
				found++
			}
			return len(listings) < limit
		})

		s.logger.Info("[argenprop] Page %d — %d new listings (%d total)", page, found, len(listings))
		if found == 0 {
			break
		}
	}

	s.logger.Info("[argenprop] Scrape complete — %d raw listings", len(listings))
	return listings, nil
}

func (s *Scraper) fetchDocument(ctx context.Context, url string) (*goquery.Document, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("argenprop: rate wait: %w", err)
	}

	var doc *goquery.Document
	err := s.retry.Do("argenprop fetch "+url, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Accept-Language", "es-AR,es;q=0.9")

		resp, err := s.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("get: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("unexpected status %d", resp.StatusCode)
		}

		doc, err = goquery.NewDocumentFromReader(resp.Body)
		if err != nil {
			return fmt.Errorf("parse html: %w", err)
		}
		return nil
	})
	return doc, err
}

// parseCard extracts one raw listing from a search result card.
func (s *Scraper) parseCard(card *goquery.Selection, now time.Time) (models.RawListing, bool) {
	href, ok := card.Find("a.card").First().Attr("href")
	if !ok || href == "" {
		return models.RawListing{}, false
	}
	url := href
	if strings.HasPrefix(href, "/") {
		url = baseURL + href
	}

	price, currency := scraper.CleanPrice(card.Find(".card__price").First().Text())
	address := clean(card.Find(".card__address").First().Text())

	raw := models.RawListing{
		Source:      source,
		PortalID:    scraper.PortalIDFromURL(url),
		URL:         url,
		Title:       clean(card.Find(".card__title").First().Text()),
		Description: clean(card.Find(".card__info").First().Text()),

		Price:    price,
		Currency: currency,

		Address:      address,
		Neighborhood: scraper.ExtractNeighborhood(address),

		ScrapedAt: now,
	}

	card.Find(".card__main-features li").Each(func(_ int, feat *goquery.Selection) {
		text := clean(feat.Text())
		lower := strings.ToLower(text)
		switch {
		case strings.Contains(lower, "m²") || strings.Contains(lower, "m2"):
			if raw.AreaTotalText == "" {
				raw.AreaTotalText = text
			}
		case strings.Contains(lower, "amb") || strings.Contains(lower, "dorm"):
			if raw.RoomsText == "" {
				raw.RoomsText = text
			}
		case strings.Contains(lower, "piso"):
			if raw.FloorText == "" {
				raw.FloorText = text
			}
		}
	})

	return raw, true
}

func clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
