package zonaprop

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"propfinder/config"
	"propfinder/models"
	"propfinder/scraper"
	"propfinder/utils"
)

const (
	source  = "zonaprop"
	baseURL = "https://www.zonaprop.com.ar"

	userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Scraper extracts listing cards from Zonaprop, which renders its results
// client-side and needs a real browser.
type Scraper struct {
	cfg    *config.Config
	logger *utils.Logger
	retry  *utils.RetryConfig
	seen   *utils.URLSet
}

// New creates a ready-to-use Zonaprop Scraper.
func New(cfg *config.Config, logger *utils.Logger) *Scraper {
	return &Scraper{
		cfg:    cfg,
		logger: logger,
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
		seen: utils.NewURLSet(),
	}
}

func (s *Scraper) Source() string { return source }

// cardData mirrors the fields the in-page extraction script collects.
type cardData struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Price       string `json:"price"`
	Address     string `json:"address"`
	Features    string `json:"features"`
	Description string `json:"description"`
}

// Scrape drives a headless browser through the paginated search results.
func (s *Scraper) Scrape(ctx context.Context, limit int) ([]models.RawListing, error) {
	s.logger.Info("[zonaprop] Starting scrape — up to %d listings over %d pages",
		limit, s.cfg.PagesToScrape)

	chromeBin := s.findChromeBinary()
	s.logger.Info("[zonaprop] Using browser binary: %s", chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.UserAgent(userAgent),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	// Suppress chromedp log noise
	allocCtx, cancelSilent := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelSilent()

	var listings []models.RawListing

	for page := 1; page <= s.cfg.PagesToScrape && len(listings) < limit; page++ {
		pageURL := fmt.Sprintf("%s/departamentos-venta-palermo-pagina-%d.html", baseURL, page)

		cards, err := s.scrapePage(allocCtx, pageURL, page)
		if err != nil {
			s.logger.Error("[zonaprop] Page %d failed: %v", page, err)
			break
		}
		if len(cards) == 0 {
			s.logger.Warn("[zonaprop] Page %d returned 0 cards — stopping", page)
			break
		}

		now := time.Now()
		for _, c := range cards {
			if len(listings) >= limit {
				break
			}
			raw, ok := s.toRawListing(c, now)
			if ok && s.seen.Add(raw.URL) {
				listings = append(listings, raw)
			}
		}

		s.logger.Info("[zonaprop] Page %d done — %d listings so far", page, len(listings))
		time.Sleep(time.Duration(s.cfg.RateLimitMs) * time.Millisecond)
	}

	s.logger.Info("[zonaprop] Scrape complete — %d raw listings", len(listings))
	return listings, nil
}

// scrapePage loads one search results page and extracts its cards.
func (s *Scraper) scrapePage(allocCtx context.Context, pageURL string, pageNum int) ([]cardData, error) {
	var cards []cardData

	err := s.retry.Do(fmt.Sprintf("zonaprop page %d", pageNum), func() error {
		ctx, cancel := chromedp.NewContext(allocCtx)
		defer cancel()

		ctx, cancelTimeout := context.WithTimeout(ctx, 90*time.Second)
		defer cancelTimeout()

		return chromedp.Run(ctx,
			chromedp.Navigate(pageURL),
			chromedp.Sleep(5*time.Second),
			chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil),
			chromedp.Sleep(2*time.Second),
			chromedp.Evaluate(`
				(function() {
					var results = [];
					var cards = document.querySelectorAll('[data-qa="posting PROPERTY"], .postingCard');
					for (var i = 0; i < cards.length; i++) {
						var card = cards[i];

						var path = card.getAttribute('data-to-posting') || '';
						if (!path) {
							var link = card.querySelector('a[href*=".html"]');
							path = link ? link.getAttribute('href') : '';
						}
						if (!path) continue;

						var pick = function(sel) {
							var el = card.querySelector(sel);
							return el ? el.innerText.trim() : '';
						};

						var features = [];
						var featEls = card.querySelectorAll('[data-qa="POSTING_CARD_FEATURES"] span, .postingCardMainFeatures span');
						for (var j = 0; j < featEls.length; j++) {
							var t = featEls[j].innerText.trim();
							if (t) features.push(t);
						}

						results.push({
							url:         path,
							title:       pick('h2, [data-qa="POSTING_CARD_DESCRIPTION"] a'),
							price:       pick('[data-qa="POSTING_CARD_PRICE"], .firstPrice'),
							address:     pick('[data-qa="POSTING_CARD_LOCATION"], .postingAddress'),
							features:    features.join(' | '),
							description: pick('[data-qa="POSTING_CARD_DESCRIPTION"]')
						});
					}
					return results;
				})()
			`, &cards),
		)
	})
	return cards, err
}

// toRawListing maps extracted card data onto the raw schema.
func (s *Scraper) toRawListing(c cardData, now time.Time) (models.RawListing, bool) {
	if c.URL == "" {
		return models.RawListing{}, false
	}
	url := c.URL
	if strings.HasPrefix(url, "/") {
		url = baseURL + url
	}

	price, currency := scraper.CleanPrice(c.Price)

	raw := models.RawListing{
		Source:      source,
		PortalID:    scraper.PortalIDFromURL(url),
		URL:         url,
		Title:       c.Title,
		Description: c.Description,

		Price:    price,
		Currency: currency,

		Address:      c.Address,
		Neighborhood: scraper.ExtractNeighborhood(c.Address),

		ScrapedAt: now,
	}

	for _, feat := range strings.Split(c.Features, "|") {
		text := strings.TrimSpace(feat)
		lower := strings.ToLower(text)
		switch {
		case strings.Contains(lower, "m²") || strings.Contains(lower, "m2"):
			if strings.Contains(lower, "cub") {
				if raw.AreaCoveredText == "" {
					raw.AreaCoveredText = text
				}
			} else if raw.AreaTotalText == "" {
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
	}

	return raw, true
}

// findChromeBinary locates a Chrome/Chromium binary.
func (s *Scraper) findChromeBinary() string {
	if s.cfg.ChromeBin != "" {
		return s.cfg.ChromeBin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	return ""
}
