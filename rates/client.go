// Package rates resolves the MEP rate used to express local-currency prices
// in USD. Lookup failure never propagates: the caller always gets a usable
// rate, degrading to the configured static fallback.
package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"propfinder/utils"
)

// Client fetches the current MEP rate from the Bluelytics API.
type Client struct {
	url        string
	fallback   float64
	httpClient *http.Client
	logger     *utils.Logger
	retry      *utils.RetryConfig
}

// NewClient creates a rate client. fallback is returned whenever the lookup
// fails or yields a degenerate value.
func NewClient(url string, fallback float64, logger *utils.Logger) *Client {
	return &Client{
		url:        url,
		fallback:   fallback,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		logger:     logger,
		retry: &utils.RetryConfig{
			MaxAttempts: 2,
			BaseDelay:   time.Second,
			Logger:      logger,
		},
	}
}

type bluelyticsResponse struct {
	Blue struct {
		ValueSell float64 `json:"value_sell"`
	} `json:"blue"`
}

// MEPRate returns the current MEP rate, or the fallback when the lookup
// fails for any reason.
func (c *Client) MEPRate(ctx context.Context) float64 {
	var rate float64

	err := c.retry.Do("mep rate lookup", func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
		if err != nil {
			return fmt.Errorf("rates: build request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("rates: fetch: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("rates: unexpected status %d", resp.StatusCode)
		}

		var body bluelyticsResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return fmt.Errorf("rates: decode: %w", err)
		}
		if body.Blue.ValueSell <= 0 {
			return fmt.Errorf("rates: degenerate rate %.2f", body.Blue.ValueSell)
		}

		rate = body.Blue.ValueSell
		return nil
	})
	if err != nil {
		c.logger.Warn("[rates] Lookup failed, using fallback %.2f: %v", c.fallback, err)
		return c.fallback
	}

	c.logger.Info("[rates] MEP rate: %.2f ARS/USD", rate)
	return rate
}
