// Package alerts delivers opportunity notifications through the Telegram
// bot API. It is a thin outbound wrapper: which listings to alert on is
// decided by the caller.
package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"propfinder/models"
	"propfinder/utils"
)

const telegramAPIBase = "https://api.telegram.org"

// TelegramAlerter sends HTML-formatted opportunity messages to a chat.
type TelegramAlerter struct {
	token      string
	chatID     string
	apiBase    string
	httpClient *http.Client
	logger     *utils.Logger
}

// NewTelegramAlerter creates an alerter. An empty token or chat id leaves it
// unconfigured; sends become no-ops with a warning.
func NewTelegramAlerter(token, chatID string, logger *utils.Logger) *TelegramAlerter {
	return &TelegramAlerter{
		token:      token,
		chatID:     chatID,
		apiBase:    telegramAPIBase,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

// IsConfigured reports whether both the bot token and chat id are set.
func (t *TelegramAlerter) IsConfigured() bool {
	return t.token != "" && t.chatID != ""
}

// SendOpportunities delivers one message per listing, in the given order.
// The caller passes the already-filtered, score-sorted alerting subset.
func (t *TelegramAlerter) SendOpportunities(ctx context.Context, listings []models.Listing) error {
	if !t.IsConfigured() {
		t.logger.Warn("[telegram] Not configured — set TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID")
		return nil
	}

	for i := range listings {
		if err := t.sendMessage(ctx, FormatOpportunity(&listings[i])); err != nil {
			return fmt.Errorf("alerts: send opportunity %s: %w", listings[i].ID, err)
		}
		// Telegram throttles bots around one message per second per chat.
		time.Sleep(time.Second)
	}

	t.logger.Info("[telegram] Sent %d opportunity alerts", len(listings))
	return nil
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

func (t *TelegramAlerter) sendMessage(ctx context.Context, text string) error {
	body, err := json.Marshal(sendMessageRequest{
		ChatID:    t.chatID,
		Text:      text,
		ParseMode: "HTML",
	})
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.apiBase, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

// FormatOpportunity renders the alert message for a listing.
func FormatOpportunity(l *models.Listing) string {
	var emoji string
	switch {
	case l.OpportunityScore >= 90:
		emoji = "🔥🔥🔥"
	case l.OpportunityScore >= 80:
		emoji = "🔥🔥"
	case l.OpportunityScore >= 75:
		emoji = "🔥"
	default:
		emoji = "📍"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s <b>OPPORTUNITY DETECTED</b>\n", emoji)
	fmt.Fprintf(&b, "Score: <b>%d/100</b>\n\n", l.OpportunityScore)
	fmt.Fprintf(&b, "💰 <b>Price:</b> $%.0f USD\n", l.PriceUSD)
	fmt.Fprintf(&b, "📐 <b>Area:</b> %.0f m²\n", l.AreaTotal)
	fmt.Fprintf(&b, "🏠 <b>Rooms:</b> %d\n", l.Rooms)
	fmt.Fprintf(&b, "📍 <b>Neighborhood:</b> %s\n", l.Neighborhood)

	if l.Status == models.StatusRelisted && l.PriceDeltaPct != nil && *l.PriceDeltaPct < 0 {
		fmt.Fprintf(&b, "📉 <b>Down %.1f%%</b> since last publication\n", -*l.PriceDeltaPct)
	}

	b.WriteString("\n<b>Reasons:</b>\n")
	if len(l.OpportunityReasons) == 0 {
		b.WriteString("  • N/A\n")
	} else {
		for _, r := range l.OpportunityReasons {
			fmt.Fprintf(&b, "  • %s\n", r)
		}
	}

	fmt.Fprintf(&b, "\n🔗 <a href=\"%s\">View listing</a>", l.URL)
	return b.String()
}
