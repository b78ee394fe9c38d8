package rates

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"propfinder/utils"
)

func TestMEPRateFromAPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"blue":{"value_buy":1180.0,"value_sell":1234.5}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 1150, utils.NewLogger())
	if got := c.MEPRate(context.Background()); got != 1234.5 {
		t.Errorf("rate: got %.2f, want 1234.5", got)
	}
}

func TestMEPRateFallbackOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 1150, utils.NewLogger())
	if got := c.MEPRate(context.Background()); got != 1150 {
		t.Errorf("rate: got %.2f, want fallback 1150", got)
	}
}

func TestMEPRateFallbackOnDegenerateValue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"blue":{"value_sell":0}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 1150, utils.NewLogger())
	if got := c.MEPRate(context.Background()); got != 1150 {
		t.Errorf("rate: got %.2f, want fallback 1150", got)
	}
}
