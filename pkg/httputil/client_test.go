package httputil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/equitylens/backend/pkg/config"
	"github.com/equitylens/backend/pkg/logger"
)

func testLogger() *logger.Logger {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	return logger.New(&config.Config{Env: "development", LogLevel: "error", LogFormat: "json"})
}

func TestGet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	client := New(testLogger())
	resp, err := client.Get(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestGetJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"symbol":"AAPL","price":189.5}`))
	}))
	defer server.Close()

	var payload struct {
		Symbol string  `json:"symbol"`
		Price  float64 `json:"price"`
	}

	client := New(testLogger())
	if err := client.GetJSON(context.Background(), server.URL, &payload); err != nil {
		t.Fatalf("GetJSON() failed: %v", err)
	}

	if payload.Symbol != "AAPL" {
		t.Errorf("Symbol = %s, want AAPL", payload.Symbol)
	}
	if payload.Price != 189.5 {
		t.Errorf("Price = %v, want 189.5", payload.Price)
	}
}

func TestGetJSON_NonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	var dest map[string]interface{}
	client := New(testLogger()).DisableRetry()
	if err := client.GetJSON(context.Background(), server.URL, &dest); err == nil {
		t.Error("GetJSON() succeeded on 404, want error")
	}
}

func TestRetry_ServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := New(testLogger()).WithRetry(3, 10*time.Millisecond)
	resp, err := client.Get(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200 after retries", resp.StatusCode)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("server saw %d calls, want 3", got)
	}
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		statusCode int
		want       bool
	}{
		{200, false},
		{404, false},
		{429, true},
		{500, true},
		{503, true},
	}

	for _, tt := range tests {
		if got := IsRetryableError(tt.statusCode); got != tt.want {
			t.Errorf("IsRetryableError(%d) = %v, want %v", tt.statusCode, got, tt.want)
		}
	}
}
