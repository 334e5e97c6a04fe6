package ledger

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"automatron/pkg/config"
)

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()

	client, err := NewClient(config.ExpenseConfig{WebhookURL: url}, slog.Default())
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	client.now = func() time.Time {
		return time.Date(2026, time.August, 31, 12, 0, 0, 0, time.UTC)
	}

	return client
}

func TestRecordPostsWireShape(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	if err := client.Record(context.Background(), 10, "health"); err != nil {
		t.Fatalf("Record error: %v", err)
	}

	if got["value1"] != "2026-08-31" {
		t.Fatalf("value1 = %v, want date", got["value1"])
	}
	if got["value2"] != float64(10) {
		t.Fatalf("value2 = %v, want 10", got["value2"])
	}
	if got["value3"] != "health" {
		t.Fatalf("value3 = %v, want health", got["value3"])
	}
}

func TestRecordNonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	if err := client.Record(context.Background(), 5, "food"); err == nil {
		t.Fatal("expected error for non-success status")
	}
}

func TestRecordTransportFailure(t *testing.T) {
	client := newTestClient(t, "http://127.0.0.1:1")

	if err := client.Record(context.Background(), 5, "food"); err == nil {
		t.Fatal("expected error for unreachable webhook")
	}
}
