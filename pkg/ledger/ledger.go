// Package ledger forwards expense records to the external
// expense-logging webhook.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"automatron/pkg/config"
)

// record is the webhook wire shape: date, amount, category in the three
// generic value slots the ledger service expects.
type record struct {
	Date     string `json:"value1"`
	Amount   int    `json:"value2"`
	Category string `json:"value3"`
}

// Client posts expense records. Each Record is a single delivery
// attempt; failures propagate to the caller untouched.
type Client struct {
	cfg        config.ExpenseConfig
	httpClient *http.Client
	log        *slog.Logger

	// now is swapped in tests.
	now func() time.Time
}

// NewClient validates ledger configuration and constructs a client.
func NewClient(cfg config.ExpenseConfig, log *slog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.WebhookURL) == "" {
		return nil, errors.New("expense.webhook_url is required")
	}
	if log == nil {
		log = slog.Default()
	}

	return &Client{
		cfg:        cfg,
		httpClient: http.DefaultClient,
		log:        log.With("component", "ledger"),
		now:        time.Now,
	}, nil
}

// Record posts one {date, amount, category} entry dated today.
func (c *Client) Record(ctx context.Context, amount int, category string) error {
	payload, err := json.Marshal(record{
		Date:     c.now().Format("2006-01-02"),
		Amount:   amount,
		Category: category,
	})
	if err != nil {
		return fmt.Errorf("encode expense record: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build expense request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post expense record: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.log.Error("Expense webhook rejected record", "status", resp.StatusCode, "detail", string(detail))
		return fmt.Errorf("expense webhook returned status %d", resp.StatusCode)
	}

	c.log.Info("Recorded expense", "amount", amount, "category", category)
	return nil
}
