package monox

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	appstock "github.com/chemstock/backend/internal/application/stock"
	"github.com/chemstock/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// maxResponseSize is the maximum allowed response size from the Monox API (1MB)
const maxResponseSize = 1 * 1024 * 1024

// ErrMonoxUnavailable indicates the Monox endpoint could not be reached
var ErrMonoxUnavailable = errors.New("monox: service unavailable")

// ErrMonoxRequestFailed indicates Monox rejected the request
var ErrMonoxRequestFailed = errors.New("monox: request failed")

// Client pushes stock movements to the Monox accounting system. It
// implements the stock application layer's exporter port.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new Monox client from configuration
func NewClient(cfg *config.MonoxConfig, logger *zap.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("monox: base URL is required")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger.Named("monox"),
	}, nil
}

// ExportMovement pushes one stock movement to Monox
func (c *Client) ExportMovement(ctx context.Context, movement appstock.MonoxMovement) error {
	payload, err := json.Marshal(movement)
	if err != nil {
		return fmt.Errorf("monox: failed to encode movement: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/stock-movements", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("monox: failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMonoxUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("monox: failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		c.logger.Warn("monox rejected movement export",
			zap.Int("status", resp.StatusCode),
			zap.String("sku", movement.SKU),
			zap.ByteString("body", body),
		)
		return fmt.Errorf("%w: HTTP %d", ErrMonoxRequestFailed, resp.StatusCode)
	}

	return nil
}

// Ensure Client implements the stock application exporter port
var _ appstock.MonoxExporter = (*Client)(nil)
