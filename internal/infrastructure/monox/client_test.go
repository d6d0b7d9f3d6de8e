package monox

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	appstock "github.com/chemstock/backend/internal/application/stock"
	"github.com/chemstock/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	client, err := NewClient(&config.MonoxConfig{
		Enabled: true,
		BaseURL: baseURL,
		APIKey:  "test-key",
		Timeout: 5 * time.Second,
	}, zap.NewNop())
	require.NoError(t, err)
	return client
}

func TestClient_ExportMovement(t *testing.T) {
	t.Run("posts movement with API key", func(t *testing.T) {
		var received appstock.MonoxMovement
		var gotAPIKey, gotContentType, gotPath string

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotAPIKey = r.Header.Get("X-API-Key")
			gotContentType = r.Header.Get("Content-Type")
			require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
			w.WriteHeader(http.StatusCreated)
		}))
		defer server.Close()

		client := newTestClient(t, server.URL)

		err := client.ExportMovement(context.Background(), appstock.MonoxMovement{
			SKU:          "ACETONE-01",
			MovementType: "OUT",
			Quantity:     "400",
			Reason:       "Production batch 42",
		})

		require.NoError(t, err)
		assert.Equal(t, "/api/v1/stock-movements", gotPath)
		assert.Equal(t, "test-key", gotAPIKey)
		assert.Equal(t, "application/json", gotContentType)
		assert.Equal(t, "ACETONE-01", received.SKU)
		assert.Equal(t, "OUT", received.MovementType)
		assert.Equal(t, "400", received.Quantity)
	})

	t.Run("returns request failed on 4xx", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":"unknown sku"}`, http.StatusUnprocessableEntity)
		}))
		defer server.Close()

		client := newTestClient(t, server.URL)

		err := client.ExportMovement(context.Background(), appstock.MonoxMovement{SKU: "UNKNOWN"})

		assert.ErrorIs(t, err, ErrMonoxRequestFailed)
	})

	t.Run("returns unavailable when endpoint is down", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close() // closed before use

		client := newTestClient(t, server.URL)

		err := client.ExportMovement(context.Background(), appstock.MonoxMovement{SKU: "ACETONE-01"})

		assert.ErrorIs(t, err, ErrMonoxUnavailable)
	})

	t.Run("requires base URL", func(t *testing.T) {
		_, err := NewClient(&config.MonoxConfig{}, zap.NewNop())
		assert.Error(t, err)
	})
}
