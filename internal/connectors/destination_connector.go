package connectors

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go-portal-sync/internal/common/errs"
	"go-portal-sync/internal/config"
)

// HTTPDestinationClient pushes batches to the portal's sync endpoint.
type HTTPDestinationClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHTTPDestinationClient(cfg *config.Config) (*HTTPDestinationClient, error) {
	if err := cfg.ValidateDestination(); err != nil {
		return nil, err
	}
	return &HTTPDestinationClient{
		baseURL: strings.TrimRight(cfg.DestinationBaseURL, "/"),
		apiKey:  cfg.DestinationAPIKey,
		client: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
	}, nil
}

func (c *HTTPDestinationClient) Push(ctx context.Context, module string, batch []map[string]any) ([]PushResult, error) {
	const op = "destination.push"

	payload, err := json.Marshal(map[string]any{"records": batch})
	if err != nil {
		return nil, errs.E(errs.KindInternal, op, fmt.Errorf("failed to marshal batch: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/sync/"+url.PathEscape(module), bytes.NewReader(payload))
	if err != nil {
		return nil, errs.E(errs.KindTransport, op, err)
	}
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errs.E(errs.KindTransport, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return nil, errs.Errorf(errs.KindTransport, op, "API error: status=%d body=%s", resp.StatusCode, string(body))
	}

	var out struct {
		Results []PushResult `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, errs.E(errs.KindTransport, op, fmt.Errorf("failed to parse response: %w", err))
	}
	return out.Results, nil
}
