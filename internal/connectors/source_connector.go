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
	"sync"
	"time"

	"go-portal-sync/internal/common/errs"
	"go-portal-sync/internal/config"
)

// HTTPSourceClient talks to the source REST API using OAuth2 client
// credentials.
type HTTPSourceClient struct {
	baseURL      string
	authURL      string
	clientID     string
	clientSecret string
	client       *http.Client

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

func NewHTTPSourceClient(cfg *config.Config) (*HTTPSourceClient, error) {
	if err := cfg.ValidateSource(); err != nil {
		return nil, err
	}
	return &HTTPSourceClient{
		baseURL:      strings.TrimRight(cfg.SourceBaseURL, "/"),
		authURL:      cfg.SourceAuthURL,
		clientID:     cfg.SourceClientID,
		clientSecret: cfg.SourceClientSecret,
		client: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
	}, nil
}

// Authenticate requests a fresh token with the client credentials grant.
func (c *HTTPSourceClient) Authenticate(ctx context.Context) (string, error) {
	formData := url.Values{}
	formData.Set("grant_type", "client_credentials")
	formData.Set("client_id", c.clientID)
	formData.Set("client_secret", c.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authURL, strings.NewReader(formData.Encode()))
	if err != nil {
		return "", errs.E(errs.KindAuthentication, "source.authenticate", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", errs.E(errs.KindAuthentication, "source.authenticate", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", errs.Errorf(errs.KindAuthentication, "source.authenticate", "token request failed: status=%d body=%s", resp.StatusCode, string(body))
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
		TokenType   string `json:"token_type"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", errs.E(errs.KindAuthentication, "source.authenticate", fmt.Errorf("failed to parse token response: %w", err))
	}
	if tokenResp.AccessToken == "" {
		return "", errs.Errorf(errs.KindAuthentication, "source.authenticate", "token response has no access_token")
	}

	c.mu.Lock()
	c.token = tokenResp.AccessToken
	c.expiresAt = time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second)
	c.mu.Unlock()

	return tokenResp.AccessToken, nil
}

func (c *HTTPSourceClient) Query(ctx context.Context, req QueryRequest) (*QueryResponse, error) {
	var out QueryResponse
	path := "/api/query/" + url.PathEscape(req.Module)
	if err := c.doRequest(ctx, "source.query", path, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPSourceClient) QueryRelated(ctx context.Context, req RelatedRequest) (*QueryResponse, error) {
	var out QueryResponse
	path := fmt.Sprintf("/api/query/%s/%s/related/%s",
		url.PathEscape(req.Module), url.PathEscape(req.RecordID), url.PathEscape(req.Relation))
	if err := c.doRequest(ctx, "source.query_related", path, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPSourceClient) currentToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	token, expiresAt := c.token, c.expiresAt
	c.mu.Unlock()

	// refresh a minute early
	if token != "" && time.Until(expiresAt) > time.Minute {
		return token, nil
	}
	return c.Authenticate(ctx)
}

func (c *HTTPSourceClient) doRequest(ctx context.Context, op, path string, body, result any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return errs.E(errs.KindInternal, op, fmt.Errorf("failed to marshal request body: %w", err))
	}

	token, err := c.currentToken(ctx)
	if err != nil {
		return err
	}

	resp, err := c.doAuthenticatedRequest(ctx, path, token, payload)
	if err != nil {
		return errs.E(errs.KindTransport, op, err)
	}
	defer resp.Body.Close()

	// Handle 401 - refresh and retry once
	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		if token, err = c.Authenticate(ctx); err != nil {
			return err
		}
		resp, err = c.doAuthenticatedRequest(ctx, path, token, payload)
		if err != nil {
			return errs.E(errs.KindTransport, op, err)
		}
		defer resp.Body.Close()
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return errs.Errorf(errs.KindTransport, op, "API error: status=%d body=%s", resp.StatusCode, string(respBody))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return errs.E(errs.KindTransport, op, fmt.Errorf("failed to parse response: %w", err))
	}
	return nil
}

func (c *HTTPSourceClient) doAuthenticatedRequest(ctx context.Context, path, accessToken string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	return c.client.Do(req)
}
