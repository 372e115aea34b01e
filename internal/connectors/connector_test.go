package connectors

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go-portal-sync/internal/common/errs"
	"go-portal-sync/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPredicateMarshal(t *testing.T) {
	raw, err := json.Marshal([]Predicate{
		{Field: "modified_on", Operator: OpGTE, Value: "2025-09-01T00:00:00Z"},
		{Field: "status", Operator: OpEQ, Value: "active"},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"modified_on":{"$gte":"2025-09-01T00:00:00Z"}},{"status":{"$eq":"active"}}]`, string(raw))
}

func TestPushResultSucceeded(t *testing.T) {
	assert.True(t, PushResult{HTTPStatus: 201}.Succeeded())
	assert.False(t, PushResult{HTTPStatus: 422}.Succeeded())
	assert.False(t, PushResult{}.Succeeded())
}

type fakeSource struct {
	tokens   atomic.Int32
	rejectAt int32
}

func (f *fakeSource) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.PostForm.Get("client_secret") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		n := f.tokens.Add(1)
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "token-" + string(rune('0'+n)),
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/api/query/Members", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "Bearer token-1" && f.rejectAt == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var req QueryRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		json.NewEncoder(w).Encode(QueryResponse{
			Records:    []map[string]any{{"id": "m-1"}},
			HasMore:    req.Offset == 0,
			NextOffset: req.Offset + req.PageSize,
			TotalCount: 2,
		})
	})
	mux.HandleFunc("/api/query/Members/m-1/related/addresses", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(QueryResponse{Records: []map[string]any{{"city": "Leeds"}}})
	})
	mux.HandleFunc("/api/query/Broken", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})
	return mux
}

func newSourceClient(t *testing.T, srv *httptest.Server, secret string) *HTTPSourceClient {
	t.Helper()
	client, err := NewHTTPSourceClient(&config.Config{
		SourceBaseURL:      srv.URL + "/",
		SourceAuthURL:      srv.URL + "/token",
		SourceClientID:     "client",
		SourceClientSecret: secret,
		HTTPTimeout:        5 * time.Second,
	})
	require.NoError(t, err)
	return client
}

func TestHTTPSourceClientQuery(t *testing.T) {
	src := &fakeSource{}
	srv := httptest.NewServer(src.handler(t))
	defer srv.Close()

	client := newSourceClient(t, srv, "secret")
	resp, err := client.Query(context.Background(), QueryRequest{Module: "Members", PageSize: 2})
	require.NoError(t, err)
	assert.True(t, resp.HasMore)
	assert.Equal(t, 2, resp.NextOffset)
	assert.Len(t, resp.Records, 1)

	// the cached token is reused
	_, err = client.Query(context.Background(), QueryRequest{Module: "Members", PageSize: 2, Offset: 2})
	require.NoError(t, err)
	assert.Equal(t, int32(1), src.tokens.Load())

	related, err := client.QueryRelated(context.Background(), RelatedRequest{Module: "Members", RecordID: "m-1", Relation: "addresses"})
	require.NoError(t, err)
	assert.Equal(t, "Leeds", related.Records[0]["city"])
}

func TestHTTPSourceClientRetriesOnceAfter401(t *testing.T) {
	src := &fakeSource{rejectAt: 1}
	srv := httptest.NewServer(src.handler(t))
	defer srv.Close()

	client := newSourceClient(t, srv, "secret")
	_, err := client.Query(context.Background(), QueryRequest{Module: "Members", PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int32(2), src.tokens.Load())
}

func TestHTTPSourceClientErrors(t *testing.T) {
	srv := httptest.NewServer((&fakeSource{}).handler(t))
	defer srv.Close()

	_, err := newSourceClient(t, srv, "wrong").Query(context.Background(), QueryRequest{Module: "Members"})
	assert.True(t, errs.IsKind(err, errs.KindAuthentication))

	_, err = newSourceClient(t, srv, "secret").Query(context.Background(), QueryRequest{Module: "Broken"})
	assert.True(t, errs.IsKind(err, errs.KindTransport))
	assert.Contains(t, err.Error(), "status=502")
}

func TestNewHTTPSourceClientRequiresConfig(t *testing.T) {
	_, err := NewHTTPSourceClient(&config.Config{SourceBaseURL: "http://x"})
	assert.True(t, errs.IsKind(err, errs.KindConfiguration))
}

func TestHTTPDestinationClientPush(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/sync/members", r.URL.Path)
		if r.Header.Get("X-API-Key") != "key" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		var body struct {
			Records []map[string]any `json:"records"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		results := make([]PushResult, 0, len(body.Records))
		for _, rec := range body.Records {
			results = append(results, PushResult{
				LogType:    "member",
				ModuleName: "members",
				SourceID:   rec["source_id"].(string),
				HTTPStatus: http.StatusCreated,
				Message:    "created",
			})
		}
		json.NewEncoder(w).Encode(map[string]any{"results": results})
	}))
	defer srv.Close()

	client, err := NewHTTPDestinationClient(&config.Config{
		DestinationBaseURL: srv.URL,
		DestinationAPIKey:  "key",
		HTTPTimeout:        5 * time.Second,
	})
	require.NoError(t, err)

	results, err := client.Push(context.Background(), "members", []map[string]any{{"source_id": "a"}, {"source_id": "b"}})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "b", results[1].SourceID)

	denied, err := NewHTTPDestinationClient(&config.Config{DestinationBaseURL: srv.URL, DestinationAPIKey: "nope"})
	require.NoError(t, err)
	_, err = denied.Push(context.Background(), "members", nil)
	assert.True(t, errs.IsKind(err, errs.KindTransport))
}
