package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/slangwatch/slangcrawler/internal/config"
	"github.com/slangwatch/slangcrawler/internal/metrics"
	"github.com/slangwatch/slangcrawler/internal/search"
)

func TestMain(m *testing.M) {
	metrics.Init()
	os.Exit(m.Run())
}

func testServer(t *testing.T, svc SearchService) *httptest.Server {
	t.Helper()
	cfg := config.ServerConfig{Port: 8080, SearchLimit: 5, RequestTimeout: 5 * time.Second}
	ts := httptest.NewServer(NewServer(svc, cfg, zap.NewNop()).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func get(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	return resp, body
}

func TestServer_Healthz(t *testing.T) {
	t.Parallel()

	ts := testServer(t, &fakeSearch{ready: true})
	resp, body := get(t, ts.URL+"/healthz")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"status":"ok"}`, string(body))
	require.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestServer_ReadyzReflectsCorpusState(t *testing.T) {
	t.Parallel()

	svc := &fakeSearch{}
	ts := testServer(t, svc)

	resp, _ := get(t, ts.URL+"/readyz")
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	svc.ready = true
	resp, _ = get(t, ts.URL+"/readyz")
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_Search(t *testing.T) {
	t.Parallel()

	want := []search.Result{
		{Term: "lit", Year: 2015, Examples: []string{"Definition of lit: exciting. Example: This party is lit!"}, Score: 0.92},
	}
	svc := &fakeSearch{ready: true, results: want}
	ts := testServer(t, svc)

	resp, body := get(t, ts.URL+"/search?term=lit")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got []search.Result
	require.NoError(t, json.Unmarshal(body, &got))
	require.Equal(t, want, got)
	require.Equal(t, "lit", svc.gotTerm)
	require.Equal(t, 5, svc.gotLimit)
}

func TestServer_Search_CustomK(t *testing.T) {
	t.Parallel()

	svc := &fakeSearch{ready: true}
	ts := testServer(t, svc)

	resp, body := get(t, ts.URL+"/search?term=lit&k=2")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 2, svc.gotLimit)
	require.JSONEq(t, `[]`, string(body))
}

func TestServer_Search_BadRequests(t *testing.T) {
	t.Parallel()

	ts := testServer(t, &fakeSearch{ready: true})

	resp, _ := get(t, ts.URL+"/search")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = get(t, ts.URL+"/search?term=lit&k=abc")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = get(t, ts.URL+"/search?term=lit&k=0")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_Search_CorpusNotLoaded(t *testing.T) {
	t.Parallel()

	ts := testServer(t, &fakeSearch{})
	resp, _ := get(t, ts.URL+"/search?term=lit")
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestServer_Search_FailureIsInternalError(t *testing.T) {
	t.Parallel()

	ts := testServer(t, &fakeSearch{ready: true, err: errors.New("embedder down")})
	resp, body := get(t, ts.URL+"/search?term=lit")
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	require.JSONEq(t, `{"error":"search failed"}`, string(body))
}

func TestServer_MetricsEndpoint(t *testing.T) {
	t.Parallel()

	ts := testServer(t, &fakeSearch{ready: true})
	resp, body := get(t, ts.URL+"/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, body)
}

// --- fakes ---

type fakeSearch struct {
	ready    bool
	results  []search.Result
	err      error
	gotTerm  string
	gotLimit int
}

func (f *fakeSearch) Ready() bool { return f.ready }

func (f *fakeSearch) Search(_ context.Context, term string, limit int) ([]search.Result, error) {
	f.gotTerm, f.gotLimit = term, limit
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}
