package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketline/pkg/bar"
	"marketline/pkg/instrument"
	"marketline/pkg/market"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubProvider struct {
	daily bar.Series
	err   error
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) FetchAllHistory(ctx context.Context, symbol string) (bar.Series, error) {
	return s.daily, s.err
}

func (s *stubProvider) FetchLatest(ctx context.Context, symbol string) (bar.Series, error) {
	return s.daily, s.err
}

func newTestServer(t *testing.T, p *stubProvider) *Server {
	t.Helper()

	store := instrument.NewMemoryStore()
	err := store.Put(context.Background(), []instrument.Instrument{
		{Symbol: "600000", Name: "浦发银行", Exchange: "SH", Kind: instrument.KindStock},
	})
	require.NoError(t, err)

	return NewServer(market.NewService(p), instrument.NewResolver(store))
}

func doRequest(t *testing.T, srv *Server, path string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", path, nil)
	srv.Handler().ServeHTTP(w, req)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, &stubProvider{})
	w, body := doRequest(t, srv, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestBarsEndpoint(t *testing.T) {
	srv := newTestServer(t, &stubProvider{daily: bar.Series{
		{Timestamp: time.Date(2023, 6, 1, 0, 0, 0, 0, time.Local), Open: 10, High: 11, Low: 9, Close: 10.5, Volume: 1000},
	}})

	w, body := doRequest(t, srv, "/api/v1/bars/600000?period=d")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "600000", body["symbol"])
	assert.Equal(t, float64(1), body["count"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	bars, ok := body["bars"].([]interface{})
	require.True(t, ok)
	first, ok := bars[0].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 10.5, first["close"])
	assert.Nil(t, first["ma5"])
}

func TestBarsDefaultPeriod(t *testing.T) {
	srv := newTestServer(t, &stubProvider{})
	w, body := doRequest(t, srv, "/api/v1/bars/600000")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "d", body["period"])
}

func TestBarsInvalidPeriod(t *testing.T) {
	srv := newTestServer(t, &stubProvider{})
	w, _ := doRequest(t, srv, "/api/v1/bars/600000?period=2h")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBarsUpstreamFailure(t *testing.T) {
	srv := newTestServer(t, &stubProvider{err: assert.AnError})
	w, body := doRequest(t, srv, "/api/v1/bars/600000?period=d")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.NotEmpty(t, body["error"])
}

func TestInstrumentEndpoint(t *testing.T) {
	srv := newTestServer(t, &stubProvider{})

	t.Run("按代码查询", func(t *testing.T) {
		w, body := doRequest(t, srv, "/api/v1/instruments/600000")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "浦发银行", body["name"])
	})

	t.Run("按名称查询", func(t *testing.T) {
		w, body := doRequest(t, srv, "/api/v1/instruments/浦发银行")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "600000", body["symbol"])
	})

	t.Run("未找到", func(t *testing.T) {
		w, _ := doRequest(t, srv, "/api/v1/instruments/999999")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestInstrumentEndpointDisabled(t *testing.T) {
	srv := NewServer(market.NewService(&stubProvider{}), nil)
	w, _ := doRequest(t, srv, "/api/v1/instruments/600000")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
