package http_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/tidewatch/redtide/internal/adapter/http"
	"github.com/tidewatch/redtide/internal/domain"
	"github.com/tidewatch/redtide/internal/observability"
	"github.com/tidewatch/redtide/internal/service"
	"github.com/tidewatch/redtide/internal/store"
)

const envFixture = `Date,Temp,Salt
2019-08-15,24.0,32.0
2020-08-15,25.0,33.0
2021-08-15,26.0,34.0
2020-02-01,9.0,33.5
2020-06-01,21.0,32.4
2020-07-01,23.0,32.7
`

const occFixture = `Date,Temp,Salt,Density
2020-08-14,26.0,33.2,800
`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, warm bool) *httpadapter.Server {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "env.csv"), []byte(envFixture), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "occ.csv"), []byte(occFixture), 0o644))

	st := store.New([]string{dir}, "env.csv", "occ.csv",
		discardLogger(), observability.NewMetricsForTesting())
	svc := service.New(st, domain.DefaultRules(), discardLogger(),
		observability.NewMetricsForTesting(), 100)
	if warm {
		require.NoError(t, svc.WarmUp())
	}
	return httpadapter.NewServer(":0", svc, discardLogger())
}

func doRequest(srv *httpadapter.Server, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	srv.ServeHTTP(rec, req)
	return rec
}

func TestHealthzReturns200(t *testing.T) {
	rec := doRequest(newTestServer(t, true), "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyz(t *testing.T) {
	t.Run("503 before the datasets load", func(t *testing.T) {
		rec := doRequest(newTestServer(t, false), "/readyz")

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "not ready", body["status"])
	})

	t.Run("200 once warmed", func(t *testing.T) {
		rec := doRequest(newTestServer(t, true), "/readyz")

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestMetricsEndpoint(t *testing.T) {
	rec := doRequest(newTestServer(t, true), "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "go_goroutines") ||
		strings.Contains(rec.Body.String(), "redtide_"))
}

func TestHistoryEndpoint(t *testing.T) {
	srv := newTestServer(t, true)

	t.Run("known date", func(t *testing.T) {
		rec := doRequest(srv, "/api/history?date=2020-08-15")

		require.Equal(t, http.StatusOK, rec.Code)

		var body service.HistoryResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "2020-08-15", body.Date)
		assert.InDelta(t, 25.0, body.MeanTemp, 1e-9)
		assert.Equal(t, domain.TierSevere, body.Assessment.Tier)
		assert.NotEmpty(t, body.Assessment.Reasons)
	})

	t.Run("date with no records", func(t *testing.T) {
		rec := doRequest(srv, "/api/history?date=1999-01-01")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("malformed date", func(t *testing.T) {
		rec := doRequest(srv, "/api/history?date=yesterday")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestClimatologyEndpoint(t *testing.T) {
	srv := newTestServer(t, true)

	t.Run("month and day", func(t *testing.T) {
		rec := doRequest(srv, "/api/climatology?month=8&day=15")

		require.Equal(t, http.StatusOK, rec.Code)

		var body service.ClimatologyResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "08-15", body.MonthDay)
		assert.InDelta(t, 25.0, body.MeanTemp, 1e-9) // (24 + 25 + 26) / 3
		assert.Equal(t, 3, body.Samples)
	})

	t.Run("future date form, year ignored", func(t *testing.T) {
		rec := doRequest(srv, "/api/climatology?date=2031-08-15")

		require.Equal(t, http.StatusOK, rec.Code)

		var body service.ClimatologyResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "08-15", body.MonthDay)
	})

	t.Run("no historical samples", func(t *testing.T) {
		rec := doRequest(srv, "/api/climatology?month=12&day=25")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("missing parameters", func(t *testing.T) {
		rec := doRequest(srv, "/api/climatology")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestPredictEndpoint(t *testing.T) {
	srv := newTestServer(t, true)

	t.Run("prediction with similar days", func(t *testing.T) {
		rec := doRequest(srv, "/api/predict?temp=25.5&k=3")

		require.Equal(t, http.StatusOK, rec.Code)

		var body service.PredictionResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.InDelta(t, 25.5, body.Temp, 1e-9)
		assert.NotZero(t, body.Model.Slope)
		assert.Len(t, body.SimilarDays, 3)
	})

	t.Run("missing temperature", func(t *testing.T) {
		rec := doRequest(srv, "/api/predict")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid k", func(t *testing.T) {
		rec := doRequest(srv, "/api/predict?temp=25&k=zero")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestScatterEndpoint(t *testing.T) {
	rec := doRequest(newTestServer(t, true), "/api/scatter")

	require.Equal(t, http.StatusOK, rec.Code)

	var body service.ScatterResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Environment, 6)
	assert.Len(t, body.Occurrences, 1)
	assert.Equal(t, 6, body.TotalRecords)
	assert.InDelta(t, 20.0, body.OptimalZone.TempMin, 1e-9)
}

func TestDataUnavailableBlocksQueries(t *testing.T) {
	st := store.New([]string{t.TempDir()}, "env.csv", "occ.csv",
		discardLogger(), observability.NewMetricsForTesting())
	svc := service.New(st, domain.DefaultRules(), discardLogger(),
		observability.NewMetricsForTesting(), 100)
	srv := httpadapter.NewServer(":0", svc, discardLogger())

	for _, path := range []string{
		"/api/history?date=2020-08-15",
		"/api/climatology?month=8&day=15",
		"/api/predict?temp=25",
		"/api/scatter",
	} {
		rec := doRequest(srv, path)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, "path %s", path)
	}
}
