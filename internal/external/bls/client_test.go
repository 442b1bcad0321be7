package bls

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/macrowatch/pkg/config"
	"github.com/wonny/macrowatch/pkg/logger"
)

func testConfig(baseURL string) *config.Config {
	cfg := &config.Config{LogLevel: "error", LogFormat: "console"}
	cfg.BLS.BaseURL = baseURL
	cfg.BLS.APIKey = "reg-key"
	cfg.Pipeline.FetchTimeout = 5 * time.Second
	cfg.Pipeline.RequestsPerSecond = 100
	return cfg
}

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/timeseries/data/", r.URL.Path)

		var req timeseriesRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"CES0000000001"}, req.SeriesID)
		assert.Equal(t, "2021", req.StartYear)
		assert.Equal(t, "2025", req.EndYear)
		assert.Equal(t, "reg-key", req.RegistrationKey)

		w.Write([]byte(`{
			"status": "REQUEST_SUCCEEDED",
			"Results": {"series": [{"seriesID": "CES0000000001", "data": [
				{"year": "2025", "period": "M07", "value": "159500"},
				{"year": "2025", "period": "M06", "value": "159400"},
				{"year": "2024", "period": "M13", "value": "158000"},
				{"year": "2024", "period": "Q01", "value": "1"}
			]}]}
		}`))
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	client := New(cfg, logger.New(cfg), 4)
	client.now = func() time.Time {
		return time.Date(2025, 8, 16, 0, 0, 0, 0, time.UTC)
	}

	obs, err := client.Fetch(context.Background(), "CES0000000001")
	require.NoError(t, err)

	// M13 annual average and quarterly periods are dropped.
	require.Len(t, obs, 2)
	assert.Equal(t, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), obs[0].Date)
	assert.Equal(t, 159500.0, obs[0].Value)
	assert.True(t, obs[0].Valid)
}

func TestFetchFailedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"REQUEST_NOT_PROCESSED","message":["daily threshold reached"],"Results":{}}`))
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	client := New(cfg, logger.New(cfg), 4)

	_, err := client.Fetch(context.Background(), "CES0000000001")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "REQUEST_NOT_PROCESSED")
	assert.Contains(t, err.Error(), "daily threshold reached")
}

func TestMonthlyPeriod(t *testing.T) {
	tests := []struct {
		period string
		month  int
		ok     bool
	}{
		{"M01", 1, true},
		{"M12", 12, true},
		{"M13", 0, false},
		{"Q01", 0, false},
		{"A01", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		m, ok := monthlyPeriod(tt.period)
		if ok != tt.ok || m != tt.month {
			t.Errorf("monthlyPeriod(%q) = (%d, %v), want (%d, %v)", tt.period, m, ok, tt.month, tt.ok)
		}
	}
}
