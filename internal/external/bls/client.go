package bls

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/macrowatch/internal/series"
	"github.com/wonny/macrowatch/pkg/config"
	"github.com/wonny/macrowatch/pkg/httputil"
	"github.com/wonny/macrowatch/pkg/logger"
)

// Client fetches monthly series from the BLS v2 timeseries API.
type Client struct {
	http          *httputil.Client
	baseURL       string
	apiKey        string
	lookbackYears int
	now           func() time.Time
	logger        *logger.Logger
}

// New creates a BLS client. lookbackYears bounds the requested history;
// the v2 API caps a single request at 20 years with a key, 10 without.
func New(cfg *config.Config, log *logger.Logger, lookbackYears int) *Client {
	return &Client{
		http: httputil.New(log, cfg.Pipeline.FetchTimeout).
			WithRateLimit(cfg.Pipeline.RequestsPerSecond),
		baseURL:       cfg.BLS.BaseURL,
		apiKey:        cfg.BLS.APIKey,
		lookbackYears: lookbackYears,
		now:           time.Now,
		logger:        log.WithField("source", "bls"),
	}
}

type timeseriesRequest struct {
	SeriesID        []string `json:"seriesid"`
	StartYear       string   `json:"startyear"`
	EndYear         string   `json:"endyear"`
	RegistrationKey string   `json:"registrationkey,omitempty"`
}

type timeseriesResponse struct {
	Status  string   `json:"status"`
	Message []string `json:"message"`
	Results struct {
		Series []struct {
			SeriesID string `json:"seriesID"`
			Data     []struct {
				Year   string `json:"year"`
				Period string `json:"period"`
				Value  string `json:"value"`
			} `json:"data"`
		} `json:"series"`
	} `json:"Results"`
}

// Fetch retrieves the monthly history of one series. Monthly periods
// are M01..M12; M13 (annual average) is dropped.
func (c *Client) Fetch(ctx context.Context, seriesID string) (series.Observed, error) {
	endYear := c.now().UTC().Year()
	reqBody := timeseriesRequest{
		SeriesID:        []string{seriesID},
		StartYear:       strconv.Itoa(endYear - c.lookbackYears),
		EndYear:         strconv.Itoa(endYear),
		RegistrationKey: c.apiKey,
	}

	endpoint := fmt.Sprintf("%s/timeseries/data/", c.baseURL)
	resp, err := c.http.PostJSON(ctx, endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("bls: fetching %s: %w", seriesID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bls: fetching %s: unexpected status %d", seriesID, resp.StatusCode)
	}

	var payload timeseriesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("bls: decoding %s: %w", seriesID, err)
	}

	if payload.Status != "REQUEST_SUCCEEDED" {
		return nil, fmt.Errorf("bls: fetching %s: status %s (%s)",
			seriesID, payload.Status, strings.Join(payload.Message, "; "))
	}
	if len(payload.Results.Series) == 0 {
		return nil, fmt.Errorf("bls: fetching %s: empty result set", seriesID)
	}

	data := payload.Results.Series[0].Data
	obs := make(series.Observed, 0, len(data))
	for _, d := range data {
		month, ok := monthlyPeriod(d.Period)
		if !ok {
			continue
		}

		year, err := strconv.Atoi(d.Year)
		if err != nil {
			return nil, fmt.Errorf("bls: bad year %q in %s: %w", d.Year, seriesID, err)
		}

		point := series.Observation{
			Date: time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC),
		}
		if v, err := strconv.ParseFloat(d.Value, 64); err == nil {
			point.Value = v
			point.Valid = true
		}
		obs = append(obs, point)
	}

	c.logger.WithFields(map[string]interface{}{
		"series_id":    seriesID,
		"observations": len(obs),
	}).Debug("fetched series")

	return obs, nil
}

// monthlyPeriod parses M01..M12; anything else (M13 annual averages,
// quarterly or semiannual periods) reports false.
func monthlyPeriod(period string) (int, bool) {
	if len(period) != 3 || period[0] != 'M' {
		return 0, false
	}
	m, err := strconv.Atoi(period[1:])
	if err != nil || m < 1 || m > 12 {
		return 0, false
	}
	return m, true
}
