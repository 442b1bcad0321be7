package fred

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/wonny/macrowatch/internal/series"
	"github.com/wonny/macrowatch/pkg/config"
	"github.com/wonny/macrowatch/pkg/httputil"
	"github.com/wonny/macrowatch/pkg/logger"
)

// Client fetches observation series from the FRED API.
type Client struct {
	http    *httputil.Client
	baseURL string
	apiKey  string
	logger  *logger.Logger
}

// New creates a FRED client from app config.
func New(cfg *config.Config, log *logger.Logger) *Client {
	return &Client{
		http: httputil.New(log, cfg.Pipeline.FetchTimeout).
			WithRateLimit(cfg.Pipeline.RequestsPerSecond),
		baseURL: cfg.FRED.BaseURL,
		apiKey:  cfg.FRED.APIKey,
		logger:  log.WithField("source", "fred"),
	}
}

type observationsResponse struct {
	Observations []struct {
		Date  string `json:"date"`
		Value string `json:"value"`
	} `json:"observations"`
}

// Fetch retrieves the full history of one series, oldest first.
// FRED marks missing values with "."; those come back Valid=false.
func (c *Client) Fetch(ctx context.Context, seriesID string) (series.Observed, error) {
	params := url.Values{}
	params.Set("series_id", seriesID)
	params.Set("api_key", c.apiKey)
	params.Set("file_type", "json")
	params.Set("sort_order", "asc")

	endpoint := fmt.Sprintf("%s/series/observations?%s", c.baseURL, params.Encode())

	resp, err := c.http.Get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("fred: fetching %s: %w", seriesID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fred: fetching %s: unexpected status %d", seriesID, resp.StatusCode)
	}

	var payload observationsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("fred: decoding %s: %w", seriesID, err)
	}

	obs := make(series.Observed, 0, len(payload.Observations))
	for _, o := range payload.Observations {
		date, err := time.Parse("2006-01-02", o.Date)
		if err != nil {
			return nil, fmt.Errorf("fred: bad date %q in %s: %w", o.Date, seriesID, err)
		}

		point := series.Observation{Date: date.UTC()}
		if o.Value != "." {
			v, err := strconv.ParseFloat(o.Value, 64)
			if err != nil {
				return nil, fmt.Errorf("fred: bad value %q in %s: %w", o.Value, seriesID, err)
			}
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
