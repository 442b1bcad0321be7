package openai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/macrowatch/pkg/config"
	"github.com/wonny/macrowatch/pkg/logger"
)

func testConfig(baseURL, key string) *config.Config {
	cfg := &config.Config{LogLevel: "error", LogFormat: "console"}
	cfg.OpenAI.BaseURL = baseURL
	cfg.OpenAI.APIKey = key
	cfg.OpenAI.Model = "gpt-4o-mini"
	cfg.OpenAI.MaxRetries = 2
	cfg.OpenAI.RetryDelay = time.Millisecond
	return cfg
}

func TestSummarize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":" Labor market is cooling. "}}]}`))
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL, "sk-test")
	client := New(cfg, logger.New(cfg))

	summary, err := client.Summarize(context.Background(), "table")
	require.NoError(t, err)
	assert.Equal(t, "Labor market is cooling.", summary)
}

func TestSummarizeRetriesThenSucceeds(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`))
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL, "sk-test")
	client := New(cfg, logger.New(cfg))

	summary, err := client.Summarize(context.Background(), "table")
	require.NoError(t, err)
	assert.Equal(t, "ok", summary)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestSummarizeExhaustsRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL, "sk-test")
	client := New(cfg, logger.New(cfg))

	_, err := client.Summarize(context.Background(), "table")
	assert.Error(t, err)
	// initial attempt + 2 retries
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestSummarizeWithoutKey(t *testing.T) {
	cfg := testConfig("http://unused", "")
	client := New(cfg, logger.New(cfg))

	assert.False(t, client.Enabled())
	_, err := client.Summarize(context.Background(), "table")
	assert.Error(t, err)
}
