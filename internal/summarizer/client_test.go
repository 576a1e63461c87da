package summarizer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsummarizer/internal/config"
)

func testConfig(url string) config.SummarizerConfig {
	return config.SummarizerConfig{
		URL:           url,
		Model:         "qwen2.5:0.5b-instruct",
		MaxInputChars: 20000,
		Threads:       2,
		NumPredict:    80,
		NumCtx:        1024,
		Temperature:   0.2,
		TopP:          0.9,
		Timeout:       5 * time.Second,
	}
}

func TestBuildPrompt(t *testing.T) {
	got := BuildPrompt("hello world", 100)
	assert.Equal(t, "You are a concise technical summarizer.\n"+
		"Return 3-5 short bullets highlighting purpose, key points, metrics, and any actions.\n"+
		"Text:\nhello world", got)

	t.Run("hard cut in runes", func(t *testing.T) {
		assert.True(t, strings.HasSuffix(BuildPrompt("abcdef", 3), "Text:\nabc"))
		assert.True(t, strings.HasSuffix(BuildPrompt("héllo wörld", 7), "Text:\nhéllo w"))
		assert.True(t, strings.HasSuffix(BuildPrompt("日本語テキスト", 2), "Text:\n日本"))
	})

	t.Run("no cut", func(t *testing.T) {
		assert.True(t, strings.HasSuffix(BuildPrompt("short", 5), "Text:\nshort"))
		assert.True(t, strings.HasSuffix(BuildPrompt("whole", 0), "Text:\nwhole"))
	})
}

func TestClient_Summarize(t *testing.T) {
	var got generateRequest
	var path, contentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		contentType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"model":"qwen2.5:0.5b-instruct","response":"  - point one\n- point two \n","done":true}`))
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL + "/"))
	summary, err := c.Summarize(context.Background(), "some document text")

	require.NoError(t, err)
	assert.Equal(t, "- point one\n- point two", summary)
	assert.Equal(t, "/api/generate", path)
	assert.Equal(t, "application/json", contentType)
	assert.Equal(t, "qwen2.5:0.5b-instruct", got.Model)
	assert.False(t, got.Stream)
	assert.True(t, strings.HasSuffix(got.Prompt, "Text:\nsome document text"))
	assert.Equal(t, generateOptions{NumThread: 2, NumPredict: 80, NumCtx: 1024, Temperature: 0.2, TopP: 0.9}, got.Options)
}

func TestClient_RequestBodyShape(t *testing.T) {
	var raw map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		_, _ = w.Write([]byte(`{"response":"ok"}`))
	}))
	defer srv.Close()

	_, err := NewClient(testConfig(srv.URL)).Summarize(context.Background(), "x")
	require.NoError(t, err)

	assert.Equal(t, false, raw["stream"])
	opts, ok := raw["options"].(map[string]any)
	require.True(t, ok)
	for _, k := range []string{"num_thread", "num_predict", "num_ctx", "temperature", "top_p"} {
		assert.Contains(t, opts, k)
	}
}

func TestClient_EmptyResponseIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response":"   "}`))
	}))
	defer srv.Close()

	summary, err := NewClient(testConfig(srv.URL)).Summarize(context.Background(), "text")
	assert.NoError(t, err)
	assert.Equal(t, "", summary)
}

func TestClient_Errors(t *testing.T) {
	t.Run("non-2xx carries status and detail", func(t *testing.T) {
		calls := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"model 'nope' not found"}`))
		}))
		defer srv.Close()

		_, err := NewClient(testConfig(srv.URL)).Summarize(context.Background(), "text")

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInference)
		var ie *InferenceError
		require.ErrorAs(t, err, &ie)
		assert.Equal(t, http.StatusNotFound, ie.StatusCode)
		assert.Equal(t, "model 'nope' not found", ie.Detail)
		assert.Equal(t, 1, calls, "no retry")
	})

	t.Run("plain text error body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		_, err := NewClient(testConfig(srv.URL)).Summarize(context.Background(), "text")
		var ie *InferenceError
		require.ErrorAs(t, err, &ie)
		assert.Equal(t, "overloaded", ie.Detail)
		assert.Contains(t, err.Error(), "503")
	})

	t.Run("unreachable endpoint", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		_, err := NewClient(testConfig(url)).Summarize(context.Background(), "text")
		assert.ErrorIs(t, err, ErrInference)
		var ie *InferenceError
		require.ErrorAs(t, err, &ie)
		assert.Zero(t, ie.StatusCode)
		assert.NotNil(t, ie.Err)
	})

	t.Run("garbage body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html>`))
		}))
		defer srv.Close()

		_, err := NewClient(testConfig(srv.URL)).Summarize(context.Background(), "text")
		assert.ErrorIs(t, err, ErrInference)
	})

	t.Run("timeout", func(t *testing.T) {
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-release
		}))
		defer srv.Close()
		defer close(release)

		cfg := testConfig(srv.URL)
		cfg.Timeout = 50 * time.Millisecond
		_, err := NewClient(cfg).Summarize(context.Background(), "text")

		assert.ErrorIs(t, err, ErrInference)
		assert.True(t, IsTimeout(err))
	})
}

func TestClient_Metrics(t *testing.T) {
	status := http.StatusOK
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"response":"ok"}`))
	}))
	defer srv.Close()

	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)
	c := NewClient(testConfig(srv.URL), WithMetrics(m), WithHTTPClient(srv.Client()))

	_, err = c.Summarize(context.Background(), "a")
	require.NoError(t, err)
	status = http.StatusInternalServerError
	_, err = c.Summarize(context.Background(), "b")
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("error")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.duration))

	_, err = NewMetrics(reg)
	assert.Error(t, err, "duplicate registration")
}

func TestInferenceError(t *testing.T) {
	cause := errors.New("connection refused")
	err := &InferenceError{StatusCode: 502, Detail: "bad gateway", Err: cause}

	assert.Equal(t, "inference endpoint returned status 502: bad gateway: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrInference)
	assert.Equal(t, "inference endpoint", (&InferenceError{}).Error())
}
