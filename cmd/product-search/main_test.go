package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sternrassler/product-search/internal/testutil"
	"github.com/Sternrassler/product-search/pkg/client"
	"github.com/Sternrassler/product-search/pkg/logging"
	"github.com/Sternrassler/product-search/pkg/metrics"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

// execute runs the command tree and returns stdout and stderr.
func execute(t *testing.T, env map[string]string, args ...string) (string, string, error) {
	t.Helper()

	cmd := newRootCmd(envMap(env))
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "product-search.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestHealthEndpoint(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	healthHandler(w, req)

	resp := w.Result()
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))
}

func TestGetEnv(t *testing.T) {
	env := envMap(map[string]string{"SET": "value", "EMPTY": ""})

	assert.Equal(t, "value", getEnv(env, "SET", "default"))
	assert.Equal(t, "default", getEnv(env, "EMPTY", "default"))
	assert.Equal(t, "default", getEnv(env, "MISSING", "default"))
}

func TestConfigLayering(t *testing.T) {
	path := writeConfig(t, `
base_url: http://from-file:8080
timeout: 3s
log:
  level: warn
  pretty: true
browse:
  debounce: 150ms
  drop_stale: true
export:
  concurrency: 8
  max_pages: 5
`)

	t.Run("file over defaults", func(t *testing.T) {
		s := defaultSettings()
		require.NoError(t, loadFile(&s, path, true))

		assert.Equal(t, "http://from-file:8080", s.BaseURL)
		assert.Equal(t, 3*time.Second, s.Timeout)
		assert.Equal(t, logging.LevelWarn, s.Log.Level)
		assert.True(t, s.Log.Pretty)
		assert.Equal(t, 150*time.Millisecond, s.Browse.Debounce)
		assert.True(t, s.Browse.DropStale)
		assert.Equal(t, 8, s.Export.Concurrency)
		assert.Equal(t, 5, s.Export.MaxPages)
		assert.Equal(t, client.DefaultConfig("").UserAgent, s.UserAgent)
	})

	t.Run("env over file", func(t *testing.T) {
		s := defaultSettings()
		require.NoError(t, loadFile(&s, path, true))
		require.NoError(t, applyEnv(&s, envMap(map[string]string{
			envBaseURL:  "http://from-env:8080",
			envLogLevel: "debug",
		})))

		assert.Equal(t, "http://from-env:8080", s.BaseURL)
		assert.Equal(t, logging.LevelDebug, s.Log.Level)
	})

	t.Run("invalid env level", func(t *testing.T) {
		s := defaultSettings()
		err := applyEnv(&s, envMap(map[string]string{envLogLevel: "loud"}))
		require.Error(t, err)
		assert.Contains(t, err.Error(), envLogLevel)
	})

	t.Run("missing default file is ignored", func(t *testing.T) {
		s := defaultSettings()
		require.NoError(t, loadFile(&s, filepath.Join(t.TempDir(), "absent.yaml"), false))
		assert.Equal(t, defaultBaseURL, s.BaseURL)
	})

	t.Run("missing explicit file fails", func(t *testing.T) {
		s := defaultSettings()
		require.Error(t, loadFile(&s, filepath.Join(t.TempDir(), "absent.yaml"), true))
	})

	t.Run("malformed file fails", func(t *testing.T) {
		s := defaultSettings()
		bad := writeConfig(t, "base_url: [unclosed")
		require.Error(t, loadFile(&s, bad, true))
	})
}

func TestClientConfig(t *testing.T) {
	s := defaultSettings()
	s.BaseURL = "http://shop:9000"
	s.UserAgent = "ops/1.0"
	s.Timeout = 2 * time.Second

	cfg := s.clientConfig()
	assert.Equal(t, "http://shop:9000", cfg.BaseURL)
	assert.Equal(t, "ops/1.0", cfg.UserAgent)
	assert.Equal(t, 2*time.Second, cfg.Timeout)
	assert.Equal(t, client.DefaultSearchPath, cfg.SearchPath)
}

func TestRootCommand(t *testing.T) {
	root := newRootCmd(envMap(nil))
	assert.Equal(t, "product-search", root.Use)

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"browse", "export", "page"})

	for _, flag := range []string{"base-url", "config", "log-level", "log-pretty", "metrics-addr"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(flag), flag)
	}
}

func TestPageCommand(t *testing.T) {
	mock := testutil.NewMockSearchServer()
	defer mock.Close()
	mock.SetPages(testutil.SampleProducts(25), 10)

	stdout, _, err := execute(t, nil,
		"page", "--base-url", mock.URL(), "--query", "product", "--page", "1", "--log-level", "error")
	require.NoError(t, err)

	assert.Equal(t, 10, strings.Count(stdout, "<tr>"))
	assert.Contains(t, stdout, "Product 11")
	assert.Contains(t, stdout, "/products/edit/11")
	assert.Contains(t, stdout, "Page 2 / 3 (10 rows, prev true, next true)")

	req, ok := mock.LastRequest()
	require.True(t, ok)
	assert.Equal(t, "product", req.Query)
	assert.Equal(t, 1, req.Page)
}

func TestPageCommand_BaseURLPrecedence(t *testing.T) {
	mock := testutil.NewMockSearchServer()
	defer mock.Close()
	mock.SetPages(testutil.SampleProducts(3), 10)

	unreachable := "http://127.0.0.1:1"
	path := writeConfig(t, "base_url: "+unreachable+"\ntimeout: 1s\n")

	t.Run("env beats file", func(t *testing.T) {
		stdout, _, err := execute(t, map[string]string{envBaseURL: mock.URL()},
			"page", "--config", path, "--log-level", "error")
		require.NoError(t, err)
		assert.Contains(t, stdout, "Page 1 / 1")
	})

	t.Run("flag beats env", func(t *testing.T) {
		stdout, _, err := execute(t, map[string]string{envBaseURL: unreachable},
			"page", "--config", path, "--base-url", mock.URL(), "--log-level", "error")
		require.NoError(t, err)
		assert.Contains(t, stdout, "Page 1 / 1")
	})

	t.Run("file alone", func(t *testing.T) {
		_, _, err := execute(t, nil, "page", "--config", path, "--log-level", "error")
		require.Error(t, err)
	})
}

func TestPageCommand_Errors(t *testing.T) {
	mock := testutil.NewMockSearchServer()
	defer mock.Close()
	mock.SetFallback(testutil.NewServerErrorResponse())

	t.Run("server error", func(t *testing.T) {
		stdout, stderr, err := execute(t, nil, "page", "--base-url", mock.URL())
		require.Error(t, err)
		assert.Equal(t, http.StatusInternalServerError, client.StatusCodeOf(err))
		assert.Empty(t, stdout)
		assert.Contains(t, stderr, "Search failed")
	})

	t.Run("negative page", func(t *testing.T) {
		_, _, err := execute(t, nil, "page", "--base-url", mock.URL(), "--page", "-1")
		require.Error(t, err)
	})

	t.Run("bad log level", func(t *testing.T) {
		_, _, err := execute(t, nil, "page", "--base-url", mock.URL(), "--log-level", "loud")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "--log-level")
	})

	t.Run("relative base url", func(t *testing.T) {
		_, _, err := execute(t, nil, "page", "--base-url", "/products")
		require.ErrorIs(t, err, client.ErrInvalidConfig)
	})
}

func TestExportCommand(t *testing.T) {
	mock := testutil.NewMockSearchServer()
	defer mock.Close()
	total := mock.SetPages(testutil.SampleProducts(23), 10)

	stdout, _, err := execute(t, nil,
		"export", "--base-url", mock.URL(), "--query", "product", "--concurrency", "2", "--log-level", "error")
	require.NoError(t, err)

	assert.Equal(t, 23, strings.Count(stdout, "<tr>"))
	assert.Less(t, strings.Index(stdout, "Product 9<"), strings.Index(stdout, "Product 21<"))
	assert.Equal(t, total, mock.GetRequestCount())
}

func TestExportCommand_Summary(t *testing.T) {
	mock := testutil.NewMockSearchServer()
	defer mock.Close()
	mock.SetPages(testutil.SampleProducts(50), 10)

	_, stderr, err := execute(t, nil, "export", "--base-url", mock.URL(), "--log-level", "error")
	require.NoError(t, err)

	// Quantities 1..50 at unit price 10.
	assert.Contains(t, stderr, "Exported 50 products from 5 of 5 pages, total value 12,750.00")
}

func TestBrowseCommand_NeedsTerminal(t *testing.T) {
	_, _, err := execute(t, nil, "browse", "--base-url", "http://localhost:8080")
	require.ErrorIs(t, err, errNotTerminal)
}

func TestExportCommand_PartialFailure(t *testing.T) {
	mock := testutil.NewMockSearchServer()
	defer mock.Close()
	mock.SetPages(testutil.SampleProducts(30), 10)
	mock.SetResponse(1, testutil.NewServerErrorResponse())

	stdout, _, err := execute(t, nil, "export", "--base-url", mock.URL(), "--log-level", "error")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 pages failed")
	assert.Equal(t, 20, strings.Count(stdout, "<tr>"))
}

func TestMetricsEndpoint(t *testing.T) {
	mock := testutil.NewMockSearchServer()
	defer mock.Close()

	_, _, err := execute(t, nil, "page", "--base-url", mock.URL(), "--log-level", "error")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(w, req)

	resp := w.Result()
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	bodyStr := string(body)
	assert.Contains(t, bodyStr, "# HELP")
	assert.Contains(t, bodyStr, "product_search_requests_total")
	assert.Contains(t, bodyStr, "product_search_renders_total")
}

func TestMetricsRouter(t *testing.T) {
	srv := httptest.NewServer(metricsRouter())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "product_search_")

	resp, err = http.Post(srv.URL+"/metrics", "text/plain", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestMetricsServer(t *testing.T) {
	a := &app{metricsAddr: "127.0.0.1:0", logger: zerolog.Nop()}
	require.NoError(t, a.startMetrics())
	require.NotNil(t, a.metricsServer)
	require.NoError(t, a.stopMetrics())
	assert.Nil(t, a.metricsServer)

	// Stopping twice is a no-op.
	require.NoError(t, a.stopMetrics())
}
