package middleware_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/JaimeStill/merit/pkg/middleware"
)

func ok(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestApplyOrder(t *testing.T) {
	var order []string
	tag := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	mw := middleware.New()
	mw.Use(tag("first"), tag("second"))
	mw.Use(tag("third"))

	handler := mw.Apply(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	want := []string{"first", "second", "third", "handler"}
	if !slices.Equal(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestCORS(t *testing.T) {
	enabled := &middleware.CORSConfig{
		Enabled:          true,
		Origins:          []string{"https://portal.example.edu"},
		AllowedMethods:   []string{"GET", "POST"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
		MaxAge:           600,
	}

	tests := []struct {
		name        string
		cfg         *middleware.CORSConfig
		method      string
		origin      string
		preflight   bool
		wantStatus  int
		wantOrigin  string
		wantMethods string
		wantNext    bool
	}{
		{
			name:       "disabled",
			cfg:        &middleware.CORSConfig{Origins: enabled.Origins},
			method:     "GET",
			origin:     "https://portal.example.edu",
			wantStatus: http.StatusOK,
			wantNext:   true,
		},
		{
			name:       "allowed origin",
			cfg:        enabled,
			method:     "GET",
			origin:     "https://portal.example.edu",
			wantStatus: http.StatusOK,
			wantOrigin: "https://portal.example.edu",
			wantNext:   true,
		},
		{
			name:       "disallowed origin",
			cfg:        enabled,
			method:     "GET",
			origin:     "https://elsewhere.example.com",
			wantStatus: http.StatusOK,
			wantNext:   true,
		},
		{
			name:        "preflight",
			cfg:         enabled,
			method:      "OPTIONS",
			origin:      "https://portal.example.edu",
			preflight:   true,
			wantStatus:  http.StatusNoContent,
			wantOrigin:  "https://portal.example.edu",
			wantMethods: "GET, POST",
		},
		{
			name:       "options without request method",
			cfg:        enabled,
			method:     "OPTIONS",
			origin:     "https://portal.example.edu",
			wantStatus: http.StatusOK,
			wantOrigin: "https://portal.example.edu",
			wantNext:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var called bool
			handler := middleware.CORS(tt.cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				ok(w, r)
			}))

			req := httptest.NewRequest(tt.method, "/scores", nil)
			req.Header.Set("Origin", tt.origin)
			if tt.preflight {
				req.Header.Set("Access-Control-Request-Method", "POST")
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if called != tt.wantNext {
				t.Errorf("next called = %v, want %v", called, tt.wantNext)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("allow-origin = %q, want %q", got, tt.wantOrigin)
			}
			if got := rec.Header().Get("Access-Control-Allow-Methods"); got != tt.wantMethods {
				t.Errorf("allow-methods = %q, want %q", got, tt.wantMethods)
			}
			if tt.wantOrigin != "" && rec.Header().Get("Access-Control-Allow-Credentials") != "true" {
				t.Error("allow-credentials not set")
			}
			if tt.preflight && rec.Header().Get("Access-Control-Max-Age") != "600" {
				t.Errorf("max-age = %q, want 600", rec.Header().Get("Access-Control-Max-Age"))
			}
		})
	}
}

func TestLogger(t *testing.T) {
	tests := []struct {
		name      string
		handler   http.HandlerFunc
		wantLevel string
		wantCode  float64
	}{
		{
			name:      "implicit ok",
			handler:   func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("{}")) },
			wantLevel: "INFO",
			wantCode:  200,
		},
		{
			name:      "server error",
			handler:   func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusServiceUnavailable) },
			wantLevel: "ERROR",
			wantCode:  503,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&buf, nil))

			middleware.Logger(logger)(tt.handler).
				ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/scores?page=2", nil))

			var entry map[string]any
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				t.Fatalf("decode log entry: %v", err)
			}
			if entry["level"] != tt.wantLevel {
				t.Errorf("level = %v, want %s", entry["level"], tt.wantLevel)
			}
			if entry["status"] != tt.wantCode {
				t.Errorf("status = %v, want %v", entry["status"], tt.wantCode)
			}
			if entry["uri"] != "/scores?page=2" {
				t.Errorf("uri = %v", entry["uri"])
			}
		})
	}
}

func TestRecover(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	handler := middleware.Recover(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("ranking barrier violated")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("POST", "/generation", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content-type = %s", ct)
	}
	if !strings.Contains(rec.Body.String(), "ranking barrier violated") {
		t.Errorf("body = %s", rec.Body.String())
	}
	if !strings.Contains(buf.String(), "handler panic") {
		t.Error("panic not logged")
	}
}

func TestRecoverAbortHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := middleware.Recover(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	defer func() {
		if r := recover(); r != http.ErrAbortHandler {
			t.Errorf("recovered %v, want http.ErrAbortHandler", r)
		}
	}()
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
}

func TestCORSConfigFinalize(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg := middleware.CORSConfig{}
		if err := cfg.Finalize(nil); err != nil {
			t.Fatalf("finalize: %v", err)
		}
		if !slices.Equal(cfg.AllowedMethods, []string{"GET", "POST", "PUT", "OPTIONS"}) {
			t.Errorf("allowed_methods = %v", cfg.AllowedMethods)
		}
		if len(cfg.AllowedHeaders) != 2 {
			t.Errorf("allowed_headers = %v", cfg.AllowedHeaders)
		}
		if cfg.MaxAge != 3600 {
			t.Errorf("max_age = %d, want 3600", cfg.MaxAge)
		}
	})

	t.Run("env", func(t *testing.T) {
		t.Setenv("TEST_CORS_ENABLED", "true")
		t.Setenv("TEST_CORS_ORIGINS", "https://a.example.edu, ,https://b.example.edu")
		t.Setenv("TEST_CORS_CREDS", "not-a-bool")
		t.Setenv("TEST_CORS_MAX_AGE", "120")

		cfg := middleware.CORSConfig{}
		err := cfg.Finalize(&middleware.CORSEnv{
			Enabled:          "TEST_CORS_ENABLED",
			Origins:          "TEST_CORS_ORIGINS",
			AllowCredentials: "TEST_CORS_CREDS",
			MaxAge:           "TEST_CORS_MAX_AGE",
		})
		if err != nil {
			t.Fatalf("finalize: %v", err)
		}

		if !cfg.Enabled {
			t.Error("enabled should be true")
		}
		if !slices.Equal(cfg.Origins, []string{"https://a.example.edu", "https://b.example.edu"}) {
			t.Errorf("origins = %v", cfg.Origins)
		}
		if cfg.AllowCredentials {
			t.Error("unparseable bool should leave allow_credentials unset")
		}
		if cfg.MaxAge != 120 {
			t.Errorf("max_age = %d, want 120", cfg.MaxAge)
		}
	})
}

func TestCORSConfigMerge(t *testing.T) {
	base := middleware.CORSConfig{
		Origins:        []string{"https://base.example.edu"},
		AllowedMethods: []string{"GET"},
		MaxAge:         3600,
	}
	base.Merge(&middleware.CORSConfig{
		Enabled: true,
		Origins: []string{"https://overlay.example.edu"},
	})

	if !base.Enabled {
		t.Error("enabled should be true after merge")
	}
	if !slices.Equal(base.Origins, []string{"https://overlay.example.edu"}) {
		t.Errorf("origins = %v", base.Origins)
	}
	if !slices.Equal(base.AllowedMethods, []string{"GET"}) {
		t.Errorf("allowed_methods = %v, want base kept", base.AllowedMethods)
	}
	if base.MaxAge != 3600 {
		t.Errorf("max_age = %d, want 3600 kept", base.MaxAge)
	}
}
