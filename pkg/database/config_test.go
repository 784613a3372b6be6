package database_test

import (
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/JaimeStill/merit/pkg/database"
)

func TestFinalize(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg := database.Config{Name: "merit", User: "merit"}
		if err := cfg.Finalize(nil); err != nil {
			t.Fatalf("finalize: %v", err)
		}

		tests := []struct {
			name string
			got  any
			want any
		}{
			{"host", cfg.Host, "localhost"},
			{"port", cfg.Port, 5432},
			{"ssl_mode", cfg.SSLMode, "disable"},
			{"max_open_conns", cfg.MaxOpenConns, 25},
			{"max_idle_conns", cfg.MaxIdleConns, 5},
			{"conn_max_lifetime", cfg.ConnMaxLifetimeDuration(), 15 * time.Minute},
			{"conn_timeout", cfg.ConnTimeoutDuration(), 5 * time.Second},
			{"application_name", cfg.ApplicationName, "merit"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if tt.got != tt.want {
					t.Errorf("got %v, want %v", tt.got, tt.want)
				}
			})
		}
	})

	t.Run("env", func(t *testing.T) {
		t.Setenv("TEST_DB_HOST", "db.internal")
		t.Setenv("TEST_DB_PORT", "5433")
		t.Setenv("TEST_DB_NAME", "scores")
		t.Setenv("TEST_DB_USER", "scorer")
		t.Setenv("TEST_DB_MAX_OPEN", "50")
		t.Setenv("TEST_DB_MAX_IDLE", "not-a-number")
		t.Setenv("TEST_DB_APP", "merit-batch")

		cfg := database.Config{}
		err := cfg.Finalize(&database.Env{
			Host:            "TEST_DB_HOST",
			Port:            "TEST_DB_PORT",
			Name:            "TEST_DB_NAME",
			User:            "TEST_DB_USER",
			MaxOpenConns:    "TEST_DB_MAX_OPEN",
			MaxIdleConns:    "TEST_DB_MAX_IDLE",
			ApplicationName: "TEST_DB_APP",
		})
		if err != nil {
			t.Fatalf("finalize: %v", err)
		}

		if cfg.Host != "db.internal" || cfg.Port != 5433 {
			t.Errorf("addr = %s:%d", cfg.Host, cfg.Port)
		}
		if cfg.Name != "scores" || cfg.User != "scorer" {
			t.Errorf("name/user = %s/%s", cfg.Name, cfg.User)
		}
		if cfg.MaxOpenConns != 50 || cfg.MaxIdleConns != 5 {
			t.Errorf("pool = %d/%d, want 50/5", cfg.MaxOpenConns, cfg.MaxIdleConns)
		}
		if cfg.ApplicationName != "merit-batch" {
			t.Errorf("application_name = %s", cfg.ApplicationName)
		}
	})
}

func TestFinalizeValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     database.Config
		wantErr string
	}{
		{"missing name", database.Config{User: "merit"}, "name required"},
		{"missing user", database.Config{Name: "merit"}, "user required"},
		{"bad lifetime", database.Config{Name: "merit", User: "merit", ConnMaxLifetime: "bad"}, "invalid conn_max_lifetime"},
		{"bad timeout", database.Config{Name: "merit", User: "merit", ConnTimeout: "bad"}, "invalid conn_timeout"},
		{"bad port", database.Config{Name: "merit", User: "merit", Port: 70000}, "invalid port"},
		{"idle exceeds open", database.Config{Name: "merit", User: "merit", MaxOpenConns: 2, MaxIdleConns: 4}, "exceeds max_open_conns"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Finalize(nil)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestMerge(t *testing.T) {
	base := database.Config{Host: "localhost", Port: 5432, Name: "merit", User: "merit", MaxOpenConns: 25}
	base.Merge(&database.Config{Host: "db.internal", Name: "merit_test"})

	if base.Host != "db.internal" || base.Name != "merit_test" {
		t.Errorf("overlay not applied: %+v", base)
	}
	if base.Port != 5432 || base.User != "merit" || base.MaxOpenConns != 25 {
		t.Errorf("zero overlay fields replaced base: %+v", base)
	}
}

func TestDsn(t *testing.T) {
	cfg := database.Config{
		Host:            "db.internal",
		Port:            5433,
		Name:            "merit",
		User:            "scorer",
		Password:        "p@ss word/1",
		SSLMode:         "require",
		ApplicationName: "merit",
	}

	u, err := url.Parse(cfg.Dsn())
	if err != nil {
		t.Fatalf("parse dsn: %v", err)
	}

	if u.Scheme != "postgres" || u.Host != "db.internal:5433" || u.Path != "/merit" {
		t.Errorf("dsn = %s", cfg.Dsn())
	}
	if pw, _ := u.User.Password(); pw != cfg.Password || u.User.Username() != "scorer" {
		t.Errorf("credentials did not round trip: %s", cfg.Dsn())
	}
	if q := u.Query(); q.Get("sslmode") != "require" || q.Get("application_name") != "merit" {
		t.Errorf("query = %v", q)
	}
}

func TestNew(t *testing.T) {
	cfg := database.Config{Name: "merit", User: "merit", MaxOpenConns: 42, MaxIdleConns: 7}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	sys, err := database.New(&cfg, slog.Default())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	conn := sys.Connection()
	defer conn.Close()

	if got := conn.Stats().MaxOpenConnections; got != 42 {
		t.Errorf("MaxOpenConnections = %d, want 42", got)
	}
	if sys.Ready() {
		t.Error("ready before any ping")
	}
}

func TestPingUnreachable(t *testing.T) {
	cfg := database.Config{Host: "127.0.0.1", Port: 1, Name: "merit", User: "merit", ConnTimeout: "500ms"}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	sys, err := database.New(&cfg, slog.Default())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer sys.Connection().Close()

	err = sys.Ping(t.Context())
	if !errors.Is(err, database.ErrNotReady) {
		t.Fatalf("Ping() error = %v, want ErrNotReady", err)
	}
	if sys.Ready() {
		t.Error("ready after failed ping")
	}
}
