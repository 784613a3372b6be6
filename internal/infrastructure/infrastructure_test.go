package infrastructure_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/JaimeStill/merit/internal/config"
	"github.com/JaimeStill/merit/internal/infrastructure"
	"github.com/JaimeStill/merit/pkg/events"
	"github.com/JaimeStill/merit/pkg/storage"
)

const azuriteConnString = "DefaultEndpointsProtocol=http;AccountName=devstoreaccount1;AccountKey=Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw==;BlobEndpoint=http://127.0.0.1:10000/devstoreaccount1;"

func validConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Parse([]byte(`
[database]
name = "merit"
user = "merit"
`))
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	return cfg
}

func TestNew(t *testing.T) {
	infra, err := infrastructure.New(validConfig(t))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer infra.Database.Connection().Close()

	if infra.Lifecycle == nil || infra.Logger == nil || infra.Metrics == nil {
		t.Fatalf("infrastructure incomplete: %+v", infra)
	}
	if _, ok := infra.Storage.(storage.Disabled); !ok {
		t.Errorf("Storage = %T, want storage.Disabled without an endpoint", infra.Storage)
	}
	if _, ok := infra.Events.(events.Noop); !ok {
		t.Errorf("Events = %T, want events.Noop without brokers", infra.Events)
	}
	if infra.Lifecycle.Ready() {
		t.Error("ready before Start")
	}
}

func TestNewStorage(t *testing.T) {
	tests := []struct {
		name    string
		conn    string
		wantErr bool
	}{
		{"azurite", azuriteConnString, false},
		{"invalid connection string", "not-a-connection-string", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			cfg.Storage.ConnectionString = tt.conn

			infra, err := infrastructure.New(cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if !strings.Contains(err.Error(), "storage init failed") {
					t.Errorf("error = %v", err)
				}
				return
			}
			defer infra.Database.Connection().Close()
			if _, ok := infra.Storage.(storage.Disabled); ok {
				t.Error("storage disabled with a connection string")
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		cfg       config.LogConfig
		wantJSON  bool
		wantDebug bool
	}{
		{"text info", config.LogConfig{Format: "text", Level: "info"}, false, false},
		{"json debug", config.LogConfig{Format: "json", Level: "debug"}, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := infrastructure.NewLogger(&tt.cfg, &buf)

			logger.Debug("routes registered", "count", 9)
			if got := buf.Len() > 0; got != tt.wantDebug {
				t.Errorf("debug emitted = %v, want %v", got, tt.wantDebug)
			}

			buf.Reset()
			logger.Info("batch complete", "saved", 3)
			line := buf.Bytes()

			var entry map[string]any
			isJSON := json.Unmarshal(line, &entry) == nil
			if isJSON != tt.wantJSON {
				t.Errorf("json = %v, want %v: %s", isJSON, tt.wantJSON, line)
			}
			if !bytes.Contains(line, []byte("batch complete")) {
				t.Errorf("missing message: %s", line)
			}
		})
	}
}
