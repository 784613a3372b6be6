package lifecycle_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/JaimeStill/merit/pkg/lifecycle"
)

type checker struct{ ready atomic.Bool }

func (c *checker) Ready() bool { return c.ready.Load() }

func TestReady(t *testing.T) {
	db := &checker{}

	lc := lifecycle.New()
	lc.Require(db)

	if lc.Ready() {
		t.Error("ready before WaitForStartup")
	}

	lc.WaitForStartup()
	if lc.Ready() {
		t.Error("ready while a required checker is not")
	}

	db.ready.Store(true)
	if !lc.Ready() {
		t.Error("not ready after startup with every checker ready")
	}

	if err := lc.Shutdown(time.Second); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if lc.Ready() {
		t.Error("ready after shutdown began")
	}
}

func TestStartupHooks(t *testing.T) {
	lc := lifecycle.New()

	var count atomic.Int32
	for range 3 {
		lc.OnStartup(func() { count.Add(1) })
	}
	lc.WaitForStartup()

	if got := count.Load(); got != 3 {
		t.Errorf("startup hooks: got %d, want 3", got)
	}
}

func TestShutdown(t *testing.T) {
	tests := []struct {
		name    string
		hook    time.Duration
		timeout time.Duration
		wantErr bool
	}{
		{"hooks complete", 0, 5 * time.Second, false},
		{"hooks exceed timeout", 500 * time.Millisecond, 50 * time.Millisecond, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lc := lifecycle.New()

			var cleaned atomic.Bool
			lc.OnShutdown(func() {
				<-lc.Context().Done()
				time.Sleep(tt.hook)
				cleaned.Store(true)
			})
			lc.WaitForStartup()

			err := lc.Shutdown(tt.timeout)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Shutdown() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !cleaned.Load() {
				t.Error("shutdown hook did not run")
			}
			if lc.Context().Err() == nil {
				t.Error("context not cancelled after shutdown")
			}
		})
	}
}
