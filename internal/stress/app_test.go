package stress

import (
	"context"
	"testing"
	"time"

	"github.com/Borislavv/atomic-list/internal/stress/config"
)

// TestShortRun drives the whole workload for a moment and relies on the
// app's own final check: validation of every list plus the conservation
// law over the counters and payload checksums.
func TestShortRun(t *testing.T) {
	cfg := &config.Config{
		Lists:          3,
		AdderWorkers:   4,
		RemoverWorkers: 4,
		RunDuration:    2 * time.Second,
		StallWindow:    time.Second,
		MaxListLength:  5_000,
	}

	app, err := NewApp(cfg)
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	if err := app.Run(context.Background()); err != nil {
		t.Fatalf("stress run failed: %v", err)
	}

	if app.cnt.Added() == 0 {
		t.Fatal("workload made no progress: nothing was added")
	}
	if app.cnt.Taken() == 0 && app.cnt.Undone() == 0 {
		t.Fatal("workload made no progress: nothing was removed")
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := (&config.Config{}).WithDefaults()
	if cfg.Lists <= 0 || cfg.AdderWorkers <= 0 || cfg.RemoverWorkers <= 0 {
		t.Fatal("defaults must produce a runnable worker topology")
	}
	if cfg.StallWindow <= 0 || cfg.RunDuration <= 0 {
		t.Fatal("defaults must produce positive durations")
	}
}
