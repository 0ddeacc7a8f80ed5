package subreport

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"

	"github.com/testforge/subreport/capture"
	"github.com/testforge/subreport/flags"
)

// Config holds the application configuration
type Config struct {
	PlanFile        string        // Path to the run plan; empty runs the whole catalog
	CaptureMode     capture.Mode  // "sys" or "none"
	LogCapture      bool          // Capture log records emitted during tests
	FailFast        bool          // Stop the run after the first failure
	DebugOnFailure  bool          // Fire the interactive-exception hook on failures
	NoSubtestGlyphs bool          // Suppress per-subtest progress characters
	Verbose         bool          // One status line per report instead of glyphs
	RunInterval     time.Duration // Interval between runs
	RunOnce         bool          // Indicates if the service should exit after one run
	Log             log.Logger
}

// NewConfig creates a new Config from cli context
func NewConfig(ctx *cli.Context, log log.Logger) (*Config, error) {
	if err := flags.CheckRequired(ctx); err != nil {
		return nil, fmt.Errorf("missing required flags: %w", err)
	}

	mode := capture.Mode(ctx.String(flags.Capture.Name))
	if mode != capture.ModeSys && mode != capture.ModeNone {
		return nil, fmt.Errorf("invalid capture mode %q: must be %q or %q",
			mode, capture.ModeSys, capture.ModeNone)
	}

	planFile := ctx.String(flags.Plan.Name)
	if planFile != "" {
		abs, err := filepath.Abs(planFile)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve absolute path for plan file '%s': %w", planFile, err)
		}
		planFile = abs
	}

	runInterval := ctx.Duration(flags.RunInterval.Name)
	runOnce := runInterval == 0

	return &Config{
		PlanFile:        planFile,
		CaptureMode:     mode,
		LogCapture:      ctx.Bool(flags.LogCapture.Name),
		FailFast:        ctx.Bool(flags.FailFast.Name),
		DebugOnFailure:  ctx.Bool(flags.DebugOnFailure.Name),
		NoSubtestGlyphs: ctx.Bool(flags.NoSubtestGlyphs.Name),
		Verbose:         ctx.Bool(flags.Verbose.Name),
		RunInterval:     runInterval,
		RunOnce:         runOnce,
		Log:             log,
	}, nil
}
