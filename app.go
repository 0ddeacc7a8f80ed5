package subreport

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/urfave/cli/v2"

	"github.com/testforge/subreport/exitcodes"
	"github.com/testforge/subreport/harness"
	"github.com/testforge/subreport/metrics"
	"github.com/testforge/subreport/registry"
	"github.com/testforge/subreport/report"
)

// App runs the registered tests, dispatches their reports and renders the
// run summary. A fresh session is created per run so counts and the
// fail-fast latch never leak between runs.
type App struct {
	ctx      context.Context
	config   *Config
	version  string
	registry *registry.Registry
	result   *harness.RunResult

	running atomic.Bool
	done    chan struct{}
	wg      sync.WaitGroup

	shutdownCallback func(error) // Callback to signal application shutdown
}

func New(ctx context.Context, config *Config, version string, shutdownCallback func(error)) (*App, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}

	config.Log.Debug("Creating app with config",
		"planFile", config.PlanFile,
		"captureMode", config.CaptureMode,
		"runInterval", config.RunInterval,
		"runOnce", config.RunOnce,
		"failFast", config.FailFast)

	reg, err := registry.NewRegistry(registry.Config{
		Log:      config.Log,
		PlanFile: config.PlanFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create registry: %w", err)
	}

	return &App{
		ctx:              ctx,
		config:           config,
		version:          version,
		registry:         reg,
		done:             make(chan struct{}),
		shutdownCallback: shutdownCallback,
	}, nil
}

// Start runs the tests once, then either exits (run-once mode) or keeps
// re-running them at the configured interval.
func (a *App) Start(ctx context.Context) error {
	// Panics outside test functions are runtime errors, not test failures
	defer func() {
		if r := recover(); r != nil {
			a.config.Log.Error("Runtime error occurred", "error", r)
			os.Exit(exitcodes.RuntimeErr)
		}
	}()

	a.ctx = ctx
	a.done = make(chan struct{})
	a.running.Store(true)

	if a.config.RunOnce {
		a.config.Log.Info("Starting subreport in run-once mode")
	} else {
		a.config.Log.Info("Starting subreport in continuous mode", "interval", a.config.RunInterval)
	}

	if err := a.runTests(); err != nil {
		a.config.Log.Error("Runtime error running tests", "error", err)
		return cli.Exit(err.Error(), exitcodes.RuntimeErr)
	}

	if a.config.RunOnce {
		a.config.Log.Info("Tests completed, exiting (run-once mode)")

		if a.result != nil && a.result.Status == report.OutcomeFailed {
			a.config.Log.Warn("Run-once test run completed with failures, returning exit code 1")
			return NewTestFailureError(summaryOf(a.result))
		}

		go func() {
			a.shutdownCallback(nil)
		}()
		return nil
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.config.Log.Debug("Starting periodic test runner goroutine", "interval", a.config.RunInterval)

		for {
			select {
			case <-time.After(a.config.RunInterval):
				if !a.running.Load() {
					a.config.Log.Debug("Service stopped, exiting periodic test runner")
					return
				}

				a.config.Log.Info("Running periodic tests")
				if err := a.runTests(); err != nil {
					a.config.Log.Error("Error running periodic tests", "error", err)
				}

			case <-a.done:
				a.config.Log.Debug("Done signal received, stopping periodic test runner")
				return

			case <-ctx.Done():
				a.config.Log.Debug("Context canceled, stopping periodic test runner")
				a.running.Store(false)
				return
			}
		}
	}()
	a.config.Log.Debug("subreport started successfully")
	return nil
}

// runTests executes one full run and processes the results.
func (a *App) runTests() error {
	items, err := a.registry.Items()
	if err != nil {
		return NewRuntimeError(err)
	}

	session := harness.NewSession(harness.Options{
		CaptureMode:     a.config.CaptureMode,
		LogCapture:      a.config.LogCapture,
		FailFast:        a.config.FailFast,
		DebugOnFailure:  a.config.DebugOnFailure,
		NoSubtestGlyphs: a.config.NoSubtestGlyphs,
		Verbose:         a.config.Verbose,
	}, a.config.Log, os.Stdout)

	result, err := harness.NewRunner(session).Run(a.ctx, items)
	if err != nil {
		a.config.Log.Error("Runtime error running tests", "error", err)
		return NewRuntimeError(err)
	}
	a.result = result

	a.printResultsTable(session, result)
	session.Terminal().WriteSummary(result.Duration)
	a.emitMetrics(result)

	a.config.Log.Info("Test run completed", "run_id", result.RunID, "status", result.Status)
	return nil
}

// Stop stops the subreport service.
func (a *App) Stop(ctx context.Context) error {
	a.config.Log.Info("Stopping subreport")

	if !a.running.Load() {
		a.config.Log.Debug("Service already stopped, nothing to do")
		return nil
	}

	a.running.Store(false)

	a.config.Log.Debug("Sending done signal to goroutines")
	close(a.done)

	a.config.Log.Info("subreport stopped successfully")
	return nil
}

// Stopped returns true if the subreport service is stopped.
func (a *App) Stopped() bool {
	return !a.running.Load()
}

// WaitForShutdown blocks until all goroutines have terminated.
// This is useful in tests to ensure complete cleanup before moving to the next test.
func (a *App) WaitForShutdown(ctx context.Context) error {
	a.config.Log.Debug("Waiting for all goroutines to terminate")

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		a.config.Log.Debug("All goroutines terminated successfully")
		return nil
	case <-ctx.Done():
		a.config.Log.Warn("Timed out waiting for goroutines to terminate", "error", ctx.Err())
		return ctx.Err()
	}
}

// printResultsTable prints one row per dispatched report, subtest rows
// nested under their host test.
func (a *App) printResultsTable(session *harness.Session, result *harness.RunResult) {
	reports := session.Reports()
	if len(reports) == 0 {
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle(fmt.Sprintf("Test Results (%s)", formatDuration(result.Duration)))

	t.AppendHeader(table.Row{"Type", "ID", "Duration", "Status", "Detail"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "ID", WidthMax: 60, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Duration", Align: text.AlignRight},
		{Name: "Detail", WidthMax: 80, WidthMaxEnforcer: text.WrapSoft},
	})

	for _, r := range reports {
		base := r.Base()
		kind := "Test"
		id := base.NodeID
		if sub, ok := r.(*report.SubtestReport); ok {
			kind = "Subtest"
			id = "└── " + sub.Context.Description()
		}
		t.AppendRow(table.Row{
			kind,
			id,
			formatDuration(base.Duration),
			resultString(base),
			firstLine(base.Longrepr),
		})
	}

	switch result.Status {
	case report.OutcomePassed:
		t.SetStyle(table.StyleColoredBlackOnGreenWhite)
	case report.OutcomeSkipped:
		t.SetStyle(table.StyleColoredBlackOnYellowWhite)
	default:
		t.SetStyle(table.StyleColoredBlackOnRedWhite)
	}

	t.AppendFooter(table.Row{
		"TOTAL", "", formatDuration(result.Duration), resultString(&report.TestReport{Outcome: result.Status}), "",
	})
	t.Render()
}

func (a *App) emitMetrics(result *harness.RunResult) {
	failed := 0
	total := 0
	for category, n := range result.Counts {
		total += n
		if category == "failed" || category == "errors" || category == "subtests failed" {
			failed += n
		}
		for i := 0; i < n; i++ {
			metrics.RecordReport(result.RunID, category)
		}
	}
	metrics.RecordRun(result.RunID, result.Status, total, failed, result.Duration)
}

// resultString returns a short status marker for a report row.
func resultString(r *report.TestReport) string {
	switch {
	case r.XFail && r.Outcome == report.OutcomeSkipped:
		return "x xfail"
	case r.XFail && r.Outcome == report.OutcomePassed:
		return "X xpass"
	case r.Outcome == report.OutcomePassed:
		return "✓ pass"
	case r.Outcome == report.OutcomeSkipped:
		return "- skip"
	default:
		return "✗ fail"
	}
}

func firstLine(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			return s[:i]
		}
	}
	if len(s) > 80 {
		return s[:70] + "..."
	}
	return s
}

// summaryOf renders a plain-text run summary for error messages.
func summaryOf(result *harness.RunResult) string {
	failed := result.Counts["failed"] + result.Counts["errors"] + result.Counts["subtests failed"]
	return fmt.Sprintf("%d report(s) failed (run %s)", failed, result.RunID)
}

// Helper function to format duration to seconds with 1 decimal place
func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}
