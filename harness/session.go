package harness

import (
	"io"
	"os"
	"sync"

	"github.com/ethereum/go-ethereum/log"

	"github.com/testforge/subreport/capture"
	"github.com/testforge/subreport/report"
)

// Options is the run configuration consulted by the reporting pipeline.
type Options struct {
	CaptureMode     capture.Mode // "sys" or "none"
	LogCapture      bool         // install the logging plugin
	FailFast        bool         // stop the run after the first failure
	DebugOnFailure  bool         // fire the interactive-exception hook on failures
	NoSubtestGlyphs bool         // suppress per-subtest progress characters
	Verbose         bool         // one line per report instead of glyphs
}

// Session is the per-run state: options, plugin table, the report store and
// the fail-fast latch. Test execution within a session is single-threaded;
// the mutex only guards against observers on other goroutines.
type Session struct {
	Opts Options
	Log  log.Logger

	// DebugHook, when set, is invoked by the default ExceptionInteract
	// implementation. It stands in for a debugger attaching at the failure
	// point before execution continues.
	DebugHook func(item *Item, call *CallInfo, r report.Report)

	mu         sync.Mutex
	plugins    map[string]any
	reports    []report.Report
	shouldStop bool
	stopReason string

	terminal *Terminal
	hooks    Hooks
}

// NewSession builds a session, registers the capture manager and (when
// enabled) the logging plugin, and merges the subtest status categories into
// the terminal's status table.
func NewSession(opts Options, logger log.Logger, w io.Writer) *Session {
	if logger == nil {
		logger = log.Root()
	}
	if w == nil {
		w = os.Stdout
	}
	MergeSubtestStatuses()

	s := &Session{
		Opts:     opts,
		Log:      logger,
		plugins:  make(map[string]any),
		terminal: NewTerminal(w, opts.Verbose),
	}
	s.plugins[capture.PluginName] = capture.NewManager(opts.CaptureMode)
	if opts.LogCapture {
		s.plugins[capture.LoggingPluginName] = capture.NewLoggingPlugin()
	}
	s.hooks = &sessionHooks{session: s}
	return s
}

// Plugin looks up an optional collaborator by name; nil means absent.
func (s *Session) Plugin(name string) any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.plugins[name]
}

// RegisterPlugin installs or replaces a named plugin.
func (s *Session) RegisterPlugin(name string, p any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plugins[name] = p
}

// CaptureManager returns the registered capture manager, or nil.
func (s *Session) CaptureManager() *capture.Manager {
	m, _ := s.Plugin(capture.PluginName).(*capture.Manager)
	return m
}

// LoggingPlugin returns the registered logging plugin, or nil when log
// capture is disabled.
func (s *Session) LoggingPlugin() *capture.LoggingPlugin {
	p, _ := s.Plugin(capture.LoggingPluginName).(*capture.LoggingPlugin)
	return p
}

func (s *Session) Hooks() Hooks        { return s.hooks }
func (s *Session) Terminal() *Terminal { return s.terminal }

// SetHooks replaces the hook implementation; tests use this to observe the
// dispatch path.
func (s *Session) SetHooks(h Hooks) { s.hooks = h }

// SetShouldStop latches the fail-fast stop signal. The first reason wins.
func (s *Session) SetShouldStop(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.shouldStop {
		s.shouldStop = true
		s.stopReason = reason
	}
}

func (s *Session) ShouldStop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shouldStop
}

func (s *Session) StopReason() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopReason
}

func (s *Session) addReport(r report.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, r)
}

// Reports returns the dispatched reports in dispatch order.
func (s *Session) Reports() []report.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]report.Report, len(s.reports))
	copy(out, s.reports)
	return out
}
