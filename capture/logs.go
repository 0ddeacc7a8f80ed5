package capture

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/log"

	"github.com/testforge/subreport/report"
)

// LoggingPluginName is the name the logging plugin is registered under in
// the host session's plugin table. When no plugin is registered, log capture
// is a no-op.
const LoggingPluginName = "logging-plugin"

// LoggingPlugin enables scoped log capture. Its formatter renders one
// captured record per line.
type LoggingPlugin struct {
	Format func(r slog.Record, extra []slog.Attr) string
}

func NewLoggingPlugin() *LoggingPlugin {
	return &LoggingPlugin{Format: formatRecord}
}

func formatRecord(r slog.Record, extra []slog.Attr) string {
	var b strings.Builder
	b.WriteString(strings.ToUpper(r.Level.String()))
	b.WriteString(" ")
	b.WriteString(r.Message)
	for _, a := range extra {
		fmt.Fprintf(&b, " %s=%v", a.Key, a.Value)
	}
	r.Attrs(func(a slog.Attr) bool {
		fmt.Fprintf(&b, " %s=%v", a.Key, a.Value)
		return true
	})
	return b.String()
}

// LogHandle is the scoped log collector: Text returns everything captured so
// far, End detaches the collector, UpdateReport attaches the captured text
// as a report section.
type LogHandle interface {
	Text() string
	End()
	UpdateReport(r *report.TestReport)
}

// StartLogs attaches a record-collecting handler in front of the default
// logger for the duration of one scope. With no logging plugin installed it
// returns a null collector that records nothing and attaches no section.
func StartLogs(lp *LoggingPlugin) LogHandle {
	if lp == nil {
		return NullLogs{}
	}
	prev := log.Root()
	h := &recordingHandler{
		mu:     &sync.Mutex{},
		buf:    &bytes.Buffer{},
		format: lp.Format,
		next:   prev.Handler(),
	}
	log.SetDefault(log.NewLogger(h))
	return &capturedLogs{handler: h, prev: prev}
}

type capturedLogs struct {
	handler *recordingHandler
	prev    log.Logger
	once    sync.Once
}

func (c *capturedLogs) Text() string {
	return c.handler.text()
}

func (c *capturedLogs) End() {
	c.once.Do(func() {
		log.SetDefault(c.prev)
	})
}

// UpdateReport attaches the log section unconditionally: an empty section
// still tells the reader that log capture was on and nothing was logged.
func (c *capturedLogs) UpdateReport(r *report.TestReport) {
	r.AddSection("Captured log call", c.Text())
}

// NullLogs is the collector used when the logging plugin is absent.
type NullLogs struct{}

func (NullLogs) Text() string                    { return "" }
func (NullLogs) End()                            {}
func (NullLogs) UpdateReport(*report.TestReport) {}

// recordingHandler tees records into a buffer while forwarding them to the
// handler that was installed before the scope began.
type recordingHandler struct {
	mu     *sync.Mutex
	buf    *bytes.Buffer
	format func(r slog.Record, extra []slog.Attr) string
	extra  []slog.Attr
	next   slog.Handler
}

func (h *recordingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recordingHandler) Handle(ctx context.Context, r slog.Record) error {
	h.mu.Lock()
	h.buf.WriteString(h.format(r, h.extra))
	h.buf.WriteByte('\n')
	h.mu.Unlock()

	if h.next != nil && h.next.Enabled(ctx, r.Level) {
		return h.next.Handle(ctx, r)
	}
	return nil
}

func (h *recordingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	var next slog.Handler
	if h.next != nil {
		next = h.next.WithAttrs(attrs)
	}
	extra := make([]slog.Attr, 0, len(h.extra)+len(attrs))
	extra = append(extra, h.extra...)
	extra = append(extra, attrs...)
	return &recordingHandler{mu: h.mu, buf: h.buf, format: h.format, extra: extra, next: next}
}

func (h *recordingHandler) WithGroup(name string) slog.Handler {
	var next slog.Handler
	if h.next != nil {
		next = h.next.WithGroup(name)
	}
	return &recordingHandler{mu: h.mu, buf: h.buf, format: h.format, extra: h.extra, next: next}
}

func (h *recordingHandler) text() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.buf.String()
}
