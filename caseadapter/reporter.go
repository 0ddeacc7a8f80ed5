package caseadapter

import (
	"sync"
	"time"

	"github.com/testforge/subreport/harness"
	"github.com/testforge/subreport/report"
)

// Reporter is the ScopeListener that feeds sub-scope completions into the
// host's reporting pipeline, producing the same outcome records as the
// subtest package's scopes. Timing fields are zero: the legacy callback API
// reports completions after the fact, with no scope timers of its own.
type Reporter struct {
	session *harness.Session

	mu        sync.Mutex
	registry  *ListenerRegistry
	prev      ScopeListener
	installed bool
}

func NewReporter(session *harness.Session) *Reporter {
	return &Reporter{session: session}
}

// Install binds the reporter into the registry. Repeated installation within
// the same process is a no-op, so re-running configuration (e.g. in-process
// test sessions) cannot stack bindings or lose the original one.
func (r *Reporter) Install(reg *ListenerRegistry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.installed {
		return
	}
	r.prev = reg.Bind(r)
	r.registry = reg
	r.installed = true
}

// Uninstall restores the binding that was active before Install.
func (r *Reporter) Uninstall() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.installed {
		return
	}
	r.registry.Bind(r.prev)
	r.registry = nil
	r.prev = nil
	r.installed = false
}

// SubScopeDone converts one sub-scope completion into an outcome record and
// dispatches it. A notification whose scope identity cannot be resolved
// (no name and no parameters) is treated as belonging to the enclosing test
// and dispatched as an ordinary report.
func (r *Reporter) SubScopeDone(c *Case, name string, params map[string]any, exc *report.ExcInfo) {
	call := harness.NewCallInfo(exc, time.Time{}, time.Time{}, 0, report.PhaseCall)
	base := r.session.Hooks().MakeReport(c.Item(), call)

	var rep report.Report = base
	if name != "" || len(params) > 0 {
		rep = report.NewSubtestReport(base, report.NewContext(name, params))
	}

	r.session.Hooks().LogReport(rep)
	if harness.CheckInteractiveException(r.session, call, rep) {
		r.session.Hooks().ExceptionInteract(c.Item(), call, rep)
	}
}

// CaseSkipped dispatches the whole-case skip as an ordinary skipped report.
// It is the compatibility shim for hosts that deliver skips through a
// separate callback channel and cannot unwind through Run; Run itself
// re-raises the skip instead, so the two paths never both fire. Either way
// the skip lands after all sub-scope notifications for the case.
func (r *Reporter) CaseSkipped(c *Case, reason string) {
	exc := &report.ExcInfo{Kind: report.ExcKindSkip, Message: reason}
	call := harness.NewCallInfo(exc, time.Time{}, time.Time{}, 0, report.PhaseCall)
	rep := r.session.Hooks().MakeReport(c.Item(), call)
	r.session.Hooks().LogReport(rep)
}
