// Package subtest implements independently reported, non-fatal assertion
// scopes nested inside a single harness test. A scope's outcome is captured,
// classified and dispatched through the host's reporting hooks without
// terminating the enclosing test; only fail-fast mode re-raises a scope
// failure past the scope boundary.
package subtest

import (
	"runtime/debug"
	"time"

	"github.com/testforge/subreport/capture"
	"github.com/testforge/subreport/harness"
	"github.com/testforge/subreport/report"
)

// Params are the named parameters distinguishing one scope from its
// siblings. Values only need to be printable; they never influence pass/fail
// logic.
type Params = map[string]any

// SubTests is the fixture-like handle a test uses to open subtest scopes.
// Scopes run strictly sequentially: Run does not return until the scope's
// report has been dispatched.
type SubTests struct {
	session *harness.Session
	item    *harness.Item
	hooks   harness.Hooks
}

// New binds a subtest handle to the running test.
func New(t *harness.T) *SubTests {
	return &SubTests{
		session: t.Session(),
		item:    t.Item(),
		hooks:   t.Hooks(),
	}
}

// Run executes fn as one subtest scope described by msg and params. Any
// failure, skip or expected-failure signal raised inside fn is recovered at
// the scope boundary and turned into the scope's outcome record; the
// enclosing test continues. When the session has latched fail-fast, a failed
// scope re-raises after its record is dispatched so the run stops.
func (s *SubTests) Run(msg string, params Params, fn func(t *harness.T)) {
	sc := &scope{
		owner: s,
		ctx:   report.NewContext(msg, params),
		state: scopeOpen,
	}
	sc.enter()

	t := harness.NewT(s.session, s.item)
	rec, stack := runScoped(fn, t)

	if repanic := sc.exit(t, rec, stack); repanic != nil {
		panic(repanic)
	}
}

func runScoped(fn func(t *harness.T), t *harness.T) (rec any, stack []byte) {
	defer func() {
		if v := recover(); v != nil {
			rec = v
			if !harness.IsOutcomeSignal(v) {
				stack = debug.Stack()
			}
		}
	}()
	fn(t)
	return nil, nil
}

type scopeState int

const (
	scopeOpen scopeState = iota
	scopeClosed
)

// scope is the execution context of one subtest: timers plus the scoped
// output and log collectors. It moves OPEN -> CLOSED exactly once, on exit.
type scope struct {
	owner *SubTests
	ctx   report.Context
	state scopeState

	start time.Time
	out   outputCollector
	logs  capture.LogHandle
}

type outputCollector interface {
	End() (capture.Captured, error)
}

type noOutput struct{}

func (noOutput) End() (capture.Captured, error) { return capture.Captured{}, nil }

// enter records the start timestamp and begins the collectors. No user-code
// side effects happen here.
func (sc *scope) enter() {
	sc.start = time.Now()
	sc.out = noOutput{}
	if cm := sc.owner.session.CaptureManager(); cm != nil {
		if h, err := cm.StartOutput(); err == nil {
			sc.out = h
		} else {
			sc.owner.session.Log.Error("Failed to start subtest output capture", "err", err)
		}
	}
	sc.logs = capture.StartLogs(sc.owner.session.LoggingPlugin())
}

// exit classifies the recovered value, releases the collectors, builds and
// dispatches the outcome record, and decides propagation. It returns the
// value to re-raise, or nil to suppress.
func (sc *scope) exit(t *harness.T, rec any, stack []byte) any {
	if sc.state == scopeClosed {
		return nil
	}
	sc.state = scopeClosed

	var exc *report.ExcInfo
	if rec != nil {
		exc = harness.ExcFromRecover(rec, stack)
	} else if t.Failed() {
		exc = &report.ExcInfo{Kind: report.ExcKindFailure, Message: t.FailureMessage()}
	}

	// Collectors are released whatever the outcome. A teardown error must
	// not mask the scope's own failure: it becomes the scope error only if
	// there is no other, and is attached as a section otherwise.
	captured, capErr := sc.out.End()
	sc.logs.End()
	if capErr != nil && exc == nil {
		exc = &report.ExcInfo{Kind: report.ExcKindError, Message: capErr.Error()}
	}

	stop := time.Now()
	call := harness.NewCallInfo(exc, sc.start, stop, stop.Sub(sc.start), report.PhaseCall)

	// The host synthesizes the base report; this layer only wraps it.
	base := sc.owner.hooks.MakeReport(sc.owner.item, call)
	sub := report.NewSubtestReport(base, sc.ctx)
	if xfail, reason := t.XFailed(); xfail {
		harness.ApplyExpectedFailure(&sub.TestReport, reason)
	}

	captured.UpdateReport(&sub.TestReport)
	sc.logs.UpdateReport(&sub.TestReport)
	if capErr != nil && rec != nil {
		sub.AddSection("Capture teardown error", capErr.Error())
	}

	// Dispatch with any enclosing capture lifted so the report line is
	// visible even while the outer test is still capturing.
	resume := func() {}
	if cm := sc.owner.session.CaptureManager(); cm != nil {
		resume = cm.Suspend()
	}
	sc.owner.hooks.LogReport(sub)
	resume()

	if harness.CheckInteractiveException(sc.owner.session, call, sub) {
		sc.owner.hooks.ExceptionInteract(sc.owner.item, call, sub)
	}

	if rec != nil && sc.owner.session.ShouldStop() {
		return rec
	}
	return nil
}
