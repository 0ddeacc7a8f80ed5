package harness

import (
	"github.com/testforge/subreport/report"
)

// Hooks is the seam between scope execution and the host's reporting
// pipeline. MakeReport synthesizes a base report from call info; LogReport
// is the single dispatch point feeding aggregation, terminal output and
// serialization; ExceptionInteract lets a debugger attach at a failure point
// before execution continues.
type Hooks interface {
	MakeReport(item *Item, call *CallInfo) *report.TestReport
	LogReport(r report.Report)
	ExceptionInteract(item *Item, call *CallInfo, r report.Report)
}

// sessionHooks is the default implementation backed by the session's
// terminal and report store.
type sessionHooks struct {
	session *Session
}

func (h *sessionHooks) MakeReport(item *Item, call *CallInfo) *report.TestReport {
	r := &report.TestReport{
		NodeID:   item.NodeID,
		Location: item.Location,
		Phase:    call.Phase,
		Exc:      call.Exc,
		Start:    call.Start,
		Stop:     call.Stop,
		Duration: call.Duration,
	}
	switch {
	case call.Exc == nil:
		r.Outcome = report.OutcomePassed
	case call.Exc.Kind == report.ExcKindSkip:
		r.Outcome = report.OutcomeSkipped
		r.Longrepr = "Skipped: " + call.Exc.Message
	case call.Exc.Kind == report.ExcKindXFail:
		r.Outcome = report.OutcomeSkipped
		r.XFail = true
		r.XFailReason = call.Exc.Message
		r.Longrepr = "Expected failure: " + call.Exc.Message
	default:
		r.Outcome = report.OutcomeFailed
		r.Longrepr = call.Exc.Message
		if call.Exc.Stack != "" {
			r.Longrepr += "\n" + call.Exc.Stack
		}
	}
	return r
}

func (h *sessionHooks) LogReport(r report.Report) {
	s := h.session
	s.addReport(r)

	st, ok := report.ClassifyStatus(r, s.Opts.NoSubtestGlyphs)
	if !ok {
		st = defaultStatus(r)
	}
	s.terminal.Emit(r.HeadLine(), st)

	if r.Base().Failed() && s.Opts.FailFast {
		s.SetShouldStop("stopping after 1 failure")
	}
}

func (h *sessionHooks) ExceptionInteract(item *Item, call *CallInfo, r report.Report) {
	if h.session.DebugHook != nil {
		h.session.DebugHook(item, call, r)
	}
}

// CheckInteractiveException decides whether the interactive-exception hook
// fires for a completed call: only when the session asks for debugging on
// failure, and never for skips or expected failures.
func CheckInteractiveException(s *Session, call *CallInfo, r report.Report) bool {
	if !s.Opts.DebugOnFailure || call.Exc == nil {
		return false
	}
	switch call.Exc.Kind {
	case report.ExcKindSkip, report.ExcKindXFail:
		return false
	default:
		return true
	}
}

// defaultStatus classifies reports the subtest layer does not own, using the
// host's ordinary categories and progress letters.
func defaultStatus(r report.Report) report.Status {
	b := r.Base()
	switch {
	case b.XFail && b.Skipped():
		return report.Status{Category: "xfailed", Glyph: "x", Line: "XFAIL"}
	case b.XFail && b.Passed():
		return report.Status{Category: "xpassed", Glyph: "X", Line: "XPASS"}
	case b.Passed():
		return report.Status{Category: "passed", Glyph: ".", Line: "PASSED"}
	case b.Skipped():
		return report.Status{Category: "skipped", Glyph: "s", Line: "SKIPPED"}
	default:
		return report.Status{Category: "failed", Glyph: "F", Line: "FAILED"}
	}
}
