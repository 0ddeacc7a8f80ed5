package harness

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/testforge/subreport/report"
)

// RunResult summarizes one harness run.
type RunResult struct {
	RunID    string
	Status   report.Outcome
	Duration time.Duration
	Counts   map[string]int
}

// Runner executes registered items strictly sequentially, synthesizing and
// dispatching one report per item. Subtest scopes opened inside an item
// dispatch their own reports through the same hooks before the item's own
// report.
type Runner struct {
	session *Session
	log     log.Logger
	tracer  trace.Tracer
}

func NewRunner(s *Session) *Runner {
	return &Runner{
		session: s,
		log:     s.Log,
		tracer:  otel.Tracer("subreport/harness"),
	}
}

// Run executes the items in order, honoring the session's fail-fast latch
// between items.
func (r *Runner) Run(ctx context.Context, items []*Item) (*RunResult, error) {
	runID := uuid.New().String()
	start := time.Now()
	r.log.Info("Starting run", "run_id", runID, "tests", len(items))

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if r.session.ShouldStop() {
			r.log.Warn("Run interrupted", "reason", r.session.StopReason())
			break
		}
		r.runItem(ctx, item)
	}

	r.session.Terminal().FinishProgress()
	duration := time.Since(start)
	result := &RunResult{
		RunID:    runID,
		Status:   runStatus(r.session.Terminal().Counts()),
		Duration: duration,
		Counts:   r.session.Terminal().Counts(),
	}
	r.log.Info("Run completed", "run_id", runID, "status", result.Status, "duration", duration)
	return result, nil
}

func (r *Runner) runItem(ctx context.Context, item *Item) {
	_, span := r.tracer.Start(ctx, item.NodeID)
	defer span.End()

	start := time.Now()

	var out outputEnder = noCapture{}
	if cm := r.session.CaptureManager(); cm != nil {
		if h, err := cm.StartOutput(); err == nil {
			out = h
		} else {
			r.log.Error("Failed to start output capture", "test", item.NodeID, "err", err)
		}
	}

	t := NewT(r.session, item)
	rec, stack := runProtected(func() { item.Fn(t) })

	var exc *report.ExcInfo
	if rec != nil {
		exc = ExcFromRecover(rec, stack)
	} else if t.Failed() {
		exc = &report.ExcInfo{Kind: report.ExcKindFailure, Message: t.FailureMessage()}
	}

	captured, capErr := out.End()
	stop := time.Now()
	call := NewCallInfo(exc, start, stop, stop.Sub(start), report.PhaseCall)
	if capErr != nil && exc == nil {
		call.Exc = &report.ExcInfo{Kind: report.ExcKindError, Message: capErr.Error()}
	}

	rep := r.session.Hooks().MakeReport(item, call)
	if xfail, reason := t.XFailed(); xfail {
		ApplyExpectedFailure(rep, reason)
	}
	captured.UpdateReport(rep)
	if capErr != nil && exc != nil {
		rep.AddSection("Capture teardown error", capErr.Error())
	}

	r.session.Hooks().LogReport(rep)
	if CheckInteractiveException(r.session, call, rep) {
		r.session.Hooks().ExceptionInteract(item, call, rep)
	}
}

// runProtected invokes fn, converting a panic into a recovered value plus
// the stack captured at the panic point.
func runProtected(fn func()) (rec any, stack []byte) {
	defer func() {
		if v := recover(); v != nil {
			rec = v
			if !IsOutcomeSignal(v) {
				stack = debug.Stack()
			}
		}
	}()
	fn()
	return nil, nil
}

func runStatus(counts map[string]int) report.Outcome {
	if counts["failed"]+counts["errors"] > 0 {
		return report.OutcomeFailed
	}
	nonSkip := counts["passed"] + counts["xpassed"] + counts["xfailed"] +
		counts["subtests passed"] + counts["subtests xpassed"] + counts["subtests xfailed"]
	if nonSkip > 0 {
		return report.OutcomePassed
	}
	return report.OutcomeSkipped
}
