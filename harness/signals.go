package harness

import (
	"fmt"

	"github.com/testforge/subreport/report"
)

// Outcome signals raised by user code are panic sentinels recovered at the
// nearest scope or test boundary. They never escape the harness except to
// honor fail-fast.
type failSignal struct{ msg string }
type skipSignal struct{ reason string }
type xfailSignal struct{ reason string }

// Fail raises a failure signal for the current scope.
func Fail(msg string) { panic(failSignal{msg: msg}) }

// Skip raises a skip signal for the current scope.
func Skip(reason string) { panic(skipSignal{reason: reason}) }

// XFail raises an expected-failure signal for the current scope.
func XFail(reason string) { panic(xfailSignal{reason: reason}) }

// ExcFromRecover converts a recovered value into structured error info.
// stack is the trace captured inside the deferred recover, attached only for
// values that are not harness signals (a genuine panic is the one case where
// the trace carries information the message does not).
func ExcFromRecover(rec any, stack []byte) *report.ExcInfo {
	switch s := rec.(type) {
	case failSignal:
		return &report.ExcInfo{Kind: report.ExcKindFailure, Message: s.msg}
	case skipSignal:
		return &report.ExcInfo{Kind: report.ExcKindSkip, Message: s.reason}
	case xfailSignal:
		return &report.ExcInfo{Kind: report.ExcKindXFail, Message: s.reason}
	case error:
		return &report.ExcInfo{Kind: report.ExcKindError, Message: s.Error(), Stack: string(stack)}
	default:
		return &report.ExcInfo{Kind: report.ExcKindError, Message: fmt.Sprintf("%v", rec), Stack: string(stack)}
	}
}

// IsOutcomeSignal reports whether a recovered value is one of the harness
// outcome sentinels, as opposed to an unrelated panic.
func IsOutcomeSignal(rec any) bool {
	switch rec.(type) {
	case failSignal, skipSignal, xfailSignal:
		return true
	default:
		return false
	}
}

// ApplyExpectedFailure folds an expected-failure marker into a report: a
// failed outcome becomes skipped (xfailed), a passed outcome keeps its
// outcome and is later classified xpassed.
func ApplyExpectedFailure(r *report.TestReport, reason string) {
	r.XFail = true
	r.XFailReason = reason
	if r.Failed() {
		r.Outcome = report.OutcomeSkipped
	}
}
