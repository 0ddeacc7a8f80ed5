package report

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Outcome represents the terminal state of a single call phase.
type Outcome string

const (
	OutcomePassed  Outcome = "passed"
	OutcomeFailed  Outcome = "failed"
	OutcomeSkipped Outcome = "skipped"
)

// Phase identifies which part of a test produced a report. Subtest reports
// always carry PhaseCall; subtests have no separate setup/teardown.
type Phase string

const (
	PhaseSetup    Phase = "setup"
	PhaseCall     Phase = "call"
	PhaseTeardown Phase = "teardown"
)

// ExcKind classifies the signal recovered at a scope or test boundary.
type ExcKind string

const (
	ExcKindFailure ExcKind = "failure"
	ExcKindSkip    ExcKind = "skip"
	ExcKindXFail   ExcKind = "xfail"
	ExcKindError   ExcKind = "error"
)

// ExcInfo is the structured form of a recovered failure, skip or panic.
type ExcInfo struct {
	Kind    ExcKind
	Message string
	Stack   string
}

func (e *ExcInfo) String() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Location identifies where a test item is defined.
type Location struct {
	File   string
	Line   int
	Domain string
}

// Section is one block of captured text attached to a report,
// e.g. ("Captured stdout call", "...").
type Section struct {
	Title   string
	Content string
}

// Report is the minimal surface the reporting pipeline needs. Both the base
// TestReport and SubtestReport satisfy it.
type Report interface {
	Base() *TestReport
	HeadLine() string
}

// TestReport is the record the host harness produces for one call phase of
// one test item. It is immutable once dispatched through the report hook.
type TestReport struct {
	NodeID   string
	Location Location
	Phase    Phase
	Outcome  Outcome

	// XFail marks an expected failure. Combined with Outcome it yields the
	// xfailed (skipped) and xpassed (passed) display categories.
	XFail       bool
	XFailReason string

	Longrepr string
	Exc      *ExcInfo
	Sections []Section

	Start    time.Time
	Stop     time.Time
	Duration time.Duration
}

func (r *TestReport) Base() *TestReport { return r }

// HeadLine renders the identity shown in failure headers and verbose lines.
func (r *TestReport) HeadLine() string { return r.Location.Domain }

func (r *TestReport) Passed() bool  { return r.Outcome == OutcomePassed }
func (r *TestReport) Failed() bool  { return r.Outcome == OutcomeFailed }
func (r *TestReport) Skipped() bool { return r.Outcome == OutcomeSkipped }

// AddSection appends a captured section, keeping insertion order.
func (r *TestReport) AddSection(title, content string) {
	r.Sections = append(r.Sections, Section{Title: title, Content: content})
}

// Context describes why one subtest scope is distinct from its siblings:
// an optional human-readable message plus named parameters supplied at
// scope-open time. It never influences pass/fail logic.
type Context struct {
	Msg    string
	Params map[string]any
}

// NewContext copies params so later mutation by the caller cannot leak into
// a dispatched report.
func NewContext(msg string, params map[string]any) Context {
	cp := make(map[string]any, len(params))
	for k, v := range params {
		cp[k] = v
	}
	return Context{Msg: msg, Params: cp}
}

// Description renders "[msg] (k=v, ...)" with parameters sorted by key.
// Both parts are optional; with neither present a placeholder is returned
// so the description is never empty.
func (c Context) Description() string {
	var parts []string
	if c.Msg != "" {
		parts = append(parts, "["+c.Msg+"]")
	}
	if len(c.Params) > 0 {
		keys := make([]string, 0, len(c.Params))
		for k := range c.Params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		kv := make([]string, 0, len(keys))
		for _, k := range keys {
			kv = append(kv, fmt.Sprintf("%s=%v", k, c.Params[k]))
		}
		parts = append(parts, "("+strings.Join(kv, ", ")+")")
	}
	if len(parts) == 0 {
		return "(<subtest>)"
	}
	return strings.Join(parts, " ")
}

// SubtestReport is the outcome record of one subtest scope. Exactly one is
// produced per scope execution, on scope exit.
type SubtestReport struct {
	TestReport
	Context Context
}

// NewSubtestReport wraps a base report produced by the host's report hook,
// attaching the scope's context.
func NewSubtestReport(base *TestReport, ctx Context) *SubtestReport {
	return &SubtestReport{TestReport: *base, Context: ctx}
}

func (r *SubtestReport) HeadLine() string {
	return r.Location.Domain + " " + r.Context.Description()
}
