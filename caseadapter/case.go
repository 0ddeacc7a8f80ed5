// Package caseadapter bridges a class-based nested-assertion API onto the
// subtest reporting path. In that style a per-test case object registers
// named sub-scopes and reports their completion through callbacks, rather
// than through explicit scope values owned by the subtest package. The
// adapter turns each completion callback into a subtest outcome record and
// keeps skip attribution straight: a skip inside a sub-scope belongs to that
// scope only, a skip outside all scopes skips the whole case, and the
// whole-case skip is always delivered after every sub-scope outcome.
package caseadapter

import (
	"runtime/debug"
	"sync"

	"github.com/testforge/subreport/harness"
	"github.com/testforge/subreport/report"
)

// ScopeListener receives sub-scope completion and whole-case skip
// notifications. It is the injectable hook point that replaces binding
// replacement methods onto the host's per-test object at runtime.
type ScopeListener interface {
	// SubScopeDone is invoked once per completed sub-scope; exc is nil when
	// the scope passed.
	SubScopeDone(c *Case, name string, params map[string]any, exc *report.ExcInfo)

	// CaseSkipped is invoked for a skip raised outside any sub-scope, after
	// all sub-scope notifications for the case have been delivered.
	CaseSkipped(c *Case, reason string)
}

// ListenerRegistry is the host-side binding for the listener. It exists so
// installation can be done once at process configuration and undone at
// teardown without touching the cases themselves.
type ListenerRegistry struct {
	mu       sync.Mutex
	listener ScopeListener
}

// Bind installs l and returns the previous binding.
func (r *ListenerRegistry) Bind(l ScopeListener) ScopeListener {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev := r.listener
	r.listener = l
	return prev
}

// Listener returns the current binding, or nil.
func (r *ListenerRegistry) Listener() ScopeListener {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listener
}

// Case is the per-test object of the legacy API. It is not safe for
// concurrent use; sub-scopes run strictly sequentially.
type Case struct {
	session  *harness.Session
	item     *harness.Item
	registry *ListenerRegistry

	inScope       bool
	scopeFailures int
	deferredSkip  *string
}

// Item returns the harness item this case runs under.
func (c *Case) Item() *harness.Item { return c.item }

// Session returns the session this case runs under.
func (c *Case) Session() *harness.Session { return c.session }

// Sub runs fn as one named sub-scope and notifies the listener with its
// outcome. Failures and skips raised inside fn are attributed to the scope
// and never escape it, except to honor fail-fast after the notification has
// been delivered.
func (c *Case) Sub(name string, params map[string]any, fn func()) {
	c.inScope = true
	rec, stack := protect(fn)
	c.inScope = false

	var exc *report.ExcInfo
	if rec != nil {
		exc = harness.ExcFromRecover(rec, stack)
		if exc.Kind != report.ExcKindSkip {
			c.scopeFailures++
		}
	}

	if l := c.registry.Listener(); l != nil {
		l.SubScopeDone(c, name, params, exc)
	}

	if rec != nil && c.session.ShouldStop() {
		panic(rec)
	}
}

// Skip skips the current sub-scope when called inside one, and otherwise
// marks the whole case skipped. The whole-case skip is not delivered until
// Run finishes, so sub-scope outcomes are never reported after it.
func (c *Case) Skip(reason string) {
	if c.inScope {
		harness.Skip(reason)
	}
	c.deferredSkip = &reason
	harness.Skip(reason)
}

// ScopeFailures reports how many sub-scopes completed with a failure.
func (c *Case) ScopeFailures() int { return c.scopeFailures }

// Run executes fn against a fresh case bound to t. A whole-case skip raised
// by fn is re-delivered only after every sub-scope notification, then
// propagated so the host's ordinary skip handling reports the test itself
// skipped exactly once.
func Run(t *harness.T, registry *ListenerRegistry, fn func(c *Case)) {
	c := &Case{
		session:  t.Session(),
		item:     t.Item(),
		registry: registry,
	}

	rec, _ := protect(func() { fn(c) })

	// The whole-case skip re-raises here, after every sub-scope
	// notification has been delivered, so the host's ordinary skip
	// handling fires exactly once and never ahead of failed sub-scopes.
	if c.deferredSkip != nil {
		harness.Skip(*c.deferredSkip)
	}
	if rec != nil {
		panic(rec)
	}
}

func protect(fn func()) (rec any, stack []byte) {
	defer func() {
		if v := recover(); v != nil {
			rec = v
			if !harness.IsOutcomeSignal(v) {
				stack = debug.Stack()
			}
		}
	}()
	fn()
	return nil, nil
}
