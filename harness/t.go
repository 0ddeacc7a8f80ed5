package harness

import (
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/log"
)

// T is the value handed to test functions. Failures, skips and expected
// failures are raised as outcome signals and recovered at the enclosing
// scope or test boundary.
//
// T implements the Errorf/FailNow pair, so testify's require and assert
// packages work against it directly.
type T struct {
	session *Session
	item    *Item
	log     log.Logger

	mu          sync.Mutex
	failed      bool
	msgs        []string
	xfail       bool
	xfailReason string
}

func NewT(s *Session, item *Item) *T {
	return &T{
		session: s,
		item:    item,
		log:     s.Log.New("test", item.NodeID),
	}
}

func (t *T) Session() *Session { return t.session }
func (t *T) Item() *Item       { return t.item }
func (t *T) Hooks() Hooks      { return t.session.Hooks() }

// Log emits a structured log line attributed to this test.
func (t *T) Log(msg string, kv ...any) {
	t.log.Info(msg, kv...)
}

// Errorf records a failure without stopping the test. The test (or subtest
// scope) is reported failed when it ends.
func (t *T) Errorf(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failed = true
	t.msgs = append(t.msgs, strings.TrimSpace(fmt.Sprintf(format, args...)))
}

// FailNow stops the current scope immediately, reporting it failed.
func (t *T) FailNow() {
	t.mu.Lock()
	msg := strings.Join(t.msgs, "\n")
	t.mu.Unlock()
	if msg == "" {
		msg = "test failed"
	}
	panic(failSignal{msg: msg})
}

// Fatalf records a failure message and stops the current scope.
func (t *T) Fatalf(format string, args ...any) {
	t.Errorf(format, args...)
	t.FailNow()
}

// Skipf marks the current scope skipped and stops it.
func (t *T) Skipf(format string, args ...any) {
	panic(skipSignal{reason: fmt.Sprintf(format, args...)})
}

// XFailNow declares the current scope an expected failure and stops it; the
// scope is classified xfailed.
func (t *T) XFailNow(reason string) {
	panic(xfailSignal{reason: reason})
}

// ExpectFail marks the current scope as allowed to fail without stopping it:
// if it then fails it is classified xfailed, if it passes it is classified
// xpassed.
func (t *T) ExpectFail(reason string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.xfail = true
	t.xfailReason = reason
}

// Failed reports whether a non-fatal failure was recorded via Errorf.
func (t *T) Failed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.failed
}

// FailureMessage joins the recorded non-fatal failure messages.
func (t *T) FailureMessage() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return strings.Join(t.msgs, "\n")
}

// XFailed returns the expected-failure marker state.
func (t *T) XFailed() (bool, string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.xfail, t.xfailReason
}
