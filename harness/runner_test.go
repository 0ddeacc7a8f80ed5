package harness

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/testforge/subreport/report"
)

func TestRunnerMixedOutcomes(t *testing.T) {
	session, _ := newTestSession(Options{})
	items := []*Item{
		NewItem("test_pass", func(t *T) {}),
		NewItem("test_fail", func(t *T) { t.Fatalf("broken") }),
		NewItem("test_skip", func(t *T) { t.Skipf("not here") }),
	}

	result, err := NewRunner(session).Run(context.Background(), items)
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, report.OutcomeFailed, result.Status)
	assert.Equal(t, 1, result.Counts["passed"])
	assert.Equal(t, 1, result.Counts["failed"])
	assert.Equal(t, 1, result.Counts["skipped"])
	require.Len(t, session.Reports(), 3)
}

func TestRunnerAllPassed(t *testing.T) {
	session, _ := newTestSession(Options{})
	items := []*Item{
		NewItem("test_a", func(t *T) {}),
		NewItem("test_b", func(t *T) {}),
	}

	result, err := NewRunner(session).Run(context.Background(), items)
	require.NoError(t, err)
	assert.Equal(t, report.OutcomePassed, result.Status)
}

func TestRunnerOnlySkips(t *testing.T) {
	session, _ := newTestSession(Options{})
	items := []*Item{NewItem("test_a", func(t *T) { t.Skipf("nope") })}

	result, err := NewRunner(session).Run(context.Background(), items)
	require.NoError(t, err)
	assert.Equal(t, report.OutcomeSkipped, result.Status)
}

func TestRunnerNonFatalFailure(t *testing.T) {
	session, _ := newTestSession(Options{})
	items := []*Item{NewItem("test_errorf", func(t *T) {
		t.Errorf("first")
		t.Errorf("second")
	})}

	result, err := NewRunner(session).Run(context.Background(), items)
	require.NoError(t, err)
	assert.Equal(t, report.OutcomeFailed, result.Status)

	r := session.Reports()[0].Base()
	assert.Equal(t, "first\nsecond", r.Longrepr)
}

func TestRunnerPanicBecomesFailureWithStack(t *testing.T) {
	session, _ := newTestSession(Options{})
	items := []*Item{NewItem("test_panic", func(t *T) { panic("unexpected state") })}

	result, err := NewRunner(session).Run(context.Background(), items)
	require.NoError(t, err)
	assert.Equal(t, report.OutcomeFailed, result.Status)

	r := session.Reports()[0].Base()
	require.NotNil(t, r.Exc)
	assert.Equal(t, report.ExcKindError, r.Exc.Kind)
	assert.Equal(t, "unexpected state", r.Exc.Message)
	assert.NotEmpty(t, r.Exc.Stack)
}

func TestRunnerFailFastStopsRemainingItems(t *testing.T) {
	session, _ := newTestSession(Options{FailFast: true})

	var ran []string
	mk := func(name string, fail bool) *Item {
		return NewItem(name, func(t *T) {
			ran = append(ran, name)
			if fail {
				t.Fatalf("broken")
			}
		})
	}
	items := []*Item{mk("test_1", false), mk("test_2", true), mk("test_3", false)}

	result, err := NewRunner(session).Run(context.Background(), items)
	require.NoError(t, err)

	assert.Equal(t, []string{"test_1", "test_2"}, ran)
	assert.Equal(t, report.OutcomeFailed, result.Status)
	assert.Equal(t, "stopping after 1 failure", session.StopReason())
}

func TestRunnerExpectedFailure(t *testing.T) {
	session, _ := newTestSession(Options{})
	items := []*Item{
		NewItem("test_xfail", func(t *T) {
			t.ExpectFail("known bug")
			t.Fatalf("still broken")
		}),
		NewItem("test_xpass", func(t *T) {
			t.ExpectFail("fixed upstream")
		}),
	}

	result, err := NewRunner(session).Run(context.Background(), items)
	require.NoError(t, err)

	assert.Equal(t, report.OutcomePassed, result.Status)
	assert.Equal(t, 1, result.Counts["xfailed"])
	assert.Equal(t, 1, result.Counts["xpassed"])

	xfailed := session.Reports()[0].Base()
	assert.True(t, xfailed.XFail)
	assert.Equal(t, report.OutcomeSkipped, xfailed.Outcome)
}

func TestRunnerXFailNow(t *testing.T) {
	session, _ := newTestSession(Options{})
	items := []*Item{NewItem("test_xfailnow", func(t *T) { t.XFailNow("known bug") })}

	result, err := NewRunner(session).Run(context.Background(), items)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Counts["xfailed"])

	r := session.Reports()[0].Base()
	assert.True(t, r.XFail)
	assert.Equal(t, "Expected failure: known bug", r.Longrepr)
}

func TestRunnerCanceledContext(t *testing.T) {
	session, _ := newTestSession(Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRunner(session).Run(ctx, []*Item{NewItem("test_a", func(t *T) {})})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunnerDebugHookFiresOnFailure(t *testing.T) {
	session, _ := newTestSession(Options{DebugOnFailure: true})

	var debugged []string
	session.DebugHook = func(item *Item, call *CallInfo, r report.Report) {
		debugged = append(debugged, item.NodeID)
	}

	items := []*Item{
		NewItem("test_pass", func(t *T) {}),
		NewItem("test_fail", func(t *T) { t.Fatalf("broken") }),
		NewItem("test_skip", func(t *T) { t.Skipf("nope") }),
	}
	_, err := NewRunner(session).Run(context.Background(), items)
	require.NoError(t, err)

	assert.Equal(t, []string{"test_fail"}, debugged)
}

func TestRunnerReportTiming(t *testing.T) {
	session, _ := newTestSession(Options{})
	items := []*Item{NewItem("test_a", func(t *T) {})}

	_, err := NewRunner(session).Run(context.Background(), items)
	require.NoError(t, err)

	r := session.Reports()[0].Base()
	assert.False(t, r.Start.IsZero())
	assert.False(t, r.Stop.Before(r.Start))
	assert.GreaterOrEqual(t, r.Duration, time.Duration(0))
}
