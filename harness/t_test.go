package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestT(t *testing.T) *T {
	session, _ := newTestSession(Options{})
	return NewT(session, NewItem("test_x", func(*T) {}))
}

func TestErrorfIsNonFatal(t *testing.T) {
	tt := newTestT(t)
	tt.Errorf("value was %d", 42)
	tt.Errorf("second problem")

	assert.True(t, tt.Failed())
	assert.Equal(t, "value was 42\nsecond problem", tt.FailureMessage())
}

func TestFailNowRaisesFailSignal(t *testing.T) {
	tt := newTestT(t)
	tt.Errorf("recorded first")

	rec := recoverFrom(func() { tt.FailNow() })
	require.True(t, IsOutcomeSignal(rec))
	assert.Equal(t, "recorded first", ExcFromRecover(rec, nil).Message)
}

func TestFailNowWithoutMessages(t *testing.T) {
	tt := newTestT(t)
	rec := recoverFrom(func() { tt.FailNow() })
	assert.Equal(t, "test failed", ExcFromRecover(rec, nil).Message)
}

func TestFatalf(t *testing.T) {
	tt := newTestT(t)
	rec := recoverFrom(func() { tt.Fatalf("bad state: %s", "nil db") })
	require.True(t, IsOutcomeSignal(rec))
	assert.Equal(t, "bad state: nil db", ExcFromRecover(rec, nil).Message)
}

func TestSkipf(t *testing.T) {
	tt := newTestT(t)
	rec := recoverFrom(func() { tt.Skipf("requires %s", "linux") })
	exc := ExcFromRecover(rec, nil)
	assert.Equal(t, "requires linux", exc.Message)
}

func TestExpectFailMarker(t *testing.T) {
	tt := newTestT(t)
	xfail, _ := tt.XFailed()
	assert.False(t, xfail)

	tt.ExpectFail("known bug")
	xfail, reason := tt.XFailed()
	assert.True(t, xfail)
	assert.Equal(t, "known bug", reason)
}

// T satisfies testify's TestingT contract, so require works against it.
func TestTestifyRequireAgainstT(t *testing.T) {
	tt := newTestT(t)
	rec := recoverFrom(func() { require.Equal(tt, 1, 2) })
	require.True(t, IsOutcomeSignal(rec))
	assert.True(t, tt.Failed())
}
