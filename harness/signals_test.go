package harness

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/testforge/subreport/report"
)

func recoverFrom(fn func()) (rec any) {
	defer func() { rec = recover() }()
	fn()
	return nil
}

func TestExcFromRecover(t *testing.T) {
	t.Run("fail signal", func(t *testing.T) {
		rec := recoverFrom(func() { Fail("assertion broke") })
		require.True(t, IsOutcomeSignal(rec))
		exc := ExcFromRecover(rec, nil)
		assert.Equal(t, report.ExcKindFailure, exc.Kind)
		assert.Equal(t, "assertion broke", exc.Message)
		assert.Empty(t, exc.Stack)
	})

	t.Run("skip signal", func(t *testing.T) {
		rec := recoverFrom(func() { Skip("not supported here") })
		require.True(t, IsOutcomeSignal(rec))
		exc := ExcFromRecover(rec, nil)
		assert.Equal(t, report.ExcKindSkip, exc.Kind)
		assert.Equal(t, "not supported here", exc.Message)
	})

	t.Run("xfail signal", func(t *testing.T) {
		rec := recoverFrom(func() { XFail("known bug") })
		require.True(t, IsOutcomeSignal(rec))
		exc := ExcFromRecover(rec, nil)
		assert.Equal(t, report.ExcKindXFail, exc.Kind)
		assert.Equal(t, "known bug", exc.Message)
	})

	t.Run("unrelated error panic", func(t *testing.T) {
		rec := recoverFrom(func() { panic(errors.New("boom")) })
		require.False(t, IsOutcomeSignal(rec))
		exc := ExcFromRecover(rec, []byte("trace"))
		assert.Equal(t, report.ExcKindError, exc.Kind)
		assert.Equal(t, "boom", exc.Message)
		assert.Equal(t, "trace", exc.Stack)
	})

	t.Run("unrelated value panic", func(t *testing.T) {
		rec := recoverFrom(func() { panic("raw string") })
		exc := ExcFromRecover(rec, []byte("trace"))
		assert.Equal(t, report.ExcKindError, exc.Kind)
		assert.Equal(t, "raw string", exc.Message)
	})
}

func TestApplyExpectedFailure(t *testing.T) {
	t.Run("failed becomes xfailed", func(t *testing.T) {
		r := &report.TestReport{Outcome: report.OutcomeFailed}
		ApplyExpectedFailure(r, "known bug")
		assert.True(t, r.XFail)
		assert.Equal(t, "known bug", r.XFailReason)
		assert.Equal(t, report.OutcomeSkipped, r.Outcome)
	})

	t.Run("passed stays passed for xpass classification", func(t *testing.T) {
		r := &report.TestReport{Outcome: report.OutcomePassed}
		ApplyExpectedFailure(r, "known bug")
		assert.True(t, r.XFail)
		assert.Equal(t, report.OutcomePassed, r.Outcome)
	})
}
