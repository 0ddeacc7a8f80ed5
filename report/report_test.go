package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextDescription(t *testing.T) {
	tests := []struct {
		name     string
		msg      string
		params   map[string]any
		expected string
	}{
		{
			name:     "message only",
			msg:      "custom message",
			expected: "[custom message]",
		},
		{
			name:     "params only",
			params:   map[string]any{"i": 5},
			expected: "(i=5)",
		},
		{
			name:     "message and params",
			msg:      "custom",
			params:   map[string]any{"i": 5, "j": "foo"},
			expected: "[custom] (i=5, j=foo)",
		},
		{
			name:     "params sorted by key",
			params:   map[string]any{"z": 1, "a": 2, "m": 3},
			expected: "(a=2, m=3, z=1)",
		},
		{
			name:     "empty context gets placeholder",
			expected: "(<subtest>)",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctx := NewContext(tc.msg, tc.params)
			assert.Equal(t, tc.expected, ctx.Description())
		})
	}
}

func TestNewContextCopiesParams(t *testing.T) {
	params := map[string]any{"i": 1}
	ctx := NewContext("msg", params)

	params["i"] = 99
	params["extra"] = true

	assert.Equal(t, "[msg] (i=1)", ctx.Description())
}

func TestSubtestReportHeadLine(t *testing.T) {
	base := &TestReport{
		NodeID:   "test_foo",
		Location: Location{File: "foo_test.go", Line: 12, Domain: "test_foo"},
		Phase:    PhaseCall,
		Outcome:  OutcomePassed,
	}
	sub := NewSubtestReport(base, NewContext("", map[string]any{"i": 3}))

	assert.Equal(t, "test_foo (i=3)", sub.HeadLine())
	assert.Equal(t, "test_foo", base.HeadLine())
}

func TestOutcomePredicates(t *testing.T) {
	r := &TestReport{Outcome: OutcomePassed}
	assert.True(t, r.Passed())
	assert.False(t, r.Failed())
	assert.False(t, r.Skipped())

	r.Outcome = OutcomeFailed
	assert.True(t, r.Failed())

	r.Outcome = OutcomeSkipped
	assert.True(t, r.Skipped())
}

func TestAddSectionKeepsOrder(t *testing.T) {
	r := &TestReport{}
	r.AddSection("Captured stdout call", "hello")
	r.AddSection("Captured stderr call", "oops")

	require.Len(t, r.Sections, 2)
	assert.Equal(t, "Captured stdout call", r.Sections[0].Title)
	assert.Equal(t, "Captured stderr call", r.Sections[1].Title)
}

func TestExcInfoString(t *testing.T) {
	var e *ExcInfo
	assert.Equal(t, "", e.String())

	e = &ExcInfo{Kind: ExcKindFailure, Message: "boom"}
	assert.Equal(t, "failure: boom", e.String())
}

func TestReportTimingFields(t *testing.T) {
	start := time.Now()
	stop := start.Add(150 * time.Millisecond)
	r := &TestReport{Start: start, Stop: stop, Duration: stop.Sub(start)}

	assert.Equal(t, 150*time.Millisecond, r.Duration)
	assert.False(t, r.Stop.Before(r.Start))
}
