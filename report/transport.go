package report

import (
	"fmt"
	"time"
)

// Transport mapping field names. These are a stability contract: workers and
// coordinators on different versions must agree on them to exchange records.
const (
	ReportTypeKey      = "_report_type"
	SubtestReportType  = "SubtestReport"
	SubtestContextKey  = "_subtest.context"
	transportSecondsIn = float64(time.Second)
)

// ToTransport converts a report into a JSON-safe mapping, or ok=false for
// reports this package does not own so the host can serialize them its own
// way.
func ToTransport(r Report) (map[string]any, bool) {
	sr, ok := r.(*SubtestReport)
	if !ok {
		return nil, false
	}
	m := baseToTransport(&sr.TestReport)
	m[ReportTypeKey] = SubtestReportType
	m[SubtestContextKey] = map[string]any{
		"msg":    sr.Context.Msg,
		"params": copyParams(sr.Context.Params),
	}
	return m, true
}

// FromTransport reconstructs a subtest report from a transport mapping. It
// returns ok=false when the mapping carries a different (or no) type
// discriminator. The reconstructed report classifies identically to the
// original; no state beyond the mapping is consulted.
func FromTransport(m map[string]any) (*SubtestReport, bool) {
	if asString(m[ReportTypeKey]) != SubtestReportType {
		return nil, false
	}
	base := baseFromTransport(m)
	ctx := Context{Params: map[string]any{}}
	if cm, ok := m[SubtestContextKey].(map[string]any); ok {
		ctx.Msg = asString(cm["msg"])
		if pm, ok := cm["params"].(map[string]any); ok {
			ctx.Params = copyParams(pm)
		}
	}
	return &SubtestReport{TestReport: *base, Context: ctx}, true
}

func baseToTransport(r *TestReport) map[string]any {
	m := map[string]any{
		"node_id": r.NodeID,
		"location": map[string]any{
			"file":   r.Location.File,
			"line":   r.Location.Line,
			"domain": r.Location.Domain,
		},
		"phase":        string(r.Phase),
		"outcome":      string(r.Outcome),
		"xfail":        r.XFail,
		"xfail_reason": r.XFailReason,
		"longrepr":     r.Longrepr,
		"start":        timeToUnix(r.Start),
		"stop":         timeToUnix(r.Stop),
		"duration":     r.Duration.Seconds(),
	}
	sections := make([]any, 0, len(r.Sections))
	for _, s := range r.Sections {
		sections = append(sections, []any{s.Title, s.Content})
	}
	m["sections"] = sections
	if r.Exc != nil {
		m["exc"] = map[string]any{
			"kind":    string(r.Exc.Kind),
			"message": r.Exc.Message,
			"stack":   r.Exc.Stack,
		}
	}
	return m
}

func baseFromTransport(m map[string]any) *TestReport {
	r := &TestReport{
		NodeID:      asString(m["node_id"]),
		Phase:       Phase(asString(m["phase"])),
		Outcome:     Outcome(asString(m["outcome"])),
		XFail:       asBool(m["xfail"]),
		XFailReason: asString(m["xfail_reason"]),
		Longrepr:    asString(m["longrepr"]),
		Start:       unixToTime(asFloat(m["start"])),
		Stop:        unixToTime(asFloat(m["stop"])),
		Duration:    time.Duration(asFloat(m["duration"]) * transportSecondsIn),
	}
	if lm, ok := m["location"].(map[string]any); ok {
		r.Location = Location{
			File:   asString(lm["file"]),
			Line:   asInt(lm["line"]),
			Domain: asString(lm["domain"]),
		}
	}
	if raw, ok := m["sections"].([]any); ok {
		for _, entry := range raw {
			pair, ok := entry.([]any)
			if !ok || len(pair) != 2 {
				continue
			}
			r.AddSection(asString(pair[0]), asString(pair[1]))
		}
	}
	if em, ok := m["exc"].(map[string]any); ok {
		r.Exc = &ExcInfo{
			Kind:    ExcKind(asString(em["kind"])),
			Message: asString(em["message"]),
			Stack:   asString(em["stack"]),
		}
	}
	return r
}

func copyParams(params map[string]any) map[string]any {
	cp := make(map[string]any, len(params))
	for k, v := range params {
		cp[k] = v
	}
	return cp
}

func timeToUnix(t time.Time) float64 {
	if t.IsZero() {
		return 0
	}
	return float64(t.UnixNano()) / transportSecondsIn
}

func unixToTime(sec float64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(0, int64(sec*transportSecondsIn))
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

// asFloat tolerates the numeric widenings a JSON round trip introduces.
func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case fmt.Stringer:
		return 0
	default:
		return 0
	}
}

func asInt(v any) int {
	return int(asFloat(v))
}
