package harness

import (
	"time"

	"github.com/testforge/subreport/report"
)

// Item is one registered test: its identity plus the function the runner
// invokes.
type Item struct {
	NodeID   string
	Location report.Location
	Fn       func(t *T)
}

// NewItem builds an item whose display domain defaults to the node ID.
func NewItem(nodeID string, fn func(t *T)) *Item {
	return &Item{
		NodeID:   nodeID,
		Location: report.Location{Domain: nodeID},
		Fn:       fn,
	}
}

// CallInfo bundles what the harness knows about one completed call phase:
// the recovered error info (nil on success), wall-clock start/stop and the
// monotonic duration.
type CallInfo struct {
	Exc      *report.ExcInfo
	Start    time.Time
	Stop     time.Time
	Duration time.Duration
	Phase    report.Phase
}

func NewCallInfo(exc *report.ExcInfo, start, stop time.Time, duration time.Duration, phase report.Phase) *CallInfo {
	return &CallInfo{Exc: exc, Start: start, Stop: stop, Duration: duration, Phase: phase}
}
