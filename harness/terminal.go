package harness

import (
	"fmt"
	"io"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/testforge/subreport/report"
)

// knownStatusOrder lists the summary categories in display order. Categories
// not in the table render uncolored and sort after the known ones.
var (
	statusMu         sync.Mutex
	knownStatusOrder = []string{"failed", "passed", "skipped", "xfailed", "xpassed", "errors"}
	statusColors     = map[string]text.Colors{
		"failed":  {text.FgRed},
		"passed":  {text.FgGreen},
		"skipped": {text.FgYellow},
		"xfailed": {text.FgYellow},
		"xpassed": {text.FgYellow},
		"errors":  {text.FgRed},
	}
)

// MergeSubtestStatuses registers the subtests-namespaced categories in the
// status table, reusing the base category's color so subtest lines are not
// rendered as warnings. The merge is idempotent: sessions created repeatedly
// in one process (common under in-process testing) must not duplicate
// entries.
func MergeSubtestStatuses() {
	statusMu.Lock()
	defer statusMu.Unlock()
	for _, outcome := range []string{"passed", "failed", "skipped", "xfailed", "xpassed"} {
		name := "subtests " + outcome
		if slices.Contains(knownStatusOrder, name) {
			continue
		}
		knownStatusOrder = append(knownStatusOrder, name)
		if c, ok := statusColors[outcome]; ok {
			statusColors[name] = c
		}
	}
}

// StatusColor returns the color for a summary category, falling back to the
// base category for namespaced ones.
func StatusColor(category string) text.Colors {
	statusMu.Lock()
	defer statusMu.Unlock()
	if c, ok := statusColors[category]; ok {
		return c
	}
	base := strings.TrimPrefix(category, "subtests ")
	return statusColors[base]
}

// Terminal renders per-report progress (glyphs, or one line per report in
// verbose mode) and accumulates the category counts for the final summary.
type Terminal struct {
	mu      sync.Mutex
	w       io.Writer
	verbose bool
	counts  map[string]int
	glyphs  int
}

func NewTerminal(w io.Writer, verbose bool) *Terminal {
	return &Terminal{w: w, verbose: verbose, counts: make(map[string]int)}
}

// Emit writes the progress output for one classified report and counts it
// under its category.
func (t *Terminal) Emit(headLine string, st report.Status) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counts[st.Category]++

	if t.verbose {
		if st.Line != "" {
			fmt.Fprintf(t.w, "%s %s\n", headLine, st.Line)
		}
		return
	}
	if st.Glyph != "" {
		fmt.Fprint(t.w, st.Glyph)
		t.glyphs++
	}
}

// Counts returns a copy of the per-category totals.
func (t *Terminal) Counts() map[string]int {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]int, len(t.counts))
	for k, v := range t.counts {
		out[k] = v
	}
	return out
}

// FinishProgress terminates the glyph line, if one was started.
func (t *Terminal) FinishProgress() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.verbose && t.glyphs > 0 {
		fmt.Fprintln(t.w)
		t.glyphs = 0
	}
}

// SummaryLine renders the run summary, e.g.
// "2 failed, 1 passed, 3 subtests passed in 0.12s". Categories appear in
// the known-status order; unknown categories follow alphabetically.
func (t *Terminal) SummaryLine(d time.Duration) string {
	counts := t.Counts()

	statusMu.Lock()
	order := make([]string, len(knownStatusOrder))
	copy(order, knownStatusOrder)
	statusMu.Unlock()

	var parts []string
	seen := make(map[string]bool)
	for _, category := range order {
		if n := counts[category]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, category))
		}
		seen[category] = true
	}
	var rest []string
	for category := range counts {
		if !seen[category] {
			rest = append(rest, category)
		}
	}
	sort.Strings(rest)
	for _, category := range rest {
		parts = append(parts, fmt.Sprintf("%d %s", counts[category], category))
	}

	if len(parts) == 0 {
		parts = append(parts, "no tests ran")
	}
	return fmt.Sprintf("%s in %.2fs", strings.Join(parts, ", "), d.Seconds())
}

// WriteSummary prints the colored summary line, choosing the color of the
// most severe category present.
func (t *Terminal) WriteSummary(d time.Duration) {
	line := t.SummaryLine(d)
	counts := t.Counts()
	color := StatusColor("passed")
	if counts["failed"] > 0 || counts["errors"] > 0 {
		color = StatusColor("failed")
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.w, color.Sprint(line))
}
