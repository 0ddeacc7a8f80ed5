package report

// Status is the display classification of a report: the summary category it
// is counted under, the one-character progress glyph, and the line shown in
// verbose mode and short summaries.
type Status struct {
	Category string
	Glyph    string
	Line     string
}

// Terminal tags appended to the scope description in status lines.
const (
	tagSubPass  = "SUBPASS"
	tagSubFail  = "SUBFAIL"
	tagSubSkip  = "SUBSKIP"
	tagSubXFail = "SUBXFAIL"
	tagSubXPass = "SUBXPASS"
)

// ClassifyStatus maps a subtest report onto its display status. It returns
// ok=false for reports it does not own (non-subtest reports, non-call phases,
// or an expected-failure marker combined with an outcome it does not
// recognize) so the host falls back to its default handling.
//
// Passed and expected-failure subtests are counted under "subtests ..."
// categories so the terminal's status coloring does not misrender them;
// failed and skipped subtests deliberately reuse the ordinary categories so
// global pass/fail counters stay consistent, while the line still carries
// the SUBFAIL/SUBSKIP annotation.
func ClassifyStatus(r Report, suppressGlyph bool) (Status, bool) {
	sr, ok := r.(*SubtestReport)
	if !ok || sr.Phase != PhaseCall {
		return Status{}, false
	}

	desc := sr.Context.Description()
	var category, glyph, tag string

	switch {
	case sr.XFail && sr.Skipped():
		// "y" rather than the regular "x" so subtest xfails are
		// distinguishable in the progress line.
		category, glyph, tag = "subtests xfailed", "y", tagSubXFail
	case sr.XFail && sr.Passed():
		category, glyph, tag = "subtests xpassed", "Y", tagSubXPass
	case sr.XFail:
		// An expected-failure marker with a failed outcome should not
		// happen unless something upstream mislabeled the report.
		return Status{}, false
	case sr.Passed():
		category, glyph, tag = "subtests passed", ",", tagSubPass
	case sr.Skipped():
		category, glyph, tag = string(OutcomeSkipped), "-", tagSubSkip
	case sr.Failed():
		category, glyph, tag = string(OutcomeFailed), "u", tagSubFail
	default:
		return Status{}, false
	}

	if suppressGlyph {
		glyph = ""
	}
	return Status{Category: category, Glyph: glyph, Line: desc + " " + tag}, true
}
