// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"github.com/pdiddy/nmr-reporter/internal/span"
	"github.com/pdiddy/nmr-reporter/internal/template"
)

// Match picks the hypothesis that best explains one record.
//
// Groups are tried fullest first. Within a group a hypothesis without
// constants wins at once, as does one whose every constant occurs exactly
// once. Otherwise the valid hypothesis with the fewest surplus occurrences
// wins, the earliest on ties. A hypothesis is invalid when one of its
// constants is missing from the text that follows the previous constant.
func Match(tpl *template.Template, record span.Span) (template.Section, int, error) {
	for _, g := range tpl.Groups() {
		best, bestPenalty := -1, 0
		for i, h := range g.Hypotheses {
			consts := h.ConstantTexts()
			if len(consts) == 0 {
				return h, g.N, nil
			}
			penalty, ok := score(record, consts)
			if !ok {
				continue
			}
			if penalty == 0 {
				return h, g.N, nil
			}
			if best < 0 || penalty < bestPenalty {
				best, bestPenalty = i, penalty
			}
		}
		if best >= 0 {
			return g.Hypotheses[best], g.N, nil
		}
	}
	return template.Section{}, 0, inputErrorf(record.String(), "no hypothesis of the template matches")
}

// score sums count-1 over the constants, each counted in the text from the
// previous constant's first occurrence on.
func score(record span.Span, consts []string) (int, bool) {
	work := record
	penalty := 0
	for _, c := range consts {
		n := work.Count(c)
		if n == 0 {
			return 0, false
		}
		penalty += n - 1
		work = work.From(work.Index(c))
	}
	return penalty, true
}
