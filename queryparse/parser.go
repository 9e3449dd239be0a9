package queryparse

import (
	"github.com/fundscope/retrieval/normalize"
)

// Parse converts raw query text into a ParsedQuery. It normalizes the text
// first (the same Normalize used for corpus indexing, so alias phrases and
// the residual are on identical footing), then runs the ordered extractor
// steps, each stripping its recognized span from the residual before the
// next step sees it.
//
// Parse is idempotent: running it again on the residual of a prior Parse
// call yields no new constraints, because every recognized span has
// already been removed and the remaining text contains no alias phrases.
func Parse(rawQuery string) ParsedQuery {
	residual := normalize.Normalize(rawQuery)

	pq := ParsedQuery{
		Constraints: make(map[string]Constraint),
	}

	for _, s := range steps {
		newResidual, matches, warnings := s(residual)
		residual = newResidual
		for _, m := range matches {
			if m.Field == "horizon_hint" {
				pq.HorizonHint = m.Constraint.StringValue
				pq.Matches = append(pq.Matches, m)
				continue
			}
			pq.Constraints[m.Field] = m.Constraint
			pq.Matches = append(pq.Matches, m)
		}
		pq.Warnings = append(pq.Warnings, warnings...)
	}

	pq.Residual = residual
	return pq
}
