package escalate

import (
	"strings"

	"github.com/sandevgo/carebot/internal/core"
)

type trigger struct {
	phrase  string // as configured, reported on match
	lowered string
}

// Evaluator decides whether a turn must be routed to a human provider. It is
// a pure function over the input text and the context record: no I/O, no
// dependency on the generation step, so the decision stands even when
// generation fails or runs long.
type Evaluator struct {
	triggers []trigger
}

// NewEvaluator builds an evaluator over an ordered trigger set. Matching is
// case-insensitive substring; when several triggers match, the longest
// phrase wins, with configuration order breaking exact-length ties.
func NewEvaluator(phrases []string) *Evaluator {
	e := &Evaluator{}
	for _, p := range phrases {
		if strings.TrimSpace(p) == "" {
			continue
		}
		e.triggers = append(e.triggers, trigger{phrase: p, lowered: strings.ToLower(p)})
	}
	return e
}

func (e *Evaluator) Evaluate(text string, record core.ContextRecord) core.EscalationDecision {
	lowered := strings.ToLower(text)

	var best trigger
	for _, tr := range e.triggers {
		if strings.Contains(lowered, tr.lowered) && len(tr.lowered) > len(best.lowered) {
			best = tr
		}
	}

	if best.phrase == "" {
		return core.EscalationDecision{}
	}
	return core.EscalationDecision{Escalate: true, MatchedTrigger: best.phrase}
}
