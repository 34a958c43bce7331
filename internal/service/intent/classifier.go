package intent

import (
	"strings"

	"github.com/sandevgo/carebot/internal/core"
)

// Classifier maps raw input text to exactly one intent label. Pure keyword
// matching over the lowercased input; classification is total and never
// errors. Unmatched input falls back to general chat.
//
// Classification runs before context fetching so the label can steer
// selective enrichment; it is not safety-critical, escalation is evaluated
// separately.
type Classifier struct{}

func NewClassifier() *Classifier {
	return &Classifier{}
}

var (
	medicationKeywords = []string{"medication", "dosage", "dose", "prescription", "pill", "refill"}
	suggestionKeywords = []string{"suggestion", "suggest", "tip", "recommend", "should i"}
	infoKeywords       = []string{"explain", "what is", "what are", "tell me about"}
)

func (c *Classifier) Classify(text string) core.Intent {
	t := strings.ToLower(text)

	switch {
	case containsAny(t, medicationKeywords):
		return core.IntentMedicationQuery
	case containsAny(t, suggestionKeywords):
		return core.IntentSuggestionRequest
	case containsAny(t, infoKeywords):
		return core.IntentInfoRequest
	default:
		return core.IntentGeneralChat
	}
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
