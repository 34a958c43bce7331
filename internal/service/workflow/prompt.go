package workflow

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sandevgo/carebot/internal/core"
)

// fallbackReply stands in whenever the generation backend fails or times out.
// The turn still completes with its intent, context and escalation intact.
const fallbackReply = "I apologize, but I'm having trouble processing your request right now. Please try again or contact your healthcare provider if this is urgent."

// buildSystemPrompt renders the per-turn system message. Fields a source did
// not supply collapse to explicit placeholders so the model never guesses.
func buildSystemPrompt(rec core.ContextRecord) string {
	name := rec.Name
	if name == "" {
		name = "Patient"
	}
	age := "Unknown"
	if rec.Age > 0 {
		age = fmt.Sprintf("%d", rec.Age)
	}
	history := rec.MedicalHistory
	if history == "" {
		history = "No medical history available"
	}

	var b strings.Builder
	b.WriteString("You are a helpful and empathetic medical assistant.\n\n")
	fmt.Fprintf(&b, "You are currently speaking to %s, who is %s years old.\n\n", name, age)
	b.WriteString("Patient Medical Context:\n")
	fmt.Fprintf(&b, "- Medical History: %s\n", history)
	fmt.Fprintf(&b, "- Current Diagnoses: %s\n", orNone(rec.Diagnoses))
	fmt.Fprintf(&b, "- Current Medications: %s\n", orNone(rec.Medications))
	if len(rec.LabResults) > 0 {
		fmt.Fprintf(&b, "- Recent Lab Results: %s\n", formatLabs(rec.LabResults))
	}
	b.WriteString("\nImportant Guidelines:\n")
	b.WriteString("1. Provide personalized guidance based on the patient's specific medical context\n")
	b.WriteString("2. Always be empathetic and supportive in your tone\n")
	b.WriteString("3. DO NOT provide medical diagnoses or prescribe medications\n")
	b.WriteString("4. If the question requires immediate medical attention, advise the patient to contact their healthcare provider\n")
	b.WriteString("5. Reference their specific conditions and medications when relevant\n")
	b.WriteString("6. Be clear that you are an AI assistant and not a replacement for professional medical advice\n")
	b.WriteString("\nAnswer the patient's question based on their medical context while following these guidelines.")
	return b.String()
}

func orNone(items []string) string {
	if len(items) == 0 {
		return "None on record"
	}
	return strings.Join(items, ", ")
}

func formatLabs(labs map[string]string) string {
	keys := make([]string, 0, len(labs))
	for k := range labs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, labs[k]))
	}
	return strings.Join(parts, "; ")
}
