package core

const (
	CareBotName    = "CareBot"
	CareBotVersion = "0.1.0"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SourceStatus records the provenance of one backing source within an
// assembled context record.
type SourceStatus string

const (
	StatusFresh       SourceStatus = "fresh"
	StatusStale       SourceStatus = "stale"
	StatusUnavailable SourceStatus = "unavailable"
	StatusNotFound    SourceStatus = "not_found"
)

// Intent is the classified purpose of one user message. Classification is
// total: every input maps to exactly one label.
type Intent string

const (
	IntentSuggestionRequest Intent = "suggestion_request"
	IntentInfoRequest       Intent = "info_request"
	IntentMedicationQuery   Intent = "medication_query"
	IntentGeneralChat       Intent = "general_chat"
)

// ProfileData is the demographic slice of a subject's context, owned by the
// profile store.
type ProfileData struct {
	Name           string `json:"name"`
	Age            int    `json:"age"`
	MedicalHistory string `json:"medical_history"`
}

// LedgerData is the clinical slice of a subject's context, owned by the
// medical event ledger.
type LedgerData struct {
	Diagnoses   []string          `json:"diagnoses"`
	Medications []string          `json:"medications"`
	LabResults  map[string]string `json:"lab_results"`
}

// ContextRecord is the aggregated view of one subject assembled from both
// sources. A record is produced whole by a single aggregation pass and is
// never mutated in place afterwards.
type ContextRecord struct {
	SubjectID      string            `json:"subject_id"`
	Name           string            `json:"name,omitempty"`
	Age            int               `json:"age,omitempty"`
	MedicalHistory string            `json:"medical_history,omitempty"`
	Medications    []string          `json:"medications,omitempty"`
	Diagnoses      []string          `json:"diagnoses,omitempty"`
	LabResults     map[string]string `json:"lab_results,omitempty"`
	ProfileStatus  SourceStatus      `json:"profile_status"`
	LedgerStatus   SourceStatus      `json:"ledger_status"`
}

// EscalationDecision is computed once per turn from the input text and the
// context record, before any reply is generated. It is never cached and never
// reused across turns.
type EscalationDecision struct {
	Escalate       bool   `json:"escalate"`
	MatchedTrigger string `json:"matched_trigger,omitempty"`
}

// Outcome is the per-turn record the workflow controller hands to the API
// layer. Err is set only when a stage violated its always-produces-a-value
// contract.
type Outcome struct {
	SubjectID  string
	ThreadID   string
	Input      string
	Intent     Intent
	Context    ContextRecord
	Escalation EscalationDecision
	Reply      string
	Err        *WorkflowError
}
