package core

import "context"

// ProfileAdapter fetches demographic data for a subject. Implementations
// apply their own bounded timeout and never return an error: any transport
// or integrity failure degrades to StatusUnavailable with empty data.
type ProfileAdapter interface {
	Fetch(ctx context.Context, subjectID string) (ProfileData, SourceStatus)
}

// LedgerOptions steers selective enrichment of a ledger fetch.
type LedgerOptions struct {
	IncludeLabResults bool
}

// LedgerAdapter fetches clinical events for a subject under the same
// degrade-to-status contract as ProfileAdapter.
type LedgerAdapter interface {
	Fetch(ctx context.Context, subjectID string, opts LedgerOptions) (LedgerData, SourceStatus)
}

// Generator is the opaque language-generation collaborator: prompt in, text
// out, possibly slow or failing. Nothing safety-critical may depend on it.
type Generator interface {
	Generate(ctx context.Context, system string, history []Message) (string, error)
}

// ProviderNotifier dispatches an escalated turn to a human provider.
type ProviderNotifier interface {
	NotifyEscalation(ctx context.Context, outcome Outcome) error
}
