package aggregate

import (
	"context"
	"sync"

	"github.com/sandevgo/carebot/internal/core"
	"github.com/sandevgo/carebot/pkg/log"
)

// Cache is the slice of the context cache the aggregator needs.
type Cache interface {
	Get(subjectID string) (core.ContextRecord, bool)
	Put(subjectID string, record core.ContextRecord)
}

// Aggregator assembles one context record per turn from the profile store
// and the medical event ledger, consulting the cache first. It never fails:
// a turn with both sources down still yields a record with both statuses
// unavailable.
//
// Merged records are cached unconditionally, partial unavailability
// included, so repeated misses inside the TTL window do not hammer a down
// source. Operators trade freshness for bounded retry pressure here; a
// degraded record heals no sooner than one TTL after the outage ends.
type Aggregator struct {
	cache   Cache
	profile core.ProfileAdapter
	ledger  core.LedgerAdapter
}

func New(cache Cache, profile core.ProfileAdapter, ledger core.LedgerAdapter) *Aggregator {
	return &Aggregator{
		cache:   cache,
		profile: profile,
		ledger:  ledger,
	}
}

// Aggregate returns the context record for subjectID. The intent steers
// selective enrichment; the baseline profile and ledger fetch always happens
// on a cache miss.
func (a *Aggregator) Aggregate(ctx context.Context, subjectID string, intent core.Intent) core.ContextRecord {
	logger := log.FromCtx(ctx)

	if rec, ok := a.cache.Get(subjectID); ok {
		logger.Debug().Str("subject", subjectID).Msg("context cache hit")
		return rec
	}

	var (
		profileData   core.ProfileData
		profileStatus core.SourceStatus
		ledgerData    core.LedgerData
		ledgerStatus  core.SourceStatus
	)

	opts := core.LedgerOptions{IncludeLabResults: wantsLabResults(intent)}

	// Both sources contribute disjoint fields, so both calls run in
	// parallel and both must settle before the merge. There is no
	// early return on first success.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		profileData, profileStatus = a.profile.Fetch(ctx, subjectID)
	}()
	go func() {
		defer wg.Done()
		ledgerData, ledgerStatus = a.ledger.Fetch(ctx, subjectID, opts)
	}()
	wg.Wait()

	rec := merge(subjectID, profileData, profileStatus, ledgerData, ledgerStatus)

	logger.Debug().
		Str("subject", subjectID).
		Str("profile_status", string(profileStatus)).
		Str("ledger_status", string(ledgerStatus)).
		Msg("context assembled")

	a.cache.Put(subjectID, rec)
	return rec
}

func wantsLabResults(intent core.Intent) bool {
	return intent == core.IntentSuggestionRequest || intent == core.IntentMedicationQuery
}

// merge builds the record in one pass. Data fields stay empty for any source
// that is not fresh; nothing is fabricated.
func merge(subjectID string, profile core.ProfileData, profileStatus core.SourceStatus, ledger core.LedgerData, ledgerStatus core.SourceStatus) core.ContextRecord {
	rec := core.ContextRecord{
		SubjectID:     subjectID,
		ProfileStatus: profileStatus,
		LedgerStatus:  ledgerStatus,
	}

	if profileStatus == core.StatusFresh {
		rec.Name = profile.Name
		rec.Age = profile.Age
		rec.MedicalHistory = profile.MedicalHistory
	}
	if ledgerStatus == core.StatusFresh {
		rec.Diagnoses = ledger.Diagnoses
		rec.Medications = ledger.Medications
		rec.LabResults = ledger.LabResults
	}
	return rec
}
