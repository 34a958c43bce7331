package source

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/sandevgo/carebot/internal/core"
	"github.com/sandevgo/carebot/pkg/log"
)

// LedgerClient fetches diagnoses, medications and lab results from the
// append-only medical event ledger. Implements core.LedgerAdapter.
type LedgerClient struct {
	baseClient
}

func NewLedgerClient(baseURL, apiKey string, timeout time.Duration) *LedgerClient {
	return &LedgerClient{
		baseClient: newBaseClient(baseURL, apiKey, timeout),
	}
}

func (l *LedgerClient) Fetch(ctx context.Context, subjectID string, opts core.LedgerOptions) (core.LedgerData, core.SourceStatus) {
	logger := log.FromCtx(ctx)

	path := "/records/" + url.PathEscape(subjectID)
	if opts.IncludeLabResults {
		path += "?include_labs=1"
	}

	resp, err := l.get(ctx, path)
	if err != nil {
		logger.Warn().Err(err).Str("subject", subjectID).Msg("ledger unreachable")
		return core.LedgerData{}, core.StatusUnavailable
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return core.LedgerData{}, core.StatusNotFound
	case resp.StatusCode != http.StatusOK:
		logger.Warn().Int("status", resp.StatusCode).Str("subject", subjectID).Msg("ledger error response")
		return core.LedgerData{}, core.StatusUnavailable
	}

	var data core.LedgerData
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		logger.Warn().Err(err).Str("subject", subjectID).Msg("malformed ledger response")
		return core.LedgerData{}, core.StatusUnavailable
	}

	return data, core.StatusFresh
}
