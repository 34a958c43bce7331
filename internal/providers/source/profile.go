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

// ProfileClient fetches demographic and contact data from the profile store.
// It implements core.ProfileAdapter: failures degrade to a status, they are
// never raised to the caller.
type ProfileClient struct {
	baseClient
}

func NewProfileClient(baseURL, apiKey string, timeout time.Duration) *ProfileClient {
	return &ProfileClient{
		baseClient: newBaseClient(baseURL, apiKey, timeout),
	}
}

func (p *ProfileClient) Fetch(ctx context.Context, subjectID string) (core.ProfileData, core.SourceStatus) {
	logger := log.FromCtx(ctx)

	resp, err := p.get(ctx, "/patients/"+url.PathEscape(subjectID))
	if err != nil {
		logger.Warn().Err(err).Str("subject", subjectID).Msg("profile store unreachable")
		return core.ProfileData{}, core.StatusUnavailable
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return core.ProfileData{}, core.StatusNotFound
	case resp.StatusCode != http.StatusOK:
		logger.Warn().Int("status", resp.StatusCode).Str("subject", subjectID).Msg("profile store error response")
		return core.ProfileData{}, core.StatusUnavailable
	}

	var data core.ProfileData
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		logger.Warn().Err(err).Str("subject", subjectID).Msg("malformed profile response")
		return core.ProfileData{}, core.StatusUnavailable
	}

	return data, core.StatusFresh
}
