package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandevgo/carebot/internal/core"
)

type fakeWorkflow struct {
	outcome       core.Outcome
	lastSubjectID string
	lastThreadID  string
	lastInput     string
}

func (f *fakeWorkflow) HandleTurn(ctx context.Context, subjectID, threadID, input string) core.Outcome {
	f.lastSubjectID = subjectID
	f.lastThreadID = threadID
	f.lastInput = input

	out := f.outcome
	out.SubjectID = subjectID
	out.ThreadID = threadID
	out.Input = input
	return out
}

type fakeContexts struct {
	record core.ContextRecord
}

func (f *fakeContexts) Aggregate(ctx context.Context, subjectID string, intent core.Intent) core.ContextRecord {
	rec := f.record
	rec.SubjectID = subjectID
	return rec
}

type fakeTranscripts struct {
	turns []core.StoredTurn
	err   error
}

func (f *fakeTranscripts) AddTurn(ctx context.Context, turn core.StoredTurn) error { return nil }

func (f *fakeTranscripts) GetThreadTurns(ctx context.Context, threadID string, limit int) ([]core.StoredTurn, error) {
	if f.err != nil {
		return nil, f.err
	}
	if limit < len(f.turns) {
		return f.turns[:limit], nil
	}
	return f.turns, nil
}

func (f *fakeTranscripts) GetSubjectTurns(ctx context.Context, subjectID string, limit int) ([]core.StoredTurn, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []core.StoredTurn
	for _, t := range f.turns {
		if t.SubjectID == subjectID {
			out = append(out, t)
		}
	}
	return out, nil
}

func newTestRouter(workflow Workflow, contexts ContextReader, transcripts core.TranscriptRepository) chi.Router {
	r := chi.NewRouter()
	NewHandler(workflow, contexts, transcripts).Register(r)
	return r
}

func TestChat_ReturnsOutcome(t *testing.T) {
	workflow := &fakeWorkflow{
		outcome: core.Outcome{
			Intent:     core.IntentSuggestionRequest,
			Escalation: core.EscalationDecision{Escalate: false},
			Reply:      "Aim for balanced meals.",
		},
	}
	router := newTestRouter(workflow, &fakeContexts{}, nil)

	body := `{"subject_id":"patient-123","message":"What should I eat?","thread_id":"thread-7"}`
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "thread-7", resp.ThreadID)
	assert.Equal(t, "Aim for balanced meals.", resp.Reply)
	assert.Equal(t, core.IntentSuggestionRequest, resp.Intent)
	assert.False(t, resp.Escalation.Escalate)

	assert.Equal(t, "patient-123", workflow.lastSubjectID)
	assert.Equal(t, "What should I eat?", workflow.lastInput)
}

func TestChat_GeneratesThreadID(t *testing.T) {
	workflow := &fakeWorkflow{outcome: core.Outcome{Reply: "hi"}}
	router := newTestRouter(workflow, &fakeContexts{}, nil)

	body := `{"subject_id":"patient-123","message":"hello"}`
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, strings.HasPrefix(resp.ThreadID, "thread-patient-123-"), "thread id = %q", resp.ThreadID)
	assert.Len(t, resp.ThreadID, len("thread-patient-123-")+8)
	assert.Equal(t, resp.ThreadID, workflow.lastThreadID)
}

func TestChat_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing_subject", `{"message":"hello"}`},
		{"missing_message", `{"subject_id":"patient-123"}`},
		{"malformed_json", `{"subject_id":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(&fakeWorkflow{}, &fakeContexts{}, nil)

			req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewReader([]byte(tt.body)))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestChat_WorkflowErrorIs500(t *testing.T) {
	workflow := &fakeWorkflow{
		outcome: core.Outcome{
			Err: &core.WorkflowError{Stage: "classifying_intent", Err: assert.AnError},
		},
	}
	router := newTestRouter(workflow, &fakeContexts{}, nil)

	body := `{"subject_id":"patient-123","message":"hello"}`
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestChatHistory(t *testing.T) {
	transcripts := &fakeTranscripts{
		turns: []core.StoredTurn{
			{ThreadID: "thread-7", Role: core.RoleUser, Content: "hello"},
			{ThreadID: "thread-7", Role: core.RoleAssistant, Content: "hi"},
		},
	}
	router := newTestRouter(&fakeWorkflow{}, &fakeContexts{}, transcripts)

	req := httptest.NewRequest(http.MethodGet, "/api/chat/history/thread-7", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		ThreadID string            `json:"thread_id"`
		Turns    []core.StoredTurn `json:"turns"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "thread-7", resp.ThreadID)
	require.Len(t, resp.Turns, 2)
	assert.Equal(t, core.RoleAssistant, resp.Turns[1].Role)
}

func TestChatHistory_Limit(t *testing.T) {
	transcripts := &fakeTranscripts{
		turns: []core.StoredTurn{
			{ThreadID: "thread-7", Role: core.RoleUser, Content: "one"},
			{ThreadID: "thread-7", Role: core.RoleAssistant, Content: "two"},
		},
	}
	router := newTestRouter(&fakeWorkflow{}, &fakeContexts{}, transcripts)

	req := httptest.NewRequest(http.MethodGet, "/api/chat/history/thread-7?limit=1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Turns []core.StoredTurn `json:"turns"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Turns, 1)

	req = httptest.NewRequest(http.MethodGet, "/api/chat/history/thread-7?limit=zero", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubjectHistory(t *testing.T) {
	transcripts := &fakeTranscripts{
		turns: []core.StoredTurn{
			{ThreadID: "thread-7", SubjectID: "patient-123", Role: core.RoleUser, Content: "hello"},
			{ThreadID: "thread-8", SubjectID: "patient-123", Role: core.RoleUser, Content: "new thread"},
			{ThreadID: "thread-9", SubjectID: "patient-456", Role: core.RoleUser, Content: "someone else"},
		},
	}
	router := newTestRouter(&fakeWorkflow{}, &fakeContexts{}, transcripts)

	req := httptest.NewRequest(http.MethodGet, "/api/subject/patient-123/history", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		SubjectID string            `json:"subject_id"`
		Turns     []core.StoredTurn `json:"turns"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "patient-123", resp.SubjectID)
	require.Len(t, resp.Turns, 2)
	assert.Equal(t, "thread-7", resp.Turns[0].ThreadID)
	assert.Equal(t, "thread-8", resp.Turns[1].ThreadID)
}

func TestSubjectHistory_Disabled(t *testing.T) {
	router := newTestRouter(&fakeWorkflow{}, &fakeContexts{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/subject/patient-123/history", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestChatHistory_Disabled(t *testing.T) {
	router := newTestRouter(&fakeWorkflow{}, &fakeContexts{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/chat/history/thread-7", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestSubjectContext(t *testing.T) {
	contexts := &fakeContexts{
		record: core.ContextRecord{
			Name:          "Jane Doe",
			Age:           45,
			ProfileStatus: core.StatusFresh,
			LedgerStatus:  core.StatusUnavailable,
		},
	}
	router := newTestRouter(&fakeWorkflow{}, contexts, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/subject/patient-123/context", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var record core.ContextRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &record))
	assert.Equal(t, "patient-123", record.SubjectID)
	assert.Equal(t, "Jane Doe", record.Name)
	assert.Equal(t, core.StatusUnavailable, record.LedgerStatus)
}

func TestHealth(t *testing.T) {
	router := newTestRouter(&fakeWorkflow{}, &fakeContexts{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, core.CareBotName, resp["service"])
}
