package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sandevgo/carebot/internal/core"
	"github.com/sandevgo/carebot/pkg/log"
)

const defaultHistoryLimit = 50

type Workflow interface {
	HandleTurn(ctx context.Context, subjectID, threadID, input string) core.Outcome
}

type ContextReader interface {
	Aggregate(ctx context.Context, subjectID string, intent core.Intent) core.ContextRecord
}

// Handler exposes the turn pipeline over HTTP. Transcripts may be nil, in
// which case the history endpoint reports the feature as unavailable.
type Handler struct {
	workflow    Workflow
	contexts    ContextReader
	transcripts core.TranscriptRepository
}

func NewHandler(workflow Workflow, contexts ContextReader, transcripts core.TranscriptRepository) *Handler {
	return &Handler{
		workflow:    workflow,
		contexts:    contexts,
		transcripts: transcripts,
	}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/health", h.Health)
	r.Route("/api", func(r chi.Router) {
		r.Post("/chat", h.Chat)
		r.Get("/chat/history/{threadID}", h.ChatHistory)
		r.Get("/subject/{subjectID}/context", h.SubjectContext)
		r.Get("/subject/{subjectID}/history", h.SubjectHistory)
	})
}

type ChatRequest struct {
	SubjectID string `json:"subject_id"`
	Message   string `json:"message"`
	ThreadID  string `json:"thread_id,omitempty"`
}

type ChatResponse struct {
	ThreadID   string                  `json:"thread_id"`
	Reply      string                  `json:"reply"`
	Intent     core.Intent             `json:"intent"`
	Escalation core.EscalationDecision `json:"escalation"`
}

func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SubjectID == "" {
		httpError(w, http.StatusBadRequest, "subject_id is required")
		return
	}
	if req.Message == "" {
		httpError(w, http.StatusBadRequest, "message is required")
		return
	}

	threadID := req.ThreadID
	if threadID == "" {
		threadID = newThreadID(req.SubjectID)
	}

	out := h.workflow.HandleTurn(r.Context(), req.SubjectID, threadID, req.Message)
	if out.Err != nil {
		log.FromCtx(r.Context()).Error().Err(out.Err).Str("subject", req.SubjectID).Msg("turn failed")
		httpError(w, http.StatusInternalServerError, "failed to process message")
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{
		ThreadID:   threadID,
		Reply:      out.Reply,
		Intent:     out.Intent,
		Escalation: out.Escalation,
	})
}

func (h *Handler) ChatHistory(w http.ResponseWriter, r *http.Request) {
	if h.transcripts == nil {
		httpError(w, http.StatusNotImplemented, "transcript storage is disabled")
		return
	}

	threadID := chi.URLParam(r, "threadID")
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			httpError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	turns, err := h.transcripts.GetThreadTurns(r.Context(), threadID, limit)
	if err != nil {
		log.FromCtx(r.Context()).Error().Err(err).Str("thread", threadID).Msg("failed to load history")
		httpError(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	if turns == nil {
		turns = []core.StoredTurn{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"thread_id": threadID,
		"turns":     turns,
	})
}

// SubjectHistory returns a subject's turns across all threads, in
// chronological order like the thread view.
func (h *Handler) SubjectHistory(w http.ResponseWriter, r *http.Request) {
	if h.transcripts == nil {
		httpError(w, http.StatusNotImplemented, "transcript storage is disabled")
		return
	}

	subjectID := chi.URLParam(r, "subjectID")
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			httpError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	turns, err := h.transcripts.GetSubjectTurns(r.Context(), subjectID, limit)
	if err != nil {
		log.FromCtx(r.Context()).Error().Err(err).Str("subject", subjectID).Msg("failed to load subject history")
		httpError(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	if turns == nil {
		turns = []core.StoredTurn{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"subject_id": subjectID,
		"turns":      turns,
	})
}

func (h *Handler) SubjectContext(w http.ResponseWriter, r *http.Request) {
	subjectID := chi.URLParam(r, "subjectID")
	if subjectID == "" {
		httpError(w, http.StatusBadRequest, "subject id is required")
		return
	}

	rec := h.contexts.Aggregate(r.Context(), subjectID, core.IntentGeneralChat)
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": core.CareBotName,
		"version": core.CareBotVersion,
	})
}

func newThreadID(subjectID string) string {
	return fmt.Sprintf("thread-%s-%s", subjectID, uuid.New().String()[:8])
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func httpError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
