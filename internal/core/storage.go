package core

import (
	"context"
	"time"
)

type TranscriptRepository interface {
	AddTurn(ctx context.Context, turn StoredTurn) error
	GetThreadTurns(ctx context.Context, threadID string, limit int) ([]StoredTurn, error)
	GetSubjectTurns(ctx context.Context, subjectID string, limit int) ([]StoredTurn, error)
}

type StoredTurn struct {
	ID        int64     `json:"id"`
	ThreadID  string    `json:"thread_id"`
	SubjectID string    `json:"subject_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Intent    string    `json:"intent,omitempty"`
	Escalated bool      `json:"escalated"`
	CreatedAt time.Time `json:"created_at"`
}
