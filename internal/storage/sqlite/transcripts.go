package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sandevgo/carebot/internal/core"
	"github.com/sandevgo/carebot/pkg/log"
)

// Transcripts persists conversation turns. It implements
// core.TranscriptRepository.
type Transcripts struct {
	db *sql.DB
}

func NewTranscripts(db *sql.DB) *Transcripts {
	return &Transcripts{db: db}
}

func (t *Transcripts) AddTurn(ctx context.Context, turn core.StoredTurn) error {
	query := `INSERT INTO turns (thread_id, subject_id, role, content, intent, escalated) VALUES (?, ?, ?, ?, ?, ?)`
	_, err := t.db.ExecContext(ctx, query, turn.ThreadID, turn.SubjectID, turn.Role, turn.Content, turn.Intent, turn.Escalated)
	if err != nil {
		return fmt.Errorf("failed to insert turn: %w", err)
	}
	return nil
}

func (t *Transcripts) GetThreadTurns(ctx context.Context, threadID string, limit int) ([]core.StoredTurn, error) {
	query := `SELECT id, thread_id, subject_id, role, content, intent, escalated, created_at FROM turns WHERE thread_id = ? ORDER BY id DESC LIMIT ?`
	return t.queryTurns(ctx, query, threadID, limit)
}

func (t *Transcripts) GetSubjectTurns(ctx context.Context, subjectID string, limit int) ([]core.StoredTurn, error) {
	query := `SELECT id, thread_id, subject_id, role, content, intent, escalated, created_at FROM turns WHERE subject_id = ? ORDER BY id DESC LIMIT ?`
	return t.queryTurns(ctx, query, subjectID, limit)
}

func (t *Transcripts) queryTurns(ctx context.Context, query string, key string, limit int) ([]core.StoredTurn, error) {
	rows, err := t.db.QueryContext(ctx, query, key, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query turns: %w", err)
	}
	defer rows.Close()

	var turns []core.StoredTurn
	for rows.Next() {
		var turn core.StoredTurn
		var content, intent sql.NullString

		if err := rows.Scan(&turn.ID, &turn.ThreadID, &turn.SubjectID, &turn.Role, &content, &intent, &turn.Escalated, &turn.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		turn.Content = content.String
		turn.Intent = intent.String
		turns = append(turns, turn)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	// The query returned turns newest first; callers want chronological
	// order for display and prompting.
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}

	log.FromCtx(ctx).Debug().Int("count", len(turns)).Msg("loaded stored turns")
	return turns, nil
}
