package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TranscriptArchive persists completed analyses to Postgres for audit history.
// With a nil pool every operation is a no-op, so the rest of the system never
// branches on database availability.
//
// Schema assumption:
//
//	CREATE TABLE IF NOT EXISTS analysis_archive (
//	  id UUID PRIMARY KEY,
//	  entity_name TEXT NOT NULL,
//	  corp_code TEXT,
//	  fiscal_year TEXT,
//	  final_grade TEXT,
//	  confidence INT,
//	  context_json JSONB NOT NULL,
//	  created_at TIMESTAMPTZ NOT NULL
//	);
type TranscriptArchive struct {
	pool *pgxpool.Pool
}

// NewTranscriptArchive wraps the given pool; nil disables archiving.
func NewTranscriptArchive(pool *pgxpool.Pool) *TranscriptArchive {
	return &TranscriptArchive{pool: pool}
}

// Enabled reports whether archive writes will actually persist.
func (a *TranscriptArchive) Enabled() bool {
	return a != nil && a.pool != nil
}

// Save archives one completed analysis context.
func (a *TranscriptArchive) Save(ctx context.Context, actx *AnalysisContext) error {
	if !a.Enabled() {
		return nil
	}

	contextJSON, err := json.Marshal(actx)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis context: %w", err)
	}

	corpCode := ""
	if actx.Company != nil {
		corpCode = actx.Company.CorpCode
	}
	confidence := 0
	if actx.FinalConsensus != nil {
		confidence = actx.FinalConsensus.Confidence
	}

	query := `
		INSERT INTO analysis_archive (
			id, entity_name, corp_code, fiscal_year,
			final_grade, confidence, context_json, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = a.pool.Exec(ctx, query,
		uuid.New(), actx.EntityName, corpCode, actx.FiscalYear,
		string(actx.FinalGrade()), confidence, contextJSON, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to archive analysis: %w", err)
	}
	return nil
}

// ArchivedRun is one archive row header, without the full context payload.
type ArchivedRun struct {
	ID         uuid.UUID `json:"id"`
	EntityName string    `json:"entity_name"`
	FiscalYear string    `json:"fiscal_year"`
	FinalGrade string    `json:"final_grade"`
	Confidence int       `json:"confidence"`
	CreatedAt  time.Time `json:"created_at"`
}

// History lists the most recent archived runs for an entity, newest first.
func (a *TranscriptArchive) History(ctx context.Context, entityName string, limit int) ([]ArchivedRun, error) {
	if !a.Enabled() {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT id, entity_name, fiscal_year, final_grade, confidence, created_at
		FROM analysis_archive
		WHERE entity_name = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := a.pool.Query(ctx, query, entityName, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query archive: %w", err)
	}
	defer rows.Close()

	var runs []ArchivedRun
	for rows.Next() {
		var r ArchivedRun
		if err := rows.Scan(&r.ID, &r.EntityName, &r.FiscalYear, &r.FinalGrade, &r.Confidence, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan archive row: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Load retrieves one archived context by id.
func (a *TranscriptArchive) Load(ctx context.Context, id uuid.UUID) (*AnalysisContext, error) {
	if !a.Enabled() {
		return nil, fmt.Errorf("archive not configured")
	}

	var contextJSON []byte
	err := a.pool.QueryRow(ctx, `SELECT context_json FROM analysis_archive WHERE id = $1`, id).Scan(&contextJSON)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("no archived analysis with id %s", id)
		}
		return nil, fmt.Errorf("failed to load archived analysis: %w", err)
	}

	var actx AnalysisContext
	if err := json.Unmarshal(contextJSON, &actx); err != nil {
		return nil, fmt.Errorf("failed to unmarshal archived context: %w", err)
	}
	return &actx, nil
}
