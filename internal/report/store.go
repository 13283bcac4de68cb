package report

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/decoynet/honeypot-platform/internal/delivery"
	"github.com/decoynet/honeypot-platform/internal/session"
)

// Store archives final engagement reports to PostgreSQL for long-term analysis.
// The in-memory session store stays the source of truth; the archive is
// optional and every method is a no-op when no database is configured.
type Store struct {
	db *sql.DB
}

// NewStore creates a report archive. Returns nil when db is nil; a nil *Store
// is safe to call.
func NewStore(db *sql.DB) *Store {
	if db == nil {
		return nil
	}
	return &Store{db: db}
}

// Record is one archived engagement report.
type Record struct {
	ID             uuid.UUID
	SessionID      string
	ScamDetected   bool
	TotalMessages  int
	Intelligence   json.RawMessage
	Notes          json.RawMessage
	StopReason     string
	DeliveryStatus string
	CreatedAt      time.Time
}

// Archive persists the final report together with the structured notes. Called
// once per completed engagement, before delivery resolves; delivery status is
// updated separately.
func (s *Store) Archive(ctx context.Context, rep delivery.Report, notes *session.Notes, stopReason string) (uuid.UUID, error) {
	if s == nil || s.db == nil {
		return uuid.Nil, nil
	}

	intelJSON, err := json.Marshal(rep.ExtractedIntelligence)
	if err != nil {
		return uuid.Nil, fmt.Errorf("report: failed to encode intelligence: %w", err)
	}
	notesJSON, err := json.Marshal(notes)
	if err != nil {
		return uuid.Nil, fmt.Errorf("report: failed to encode notes: %w", err)
	}

	id := uuid.New()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO engagement_reports (
			id, session_id, scam_detected, total_messages,
			intelligence, notes, stop_reason, delivery_status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, id, rep.SessionID, rep.ScamDetected, rep.TotalMessagesExchanged,
		intelJSON, notesJSON, stopReason, "pending", time.Now().UTC(),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("report: failed to archive: %w", err)
	}
	return id, nil
}

// MarkDelivery records the final delivery outcome for a session's report.
func (s *Store) MarkDelivery(ctx context.Context, sessionID, status string) error {
	if s == nil || s.db == nil {
		return nil
	}

	_, err := s.db.ExecContext(ctx, `
		UPDATE engagement_reports SET delivery_status = $1, updated_at = $2
		WHERE session_id = $3
	`, status, time.Now().UTC(), sessionID)
	if err != nil {
		return fmt.Errorf("report: failed to update delivery status: %w", err)
	}
	return nil
}

// GetBySession retrieves the archived report for a session, if any.
func (s *Store) GetBySession(ctx context.Context, sessionID string) (*Record, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}

	var rec Record
	err := s.db.QueryRowContext(ctx, `
		SELECT id, session_id, scam_detected, total_messages,
			   intelligence, notes, stop_reason, delivery_status, created_at
		FROM engagement_reports
		WHERE session_id = $1
	`, sessionID).Scan(
		&rec.ID, &rec.SessionID, &rec.ScamDetected, &rec.TotalMessages,
		&rec.Intelligence, &rec.Notes, &rec.StopReason, &rec.DeliveryStatus,
		&rec.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("report: failed to get report: %w", err)
	}
	return &rec, nil
}

// ListRecent returns the most recent archived reports for review tooling.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]Record, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, scam_detected, total_messages,
			   intelligence, notes, stop_reason, delivery_status, created_at
		FROM engagement_reports
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("report: failed to list reports: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(
			&rec.ID, &rec.SessionID, &rec.ScamDetected, &rec.TotalMessages,
			&rec.Intelligence, &rec.Notes, &rec.StopReason, &rec.DeliveryStatus,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("report: failed to scan report: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
