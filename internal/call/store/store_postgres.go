package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"spamstopper/internal/call/models"
	id "spamstopper/pkg/domain"
)

// PostgresStore persists call logs in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed call log store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const callLogColumns = `id, subscriber_id, caller_number, persona_name, assistant_id, provider_call_id, outcome, reason, duration_seconds, status, transcript, recording_url, created_at`

func (s *PostgresStore) Save(ctx context.Context, log *models.CallLog) error {
	query := `
		INSERT INTO call_logs (` + callLogColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(log.ID),
		uuid.UUID(log.SubscriberID),
		log.CallerNumber,
		log.PersonaName,
		log.AssistantID,
		nullString(log.ProviderCallID),
		log.Outcome,
		log.Reason,
		log.DurationSeconds,
		string(log.Status),
		nullString(log.Transcript),
		nullString(log.RecordingURL),
		log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save call log: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, callID id.CallID) (*models.CallLog, error) {
	query := `SELECT ` + callLogColumns + ` FROM call_logs WHERE id = $1`
	log, err := scanCallLog(s.db.QueryRowContext(ctx, query, uuid.UUID(callID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find call log: %w", err)
	}
	return log, nil
}

func (s *PostgresStore) FindByProviderCallID(ctx context.Context, providerCallID string) (*models.CallLog, error) {
	if providerCallID == "" {
		return nil, ErrNotFound
	}
	query := `SELECT ` + callLogColumns + ` FROM call_logs WHERE provider_call_id = $1`
	log, err := scanCallLog(s.db.QueryRowContext(ctx, query, providerCallID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find call log by provider ID: %w", err)
	}
	return log, nil
}

func (s *PostgresStore) ListBySubscriber(ctx context.Context, subscriberID id.SubscriberID, limit int) ([]*models.CallLog, error) {
	query := `
		SELECT ` + callLogColumns + `
		FROM call_logs
		WHERE subscriber_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(subscriberID), limit)
	if err != nil {
		return nil, fmt.Errorf("list call logs: %w", err)
	}
	defer rows.Close()

	var logs []*models.CallLog
	for rows.Next() {
		log, err := scanCallLog(rows)
		if err != nil {
			return nil, fmt.Errorf("scan call log: %w", err)
		}
		logs = append(logs, log)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate call logs: %w", err)
	}
	return logs, nil
}

func (s *PostgresStore) Update(ctx context.Context, log *models.CallLog) error {
	query := `
		UPDATE call_logs
		SET provider_call_id = $2, outcome = $3, reason = $4, duration_seconds = $5,
		    status = $6, transcript = $7, recording_url = $8
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		uuid.UUID(log.ID),
		nullString(log.ProviderCallID),
		log.Outcome,
		log.Reason,
		log.DurationSeconds,
		string(log.Status),
		nullString(log.Transcript),
		nullString(log.RecordingURL),
	)
	if err != nil {
		return fmt.Errorf("update call log: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update call log rows: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

type callLogRow interface {
	Scan(dest ...any) error
}

func scanCallLog(row callLogRow) (*models.CallLog, error) {
	var log models.CallLog
	var callID, subscriberID uuid.UUID
	var status string
	var providerCallID, transcript, recordingURL sql.NullString
	err := row.Scan(&callID, &subscriberID, &log.CallerNumber, &log.PersonaName, &log.AssistantID,
		&providerCallID, &log.Outcome, &log.Reason, &log.DurationSeconds, &status,
		&transcript, &recordingURL, &log.CreatedAt)
	if err != nil {
		return nil, err
	}
	log.ID = id.CallID(callID)
	log.SubscriberID = id.SubscriberID(subscriberID)
	log.Status = models.Status(status)
	log.ProviderCallID = providerCallID.String
	log.Transcript = transcript.String
	log.RecordingURL = recordingURL.String
	return &log, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
