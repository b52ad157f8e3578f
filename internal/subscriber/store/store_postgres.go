package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"spamstopper/internal/subscriber/models"
	id "spamstopper/pkg/domain"
)

// PostgresStore persists subscribers in PostgreSQL. Blocklists are stored as
// a jsonb column so the row stays self-contained.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed subscriber store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const subscriberColumns = `id, email, name, forwarding_number, persona_id, tier, blocked_numbers, billing_customer, billing_subscription, created_at, updated_at`

func (s *PostgresStore) Save(ctx context.Context, sub *models.Subscriber) error {
	blocked, err := marshalBlocklist(sub.BlockedNumbers)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO subscribers (` + subscriberColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err = s.db.ExecContext(ctx, query,
		uuid.UUID(sub.ID),
		sub.Email,
		sub.Name,
		string(sub.ForwardingNumber),
		uuid.UUID(sub.PersonaID),
		string(sub.Tier),
		blocked,
		nullString(sub.BillingCustomer),
		nullString(sub.BillingSub),
		sub.CreatedAt,
		sub.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("save subscriber: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, subscriberID id.SubscriberID) (*models.Subscriber, error) {
	query := `SELECT ` + subscriberColumns + ` FROM subscribers WHERE id = $1`
	sub, err := scanSubscriber(s.db.QueryRowContext(ctx, query, uuid.UUID(subscriberID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find subscriber: %w", err)
	}
	return sub, nil
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*models.Subscriber, error) {
	query := `SELECT ` + subscriberColumns + ` FROM subscribers WHERE lower(email) = lower($1)`
	sub, err := scanSubscriber(s.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find subscriber by email: %w", err)
	}
	return sub, nil
}

func (s *PostgresStore) FindByForwardingNumber(ctx context.Context, number id.PhoneNumber) ([]*models.Subscriber, error) {
	query := `
		SELECT ` + subscriberColumns + `
		FROM subscribers
		WHERE forwarding_number = $1
		ORDER BY updated_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, string(number))
	if err != nil {
		return nil, fmt.Errorf("find subscribers by forwarding number: %w", err)
	}
	defer rows.Close()

	var subs []*models.Subscriber
	for rows.Next() {
		sub, err := scanSubscriber(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subscriber: %w", err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscribers: %w", err)
	}
	return subs, nil
}

func (s *PostgresStore) FindByBillingCustomer(ctx context.Context, customerID string) (*models.Subscriber, error) {
	if customerID == "" {
		return nil, ErrNotFound
	}
	query := `SELECT ` + subscriberColumns + ` FROM subscribers WHERE billing_customer = $1`
	sub, err := scanSubscriber(s.db.QueryRowContext(ctx, query, customerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find subscriber by billing customer: %w", err)
	}
	return sub, nil
}

func (s *PostgresStore) Update(ctx context.Context, sub *models.Subscriber) error {
	blocked, err := marshalBlocklist(sub.BlockedNumbers)
	if err != nil {
		return err
	}
	query := `
		UPDATE subscribers
		SET email = $2, name = $3, forwarding_number = $4, persona_id = $5,
		    tier = $6, blocked_numbers = $7, billing_customer = $8,
		    billing_subscription = $9, updated_at = $10
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		uuid.UUID(sub.ID),
		sub.Email,
		sub.Name,
		string(sub.ForwardingNumber),
		uuid.UUID(sub.PersonaID),
		string(sub.Tier),
		blocked,
		nullString(sub.BillingCustomer),
		nullString(sub.BillingSub),
		sub.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update subscriber: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update subscriber rows: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, subscriberID id.SubscriberID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM subscribers WHERE id = $1`, uuid.UUID(subscriberID))
	if err != nil {
		return fmt.Errorf("delete subscriber: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete subscriber rows: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

type subscriberRow interface {
	Scan(dest ...any) error
}

func scanSubscriber(row subscriberRow) (*models.Subscriber, error) {
	var sub models.Subscriber
	var subID, personaID uuid.UUID
	var forwarding, tier string
	var blocked []byte
	var billingCustomer, billingSub sql.NullString
	err := row.Scan(&subID, &sub.Email, &sub.Name, &forwarding, &personaID, &tier, &blocked, &billingCustomer, &billingSub, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		return nil, err
	}
	sub.ID = id.SubscriberID(subID)
	sub.PersonaID = id.PersonaID(personaID)
	sub.ForwardingNumber = id.PhoneNumber(forwarding)
	sub.Tier = models.Tier(tier)
	if len(blocked) > 0 {
		if err := json.Unmarshal(blocked, &sub.BlockedNumbers); err != nil {
			return nil, fmt.Errorf("decode blocklist: %w", err)
		}
	}
	sub.BillingCustomer = billingCustomer.String
	sub.BillingSub = billingSub.String
	return &sub, nil
}

func marshalBlocklist(numbers []id.PhoneNumber) ([]byte, error) {
	if numbers == nil {
		numbers = []id.PhoneNumber{}
	}
	blocked, err := json.Marshal(numbers)
	if err != nil {
		return nil, fmt.Errorf("encode blocklist: %w", err)
	}
	return blocked, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// isUniqueViolation matches the PostgreSQL unique_violation error code.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
