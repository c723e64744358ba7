// internal/workers/intake/submission-persist/store.go
package submissionpersist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"quote-intake/internal/common/database"
	"quote-intake/internal/models"

	"github.com/lib/pq"
)

var ErrSubmissionNotFound = errors.New("SUBMISSION_NOT_FOUND")

// Store is the lead store. Create is idempotent per key: a repeated key
// returns the record stored first.
type Store interface {
	Create(ctx context.Context, idempotencyKey string, s *models.Submission) (*models.Submission, error)
	GetByID(ctx context.Context, id string) (*models.Submission, error)
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS quote_submissions (
	id                  UUID PRIMARY KEY,
	idempotency_key     TEXT NOT NULL UNIQUE,
	created_at          TIMESTAMPTZ NOT NULL,
	email               TEXT NOT NULL,
	first_name          TEXT NOT NULL,
	last_name           TEXT NOT NULL,
	company             TEXT NOT NULL DEFAULT '',
	phone               TEXT NOT NULL,
	timeframe           TEXT NOT NULL,
	demolition_type     TEXT NOT NULL,
	other_demo_type     TEXT NOT NULL DEFAULT '',
	street              TEXT NOT NULL,
	city                TEXT NOT NULL,
	state               TEXT NOT NULL,
	zip                 TEXT NOT NULL,
	square_footage      TEXT NOT NULL DEFAULT '',
	description         TEXT NOT NULL DEFAULT '',
	uploaded_files      TEXT[] NOT NULL DEFAULT '{}',
	ai_estimate         TEXT NOT NULL,
	cash_offer_interest BOOLEAN NOT NULL DEFAULT FALSE,
	consent_to_contact  BOOLEAN NOT NULL,
	status              TEXT NOT NULL DEFAULT 'new',
	notes               TEXT NOT NULL DEFAULT '',
	contacted_at        TIMESTAMPTZ,
	contacted_by        TEXT NOT NULL DEFAULT ''
)`

const insertSQL = `
INSERT INTO quote_submissions (
	id, idempotency_key, created_at, email, first_name, last_name, company, phone,
	timeframe, demolition_type, other_demo_type, street, city, state, zip,
	square_footage, description, uploaded_files, ai_estimate, cash_offer_interest,
	consent_to_contact, status, notes
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)
ON CONFLICT (idempotency_key) DO NOTHING`

const selectColumns = `
	id, created_at, email, first_name, last_name, company, phone, timeframe,
	demolition_type, other_demo_type, street, city, state, zip, square_footage,
	description, uploaded_files, ai_estimate, cash_offer_interest, consent_to_contact,
	status, notes, contacted_at, contacted_by`

type PostgresStore struct {
	db *database.PostgresClient
}

func NewPostgresStore(db *database.PostgresClient) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the submissions table when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("failed to create quote_submissions: %w", err)
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, idempotencyKey string, sub *models.Submission) (*models.Submission, error) {
	res, err := s.db.Exec(ctx, insertSQL,
		sub.ID, idempotencyKey, sub.CreatedAt, sub.Email, sub.FirstName, sub.LastName,
		sub.Company, sub.Phone, sub.Timeframe, sub.DemolitionType, sub.OtherDemoType,
		sub.Street, sub.City, sub.State, sub.Zip, sub.SquareFootage, sub.Description,
		pq.Array(sub.UploadedFiles), sub.AIEstimate, sub.CashOfferInterest,
		sub.ConsentToContact, sub.Status, sub.Notes,
	)
	if err != nil {
		return nil, fmt.Errorf("insert submission: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("insert submission: %w", err)
	}
	if affected == 1 {
		return sub, nil
	}

	// key already used: hand back the original record
	return s.get(ctx, "idempotency_key", idempotencyKey)
}

func (s *PostgresStore) GetByID(ctx context.Context, id string) (*models.Submission, error) {
	return s.get(ctx, "id", id)
}

func (s *PostgresStore) get(ctx context.Context, column, value string) (*models.Submission, error) {
	row := s.db.QueryRow(ctx, "SELECT"+selectColumns+"\nFROM quote_submissions WHERE "+column+" = $1", value)

	var (
		sub         models.Submission
		contactedAt sql.NullTime
	)
	err := row.Scan(
		&sub.ID, &sub.CreatedAt, &sub.Email, &sub.FirstName, &sub.LastName, &sub.Company,
		&sub.Phone, &sub.Timeframe, &sub.DemolitionType, &sub.OtherDemoType, &sub.Street,
		&sub.City, &sub.State, &sub.Zip, &sub.SquareFootage, &sub.Description,
		pq.Array(&sub.UploadedFiles), &sub.AIEstimate, &sub.CashOfferInterest,
		&sub.ConsentToContact, &sub.Status, &sub.Notes, &contactedAt, &sub.ContactedBy,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s=%s", ErrSubmissionNotFound, column, value)
	}
	if err != nil {
		return nil, fmt.Errorf("select submission: %w", err)
	}
	if contactedAt.Valid {
		t := contactedAt.Time
		sub.ContactedAt = &t
	}
	if sub.UploadedFiles == nil {
		sub.UploadedFiles = []string{}
	}
	return &sub, nil
}
