package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/akylbek/payment-system/payout-service/internal/apperrors"
	"github.com/akylbek/payment-system/payout-service/internal/interfaces"
	"github.com/akylbek/payment-system/payout-service/internal/models"
)

type PayoutRepository struct {
	db *sql.DB
}

func NewPayoutRepository(db *sql.DB) *PayoutRepository {
	return &PayoutRepository{db: db}
}

func (r *PayoutRepository) InitDB() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS payout_requests (
			id BIGSERIAL PRIMARY KEY,
			external_id UUID NOT NULL UNIQUE,
			amount NUMERIC(12,2) NOT NULL CHECK (amount > 0),
			currency VARCHAR(3) NOT NULL DEFAULT 'RUB',
			recipient_details JSONB NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'pending',
			description TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_payout_requests_status_created_at
			ON payout_requests(status, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_payout_requests_currency
			ON payout_requests(currency)`,
	}

	for _, query := range queries {
		if _, err := r.db.Exec(query); err != nil {
			return err
		}
	}

	return nil
}

const payoutColumns = `id, external_id, amount, currency, recipient_details, status, description, created_at, updated_at`

func scanPayout(row interface{ Scan(...any) error }) (*models.PayoutRequest, error) {
	var (
		p      models.PayoutRequest
		amount string
	)
	err := row.Scan(&p.ID, &p.ExternalID, &amount, &p.Currency, &p.RecipientDetails,
		&p.Status, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid stored amount %q: %w", amount, err)
	}
	return &p, nil
}

// Create validates the entry constraints, assigns the external id and
// persists the record as pending. The record is durable once Create returns.
func (r *PayoutRepository) Create(ctx context.Context, in *models.CreatePayoutInput) (*models.PayoutRequest, error) {
	if !in.Amount.IsPositive() {
		return nil, apperrors.NewFieldError("amount", "amount must be positive")
	}
	if !models.IsSupportedCurrency(in.Currency) {
		return nil, apperrors.NewFieldError("currency", "unsupported currency "+in.Currency)
	}

	externalID := uuid.New()
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO payout_requests (external_id, amount, currency, recipient_details, status, description)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+payoutColumns,
		externalID, in.Amount.StringFixed(2), in.Currency, in.RecipientDetails,
		models.StatusPending, in.Description)

	return scanPayout(row)
}

func (r *PayoutRepository) GetByExternalID(ctx context.Context, externalID string) (*models.PayoutRequest, error) {
	id, err := uuid.Parse(externalID)
	if err != nil {
		return nil, &apperrors.NotFoundError{ExternalID: externalID}
	}

	row := r.db.QueryRowContext(ctx,
		`SELECT `+payoutColumns+` FROM payout_requests WHERE external_id = $1`, id)
	p, err := scanPayout(row)
	if err == sql.ErrNoRows {
		return nil, &apperrors.NotFoundError{ExternalID: externalID}
	}
	return p, err
}

func (r *PayoutRepository) List(ctx context.Context, filter models.PayoutFilter) ([]*models.PayoutRequest, error) {
	query := `SELECT ` + payoutColumns + ` FROM payout_requests`
	var (
		clauses []string
		args    []any
	)
	if filter.Status != "" {
		args = append(args, filter.Status)
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Currency != "" {
		args = append(args, filter.Currency)
		clauses = append(clauses, fmt.Sprintf("currency = $%d", len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payouts []*models.PayoutRequest
	for rows.Next() {
		p, err := scanPayout(rows)
		if err != nil {
			return nil, err
		}
		payouts = append(payouts, p)
	}
	return payouts, rows.Err()
}

// lockAndGet acquires the exclusive row lock for the enclosing transaction.
// Every mutation path goes through this, never a plain read.
func (r *PayoutRepository) lockAndGet(ctx context.Context, tx *sql.Tx, externalID string) (*models.PayoutRequest, error) {
	id, err := uuid.Parse(externalID)
	if err != nil {
		return nil, &apperrors.NotFoundError{ExternalID: externalID}
	}

	row := tx.QueryRowContext(ctx,
		`SELECT `+payoutColumns+` FROM payout_requests WHERE external_id = $1 FOR UPDATE`, id)
	p, err := scanPayout(row)
	if err == sql.ErrNoRows {
		return nil, &apperrors.NotFoundError{ExternalID: externalID}
	}
	return p, err
}

// Mutate locks the record, applies fn and writes only the columns fn names
// plus updated_at, all within one transaction. fn errors roll everything
// back. An empty column list commits without a write.
func (r *PayoutRepository) Mutate(ctx context.Context, externalID string, fn interfaces.MutateFunc) (*models.PayoutRequest, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	p, err := r.lockAndGet(ctx, tx, externalID)
	if err != nil {
		return nil, err
	}

	columns, err := fn(p)
	if err != nil {
		return nil, err
	}

	if len(columns) > 0 {
		sets := []string{"updated_at = NOW()"}
		args := []any{}
		for _, col := range columns {
			switch col {
			case "status":
				args = append(args, p.Status)
			case "description":
				args = append(args, p.Description)
			default:
				return nil, fmt.Errorf("column %q is not mutable", col)
			}
			sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
		}
		args = append(args, p.ID)
		row := tx.QueryRowContext(ctx, fmt.Sprintf(
			`UPDATE payout_requests SET %s WHERE id = $%d RETURNING updated_at`,
			strings.Join(sets, ", "), len(args)), args...)
		if err := row.Scan(&p.UpdatedAt); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return p, nil
}

// Delete removes the record, permitted only while it is still pending.
func (r *PayoutRepository) Delete(ctx context.Context, externalID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	p, err := r.lockAndGet(ctx, tx, externalID)
	if err != nil {
		return err
	}
	if p.Status != models.StatusPending {
		return &apperrors.ConflictError{
			Reason: fmt.Sprintf("cannot delete payout in %q status; only pending payouts can be deleted", p.Status),
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM payout_requests WHERE id = $1`, p.ID); err != nil {
		return err
	}
	return tx.Commit()
}
