package repositories

import (
	"context"
	"fmt"
	"time"
)

// SequenceRepository hands out monotonic invoice sequence numbers. The
// upsert-returning statement is a single atomic step, so two devices
// committing at the same instant can never draw the same number.
type SequenceRepository interface {
	NextInvoiceNumber(ctx context.Context, issuedAt time.Time) (string, error)
}

type sequenceRepo struct {
	db DB
}

func NewSequenceRepo(db DB) SequenceRepository {
	return &sequenceRepo{db: db}
}

// NextInvoiceNumber allocates the next number in the issuing month's
// sequence, formatted INV-YYYY-MM-NNNNNN.
func (r *sequenceRepo) NextInvoiceNumber(ctx context.Context, issuedAt time.Time) (string, error) {
	yearMonth := issuedAt.Format("2006-01")

	query := `
		WITH upsert AS (
			INSERT INTO invoice_sequences (year_month, last_number, updated_at)
			VALUES ($1, 1, NOW())
			ON CONFLICT (year_month)
			DO UPDATE SET
				last_number = invoice_sequences.last_number + 1,
				updated_at = NOW()
			RETURNING last_number
		)
		SELECT last_number FROM upsert;
	`

	var sequenceNum int
	if err := r.db.QueryRow(ctx, query, yearMonth).Scan(&sequenceNum); err != nil {
		return "", fmt.Errorf("failed to generate invoice sequence: %w", err)
	}

	return fmt.Sprintf("INV-%s-%06d", yearMonth, sequenceNum), nil
}
