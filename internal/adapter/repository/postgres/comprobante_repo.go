package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/mlerena/comprobantes/internal/domain"
)

// ComprobanteRepository implements usecase.ComprobanteRepository on
// PostgreSQL. The table is append-only; there is no update or delete.
type ComprobanteRepository struct {
	pool *pgxpool.Pool
}

// NewComprobanteRepository creates a new ComprobanteRepository.
func NewComprobanteRepository(pool *pgxpool.Pool) *ComprobanteRepository {
	return &ComprobanteRepository{pool: pool}
}

// FindByPeriod returns stored comprobantes dated inside the period,
// ordered ascending by date. Dates come back normalized to UTC.
func (r *ComprobanteRepository) FindByPeriod(ctx context.Context, period domain.Period) ([]domain.StoredComprobante, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, date, type, issuer_name, amount
		FROM comprobantes
		WHERE date >= $1 AND date <= $2
		ORDER BY date ASC`,
		period.Start, period.End,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: querying period: %v", domain.ErrStorage, err)
	}
	defer rows.Close()

	var records []domain.StoredComprobante
	for rows.Next() {
		var (
			rec    domain.StoredComprobante
			amount pgtype.Numeric
		)
		if err := rows.Scan(&rec.ID, &rec.Date, &rec.Type, &rec.IssuerName, &amount); err != nil {
			return nil, fmt.Errorf("%w: scanning comprobante: %v", domain.ErrStorage, err)
		}
		rec.Date = rec.Date.UTC()
		rec.Amount = numericToDecimal(amount)
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading comprobantes: %v", domain.ErrStorage, err)
	}

	return records, nil
}

// InsertMany appends each record as a new row with a generated identity.
func (r *ComprobanteRepository) InsertMany(ctx context.Context, records []domain.StoredComprobante) error {
	if len(records) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, rec := range records {
		batch.Queue(`
			INSERT INTO comprobantes (date, type, issuer_name, amount)
			VALUES ($1, $2, $3, $4)`,
			rec.Date, rec.Type, rec.IssuerName, decimalToNumeric(rec.Amount),
		)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range records {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("%w: inserting comprobante: %v", domain.ErrStorage, err)
		}
	}

	return nil
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}
