package usecase

import (
	"context"
	"time"

	"github.com/mlerena/comprobantes/internal/domain"
	"github.com/mlerena/comprobantes/internal/report"
)

// Fetcher retrieves the decoded text body of the comprobantes export for
// the current month.
type Fetcher interface {
	Fetch(ctx context.Context) (string, error)
}

// ComprobanteRepository defines data access for stored comprobantes. The
// table is append-only: there is no update or delete.
type ComprobanteRepository interface {
	// FindByPeriod returns the stored records whose date falls inside
	// the period, ordered ascending by date.
	FindByPeriod(ctx context.Context, period domain.Period) ([]domain.StoredComprobante, error)
	// InsertMany appends each record with a fresh identity.
	InsertMany(ctx context.Context, records []domain.StoredComprobante) error
}

// Notifier delivers the rendered report to the configured recipient.
type Notifier interface {
	Send(ctx context.Context, r *report.Report) error
}

// Clock supplies "now" for deriving the reconciliation period.
type Clock interface {
	Now() time.Time
}
