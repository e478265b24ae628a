// Package report renders the monthly comprobantes summary delivered by
// the notifier. Output is deterministic: identical inputs produce
// byte-identical documents.
package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/mlerena/comprobantes/internal/domain"
)

const (
	// DefaultCurrency is the currency used for amount formatting when
	// none is configured.
	DefaultCurrency = "ARS"

	noNewMarker    = "No hay comprobantes nuevos."
	noStoredMarker = "No hay comprobantes registrados."
)

// Report is a self-contained renderable summary of a sync run: the new
// records, the previously stored month records and the grand total.
type Report struct {
	period   domain.Period
	stored   []domain.StoredComprobante
	fresh    []domain.StoredComprobante
	currency string
}

// Build assembles the report for a period from the stored set (as read
// before reconciliation) and the new set. currency selects the formatting
// locale; empty means DefaultCurrency.
func Build(period domain.Period, stored, fresh []domain.StoredComprobante, currency string) *Report {
	if currency == "" {
		currency = DefaultCurrency
	}
	return &Report{period: period, stored: stored, fresh: fresh, currency: currency}
}

// Subject returns the email subject line.
func (r *Report) Subject() string {
	return fmt.Sprintf("Comprobantes %s: %d nuevos", r.period.Label(), len(r.fresh))
}

// Total is the grand total: the sum of every stored amount plus every new
// amount.
func (r *Report) Total() decimal.Decimal {
	total := decimal.Zero
	for _, c := range r.stored {
		total = total.Add(c.Amount)
	}
	for _, c := range r.fresh {
		total = total.Add(c.Amount)
	}
	return total
}

// Markdown renders the report as a markdown document.
func (r *Report) Markdown() string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Comprobantes recibidos %s\n\n", r.period.Label())

	b.WriteString("## Nuevos\n\n")
	if len(r.fresh) == 0 {
		b.WriteString(noNewMarker + "\n\n")
	} else {
		r.writeTable(&b, r.fresh)
	}

	b.WriteString("## Registrados\n\n")
	if len(r.stored) == 0 {
		b.WriteString(noStoredMarker + "\n\n")
	} else {
		r.writeTable(&b, r.stored)
	}

	fmt.Fprintf(&b, "**Total del mes: %s**\n", r.formatAmount(r.Total()))

	return b.String()
}

// HTML renders the markdown document as HTML for the email body.
func (r *Report) HTML() (string, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))

	var out bytes.Buffer
	if err := md.Convert([]byte(r.Markdown()), &out); err != nil {
		return "", fmt.Errorf("rendering report html: %w", err)
	}
	return out.String(), nil
}

func (r *Report) writeTable(b *strings.Builder, records []domain.StoredComprobante) {
	b.WriteString("| Fecha | Tipo | Emisor | Importe |\n")
	b.WriteString("| --- | --- | --- | --- |\n")
	for _, c := range records {
		// Calendar-date granularity: render in UTC so the date never
		// shifts with the renderer's zone.
		fmt.Fprintf(b, "| %s | %s | %s | %s |\n",
			c.Date.UTC().Format("02/01/2006"),
			c.Type,
			c.IssuerName,
			r.formatAmount(c.Amount),
		)
	}
	b.WriteString("\n")
}

// formatAmount renders an amount with the currency's thousands and
// decimal separators.
func (r *Report) formatAmount(d decimal.Decimal) string {
	cur := money.New(0, r.currency).Currency()
	units := d.Shift(int32(cur.Fraction)).Round(0).IntPart()
	return cur.Formatter().Format(units)
}
