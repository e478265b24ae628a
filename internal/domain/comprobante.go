package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Comprobante is a fiscal receipt as exported by the tax portal.
//
// DocumentType holds the resolved label for known type codes, or the raw
// code verbatim when the code is not in the table. Amount carries the
// export's total with the sign already corrected: credit and debit notes
// ("Nota ...") are negative, everything else positive.
type Comprobante struct {
	IssueDate    time.Time
	DocumentType string
	IssuerName   string
	Amount       decimal.Decimal

	// Passthrough fields, carried from the export but not used for
	// reconciliation or reporting.
	PointOfSale       string
	NumberFrom        string
	NumberTo          string
	AuthorizationCode string
	IssuerDocType     string
	IssuerDocNumber   string
	ExchangeRate      decimal.Decimal
	Currency          string
	NetTaxed          decimal.Decimal
	NetUntaxed        decimal.Decimal
	Exempt            decimal.Decimal
	OtherTaxes        decimal.Decimal
	VAT               decimal.Decimal
}

// StoredComprobante is the persisted projection of a Comprobante.
// Rows are append-only: created once by the sync run, never mutated
// or deleted.
type StoredComprobante struct {
	ID         int64
	Date       time.Time
	Type       string
	IssuerName string
	Amount     decimal.Decimal
}

// Stored projects the comprobante to its persisted shape. The ID is left
// zero; the store assigns identity on insert.
func (c Comprobante) Stored() StoredComprobante {
	return StoredComprobante{
		Date:       c.IssueDate,
		Type:       c.DocumentType,
		IssuerName: c.IssuerName,
		Amount:     c.Amount,
	}
}
