// Package afip handles the "Mis Comprobantes" export: CSV parsing, archive
// extraction and the headless portal fetcher.
package afip

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mlerena/comprobantes/internal/domain"
)

// Export column layout. The portal emits semicolon-separated rows with a
// header line; columns beyond colTotal are ignored.
const (
	fieldSeparator = ";"
	numFields      = 17

	colDate          = 0
	colTypeCode      = 1
	colPointOfSale   = 2
	colNumberFrom    = 3
	colNumberTo      = 4
	colAuthCode      = 5
	colIssuerDocType = 6
	colIssuerDocNum  = 7
	colIssuerName    = 8
	colExchangeRate  = 9
	colCurrency      = 10
	colNetTaxed      = 11
	colNetUntaxed    = 12
	colExempt        = 13
	colOtherTaxes    = 14
	colVAT           = 15
	colTotal         = 16

	dateLayout = "2006-01-02"
)

// Parse turns the decoded body of a comprobantes export into domain
// records. The first line is the header and is discarded; remaining
// non-empty lines must have at least the expected number of fields, else
// the whole parse fails with domain.ErrFormat. Records come back in
// source line order, which is not guaranteed to be chronological.
func Parse(text string) ([]domain.Comprobante, error) {
	lines := strings.Split(strings.TrimSpace(text), "\n")

	comprobantes := make([]domain.Comprobante, 0, len(lines))
	for i, line := range lines[1:] {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}

		c, err := parseRow(line)
		if err != nil {
			// Header is line 1, so data line i is 2-based.
			return nil, fmt.Errorf("line %d: %w", i+2, err)
		}
		comprobantes = append(comprobantes, c)
	}

	return comprobantes, nil
}

func parseRow(line string) (domain.Comprobante, error) {
	fields := strings.Split(line, fieldSeparator)
	if len(fields) < numFields {
		return domain.Comprobante{}, fmt.Errorf("%w: expected %d fields, got %d",
			domain.ErrFormat, numFields, len(fields))
	}

	issueDate, err := time.Parse(dateLayout, fields[colDate])
	if err != nil {
		return domain.Comprobante{}, fmt.Errorf("%w: bad date %q", domain.ErrFormat, fields[colDate])
	}

	docType := domain.DocumentTypeLabel(fields[colTypeCode])

	total, err := parseAmount(fields[colTotal], "total")
	if err != nil {
		return domain.Comprobante{}, err
	}
	// Sign rule: credit/debit notes reverse the total.
	if domain.IsNota(docType) {
		total = total.Neg()
	}

	c := domain.Comprobante{
		IssueDate:         issueDate,
		DocumentType:      docType,
		IssuerName:        fields[colIssuerName],
		Amount:            total,
		PointOfSale:       fields[colPointOfSale],
		NumberFrom:        fields[colNumberFrom],
		NumberTo:          fields[colNumberTo],
		AuthorizationCode: fields[colAuthCode],
		IssuerDocType:     fields[colIssuerDocType],
		IssuerDocNumber:   fields[colIssuerDocNum],
		Currency:          fields[colCurrency],
	}

	for _, f := range []struct {
		dst  *decimal.Decimal
		col  int
		name string
	}{
		{&c.ExchangeRate, colExchangeRate, "exchange rate"},
		{&c.NetTaxed, colNetTaxed, "net taxed"},
		{&c.NetUntaxed, colNetUntaxed, "net untaxed"},
		{&c.Exempt, colExempt, "exempt"},
		{&c.OtherTaxes, colOtherTaxes, "other taxes"},
		{&c.VAT, colVAT, "vat"},
	} {
		v, err := parseAmount(fields[f.col], f.name)
		if err != nil {
			return domain.Comprobante{}, err
		}
		*f.dst = v
	}

	return c, nil
}

func parseAmount(s, name string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: bad %s %q", domain.ErrFormat, name, s)
	}
	return d, nil
}
