package afip_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mlerena/comprobantes/internal/afip"
	"github.com/mlerena/comprobantes/internal/domain"
)

const exportHeader = "Fecha de Emisión;Tipo de Comprobante;Punto de Venta;Número Desde;Número Hasta;Cód. Autorización;Tipo Doc. Emisor;Nro. Doc. Emisor;Denominación Emisor;Tipo Cambio;Moneda;Imp. Neto Gravado;Imp. Neto No Gravado;Imp. Op. Exentas;Otros Tributos;IVA;Imp. Total"

func export(lines ...string) string {
	return exportHeader + "\n" + strings.Join(lines, "\n")
}

func TestParseCreditNoteNegatesTotal(t *testing.T) {
	text := export("2024-05-01;3;1;1;1;AUTH1;80;20123456789;ACME;1;ARS;100;0;0;0;10;110")

	comprobantes, err := afip.Parse(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(comprobantes) != 1 {
		t.Fatalf("expected 1 comprobante, got %d", len(comprobantes))
	}

	c := comprobantes[0]
	if c.DocumentType != "Nota de Crédito A" {
		t.Errorf("DocumentType = %q, want %q", c.DocumentType, "Nota de Crédito A")
	}
	if !c.Amount.Equal(decimal.NewFromInt(-110)) {
		t.Errorf("Amount = %s, want -110", c.Amount)
	}
	if want := time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC); !c.IssueDate.Equal(want) {
		t.Errorf("IssueDate = %v, want %v", c.IssueDate, want)
	}
	if c.IssuerName != "ACME" {
		t.Errorf("IssuerName = %q, want %q", c.IssuerName, "ACME")
	}
}

func TestParseInvoiceKeepsPositiveTotal(t *testing.T) {
	text := export("2024-05-02;1;2;10;10;AUTH2;80;30111222333;GLOBEX;1;ARS;1000;0;0;0;210;1210")

	comprobantes, err := afip.Parse(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c := comprobantes[0]
	if c.DocumentType != "Factura A" {
		t.Errorf("DocumentType = %q, want %q", c.DocumentType, "Factura A")
	}
	if !c.Amount.Equal(decimal.NewFromInt(1210)) {
		t.Errorf("Amount = %s, want 1210", c.Amount)
	}
}

func TestParseUnknownCodePassesThroughWithoutNegation(t *testing.T) {
	text := export("2024-05-03;999;1;1;1;AUTH3;80;20123456789;ACME;1;ARS;50;0;0;0;0;50")

	comprobantes, err := afip.Parse(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c := comprobantes[0]
	if c.DocumentType != "999" {
		t.Errorf("DocumentType = %q, want raw code %q", c.DocumentType, "999")
	}
	if !c.Amount.Equal(decimal.NewFromInt(50)) {
		t.Errorf("Amount = %s, want 50", c.Amount)
	}
}

func TestParsePreservesSourceLineOrder(t *testing.T) {
	text := export(
		"2024-05-20;1;1;3;3;A;80;1;LATE;1;ARS;0;0;0;0;0;300",
		"2024-05-01;1;1;1;1;B;80;1;EARLY;1;ARS;0;0;0;0;0;100",
		"2024-05-10;1;1;2;2;C;80;1;MIDDLE;1;ARS;0;0;0;0;0;200",
	)

	comprobantes, err := afip.Parse(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var issuers []string
	for _, c := range comprobantes {
		issuers = append(issuers, c.IssuerName)
	}
	if got, want := strings.Join(issuers, ","), "LATE,EARLY,MIDDLE"; got != want {
		t.Errorf("order = %s, want %s", got, want)
	}
}

func TestParsePassthroughFields(t *testing.T) {
	text := export("2024-05-01;6;3;7;9;CAE123;80;20123456789;ACME;1.5;USD;100;10;5;2;21;138")

	comprobantes, err := afip.Parse(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c := comprobantes[0]
	if c.PointOfSale != "3" || c.NumberFrom != "7" || c.NumberTo != "9" {
		t.Errorf("document numbers not carried through: %+v", c)
	}
	if c.AuthorizationCode != "CAE123" {
		t.Errorf("AuthorizationCode = %q", c.AuthorizationCode)
	}
	if c.IssuerDocType != "80" || c.IssuerDocNumber != "20123456789" {
		t.Errorf("issuer doc fields not carried through: %+v", c)
	}
	if !c.ExchangeRate.Equal(decimal.RequireFromString("1.5")) || c.Currency != "USD" {
		t.Errorf("currency fields not carried through: %+v", c)
	}
	if !c.VAT.Equal(decimal.NewFromInt(21)) || !c.NetTaxed.Equal(decimal.NewFromInt(100)) {
		t.Errorf("tax breakdown not carried through: %+v", c)
	}
}

func TestParseSkipsBlankLines(t *testing.T) {
	text := export(
		"2024-05-01;1;1;1;1;A;80;1;ACME;1;ARS;0;0;0;0;0;100",
		"",
		"2024-05-02;1;1;2;2;B;80;1;ACME;1;ARS;0;0;0;0;0;200",
	)

	comprobantes, err := afip.Parse(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(comprobantes) != 2 {
		t.Errorf("expected 2 comprobantes, got %d", len(comprobantes))
	}
}

func TestParseHeaderOnlyYieldsNothing(t *testing.T) {
	comprobantes, err := afip.Parse(exportHeader + "\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(comprobantes) != 0 {
		t.Errorf("expected no comprobantes, got %d", len(comprobantes))
	}
}

func TestParseShortRowFailsWithFormatError(t *testing.T) {
	text := export("2024-05-01;3;1;1;1")

	_, err := afip.Parse(text)
	if !errors.Is(err, domain.ErrFormat) {
		t.Fatalf("expected ErrFormat, got %v", err)
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Errorf("error should name the failing line: %v", err)
	}
}

func TestParseBadNumericFieldFailsWithFormatError(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"bad total", "2024-05-01;1;1;1;1;A;80;1;ACME;1;ARS;0;0;0;0;0;oops"},
		{"bad vat", "2024-05-01;1;1;1;1;A;80;1;ACME;1;ARS;0;0;0;0;oops;100"},
		{"bad exchange rate", "2024-05-01;1;1;1;1;A;80;1;ACME;oops;ARS;0;0;0;0;0;100"},
		{"bad date", "not-a-date;1;1;1;1;A;80;1;ACME;1;ARS;0;0;0;0;0;100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := afip.Parse(export(tt.line)); !errors.Is(err, domain.ErrFormat) {
				t.Errorf("expected ErrFormat, got %v", err)
			}
		})
	}
}

func TestParseWindowsLineEndings(t *testing.T) {
	text := exportHeader + "\r\n2024-05-01;1;1;1;1;A;80;1;ACME;1;ARS;0;0;0;0;0;100\r\n"

	comprobantes, err := afip.Parse(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(comprobantes) != 1 {
		t.Fatalf("expected 1 comprobante, got %d", len(comprobantes))
	}
	if comprobantes[0].IssuerName != "ACME" {
		t.Errorf("IssuerName = %q", comprobantes[0].IssuerName)
	}
}
