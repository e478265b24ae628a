package domain

import "strings"

// documentTypes maps the portal's comprobante type codes to their labels.
// The table covers fiscal categories A/B/C/M/T plus export and MiPyMEs
// (FCE) variants.
var documentTypes = map[string]string{
	"1":   "Factura A",
	"2":   "Nota de Débito A",
	"3":   "Nota de Crédito A",
	"4":   "Recibo A",
	"6":   "Factura B",
	"7":   "Nota de Débito B",
	"8":   "Nota de Crédito B",
	"9":   "Recibo B",
	"11":  "Factura C",
	"12":  "Nota de Débito C",
	"13":  "Nota de Crédito C",
	"15":  "Recibo C",
	"19":  "Factura de Exportación",
	"20":  "Nota de Débito por Operaciones con el Exterior",
	"21":  "Nota de Crédito por Operaciones con el Exterior",
	"51":  "Factura M",
	"52":  "Nota de Débito M",
	"53":  "Nota de Crédito M",
	"54":  "Recibo M",
	"109": "Tique C",
	"114": "Tique Nota de Crédito C",
	"195": "Factura T",
	"196": "Nota de Débito T",
	"197": "Nota de Crédito T",
	"201": "Factura de Crédito electrónica MiPyMEs (FCE) A",
	"202": "Nota de Débito electrónica MiPyMEs (FCE) A",
	"203": "Nota de Crédito electrónica MiPyMEs (FCE) A",
	"206": "Factura de Crédito electrónica MiPyMEs (FCE) B",
	"207": "Nota de Débito electrónica MiPyMEs (FCE) B",
	"208": "Nota de Crédito electrónica MiPyMEs (FCE) B",
	"211": "Factura de Crédito electrónica MiPyMEs (FCE) C",
	"212": "Nota de Débito electrónica MiPyMEs (FCE) C",
	"213": "Nota de Crédito electrónica MiPyMEs (FCE) C",
}

// notaMarker is the substring identifying credit/debit notes. Amounts of
// such documents are negated after parsing.
const notaMarker = "Nota"

// DocumentTypeLabel resolves a type code to its label. Unknown codes are
// returned verbatim.
func DocumentTypeLabel(code string) string {
	if label, ok := documentTypes[code]; ok {
		return label
	}
	return code
}

// IsNota reports whether a document type label denotes a credit or debit
// note.
func IsNota(label string) bool {
	return strings.Contains(label, notaMarker)
}
