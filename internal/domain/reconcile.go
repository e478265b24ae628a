package domain

// recordKey is the composite value key used for duplicate detection:
// exact date instant, type label, issuer name and amount. Amounts are
// keyed by their canonical decimal string so equal values always collide
// regardless of scale.
type recordKey struct {
	date   int64
	typ    string
	issuer string
	amount string
}

func keyOf(date int64, typ, issuer, amount string) recordKey {
	return recordKey{date: date, typ: typ, issuer: issuer, amount: amount}
}

// Reconcile computes which scraped comprobantes are not yet represented in
// the stored set. A scraped record is new iff no stored record matches all
// of (date, type, issuer name, amount) exactly — no fuzzy matching, no
// tolerance. Output preserves the relative order of the scraped input,
// projected to the stored shape.
//
// Reconcile is a pure function and holds no state across runs. Note that
// the key is not a true external identifier: two genuinely distinct
// receipts sharing all four fields are indistinguishable and the later one
// is dropped as a duplicate.
func Reconcile(scraped []Comprobante, stored []StoredComprobante) []StoredComprobante {
	known := make(map[recordKey]struct{}, len(stored))
	for _, s := range stored {
		known[keyOf(s.Date.UnixNano(), s.Type, s.IssuerName, s.Amount.String())] = struct{}{}
	}

	fresh := make([]StoredComprobante, 0, len(scraped))
	for _, c := range scraped {
		k := keyOf(c.IssueDate.UnixNano(), c.DocumentType, c.IssuerName, c.Amount.String())
		if _, ok := known[k]; ok {
			continue
		}
		fresh = append(fresh, c.Stored())
	}

	return fresh
}
