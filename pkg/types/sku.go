package types

import "strings"

// NormalizeSKU canonicalizes a SKU before any lookup or write: surrounding
// whitespace stripped, letters upper-cased. Every code path that touches
// inventory goes through this so "a1 " and "A1" land on the same row.
func NormalizeSKU(sku string) string {
	return strings.ToUpper(strings.TrimSpace(sku))
}
