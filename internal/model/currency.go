package model

// CurrencyTable maps non-canonical currency codes to the code they are
// recorded under. Lookups are exact; adapters are expected to uppercase
// partner codes before ingestion.
type CurrencyTable map[string]string

// DefaultCurrencyTable returns the built-in canonicalization table.
func DefaultCurrencyTable() CurrencyTable {
	return CurrencyTable{
		"USDT20":    "USDT",
		"USDTERC20": "USDT",
		"BCHABC":    "BCH",
		"BCHSV":     "BSV",
	}
}

// Canonical returns the canonical code for code. Codes not in the table are
// returned unchanged.
func (t CurrencyTable) Canonical(code string) string {
	if c, ok := t[code]; ok {
		return c
	}
	return code
}
