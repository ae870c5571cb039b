package inventory

import "github.com/shopspring/decimal"

// LineValue is one order line priced at the product's current price.
type LineValue struct {
	SKU       string
	UnitPrice decimal.Decimal
	Qty       int
}

// SummarizeLineValues accumulates unit price x quantity per SKU using exact
// decimal arithmetic. SKUs without any line are absent from the result.
func SummarizeLineValues(lines []LineValue) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(lines))
	for _, l := range lines {
		v := l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Qty)))
		if cur, ok := out[l.SKU]; ok {
			out[l.SKU] = cur.Add(v)
		} else {
			out[l.SKU] = v
		}
	}
	return out
}
