package document

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Money is an exact decimal amount (rupiah amounts never go through float64).
type Money = decimal.Decimal

// Zero is the zero amount.
var Zero = decimal.Zero

// BudgetItem is one row of a budget table. The line total is derived, never stored.
type BudgetItem struct {
	Name          string
	Specification string
	Quantity      decimal.Decimal
	Unit          string
	UnitPrice     Money
}

// NewBudgetItem builds an item from integral quantity and price.
func NewBudgetItem(name, spec string, qty int64, unit string, unitPrice int64) BudgetItem {
	return BudgetItem{
		Name:          name,
		Specification: spec,
		Quantity:      decimal.NewFromInt(qty),
		Unit:          unit,
		UnitPrice:     decimal.NewFromInt(unitPrice),
	}
}

// Total returns Quantity × UnitPrice.
func (b BudgetItem) Total() Money {
	return b.Quantity.Mul(b.UnitPrice)
}

// SetQuantity replaces the quantity; the total follows.
func (b *BudgetItem) SetQuantity(q decimal.Decimal) { b.Quantity = q }

// SetUnitPrice replaces the unit price; the total follows.
func (b *BudgetItem) SetUnitPrice(p Money) { b.UnitPrice = p }

type budgetItemJSON struct {
	Name          string          `json:"name"`
	Specification string          `json:"specification,omitempty"`
	Quantity      decimal.Decimal `json:"quantity"`
	Unit          string          `json:"unit,omitempty"`
	UnitPrice     decimal.Decimal `json:"unitPrice"`
	Total         decimal.Decimal `json:"totalHarga"`
}

// MarshalJSON emits the derived total next to its inputs for store consumers.
func (b BudgetItem) MarshalJSON() ([]byte, error) {
	return json.Marshal(budgetItemJSON{
		Name:          b.Name,
		Specification: b.Specification,
		Quantity:      b.Quantity,
		Unit:          b.Unit,
		UnitPrice:     b.UnitPrice,
		Total:         b.Total(),
	})
}

// UnmarshalJSON ignores the serialized total.
func (b *BudgetItem) UnmarshalJSON(data []byte) error {
	var raw budgetItemJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*b = BudgetItem{
		Name:          raw.Name,
		Specification: raw.Specification,
		Quantity:      raw.Quantity,
		Unit:          raw.Unit,
		UnitPrice:     raw.UnitPrice,
	}
	return nil
}

// SumTotals adds up the line totals of items.
func SumTotals(items []BudgetItem) Money {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Total())
	}
	return total
}

// FormatRupiah renders an amount as "Rp 1.250.000" (dot thousands separator,
// comma decimals when present).
func FormatRupiah(m Money) string {
	neg := m.IsNegative()
	if neg {
		m = m.Neg()
	}
	whole := m.Truncate(0)
	frac := m.Sub(whole)

	digits := whole.String()
	var out []byte
	for i := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			out = append(out, '.')
		}
		out = append(out, digits[i])
	}
	s := "Rp " + string(out)
	if !frac.IsZero() {
		f := frac.StringFixed(2)
		s += "," + f[len(f)-2:]
	}
	if neg {
		s = "-" + s
	}
	return s
}
