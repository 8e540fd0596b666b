package money

import "math"

// Money is an amount in a currency's minor unit (cents). All earnings math is
// integer math; float conversion is allowed only at the report rendering boundary.
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

func New(amount int64, currency string) Money {
	return Money{Amount: amount, Currency: currency}
}

func (m Money) IsZero() bool {
	return m.Amount == 0
}

func (m Money) LessThan(other Money) bool {
	return m.Amount < other.Amount
}

// Units converts minor units to display scale. Report adapters only.
func (m Money) Units() float64 {
	return float64(m.Amount) / 100
}

// Round applies half-away-from-zero rounding when a rate touches float math.
func Round(value float64) int64 {
	return int64(math.Round(value))
}
