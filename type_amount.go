package basket

import "github.com/shopspring/decimal"

// newDecimal is a convenient factory for decimal.Decimal
func newDecimal[T float32 | float64 | int | int32 | int64 | uint | uint32 | uint64 | decimal.Decimal](value T) decimal.Decimal {
	switch v := any(value).(type) {
	case decimal.Decimal:
		return v
	case float32:
		return decimal.NewFromFloat32(v)
	case float64:
		return decimal.NewFromFloat(v)
	case int:
		return decimal.NewFromInt(int64(v))
	case int32:
		return decimal.NewFromInt32(v)
	case int64:
		return decimal.NewFromInt(v)
	case uint:
		return decimal.NewFromUint64(uint64(v))
	case uint32:
		return decimal.NewFromUint64(uint64(v))
	case uint64:
		return decimal.NewFromUint64(v)
	default:
		panic("unsupported type")
	}
}

// Amount is an exact quantity of one asset. All engine arithmetic is carried
// out on Amount so that no floating point error can leak into the ledger.
type Amount struct {
	value decimal.Decimal
}

// A is the Amount constructor.
func A[T float32 | float64 | int | int32 | int64 | uint | uint32 | uint64 | decimal.Decimal](value T) Amount {
	return Amount{value: newDecimal(value)}
}

func (a Amount) Equal(b Amount) bool              { return a.value.Equal(b.value) }
func (a Amount) LessThan(b Amount) bool           { return a.value.LessThan(b.value) }
func (a Amount) LessThanOrEqual(b Amount) bool    { return a.value.LessThanOrEqual(b.value) }
func (a Amount) GreaterThan(b Amount) bool        { return a.value.GreaterThan(b.value) }
func (a Amount) GreaterThanOrEqual(b Amount) bool { return a.value.GreaterThanOrEqual(b.value) }
func (a Amount) IsZero() bool                     { return a.value.IsZero() }
func (a Amount) IsPositive() bool                 { return a.value.IsPositive() }
func (a Amount) IsNegative() bool                 { return a.value.IsNegative() }
func (a Amount) Add(b Amount) Amount              { return Amount{value: a.value.Add(b.value)} }
func (a Amount) Sub(b Amount) Amount              { return Amount{value: a.value.Sub(b.value)} }
func (a Amount) Neg() Amount                      { return Amount{value: a.value.Neg()} }
func (a Amount) String() string                   { return a.value.String() }

// Decimal exposes the underlying decimal value, mainly for rate arithmetic in
// venue adapters.
func (a Amount) Decimal() decimal.Decimal { return a.value }

// BasisPoints returns a*bp/10000 truncated towards zero. This is the fee and
// royalty rule: the remainder always stays with the payer side.
func (a Amount) BasisPoints(bp int64) Amount {
	v := a.value.Mul(decimal.NewFromInt(bp)).Div(decimal.NewFromInt(10000))
	return Amount{value: v.Floor()}
}

// Weighted returns a*weight/total truncated towards zero, the proportional
// share rule of the fee splitter.
func (a Amount) Weighted(weight, total int64) Amount {
	v := a.value.Mul(decimal.NewFromInt(weight)).Div(decimal.NewFromInt(total))
	return Amount{value: v.Floor()}
}

// SplitEven splits the amount into n slices that sum exactly to a. The first
// n-1 slices are the truncated even share, the last one carries the remainder.
func (a Amount) SplitEven(n int) []Amount {
	slices := make([]Amount, n)
	q, r := a.value.QuoRem(decimal.NewFromInt(int64(n)), 0)
	for i := range slices {
		slices[i] = Amount{value: q}
	}
	slices[n-1] = Amount{value: q.Add(r)}
	return slices
}

// MarshalJSON implements the json.Marshaler interface for Amount.
func (a Amount) MarshalJSON() ([]byte, error) {
	return a.value.MarshalJSON()
}

func (a *Amount) UnmarshalJSON(decimalBytes []byte) error {
	return a.value.UnmarshalJSON(decimalBytes)
}
