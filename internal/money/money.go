// Package money holds exact monetary amounts tagged with an ISO-4217 currency.
package money

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	gomoney "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// ErrUnknownCurrency is returned for codes go-money does not know.
var ErrUnknownCurrency = errors.New("unknown currency")

// Amount is a decimal value in major units plus its currency code.
// The zero Amount has no currency and adopts the currency of whatever it
// is combined with.
type Amount struct {
	value decimal.Decimal
	cur   string
}

// New returns an amount after validating the currency code.
func New(value decimal.Decimal, currency string) (Amount, error) {
	code, err := NormalizeCurrency(currency)
	if err != nil {
		return Amount{}, err
	}
	return Amount{value: value, cur: code}, nil
}

// MustNew is like New but panics on an unknown currency.
func MustNew(value decimal.Decimal, currency string) Amount {
	a, err := New(value, currency)
	if err != nil {
		panic(err)
	}
	return a
}

// Of is a test-friendly constructor for whole major units.
func Of(value int64, currency string) Amount {
	return MustNew(decimal.NewFromInt(value), currency)
}

// Parse reads a decimal string such as "1250.50".
func Parse(s, currency string) (Amount, error) {
	v, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Amount{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return New(v, currency)
}

// NormalizeCurrency upper-cases code and checks it against go-money's table.
func NormalizeCurrency(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if gomoney.GetCurrency(code) == nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownCurrency, code)
	}
	return code, nil
}

func (a Amount) Currency() string         { return a.cur }
func (a Amount) Decimal() decimal.Decimal { return a.value }
func (a Amount) IsZero() bool             { return a.value.IsZero() }
func (a Amount) IsPositive() bool         { return a.value.IsPositive() }
func (a Amount) IsNegative() bool         { return a.value.IsNegative() }
func (a Amount) Abs() Amount              { return Amount{value: a.value.Abs(), cur: a.cur} }
func (a Amount) Neg() Amount              { return Amount{value: a.value.Neg(), cur: a.cur} }

// WithValue returns an amount of the same currency holding v.
func (a Amount) WithValue(v decimal.Decimal) Amount { return Amount{value: v, cur: a.cur} }

// SameCurrency reports whether b can be combined with a without conversion.
func (a Amount) SameCurrency(b Amount) bool { return a.cur == b.cur }

func (a Amount) Add(b Amount) Amount { return Amount{value: a.value.Add(b.value), cur: pick(a, b)} }
func (a Amount) Sub(b Amount) Amount { return Amount{value: a.value.Sub(b.value), cur: pick(a, b)} }

func (a Amount) Cmp(b Amount) int {
	pick(a, b)
	return a.value.Cmp(b.value)
}

func (a Amount) LessThan(b Amount) bool           { return a.Cmp(b) < 0 }
func (a Amount) GreaterThanOrEqual(b Amount) bool { return a.Cmp(b) >= 0 }
func (a Amount) Equal(b Amount) bool              { return a.cur == b.cur && a.value.Equal(b.value) }

// Min returns the smaller of a and b.
func Min(a, b Amount) Amount {
	if a.Cmp(b) <= 0 {
		return Amount{value: a.value, cur: pick(a, b)}
	}
	return Amount{value: b.value, cur: pick(a, b)}
}

// Max returns the larger of a and b.
func Max(a, b Amount) Amount {
	if a.Cmp(b) >= 0 {
		return Amount{value: a.value, cur: pick(a, b)}
	}
	return Amount{value: b.value, cur: pick(a, b)}
}

// pick makes the empty currency weak; mixing two real currencies is a bug.
func pick(a, b Amount) string {
	switch {
	case a.cur == "":
		return b.cur
	case b.cur == "":
		return a.cur
	case a.cur != b.cur:
		panic("currency mismatch " + a.cur + " != " + b.cur)
	}
	return a.cur
}

// String formats the amount with the currency's grapheme and fraction digits.
func (a Amount) String() string {
	if a.cur == "" {
		return a.value.String()
	}
	c := gomoney.GetCurrency(a.cur)
	minor := a.value.Shift(int32(c.Fraction)).Round(0)
	return c.Formatter().Format(minor.IntPart())
}

type amountJSON struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(amountJSON{Value: a.value.String(), Currency: a.cur})
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	var raw amountJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	v, err := Parse(raw.Value, raw.Currency)
	if err != nil {
		return err
	}
	*a = v
	return nil
}
