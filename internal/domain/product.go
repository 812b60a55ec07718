package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CATALOG SNAPSHOT TYPES
// =============================================================================

// Product is a perfume snapshot captured from the catalog API.
// Cart lines and favorites hold a copy taken at add-time; it is never refreshed.
type Product struct {
	ID              string      `json:"id"`
	Title           string      `json:"title"`
	Brand           string      `json:"brand,omitempty"`
	Images          []string    `json:"images,omitempty"`
	Prices          []SizePrice `json:"prices,omitempty"`
	Price           Amount      `json:"price,omitzero"`
	DiscountedPrice Amount      `json:"discountedPrice,omitzero"`
}

// SizePrice is one row of a product's per-size price table.
type SizePrice struct {
	Size  Size   `json:"size"`
	Price Amount `json:"price"`
}

// HasPriceTable reports whether the product defines per-size prices.
func (p Product) HasPriceTable() bool {
	return len(p.Prices) > 0
}

// Size is a volume variant label ("50" for 50ml). The catalog API sends sizes
// as either numbers or strings; both decode to the trimmed text form.
type Size string

// UnmarshalJSON accepts a JSON string or number.
func (s *Size) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = Size(strings.TrimSpace(str))
		return nil
	}
	*s = Size(string(data))
	return nil
}

// Amount is a monetary value as sent by the catalog API. The raw text is kept
// so a snapshot survives a persist/reload round trip byte for byte.
// Unparseable values are tolerated and price as zero.
type Amount struct {
	raw string
}

// NewAmount builds an Amount from a decimal value.
func NewAmount(d decimal.Decimal) Amount {
	return Amount{raw: d.String()}
}

// AmountFromFloat builds an Amount from a float. NaN and infinities become
// the zero Amount.
func AmountFromFloat(f float64) Amount {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Amount{}
	}
	return NewAmount(decimal.NewFromFloat(f))
}

// AmountFromString builds an Amount from its textual form without validating it.
func AmountFromString(s string) Amount {
	return Amount{raw: strings.TrimSpace(s)}
}

// IsZero reports whether no value was supplied.
func (a Amount) IsZero() bool {
	return a.raw == ""
}

// String returns the raw text of the amount.
func (a Amount) String() string {
	return a.raw
}

// Decimal parses the amount. Missing, unparseable, NaN and infinite values
// resolve to zero, as do values outside InMoneyRange.
func (a Amount) Decimal() decimal.Decimal {
	if a.raw == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(a.raw)
	if err != nil || !InMoneyRange(d) {
		return decimal.Zero
	}
	return d
}

// Bounds on money values accepted from the store API. Rounding a decimal
// with an extreme exponent allocates without limit.
const (
	maxMoneyExponent = 18
	maxMoneyDigits   = 30
)

// InMoneyRange reports whether d has a bounded exponent and digit count.
func InMoneyRange(d decimal.Decimal) bool {
	exp := d.Exponent()
	if exp < -maxMoneyExponent || exp > maxMoneyExponent {
		return false
	}
	return d.NumDigits() <= maxMoneyDigits
}

// MarshalJSON writes the amount as a JSON number when it parses, otherwise as a string.
func (a Amount) MarshalJSON() ([]byte, error) {
	if a.raw == "" {
		return []byte("null"), nil
	}
	if _, err := decimal.NewFromString(a.raw); err == nil && json.Valid([]byte(a.raw)) {
		return []byte(a.raw), nil
	}
	return json.Marshal(a.raw)
}

// UnmarshalJSON accepts a JSON number, string, or null.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		a.raw = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		a.raw = strings.TrimSpace(s)
	default:
		a.raw = string(data)
	}
	return nil
}
