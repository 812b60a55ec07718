package domain

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmount_DecodesNumbersAndStrings(t *testing.T) {
	var p Product
	payload := `{"id":"p1","title":"Oud Noir","prices":[{"size":50,"price":100},{"size":"100","price":"180.50"}],"price":"abc"}`
	require.NoError(t, json.Unmarshal([]byte(payload), &p))

	require.Len(t, p.Prices, 2)
	assert.Equal(t, Size("50"), p.Prices[0].Size)
	assert.True(t, decimal.NewFromInt(100).Equal(p.Prices[0].Price.Decimal()))
	assert.Equal(t, Size("100"), p.Prices[1].Size)
	assert.True(t, decimal.RequireFromString("180.50").Equal(p.Prices[1].Price.Decimal()))
	assert.True(t, p.Price.Decimal().IsZero(), "unparseable price resolves to zero")
	assert.True(t, p.DiscountedPrice.IsZero())
}

func TestAmount_RoundTrip(t *testing.T) {
	in := Product{ID: "p1", Prices: []SizePrice{{Size: "50", Price: AmountFromString("99.90")}}, Price: AmountFromString("n/a")}

	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "discountedPrice")

	var out Product
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestAmountFromFloat_NormalizesNaN(t *testing.T) {
	assert.True(t, AmountFromFloat(math.NaN()).Decimal().IsZero())
	assert.True(t, AmountFromFloat(math.Inf(1)).Decimal().IsZero())
	assert.Equal(t, "12.5", AmountFromFloat(12.5).String())
}

func TestLineID(t *testing.T) {
	assert.Equal(t, "p1-50-Original", LineID("p1", "50", QualityOriginal))

	line := NewCartLineItem(Product{ID: "p1"}, 2, "100", QualityLuxury)
	assert.Equal(t, "p1-100-Luxury", line.ID)
	assert.Equal(t, 2, line.Quantity)
}

func TestPaymentMethod_Valid(t *testing.T) {
	for _, m := range PaymentMethods {
		assert.True(t, m.Valid(), m)
	}
	assert.False(t, PaymentMethod("crypto").Valid())
	assert.False(t, PaymentMethod("").Valid())
}

func TestAmount_OutOfRangeResolvesToZero(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{raw: "1e900000000", want: "0"},
		{raw: "1e-900000000", want: "0"},
		{raw: "1234567890123456789012345678901234567890", want: "0"},
		{raw: "1e18", want: "1000000000000000000"},
		{raw: "0.000000000000000001", want: "0.000000000000000001"},
		{raw: "99.90", want: "99.9"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			var p Product
			require.NoError(t, json.Unmarshal([]byte(`{"id":"p","price":"`+tt.raw+`"}`), &p))
			assert.True(t, decimal.RequireFromString(tt.want).Equal(p.Price.Decimal()), p.Price.Decimal().String())
			assert.Equal(t, tt.raw, p.Price.String(), "raw text is kept")
		})
	}
}

func TestLineID_Unambiguous(t *testing.T) {
	assert.NotEqual(t, LineID("a-b", "50", QualityOriginal), LineID("a", "b-50", QualityOriginal))
	assert.NotEqual(t, LineID("a", "50-Original", ""), LineID("a-50", "Original", ""))
	assert.NotEqual(t, LineID("a%2D", "50", QualityOriginal), LineID("a-", "50", QualityOriginal))
	assert.Equal(t, "p%2D1-50-Original", LineID("p-1", "50", QualityOriginal))
}
