package coupon

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaugyan/storefront/internal/domain"
)

func TestDefaultCatalog_Lookup(t *testing.T) {
	c := DefaultCatalog()

	def, ok := c.Lookup("FLAT100")
	require.True(t, ok)
	assert.Equal(t, domain.CouponTypeFixed, def.Type)
	assert.True(t, decimal.NewFromInt(100).Equal(def.Value))
	assert.True(t, decimal.NewFromInt(1500).Equal(def.MinAmount))
}

func TestLookup_NormalizesCode(t *testing.T) {
	c := DefaultCatalog()

	for _, code := range []string{"welcome10", "  Welcome10 ", "WELCOME10\n"} {
		def, ok := c.Lookup(code)
		require.True(t, ok, "code %q", code)
		assert.Equal(t, "WELCOME10", def.Code)
	}
}

func TestLookup_Unknown(t *testing.T) {
	_, ok := DefaultCatalog().Lookup("NOPE")
	assert.False(t, ok)

	_, ok = DefaultCatalog().Lookup("")
	assert.False(t, ok)
}

func TestAll_KeepsDeclarationOrder(t *testing.T) {
	codes := make([]string, 0)
	for _, def := range DefaultCatalog().All() {
		codes = append(codes, def.Code)
	}
	assert.Equal(t, []string{"WELCOME10", "SAVE20", "FLAT100", "FLAT250"}, codes)
}

func TestNewCatalog_Validation(t *testing.T) {
	valid := domain.Coupon{Code: "a1", Type: domain.CouponTypeFixed, Value: decimal.NewFromInt(5)}

	c, err := NewCatalog(valid)
	require.NoError(t, err)
	def, ok := c.Lookup("A1")
	require.True(t, ok)
	assert.Equal(t, "A1", def.Code)

	_, err = NewCatalog(valid, domain.Coupon{Code: "A1", Type: domain.CouponTypePercentage})
	assert.Error(t, err, "duplicate after normalization")

	_, err = NewCatalog(domain.Coupon{Code: "X", Type: "bogo"})
	assert.Error(t, err)

	_, err = NewCatalog(domain.Coupon{Code: "  ", Type: domain.CouponTypeFixed})
	assert.Error(t, err)

	_, err = NewCatalog(domain.Coupon{Code: "NEG", Type: domain.CouponTypeFixed, Value: decimal.NewFromInt(-1)})
	assert.Error(t, err)
}
