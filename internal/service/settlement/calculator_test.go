package settlement

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/farmhub/internal/domain/models"
)

func TestCalculateShare_NoDeductions(t *testing.T) {
	got := CalculateShare(100000, 0)

	assert.InDelta(t, 100000, got.NetRevenue, 1e-9)
	assert.InDelta(t, 70000, got.FarmerShare, 1e-6)
	assert.InDelta(t, 30000, got.PlatformShare, 1e-6)
	assert.Equal(t, models.SplitPercentage{Farmer: 70, Platform: 30}, got.SplitPercentage)
}

func TestCalculateShare_WithDeductions(t *testing.T) {
	got := CalculateShare(100000, 20000)

	assert.InDelta(t, 80000, got.NetRevenue, 1e-9)
	assert.InDelta(t, 56000, got.FarmerShare, 1e-6)
	assert.InDelta(t, 24000, got.PlatformShare, 1e-6)
	assert.Equal(t, 20000.0, got.InputCostsDeducted)
}

func TestCalculateShare_SharesAddUpToNet(t *testing.T) {
	cases := []struct{ gross, deductions float64 }{
		{0, 0},
		{1, 0.5},
		{123456.78, 9876.54},
		{5e9, 5e9},
		{0.03, 0.01},
	}

	for _, tc := range cases {
		got := CalculateShare(tc.gross, tc.deductions)
		assert.InDelta(t, tc.gross-tc.deductions, got.NetRevenue, 1e-9)
		assert.InDelta(t, got.NetRevenue, got.FarmerShare+got.PlatformShare, 1e-6)
		if got.PlatformShare != 0 {
			assert.InDelta(t, 7.0/3.0, got.FarmerShare/got.PlatformShare, 1e-9)
		}
	}
}

func TestCalculateShare_PermissiveInputs(t *testing.T) {
	negative := CalculateShare(1000, 3000)
	assert.InDelta(t, -2000, negative.NetRevenue, 1e-9)
	assert.Less(t, negative.FarmerShare, 0.0)
	assert.Less(t, negative.PlatformShare, 0.0)

	nan := CalculateShare(math.NaN(), 0)
	assert.True(t, math.IsNaN(nan.FarmerShare))
}

func TestGenerateStatement(t *testing.T) {
	fixed := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	calc := NewCalculator(func() time.Time { return fixed })

	sale := models.Sale{CropType: "maize", QuantityKg: 1000, PricePerKg: 100}
	invoices := []models.InputInvoice{
		{TotalAmount: 15000, InvoiceType: "seed", ItemDescription: "Hybrid maize seed"},
		{TotalAmount: 5000, InvoiceType: "fertilizer", ItemDescription: "NPK 17-17-17"},
	}

	stmt := calc.GenerateStatement(sale, invoices)

	assert.Equal(t, 100000.0, stmt.GrossRevenue)
	assert.Equal(t, 20000.0, stmt.InputCostsDeducted)
	assert.InDelta(t, 56000, stmt.FarmerShare, 1e-6)
	assert.InDelta(t, 24000, stmt.PlatformShare, 1e-6)
	assert.Equal(t, models.SaleDetails{CropType: "maize", QuantityKg: 1000, PricePerKg: 100}, stmt.SaleDetails)
	require.Len(t, stmt.InputInvoices, 2)
	assert.Equal(t, models.InvoiceSummary{Type: "seed", Description: "Hybrid maize seed", Amount: 15000}, stmt.InputInvoices[0])
	assert.Equal(t, fixed, stmt.GeneratedAt)
}

func TestGenerateStatement_NoInvoices(t *testing.T) {
	stmt := NewCalculator(nil).GenerateStatement(models.Sale{QuantityKg: 10, PricePerKg: 2.5}, nil)

	assert.Equal(t, 25.0, stmt.GrossRevenue)
	assert.Zero(t, stmt.InputCostsDeducted)
	assert.NotNil(t, stmt.InputInvoices)
	assert.Empty(t, stmt.InputInvoices)
	assert.False(t, stmt.GeneratedAt.IsZero())
}

func TestGenerateStatement_DuplicateInvoicesAreSummed(t *testing.T) {
	inv := models.InputInvoice{TotalAmount: 100}
	stmt := NewCalculator(nil).GenerateStatement(models.Sale{QuantityKg: 10, PricePerKg: 100}, []models.InputInvoice{inv, inv})

	assert.Equal(t, 200.0, stmt.InputCostsDeducted)
}

func TestValidateProfitability(t *testing.T) {
	t.Run("above threshold", func(t *testing.T) {
		got := ValidateProfitability(10000, 2000, DefaultProfitabilityThreshold)
		assert.True(t, got.IsProfitable)
		assert.Equal(t, 4000.0, got.FarmerShare)
		assert.Zero(t, got.Shortfall)
		assert.Contains(t, got.Message, "meets the minimum")
	})

	t.Run("exactly at threshold", func(t *testing.T) {
		got := ValidateProfitability(2000, 0, 1000)
		assert.True(t, got.IsProfitable)
		assert.Zero(t, got.Shortfall)
	})

	t.Run("below threshold", func(t *testing.T) {
		got := ValidateProfitability(1500, 500, 1000)
		assert.False(t, got.IsProfitable)
		assert.Equal(t, 500.0, got.FarmerShare)
		assert.Equal(t, 500.0, got.Shortfall)
		assert.Contains(t, got.Message, "below the minimum")
	})

	t.Run("uses half split not settlement split", func(t *testing.T) {
		check := ValidateProfitability(10000, 0, 0)
		share := CalculateShare(10000, 0)
		assert.Equal(t, 5000.0, check.FarmerShare)
		assert.NotEqual(t, share.FarmerShare, check.FarmerShare)
	})
}
