package settlement

import (
	"fmt"
	"time"

	"github.com/mamadbah2/farmhub/internal/domain/models"
)

const (
	// FarmerRatio and PlatformRatio split the net revenue of a settled sale.
	FarmerRatio   = 0.70
	PlatformRatio = 0.30

	// ProfitabilityFarmerRatio is the conservative share used when checking
	// whether a sale is worth settling. It is not the settlement split.
	ProfitabilityFarmerRatio = 0.50

	// DefaultProfitabilityThreshold is the minimum farmer share callers use
	// when no threshold is supplied.
	DefaultProfitabilityThreshold = 1000.0
)

// CalculateShare deducts input costs from gross revenue and splits the rest
// between farmer and platform. Inputs are not validated: negative or NaN
// amounts flow through to the result.
func CalculateShare(grossRevenue, inputCostsDeducted float64) models.SettlementBreakdown {
	net := grossRevenue - inputCostsDeducted
	return models.SettlementBreakdown{
		GrossRevenue:       grossRevenue,
		InputCostsDeducted: inputCostsDeducted,
		NetRevenue:         net,
		FarmerShare:        net * FarmerRatio,
		PlatformShare:      net * PlatformRatio,
		SplitPercentage: models.SplitPercentage{
			Farmer:   FarmerRatio * 100,
			Platform: PlatformRatio * 100,
		},
	}
}

// ValidateProfitability checks the farmer's half of the net revenue against
// minimumThreshold.
func ValidateProfitability(grossRevenue, inputCosts, minimumThreshold float64) models.ProfitabilityCheck {
	share := (grossRevenue - inputCosts) * ProfitabilityFarmerRatio

	if share >= minimumThreshold {
		return models.ProfitabilityCheck{
			IsProfitable: true,
			FarmerShare:  share,
			Message:      fmt.Sprintf("Farmer share %.2f meets the minimum of %.2f.", share, minimumThreshold),
		}
	}

	shortfall := minimumThreshold - share
	return models.ProfitabilityCheck{
		IsProfitable: false,
		FarmerShare:  share,
		Shortfall:    shortfall,
		Message:      fmt.Sprintf("Farmer share %.2f is %.2f below the minimum of %.2f.", share, shortfall, minimumThreshold),
	}
}

// Calculator assembles settlement statements. The zero value is not usable;
// build one with NewCalculator.
type Calculator struct {
	now func() time.Time
}

// NewCalculator returns a Calculator stamping statements with now. A nil now
// falls back to time.Now.
func NewCalculator(now func() time.Time) *Calculator {
	if now == nil {
		now = time.Now
	}
	return &Calculator{now: now}
}

// GenerateStatement builds the statement for sale, deducting every invoice.
// Invoices are summed as given: no deduplication, no currency conversion.
func (c *Calculator) GenerateStatement(sale models.Sale, invoices []models.InputInvoice) models.SettlementStatement {
	var deductions float64
	summaries := make([]models.InvoiceSummary, 0, len(invoices))
	for _, inv := range invoices {
		deductions += inv.TotalAmount
		summaries = append(summaries, models.InvoiceSummary{
			Type:        inv.InvoiceType,
			Description: inv.ItemDescription,
			Amount:      inv.TotalAmount,
		})
	}

	return models.SettlementStatement{
		SettlementBreakdown: CalculateShare(sale.GrossRevenue(), deductions),
		SaleDetails: models.SaleDetails{
			CropType:   sale.CropType,
			QuantityKg: sale.QuantityKg,
			PricePerKg: sale.PricePerKg,
		},
		InputInvoices: summaries,
		GeneratedAt:   c.now().UTC(),
	}
}
