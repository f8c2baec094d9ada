package storagefee

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/farmhub/internal/domain/models"
)

var facility = models.Warehouse{ID: "wh-1", Name: "Kasese Store", FeePerKgPerWeek: 100}

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func retrievedLot(qty float64, stored, retrieved string) models.StoredLot {
	r := date(retrieved)
	return models.StoredLot{QuantityKg: qty, StoredAt: date(stored), RetrievedAt: &r}
}

func TestCalculateFee_PartialWeekBilledInFull(t *testing.T) {
	calc := NewCalculator()

	got := calc.CalculateFee(retrievedLot(50, "2024-01-01", "2024-01-10"), facility)

	assert.Equal(t, models.LotRetrieved, got.Status)
	assert.Equal(t, 2, got.DurationWeeks)
	assert.Equal(t, 9, got.DurationDays)
	assert.Equal(t, 100.0, got.RatePerKgPerWeek)
	assert.Equal(t, 10000.0, got.TotalFee)
}

func TestCalculateFee_ExactWeeks(t *testing.T) {
	got := NewCalculator().CalculateFee(retrievedLot(10, "2024-01-01", "2024-01-15"), facility)

	assert.Equal(t, 2, got.DurationWeeks)
	assert.Equal(t, 14, got.DurationDays)
	assert.Equal(t, 2000.0, got.TotalFee)
}

func TestCalculateFee_InStorage(t *testing.T) {
	got := NewCalculator().CalculateFee(models.StoredLot{QuantityKg: 50, StoredAt: date("2024-01-01")}, facility)

	assert.Equal(t, models.LotInStorage, got.Status)
	assert.Zero(t, got.TotalFee)
	assert.NotEmpty(t, got.Message)
}

func TestCalculateFee_Idempotent(t *testing.T) {
	calc := NewCalculator()
	lot := retrievedLot(75, "2024-02-01", "2024-03-03")

	assert.Equal(t, calc.CalculateFee(lot, facility), calc.CalculateFee(lot, facility))
}

func TestRoundingPolicies(t *testing.T) {
	elapsed := 9 * 24 * time.Hour

	assert.Equal(t, 2, BilledWeeks(elapsed))
	assert.InDelta(t, 1.2857, EstimatedWeeks(elapsed), 1e-4)
	assert.Equal(t, 1, BilledWeeks(time.Nanosecond))
	assert.Equal(t, 0, BilledWeeks(0))
}

func TestCalculateOngoingCost_UsesContinuousWeeks(t *testing.T) {
	now := date("2024-01-10")
	calc := NewCalculator(WithClock(func() time.Time { return now }))

	got := calc.CalculateOngoingCost(50, date("2024-01-01"), 100)

	assert.True(t, got.IsEstimate)
	assert.Equal(t, now, got.AsOf)
	assert.InDelta(t, 9.0/7.0, got.DurationWeeks, 1e-9)
	assert.InDelta(t, 50*100*9.0/7.0, got.EstimatedFee, 1e-6)
	assert.NotEmpty(t, got.Note)
}

func TestCalculateOngoingCost_DriftsWithClock(t *testing.T) {
	calc := NewCalculator()
	storedAt := time.Now().Add(-72 * time.Hour)

	first := calc.CalculateOngoingCost(50, storedAt, 100)
	second := calc.CalculateOngoingCost(50, storedAt, 100)

	assert.InDelta(t, first.EstimatedFee, second.EstimatedFee, 0.01)
	assert.False(t, second.AsOf.Before(first.AsOf))
}

func TestCalculateBulkFees(t *testing.T) {
	calc := NewCalculator()
	lots := []models.StoredLot{
		retrievedLot(50, "2024-01-01", "2024-01-10"),
		retrievedLot(25, "2024-01-01", "2024-01-08"),
		{QuantityKg: 25, StoredAt: date("2024-01-05")},
	}

	got := calc.CalculateBulkFees(lots, facility)

	require.Len(t, got.Lots, 3)
	assert.Equal(t, 3, got.LotCount)
	assert.Equal(t, 12500.0, got.TotalFee)
	assert.Equal(t, 100.0, got.TotalQuantityKg)
	assert.Equal(t, 125.0, got.AverageFeePerKg)
	assert.Equal(t, models.LotInStorage, got.Lots[2].Status)
}

func TestCalculateBulkFees_EmptyReportsZeroAverage(t *testing.T) {
	got := NewCalculator().CalculateBulkFees(nil, facility)

	assert.Zero(t, got.LotCount)
	assert.Zero(t, got.TotalQuantityKg)
	assert.Zero(t, got.TotalFee)
	assert.Zero(t, got.AverageFeePerKg)
	assert.NotNil(t, got.Lots)
}

func TestSummarizeFees_UsesGivenFees(t *testing.T) {
	got := SummarizeFees([]models.FeeResult{
		{Status: models.LotRetrieved, QuantityKg: 40, TotalFee: 8000},
		{Status: models.LotInStorage, QuantityKg: 10},
	})

	assert.Equal(t, 2, got.LotCount)
	assert.Equal(t, 8000.0, got.TotalFee)
	assert.Equal(t, 50.0, got.TotalQuantityKg)
	assert.Equal(t, 160.0, got.AverageFeePerKg)
}

func TestGenerateInvoice(t *testing.T) {
	issued := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	calc := NewCalculator(
		WithClock(func() time.Time { return issued }),
		WithInvoiceNumbers(func() string { return "STG-TEST" }),
	)
	fee := calc.CalculateFee(retrievedLot(50, "2024-01-01", "2024-01-10"), facility)

	inv := calc.GenerateInvoice(fee,
		models.InvoiceParty{ID: "f-1", Name: "Amina"},
		models.InvoiceParty{ID: "wh-1", Name: "Kasese Store"})

	assert.Equal(t, "STG-TEST", inv.InvoiceNumber)
	assert.Equal(t, issued, inv.IssuedAt)
	assert.Equal(t, issued.Add(7*24*time.Hour), inv.DueAt)
	assert.Equal(t, "pending", inv.Status)
	assert.Equal(t, 10000.0, inv.TotalAmount)
	require.Len(t, inv.LineItems, 1)
	assert.Equal(t, 2, inv.LineItems[0].Weeks)
	assert.Equal(t, 10000.0, inv.LineItems[0].Amount)
	assert.Contains(t, inv.LineItems[0].Description, "50.00 kg")
	assert.Equal(t, "Amina", inv.Farmer.Name)
}

func TestGenerateInvoice_NumbersAreUniqueUnderConcurrency(t *testing.T) {
	calc := NewCalculator()
	fee := models.FeeResult{Status: models.LotRetrieved, TotalFee: 1}

	const n = 200
	numbers := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			numbers <- calc.GenerateInvoice(fee, models.InvoiceParty{}, models.InvoiceParty{}).InvoiceNumber
		}()
	}
	wg.Wait()
	close(numbers)

	seen := make(map[string]struct{}, n)
	for num := range numbers {
		assert.True(t, strings.HasPrefix(num, "STG-"))
		_, dup := seen[num]
		assert.False(t, dup, "duplicate invoice number %s", num)
		seen[num] = struct{}{}
	}
	assert.Len(t, seen, n)
}
