package storagefee

import (
	"fmt"
	"math"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/mamadbah2/farmhub/internal/domain/models"
)

const (
	week = 7 * 24 * time.Hour
	day  = 24 * time.Hour

	// InvoiceDueAfter is the payment term of a storage invoice.
	InvoiceDueAfter = 7 * 24 * time.Hour

	invoicePrefix       = "STG-"
	invoiceStatusIssued = "pending"
)

// BilledWeeks is the finalized rounding policy: any started week is billed
// as a full week.
func BilledWeeks(elapsed time.Duration) int {
	return int(math.Ceil(float64(elapsed) / float64(week)))
}

// EstimatedWeeks is the rounding policy of running estimates: elapsed time
// measured in fractional weeks, never rounded.
func EstimatedWeeks(elapsed time.Duration) float64 {
	return float64(elapsed) / float64(week)
}

// Calculator computes warehouse fees. It holds no mutable state and is safe
// for concurrent use.
type Calculator struct {
	now           func() time.Time
	invoiceNumber func() string
}

// Option customises a Calculator.
type Option func(*Calculator)

// WithClock overrides the clock used for estimates and invoice dates.
func WithClock(now func() time.Time) Option {
	return func(c *Calculator) {
		if now != nil {
			c.now = now
		}
	}
}

// WithInvoiceNumbers overrides the invoice number source.
func WithInvoiceNumbers(next func() string) Option {
	return func(c *Calculator) {
		if next != nil {
			c.invoiceNumber = next
		}
	}
}

// NewCalculator builds a Calculator using the wall clock and ULID invoice numbers.
func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{
		now: time.Now,
		invoiceNumber: func() string {
			return invoicePrefix + ulid.Make().String()
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CalculateFee returns the fee of lot at warehouse. While the lot has no
// retrieval time nothing is charged; once retrieved the fee is
// quantity x rate x BilledWeeks and is final.
func (c *Calculator) CalculateFee(lot models.StoredLot, warehouse models.Warehouse) models.FeeResult {
	rate := warehouse.FeePerKgPerWeek

	if lot.RetrievedAt == nil {
		return models.FeeResult{
			Status:           models.LotInStorage,
			QuantityKg:       lot.QuantityKg,
			RatePerKgPerWeek: rate,
			TotalFee:         0,
			Message:          "Produce is still in storage. The fee is calculated on retrieval.",
		}
	}

	elapsed := lot.RetrievedAt.Sub(lot.StoredAt)
	weeks := BilledWeeks(elapsed)

	return models.FeeResult{
		Status:           models.LotRetrieved,
		QuantityKg:       lot.QuantityKg,
		DurationDays:     int(math.Ceil(float64(elapsed) / float64(day))),
		DurationWeeks:    weeks,
		RatePerKgPerWeek: rate,
		TotalFee:         lot.QuantityKg * rate * float64(weeks),
	}
}

// CalculateOngoingCost estimates the fee accrued so far by produce that is
// still stored. Each call reads the clock, so results drift between calls.
func (c *Calculator) CalculateOngoingCost(quantityKg float64, storedAt time.Time, ratePerKgPerWeek float64) models.OngoingEstimate {
	now := c.now().UTC()
	weeks := EstimatedWeeks(now.Sub(storedAt))

	return models.OngoingEstimate{
		QuantityKg:       quantityKg,
		StoredAt:         storedAt,
		AsOf:             now,
		DurationWeeks:    weeks,
		RatePerKgPerWeek: ratePerKgPerWeek,
		EstimatedFee:     quantityKg * ratePerKgPerWeek * weeks,
		IsEstimate:       true,
		Note:             "Estimate only. The final fee bills every started week in full.",
	}
}

// CalculateBulkFees applies CalculateFee to every lot and aggregates the
// result. Quantities of lots still in storage count towards the total kg.
// An empty list (or zero total weight) reports an average of 0.
func (c *Calculator) CalculateBulkFees(lots []models.StoredLot, warehouse models.Warehouse) models.BulkFeeSummary {
	fees := make([]models.FeeResult, 0, len(lots))
	for _, lot := range lots {
		fees = append(fees, c.CalculateFee(lot, warehouse))
	}
	return SummarizeFees(fees)
}

// SummarizeFees aggregates already computed fees the way CalculateBulkFees does.
func SummarizeFees(fees []models.FeeResult) models.BulkFeeSummary {
	summary := models.BulkFeeSummary{
		Lots:     make([]models.FeeResult, 0, len(fees)),
		LotCount: len(fees),
	}

	for _, fee := range fees {
		summary.Lots = append(summary.Lots, fee)
		summary.TotalFee += fee.TotalFee
		summary.TotalQuantityKg += fee.QuantityKg
	}

	if summary.TotalQuantityKg != 0 {
		summary.AverageFeePerKg = summary.TotalFee / summary.TotalQuantityKg
	}

	return summary
}

// GenerateInvoice assembles an invoice for fee. It does not check that the
// fee is final; callers only invoice retrieved lots.
func (c *Calculator) GenerateInvoice(fee models.FeeResult, farmer, warehouse models.InvoiceParty) models.StorageInvoice {
	issued := c.now().UTC()

	return models.StorageInvoice{
		InvoiceNumber: c.invoiceNumber(),
		Farmer:        farmer,
		Warehouse:     warehouse,
		IssuedAt:      issued,
		DueAt:         issued.Add(InvoiceDueAfter),
		LineItems: []models.InvoiceLineItem{{
			Description: fmt.Sprintf("Storage of %.2f kg for %d week(s) at %.2f per kg per week", fee.QuantityKg, fee.DurationWeeks, fee.RatePerKgPerWeek),
			QuantityKg:  fee.QuantityKg,
			Weeks:       fee.DurationWeeks,
			UnitPrice:   fee.RatePerKgPerWeek,
			Amount:      fee.TotalFee,
		}},
		TotalAmount: fee.TotalFee,
		Status:      invoiceStatusIssued,
	}
}
