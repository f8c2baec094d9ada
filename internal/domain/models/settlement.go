package models

import "time"

// InvoiceStatus tracks whether an input invoice still has to be recovered from a sale.
type InvoiceStatus string

const (
	InvoiceOutstanding InvoiceStatus = "outstanding"
	InvoiceDeducted    InvoiceStatus = "deducted"
)

// Sale captures produce sold on behalf of a farmer.
type Sale struct {
	ID         string    `bson:"_id" json:"id"`
	FarmerID   string    `bson:"farmer_id" json:"farmer_id"`
	CropType   string    `bson:"crop_type" json:"crop_type"`
	QuantityKg float64   `bson:"quantity_kg" json:"quantity_kg"`
	PricePerKg float64   `bson:"price_per_kg" json:"price_per_kg"`
	SoldAt     time.Time `bson:"sold_at" json:"sold_at"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
}

// GrossRevenue is the sale value before any deduction.
func (s Sale) GrossRevenue() float64 {
	return s.QuantityKg * s.PricePerKg
}

// InputInvoice is an input (seed, fertiliser, services) advanced to a farmer
// and recovered from their next sale.
type InputInvoice struct {
	ID              string        `bson:"_id" json:"id"`
	FarmerID        string        `bson:"farmer_id" json:"farmer_id"`
	TotalAmount     float64       `bson:"total_amount" json:"total_amount"`
	InvoiceType     string        `bson:"invoice_type" json:"invoice_type"`
	ItemDescription string        `bson:"item_description" json:"item_description"`
	Status          InvoiceStatus `bson:"status" json:"status"`
	SettlementID    string        `bson:"settlement_id,omitempty" json:"settlement_id,omitempty"`
	CreatedAt       time.Time     `bson:"created_at" json:"created_at"`
}

// SplitPercentage reports the ratio applied to the net revenue.
type SplitPercentage struct {
	Farmer   float64 `bson:"farmer" json:"farmer"`
	Platform float64 `bson:"platform" json:"platform"`
}

// SettlementBreakdown is the arithmetic result of a profit-share split.
type SettlementBreakdown struct {
	GrossRevenue       float64         `bson:"gross_revenue" json:"gross_revenue"`
	InputCostsDeducted float64         `bson:"input_costs_deducted" json:"input_costs_deducted"`
	NetRevenue         float64         `bson:"net_revenue" json:"net_revenue"`
	FarmerShare        float64         `bson:"farmer_share" json:"farmer_share"`
	PlatformShare      float64         `bson:"platform_share" json:"platform_share"`
	SplitPercentage    SplitPercentage `bson:"split_percentage" json:"split_percentage"`
}

// SaleDetails echoes the sale a statement was produced from.
type SaleDetails struct {
	CropType   string  `bson:"crop_type" json:"crop_type"`
	QuantityKg float64 `bson:"quantity_kg" json:"quantity_kg"`
	PricePerKg float64 `bson:"price_per_kg" json:"price_per_kg"`
}

// InvoiceSummary is a single deducted invoice line on a statement.
type InvoiceSummary struct {
	Type        string  `bson:"type" json:"type"`
	Description string  `bson:"description" json:"description"`
	Amount      float64 `bson:"amount" json:"amount"`
}

// SettlementStatement is the human-readable settlement handed to a farmer.
type SettlementStatement struct {
	SettlementBreakdown `bson:",inline"`
	SaleDetails         SaleDetails      `bson:"sale_details" json:"sale_details"`
	InputInvoices       []InvoiceSummary `bson:"input_invoices" json:"input_invoices"`
	GeneratedAt         time.Time        `bson:"generated_at" json:"generated_at"`
}

// Settlement is a persisted statement. A sale is settled at most once.
type Settlement struct {
	ID        string              `bson:"_id" json:"id"`
	SaleID    string              `bson:"sale_id" json:"sale_id"`
	FarmerID  string              `bson:"farmer_id" json:"farmer_id"`
	Statement SettlementStatement `bson:"statement" json:"statement"`
	CreatedAt time.Time           `bson:"created_at" json:"created_at"`
}

// ProfitabilityCheck tells whether a sale leaves the farmer above a minimum share.
type ProfitabilityCheck struct {
	IsProfitable bool    `json:"is_profitable"`
	FarmerShare  float64 `json:"farmer_share"`
	Shortfall    float64 `json:"shortfall"`
	Message      string  `json:"message"`
}
