package models

import "time"

// LotStatus is the lifecycle state of a stored lot: in_storage -> retrieved.
type LotStatus string

const (
	LotInStorage LotStatus = "in_storage"
	LotRetrieved LotStatus = "retrieved"
)

// Warehouse is a storage facility charging per kg per week.
type Warehouse struct {
	ID              string    `bson:"_id" json:"id"`
	Name            string    `bson:"name" json:"name"`
	Location        string    `bson:"location" json:"location"`
	FeePerKgPerWeek float64   `bson:"user_fee_per_kg_per_week" json:"user_fee_per_kg_per_week"`
	ManagerPhone    string    `bson:"manager_phone,omitempty" json:"manager_phone,omitempty"`
	CreatedAt       time.Time `bson:"created_at" json:"created_at"`
}

// StoredLot is a quantity of produce held at a warehouse.
type StoredLot struct {
	ID            string     `bson:"_id" json:"id"`
	FarmerID      string     `bson:"farmer_id" json:"farmer_id"`
	WarehouseID   string     `bson:"warehouse_id" json:"warehouse_id"`
	CropType      string     `bson:"crop_type" json:"crop_type"`
	QuantityKg    float64    `bson:"quantity_kg" json:"quantity_kg"`
	StoredAt      time.Time  `bson:"stored_at" json:"stored_at"`
	RetrievedAt   *time.Time `bson:"retrieved_at,omitempty" json:"retrieved_at,omitempty"`
	Status        LotStatus  `bson:"status" json:"status"`
	Fee           *FeeResult `bson:"fee,omitempty" json:"fee,omitempty"`
	InvoiceNumber string     `bson:"invoice_number,omitempty" json:"invoice_number,omitempty"`
	CreatedAt     time.Time  `bson:"created_at" json:"created_at"`
}

// FeeResult is the fee of a single lot. It is final once Status is retrieved.
type FeeResult struct {
	Status           LotStatus `bson:"status" json:"status"`
	QuantityKg       float64   `bson:"quantity_kg" json:"quantity_kg"`
	DurationDays     int       `bson:"duration_days" json:"duration_days"`
	DurationWeeks    int       `bson:"duration_weeks" json:"duration_weeks"`
	RatePerKgPerWeek float64   `bson:"rate_per_kg_per_week" json:"rate_per_kg_per_week"`
	TotalFee         float64   `bson:"total_fee" json:"total_fee"`
	Message          string    `bson:"message,omitempty" json:"message,omitempty"`
}

// OngoingEstimate projects the fee of a lot that is still in storage.
type OngoingEstimate struct {
	QuantityKg       float64   `json:"quantity_kg"`
	StoredAt         time.Time `json:"stored_at"`
	AsOf             time.Time `json:"as_of"`
	DurationWeeks    float64   `json:"duration_weeks"`
	RatePerKgPerWeek float64   `json:"rate_per_kg_per_week"`
	EstimatedFee     float64   `json:"estimated_fee"`
	IsEstimate       bool      `json:"is_estimate"`
	Note             string    `json:"note"`
}

// BulkFeeSummary aggregates the fees of several lots held at one warehouse.
type BulkFeeSummary struct {
	Lots            []FeeResult `json:"lots"`
	LotCount        int         `json:"lot_count"`
	TotalFee        float64     `json:"total_fee"`
	TotalQuantityKg float64     `json:"total_quantity_kg"`
	AverageFeePerKg float64     `json:"average_fee_per_kg"`
}

// InvoiceParty identifies the farmer or warehouse on an invoice.
type InvoiceParty struct {
	ID       string `bson:"id" json:"id"`
	Name     string `bson:"name" json:"name"`
	Phone    string `bson:"phone,omitempty" json:"phone,omitempty"`
	Location string `bson:"location,omitempty" json:"location,omitempty"`
}

// InvoiceLineItem is one billed line.
type InvoiceLineItem struct {
	Description string  `bson:"description" json:"description"`
	QuantityKg  float64 `bson:"quantity_kg" json:"quantity_kg"`
	Weeks       int     `bson:"weeks" json:"weeks"`
	UnitPrice   float64 `bson:"unit_price" json:"unit_price"`
	Amount      float64 `bson:"amount" json:"amount"`
}

// StorageInvoice is issued to a farmer once a lot has been retrieved.
type StorageInvoice struct {
	InvoiceNumber string            `bson:"_id" json:"invoice_number"`
	LotID         string            `bson:"lot_id,omitempty" json:"lot_id,omitempty"`
	Farmer        InvoiceParty      `bson:"farmer" json:"farmer"`
	Warehouse     InvoiceParty      `bson:"warehouse" json:"warehouse"`
	IssuedAt      time.Time         `bson:"issued_at" json:"issued_at"`
	DueAt         time.Time         `bson:"due_at" json:"due_at"`
	LineItems     []InvoiceLineItem `bson:"line_items" json:"line_items"`
	TotalAmount   float64           `bson:"total_amount" json:"total_amount"`
	Status        string            `bson:"status" json:"status"`
}
