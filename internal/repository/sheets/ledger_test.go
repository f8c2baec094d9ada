package sheets

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/farmhub/internal/domain/models"
)

type captureAppender struct {
	sheetRange string
	values     []interface{}
	err        error
}

func (c *captureAppender) AppendRow(_ context.Context, sheetRange string, values []interface{}) error {
	c.sheetRange, c.values = sheetRange, values
	return c.err
}

func TestLedger_RecordSettlement(t *testing.T) {
	rows := &captureAppender{}
	ledger := NewLedger(rows, "Settlements!A:I", nil)

	s := models.Settlement{
		ID:        "st-1",
		SaleID:    "sale-1",
		FarmerID:  "f-1",
		CreatedAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		Statement: models.SettlementStatement{
			SettlementBreakdown: models.SettlementBreakdown{GrossRevenue: 100000, InputCostsDeducted: 20000, FarmerShare: 56000, PlatformShare: 24000},
			SaleDetails:         models.SaleDetails{CropType: "beans"},
		},
	}

	require.NoError(t, ledger.RecordSettlement(context.Background(), s))

	assert.Equal(t, "Settlements!A:I", rows.sheetRange)
	assert.Equal(t, []interface{}{"2024-03-01", "st-1", "sale-1", "f-1", "beans", "100000.00", "20000.00", "56000.00", "24000.00"}, rows.values)
}

func TestLedger_RecordSettlementError(t *testing.T) {
	ledger := NewLedger(&captureAppender{err: errors.New("quota")}, "A:I", nil)

	err := ledger.RecordSettlement(context.Background(), models.Settlement{ID: "st-9"})
	assert.ErrorContains(t, err, "st-9")
}
