package sheets

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/mamadbah2/farmhub/internal/config"
	"github.com/mamadbah2/farmhub/internal/domain/models"
	"github.com/mamadbah2/farmhub/pkg/money"
)

const dateFormat = "2006-01-02"

// RowAppender is the subset of the Sheets API the ledger needs.
type RowAppender interface {
	AppendRow(ctx context.Context, sheetRange string, values []interface{}) error
}

// Ledger exports one row per settlement to a Google Sheet.
type Ledger struct {
	rows       RowAppender
	sheetRange string
	logger     *zap.Logger
}

// NewLedger builds a ledger writing into sheetRange through rows.
func NewLedger(rows RowAppender, sheetRange string, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{rows: rows, sheetRange: sheetRange, logger: logger}
}

// RecordSettlement appends the settlement as
// date | settlement | sale | farmer | crop | gross | deducted | farmer share | platform share.
func (l *Ledger) RecordSettlement(ctx context.Context, s models.Settlement) error {
	if err := l.rows.AppendRow(ctx, l.sheetRange, LedgerRow(s)); err != nil {
		return fmt.Errorf("record settlement %s: %w", s.ID, err)
	}
	l.logger.Debug("settlement exported to ledger", zap.String("settlement_id", s.ID))
	return nil
}

// LedgerRow renders the sheet row of a settlement.
func LedgerRow(s models.Settlement) []interface{} {
	stmt := s.Statement
	return []interface{}{
		s.CreatedAt.Format(dateFormat),
		s.ID,
		s.SaleID,
		s.FarmerID,
		stmt.SaleDetails.CropType,
		money.Format(stmt.GrossRevenue),
		money.Format(stmt.InputCostsDeducted),
		money.Format(stmt.FarmerShare),
		money.Format(stmt.PlatformShare),
	}
}

// SheetsAppender implements RowAppender using the official Google Sheets API.
type SheetsAppender struct {
	service       *sheetsapi.Service
	spreadsheetID string
	logger        *zap.Logger
}

// NewSheetsAppender builds a Google Sheets backed appender.
func NewSheetsAppender(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (*SheetsAppender, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	service, err := sheetsapi.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsPath), option.WithScopes(sheetsapi.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return &SheetsAppender{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		logger:        logger,
	}, nil
}

// AppendRow appends the provided values to the supplied sheet range.
func (a *SheetsAppender) AppendRow(ctx context.Context, sheetRange string, values []interface{}) error {
	if sheetRange == "" {
		return fmt.Errorf("sheetRange must not be empty")
	}

	payload := &sheetsapi.ValueRange{Values: [][]interface{}{values}}

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	call := a.service.Spreadsheets.Values.Append(a.spreadsheetID, sheetRange, payload).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx)

	if _, err := call.Do(); err != nil {
		return fmt.Errorf("append row into range %s: %w", sheetRange, err)
	}

	a.logger.Debug("row appended to sheet", zap.String("range", sheetRange))
	return nil
}
