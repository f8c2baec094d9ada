// Package pdf renders storage invoices as PDF documents.
package pdf

import (
	"fmt"
	"strings"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/mamadbah2/farmhub/internal/domain/models"
	"github.com/mamadbah2/farmhub/pkg/money"
)

const dateLayout = "2006-01-02"

// Renderer turns invoices into PDF bytes.
type Renderer struct {
	issuer string
}

// NewRenderer builds a renderer printing issuer as the invoice header.
func NewRenderer(issuer string) *Renderer {
	if issuer == "" {
		issuer = "FarmHub Storage"
	}
	return &Renderer{issuer: issuer}
}

// StorageInvoice renders inv.
func (r *Renderer) StorageInvoice(inv models.StorageInvoice) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(8, r.issuer, props.Text{Size: 16, Style: fontstyle.Bold, Align: align.Left}),
		text.NewCol(4, "Storage invoice", props.Text{Size: 12, Style: fontstyle.Bold, Align: align.Right}),
	)

	m.AddRow(18,
		col.New(6).Add(
			text.New("Invoice number: "+inv.InvoiceNumber, props.Text{Top: 0}),
			text.New("Date of issue: "+inv.IssuedAt.Format(dateLayout), props.Text{Top: 4}),
			text.New("Date due: "+inv.DueAt.Format(dateLayout), props.Text{Top: 8}),
			text.New("Status: "+inv.Status, props.Text{Top: 12}),
		),
		col.New(6),
	)

	m.AddRow(24,
		col.New(6).Add(
			text.New("Bill to", props.Text{Style: fontstyle.Bold}),
			text.New(inv.Farmer.Name, props.Text{Top: 5}),
			text.New(inv.Farmer.Phone, props.Text{Top: 9}),
		),
		col.New(6).Add(
			text.New("Warehouse", props.Text{Style: fontstyle.Bold}),
			text.New(inv.Warehouse.Name, props.Text{Top: 5}),
			text.New(inv.Warehouse.Location, props.Text{Top: 9}),
		),
	)

	m.AddRow(10,
		text.NewCol(6, "Description", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Weeks", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Unit price", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	for _, item := range inv.LineItems {
		m.AddRow(12,
			text.NewCol(6, item.Description, props.Text{Size: 9}),
			text.NewCol(2, fmt.Sprintf("%d", item.Weeks), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, money.Format(item.UnitPrice), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, money.Format(item.Amount), props.Text{Size: 9, Align: align.Right}),
		)
	}

	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Amount due", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, money.Format(inv.TotalAmount), props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("render invoice %s: %w", inv.InvoiceNumber, err)
	}
	return doc.GetBytes(), nil
}

// FileName is the download name of an invoice document.
func FileName(inv models.StorageInvoice) string {
	return strings.ToLower(inv.InvoiceNumber) + ".pdf"
}
