// Package report renders the product catalog as an xlsx workbook.
package report

import (
	"context"
	"io"
	"strconv"

	"github.com/360EntSecGroup-Skylar/excelize"
	"github.com/greenshelf/catalog/internal/domain"
	"github.com/pkg/errors"
)

const (
	SheetName   = "Products"
	FileName    = "product-report.xlsx"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type column struct {
	cell   string
	header string
	width  float64
}

var columns = []column{
	{"A", "ID", 10},
	{"B", "Name", 30},
	{"C", "Category", 20},
	{"D", "Price", 10},
	{"E", "Description", 50},
	{"F", "Image URL", 50},
}

// RowSource supplies the rows of the report.
type RowSource interface {
	ReportRows(ctx context.Context) ([]domain.ReportRow, error)
}

type Exporter struct {
	source RowSource
}

func NewExporter(source RowSource) *Exporter {
	return &Exporter{source: source}
}

// Build reads every row, then lays out the workbook. Nothing is built if the
// read fails.
func (e *Exporter) Build(ctx context.Context) (*excelize.File, error) {
	rows, err := e.source.ReportRows(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load report rows")
	}

	xlsx := excelize.NewFile()
	xlsx.SetSheetName("Sheet1", SheetName)

	headerStyle, err := xlsx.NewStyle(`{"font":{"bold":true}}`)
	if err != nil {
		return nil, errors.Wrap(err, "header style")
	}
	priceStyle, err := xlsx.NewStyle(`{"custom_number_format":"$#,##0.00"}`)
	if err != nil {
		return nil, errors.Wrap(err, "price style")
	}

	for _, col := range columns {
		xlsx.SetCellValue(SheetName, col.cell+"1", col.header)
		xlsx.SetColWidth(SheetName, col.cell, col.cell, col.width)
	}
	xlsx.SetCellStyle(SheetName, "A1", "F1", headerStyle)

	for i, r := range rows {
		n := strconv.Itoa(i + 2)
		xlsx.SetCellValue(SheetName, "A"+n, r.ID)
		xlsx.SetCellValue(SheetName, "B"+n, r.Name)
		xlsx.SetCellValue(SheetName, "C"+n, r.Category)
		xlsx.SetCellValue(SheetName, "D"+n, r.Price.InexactFloat64())
		xlsx.SetCellValue(SheetName, "E"+n, r.Description)
		xlsx.SetCellValue(SheetName, "F"+n, r.ImageURL)
	}
	if len(rows) > 0 {
		xlsx.SetCellStyle(SheetName, "D2", "D"+strconv.Itoa(len(rows)+1), priceStyle)
	}
	return xlsx, nil
}

// Write builds the workbook and serializes it to w.
func (e *Exporter) Write(ctx context.Context, w io.Writer) error {
	xlsx, err := e.Build(ctx)
	if err != nil {
		return err
	}
	return errors.Wrap(xlsx.Write(w), "write xlsx")
}
