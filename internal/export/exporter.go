package export

import (
	"context"
	"path/filepath"

	"orderboard/internal/core"
	"orderboard/internal/log"
)

// Exported file names, relative to the output directory.
const (
	FileCleanedOrders   = "cleaned_orders.csv"
	FileCategorySummary = "category_summary.csv"
	FileTopCustomers    = "top_customers.csv"
	FileSummaryStats    = "summary_stats.csv"
	FileWorkbook        = "orderboard_summary.xlsx"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04:05"
)

// Exporter writes the cleaned dataset and the aggregates to the output directory.
type Exporter struct {
	dir      string
	csv      *CSVWriter
	workbook *WorkbookWriter
	logger   *log.Logger
}

// NewExporter creates an exporter rooted at dir. When withWorkbook is set the
// aggregates are also written as an XLSX workbook.
func NewExporter(dir string, withWorkbook bool, logger *log.Logger) *Exporter {
	if logger == nil {
		logger = log.Discard()
	}
	e := &Exporter{
		dir:    dir,
		csv:    NewCSVWriter(logger),
		logger: logger.WithComponent(log.ComponentExport),
	}
	if withWorkbook {
		e.workbook = NewWorkbookWriter()
	}
	return e
}

// Dir returns the output directory.
func (e *Exporter) Dir() string { return e.dir }

// Path returns the full path of an exported file.
func (e *Exporter) Path(file string) string { return filepath.Join(e.dir, file) }

// Write overwrites every output file.
func (e *Exporter) Write(ctx context.Context, ds *core.Dataset, agg core.Aggregates) error {
	headers, records := CleanedRecords(ds)
	if err := e.csv.WriteCSV(e.Path(FileCleanedOrders), WriteOptions{Headers: headers, Records: records}); err != nil {
		return err
	}

	tables := agg.Tables()
	for i, a := range Aggregates {
		if err := ctx.Err(); err != nil {
			return err
		}
		t := tables[i]
		if err := e.csv.WriteCSV(e.Path(a.File), WriteOptions{Headers: t.Headers(), Records: t.Records()}); err != nil {
			return err
		}
	}

	if e.workbook != nil {
		if err := e.workbook.Write(e.Path(FileWorkbook), tables); err != nil {
			return err
		}
	}

	e.logger.InfoContext(ctx, "Outputs exported", log.FieldRows, len(ds.Orders), "dir", e.dir)
	return nil
}

// CleanedRecords renders the cleaned dataset in input column order, with
// TotalAmount last unless the input already had that column.
func CleanedRecords(ds *core.Dataset) ([]string, [][]string) {
	headers := append([]string(nil), ds.Header...)
	hasTotal := false
	for _, h := range headers {
		if h == core.ColTotalAmount {
			hasTotal = true
			break
		}
	}
	if !hasTotal {
		headers = append(headers, core.ColTotalAmount)
	}

	extra := make(map[string]int, len(ds.ExtraColumns))
	for i, c := range ds.ExtraColumns {
		extra[c] = i
	}

	layout := dateLayout
	for _, o := range ds.Orders {
		if o.OrderDate.HasClock() {
			layout = dateTimeLayout
			break
		}
	}

	records := make([][]string, 0, len(ds.Orders))
	for _, o := range ds.Orders {
		rec := make([]string, len(headers))
		for i, h := range headers {
			switch h {
			case core.ColOrderID:
				rec[i] = o.OrderID.Value
			case core.ColCustomerID:
				rec[i] = o.CustomerID
			case core.ColProductCategory:
				rec[i] = o.ProductCategory
			case core.ColQuantity:
				rec[i] = o.Quantity.String()
			case core.ColPrice:
				rec[i] = o.Price.String()
			case core.ColOrderDate:
				if !o.OrderDate.IsEmpty() {
					rec[i] = o.OrderDate.Format(layout)
				}
			case core.ColTotalAmount:
				rec[i] = o.TotalAmount.String()
			default:
				if j, ok := extra[h]; ok && j < len(o.Extra) {
					rec[i] = o.Extra[j].Value
				}
			}
		}
		records = append(records, rec)
	}
	return headers, records
}
