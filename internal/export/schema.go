package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strconv"

	"orderboard/internal/core"
)

// ErrOutputMissing is returned when an exported file does not exist yet.
var ErrOutputMissing = errors.New("output file not found")

// ErrSchemaMismatch is returned when a file's header differs from its schema.
var ErrSchemaMismatch = errors.New("output file does not match schema")

// Declared column types of the aggregate files.
var (
	CategorySchema = core.CategoryTable(nil).Columns
	CustomerSchema = core.CustomerTable(nil).Columns
	StatsSchema    = core.StatsTable(core.SummaryStats{}).Columns
)

// Aggregate describes one exported aggregate file.
type Aggregate struct {
	Key    string // download name
	File   string
	Title  string
	Schema []core.Column
}

// Aggregates lists the aggregate files in dashboard order.
var Aggregates = []Aggregate{
	{Key: "stats", File: FileSummaryStats, Title: core.TableSummaryStats, Schema: StatsSchema},
	{Key: "category", File: FileCategorySummary, Title: core.TableCategorySummary, Schema: CategorySchema},
	{Key: "customers", File: FileTopCustomers, Title: core.TableTopCustomers, Schema: CustomerSchema},
}

// ReadTable parses an exported CSV back into a typed table.
func ReadTable(path, title string, schema []core.Column) (core.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return core.Table{}, fmt.Errorf("%w: %s", ErrOutputMissing, path)
		}
		return core.Table{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return core.Table{}, fmt.Errorf("read %s: %w", path, err)
	}
	if len(records) == 0 {
		return core.Table{}, fmt.Errorf("%w: %s is empty", ErrSchemaMismatch, path)
	}

	t := core.Table{Name: title, Columns: schema}
	if !slices.Equal(records[0], t.Headers()) {
		return core.Table{}, fmt.Errorf("%w: %s has header %v", ErrSchemaMismatch, path, records[0])
	}

	for i, rec := range records[1:] {
		row := make([]core.Cell, len(schema))
		for j, col := range schema {
			if !col.Kind.IsNumeric() {
				row[j] = core.Cell{Text: rec[j]}
				continue
			}
			if rec[j] == "" {
				continue
			}
			v, err := strconv.ParseFloat(rec[j], 64)
			if err != nil {
				return core.Table{}, fmt.Errorf("%s line %d column %s: %w", path, i+2, col.Name, err)
			}
			row[j] = core.Cell{Num: core.Float(v)}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}
