package core

import "strconv"

// Kind is the declared type of a table column.
type Kind int

const (
	KindText Kind = iota
	KindInteger
	KindDecimal
)

// IsNumeric reports whether cells of this kind hold numbers.
func (k Kind) IsNumeric() bool {
	return k == KindInteger || k == KindDecimal
}

// Column describes one table column.
type Column struct {
	Name string
	Kind Kind
}

// Cell holds either text or a nullable number, depending on its column's Kind.
type Cell struct {
	Text string
	Num  NullFloat
}

// Table is a typed, presentation-ready tabular view.
type Table struct {
	Name    string
	Columns []Column
	Rows    [][]Cell
}

// Display titles of the aggregate tables.
const (
	TableSummaryStats    = "Summary Stats"
	TableCategorySummary = "Category Summary"
	TableTopCustomers    = "Top Customers"
)

// Headers returns the column names.
func (t Table) Headers() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// Index returns the position of the named column, or -1.
func (t Table) Index(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Raw renders a cell losslessly, as written to CSV: integers without a
// fraction, decimals in shortest round-trip form, missing numbers as "".
func (t Table) Raw(row, col int) string {
	c := t.Rows[row][col]
	switch t.Columns[col].Kind {
	case KindInteger:
		if !c.Num.Valid {
			return ""
		}
		return strconv.FormatInt(int64(c.Num.Value), 10)
	case KindDecimal:
		return c.Num.String()
	default:
		return c.Text
	}
}

// Formatted renders a cell for display: numbers get two decimals and
// thousands separators.
func (t Table) Formatted(row, col int) string {
	c := t.Rows[row][col]
	if !t.Columns[col].Kind.IsNumeric() {
		return c.Text
	}
	if !c.Num.Valid {
		return MissingValue
	}
	return FormatNumber(c.Num.Value)
}

// Records returns all rows rendered with Raw.
func (t Table) Records() [][]string {
	out := make([][]string, len(t.Rows))
	for i := range t.Rows {
		rec := make([]string, len(t.Columns))
		for j := range t.Columns {
			rec[j] = t.Raw(i, j)
		}
		out[i] = rec
	}
	return out
}

// CategoryTable builds the typed view of the category summary.
func CategoryTable(rows []CategorySummary) Table {
	t := Table{
		Name: TableCategorySummary,
		Columns: []Column{
			{Name: ColProductCategory, Kind: KindText},
			{Name: "TotalRevenue", Kind: KindDecimal},
			{Name: "AverageOrderValue", Kind: KindDecimal},
			{Name: "OrderCount", Kind: KindInteger},
		},
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, []Cell{
			{Text: r.ProductCategory},
			{Num: Float(r.TotalRevenue)},
			{Num: r.AverageOrderValue},
			{Num: Float(float64(r.OrderCount))},
		})
	}
	return t
}

// CustomerTable builds the typed view of the top customers.
func CustomerTable(rows []CustomerTotal) Table {
	t := Table{
		Name: TableTopCustomers,
		Columns: []Column{
			{Name: ColCustomerID, Kind: KindText},
			{Name: ColTotalAmount, Kind: KindDecimal},
		},
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, []Cell{{Text: r.CustomerID}, {Num: Float(r.TotalAmount)}})
	}
	return t
}

// StatsTable builds the fixed four-row Metric/Value table.
func StatsTable(s SummaryStats) Table {
	return Table{
		Name: TableSummaryStats,
		Columns: []Column{
			{Name: "Metric", Kind: KindText},
			{Name: "Value", Kind: KindDecimal},
		},
		Rows: [][]Cell{
			{{Text: MetricTotalOrders}, {Num: Float(float64(s.TotalOrders))}},
			{{Text: MetricTotalRevenue}, {Num: Float(s.TotalRevenue)}},
			{{Text: MetricAverageOrderValue}, {Num: s.AverageOrderValue}},
			{{Text: MetricUniqueCustomers}, {Num: Float(float64(s.UniqueCustomers))}},
		},
	}
}

// Tables returns the three aggregate views in dashboard order.
func (a Aggregates) Tables() []Table {
	return []Table{StatsTable(a.Stats), CategoryTable(a.Categories), CustomerTable(a.TopCustomers)}
}
