package pipeline

import (
	"math"
	"strconv"
	"strings"
	"time"

	"orderboard/internal/core"
)

// CleanReport counts what the cleaner changed.
type CleanReport struct {
	InputRows         int
	DuplicatesRemoved int
	CustomersFilled   int
	CategoriesFilled  int
	PricesImputed     int
	UnparsedDates     int // rows left without an order date
}

// CleanRows is the number of rows left after cleaning.
func (r CleanReport) CleanRows() int { return r.InputRows - r.DuplicatesRemoved }

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"02-Jan-2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"20060102",
}

// Clean fills categorical gaps, imputes prices per category, drops exact
// duplicates and parses order dates. The raw dataset is not modified.
func Clean(raw *core.RawDataset) (*core.Dataset, CleanReport) {
	rep := CleanReport{InputRows: len(raw.Rows)}

	rows := make([]core.RawOrder, len(raw.Rows))
	copy(rows, raw.Rows)

	for i := range rows {
		if !rows[i].CustomerID.Valid {
			rows[i].CustomerID = core.Str(core.UnknownCustomer)
			rep.CustomersFilled++
		}
		if !rows[i].ProductCategory.Valid {
			rows[i].ProductCategory = core.Str(core.UnknownCategory)
			rep.CategoriesFilled++
		}
	}

	means := categoryPriceMeans(rows)
	for i := range rows {
		if rows[i].Price.Valid {
			continue
		}
		if m, ok := means[rows[i].ProductCategory.Value]; ok {
			rows[i].Price = core.Float(m)
			rep.PricesImputed++
		}
	}

	ds := &core.Dataset{
		Header:       raw.Header,
		ExtraColumns: raw.ExtraColumns,
		Orders:       make([]core.Order, 0, len(rows)),
	}
	seen := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		key := rowKey(r)
		if _, dup := seen[key]; dup {
			rep.DuplicatesRemoved++
			continue
		}
		seen[key] = struct{}{}

		date, ok := ParseDate(r.OrderDate)
		if !ok {
			rep.UnparsedDates++
		}
		ds.Orders = append(ds.Orders, core.Order{
			OrderID:         r.OrderID,
			CustomerID:      r.CustomerID.Value,
			ProductCategory: r.ProductCategory.Value,
			Quantity:        r.Quantity,
			Price:           r.Price,
			OrderDate:       date,
			Extra:           r.Extra,
		})
	}
	return ds, rep
}

// categoryPriceMeans returns the mean non-missing price per category.
// Categories without any price are absent from the map.
func categoryPriceMeans(rows []core.RawOrder) map[string]float64 {
	type acc struct {
		sum float64
		n   int
	}
	groups := make(map[string]*acc)
	for _, r := range rows {
		if !r.Price.Valid {
			continue
		}
		g, ok := groups[r.ProductCategory.Value]
		if !ok {
			g = &acc{}
			groups[r.ProductCategory.Value] = g
		}
		g.sum += r.Price.Value
		g.n++
	}
	means := make(map[string]float64, len(groups))
	for k, g := range groups {
		means[k] = g.sum / float64(g.n)
	}
	return means
}

// rowKey encodes every column of a row so that equal rows, missing values
// included, produce equal keys.
func rowKey(r core.RawOrder) string {
	var b strings.Builder
	str := func(s core.NullString) {
		if s.Valid {
			b.WriteByte('s')
			b.WriteString(strconv.Quote(s.Value))
		} else {
			b.WriteByte('-')
		}
		b.WriteByte(0x1f)
	}
	num := func(f core.NullFloat) {
		if f.Valid {
			v := f.Value
			if v == 0 {
				v = 0 // -0 equals 0
			}
			b.WriteByte('n')
			b.WriteString(strconv.FormatUint(math.Float64bits(v), 16))
		} else {
			b.WriteByte('-')
		}
		b.WriteByte(0x1f)
	}
	str(r.OrderID)
	str(r.CustomerID)
	str(r.ProductCategory)
	num(r.Quantity)
	num(r.Price)
	str(r.OrderDate)
	for _, e := range r.Extra {
		str(e)
	}
	return b.String()
}

// ParseDate tries the supported layouts in order. Missing or unparseable
// values yield an empty date and false.
func ParseDate(s core.NullString) (core.Date, bool) {
	if !s.Valid {
		return core.Date{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s.Value); err == nil {
			return core.Date{Time: t.UTC()}, true
		}
	}
	return core.Date{}, false
}
