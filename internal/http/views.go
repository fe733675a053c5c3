package http

import (
	"html/template"
	"time"

	"orderboard/internal/core"
	"orderboard/internal/export"
)

// tableView is a table with every cell already formatted for display.
type tableView struct {
	Title    string
	Download string
	Headers  []string
	Numeric  []bool
	Rows     [][]string
}

type dashboardView struct {
	Tables      []tableView
	Chart       chartFigure
	GeneratedAt string
}

var templateFuncs = template.FuncMap{
	"downloadURL": func(key string) string { return "/download/" + key },
}

func newTableView(t core.Table) tableView {
	v := tableView{
		Title:   t.Name,
		Headers: t.Headers(),
		Numeric: make([]bool, len(t.Columns)),
		Rows:    make([][]string, len(t.Rows)),
	}
	v.Download = aggregateKey(t.Name)
	for j, c := range t.Columns {
		v.Numeric[j] = c.Kind.IsNumeric()
	}
	for i := range t.Rows {
		row := make([]string, len(t.Columns))
		for j := range t.Columns {
			row[j] = t.Formatted(i, j)
		}
		v.Rows[i] = row
	}
	return v
}

// aggregateKey maps a table title to its download name.
func aggregateKey(title string) string {
	for _, a := range export.Aggregates {
		if a.Title == title {
			return a.Key
		}
	}
	return ""
}

func newDashboardView(tables []core.Table, now time.Time) dashboardView {
	v := dashboardView{GeneratedAt: now.Format("2006-01-02 15:04:05")}
	for _, t := range tables {
		v.Tables = append(v.Tables, newTableView(t))
		if t.Name == core.TableCategorySummary {
			v.Chart = categoryChart(t)
		}
	}
	return v
}

// tableRecords renders a table as JSON objects keyed by column name. Numbers
// stay numbers; missing and non-finite numbers are null.
func tableRecords(t core.Table) []map[string]any {
	out := make([]map[string]any, 0, len(t.Rows))
	for _, row := range t.Rows {
		rec := make(map[string]any, len(t.Columns))
		for j, c := range t.Columns {
			switch {
			case !c.Kind.IsNumeric():
				rec[c.Name] = row[j].Text
			default:
				v := finite(row[j].Num)
				switch {
				case v == nil:
					rec[c.Name] = nil
				case c.Kind == core.KindInteger:
					rec[c.Name] = int64(*v)
				default:
					rec[c.Name] = *v
				}
			}
		}
		out = append(out, rec)
	}
	return out
}
