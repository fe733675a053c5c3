package google

import (
	"strings"

	"orderboard/internal/core"
)

// tableValues converts a table to the Sheets values matrix: header row first,
// numbers as numbers, missing numbers as empty cells.
func tableValues(t core.Table) [][]interface{} {
	out := make([][]interface{}, 0, len(t.Rows)+1)
	header := make([]interface{}, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c.Name
	}
	out = append(out, header)

	for _, row := range t.Rows {
		vals := make([]interface{}, len(row))
		for j, cell := range row {
			switch {
			case !t.Columns[j].Kind.IsNumeric():
				vals[j] = cell.Text
			case cell.Num.Valid:
				vals[j] = cell.Num.Value
			default:
				vals[j] = ""
			}
		}
		out = append(out, vals)
	}
	return out
}

// quoteSheet quotes a sheet title for A1 notation.
func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}
