package pipeline

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"orderboard/internal/core"
)

const utf8BOM = "\ufeff"

// naTokens are the cell values read as missing, after trimming.
var naTokens = map[string]struct{}{
	"":     {},
	"NA":   {},
	"N/A":  {},
	"n/a":  {},
	"NaN":  {},
	"nan":  {},
	"-NaN": {},
	"null": {},
	"NULL": {},
	"None": {},
	"#N/A": {},
	"<NA>": {},
}

// ctxCheckRows is how often Load checks for cancellation.
const ctxCheckRows = 1024

// LoadOptions controls how the input file is read.
type LoadOptions struct {
	Delimiter rune
}

// LoadFile opens path and reads it with Load.
func LoadFile(ctx context.Context, path string, opts LoadOptions) (*core.RawDataset, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load orders %s: %w", path, ErrInputNotFound)
		}
		return nil, fmt.Errorf("load orders %s: %w", path, err)
	}
	defer f.Close()
	// Unblocks a read stuck on a pipe or network mount once ctx is done.
	stop := context.AfterFunc(ctx, func() { _ = f.Close() })
	defer stop()

	ds, err := Load(ctx, f, opts)
	if err != nil {
		return nil, fmt.Errorf("load orders %s: %w", path, err)
	}
	return ds, nil
}

// Load reads order rows from CSV. Header names and cells are trimmed; empty
// cells and NA tokens become missing values. Cancelling ctx stops the read.
func Load(ctx context.Context, r io.Reader, opts LoadOptions) (*core.RawDataset, error) {
	cr := csv.NewReader(r)
	if opts.Delimiter != 0 {
		cr.Comma = opts.Delimiter
	}
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("read header: %w", ctxErr)
	}
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyInput
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	names := normalizeHeader(header)
	idx := make(map[string]int, len(names))
	for i, n := range names {
		idx[n] = i
	}
	for _, col := range core.RequiredColumns {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
	}

	ds := &core.RawDataset{Header: names}
	var extraIdx []int
	for i, n := range names {
		if isRequired(n) || n == core.ColTotalAmount {
			continue
		}
		ds.ExtraColumns = append(ds.ExtraColumns, n)
		extraIdx = append(extraIdx, i)
	}

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, fmt.Errorf("read row: %w", ctxErr)
			}
			return nil, fmt.Errorf("read row: %w", err)
		}
		if len(ds.Rows)%ctxCheckRows == ctxCheckRows-1 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("read row: %w", err)
			}
		}
		line, _ := cr.FieldPos(0)
		if len(rec) > len(names) {
			return nil, fmt.Errorf("line %d: %w: expected %d fields, got %d", line, ErrMalformedValue, len(names), len(rec))
		}

		cell := func(i int) core.NullString {
			if i >= len(rec) {
				return core.NullString{}
			}
			return parseCell(rec[i])
		}

		row := core.RawOrder{
			Line:            line,
			OrderID:         cell(idx[core.ColOrderID]),
			CustomerID:      cell(idx[core.ColCustomerID]),
			ProductCategory: cell(idx[core.ColProductCategory]),
			OrderDate:       cell(idx[core.ColOrderDate]),
		}
		if row.Quantity, err = parseNumber(cell(idx[core.ColQuantity]), line, core.ColQuantity); err != nil {
			return nil, err
		}
		if row.Price, err = parseNumber(cell(idx[core.ColPrice]), line, core.ColPrice); err != nil {
			return nil, err
		}
		if len(extraIdx) > 0 {
			row.Extra = make([]core.NullString, len(extraIdx))
			for j, i := range extraIdx {
				row.Extra[j] = cell(i)
			}
		}
		ds.Rows = append(ds.Rows, row)
	}
	return ds, nil
}

// normalizeHeader trims names and suffixes repeats with ".1", ".2", ...
func normalizeHeader(header []string) []string {
	names := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, utf8BOM)
		}
		h = strings.TrimSpace(h)
		if n, ok := seen[h]; ok {
			seen[h] = n + 1
			h = fmt.Sprintf("%s.%d", h, n+1)
		} else {
			seen[h] = 0
		}
		names[i] = h
	}
	return names
}

func isRequired(name string) bool {
	for _, c := range core.RequiredColumns {
		if c == name {
			return true
		}
	}
	return false
}

func parseCell(raw string) core.NullString {
	v := strings.TrimSpace(raw)
	if _, ok := naTokens[v]; ok {
		return core.NullString{}
	}
	return core.Str(v)
}

func parseNumber(s core.NullString, line int, column string) (core.NullFloat, error) {
	if !s.Valid {
		return core.NullFloat{}, nil
	}
	v, err := strconv.ParseFloat(s.Value, 64)
	if err != nil {
		return core.NullFloat{}, &ValueError{Line: line, Column: column, Value: s.Value}
	}
	return core.Float(v), nil
}
