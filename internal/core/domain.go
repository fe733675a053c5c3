package core

import (
	"strconv"
	"time"
)

// Sentinel values substituted for missing categorical data.
const (
	UnknownCustomer = "Unknown"
	UnknownCategory = "Unknown Category"
)

// Required input columns, in canonical order.
const (
	ColOrderID         = "OrderID"
	ColCustomerID      = "CustomerID"
	ColProductCategory = "ProductCategory"
	ColQuantity        = "Quantity"
	ColPrice           = "Price"
	ColOrderDate       = "OrderDate"
	ColTotalAmount     = "TotalAmount"
)

// RequiredColumns lists the columns every input file must carry.
var RequiredColumns = []string{
	ColOrderID, ColCustomerID, ColProductCategory, ColQuantity, ColPrice, ColOrderDate,
}

type (
	// NullString is a string cell that may be missing.
	NullString struct {
		Value string
		Valid bool
	}

	// NullFloat is a numeric cell that may be missing.
	NullFloat struct {
		Value float64
		Valid bool
	}

	// Date wraps time.Time; the zero value means "no date".
	Date struct {
		time.Time
	}

	// RawOrder is one input row after trimming and numeric parsing, before cleaning.
	RawOrder struct {
		Line            int
		OrderID         NullString
		CustomerID      NullString
		ProductCategory NullString
		Quantity        NullFloat
		Price           NullFloat
		OrderDate       NullString
		Extra           []NullString // aligned with RawDataset.ExtraColumns
	}

	// RawDataset is the loader output.
	RawDataset struct {
		Header       []string // trimmed header, input order
		ExtraColumns []string // non-required columns, input order
		Rows         []RawOrder
	}

	// Order is a cleaned order row. CustomerID and ProductCategory are never empty.
	Order struct {
		OrderID         NullString
		CustomerID      string
		ProductCategory string
		Quantity        NullFloat
		Price           NullFloat
		OrderDate       Date
		TotalAmount     NullFloat
		Extra           []NullString
	}

	// Dataset is the cleaned, derived dataset ready for aggregation and export.
	Dataset struct {
		Header       []string
		ExtraColumns []string
		Orders       []Order
	}
)

// Str returns a valid NullString.
func Str(s string) NullString { return NullString{Value: s, Valid: true} }

// Float returns a valid NullFloat.
func Float(v float64) NullFloat { return NullFloat{Value: v, Valid: true} }

// Mul multiplies two nullable numbers; the result is missing if either side is.
func (f NullFloat) Mul(o NullFloat) NullFloat {
	if !f.Valid || !o.Valid {
		return NullFloat{}
	}
	return Float(f.Value * o.Value)
}

// String renders the number in shortest round-trip form, or "" when missing.
func (f NullFloat) String() string {
	if !f.Valid {
		return ""
	}
	return strconv.FormatFloat(f.Value, 'f', -1, 64)
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// IsEmpty returns true if the date is missing.
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

// HasClock reports whether the date carries a non-midnight time of day.
func (d Date) HasClock() bool {
	if d.IsZero() {
		return false
	}
	h, m, s := d.Clock()
	return h != 0 || m != 0 || s != 0 || d.Nanosecond() != 0
}
