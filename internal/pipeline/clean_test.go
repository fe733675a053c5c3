package pipeline

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderboard/internal/core"
)

func mustLoad(t *testing.T, input string) *core.RawDataset {
	t.Helper()
	raw, err := Load(context.Background(), strings.NewReader(input), LoadOptions{})
	require.NoError(t, err)
	return raw
}

func TestCleanBooksScenario(t *testing.T) {
	raw := mustLoad(t, `OrderID,CustomerID,ProductCategory,Quantity,Price,OrderDate
1,,Books,2,,bad-date
2,C9,Books,1,10.00,2024-02-01
`)
	ds, rep := Clean(raw)
	Derive(ds)

	require.Len(t, ds.Orders, 2)
	o := ds.Orders[0]
	assert.Equal(t, core.UnknownCustomer, o.CustomerID)
	assert.Equal(t, core.Float(10), o.Price)
	assert.True(t, o.OrderDate.IsEmpty())
	assert.Equal(t, core.Float(20), o.TotalAmount)

	assert.Equal(t, CleanReport{
		InputRows:       2,
		CustomersFilled: 1,
		PricesImputed:   1,
		UnparsedDates:   1,
	}, rep)
}

func TestCleanFillsAndDeduplicates(t *testing.T) {
	ds, rep := Clean(mustLoad(t, sampleCSV))

	assert.Equal(t, 8, rep.InputRows)
	assert.Equal(t, 1, rep.DuplicatesRemoved)
	assert.Equal(t, 7, rep.CleanRows())
	assert.Len(t, ds.Orders, 7)

	for _, o := range ds.Orders {
		assert.NotEmpty(t, o.CustomerID)
		assert.NotEmpty(t, o.ProductCategory)
	}
	assert.Equal(t, core.UnknownCategory, ds.Orders[3].ProductCategory)
	// Books mean of 10 and 12.
	assert.Equal(t, core.Float(11), ds.Orders[0].Price)
}

func TestCleanCategoryWithoutPricesStaysMissing(t *testing.T) {
	ds, rep := Clean(mustLoad(t, `OrderID,CustomerID,ProductCategory,Quantity,Price,OrderDate
1,C1,Games,1,,2024-01-01
2,C2,Games,2,,2024-01-01
3,C3,,1,,2024-01-01
4,C4,,1,4,2024-01-01
`))
	assert.False(t, ds.Orders[0].Price.Valid)
	assert.False(t, ds.Orders[1].Price.Valid)
	// Unknown Category forms its own group after the fill.
	assert.Equal(t, core.Float(4), ds.Orders[2].Price)
	assert.Equal(t, 1, rep.PricesImputed)
}

func TestCleanDuplicatesAfterImputation(t *testing.T) {
	// Row 2 becomes identical to row 1 once its price is imputed and the
	// customer is filled.
	ds, rep := Clean(mustLoad(t, `OrderID,CustomerID,ProductCategory,Quantity,Price,OrderDate,Note
1,Unknown,Books,1,8,2024-01-01,
1,,Books,1,,2024-01-01,NA
1,Unknown,Books,1,8,2024-01-01,gift
`))
	assert.Equal(t, 1, rep.DuplicatesRemoved)
	require.Len(t, ds.Orders, 2)
	assert.Equal(t, core.Str("gift"), ds.Orders[1].Extra[0])
}

func TestCleanDoesNotMutateInput(t *testing.T) {
	raw := mustLoad(t, sampleCSV)
	Clean(raw)
	assert.False(t, raw.Rows[0].CustomerID.Valid)
	assert.False(t, raw.Rows[0].Price.Valid)
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2024-03-01", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), true},
		{"2024-03-01 13:45:10", time.Date(2024, 3, 1, 13, 45, 10, 0, time.UTC), true},
		{"2024-03-01T13:45:10", time.Date(2024, 3, 1, 13, 45, 10, 0, time.UTC), true},
		{"2024-03-01T13:45:10+02:00", time.Date(2024, 3, 1, 11, 45, 10, 0, time.UTC), true},
		{"2024/03/01", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), true},
		{"03/01/2024", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), true},
		{"3/1/2024", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), true},
		{"01-Mar-2024", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), true},
		{"Mar 1, 2024", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), true},
		{"March 1, 2024", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), true},
		{"20240301", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), true},
		{"bad-date", time.Time{}, false},
		{"2024-13-45", time.Time{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseDate(core.Str(tt.in))
			assert.Equal(t, tt.ok, ok)
			assert.True(t, tt.want.Equal(got.Time), "got %v", got.Time)
		})
	}

	_, ok := ParseDate(core.NullString{})
	assert.False(t, ok)
}
