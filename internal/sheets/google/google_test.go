package google

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"orderboard/internal/core"
)

func sampleTables() []core.Table {
	return core.Aggregates{
		Categories:   []core.CategorySummary{{ProductCategory: "Books", TotalRevenue: 32, OrderCount: 3}},
		TopCustomers: []core.CustomerTotal{{CustomerID: "C4", TotalAmount: 40}},
		Stats:        core.SummaryStats{TotalOrders: 7, TotalRevenue: 104.5, UniqueCustomers: 6},
	}.Tables()
}

func TestTableValues(t *testing.T) {
	values := tableValues(sampleTables()[1])

	require.Len(t, values, 2)
	assert.Equal(t, []interface{}{"ProductCategory", "TotalRevenue", "AverageOrderValue", "OrderCount"}, values[0])
	assert.Equal(t, []interface{}{"Books", 32.0, "", 3.0}, values[1])
}

func TestQuoteSheet(t *testing.T) {
	assert.Equal(t, "'Summary Stats'", quoteSheet("Summary Stats"))
	assert.Equal(t, "'Bob''s'", quoteSheet("Bob's"))
}

func TestNew_MissingConfig(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	_, err := New(context.Background(), Options{}, nil)
	require.Error(t, err)
	assert.Equal(t, "missing GOOGLE_SPREADSHEET_ID", err.Error())

	_, err = New(context.Background(), Options{SpreadsheetID: "abc"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing service account credentials")

	_, err = New(context.Background(), Options{SpreadsheetID: "abc", ServiceAccountFile: "/does/not/exist.json"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read service account file")
}

// fakeSheets records the calls the client makes against the Sheets REST API.
type fakeSheets struct {
	mu       sync.Mutex
	existing []string
	calls    []string
	bodies   map[string]string
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	body, _ := io.ReadAll(r.Body)
	path := r.URL.Path
	var call string
	switch {
	case r.Method == http.MethodGet && strings.HasSuffix(path, "/spreadsheets/sheet-1"):
		call = "get"
		sheets := make([]map[string]any, 0, len(f.existing))
		for _, title := range f.existing {
			sheets = append(sheets, map[string]any{"properties": map[string]any{"title": title}})
		}
		json.NewEncoder(w).Encode(map[string]any{"spreadsheetId": "sheet-1", "sheets": sheets})
	case strings.HasSuffix(path, "/spreadsheets/sheet-1:batchUpdate"):
		call = "addSheets"
		w.Write([]byte(`{"spreadsheetId":"sheet-1"}`))
	case strings.HasSuffix(path, "/values:batchClear"):
		call = "clear"
		w.Write([]byte(`{"spreadsheetId":"sheet-1"}`))
	case strings.HasSuffix(path, "/values:batchUpdate"):
		call = "update"
		w.Write([]byte(`{"spreadsheetId":"sheet-1"}`))
	default:
		http.Error(w, "unexpected "+r.Method+" "+path, http.StatusNotFound)
		return
	}
	f.calls = append(f.calls, call)
	f.bodies[call] = string(body)
}

func newFakeClient(t *testing.T, fake *fakeSheets) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication(),
		goption.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return NewWithService(svc, "sheet-1", nil)
}

func TestPublish(t *testing.T) {
	fake := &fakeSheets{existing: []string{core.TableSummaryStats}, bodies: map[string]string{}}
	c := newFakeClient(t, fake)

	require.NoError(t, c.Publish(context.Background(), sampleTables()))

	assert.Equal(t, []string{"get", "addSheets", "clear", "update"}, fake.calls)
	assert.Contains(t, fake.bodies["addSheets"], core.TableCategorySummary)
	assert.NotContains(t, fake.bodies["addSheets"], core.TableSummaryStats)
	assert.Contains(t, fake.bodies["clear"], "'Top Customers'")

	var update gsheet.BatchUpdateValuesRequest
	require.NoError(t, json.Unmarshal([]byte(fake.bodies["update"]), &update))
	assert.Equal(t, "RAW", update.ValueInputOption)
	require.Len(t, update.Data, 3)
	assert.Equal(t, "'Summary Stats'!A1", update.Data[0].Range)
	assert.Len(t, update.Data[0].Values, 5)
}

func TestPublish_AllSheetsExist(t *testing.T) {
	fake := &fakeSheets{
		existing: []string{core.TableSummaryStats, core.TableCategorySummary, core.TableTopCustomers},
		bodies:   map[string]string{},
	}
	c := newFakeClient(t, fake)

	require.NoError(t, c.Publish(context.Background(), sampleTables()))
	assert.Equal(t, []string{"get", "clear", "update"}, fake.calls)
}

func TestPublish_NoService(t *testing.T) {
	c := &Client{spreadsheetID: "x"}
	assert.Error(t, c.Publish(context.Background(), sampleTables()))
}
