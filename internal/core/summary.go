package core

// CategorySummary is one row of the per-category revenue report.
type CategorySummary struct {
	ProductCategory   string
	TotalRevenue      float64
	AverageOrderValue NullFloat // missing when no order in the category has an amount
	OrderCount        int
}

// CustomerTotal is total spend per customer.
type CustomerTotal struct {
	CustomerID  string
	TotalAmount float64
}

// SummaryStats holds the global metrics of a cleaned dataset.
type SummaryStats struct {
	TotalOrders       int
	TotalRevenue      float64
	AverageOrderValue NullFloat
	UniqueCustomers   int
}

// Aggregates groups the three derived views of one pipeline run.
type Aggregates struct {
	Categories   []CategorySummary
	TopCustomers []CustomerTotal
	Stats        SummaryStats
}

// Metric names of the summary statistics table, in display order.
const (
	MetricTotalOrders       = "TotalOrders"
	MetricTotalRevenue      = "TotalRevenue"
	MetricAverageOrderValue = "AverageOrderValue"
	MetricUniqueCustomers   = "UniqueCustomers"
)
