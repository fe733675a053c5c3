package pipeline

import (
	"sort"

	"orderboard/internal/core"
)

// DefaultTopCustomers is the size of the top customer ranking.
const DefaultTopCustomers = 5

// Aggregate computes the category summary, top customers and summary stats.
func Aggregate(ds *core.Dataset, topN int) core.Aggregates {
	return core.Aggregates{
		Categories:   SummarizeCategories(ds.Orders),
		TopCustomers: TopCustomers(ds.Orders, topN),
		Stats:        Stats(ds.Orders),
	}
}

type amountAcc struct {
	sum    float64
	n      int // non-missing amounts
	orders int // non-missing order ids
}

func (a *amountAcc) add(o core.Order) {
	if o.TotalAmount.Valid {
		a.sum += o.TotalAmount.Value
		a.n++
	}
	if o.OrderID.Valid {
		a.orders++
	}
}

func (a *amountAcc) mean() core.NullFloat {
	if a.n == 0 {
		return core.NullFloat{}
	}
	return core.Float(a.sum / float64(a.n))
}

// groupBy accumulates orders per key and returns the keys sorted ascending.
func groupBy(orders []core.Order, key func(core.Order) string, keep func(core.Order) bool) ([]string, map[string]*amountAcc) {
	groups := make(map[string]*amountAcc)
	for _, o := range orders {
		if keep != nil && !keep(o) {
			continue
		}
		k := key(o)
		g, ok := groups[k]
		if !ok {
			g = &amountAcc{}
			groups[k] = g
		}
		g.add(o)
	}
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, groups
}

// SummarizeCategories groups by category, excluding the unknown category,
// in ascending category order.
func SummarizeCategories(orders []core.Order) []core.CategorySummary {
	keys, groups := groupBy(orders,
		func(o core.Order) string { return o.ProductCategory },
		func(o core.Order) bool { return o.ProductCategory != core.UnknownCategory },
	)
	out := make([]core.CategorySummary, 0, len(keys))
	for _, k := range keys {
		g := groups[k]
		out = append(out, core.CategorySummary{
			ProductCategory:   k,
			TotalRevenue:      g.sum,
			AverageOrderValue: g.mean(),
			OrderCount:        g.orders,
		})
	}
	return out
}

// TopCustomers ranks customers by total spend, highest first. Ties keep
// ascending customer order. n <= 0 selects DefaultTopCustomers.
func TopCustomers(orders []core.Order, n int) []core.CustomerTotal {
	if n <= 0 {
		n = DefaultTopCustomers
	}
	keys, groups := groupBy(orders, func(o core.Order) string { return o.CustomerID }, nil)
	out := make([]core.CustomerTotal, 0, len(keys))
	for _, k := range keys {
		out = append(out, core.CustomerTotal{CustomerID: k, TotalAmount: groups[k].sum})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalAmount > out[j].TotalAmount
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// Stats computes the global summary metrics.
func Stats(orders []core.Order) core.SummaryStats {
	var all amountAcc
	customers := make(map[string]struct{})
	for _, o := range orders {
		all.add(o)
		customers[o.CustomerID] = struct{}{}
	}
	return core.SummaryStats{
		TotalOrders:       len(orders),
		TotalRevenue:      all.sum,
		AverageOrderValue: all.mean(),
		UniqueCustomers:   len(customers),
	}
}
