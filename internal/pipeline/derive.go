package pipeline

import "orderboard/internal/core"

// Derive sets TotalAmount = Quantity * Price on every order.
func Derive(ds *core.Dataset) {
	for i := range ds.Orders {
		o := &ds.Orders[i]
		o.TotalAmount = o.Quantity.Mul(o.Price)
	}
}
