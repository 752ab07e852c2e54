package resource

import (
	"context"

	"kofa_admin/internal/kofa"
	"kofa_admin/internal/view"

	"go.uber.org/zap"
)

type OrderAPI interface {
	ListOrders(ctx context.Context, status string) ([]kofa.Order, error)
}

// Orders is read-only; status changes are not exposed by the backend.
type Orders struct {
	*Collection[kofa.Order]
}

// NewOrders loads orders with the given server-side status filter; an empty
// status loads everything.
func NewOrders(api OrderAPI, status string, logger *zap.Logger) *Orders {
	load := func(ctx context.Context) ([]kofa.Order, error) {
		return api.ListOrders(ctx, status)
	}
	return &Orders{Collection: NewCollection("orders", load, logger)}
}

// Filter returns the loaded orders whose status matches, ignoring case.
// "all" and "" match everything.
func (o *Orders) Filter(status string) []kofa.Order {
	return view.FilterOrders(o.Items(), status)
}
