package store

// OrderStatus is the order lifecycle state.
type OrderStatus string

const (
	// OrderStatusPending is a freshly created order awaiting confirmation
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusConfirmed is an order accepted for fulfillment
	OrderStatusConfirmed OrderStatus = "confirmed"
	// OrderStatusShipped is an order handed to the carrier
	OrderStatusShipped OrderStatus = "shipped"
	// OrderStatusDelivered is a completed order
	OrderStatusDelivered OrderStatus = "delivered"
	// OrderStatusCancelled is a terminal cancellation
	OrderStatusCancelled OrderStatus = "cancelled"
)

// AllOrderStatuses returns the statuses in lifecycle order.
func AllOrderStatuses() []OrderStatus {
	return []OrderStatus{
		OrderStatusPending,
		OrderStatusConfirmed,
		OrderStatusShipped,
		OrderStatusDelivered,
		OrderStatusCancelled,
	}
}

// IsValidOrderStatus checks the value against the closed status set.
func IsValidOrderStatus(s OrderStatus) bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	default:
		return false
	}
}

// ParseOrderStatus safely parses a string into an OrderStatus.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	st := OrderStatus(s)
	return st, IsValidOrderStatus(st)
}

// CanModify reports whether an order in this status still accepts changes.
// Shipped and delivered orders are locked; cancellation follows the same rule.
func CanModify(s OrderStatus) bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusCancelled:
		return true
	case OrderStatusShipped, OrderStatusDelivered:
		return false
	default:
		return false
	}
}
