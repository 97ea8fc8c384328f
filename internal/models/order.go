package models

// OrderItem is one line item on an incoming order.
type OrderItem struct {
	ProductID    string  `json:"product_id"`
	Quantity     int     `json:"quantity"`
	PricePerUnit float64 `json:"price_per_unit"`
}

// Order is the wire shape of one order event consumed from the queue.
// OrderID is globally unique at the producer but duplicates are possible
// under redelivery; this system does not deduplicate.
type Order struct {
	OrderID         string      `json:"order_id"`
	UserID          string      `json:"user_id"`
	OrderValue      float64     `json:"order_value"`
	Items           []OrderItem `json:"items"`
	OrderTimestamp  string      `json:"order_timestamp"`
	ShippingAddress string      `json:"shipping_address,omitempty"`
	PaymentMethod   string      `json:"payment_method,omitempty"`
}

// DateBucket returns the YYYY-MM-DD calendar-day key derived from the
// order timestamp (its first 10 characters).
func (o Order) DateBucket() string {
	if len(o.OrderTimestamp) < 10 {
		return o.OrderTimestamp
	}
	return o.OrderTimestamp[:10]
}
