package domain

import "time"

// Order is an order header plus its line items. ID is assigned by storage;
// before persistence it is zero and the items carry no OrderID yet.
type Order struct {
	ID                 int64
	CustomerID         int64
	DeliveryAddress    string
	TotalPriceCents    int64
	TotalPriceCurrency string
	CreatedAt          time.Time
	UpdatedAt          time.Time
	Items              []OrderItem
}

// OrderItem is a single product line of an order. OrderID becomes valid only
// after the parent order has been persisted.
type OrderItem struct {
	ID            int64
	OrderID       int64
	ProductID     int64
	ProductTitle  string
	ProductURL    string
	Quantity      int32
	PriceCents    int64
	PriceCurrency string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
