package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gevorg96/universe-labs/internal/app"
	"github.com/gevorg96/universe-labs/internal/domain"
)

// OrderBatchInserter is the minimal interface needed to create orders.
type OrderBatchInserter interface {
	BatchInsert(ctx context.Context, orders []domain.Order) ([]domain.Order, error)
}

// OrderQuerier is the minimal interface needed to read orders.
type OrderQuerier interface {
	GetOrders(ctx context.Context, in app.QueryOrdersInput) ([]domain.Order, error)
}

// HandleBatchCreate returns the handler for POST /api/v1/order/batch-create.
func HandleBatchCreate(svc OrderBatchInserter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req batchCreateRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if problems := req.validate(); len(problems) > 0 {
			writeValidationErrors(w, problems)
			return
		}

		orders, err := svc.BatchInsert(r.Context(), req.toDomain())
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, ordersEnvelope{Orders: toOrderResponses(orders)})
	}
}

// HandleQueryOrders returns the handler for POST /api/v1/order/query.
func HandleQueryOrders(svc OrderQuerier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req queryOrdersRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if problems := req.validate(); len(problems) > 0 {
			writeValidationErrors(w, problems)
			return
		}

		in := app.QueryOrdersInput{
			IDs:               req.IDs,
			CustomerIDs:       req.CustomerIDs,
			IncludeOrderItems: req.IncludeOrderItems,
		}
		if req.Page != nil {
			in.Page = *req.Page
		}
		if req.PageSize != nil {
			in.PageSize = *req.PageSize
		}

		orders, err := svc.GetOrders(r.Context(), in)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, ordersEnvelope{Orders: toOrderResponses(orders)})
	}
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrConstraintViolation):
		writeError(w, http.StatusConflict, codeWriteConflict, "order batch violates a storage constraint")
	case errors.Is(err, domain.ErrConnectionFailed):
		writeError(w, http.StatusServiceUnavailable, codeStorageUnavailable, "storage unavailable")
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}

type batchCreateRequest struct {
	Orders []createOrderPayload `json:"orders"`
}

type createOrderPayload struct {
	CustomerID         int64              `json:"customer_id"`
	DeliveryAddress    string             `json:"delivery_address"`
	TotalPriceCents    int64              `json:"total_price_cents"`
	TotalPriceCurrency string             `json:"total_price_currency"`
	OrderItems         []orderItemPayload `json:"order_items"`
}

type orderItemPayload struct {
	ProductID     int64  `json:"product_id"`
	ProductTitle  string `json:"product_title"`
	ProductURL    string `json:"product_url"`
	Quantity      int32  `json:"quantity"`
	PriceCents    int64  `json:"price_cents"`
	PriceCurrency string `json:"price_currency"`
}

// validate enforces the upstream contract the service layer assumes: shapes,
// positive amounts, and totals/currency reconciliation.
func (r batchCreateRequest) validate() map[string]string {
	problems := map[string]string{}
	if len(r.Orders) == 0 {
		problems["orders"] = "orders must not be empty"
		return problems
	}
	for i, o := range r.Orders {
		prefix := fmt.Sprintf("orders[%d]", i)
		if o.CustomerID <= 0 {
			problems[prefix+".customer_id"] = "customer_id must be greater than 0"
		}
		if o.DeliveryAddress == "" {
			problems[prefix+".delivery_address"] = "delivery_address must not be empty"
		}
		if o.TotalPriceCents <= 0 {
			problems[prefix+".total_price_cents"] = "total_price_cents must be greater than 0"
		}
		if o.TotalPriceCurrency == "" {
			problems[prefix+".total_price_currency"] = "total_price_currency must not be empty"
		}
		if len(o.OrderItems) == 0 {
			problems[prefix+".order_items"] = "order_items must not be empty"
			continue
		}

		var sum int64
		for j, it := range o.OrderItems {
			itemPrefix := fmt.Sprintf("%s.order_items[%d]", prefix, j)
			if it.ProductID <= 0 {
				problems[itemPrefix+".product_id"] = "product_id must be greater than 0"
			}
			if it.ProductTitle == "" {
				problems[itemPrefix+".product_title"] = "product_title must not be empty"
			}
			if it.Quantity <= 0 {
				problems[itemPrefix+".quantity"] = "quantity must be greater than 0"
			}
			if it.PriceCents <= 0 {
				problems[itemPrefix+".price_cents"] = "price_cents must be greater than 0"
			}
			if it.PriceCurrency == "" {
				problems[itemPrefix+".price_currency"] = "price_currency must not be empty"
			} else if it.PriceCurrency != o.TotalPriceCurrency {
				problems[itemPrefix+".price_currency"] = "price_currency must match total_price_currency"
			}
			sum += it.PriceCents * int64(it.Quantity)
		}
		if sum != o.TotalPriceCents {
			problems[prefix+".total_price_cents"] = "total_price_cents must equal the sum of price_cents * quantity over order_items"
		}
	}
	return problems
}

func (r batchCreateRequest) toDomain() []domain.Order {
	orders := make([]domain.Order, len(r.Orders))
	for i, o := range r.Orders {
		items := make([]domain.OrderItem, len(o.OrderItems))
		for j, it := range o.OrderItems {
			items[j] = domain.OrderItem{
				ProductID:     it.ProductID,
				ProductTitle:  it.ProductTitle,
				ProductURL:    it.ProductURL,
				Quantity:      it.Quantity,
				PriceCents:    it.PriceCents,
				PriceCurrency: it.PriceCurrency,
			}
		}
		orders[i] = domain.Order{
			CustomerID:         o.CustomerID,
			DeliveryAddress:    o.DeliveryAddress,
			TotalPriceCents:    o.TotalPriceCents,
			TotalPriceCurrency: o.TotalPriceCurrency,
			Items:              items,
		}
	}
	return orders
}

type queryOrdersRequest struct {
	IDs               []int64 `json:"ids"`
	CustomerIDs       []int64 `json:"customer_ids"`
	Page              *int    `json:"page"`
	PageSize          *int    `json:"page_size"`
	IncludeOrderItems bool    `json:"include_order_items"`
}

const maxPageSize = 100

func (r queryOrdersRequest) validate() map[string]string {
	problems := map[string]string{}
	if len(r.IDs) == 0 && len(r.CustomerIDs) == 0 {
		problems["ids"] = "at least one of ids or customer_ids must be specified"
	}
	for i, id := range r.IDs {
		if id <= 0 {
			problems[fmt.Sprintf("ids[%d]", i)] = "ids must be greater than 0"
		}
	}
	for i, id := range r.CustomerIDs {
		if id <= 0 {
			problems[fmt.Sprintf("customer_ids[%d]", i)] = "customer_ids must be greater than 0"
		}
	}
	if r.Page != nil && *r.Page <= 0 {
		problems["page"] = "page must be greater than 0"
	}
	if r.PageSize != nil && (*r.PageSize <= 0 || *r.PageSize > maxPageSize) {
		problems["page_size"] = fmt.Sprintf("page_size must be between 1 and %d", maxPageSize)
	}
	return problems
}

type ordersEnvelope struct {
	Orders []orderResponse `json:"orders"`
}

type orderResponse struct {
	ID                 int64               `json:"id"`
	CustomerID         int64               `json:"customer_id"`
	DeliveryAddress    string              `json:"delivery_address"`
	TotalPriceCents    int64               `json:"total_price_cents"`
	TotalPriceCurrency string              `json:"total_price_currency"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
	OrderItems         []orderItemResponse `json:"order_items"`
}

type orderItemResponse struct {
	ID            int64     `json:"id"`
	OrderID       int64     `json:"order_id"`
	ProductID     int64     `json:"product_id"`
	ProductTitle  string    `json:"product_title"`
	ProductURL    string    `json:"product_url"`
	Quantity      int32     `json:"quantity"`
	PriceCents    int64     `json:"price_cents"`
	PriceCurrency string    `json:"price_currency"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toOrderResponses(orders []domain.Order) []orderResponse {
	out := make([]orderResponse, len(orders))
	for i, o := range orders {
		items := make([]orderItemResponse, len(o.Items))
		for j, it := range o.Items {
			items[j] = orderItemResponse{
				ID:            it.ID,
				OrderID:       it.OrderID,
				ProductID:     it.ProductID,
				ProductTitle:  it.ProductTitle,
				ProductURL:    it.ProductURL,
				Quantity:      it.Quantity,
				PriceCents:    it.PriceCents,
				PriceCurrency: it.PriceCurrency,
				CreatedAt:     it.CreatedAt,
				UpdatedAt:     it.UpdatedAt,
			}
		}
		out[i] = orderResponse{
			ID:                 o.ID,
			CustomerID:         o.CustomerID,
			DeliveryAddress:    o.DeliveryAddress,
			TotalPriceCents:    o.TotalPriceCents,
			TotalPriceCurrency: o.TotalPriceCurrency,
			CreatedAt:          o.CreatedAt,
			UpdatedAt:          o.UpdatedAt,
			OrderItems:         items,
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
