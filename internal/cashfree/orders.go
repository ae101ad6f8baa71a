package cashfree

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
)

// Normalised payment statuses.
const (
	StatusPaid    = "PAID"
	StatusPending = "PENDING"
	StatusFailed  = "FAILED"
)

type Customer struct {
	ID    string
	Name  string
	Email string
	Phone string
}

type CreateOrderRequest struct {
	OrderID   string
	Amount    decimal.Decimal
	Currency  string
	Customer  Customer
	ReturnURL string
	NotifyURL string
}

type Order struct {
	CFOrderID        string          `json:"cf_order_id"`
	OrderID          string          `json:"order_id"`
	OrderCurrency    string          `json:"order_currency"`
	OrderAmount      decimal.Decimal `json:"order_amount"`
	OrderStatus      string          `json:"order_status"`
	PaymentSessionID string          `json:"payment_session_id"`
}

type PaymentStatus struct {
	OrderID string
	Status  string
	Amount  decimal.Decimal
}

type orderPayload struct {
	OrderID         string  `json:"order_id"`
	OrderAmount     float64 `json:"order_amount"`
	OrderCurrency   string  `json:"order_currency"`
	CustomerDetails struct {
		CustomerID    string `json:"customer_id"`
		CustomerName  string `json:"customer_name"`
		CustomerEmail string `json:"customer_email"`
		CustomerPhone string `json:"customer_phone"`
	} `json:"customer_details"`
	OrderMeta struct {
		ReturnURL string `json:"return_url,omitempty"`
		NotifyURL string `json:"notify_url,omitempty"`
	} `json:"order_meta"`
}

func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (*Order, error) {
	payload := orderPayload{
		OrderID:       req.OrderID,
		OrderAmount:   req.Amount.InexactFloat64(),
		OrderCurrency: req.Currency,
	}
	payload.CustomerDetails.CustomerID = req.Customer.ID
	payload.CustomerDetails.CustomerName = req.Customer.Name
	payload.CustomerDetails.CustomerEmail = req.Customer.Email
	payload.CustomerDetails.CustomerPhone = req.Customer.Phone
	payload.OrderMeta.ReturnURL = req.ReturnURL
	payload.OrderMeta.NotifyURL = req.NotifyURL

	var order Order
	if err := c.do(ctx, http.MethodPost, c.cfg.BaseURL+"/orders", c.pgHeaders(), payload, &order); err != nil {
		return nil, err
	}
	c.logger.Infof("Cashfree order %s created (%s)", order.OrderID, order.OrderStatus)
	return &order, nil
}

func (c *Client) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	var order Order
	endpoint := fmt.Sprintf("%s/orders/%s", c.cfg.BaseURL, url.PathEscape(orderID))
	if err := c.do(ctx, http.MethodGet, endpoint, c.pgHeaders(), nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// VerifyPayment fetches an order and folds the gateway's order_status into PAID, PENDING or FAILED.
func (c *Client) VerifyPayment(ctx context.Context, orderID string) (*PaymentStatus, error) {
	order, err := c.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return &PaymentStatus{
		OrderID: order.OrderID,
		Status:  NormalizeOrderStatus(order.OrderStatus),
		Amount:  order.OrderAmount,
	}, nil
}

// NormalizeOrderStatus maps an order_status. Only a closed order is FAILED;
// anything unrecognised stays PENDING so reconciliation keeps polling it.
func NormalizeOrderStatus(status string) string {
	switch strings.ToUpper(status) {
	case "PAID", "SUCCESS":
		return StatusPaid
	case "EXPIRED", "TERMINATED", "TERMINATION_REQUESTED":
		return StatusFailed
	default:
		return StatusPending
	}
}

// NormalizePaymentStatus maps the status of a single payment attempt. A
// failed or dropped attempt leaves the order open for another try, so it is
// never FAILED.
func NormalizePaymentStatus(status string) string {
	switch strings.ToUpper(status) {
	case "SUCCESS", "PAID":
		return StatusPaid
	default:
		return StatusPending
	}
}
