package cashfree

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var ErrInvalidSignature = errors.New("invalid webhook signature")

// VerifyWebhookSignature checks base64(HMAC-SHA256(timestamp+body, secret)).
func (c *Client) VerifyWebhookSignature(timestamp string, body []byte, signature string) error {
	return VerifySignature(c.cfg.SecretKey, timestamp, body, signature)
}

func VerifySignature(secret, timestamp string, body []byte, signature string) error {
	if signature == "" {
		return ErrInvalidSignature
	}
	expected := Sign(secret, timestamp, body)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrInvalidSignature
	}
	return nil
}

func Sign(secret, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// WebhookEvent is the payment notification reduced to what the ledger needs.
type WebhookEvent struct {
	OrderID string
	Status  string
	// RawStatus is the gateway's status before normalisation.
	RawStatus string
	Amount    decimal.Decimal
}

// ParseWebhook accepts both the flat legacy body and the nested data.order / data.payment body.
func ParseWebhook(body []byte) (*WebhookEvent, error) {
	var payload struct {
		OrderID     string              `json:"order_id"`
		OrderStatus string              `json:"order_status"`
		OrderAmount decimal.NullDecimal `json:"order_amount"`
		Data        *struct {
			Order struct {
				OrderID     string              `json:"order_id"`
				OrderAmount decimal.NullDecimal `json:"order_amount"`
				OrderStatus string              `json:"order_status"`
			} `json:"order"`
			Payment struct {
				PaymentStatus string              `json:"payment_status"`
				PaymentAmount decimal.NullDecimal `json:"payment_amount"`
			} `json:"payment"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("malformed webhook body: %w", err)
	}

	event := &WebhookEvent{
		OrderID:   payload.OrderID,
		RawStatus: payload.OrderStatus,
		Amount:    payload.OrderAmount.Decimal,
	}
	normalize := NormalizeOrderStatus
	if payload.Data != nil && payload.Data.Order.OrderID != "" {
		event.OrderID = payload.Data.Order.OrderID
		event.RawStatus = payload.Data.Order.OrderStatus
		if payload.Data.Payment.PaymentStatus != "" {
			event.RawStatus = payload.Data.Payment.PaymentStatus
			normalize = NormalizePaymentStatus
		}
		event.Amount = payload.Data.Order.OrderAmount.Decimal
		if payload.Data.Payment.PaymentAmount.Valid {
			event.Amount = payload.Data.Payment.PaymentAmount.Decimal
		}
	}

	if event.OrderID == "" {
		return nil, errors.New("webhook body has no order id")
	}
	event.Status = normalize(event.RawStatus)
	return event, nil
}
