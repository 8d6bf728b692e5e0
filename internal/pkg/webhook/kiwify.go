package webhook

import (
	"encoding/json"
	"strings"
)

// kiwifyPayload is the typed shape of a Kiwify order webhook. The payload is
// flat: order fields at the top level next to capitalized Customer/Product
// objects. Charge amounts arrive as integer cents.
type kiwifyPayload struct {
	OrderID          string `json:"order_id"`
	OrderStatus      string `json:"order_status"`
	WebhookEventType string `json:"webhook_event_type"`
	PaymentMethod    string `json:"payment_method"`
	Customer         struct {
		Email    string `json:"email"`
		FullName string `json:"full_name"`
	} `json:"Customer"`
	Product struct {
		ProductID   flexString `json:"product_id"`
		ProductName string     `json:"product_name"`
	} `json:"Product"`
	Commissions struct {
		ChargeAmount int64 `json:"charge_amount"`
	} `json:"Commissions"`
}

func parseKiwify(payload []byte) (*kiwifyPayload, error) {
	var p kiwifyPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// normalizeKiwify maps a Kiwify payload onto the common event shape. Kiwify
// is the one gateway that reports amounts in minor units (integer cents), so
// the conversion to base units is explicit here and nowhere else.
func normalizeKiwify(p *kiwifyPayload, raw []byte) *Event {
	var productIDs []string
	if id := p.Product.ProductID.String(); id != "" {
		productIDs = append(productIDs, id)
	}

	return &Event{
		Platform:      PlatformKiwify,
		EventType:     strings.TrimSpace(p.WebhookEventType),
		Status:        kiwifyStatus(p.OrderStatus),
		CustomerEmail: normalizeEmail(p.Customer.Email),
		CustomerName:  strings.TrimSpace(p.Customer.FullName),
		Amount:        float64(p.Commissions.ChargeAmount) / 100,
		PaymentMethod: strings.ToLower(strings.TrimSpace(p.PaymentMethod)),
		TransactionID: strings.TrimSpace(p.OrderID),
		ProductIDs:    productIDs,
		RawPayload:    string(raw),
	}
}

func kiwifyStatus(orderStatus string) Status {
	switch strings.ToLower(strings.TrimSpace(orderStatus)) {
	case "paid", "approved":
		return StatusApproved
	case "waiting_payment", "pending":
		return StatusPending
	default:
		return StatusOther
	}
}
