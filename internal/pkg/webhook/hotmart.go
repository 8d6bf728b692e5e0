package webhook

import (
	"encoding/json"
	"strings"
)

// hotmartPayload is the typed shape of a Hotmart purchase webhook. Everything
// relevant lives under data.purchase; product and buyer are siblings of it.
type hotmartPayload struct {
	Event string `json:"event"`
	Data  struct {
		Product struct {
			ID   flexString `json:"id"`
			Name string     `json:"name"`
		} `json:"product"`
		Buyer struct {
			Email string `json:"email"`
			Name  string `json:"name"`
		} `json:"buyer"`
		Purchase struct {
			Transaction string `json:"transaction"`
			Status      string `json:"status"`
			Payment     struct {
				Type string `json:"type"`
			} `json:"payment"`
			Price struct {
				Value float64 `json:"value"`
			} `json:"price"`
		} `json:"purchase"`
	} `json:"data"`
}

func parseHotmart(payload []byte) (*hotmartPayload, error) {
	var p hotmartPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// normalizeHotmart maps a Hotmart payload onto the common event shape.
// Hotmart already reports prices in base currency units; no conversion.
func normalizeHotmart(p *hotmartPayload, raw []byte) *Event {
	status := hotmartStatus(p.Event, p.Data.Purchase.Status)

	var productIDs []string
	if id := p.Data.Product.ID.String(); id != "" {
		productIDs = append(productIDs, id)
	}

	return &Event{
		Platform:      PlatformHotmart,
		EventType:     strings.TrimSpace(p.Event),
		Status:        status,
		CustomerEmail: normalizeEmail(p.Data.Buyer.Email),
		CustomerName:  strings.TrimSpace(p.Data.Buyer.Name),
		Amount:        p.Data.Purchase.Price.Value,
		PaymentMethod: strings.ToLower(strings.TrimSpace(p.Data.Purchase.Payment.Type)),
		TransactionID: strings.TrimSpace(p.Data.Purchase.Transaction),
		ProductIDs:    productIDs,
		RawPayload:    string(raw),
	}
}

// hotmartStatus classifies the event/purchase status vocabulary. Only the
// statuses listed here count as approved; anything unrecognized is "other".
func hotmartStatus(event, purchaseStatus string) Status {
	if strings.EqualFold(strings.TrimSpace(event), "PURCHASE_APPROVED") {
		return StatusApproved
	}
	switch strings.ToUpper(strings.TrimSpace(purchaseStatus)) {
	case "APPROVED", "COMPLETED", "COMPLETE":
		return StatusApproved
	case "WAITING_PAYMENT", "PURCHASE_BILLET_PRINTED", "PENDING", "PRINTED_BILLET":
		return StatusPending
	default:
		return StatusOther
	}
}
