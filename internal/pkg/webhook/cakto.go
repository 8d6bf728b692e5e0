package webhook

import (
	"encoding/json"
	"strings"
)

// caktoPayload is the typed shape of a Cakto purchase webhook. Multi-item
// purchases list line items under data.products; single-item variants only
// fill data.product or data.offer.
type caktoPayload struct {
	Event string `json:"event"`
	Data  struct {
		ID            string  `json:"id"`
		RefID         string  `json:"refId"`
		Status        string  `json:"status"`
		Amount        float64 `json:"amount"`
		PaymentMethod string  `json:"paymentMethod"`
		Customer      struct {
			Email string `json:"email"`
			Name  string `json:"name"`
		} `json:"customer"`
		Product struct {
			ID flexString `json:"id"`
		} `json:"product"`
		Products []struct {
			ID flexString `json:"id"`
		} `json:"products"`
		Offer struct {
			ID flexString `json:"id"`
		} `json:"offer"`
	} `json:"data"`
}

func parseCakto(payload []byte) (*caktoPayload, error) {
	var p caktoPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// normalizeCakto maps a Cakto payload onto the common event shape. Cakto
// reports amounts in base currency units; no conversion. Product ids prefer
// the line-item array, then the single product, then the offer.
func normalizeCakto(p *caktoPayload, raw []byte) *Event {
	var productIDs []string
	for _, item := range p.Data.Products {
		if id := item.ID.String(); id != "" {
			productIDs = append(productIDs, id)
		}
	}
	if len(productIDs) == 0 {
		if id := p.Data.Product.ID.String(); id != "" {
			productIDs = append(productIDs, id)
		}
	}
	if len(productIDs) == 0 {
		if id := p.Data.Offer.ID.String(); id != "" {
			productIDs = append(productIDs, id)
		}
	}

	transactionID := strings.TrimSpace(p.Data.RefID)
	if transactionID == "" {
		transactionID = strings.TrimSpace(p.Data.ID)
	}

	return &Event{
		Platform:      PlatformCakto,
		EventType:     strings.TrimSpace(p.Event),
		Status:        caktoStatus(p.Data.Status),
		CustomerEmail: normalizeEmail(p.Data.Customer.Email),
		CustomerName:  strings.TrimSpace(p.Data.Customer.Name),
		Amount:        p.Data.Amount,
		PaymentMethod: strings.ToLower(strings.TrimSpace(p.Data.PaymentMethod)),
		TransactionID: transactionID,
		ProductIDs:    productIDs,
		RawPayload:    string(raw),
	}
}

// caktoStatus classifies Cakto's per-method status vocabulary (pix.paid,
// card.paid etc.). Unrecognized statuses never count as approved.
func caktoStatus(status string) Status {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "paid", "pix.paid", "card.paid", "boleto.paid", "approved":
		return StatusApproved
	case "waiting_payment", "pix.generated", "boleto.generated", "pending":
		return StatusPending
	default:
		return StatusOther
	}
}
