package webhook

import (
	"errors"
	"strings"
)

// Status is the three-valued lifecycle classification of a payment event.
// Gateway-specific vocabularies are mapped onto these values; anything not
// explicitly recognized as approved stays non-approved.
type Status string

const (
	StatusApproved Status = "approved"
	StatusPending  Status = "pending"
	StatusOther    Status = "other"
)

// UnknownCustomerEmail is recorded for non-approved events that arrive
// without a buyer email. Approved events without an email are rejected.
const UnknownCustomerEmail = "unknown@webhook.local"

// Event is the provider-agnostic shape every gateway payload normalizes into.
type Event struct {
	Platform      Platform
	EventType     string
	Status        Status
	CustomerEmail string
	CustomerName  string
	Amount        float64 // base currency units
	PaymentMethod string
	TransactionID string
	ProductIDs    []string
	RawPayload    string
}

// Validation errors surfaced by the normalizer.
var (
	ErrUnknownPlatform  = errors.New("webhook: unknown payment platform")
	ErrMissingEmail     = errors.New("webhook: approved event without customer email")
	ErrMissingPayment   = errors.New("webhook: approved event without transaction id")
	ErrMissingAmount    = errors.New("webhook: approved event without amount")
	ErrMissingProducts  = errors.New("webhook: approved event without product ids")
	ErrMalformedPayload = errors.New("webhook: malformed payload")
)

// Validate enforces the required-field rules for approved events. Non-approved
// events tolerate missing buyer data so they can still be audited.
func (e *Event) Validate() error {
	if e.Status != StatusApproved {
		if strings.TrimSpace(e.CustomerEmail) == "" {
			e.CustomerEmail = UnknownCustomerEmail
		}
		return nil
	}
	if strings.TrimSpace(e.CustomerEmail) == "" {
		return ErrMissingEmail
	}
	if strings.TrimSpace(e.TransactionID) == "" {
		return ErrMissingPayment
	}
	if e.Amount <= 0 {
		return ErrMissingAmount
	}
	if len(e.ProductIDs) == 0 {
		return ErrMissingProducts
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
