package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Processing states of a stored webhook delivery. Every row starts as
// "received" and gets exactly one terminal update after reconciliation.
const (
	WebhookEventStatusReceived = "received"
	WebhookEventStatusSuccess  = "success"
	WebhookEventStatusPending  = "pending"
	WebhookEventStatusFailed   = "failed"
)

// WebhookEvent is the append-only audit record of one inbound payment
// notification. The raw payload is retained verbatim so an operator can
// replay the delivery through the same pipeline; rows are never deleted.
type WebhookEvent struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	UUID          string     `gorm:"type:char(36);uniqueIndex" json:"uuid"`
	Platform      string     `gorm:"type:varchar(20);not null;index" json:"platform"`
	EventType     string     `gorm:"type:varchar(100);not null;default:''" json:"event_type"`
	Status        string     `gorm:"type:varchar(20);not null;default:'received';index" json:"status"`
	CustomerEmail string     `gorm:"type:varchar(200);not null;default:'';index" json:"customer_email"`
	CustomerName  string     `gorm:"type:varchar(200);not null;default:''" json:"customer_name"`
	Amount        float64    `gorm:"type:decimal(10,2);not null;default:0" json:"amount"`
	PaymentMethod string     `gorm:"type:varchar(50);not null;default:''" json:"payment_method"`
	TransactionID string     `gorm:"type:varchar(191);not null;default:'';index" json:"transaction_id"`
	ProductIDs    string     `gorm:"type:varchar(500);not null;default:''" json:"product_ids"`
	RawPayload    string     `gorm:"type:longtext;not null" json:"raw_payload"`
	Notes         string     `gorm:"type:text" json:"notes"`
	CreatedAt     time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	ProcessedAt   *time.Time `gorm:"type:timestamp;default:null" json:"processed_at,omitempty"`
}

// BeforeCreate assigns the public UUID used by operator tooling.
func (e *WebhookEvent) BeforeCreate(tx *gorm.DB) error {
	if e.UUID == "" {
		e.UUID = uuid.New().String()
	}
	return nil
}

// ProductIDList splits the stored comma-joined product ids.
func (e *WebhookEvent) ProductIDList() []string {
	if strings.TrimSpace(e.ProductIDs) == "" {
		return nil
	}
	parts := strings.Split(e.ProductIDs, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// JoinProductIDs is the inverse of ProductIDList.
func JoinProductIDs(ids []string) string {
	return strings.Join(ids, ",")
}
