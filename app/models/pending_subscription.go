package models

import "time"

const (
	PendingSubscriptionStatusPending = "pending"
	PendingSubscriptionStatusClaimed = "claimed"
)

// PendingSubscription records a paid entitlement for a buyer who has no
// account yet. It is keyed by the buyer email and converted into a real
// Subscription when an account with that email registers. The composite
// unique index makes webhook redelivery idempotent at the storage level.
type PendingSubscription struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Email     string     `gorm:"type:varchar(200);not null;index;index:ux_pending_subscriptions_email_plan_payment,unique,priority:1" json:"email"`
	PlanID    uint       `gorm:"not null;index:ux_pending_subscriptions_email_plan_payment,unique,priority:2" json:"plan_id"`
	PaymentID string     `gorm:"type:varchar(191);not null;index:ux_pending_subscriptions_email_plan_payment,unique,priority:3" json:"payment_id"`
	Status    string     `gorm:"type:varchar(32);not null;default:'pending';index" json:"status"`
	ClaimedAt *time.Time `gorm:"type:timestamp;default:null" json:"claimed_at,omitempty"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	Plan Plan `gorm:"foreignKey:PlanID" json:"-"`
}
