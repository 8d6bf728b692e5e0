package models

import "time"

const (
	SubscriptionStatusActive   = "active"
	SubscriptionStatusExpired  = "expired"
	SubscriptionStatusCanceled = "canceled"
)

// Subscription is an activated entitlement: one row per unique
// (user, plan, payment) triple. The composite unique index is the storage-level
// guarantee that redelivered webhooks cannot double-apply a purchase; the
// in-handler existence check is only an optimization on top of it.
type Subscription struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"not null;index;index:ux_subscriptions_user_plan_payment,unique,priority:1" json:"user_id"`
	PlanID    uint       `gorm:"not null;index;index:ux_subscriptions_user_plan_payment,unique,priority:2" json:"plan_id"`
	PaymentID string     `gorm:"type:varchar(191);not null;index;index:ux_subscriptions_user_plan_payment,unique,priority:3" json:"payment_id"`
	Status    string     `gorm:"type:varchar(32);not null;default:'active';index" json:"status"`
	StartDate time.Time  `gorm:"type:timestamp;not null" json:"start_date"`
	EndDate   *time.Time `gorm:"type:timestamp;default:null" json:"end_date,omitempty"` // nil = lifetime
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	Plan Plan `gorm:"foreignKey:PlanID" json:"-"`
}

// IsCurrent reports whether the subscription entitles access right now.
func (s *Subscription) IsCurrent(now time.Time) bool {
	if s.Status != SubscriptionStatusActive {
		return false
	}
	return s.EndDate == nil || s.EndDate.After(now)
}
