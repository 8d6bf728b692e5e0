package models

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Payment platform constants used across webhook-related models.
const (
	PaymentPlatformHotmart = "hotmart"
	PaymentPlatformKiwify  = "kiwify"
	PaymentPlatformCakto   = "cakto"
)

// Plan is an internal subscription tier. Each supported payment platform gets
// its own external product id column; the resolver matches incoming webhook
// product ids against exactly one of these columns. The columns are nullable
// pointers: an unmapped gateway stays NULL so the per-column unique indexes
// never collide between plans that skip the same gateway.
type Plan struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	Name             string    `gorm:"type:varchar(150);not null" json:"name" validate:"required,min=2,max=150"`
	DurationDays     *int      `gorm:"default:null" json:"duration_days"` // nil = lifetime
	HotmartProductID *string   `gorm:"type:varchar(191);default:null;index:ux_plans_hotmart_product,unique" json:"hotmart_product_id"`
	KiwifyProductID  *string   `gorm:"type:varchar(191);default:null;index:ux_plans_kiwify_product,unique" json:"kiwify_product_id"`
	CaktoProductID   *string   `gorm:"type:varchar(191);default:null;index:ux_plans_cakto_product,unique" json:"cakto_product_id"`
	IsActive         bool      `gorm:"default:true;index" json:"is_active"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *Plan) Validate() error {
	v := validator.New()

	return v.Struct(p)
}

// IsLifetime reports whether the plan never expires.
func (p *Plan) IsLifetime() bool {
	return p.DurationDays == nil
}

// ExternalProductID returns the external id column for the given platform,
// empty when the gateway is unmapped.
func (p *Plan) ExternalProductID(platform string) string {
	var id *string
	switch strings.ToLower(strings.TrimSpace(platform)) {
	case PaymentPlatformHotmart:
		id = p.HotmartProductID
	case PaymentPlatformKiwify:
		id = p.KiwifyProductID
	case PaymentPlatformCakto:
		id = p.CaktoProductID
	}
	if id == nil {
		return ""
	}
	return *id
}
