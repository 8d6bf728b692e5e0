package entitlements

import (
	"time"

	"github.com/DiegoMartinsDev/MemberHub/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository provides DB operations used by the entitlement service.
type Repository interface {
	FindPlanByExternalID(platform, externalID string) (*models.Plan, error)
	GetPlanByID(id uint) (*models.Plan, error)
	GetUserByEmail(email string) (*models.User, error)
	CreateUser(user *models.User) error
	SubscriptionExists(userID, planID uint, paymentID string) (bool, error)
	PendingSubscriptionExists(email string, planID uint, paymentID string) (bool, error)
	CreateSubscriptionIfNotExists(sub *models.Subscription) (bool, error)
	CreatePendingSubscriptionIfNotExists(pending *models.PendingSubscription) (bool, error)
	SetUserActivePlan(userID, planID uint) error
	ListClaimablePendingSubscriptions(email string) ([]models.PendingSubscription, error)
	MarkPendingSubscriptionClaimed(id uint) error
	CreateWebhookEvent(event *models.WebhookEvent) error
	FinalizeWebhookEvent(id uint, status, notes string) error
	GetWebhookEventByUUID(uuid string) (*models.WebhookEvent, error)
	WithTransaction(fn func(Repository) error) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates an entitlement repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) FindPlanByExternalID(platform, externalID string) (*models.Plan, error) {
	var plan models.Plan
	var err error
	switch platform {
	case models.PaymentPlatformHotmart:
		err = r.db.Where("hotmart_product_id = ? AND is_active = ?", externalID, true).First(&plan).Error
	case models.PaymentPlatformKiwify:
		err = r.db.Where("kiwify_product_id = ? AND is_active = ?", externalID, true).First(&plan).Error
	case models.PaymentPlatformCakto:
		err = r.db.Where("cakto_product_id = ? AND is_active = ?", externalID, true).First(&plan).Error
	default:
		err = gorm.ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *gormRepository) GetPlanByID(id uint) (*models.Plan, error) {
	var plan models.Plan
	if err := r.db.First(&plan, id).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *gormRepository) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *gormRepository) CreateUser(user *models.User) error {
	return r.db.Create(user).Error
}

func (r *gormRepository) SubscriptionExists(userID, planID uint, paymentID string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Subscription{}).
		Where("user_id = ? AND plan_id = ? AND payment_id = ?", userID, planID, paymentID).
		Count(&count).Error
	return count > 0, err
}

func (r *gormRepository) PendingSubscriptionExists(email string, planID uint, paymentID string) (bool, error) {
	var count int64
	err := r.db.Model(&models.PendingSubscription{}).
		Where("email = ? AND plan_id = ? AND payment_id = ?", email, planID, paymentID).
		Count(&count).Error
	return count > 0, err
}

// CreateSubscriptionIfNotExists inserts with OnConflict-DoNothing against the
// (user_id, plan_id, payment_id) unique index. The index is the actual
// idempotency guarantee; the returned bool reports whether a row was created.
func (r *gormRepository) CreateSubscriptionIfNotExists(sub *models.Subscription) (bool, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "user_id"},
			{Name: "plan_id"},
			{Name: "payment_id"},
		},
		DoNothing: true,
	}).Create(sub)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *gormRepository) CreatePendingSubscriptionIfNotExists(pending *models.PendingSubscription) (bool, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "email"},
			{Name: "plan_id"},
			{Name: "payment_id"},
		},
		DoNothing: true,
	}).Create(pending)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *gormRepository) SetUserActivePlan(userID, planID uint) error {
	return r.db.Model(&models.User{}).
		Where("id = ?", userID).
		Update("active_plan_id", planID).Error
}

func (r *gormRepository) ListClaimablePendingSubscriptions(email string) ([]models.PendingSubscription, error) {
	var pending []models.PendingSubscription
	err := r.db.Where("email = ? AND status = ?", email, models.PendingSubscriptionStatusPending).
		Find(&pending).Error
	return pending, err
}

func (r *gormRepository) MarkPendingSubscriptionClaimed(id uint) error {
	now := time.Now()
	return r.db.Model(&models.PendingSubscription{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     models.PendingSubscriptionStatusClaimed,
			"claimed_at": &now,
		}).Error
}

func (r *gormRepository) CreateWebhookEvent(event *models.WebhookEvent) error {
	return r.db.Create(event).Error
}

// FinalizeWebhookEvent applies the single terminal update to an audit row.
func (r *gormRepository) FinalizeWebhookEvent(id uint, status, notes string) error {
	now := time.Now()
	return r.db.Model(&models.WebhookEvent{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       status,
			"notes":        notes,
			"processed_at": &now,
		}).Error
}

func (r *gormRepository) GetWebhookEventByUUID(uuid string) (*models.WebhookEvent, error) {
	var event models.WebhookEvent
	if err := r.db.Where("uuid = ?", uuid).First(&event).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

// WithTransaction runs fn against a repository bound to one transaction, so
// the commit/rollback boundary is visible at the call site.
func (r *gormRepository) WithTransaction(fn func(Repository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepository{db: tx})
	})
}
