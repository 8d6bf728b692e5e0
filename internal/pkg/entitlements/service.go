package entitlements

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/DiegoMartinsDev/MemberHub/app/models"
	"github.com/DiegoMartinsDev/MemberHub/internal/pkg/cache"
	"github.com/DiegoMartinsDev/MemberHub/internal/pkg/webhook"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"
)

// ErrPlanNotFound is returned when no plan maps the external product id.
var ErrPlanNotFound = errors.New("entitlements: no plan mapped for product id")

// ErrEventNotFound is returned when a replay references an unknown audit row.
var ErrEventNotFound = errors.New("entitlements: webhook event not found")

// ErrEmailTaken is returned when provisioning hits an already-registered email.
var ErrEmailTaken = errors.New("entitlements: email already registered")

const (
	planCachePrefix = "plans:map:"
	planCacheTTL    = 10 * time.Minute
)

// Result classifies the terminal outcome of processing one delivery; the
// controller maps it onto an HTTP status code.
type Result string

const (
	ResultSuccess          Result = "success"
	ResultPending          Result = "pending"
	ResultDuplicate        Result = "duplicate"
	ResultValidationFailed Result = "validation_failed"
	ResultPlanNotMapped    Result = "plan_not_mapped"
	ResultStorageFailed    Result = "storage_failed"
)

// Outcome summarizes what happened to one webhook delivery.
type Outcome struct {
	Result     Result `json:"result"`
	EventUUID  string `json:"event_uuid,omitempty"`
	Applied    int    `json:"applied"`
	Duplicates int    `json:"duplicates"`
	Failures   int    `json:"failures"`
	Notes      string `json:"notes,omitempty"`
}

// Service reconciles normalized payment events into entitlement state.
type Service struct {
	repo       Repository
	cachePlans bool
	now        func() time.Time
}

// NewService creates an entitlement service from an injected repository.
// Plan-mapping lookups go straight to the repository; used by tests.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// NewServiceFromDB creates a service from a GORM DB handle with the Redis
// plan-mapping cache enabled.
func NewServiceFromDB(db *gorm.DB) *Service {
	s := NewService(NewRepository(db))
	s.cachePlans = true
	return s
}

// ResolvePlan maps a gateway-specific external product id to a plan. No
// partial or fuzzy matching; an unmapped id is ErrPlanNotFound and the caller
// is expected to log the gateway name plus the raw identifier.
func (s *Service) ResolvePlan(ctx context.Context, platform webhook.Platform, externalID string) (*models.Plan, error) {
	_ = ctx
	id := strings.TrimSpace(externalID)
	if id == "" {
		return nil, ErrPlanNotFound
	}

	cacheKey := planCachePrefix + string(platform) + ":" + id
	if s.cachePlans {
		if cached, err := cache.Get(cacheKey); err == nil {
			var plan models.Plan
			if err := json.Unmarshal([]byte(cached), &plan); err == nil {
				return &plan, nil
			}
		}
	}

	plan, err := s.repo.FindPlanByExternalID(string(platform), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}

	if s.cachePlans {
		if encoded, err := json.Marshal(plan); err == nil {
			_ = cache.Set(cacheKey, string(encoded), planCacheTTL)
		}
	}
	return plan, nil
}

// InvalidatePlanCache drops the cached mapping for one external id; called by
// admin tooling after a mapping change.
func InvalidatePlanCache(platform webhook.Platform, externalID string) {
	_ = cache.Delete(planCachePrefix + string(platform) + ":" + strings.TrimSpace(externalID))
}

// ProcessEvent runs the reconciliation state machine for one normalized
// delivery: audit row (received) -> idempotency guard -> plan resolution ->
// entitlement action -> single terminal audit update.
func (s *Service) ProcessEvent(ctx context.Context, ev *webhook.Event) (*Outcome, error) {
	audit := &models.WebhookEvent{
		Platform:      string(ev.Platform),
		EventType:     ev.EventType,
		Status:        models.WebhookEventStatusReceived,
		CustomerEmail: ev.CustomerEmail,
		CustomerName:  ev.CustomerName,
		Amount:        ev.Amount,
		PaymentMethod: ev.PaymentMethod,
		TransactionID: ev.TransactionID,
		ProductIDs:    models.JoinProductIDs(ev.ProductIDs),
		RawPayload:    ev.RawPayload,
	}
	if err := s.repo.CreateWebhookEvent(audit); err != nil {
		fiberlog.Errorf("webhook audit write failed (platform=%s txn=%s): %v", ev.Platform, ev.TransactionID, err)
		return &Outcome{Result: ResultStorageFailed}, err
	}

	if err := ev.Validate(); err != nil {
		note := "validation failed: " + err.Error()
		s.finalize(audit, models.WebhookEventStatusFailed, note)
		return &Outcome{Result: ResultValidationFailed, EventUUID: audit.UUID, Notes: note}, nil
	}

	if ev.Status != webhook.StatusApproved {
		note := fmt.Sprintf("non-approved event (%s): no entitlement action", ev.Status)
		s.finalize(audit, models.WebhookEventStatusPending, note)
		return &Outcome{Result: ResultPending, EventUUID: audit.UUID, Notes: note}, nil
	}

	outcome := &Outcome{EventUUID: audit.UUID}
	var notes []string

	for _, productID := range ev.ProductIDs {
		plan, err := s.ResolvePlan(ctx, ev.Platform, productID)
		if err != nil {
			if errors.Is(err, ErrPlanNotFound) {
				fiberlog.Warnf("unmapped product id %q from %s", productID, ev.Platform)
				outcome.Failures++
				notes = append(notes, fmt.Sprintf("unmapped product id %q (%s)", productID, ev.Platform))
				continue
			}
			return s.failStorage(audit, outcome, notes, err)
		}

		applied, duplicate, err := s.applyPlan(ev, plan)
		if err != nil {
			return s.failStorage(audit, outcome, notes, err)
		}
		switch {
		case duplicate:
			outcome.Duplicates++
			notes = append(notes, fmt.Sprintf("duplicate ignored for plan %q (payment %s)", plan.Name, ev.TransactionID))
		case applied:
			outcome.Applied++
			notes = append(notes, fmt.Sprintf("entitlement recorded for plan %q", plan.Name))
		}
	}

	note := strings.Join(notes, "; ")
	switch {
	case outcome.Applied == 0 && outcome.Duplicates == 0:
		s.finalize(audit, models.WebhookEventStatusFailed, note)
		outcome.Result = ResultPlanNotMapped
	case outcome.Applied == 0:
		s.finalize(audit, models.WebhookEventStatusSuccess, note)
		outcome.Result = ResultDuplicate
	default:
		s.finalize(audit, models.WebhookEventStatusSuccess, note)
		outcome.Result = ResultSuccess
	}
	outcome.Notes = note
	return outcome, nil
}

// applyPlan activates one resolved plan for the buyer. Registered buyers get
// a Subscription plus the active-plan pointer inside one transaction;
// unregistered buyers get a PendingSubscription to claim at registration.
// Returns (applied, duplicate, err).
func (s *Service) applyPlan(ev *webhook.Event, plan *models.Plan) (bool, bool, error) {
	user, err := s.repo.GetUserByEmail(ev.CustomerEmail)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, false, err
	}

	if user == nil || errors.Is(err, gorm.ErrRecordNotFound) {
		exists, err := s.repo.PendingSubscriptionExists(ev.CustomerEmail, plan.ID, ev.TransactionID)
		if err != nil {
			return false, false, err
		}
		if exists {
			return false, true, nil
		}
		created, err := s.repo.CreatePendingSubscriptionIfNotExists(&models.PendingSubscription{
			Email:     ev.CustomerEmail,
			PlanID:    plan.ID,
			PaymentID: ev.TransactionID,
			Status:    models.PendingSubscriptionStatusPending,
		})
		if err != nil {
			return false, false, err
		}
		return created, !created, nil
	}

	exists, err := s.repo.SubscriptionExists(user.ID, plan.ID, ev.TransactionID)
	if err != nil {
		return false, false, err
	}
	if exists {
		return false, true, nil
	}

	created := false
	err = s.repo.WithTransaction(func(tx Repository) error {
		var txErr error
		created, txErr = tx.CreateSubscriptionIfNotExists(s.buildSubscription(user.ID, plan, ev.TransactionID))
		if txErr != nil {
			return txErr
		}
		if !created {
			return nil
		}
		return tx.SetUserActivePlan(user.ID, plan.ID)
	})
	if err != nil {
		return false, false, err
	}
	return created, !created, nil
}

// ClaimPendingSubscriptions converts the pending entitlements recorded for an
// email into active subscriptions for a newly registered user. Each claim is
// one transaction; returns how many plans were activated.
func (s *Service) ClaimPendingSubscriptions(ctx context.Context, userID uint, email string) (int, error) {
	_ = ctx
	normalized := strings.ToLower(strings.TrimSpace(email))
	if userID == 0 || normalized == "" {
		return 0, errors.New("entitlements: user_id and email are required")
	}

	pending, err := s.repo.ListClaimablePendingSubscriptions(normalized)
	if err != nil {
		return 0, err
	}

	claimed := 0
	for _, p := range pending {
		planRow, err := s.repo.GetPlanByID(p.PlanID)
		if err != nil {
			fiberlog.Errorf("claim: plan %d lookup failed for pending %d: %v", p.PlanID, p.ID, err)
			continue
		}

		err = s.repo.WithTransaction(func(tx Repository) error {
			created, txErr := tx.CreateSubscriptionIfNotExists(s.buildSubscription(userID, planRow, p.PaymentID))
			if txErr != nil {
				return txErr
			}
			if txErr := tx.MarkPendingSubscriptionClaimed(p.ID); txErr != nil {
				return txErr
			}
			if created {
				return tx.SetUserActivePlan(userID, planRow.ID)
			}
			return nil
		})
		if err != nil {
			return claimed, err
		}
		claimed++
	}
	return claimed, nil
}

// RegisterUser provisions an account for a buyer email and immediately claims
// any pending entitlements recorded for it. The password is bcrypt-hashed and
// an activation token generated; the account starts inactive until the
// activation flow confirms the email.
func (s *Service) RegisterUser(ctx context.Context, name, email, password string) (*models.User, int, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))

	if _, err := s.repo.GetUserByEmail(normalized); err == nil {
		return nil, 0, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, 0, err
	}

	user, err := models.CreateUser(name, normalized, password)
	if err != nil {
		return nil, 0, err
	}
	if err := user.GenerateActivationToken(); err != nil {
		return nil, 0, err
	}
	if err := s.repo.CreateUser(user); err != nil {
		return nil, 0, err
	}

	claimed, err := s.ClaimPendingSubscriptions(ctx, user.ID, normalized)
	if err != nil {
		// The account exists; a failed claim is retryable via the claim API.
		fiberlog.Errorf("claim after provisioning user %d failed: %v", user.ID, err)
	}
	return user, claimed, nil
}

// GetWebhookEventByUUID loads a stored delivery for operator replay.
func (s *Service) GetWebhookEventByUUID(ctx context.Context, uuid string) (*models.WebhookEvent, error) {
	_ = ctx
	event, err := s.repo.GetWebhookEventByUUID(strings.TrimSpace(uuid))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return event, nil
}

func (s *Service) buildSubscription(userID uint, plan *models.Plan, paymentID string) *models.Subscription {
	start := s.now()
	var end *time.Time
	if !plan.IsLifetime() {
		e := start.AddDate(0, 0, *plan.DurationDays)
		end = &e
	}
	return &models.Subscription{
		UserID:    userID,
		PlanID:    plan.ID,
		PaymentID: paymentID,
		Status:    models.SubscriptionStatusActive,
		StartDate: start,
		EndDate:   end,
	}
}

func (s *Service) failStorage(audit *models.WebhookEvent, outcome *Outcome, notes []string, err error) (*Outcome, error) {
	fiberlog.Errorf("entitlement storage failure (event=%s): %v", audit.UUID, err)
	notes = append(notes, "storage failure: "+err.Error())
	s.finalize(audit, models.WebhookEventStatusFailed, strings.Join(notes, "; "))
	outcome.Result = ResultStorageFailed
	outcome.Notes = strings.Join(notes, "; ")
	return outcome, err
}

func (s *Service) finalize(audit *models.WebhookEvent, status, notes string) {
	if err := s.repo.FinalizeWebhookEvent(audit.ID, status, notes); err != nil {
		fiberlog.Errorf("webhook audit finalize failed (event=%s): %v", audit.UUID, err)
	}
}
