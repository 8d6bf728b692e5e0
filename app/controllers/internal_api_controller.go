package controllers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/DiegoMartinsDev/MemberHub/internal/pkg/database"
	"github.com/DiegoMartinsDev/MemberHub/internal/pkg/entitlements"
	"github.com/DiegoMartinsDev/MemberHub/internal/pkg/metrics/counter"
	"github.com/DiegoMartinsDev/MemberHub/internal/pkg/webhook"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
)

// InternalAPIController exposes operator tooling: replaying stored webhook
// deliveries, reading the Redis counters and claiming pending entitlements
// for a freshly registered account. All routes sit behind the internal token
// middleware.
type InternalAPIController struct {
	webhooks *WebhookController
}

func NewInternalAPIController(webhooks *WebhookController) *InternalAPIController {
	return &InternalAPIController{webhooks: webhooks}
}

// HandleWebhookReplay re-runs a stored raw payload through the ingestion
// pipeline. Duplicate suppression makes this safe to call repeatedly.
func (i *InternalAPIController) HandleWebhookReplay(c *fiber.Ctx) error {
	uuid := strings.TrimSpace(c.Params("uuid"))
	if uuid == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing_uuid"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	outcome, err := i.webhooks.replayDelivery(ctx, uuid)
	if err != nil {
		if errors.Is(err, entitlements.ErrEventNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "event_not_found"})
		}
		if outcome == nil {
			fiberlog.Warnf("replay of %s failed before processing: %v", uuid, err)
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "replay_not_normalizable"})
		}
		fiberlog.Errorf("replay of %s failed: %v", uuid, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "replay_failed"})
	}
	return c.Status(fiber.StatusOK).JSON(outcome)
}

// HandleWebhookStats returns the per-platform outcome counters.
func (i *InternalAPIController) HandleWebhookStats(c *fiber.Ctx) error {
	snapshot, err := counter.Snapshot()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "stats_unavailable"})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"counters": snapshot})
}

// HandleWebhookStatsReset drops all webhook counters, e.g. after an incident
// review window closes.
func (i *InternalAPIController) HandleWebhookStatsReset(c *fiber.Ctx) error {
	if err := counter.Reset(); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "stats_reset_failed"})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type provisionRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleUserProvision creates an account for a buyer and claims any pending
// entitlements recorded for the email in the same request. Called by the
// registration frontend, which lives outside this service.
func (i *InternalAPIController) HandleUserProvision(c *fiber.Ctx) error {
	var req provisionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_json"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	svc := i.webhooks.newService()
	user, claimed, err := svc.RegisterUser(ctx, req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, entitlements.ErrEmailTaken) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "email_taken"})
		}
		var verr validator.ValidationErrors
		if errors.As(err, &verr) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_user", "detail": verr.Error()})
		}
		fiberlog.Errorf("user provisioning failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "provisioning_failed"})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"user_id":          user.ID,
		"activation_token": user.ActivationToken,
		"claimed":          claimed,
	})
}

type claimRequest struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
}

// HandleClaimEntitlements converts pending entitlements recorded for an email
// into active subscriptions; called by the registration flow once the account
// exists.
func (i *InternalAPIController) HandleClaimEntitlements(c *fiber.Ctx) error {
	var req claimRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_json"})
	}
	if req.UserID == 0 || strings.TrimSpace(req.Email) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "user_id_and_email_required"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	svc := entitlements.NewServiceFromDB(database.GetDB())
	claimed, err := svc.ClaimPendingSubscriptions(ctx, req.UserID, req.Email)
	if err != nil {
		fiberlog.Errorf("claim for user %d failed: %v", req.UserID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "claim_failed", "claimed": claimed})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"claimed": claimed})
}

// HandlePlanCacheInvalidate drops the cached plan mapping for one external
// product id after an operator edits the mapping.
func (i *InternalAPIController) HandlePlanCacheInvalidate(c *fiber.Ctx) error {
	platform := strings.TrimSpace(c.Query("platform"))
	externalID := strings.TrimSpace(c.Query("external_id"))
	if platform == "" || externalID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "platform_and_external_id_required"})
	}
	entitlements.InvalidatePlanCache(webhook.Platform(platform), externalID)
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleConfigInvalidate drops the cached webhook secrets so rotated values
// take effect without a restart.
func (i *InternalAPIController) HandleConfigInvalidate(c *fiber.Ctx) error {
	webhook.InvalidateConfig()
	return c.SendStatus(fiber.StatusNoContent)
}
