package controllers

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/DiegoMartinsDev/MemberHub/internal/pkg/database"
	"github.com/DiegoMartinsDev/MemberHub/internal/pkg/entitlements"
	"github.com/DiegoMartinsDev/MemberHub/internal/pkg/metrics/counter"
	"github.com/DiegoMartinsDev/MemberHub/internal/pkg/webhook"
	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
)

// WebhookController receives payment notifications from all supported
// gateways on a single endpoint. Configuration is loaded per request and
// injected here instead of living in mutable package state.
type WebhookController struct {
	newService func() *entitlements.Service
	loadConfig func() webhook.Config
}

func NewWebhookController() *WebhookController {
	return &WebhookController{
		newService: func() *entitlements.Service {
			return entitlements.NewServiceFromDB(database.GetDB())
		},
		loadConfig: webhook.LoadConfig,
	}
}

// HandlePaymentWebhook processes one gateway delivery end to end: structural
// platform detection, optional HMAC verification, normalization, then the
// entitlement reconciliation pipeline. Every branch terminates in an HTTP
// response; retries are the sending gateway's job.
func (w *WebhookController) HandlePaymentWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)
	cfg := w.loadConfig()

	var decoded map[string]any
	if err := json.Unmarshal(rawBody, &decoded); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_json"})
	}

	platform := webhook.DetectPlatform(decoded)
	if platform == webhook.PlatformUnknown {
		fiberlog.Warnf("webhook from unknown platform rejected (%d bytes)", len(rawBody))
		_ = counter.AddWebhookOutcome(string(platform), counter.OutcomeRejected)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown_platform"})
	}
	_ = counter.AddWebhookOutcome(string(platform), counter.OutcomeReceived)

	signature := firstHeaderValue(c, "x-signature", "x-webhook-signature")
	if secret := cfg.SecretFor(platform); secret == "" {
		fiberlog.Warnf("no webhook secret configured for %s: signature check BYPASSED", platform)
	} else if !webhook.VerifySignature(rawBody, signature, secret) {
		fiberlog.Warnf("invalid webhook signature from %s", platform)
		_ = counter.AddWebhookOutcome(string(platform), counter.OutcomeRejected)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid_signature"})
	}

	ev, normErr := webhook.Normalize(rawBody)
	if normErr != nil && ev == nil {
		// Nothing usable was extracted; reject without an audit row.
		fiberlog.Warnf("webhook normalization failed for %s: %v", platform, normErr)
		_ = counter.AddWebhookOutcome(string(platform), counter.OutcomeRejected)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	svc := w.newService()
	outcome, procErr := svc.ProcessEvent(ctx, ev)
	return w.respond(c, platform, outcome, procErr)
}

// HandlePaymentWebhookPreflight answers cross-origin preflight for gateways
// that check the endpoint before delivering.
func (w *WebhookController) HandlePaymentWebhookPreflight(c *fiber.Ctx) error {
	cfg := w.loadConfig()
	c.Set("Access-Control-Allow-Origin", cfg.AllowedOrigin)
	c.Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	c.Set("Access-Control-Allow-Headers", "Content-Type, x-signature, x-webhook-signature")
	return c.SendStatus(fiber.StatusNoContent)
}

func (w *WebhookController) respond(c *fiber.Ctx, platform webhook.Platform, outcome *entitlements.Outcome, procErr error) error {
	switch outcome.Result {
	case entitlements.ResultStorageFailed:
		_ = counter.AddWebhookOutcome(string(platform), counter.OutcomeFailed)
		if procErr != nil {
			fiberlog.Errorf("webhook processing failed for %s: %v", platform, procErr)
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "processing_failed"})
	case entitlements.ResultValidationFailed:
		_ = counter.AddWebhookOutcome(string(platform), counter.OutcomeFailed)
		return c.Status(fiber.StatusBadRequest).JSON(outcome)
	case entitlements.ResultPlanNotMapped:
		_ = counter.AddWebhookOutcome(string(platform), counter.OutcomeFailed)
		return c.Status(fiber.StatusNotFound).JSON(outcome)
	case entitlements.ResultDuplicate:
		_ = counter.AddWebhookOutcome(string(platform), counter.OutcomeDuplicate)
		return c.Status(fiber.StatusOK).JSON(outcome)
	case entitlements.ResultPending:
		_ = counter.AddWebhookOutcome(string(platform), counter.OutcomePending)
		return c.Status(fiber.StatusOK).JSON(outcome)
	default:
		_ = counter.AddWebhookOutcome(string(platform), counter.OutcomeSuccess)
		return c.Status(fiber.StatusOK).JSON(outcome)
	}
}

// replayDelivery pushes a stored raw payload back through the same pipeline.
// Safe to repeat: the storage-level uniqueness constraints make redelivery a
// no-op for already-applied purchases.
func (w *WebhookController) replayDelivery(ctx context.Context, uuid string) (*entitlements.Outcome, error) {
	svc := w.newService()
	stored, err := svc.GetWebhookEventByUUID(ctx, uuid)
	if err != nil {
		return nil, err
	}

	ev, normErr := webhook.Normalize([]byte(stored.RawPayload))
	if normErr != nil && ev == nil {
		return nil, normErr
	}
	return svc.ProcessEvent(ctx, ev)
}

func firstHeaderValue(c *fiber.Ctx, keys ...string) string {
	for _, k := range keys {
		v := strings.TrimSpace(c.Get(k))
		if v != "" {
			return v
		}
	}
	return ""
}
