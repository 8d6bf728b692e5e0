package router

import (
	"github.com/DiegoMartinsDev/MemberHub/app/controllers"
	"github.com/DiegoMartinsDev/MemberHub/internal/pkg/constants"
	"github.com/gofiber/fiber/v2"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	webhooks := controllers.NewWebhookController()

	// Payment gateway webhooks (no CSRF, signature-verified in controller).
	// One endpoint for all gateways; the platform is detected structurally.
	app.Post(constants.PaymentWebhookRoute, webhooks.HandlePaymentWebhook)
	app.Options(constants.PaymentWebhookRoute, webhooks.HandlePaymentWebhookPreflight)

	app.Get(constants.HealthRoute, func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
