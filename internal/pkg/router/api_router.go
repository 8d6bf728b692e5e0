package router

import (
	"github.com/DiegoMartinsDev/MemberHub/app/controllers"
	"github.com/DiegoMartinsDev/MemberHub/internal/pkg/constants"
	"github.com/DiegoMartinsDev/MemberHub/internal/pkg/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	webhooks := controllers.NewWebhookController()
	internalAPI := controllers.NewInternalAPIController(webhooks)

	api := app.Group(constants.InternalAPIPrefix, limiter.New(), middleware.InternalTokenMiddleware())
	api.Post("/webhooks/:uuid/replay", internalAPI.HandleWebhookReplay)
	api.Get("/webhooks/stats", internalAPI.HandleWebhookStats)
	api.Delete("/webhooks/stats", internalAPI.HandleWebhookStatsReset)
	api.Post("/users", internalAPI.HandleUserProvision)
	api.Post("/entitlements/claim", internalAPI.HandleClaimEntitlements)
	api.Post("/plans/cache/invalidate", internalAPI.HandlePlanCacheInvalidate)
	api.Post("/config/invalidate", internalAPI.HandleConfigInvalidate)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
