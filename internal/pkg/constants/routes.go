package constants

// Static route constants
const (
	PaymentWebhookRoute = "/webhooks/payments"
	InternalAPIPrefix   = "/api/internal"
	HealthRoute         = "/healthz"
)
