package webhook

import (
	"github.com/DiegoMartinsDev/MemberHub/app/models"
)

// Platform identifies the payment gateway that produced a webhook payload.
type Platform string

const (
	PlatformHotmart Platform = models.PaymentPlatformHotmart
	PlatformKiwify  Platform = models.PaymentPlatformKiwify
	PlatformCakto   Platform = models.PaymentPlatformCakto
	PlatformUnknown Platform = "unknown"
)

// DetectPlatform classifies a decoded payload by structural inspection. The
// predicates run in a fixed order, most structurally specific first, so an
// ambiguous payload resolves deterministically. Detection is side-effect free;
// no match yields PlatformUnknown.
func DetectPlatform(raw map[string]any) Platform {
	switch {
	case looksLikeHotmart(raw):
		return PlatformHotmart
	case looksLikeCakto(raw):
		return PlatformCakto
	case looksLikeKiwify(raw):
		return PlatformKiwify
	default:
		return PlatformUnknown
	}
}

// Hotmart wraps everything in data.purchase; no other supported gateway nests
// a purchase sub-object.
func looksLikeHotmart(raw map[string]any) bool {
	data, ok := raw["data"].(map[string]any)
	if !ok {
		return false
	}
	_, hasPurchase := data["purchase"].(map[string]any)
	return hasPurchase
}

// Cakto carries a customer sub-object inside data plus either a products
// line-item array (items with an "id" sub-field) or a flat amount.
func looksLikeCakto(raw map[string]any) bool {
	data, ok := raw["data"].(map[string]any)
	if !ok {
		return false
	}
	if _, ok := data["customer"].(map[string]any); !ok {
		return false
	}
	if items, ok := data["products"].([]any); ok && len(items) > 0 {
		if item, ok := items[0].(map[string]any); ok {
			if _, ok := item["id"]; ok {
				return true
			}
		}
	}
	_, hasAmount := data["amount"]
	return hasAmount
}

// Kiwify payloads are flat: order_id and order_status at the top level next
// to Customer/Product objects.
func looksLikeKiwify(raw map[string]any) bool {
	_, hasOrderID := raw["order_id"]
	_, hasOrderStatus := raw["order_status"]
	return hasOrderID && hasOrderStatus
}
