package webhook

import (
	"errors"
	"testing"
)

const hotmartSample = `{
	"event": "PURCHASE_APPROVED",
	"data": {
		"product": {"id": 4321, "name": "Mentoria"},
		"buyer": {"email": "Ana@Example.COM", "name": "Ana Silva"},
		"purchase": {
			"transaction": "HP-9001",
			"status": "APPROVED",
			"payment": {"type": "CREDIT_CARD"},
			"price": {"value": 297.0}
		}
	}
}`

const kiwifySample = `{
	"order_id": "KW-555",
	"order_status": "paid",
	"webhook_event_type": "order_approved",
	"payment_method": "pix",
	"Customer": {"email": "joao@example.com", "full_name": "Joao Souza"},
	"Product": {"product_id": "prod-abc", "product_name": "Curso"},
	"Commissions": {"charge_amount": 4999}
}`

const caktoSample = `{
	"event": "purchase_approved",
	"data": {
		"refId": "CK-777",
		"status": "pix.paid",
		"amount": 149.9,
		"paymentMethod": "pix",
		"customer": {"email": "maria@example.com", "name": "Maria Lima"},
		"products": [{"id": "plan-a"}, {"id": "plan-b"}]
	}
}`

func TestNormalizeHotmart(t *testing.T) {
	ev, err := Normalize([]byte(hotmartSample))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Platform != PlatformHotmart {
		t.Fatalf("platform = %q, want hotmart", ev.Platform)
	}
	if ev.Status != StatusApproved {
		t.Fatalf("status = %q, want approved", ev.Status)
	}
	if ev.CustomerEmail != "ana@example.com" {
		t.Fatalf("email not lower-cased: %q", ev.CustomerEmail)
	}
	if ev.Amount != 297.0 {
		t.Fatalf("amount = %v, want 297.0 (base units pass through)", ev.Amount)
	}
	if ev.TransactionID != "HP-9001" {
		t.Fatalf("transaction = %q", ev.TransactionID)
	}
	if len(ev.ProductIDs) != 1 || ev.ProductIDs[0] != "4321" {
		t.Fatalf("product ids = %v, want [4321]", ev.ProductIDs)
	}
	if ev.PaymentMethod != "credit_card" {
		t.Fatalf("payment method = %q", ev.PaymentMethod)
	}
}

func TestNormalizeKiwifyConvertsMinorUnits(t *testing.T) {
	ev, err := Normalize([]byte(kiwifySample))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Platform != PlatformKiwify {
		t.Fatalf("platform = %q, want kiwify", ev.Platform)
	}
	// 4999 cents must become 49.99 base units.
	if ev.Amount != 49.99 {
		t.Fatalf("amount = %v, want 49.99", ev.Amount)
	}
	if ev.Status != StatusApproved {
		t.Fatalf("status = %q, want approved", ev.Status)
	}
	if ev.TransactionID != "KW-555" {
		t.Fatalf("transaction = %q", ev.TransactionID)
	}
	if len(ev.ProductIDs) != 1 || ev.ProductIDs[0] != "prod-abc" {
		t.Fatalf("product ids = %v", ev.ProductIDs)
	}
}

func TestNormalizeCaktoMultiItem(t *testing.T) {
	ev, err := Normalize([]byte(caktoSample))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Platform != PlatformCakto {
		t.Fatalf("platform = %q, want cakto", ev.Platform)
	}
	if ev.Status != StatusApproved {
		t.Fatalf("pix.paid should classify as approved, got %q", ev.Status)
	}
	if ev.Amount != 149.9 {
		t.Fatalf("amount = %v, want 149.9 (base units pass through)", ev.Amount)
	}
	if len(ev.ProductIDs) != 2 || ev.ProductIDs[0] != "plan-a" || ev.ProductIDs[1] != "plan-b" {
		t.Fatalf("product ids = %v, want [plan-a plan-b]", ev.ProductIDs)
	}
}

func TestNormalizeUnknownPlatform(t *testing.T) {
	_, err := Normalize([]byte(`{"foo":"bar"}`))
	if !errors.Is(err, ErrUnknownPlatform) {
		t.Fatalf("expected ErrUnknownPlatform, got %v", err)
	}
}

func TestNormalizeMalformedJSON(t *testing.T) {
	_, err := Normalize([]byte(`{not json`))
	if !errors.Is(err, ErrMalformedPayload) {
		t.Fatalf("expected ErrMalformedPayload, got %v", err)
	}
}

func TestNormalizeApprovedWithoutEmailFails(t *testing.T) {
	raw := `{"order_id":"KW-1","order_status":"paid","payment_method":"pix",
		"Product":{"product_id":"p1"},"Commissions":{"charge_amount":1000}}`
	ev, err := Normalize([]byte(raw))
	if !errors.Is(err, ErrMissingEmail) {
		t.Fatalf("expected ErrMissingEmail, got %v", err)
	}
	if ev == nil {
		t.Fatalf("expected partially extracted event for auditing")
	}
}

func TestNormalizeNonApprovedWithoutEmailGetsPlaceholder(t *testing.T) {
	raw := `{"order_id":"KW-2","order_status":"waiting_payment","payment_method":"boleto",
		"Product":{"product_id":"p1"},"Commissions":{"charge_amount":1000}}`
	ev, err := Normalize([]byte(raw))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Status != StatusPending {
		t.Fatalf("status = %q, want pending", ev.Status)
	}
	if ev.CustomerEmail != UnknownCustomerEmail {
		t.Fatalf("email = %q, want placeholder", ev.CustomerEmail)
	}
}

func TestStatusMappingsNeverDefaultToApproved(t *testing.T) {
	if got := hotmartStatus("", "REFUNDED"); got == StatusApproved {
		t.Fatalf("hotmart REFUNDED classified approved")
	}
	if got := hotmartStatus("PURCHASE_REFUNDED", "SOMETHING_NEW"); got == StatusApproved {
		t.Fatalf("unknown hotmart status classified approved")
	}
	if got := kiwifyStatus("chargedback"); got == StatusApproved {
		t.Fatalf("kiwify chargedback classified approved")
	}
	if got := caktoStatus("refund_requested"); got == StatusApproved {
		t.Fatalf("cakto refund classified approved")
	}
	if got := caktoStatus(""); got == StatusApproved {
		t.Fatalf("empty cakto status classified approved")
	}
}

func TestStatusMappingTables(t *testing.T) {
	tests := []struct {
		name string
		got  Status
		want Status
	}{
		{"hotmart approved event", hotmartStatus("PURCHASE_APPROVED", ""), StatusApproved},
		{"hotmart completed", hotmartStatus("", "COMPLETED"), StatusApproved},
		{"hotmart billet printed", hotmartStatus("", "PURCHASE_BILLET_PRINTED"), StatusPending},
		{"kiwify paid", kiwifyStatus("paid"), StatusApproved},
		{"kiwify waiting", kiwifyStatus("waiting_payment"), StatusPending},
		{"cakto card paid", caktoStatus("card.paid"), StatusApproved},
		{"cakto pix generated", caktoStatus("pix.generated"), StatusPending},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Fatalf("%s: got %q, want %q", tt.name, tt.got, tt.want)
		}
	}
}

func TestFlexStringAcceptsNumbersAndStrings(t *testing.T) {
	var f flexString
	if err := f.UnmarshalJSON([]byte(`1234567`)); err != nil || f.String() != "1234567" {
		t.Fatalf("numeric id: got %q err=%v", f, err)
	}
	if err := f.UnmarshalJSON([]byte(`" abc-1 "`)); err != nil || f.String() != "abc-1" {
		t.Fatalf("string id: got %q err=%v", f, err)
	}
	if err := f.UnmarshalJSON([]byte(`null`)); err != nil || f.String() != "" {
		t.Fatalf("null id: got %q err=%v", f, err)
	}
}
