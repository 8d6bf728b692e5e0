package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func TestVerifySignature(t *testing.T) {
	payload := []byte(`{"foo":"bar"}`)
	secret := "top-secret"

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	validSig := hex.EncodeToString(mac.Sum(nil))

	if !VerifySignature(payload, validSig, secret) {
		t.Fatalf("expected signature to validate")
	}
	if !VerifySignature(payload, "  "+validSig+" ", secret) {
		t.Fatalf("expected whitespace-padded signature to validate")
	}
	if VerifySignature(payload, "deadbeef", secret) {
		t.Fatalf("expected invalid signature to fail")
	}
	if VerifySignature(payload, validSig, "other-secret") {
		t.Fatalf("expected wrong secret to fail")
	}
	if VerifySignature(payload, "not-hex!!", secret) {
		t.Fatalf("expected non-hex signature to fail")
	}
	if VerifySignature(payload, "", secret) {
		t.Fatalf("expected empty signature to fail")
	}
	if VerifySignature(payload, validSig, "") {
		t.Fatalf("expected empty secret to fail")
	}
}
