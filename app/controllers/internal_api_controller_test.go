package controllers

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DiegoMartinsDev/MemberHub/app/models"
	"github.com/DiegoMartinsDev/MemberHub/internal/pkg/entitlements"
	"github.com/DiegoMartinsDev/MemberHub/internal/pkg/webhook"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func newInternalTestApp(repo *stubRepo) *fiber.App {
	wc := &WebhookController{
		newService: func() *entitlements.Service {
			return entitlements.NewService(repo)
		},
		loadConfig: func() webhook.Config { return webhook.Config{} },
	}
	internalAPI := NewInternalAPIController(wc)

	app := fiber.New()
	app.Post("/users", internalAPI.HandleUserProvision)
	return app
}

func postJSON(app *fiber.App, path, body string) (int, map[string]any) {
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		return 0, nil
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	var decoded map[string]any
	_ = json.Unmarshal(raw, &decoded)
	return resp.StatusCode, decoded
}

func TestHandleUserProvisionClaimsPending(t *testing.T) {
	repo := newTestRepo()
	repo.pending = []models.PendingSubscription{
		{ID: 50, Email: "late@example.com", PlanID: 1, PaymentID: "txn-p1", Status: models.PendingSubscriptionStatusPending},
	}
	app := newInternalTestApp(repo)

	status, body := postJSON(app, "/users", `{"name":"Late Buyer","email":"Late@Example.com","password":"secret123"}`)
	assert.Equal(t, fiber.StatusCreated, status)
	assert.EqualValues(t, 1, body["claimed"])
	assert.NotEmpty(t, body["activation_token"])

	assert.Len(t, repo.users, 1)
	user := repo.users[0]
	assert.Equal(t, "late@example.com", user.Email)
	assert.True(t, models.CheckPasswordHash("secret123", user.Password))
	assert.Len(t, repo.subs, 1)
	assert.Equal(t, models.PendingSubscriptionStatusClaimed, repo.pending[0].Status)
}

func TestHandleUserProvisionDuplicateEmail(t *testing.T) {
	repo := newTestRepo()
	repo.users = []models.User{{ID: 3, Email: "taken@example.com"}}
	app := newInternalTestApp(repo)

	status, body := postJSON(app, "/users", `{"name":"Someone","email":"taken@example.com","password":"secret123"}`)
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "email_taken", body["error"])
	assert.Len(t, repo.users, 1)
}

func TestHandleUserProvisionInvalidInput(t *testing.T) {
	repo := newTestRepo()
	app := newInternalTestApp(repo)

	status, body := postJSON(app, "/users", `{"name":"Al","email":"a@example.com","password":"secret123"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "invalid_user", body["error"])

	status, body = postJSON(app, "/users", `{"name":"Ana Silva","email":"a@example.com","password":"123"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "invalid_user", body["error"])

	status, body = postJSON(app, "/users", `{not json`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "invalid_json", body["error"])

	assert.Empty(t, repo.users)
}
