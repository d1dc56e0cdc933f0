package controller

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"turboservis/config"
	"turboservis/middleware"
	"turboservis/models"
	"turboservis/notify"
	"turboservis/storage"
)

const testAdminToken = "test-admin-token"

func newTestApp(t *testing.T) (*fiber.App, *storage.Store) {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	store := storage.NewStore(t.TempDir(), time.UTC, logger)
	formatter := notify.NewFormatter(time.UTC, false, false)
	notifier := notify.NewNotifier(config.TelegramConfig{}, formatter, logger)

	lc := NewLeadController(store, notifier, logger)

	app := fiber.New()
	app.Post("/api/leads", lc.CreateLead)
	app.Get("/api/leads", middleware.AdminOnly(testAdminToken), lc.ListLeads)
	return app, store
}

func postLead(t *testing.T, app *fiber.App, payload map[string]interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/leads", bytes.NewReader(raw))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp, body
}

func validPayload() map[string]interface{} {
	return map[string]interface{}{
		"name":    "Jan Novak",
		"phone":   "+420777123456",
		"consent": true,
	}
}

func TestCreateLeadAccepted(t *testing.T) {
	t.Parallel()
	app, store := newTestApp(t)

	resp, body := postLead(t, app, validPayload())
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	if body["ok"] != true {
		t.Fatalf("expected ok response, got %v", body)
	}
	id, _ := body["id"].(string)
	if id == "" {
		t.Fatalf("expected a non-empty id, got %v", body)
	}
	createdAt, _ := body["createdAt"].(string)
	if _, err := time.Parse(time.RFC3339Nano, createdAt); err != nil {
		t.Fatalf("createdAt %q is not a parseable instant: %v", createdAt, err)
	}

	leads := store.List(1)
	if len(leads) != 1 || leads[0].ID != id {
		t.Fatalf("expected the new lead as the first stored element, got %v", leads)
	}
	if leads[0].Name != "Jan Novak" || leads[0].Phone != "+420777123456" {
		t.Fatalf("persisted fields do not match submission: %+v", leads[0])
	}
	if leads[0].Source != models.LeadSource {
		t.Fatalf("source = %q, want %q", leads[0].Source, models.LeadSource)
	}
}

func TestCreateLeadGeneratesUniqueIDs(t *testing.T) {
	t.Parallel()
	app, store := newTestApp(t)

	for i := 0; i < 3; i++ {
		if resp, _ := postLead(t, app, validPayload()); resp.StatusCode != fiber.StatusCreated {
			t.Fatalf("submission %d: status %d", i, resp.StatusCode)
		}
	}

	seen := map[string]bool{}
	for _, lead := range store.List(10) {
		if seen[lead.ID] {
			t.Fatalf("duplicate id %s", lead.ID)
		}
		seen[lead.ID] = true
	}
	if len(seen) != 3 {
		t.Fatalf("expected 3 stored leads, got %d", len(seen))
	}
}

func TestHoneypotAbsorbedSilently(t *testing.T) {
	t.Parallel()
	app, store := newTestApp(t)

	payload := validPayload()
	payload["company"] = "Totally Real LLC"

	resp, body := postLead(t, app, payload)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if body["ok"] != true {
		t.Fatalf("spam response must look like success, got %v", body)
	}
	if got := store.List(10); len(got) != 0 {
		t.Fatalf("spam must not be persisted, got %d leads", len(got))
	}
}

func TestHoneypotWinsOverInvalidFields(t *testing.T) {
	t.Parallel()
	app, store := newTestApp(t)

	payload := map[string]interface{}{
		"name":    "J",
		"phone":   "1",
		"company": "spam",
	}
	resp, body := postLead(t, app, payload)
	if resp.StatusCode != fiber.StatusOK || body["ok"] != true {
		t.Fatalf("honeypot submissions always get a success shape, got %d %v", resp.StatusCode, body)
	}
	if got := store.List(10); len(got) != 0 {
		t.Fatalf("expected nothing stored, got %d leads", len(got))
	}
}

func TestConsentRequired(t *testing.T) {
	t.Parallel()
	app, store := newTestApp(t)

	for _, consent := range []interface{}{false, nil} {
		payload := validPayload()
		if consent == nil {
			delete(payload, "consent")
		} else {
			payload["consent"] = consent
		}

		resp, body := postLead(t, app, payload)
		if resp.StatusCode != fiber.StatusBadRequest {
			t.Fatalf("consent=%v: status = %d, want 400", consent, resp.StatusCode)
		}
		if body["error"] != "CONSENT_REQUIRED" {
			t.Fatalf("consent=%v: error = %v, want CONSENT_REQUIRED", consent, body["error"])
		}
	}
	if got := store.List(10); len(got) != 0 {
		t.Fatalf("rejected submissions must not be stored, got %d leads", len(got))
	}
}

func TestValidationFailureDetails(t *testing.T) {
	t.Parallel()
	app, store := newTestApp(t)

	payload := validPayload()
	payload["name"] = "J"
	payload["phone"] = "123"

	resp, body := postLead(t, app, payload)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if body["error"] != "VALIDATION_ERROR" {
		t.Fatalf("error = %v, want VALIDATION_ERROR", body["error"])
	}
	details, ok := body["details"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected details map, got %v", body["details"])
	}
	if details["name"] == nil || details["phone"] == nil {
		t.Fatalf("expected details keyed by offending fields, got %v", details)
	}
	if got := store.List(10); len(got) != 0 {
		t.Fatalf("invalid submissions must not be stored, got %d leads", len(got))
	}
}

func TestAdminListingRequiresToken(t *testing.T) {
	t.Parallel()
	app, _ := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/leads", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("missing token: status = %d, want 401", resp.StatusCode)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/leads", nil)
	req.Header.Set(middleware.AdminHeader, "wrong")
	resp, err = app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("wrong token: status = %d, want 401", resp.StatusCode)
	}
}

func TestSubmitThenAdminList(t *testing.T) {
	t.Parallel()
	app, _ := newTestApp(t)

	resp, body := postLead(t, app, validPayload())
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	id := body["id"].(string)

	req := httptest.NewRequest(http.MethodGet, "/api/leads?limit=1", nil)
	req.Header.Set(middleware.AdminHeader, testAdminToken)
	listResp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if listResp.StatusCode != fiber.StatusOK {
		t.Fatalf("list status = %d, want 200", listResp.StatusCode)
	}

	var listBody struct {
		OK    bool          `json:"ok"`
		Leads []models.Lead `json:"leads"`
	}
	if err := json.NewDecoder(listResp.Body).Decode(&listBody); err != nil {
		t.Fatal(err)
	}
	if !listBody.OK || len(listBody.Leads) != 1 {
		t.Fatalf("expected exactly one lead, got %+v", listBody)
	}
	if listBody.Leads[0].ID != id {
		t.Fatalf("first listed lead = %s, want %s", listBody.Leads[0].ID, id)
	}
	if listBody.Leads[0].Name != "Jan Novak" {
		t.Fatalf("unexpected lead: %+v", listBody.Leads[0])
	}
}

func TestInvalidJSONBody(t *testing.T) {
	t.Parallel()
	app, _ := newTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/api/leads", bytes.NewReader([]byte("{broken")))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}
