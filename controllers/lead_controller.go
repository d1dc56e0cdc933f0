package controller

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"turboservis/models"
	"turboservis/notify"
	"turboservis/storage"
	"turboservis/utils"
)

// isoFormat matches the instants the previous backend wrote, so old and
// new records in the data files stay uniform.
const isoFormat = "2006-01-02T15:04:05.000Z"

type LeadController struct {
	Store    *storage.Store
	Notifier *notify.Notifier
	Logger   *logrus.Logger
}

func NewLeadController(store *storage.Store, notifier *notify.Notifier, logger *logrus.Logger) *LeadController {
	return &LeadController{
		Store:    store,
		Notifier: notifier,
		Logger:   logger,
	}
}

// CreateLead accepts a public form submission: honeypot check, field
// validation, consent check, durable append, then a detached notification.
func (lc *LeadController) CreateLead(c *fiber.Ctx) error {
	var input models.LeadInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "VALIDATION_ERROR", fiber.Map{
			"body": "invalid JSON body",
		})
	}
	input.Normalize()

	// Spam gets a success-shaped answer with zero side effects, so
	// automated submitters cannot tell they were caught.
	if input.IsSpam() {
		return c.JSON(fiber.Map{"ok": true})
	}

	if details := utils.ValidateStruct(input); details != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "VALIDATION_ERROR", details)
	}
	if !input.Consent {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "CONSENT_REQUIRED", nil)
	}

	lead := models.Lead{
		ID:               uuid.NewString(),
		CreatedAt:        time.Now().UTC().Format(isoFormat),
		Name:             input.Name,
		Phone:            input.Phone,
		Email:            input.Email,
		Service:          input.Service,
		Message:          input.Message,
		PreferredContact: input.PreferredContact,
		Source:           models.LeadSource,
		IP:               utils.ClientIP(c),
		UserAgent:        c.Get(fiber.HeaderUserAgent),
	}
	if input.PreferredContact == models.ContactTelegram {
		lead.TelegramUsername = input.TelegramUsername
	}

	seq, err := lc.Store.Append(lead)
	if err != nil {
		// The lead was not durably recorded; the caller must not see 201.
		lc.Logger.WithError(err).Error("failed to persist lead")
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "STORAGE_ERROR", nil)
	}

	// Fire-and-forget notification (doesn't block the response)
	go lc.Notifier.NotifyLead(lead, seq)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"ok":        true,
		"id":        lead.ID,
		"createdAt": lead.CreatedAt,
	})
}

// ListLeads is the operator view: up to limit most recent leads.
func (lc *LeadController) ListLeads(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	return c.JSON(fiber.Map{
		"ok":    true,
		"leads": lc.Store.List(limit),
	})
}
