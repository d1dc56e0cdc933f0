package models

import (
	"strings"
	"time"
)

// Contact preference values accepted from the form.
const (
	ContactPhone    = "phone"
	ContactWhatsApp = "whatsapp"
	ContactTelegram = "telegram"
)

// LeadSource tags every lead accepted through the public form.
const LeadSource = "website"

// Lead represents a single customer inquiry. Field names are the external
// JSON contract shared with the frontend and the data files on disk.
type Lead struct {
	ID               string `json:"id"`
	CreatedAt        string `json:"createdAt"` // UTC ISO instant
	Name             string `json:"name"`
	Phone            string `json:"phone"`
	Email            string `json:"email,omitempty"`
	Service          string `json:"service,omitempty"`
	Message          string `json:"message,omitempty"`
	PreferredContact string `json:"preferredContact,omitempty"`
	TelegramUsername string `json:"telegramUsername,omitempty"`
	Source           string `json:"source,omitempty"`
	IP               string `json:"ip,omitempty"`
	UserAgent        string `json:"userAgent,omitempty"`
}

// CreatedAtTime parses the stored ISO instant. Returns the zero time when
// the stored value is unparseable.
func (l Lead) CreatedAtTime() time.Time {
	t, err := time.Parse(time.RFC3339Nano, l.CreatedAt)
	if err != nil {
		return time.Time{}
	}
	return t
}

// LeadInput is the inbound submission payload. Consent and the honeypot
// field never make it into the stored Lead.
type LeadInput struct {
	Name             string `json:"name" validate:"required,min=2,max=80"`
	Phone            string `json:"phone" validate:"required,min=6,max=30"`
	Email            string `json:"email" validate:"omitempty,email"`
	Service          string `json:"service" validate:"omitempty,max=80"`
	Message          string `json:"message" validate:"omitempty,max=1000"`
	PreferredContact string `json:"preferredContact" validate:"omitempty,oneof=phone whatsapp telegram"`
	TelegramUsername string `json:"telegramUsername" validate:"omitempty,max=64"`
	Consent          bool   `json:"consent"`
	// Honeypot: legitimate users never fill this.
	Company          string `json:"company"`
}

// Normalize trims every free-text field so that validation and storage see
// the same values, and collapses whitespace-only optionals to absent.
func (in *LeadInput) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Email = strings.TrimSpace(in.Email)
	in.Service = strings.TrimSpace(in.Service)
	in.Message = strings.TrimSpace(in.Message)
	in.PreferredContact = strings.TrimSpace(in.PreferredContact)
	in.TelegramUsername = strings.TrimSpace(in.TelegramUsername)
}

// IsSpam reports whether the honeypot field was filled in.
func (in *LeadInput) IsSpam() bool {
	return strings.TrimSpace(in.Company) != ""
}
