package notify

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"turboservis/models"
	"turboservis/storage"
)

var (
	telegramHandleRe = regexp.MustCompile(`^[A-Za-z0-9_]{5,64}$`)
	nonDigitRe       = regexp.MustCompile(`\D`)
)

// contactLabels maps the preference enum to display text.
var contactLabels = map[string]string{
	models.ContactPhone:    "Телефон",
	models.ContactWhatsApp: "WhatsApp",
	models.ContactTelegram: "Telegram",
}

// ContactCard is a structured phone+name payload sent after the lead
// message when the customer asked to be called.
type ContactCard struct {
	Phone string
	Name  string
}

// LeadMessage is a fully rendered notification: display text plus the
// optional interactive pieces the dispatcher delivers with it.
type LeadMessage struct {
	Text    string
	Markup  *tgbotapi.InlineKeyboardMarkup
	Contact *ContactCard
}

// Formatter renders leads and daily aggregates into Telegram HTML.
// It holds the process-wide display configuration and the zone used for
// local dates and times.
type Formatter struct {
	loc       *time.Location
	includeID bool
	includeIP bool
}

func NewFormatter(loc *time.Location, includeID, includeIP bool) *Formatter {
	return &Formatter{
		loc:       loc,
		includeID: includeID,
		includeIP: includeIP,
	}
}

// LeadMessage renders a single lead. seq is the lead's daily sequence
// number assigned by the store on append.
func (f *Formatter) LeadMessage(lead models.Lead, seq int) LeadMessage {
	created := lead.CreatedAtTime().In(f.loc)

	var lines []string
	lines = append(lines, fmt.Sprintf("🆕 Заявка #%d — %s", seq, created.Format("02.01.2006")))
	lines = append(lines, "Время: "+created.Format("15:04"))
	if f.includeID {
		lines = append(lines, "ID: "+esc(lead.ID))
	}
	lines = append(lines, "")
	lines = append(lines, "Имя: "+esc(lead.Name))
	lines = append(lines, "Телефон: "+esc(lead.Phone))
	if lead.Email != "" {
		lines = append(lines, "Email: "+esc(lead.Email))
	}
	if label, ok := contactLabels[lead.PreferredContact]; ok {
		lines = append(lines, "Как связаться: "+label)
	}
	if lead.Service != "" {
		lines = append(lines, "Услуга: "+esc(lead.Service))
	}
	if lead.Message != "" {
		lines = append(lines, "", "Комментарий:", esc(lead.Message))
	}
	if f.includeIP && lead.IP != "" {
		lines = append(lines, "", "IP: "+esc(lead.IP))
	}

	msg := LeadMessage{Text: strings.Join(lines, "\n")}

	switch lead.PreferredContact {
	case models.ContactWhatsApp:
		if digits := nonDigitRe.ReplaceAllString(lead.Phone, ""); len(digits) >= 6 {
			msg.Markup = urlButton("Написать в WhatsApp", "https://wa.me/"+digits)
		}
	case models.ContactTelegram:
		if handle := strings.TrimPrefix(lead.TelegramUsername, "@"); telegramHandleRe.MatchString(handle) {
			msg.Markup = urlButton("Написать в Telegram", "https://t.me/"+handle)
		}
	case models.ContactPhone:
		msg.Contact = &ContactCard{Phone: lead.Phone, Name: lead.Name}
	}
	return msg
}

// DailyReport renders the aggregate message for the day of ref. No
// per-lead detail beyond the time and name of the most recent lead.
func (f *Formatter) DailyReport(summary storage.DailySummary, ref time.Time) string {
	header := "📊 Отчёт за " + ref.In(f.loc).Format("02.01.2006")
	if summary.Count == 0 {
		return header + "\nЗаявок сегодня: 0"
	}
	return fmt.Sprintf("%s\nЗаявок сегодня: %d\nПоследняя: %s (%s)",
		header,
		summary.Count,
		summary.LatestAt.In(f.loc).Format("15:04"),
		esc(summary.LatestName),
	)
}

func urlButton(label, url string) *tgbotapi.InlineKeyboardMarkup {
	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL(label, url),
		),
	)
	return &markup
}

func esc(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeHTML, s)
}
