package notify

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"turboservis/config"
	"turboservis/models"
	"turboservis/storage"
)

// sendTimeout bounds every outbound Bot API call so a hung delivery cannot
// leak a goroutine indefinitely.
const sendTimeout = 10 * time.Second

// destination is one configured chat. Either a numeric chat id or a
// public @channel username.
type destination struct {
	raw      string
	chatID   int64
	username string
}

func parseDestination(raw string) destination {
	d := destination{raw: raw}
	if strings.HasPrefix(raw, "@") {
		d.username = raw
		return d
	}
	d.chatID, _ = strconv.ParseInt(raw, 10, 64)
	return d
}

// Notifier delivers formatted lead notifications to every configured chat.
// Deliveries to different chats run concurrently and never affect each
// other; the whole notifier degrades to a no-op when unconfigured.
type Notifier struct {
	bot       *tgbotapi.BotAPI
	dests     []destination
	formatter *Formatter
	logger    *logrus.Logger
}

// NewNotifier builds a notifier from the immutable startup configuration.
// The bot client is constructed without the usual getMe probe so the
// process comes up even when api.telegram.org is unreachable.
func NewNotifier(cfg config.TelegramConfig, formatter *Formatter, logger *logrus.Logger) *Notifier {
	n := &Notifier{
		formatter: formatter,
		logger:    logger,
	}
	if !cfg.Enabled() {
		logger.Info("telegram notifications disabled: no token or destinations configured")
		return n
	}

	bot := &tgbotapi.BotAPI{
		Token:  cfg.BotToken,
		Client: &http.Client{Timeout: sendTimeout},
		Buffer: 100,
	}
	bot.SetAPIEndpoint(tgbotapi.APIEndpoint)
	n.bot = bot

	for _, raw := range cfg.ChatIDs {
		n.dests = append(n.dests, parseDestination(raw))
	}
	return n
}

// Enabled reports whether the notifier has a credential and destinations.
func (n *Notifier) Enabled() bool {
	return n.bot != nil && len(n.dests) > 0
}

// NotifyLead formats and delivers a single accepted lead. Callers run it
// on a detached goroutine; nothing here may propagate back to the HTTP
// response path.
func (n *Notifier) NotifyLead(lead models.Lead, seq int) {
	if !n.Enabled() {
		return
	}

	msg, ok := n.renderLead(lead, seq)
	if !ok {
		return
	}
	n.dispatch(msg)
}

// NotifyDailyReport delivers the daily aggregate for the day of ref.
func (n *Notifier) NotifyDailyReport(summary storage.DailySummary, ref time.Time) {
	if !n.Enabled() {
		return
	}
	n.dispatch(LeadMessage{Text: n.formatter.DailyReport(summary, ref)})
}

// renderLead isolates formatting behind its own error boundary: a panic
// while rendering skips dispatch for this message only.
func (n *Notifier) renderLead(lead models.Lead, seq int) (msg LeadMessage, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			n.logger.WithField("lead_id", lead.ID).Errorf("lead message formatting failed: %v", r)
			ok = false
		}
	}()
	return n.formatter.LeadMessage(lead, seq), true
}

// dispatch fans the message out to every destination concurrently.
func (n *Notifier) dispatch(msg LeadMessage) {
	var wg sync.WaitGroup
	for _, dest := range n.dests {
		wg.Add(1)
		go func(d destination) {
			defer wg.Done()
			n.deliver(d, msg)
		}(dest)
	}
	wg.Wait()
}

// deliver sends the full per-destination sequence, retrying once against
// the new chat id when Telegram reports the group was migrated.
func (n *Notifier) deliver(dest destination, msg LeadMessage) {
	err := n.send(dest, msg)
	if err == nil {
		return
	}

	var tgErr *tgbotapi.Error
	if errors.As(err, &tgErr) && tgErr.ResponseParameters.MigrateToChatID != 0 {
		migrated := destination{
			raw:    strconv.FormatInt(tgErr.ResponseParameters.MigrateToChatID, 10),
			chatID: tgErr.ResponseParameters.MigrateToChatID,
		}
		// Keep notifying the original configuration; the remap is for the
		// operator to apply.
		n.logger.WithFields(logrus.Fields{
			"chat_id":     dest.raw,
			"new_chat_id": migrated.raw,
		}).Warn("telegram chat migrated, update TELEGRAM_CHAT_IDS")

		if err := n.send(migrated, msg); err != nil {
			n.logger.WithField("chat_id", migrated.raw).WithError(err).Error("telegram send failed after migration")
		}
		return
	}

	n.logger.WithField("chat_id", dest.raw).WithError(err).Error("telegram send failed")
}

// send delivers the text message and, when present, the follow-up contact
// card to a single destination.
func (n *Notifier) send(dest destination, msg LeadMessage) error {
	text := tgbotapi.NewMessage(dest.chatID, msg.Text)
	text.ChannelUsername = dest.username
	text.ParseMode = tgbotapi.ModeHTML
	text.DisableWebPagePreview = true
	if msg.Markup != nil {
		text.ReplyMarkup = *msg.Markup
	}
	if _, err := n.bot.Send(text); err != nil {
		return err
	}

	if msg.Contact != nil {
		contact := tgbotapi.NewContact(dest.chatID, msg.Contact.Phone, msg.Contact.Name)
		contact.ChannelUsername = dest.username
		if _, err := n.bot.Send(contact); err != nil {
			return err
		}
	}
	return nil
}
