package telegram

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/driftywinds/birthday-bot/internal/confirm"
	"github.com/driftywinds/birthday-bot/internal/domain"
	"github.com/driftywinds/birthday-bot/internal/notify"
	"github.com/driftywinds/birthday-bot/internal/store"
)

// --- Birthdays ---

func (r *Router) handleAddBirthday(ctx context.Context, chatID int64, userID string, args []string) {
	if len(args) < 2 {
		r.sendText(chatID, "Usage: /add_birthday <name> <date>\n"+
			"Example: /add_birthday John 03-15\n"+
			"Date format: MM-DD (March 15)")
		return
	}
	name, date := args[0], args[1]

	md, err := domain.ParseMonthDay(date)
	if err != nil {
		r.sendText(chatID, "❌ Invalid date format. Use MM-DD (e.g., 03-15)")
		return
	}
	r.store.AddBirthday(ctx, userID, name, md)
	r.sendText(chatID, fmt.Sprintf("✅ Birthday added: %s on %s", name, md))
}

func (r *Router) handleListBirthdays(chatID int64, userID string) {
	sub := r.store.Get(userID)
	if len(sub.Birthdays) == 0 {
		r.sendText(chatID, "📅 No birthdays stored yet.")
		return
	}

	names := make([]string, 0, len(sub.Birthdays))
	for name := range sub.Birthdays {
		names = append(names, name)
	}
	sort.Strings(names)

	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var b strings.Builder
	b.WriteString("📅 Your Birthdays:\n\n")
	for _, name := range names {
		md := sub.Birthdays[name]
		days := int(domain.NextOccurrence(md, now).Sub(today).Hours() / 24)
		fmt.Fprintf(&b, "• %s: %s (%d days until next birthday)\n", name, md, days)
	}
	r.sendText(chatID, b.String())
}

func (r *Router) handleRemoveBirthday(ctx context.Context, chatID int64, userID string, args []string) {
	if len(args) < 1 {
		r.sendText(chatID, "Usage: /remove_birthday <name>")
		return
	}
	name := args[0]
	if err := r.store.RemoveBirthday(ctx, userID, name); err != nil {
		r.sendText(chatID, "❌ No birthday found for "+name)
		return
	}
	r.sendText(chatID, "✅ Removed birthday for "+name)
}

// --- Endpoints ---

func (r *Router) handleAddEndpoint(chatID int64, userID, endpoint string) {
	if endpoint == "" {
		r.sendText(chatID, "Usage: /add_endpoint <url>\n"+
			"Examples:\n"+
			"• tgram://bot_token/chat_id\n"+
			"• https://example.com/hook")
		return
	}

	err := r.flow.Propose(userID, endpoint)
	switch {
	case errors.Is(err, confirm.ErrInvalidEndpoint):
		r.sendText(chatID, "❌ Invalid endpoint format")
		return
	case errors.Is(err, confirm.ErrTrialDeliveryFailed):
		r.sendText(chatID, "❌ Failed to send test notification to this endpoint")
		return
	case err != nil:
		r.log.Error("propose endpoint failed", zap.Error(err))
		r.sendText(chatID, "❌ Error testing endpoint, please try again later.")
		return
	}

	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf(
		"📡 Test notification sent to:\n%s\n\nDid you receive the test notification?",
		maskEndpoint(endpoint)))
	msg.ReplyMarkup = confirmEndpointKeyboard()
	_, _ = r.bot.Send(msg)
}

func (r *Router) handleListEndpoints(chatID int64, userID string) {
	sub := r.store.Get(userID)
	if len(sub.Endpoints) == 0 {
		r.sendText(chatID, "📡 No notification endpoints configured.")
		return
	}

	var b strings.Builder
	b.WriteString("📡 Notification Endpoints:\n\n")
	for i, e := range sub.Endpoints {
		fmt.Fprintf(&b, "%d. %s\n", i+1, maskEndpoint(e))
	}
	r.sendText(chatID, b.String())
}

func (r *Router) handleRemoveEndpoint(chatID int64, userID string) {
	sub := r.store.Get(userID)
	if len(sub.Endpoints) == 0 {
		r.sendText(chatID, "📡 No endpoints to remove.")
		return
	}
	msg := tgbotapi.NewMessage(chatID, "Select endpoint to remove:")
	msg.ReplyMarkup = removeEndpointKeyboard(sub.Endpoints)
	_, _ = r.bot.Send(msg)
}

func (r *Router) handleConfirmEndpoint(ctx context.Context, chatID int64, messageID int, userID string) {
	relay := notify.TgramEndpoint(r.bot.Token, chatID)
	endpoint, err := r.flow.Confirm(ctx, userID, relay)
	if err != nil {
		r.editText(chatID, messageID, "❌ No pending endpoint to confirm")
		return
	}
	total := len(r.store.Get(userID).Endpoints)
	r.editText(chatID, messageID, fmt.Sprintf(
		"✅ Endpoint added successfully!\n📡 %s\n\n"+
			"You now have %d notification endpoint(s) configured.",
		maskEndpoint(endpoint), total))
}

func (r *Router) handleRejectEndpoint(chatID int64, messageID int, userID string) {
	endpoint, err := r.flow.Reject(userID)
	if err != nil {
		r.editText(chatID, messageID, "❌ No pending endpoint to cancel")
		return
	}
	r.editText(chatID, messageID, fmt.Sprintf(
		"❌ Endpoint not added due to failed test:\n📡 %s\n\n"+
			"Please check your endpoint configuration and try again.",
		maskEndpoint(endpoint)))
}

func (r *Router) handleRemoveEndpointCallback(ctx context.Context, chatID int64, messageID int, userID, data string) {
	index, err := strconv.Atoi(strings.TrimPrefix(data, "remove_endpoint_"))
	if err != nil {
		r.editText(chatID, messageID, "❌ Invalid endpoint selection")
		return
	}
	removed, err := r.store.RemoveEndpoint(ctx, userID, index)
	if err != nil {
		r.editText(chatID, messageID, "❌ Invalid endpoint selection")
		return
	}
	r.editText(chatID, messageID, "✅ Removed endpoint: "+maskEndpoint(removed))
}

// --- Reminders ---

func (r *Router) handleAddReminder(ctx context.Context, chatID int64, userID string, args []string) {
	if len(args) < 2 {
		r.sendText(chatID, "Usage: /add_reminder <type> <value>\n\n"+
			"Types:\n"+
			"• minutes_before — minutes before the birthday (e.g., 15)\n"+
			"• hours_before — hours before the birthday (e.g., 24)\n"+
			"• days_before — days before the birthday (e.g., 1)\n"+
			"• time_on_day — time on the birthday itself (e.g., 09:00)\n"+
			"• time_before — time before the birthday (e.g., 1:18:00 = 1 day, 18:00)")
		return
	}

	rule, err := domain.ParseRule(args[0], args[1])
	if err != nil {
		r.sendText(chatID, "❌ Invalid reminder format: "+err.Error())
		return
	}
	r.store.AddReminder(ctx, userID, rule)
	r.sendText(chatID, "✅ Reminder added: "+rule.String())
}

func (r *Router) handleListReminders(chatID int64, userID string) {
	sub := r.store.Get(userID)
	if len(sub.Reminders) == 0 {
		r.sendText(chatID, "⏰ No reminders configured.")
		return
	}

	var b strings.Builder
	b.WriteString("⏰ Your Reminders:\n\n")
	for i, rule := range sub.Reminders {
		fmt.Fprintf(&b, "%d. %s\n", i+1, rule)
	}
	r.sendText(chatID, b.String())
}

func (r *Router) handleRemoveReminder(ctx context.Context, chatID int64, userID string, args []string) {
	if len(args) < 1 {
		r.sendText(chatID, "Usage: /remove_reminder <number>")
		return
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		r.sendText(chatID, "❌ Please provide a valid number")
		return
	}
	removed, err := r.store.RemoveReminder(ctx, userID, n-1)
	if err != nil {
		r.sendText(chatID, "❌ Invalid reminder number")
		return
	}
	r.sendText(chatID, "✅ Removed reminder: "+removed.String())
}

// --- Settings ---

func (r *Router) handleSetTimezone(ctx context.Context, chatID int64, userID string, args []string) {
	if len(args) < 1 {
		r.sendText(chatID, "Usage: /set_timezone <timezone>\n"+
			"Example: /set_timezone America/New_York\n"+
			"Common timezones: UTC, Europe/London, Asia/Tokyo")
		return
	}
	tz := args[0]
	if err := r.store.SetTimezone(ctx, userID, tz); err != nil {
		if errors.Is(err, store.ErrInvalidTimezone) {
			r.sendText(chatID, "❌ Invalid timezone")
			return
		}
		r.log.Error("set timezone failed", zap.Error(err))
		r.sendText(chatID, "❌ Could not save timezone.")
		return
	}
	r.sendText(chatID, "✅ Timezone set to "+tz)
}

func (r *Router) handleTestNotifications(chatID int64, userID string) {
	sub := r.store.Get(userID)
	if len(sub.Endpoints) == 0 {
		r.sendText(chatID, "❌ No notification endpoints configured")
		return
	}
	sent := r.dispatcher.Dispatch(sub, "🧪 Test Notification", "This is a test message from Birthday Bot!")
	r.sendText(chatID, fmt.Sprintf("📡 Test complete: %d/%d endpoints successful", sent, len(sub.Endpoints)))
}
