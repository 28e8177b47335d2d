package telegram

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	startText = "🎉 Welcome to Birthday Reminder Bot! 🎉\n\n" +
		"I'll help you remember all the important birthdays and send notifications " +
		"through various channels.\n\n" +
		"Use /help to see all available commands."

	helpText = "📋 Available Commands:\n\n" +
		"Birthday Management:\n" +
		"• /add_birthday — add a new birthday\n" +
		"• /list_birthdays — view all birthdays\n" +
		"• /remove_birthday — remove a birthday\n\n" +
		"Notification Endpoints:\n" +
		"• /add_endpoint — add a notification endpoint\n" +
		"• /list_endpoints — view all endpoints\n" +
		"• /remove_endpoint — remove an endpoint\n\n" +
		"Reminders:\n" +
		"• /add_reminder — add a reminder schedule\n" +
		"• /list_reminders — view all reminders\n" +
		"• /remove_reminder — remove a reminder\n\n" +
		"Settings:\n" +
		"• /set_timezone — set your timezone\n" +
		"• /test_notifications — test your notification setup\n\n" +
		"Birthday format: MM-DD (e.g., 03-15 for March 15)\n" +
		"Endpoint formats:\n" +
		"• Telegram: tgram://bot_token/chat_id\n" +
		"• Webhook: https://example.com/hook"
)

func confirmEndpointKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Yes, I received it", "confirm_endpoint_yes"),
			tgbotapi.NewInlineKeyboardButtonData("❌ No, I didn't receive it", "confirm_endpoint_no"),
		),
	)
}

func removeEndpointKeyboard(endpoints []string) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(endpoints))
	for i, e := range endpoints {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("%d. %s", i+1, maskEndpoint(e)),
				fmt.Sprintf("remove_endpoint_%d", i),
			),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// maskEndpoint hides credentials in endpoints for display.
func maskEndpoint(endpoint string) string {
	switch {
	case strings.HasPrefix(endpoint, "mailto://"):
		if i := strings.LastIndex(endpoint, "@"); i >= 0 {
			return "mailto://***@" + endpoint[i+1:]
		}
	case strings.HasPrefix(endpoint, "tgram://"):
		return "tgram://*** (Telegram)"
	case strings.HasPrefix(endpoint, "discord://"):
		return "discord://*** (Discord Webhook)"
	}
	if len(endpoint) > 20 {
		return endpoint[:20] + "..."
	}
	return endpoint
}
