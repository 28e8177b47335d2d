package telegram

import (
	"context"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/driftywinds/birthday-bot/internal/confirm"
	"github.com/driftywinds/birthday-bot/internal/notify"
	"github.com/driftywinds/birthday-bot/internal/store"
)

// Router wires Telegram updates to command handlers. All durable state
// lives in the store; the confirmation flow owns the only in-memory
// conversational state (the endpoint under test).
type Router struct {
	bot        *tgbotapi.BotAPI
	log        *zap.Logger
	store      *store.Store
	flow       *confirm.Flow
	dispatcher *notify.Dispatcher
}

func NewRouter(bot *tgbotapi.BotAPI, log *zap.Logger, st *store.Store, flow *confirm.Flow, dispatcher *notify.Dispatcher) *Router {
	return &Router{
		bot:        bot,
		log:        log,
		store:      st,
		flow:       flow,
		dispatcher: dispatcher,
	}
}

func (r *Router) sendText(chatID int64, text string) {
	_, _ = r.bot.Send(tgbotapi.NewMessage(chatID, text))
}

func (r *Router) editText(chatID int64, messageID int, text string) {
	_, _ = r.bot.Send(tgbotapi.NewEditMessageText(chatID, messageID, text))
}

func (r *Router) answerCallback(id string) {
	_, _ = r.bot.Request(tgbotapi.NewCallback(id, ""))
}

// HandleUpdate routes a single update to the appropriate handler.
func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.Message != nil && upd.Message.IsCommand() {
		msg := upd.Message
		chatID := msg.Chat.ID
		userID := strconv.FormatInt(msg.From.ID, 10)
		args := strings.Fields(msg.CommandArguments())

		switch msg.Command() {
		case "start":
			r.sendText(chatID, startText)
		case "help":
			r.sendText(chatID, helpText)
		case "add_birthday":
			r.handleAddBirthday(ctx, chatID, userID, args)
		case "list_birthdays":
			r.handleListBirthdays(chatID, userID)
		case "remove_birthday":
			r.handleRemoveBirthday(ctx, chatID, userID, args)
		case "add_endpoint":
			r.handleAddEndpoint(chatID, userID, strings.TrimSpace(msg.CommandArguments()))
		case "list_endpoints":
			r.handleListEndpoints(chatID, userID)
		case "remove_endpoint":
			r.handleRemoveEndpoint(chatID, userID)
		case "add_reminder":
			r.handleAddReminder(ctx, chatID, userID, args)
		case "list_reminders":
			r.handleListReminders(chatID, userID)
		case "remove_reminder":
			r.handleRemoveReminder(ctx, chatID, userID, args)
		case "set_timezone":
			r.handleSetTimezone(ctx, chatID, userID, args)
		case "test_notifications":
			r.handleTestNotifications(chatID, userID)
		default:
			r.sendText(chatID, "Unknown command. See /help.")
		}
		return
	}

	if upd.CallbackQuery != nil {
		cb := upd.CallbackQuery
		r.answerCallback(cb.ID)

		chatID := cb.Message.Chat.ID
		userID := strconv.FormatInt(cb.From.ID, 10)

		switch {
		case cb.Data == "confirm_endpoint_yes":
			r.handleConfirmEndpoint(ctx, chatID, cb.Message.MessageID, userID)
		case cb.Data == "confirm_endpoint_no":
			r.handleRejectEndpoint(chatID, cb.Message.MessageID, userID)
		case strings.HasPrefix(cb.Data, "remove_endpoint_"):
			r.handleRemoveEndpointCallback(ctx, chatID, cb.Message.MessageID, userID, cb.Data)
		default:
			// Unknown callback — ignore silently
		}
	}
}
