package notify

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Notifier is the external delivery capability: a coarse-grained batch
// contract where success/failure is not attributed per endpoint.
type Notifier interface {
	// TryRegister reports whether the endpoint is syntactically valid
	// and routable to a known scheme.
	TryRegister(endpoint string) bool
	// Deliver sends title/body to every endpoint; true only if all
	// legs succeeded.
	Deliver(endpoints []string, title, body string) bool
}

// TelegramSender is the slice of the Bot API the notifier needs.
type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Service routes endpoints by URI scheme: tgram://token/chat_id goes
// through the Bot API, http(s):// and json:// are webhook POSTs with a
// JSON {title, body} payload.
type Service struct {
	tg     TelegramSender
	client *http.Client
	log    *zap.Logger
}

func NewService(tg TelegramSender, log *zap.Logger) *Service {
	return &Service{
		tg:     tg,
		client: &http.Client{Timeout: 10 * time.Second},
		log:    log,
	}
}

func (s *Service) TryRegister(endpoint string) bool {
	switch endpointScheme(endpoint) {
	case "tgram":
		_, _, err := parseTgram(endpoint)
		return err == nil
	case "http", "https", "json":
		u, err := url.Parse(webhookURL(endpoint))
		return err == nil && u.Host != ""
	default:
		return false
	}
}

func (s *Service) Deliver(endpoints []string, title, body string) bool {
	ok := true
	for _, e := range endpoints {
		if err := s.send(e, title, body); err != nil {
			s.log.Warn("delivery failed", zap.String("scheme", endpointScheme(e)), zap.Error(err))
			ok = false
		}
	}
	return ok
}

func (s *Service) send(endpoint, title, body string) error {
	switch endpointScheme(endpoint) {
	case "tgram":
		_, chatID, err := parseTgram(endpoint)
		if err != nil {
			return err
		}
		_, err = s.tg.Send(tgbotapi.NewMessage(chatID, title+"\n\n"+body))
		return err

	case "http", "https", "json":
		return s.postWebhook(webhookURL(endpoint), title, body)

	default:
		return fmt.Errorf("unsupported endpoint scheme %q", endpointScheme(endpoint))
	}
}

func (s *Service) postWebhook(target, title, body string) error {
	payload, err := json.Marshal(map[string]string{"title": title, "body": body})
	if err != nil {
		return err
	}
	resp, err := s.client.Post(target, "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("webhook returned %s", resp.Status)
	}
	return nil
}

func endpointScheme(endpoint string) string {
	i := strings.Index(endpoint, "://")
	if i < 0 {
		return ""
	}
	return strings.ToLower(endpoint[:i])
}

// webhookURL maps the json:// alias onto https.
func webhookURL(endpoint string) string {
	if endpointScheme(endpoint) == "json" {
		return "https://" + endpoint[len("json://"):]
	}
	return endpoint
}

// parseTgram splits tgram://<bot_token>/<chat_id>. The token itself
// contains a colon, so this is a manual split rather than url.Parse.
func parseTgram(endpoint string) (token string, chatID int64, err error) {
	rest := strings.TrimPrefix(endpoint, "tgram://")
	if rest == endpoint {
		return "", 0, errors.New("not a tgram endpoint")
	}
	i := strings.LastIndex(rest, "/")
	if i <= 0 || i == len(rest)-1 {
		return "", 0, errors.New("tgram endpoint wants tgram://token/chat_id")
	}
	token = rest[:i]
	chatID, err = strconv.ParseInt(rest[i+1:], 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("tgram chat id: %w", err)
	}
	return token, chatID, nil
}

// TgramEndpoint renders the chat-relay endpoint for a Telegram chat.
func TgramEndpoint(token string, chatID int64) string {
	return fmt.Sprintf("tgram://%s/%d", token, chatID)
}
