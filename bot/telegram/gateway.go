package telegram

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"luckydraw/bot"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

const (
	pollTimeoutSeconds = 30
	// pollClientTimeout leaves room for the long poll itself
	pollClientTimeout = (pollTimeoutSeconds + 15) * time.Second
	// sendTimeout bounds every outgoing call, whatever the caller's context
	sendTimeout = 15 * time.Second
)

// Gateway is a bot.Gateway over the Telegram Bot API using long polling
type Gateway struct {
	api    *tgbotapi.BotAPI // long polling
	sender *tgbotapi.BotAPI // outgoing messages and callback answers
}

// New connects to the Bot API with the given token
func New(token string) (*Gateway, error) {
	return newGateway(token, tgbotapi.APIEndpoint, sendTimeout)
}

func newGateway(token, endpoint string, timeout time.Duration) (*Gateway, error) {
	api, err := tgbotapi.NewBotAPIWithClient(token, endpoint, &http.Client{Timeout: pollClientTimeout})
	if err != nil {
		return nil, fmt.Errorf("error creating telegram bot: %w", err)
	}
	sender, err := tgbotapi.NewBotAPIWithClient(token, endpoint, &http.Client{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("error creating telegram sender: %w", err)
	}
	log.WithField("username", api.Self.UserName).Info("Authorized on Telegram")
	return &Gateway{api: api, sender: sender}, nil
}

// call runs a Bot API request and returns as soon as ctx ends. The abandoned request is
// still bounded by the sender's client timeout.
func call(ctx context.Context, request func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	done := make(chan error, 1)
	go func() {
		done <- request()
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Updates starts long polling. Only private chats are forwarded.
func (g *Gateway) Updates(ctx context.Context) (<-chan bot.Update, error) {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = pollTimeoutSeconds
	raw := g.api.GetUpdatesChan(cfg)

	out := make(chan bot.Update)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				g.api.StopReceivingUpdates()
				return
			case update, ok := <-raw:
				if !ok {
					return
				}
				if update.CallbackQuery != nil {
					g.answerCallback(update.CallbackQuery.ID)
				}
				converted, ok := convertUpdate(update)
				if !ok {
					continue
				}
				select {
				case out <- converted:
				case <-ctx.Done():
					g.api.StopReceivingUpdates()
					return
				}
			}
		}
	}()
	return out, nil
}

// answerCallback stops the client's loading spinner on a pressed button
func (g *Gateway) answerCallback(id string) {
	if _, err := g.sender.Request(tgbotapi.NewCallback(id, "")); err != nil {
		log.WithError(err).Debug("Failed to answer callback query")
	}
}

// Send sends a text message with optional inline buttons
func (g *Gateway) Send(ctx context.Context, msg bot.OutgoingMessage) error {
	var cfg tgbotapi.MessageConfig
	if msg.Channel != "" {
		if chatID, ok := numericChat(msg.Channel); ok {
			cfg = tgbotapi.NewMessage(chatID, msg.Text)
		} else {
			cfg = tgbotapi.NewMessageToChannel(msg.Channel, msg.Text)
		}
	} else {
		cfg = tgbotapi.NewMessage(msg.UserID, msg.Text)
	}
	if markup := inlineKeyboard(msg.Buttons); markup != nil {
		cfg.ReplyMarkup = *markup
	}

	err := call(ctx, func() error {
		_, err := g.sender.Send(cfg)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	return nil
}

// SendPhoto uploads a PNG with msg.Text as its caption
func (g *Gateway) SendPhoto(ctx context.Context, msg bot.OutgoingMessage) error {
	file := tgbotapi.FileBytes{Name: "image.png", Bytes: msg.Photo}
	var cfg tgbotapi.PhotoConfig
	if msg.Channel != "" {
		if chatID, ok := numericChat(msg.Channel); ok {
			cfg = tgbotapi.NewPhoto(chatID, file)
		} else {
			cfg = tgbotapi.NewPhotoToChannel(msg.Channel, file)
		}
	} else {
		cfg = tgbotapi.NewPhoto(msg.UserID, file)
	}
	cfg.Caption = msg.Text
	if markup := inlineKeyboard(msg.Buttons); markup != nil {
		cfg.ReplyMarkup = *markup
	}

	err := call(ctx, func() error {
		_, err := g.sender.Send(cfg)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to send telegram photo: %w", err)
	}
	return nil
}

// Close stops long polling
func (g *Gateway) Close() error {
	g.api.StopReceivingUpdates()
	return nil
}

// convertUpdate maps a Telegram update to a bot.Update; group chats and service
// messages are dropped
func convertUpdate(update tgbotapi.Update) (bot.Update, bool) {
	if q := update.CallbackQuery; q != nil && q.From != nil {
		if q.Message != nil && q.Message.Chat != nil && !q.Message.Chat.IsPrivate() {
			return bot.Update{}, false
		}
		return bot.Update{
			UserID:      q.From.ID,
			Username:    q.From.UserName,
			DisplayName: displayName(q.From),
			Text:        q.Data,
			IsButton:    true,
		}, true
	}

	m := update.Message
	if m == nil || m.From == nil || m.Chat == nil || !m.Chat.IsPrivate() {
		return bot.Update{}, false
	}

	converted := bot.Update{
		UserID:      m.From.ID,
		Username:    m.From.UserName,
		DisplayName: displayName(m.From),
		Text:        m.Text,
	}
	if len(m.Photo) > 0 {
		// Sizes are ordered smallest first
		converted.PhotoRef = m.Photo[len(m.Photo)-1].FileID
		converted.Text = m.Caption
	} else if m.Document != nil && strings.HasPrefix(m.Document.MimeType, "image/") {
		converted.PhotoRef = m.Document.FileID
		converted.Text = m.Caption
	}
	if m.Contact != nil && m.Contact.PhoneNumber != "" {
		converted.Text = m.Contact.PhoneNumber
	}
	if converted.Text == "" && converted.PhotoRef == "" {
		return bot.Update{}, false
	}
	return converted, true
}

func displayName(u *tgbotapi.User) string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func inlineKeyboard(rows [][]bot.Button) *tgbotapi.InlineKeyboardMarkup {
	if len(rows) == 0 {
		return nil
	}
	keyboard := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Label, b.Data))
		}
		keyboard = append(keyboard, tgbotapi.NewInlineKeyboardRow(buttons...))
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(keyboard...)
	return &markup
}

// numericChat reports whether channel is a chat id such as -1001234567890
func numericChat(channel string) (int64, bool) {
	id, err := strconv.ParseInt(channel, 10, 64)
	return id, err == nil
}
