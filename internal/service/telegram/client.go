package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"sigmapips/internal/domain/service"
	xhttp "sigmapips/pkg/http"
	"sigmapips/pkg/logger"
)

const defaultAPIURL = "https://api.telegram.org"

// BotOption configures Bot.
type BotOption func(*Bot)

// WithAPIURL overrides the Bot API base URL (used in tests).
func WithAPIURL(url string) BotOption {
	return func(b *Bot) {
		b.apiURL = url
	}
}

// WithParseMode sets the parse mode for outgoing messages.
func WithParseMode(mode string) BotOption {
	return func(b *Bot) {
		b.parseMode = mode
	}
}

// WithRequestTimeout sets the per-request timeout.
func WithRequestTimeout(d time.Duration) BotOption {
	return func(b *Bot) {
		b.timeout = d
	}
}

// Bot talks to the Telegram Bot API over plain HTTP. It implements
// service.DeliveryChannel.
type Bot struct {
	logger    *logger.Logger
	client    *xhttp.Client
	token     string
	apiURL    string
	parseMode string
	timeout   time.Duration
}

// NewBot creates a Bot API client.
func NewBot(lgr *logger.Logger, token string, opts ...BotOption) (*Bot, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram token is required")
	}

	b := &Bot{
		logger:    lgr,
		token:     token,
		apiURL:    defaultAPIURL,
		parseMode: "HTML",
		timeout:   30 * time.Second,
	}

	for _, opt := range opts {
		opt(b)
	}

	b.client = xhttp.NewClient(xhttp.WithTimeout(b.timeout))
	return b, nil
}

// GetMe fetches the bot's own account, verifying the token.
func (b *Bot) GetMe(ctx context.Context) (*User, error) {
	raw, err := b.call(ctx, "getMe", nil)
	if err != nil {
		return nil, err
	}

	var me User
	if err := json.Unmarshal(raw, &me); err != nil {
		return nil, fmt.Errorf("decode getMe result: %w", err)
	}
	return &me, nil
}

// SendText sends a text message with an optional inline keyboard.
func (b *Bot) SendText(ctx context.Context, chatID int64, text string, buttons [][]service.Button) error {
	body := map[string]interface{}{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": b.parseMode,
	}
	if markup := toMarkup(buttons); markup != nil {
		body["reply_markup"] = markup
	}

	_, err := b.call(ctx, "sendMessage", body)
	return err
}

// SendPhoto uploads a photo with an optional caption and inline keyboard.
func (b *Bot) SendPhoto(ctx context.Context, chatID int64, photo []byte, caption string, buttons [][]service.Button) error {
	fields := map[string]string{
		"chat_id":    strconv.FormatInt(chatID, 10),
		"parse_mode": b.parseMode,
	}
	if caption != "" {
		fields["caption"] = caption
	}
	if markup := toMarkup(buttons); markup != nil {
		data, err := json.Marshal(markup)
		if err != nil {
			return fmt.Errorf("marshal reply markup: %w", err)
		}
		fields["reply_markup"] = string(data)
	}

	var result apiResponse
	err := b.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    b.methodURL("sendPhoto"),
		Multipart: &xhttp.MultipartPayload{
			Fields: fields,
			File:   &xhttp.FilePart{Field: "photo", Filename: "chart.png", Data: photo},
		},
	}, &result)
	if err != nil {
		return fmt.Errorf("telegram sendPhoto: %w", err)
	}
	if !result.OK {
		return fmt.Errorf("telegram sendPhoto: %s (code %d)", result.Description, result.ErrorCode)
	}
	return nil
}

// EditText replaces the text and keyboard of an existing message.
func (b *Bot) EditText(ctx context.Context, chatID int64, messageID int64, text string, buttons [][]service.Button) error {
	body := map[string]interface{}{
		"chat_id":    chatID,
		"message_id": messageID,
		"text":       text,
		"parse_mode": b.parseMode,
	}
	if markup := toMarkup(buttons); markup != nil {
		body["reply_markup"] = markup
	}

	_, err := b.call(ctx, "editMessageText", body)
	return err
}

// AnswerCallback acknowledges a callback query, dismissing the client-side
// loading spinner.
func (b *Bot) AnswerCallback(ctx context.Context, callbackID, text string) error {
	body := map[string]interface{}{
		"callback_query_id": callbackID,
	}
	if text != "" {
		body["text"] = text
	}

	_, err := b.call(ctx, "answerCallbackQuery", body)
	return err
}

func (b *Bot) call(ctx context.Context, method string, body interface{}) (json.RawMessage, error) {
	opts := &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    b.methodURL(method),
	}
	if body != nil {
		opts.Body = body
	}

	var result apiResponse
	if err := b.client.SendAndParse(ctx, opts, &result); err != nil {
		return nil, fmt.Errorf("telegram %s: %w", method, err)
	}
	if !result.OK {
		return nil, fmt.Errorf("telegram %s: %s (code %d)", method, result.Description, result.ErrorCode)
	}
	return result.Result, nil
}

func (b *Bot) methodURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", b.apiURL, b.token, method)
}

func toMarkup(buttons [][]service.Button) *InlineKeyboardMarkup {
	if len(buttons) == 0 {
		return nil
	}

	rows := make([][]InlineKeyboardButton, 0, len(buttons))
	for _, row := range buttons {
		r := make([]InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			r = append(r, InlineKeyboardButton{Text: btn.Label, CallbackData: btn.Callback})
		}
		rows = append(rows, r)
	}
	return &InlineKeyboardMarkup{InlineKeyboard: rows}
}
