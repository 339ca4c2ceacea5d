package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Config holds the Telegram transport settings
type Config struct {
	Token string
	Debug bool
	// ServerURL overrides the Bot API endpoint, e.g. for a self-hosted Bot API server
	ServerURL string
}

// Bot is the chat ingress: it long-polls Telegram and answers through a Responder
type Bot struct {
	api       *bot.Bot
	responder *Responder
	connected atomic.Bool
}

// New creates a Bot. No network call is made until Start.
func New(cfg Config, responder *Responder) (*Bot, error) {
	if cfg.Token == "" {
		return nil, errors.New("telegram token is required")
	}

	b := &Bot{responder: responder}

	opts := []bot.Option{
		bot.WithSkipGetMe(),
		bot.WithDefaultHandler(b.handleMessage),
	}
	if cfg.Debug {
		opts = append(opts, bot.WithDebug())
	}
	if cfg.ServerURL != "" {
		opts = append(opts, bot.WithServerURL(cfg.ServerURL))
	}

	api, err := bot.New(cfg.Token, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating telegram bot: %w", err)
	}
	b.api = api

	b.registerHandlers()
	return b, nil
}

// Start verifies the token and long-polls until ctx is cancelled
func (b *Bot) Start(ctx context.Context) error {
	me, err := b.api.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("getting bot info: %w", err)
	}

	slog.Info("Telegram bot started", "username", me.Username, "id", me.ID)
	b.connected.Store(true)
	defer b.connected.Store(false)

	b.api.Start(ctx)
	return nil
}

// Connected reports whether the bot is currently polling
func (b *Bot) Connected() bool {
	return b.connected.Load()
}

// registerHandlers registers the command handlers; everything else reaches the default
// handler
func (b *Bot) registerHandlers() {
	b.api.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, b.handleStart)
	b.api.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypeExact, b.handleHelp)
	b.api.RegisterHandler(bot.HandlerTypeMessageText, "/retry", bot.MatchTypeExact, b.handleRetry)
}

func (b *Bot) handleStart(ctx context.Context, api *bot.Bot, update *models.Update) {
	commandsProcessed.WithLabelValues("start").Inc()
	if update.Message == nil {
		return
	}
	b.send(ctx, api, update.Message.Chat.ID, b.responder.Welcome())
}

func (b *Bot) handleHelp(ctx context.Context, api *bot.Bot, update *models.Update) {
	commandsProcessed.WithLabelValues("help").Inc()
	if update.Message == nil {
		return
	}
	b.send(ctx, api, update.Message.Chat.ID, b.responder.Help())
}

func (b *Bot) handleRetry(ctx context.Context, api *bot.Bot, update *models.Update) {
	commandsProcessed.WithLabelValues("retry").Inc()
	if update.Message == nil {
		return
	}
	b.send(ctx, api, update.Message.Chat.ID, b.responder.Retry(ctx))
}

// handleMessage treats any non-command text message as an expense
func (b *Bot) handleMessage(ctx context.Context, api *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.Text == "" {
		return
	}
	chatID := update.Message.Chat.ID

	if strings.HasPrefix(update.Message.Text, "/") {
		commandsProcessed.WithLabelValues("unknown").Inc()
		b.send(ctx, api, chatID, b.responder.UnknownCommand())
		return
	}

	messagesProcessed.Inc()
	b.send(ctx, api, chatID, b.responder.Reply(ctx, update.Message.Text))
}

func (b *Bot) send(ctx context.Context, api *bot.Bot, chatID int64, text string) {
	_, err := api.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		sendErrors.Inc()
		slog.Error("Failed to send message", "chat_id", chatID, "error", err)
	}
}
