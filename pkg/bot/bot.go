package bot

import (
	"context"
	"encoding/json"
	"strings"

	"dispatchbot/config"
	"dispatchbot/pkg/logger"
	"dispatchbot/pkg/metrics"
	"dispatchbot/pkg/telegram"
	"dispatchbot/service"

	tele "gopkg.in/telebot.v3"
)

type Bot struct {
	Svc service.IServiceManager
	Gw  telegram.Gateway
	Log logger.ILogger
	Cfg *config.Config

	callbacks map[string]callbackHandler
}

func New(cfg *config.Config, svc service.IServiceManager, gw telegram.Gateway, log logger.ILogger) *Bot {
	b := &Bot{
		Svc: svc,
		Gw:  gw,
		Log: log,
		Cfg: cfg,
	}
	b.registerCallbacks()
	return b
}

// HandleUpdate processes a single webhook update. It never fails: every
// problem is logged and, where it makes sense, reported to the chat.
func (b *Bot) HandleUpdate(ctx context.Context, upd *tele.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.Log.Error("panic while handling update", logger.Int("update_id", upd.ID), logger.Any("panic", r))
		}
	}()

	switch {
	case upd.Callback != nil:
		metrics.UpdatesTotal.WithLabelValues("callback_query").Inc()
		b.handleCallback(ctx, upd.Callback)
	case upd.Message != nil:
		metrics.UpdatesTotal.WithLabelValues("message").Inc()
		b.handleMessage(ctx, upd.Message)
	default:
		metrics.UpdatesTotal.WithLabelValues("other").Inc()
		b.Log.Debug("update ignored", logger.Int("update_id", upd.ID))
	}
}

func (b *Bot) handleMessage(ctx context.Context, m *tele.Message) {
	if m.Chat == nil {
		return
	}
	chatID := m.Chat.ID

	if m.Sender != nil && m.Chat.Type == tele.ChatPrivate {
		_, err := b.Svc.Driver().AutoRegister(ctx, service.Sender{
			ChatID:    chatID,
			Username:  m.Sender.Username,
			FirstName: m.Sender.FirstName,
		})
		if err != nil {
			b.Log.Error("auto registration failed", logger.Int64("chat_id", chatID), logger.Error(err))
		}
	}

	switch {
	case m.Document != nil:
		b.handleDocument(ctx, chatID, m.Document)
	case m.Photo != nil:
		b.handlePhoto(ctx, chatID, m.Photo)
	case strings.HasPrefix(m.Text, "/"):
		b.handleCommand(ctx, chatID, m.Text)
	}
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string, opts *telegram.SendOptions) {
	if _, err := b.Gw.SendMessage(ctx, chatID, text, opts); err != nil {
		b.Log.Error("failed to send message", logger.Int64("chat_id", chatID), logger.Error(err))
	}
}

// DecodeUpdate parses a raw webhook body.
func DecodeUpdate(body []byte) (*tele.Update, error) {
	var upd tele.Update
	if err := json.Unmarshal(body, &upd); err != nil {
		return nil, err
	}
	return &upd, nil
}
