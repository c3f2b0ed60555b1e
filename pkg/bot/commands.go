package bot

import (
	"context"
	"errors"
	"strings"

	"dispatchbot/pkg/logger"
	"dispatchbot/service"
)

// commandName extracts "mytrips" from "/mytrips@dispatch_bot arg".
func commandName(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return ""
	}
	name := strings.TrimPrefix(fields[0], "/")
	if i := strings.IndexByte(name, '@'); i >= 0 {
		name = name[:i]
	}
	return strings.ToLower(name)
}

func (b *Bot) handleCommand(ctx context.Context, chatID int64, text string) {
	name := commandName(text)
	b.Log.Info("command received", logger.Int64("chat_id", chatID), logger.String("command", name))

	switch name {
	case "start":
		b.reply(ctx, chatID, msg("start"), nil)
	case "help":
		b.handleHelp(ctx, chatID)
	case "mytrips":
		b.handleMyTrips(ctx, chatID)
	default:
		b.Log.Debug("unknown command", logger.Int64("chat_id", chatID), logger.String("command", name))
	}
}

func (b *Bot) handleHelp(ctx context.Context, chatID int64) {
	b.reply(ctx, chatID, msg("help"), nil)

	driver, err := b.Svc.Driver().GetByChatID(ctx, chatID)
	if err != nil {
		if !errors.Is(err, service.ErrDriverNotFound) {
			b.Log.Error("driver lookup failed", logger.Int64("chat_id", chatID), logger.Error(err))
		}
		return
	}
	b.Svc.Group().HelpRequested(ctx, driver)
}

func (b *Bot) handleMyTrips(ctx context.Context, chatID int64) {
	driver, err := b.Svc.Driver().GetByChatID(ctx, chatID)
	if err != nil {
		if !errors.Is(err, service.ErrDriverNotFound) {
			b.Log.Error("driver lookup failed", logger.Int64("chat_id", chatID), logger.Error(err))
		}
		b.reply(ctx, chatID, msg("driver_not_registered"), nil)
		return
	}
	if err := b.showMainMenu(ctx, driver, chatID, 0); err != nil {
		b.Log.Error("failed to show main menu", logger.Int64("chat_id", chatID), logger.Error(err))
	}
}
