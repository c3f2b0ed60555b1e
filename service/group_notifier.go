package service

import (
	"context"
	"time"

	"dispatchbot/pkg/logger"
	"dispatchbot/pkg/models"
	"dispatchbot/pkg/telegram"
)

// GroupNotifier posts short HTML notices into the dispatchers' group chat.
// Delivery problems are logged and never block the caller's flow.
type GroupNotifier interface {
	DriverAccepted(ctx context.Context, trip *models.Trip, driver *models.Driver) bool
	WaybillAttached(ctx context.Context, trip *models.Trip, driver *models.Driver) bool
	TripCancelled(ctx context.Context, trip *models.Trip, driver *models.Driver) bool
	TripRepair(ctx context.Context, trip *models.Trip, driver *models.Driver) bool
	HelpRequested(ctx context.Context, driver *models.Driver) bool
}

type groupNotifier struct {
	gw   telegram.Gateway
	opts Options
	log  logger.ILogger
}

func NewGroupNotifier(gw telegram.Gateway, opts Options, log logger.ILogger) GroupNotifier {
	opts.setDefaults()
	return &groupNotifier{gw: gw, opts: opts, log: log}
}

func (g *groupNotifier) send(ctx context.Context, text string) bool {
	if g.gw == nil || g.opts.GroupChatID == 0 {
		g.log.Debug("group notifications disabled")
		return false
	}
	_, err := g.gw.SendMessage(ctx, g.opts.GroupChatID, text, &telegram.SendOptions{
		ParseMode:      telegram.ModeHTML,
		DisablePreview: true,
	})
	if err != nil {
		g.log.Error("failed to send group notification", logger.Int64("chat_id", g.opts.GroupChatID), logger.Error(err))
		return false
	}
	return true
}

func (g *groupNotifier) now() time.Time {
	return g.opts.Now().In(g.opts.GroupLocation)
}

func (g *groupNotifier) DriverAccepted(ctx context.Context, trip *models.Trip, driver *models.Driver) bool {
	return g.send(ctx, groupAcceptedText(trip, driver, g.now()))
}

func (g *groupNotifier) WaybillAttached(ctx context.Context, trip *models.Trip, driver *models.Driver) bool {
	return g.send(ctx, groupWaybillText(trip, driver, g.now()))
}

func (g *groupNotifier) TripCancelled(ctx context.Context, trip *models.Trip, driver *models.Driver) bool {
	return g.send(ctx, groupCancelledText(trip, driver, g.now()))
}

func (g *groupNotifier) TripRepair(ctx context.Context, trip *models.Trip, driver *models.Driver) bool {
	return g.send(ctx, groupRepairText(trip, driver, g.now()))
}

func (g *groupNotifier) HelpRequested(ctx context.Context, driver *models.Driver) bool {
	return g.send(ctx, groupHelpText(driver, g.now()))
}
