package bot

import (
	"context"
	"errors"

	"dispatchbot/pkg/logger"
	"dispatchbot/pkg/models"
	"dispatchbot/pkg/telegram"
	"dispatchbot/service"
)

func (b *Bot) onTripTake(ctx context.Context, req *callbackRequest) error {
	id, _ := req.Cmd.ID()
	trip, err := b.Svc.Trip().Take(ctx, id, req.Driver.ID)
	if err != nil {
		return b.tripError(ctx, req.ChatID, err)
	}

	b.Log.Info("trip taken", logger.Int64("trip_id", trip.ID), logger.Int64("driver_id", req.Driver.ID))
	b.Svc.Group().DriverAccepted(ctx, trip, req.Driver)
	return b.showTripManagement(ctx, trip, req.ChatID)
}

func (b *Bot) onTripReject(ctx context.Context, req *callbackRequest) error {
	id, _ := req.Cmd.ID()
	if _, err := b.Svc.Trip().Reject(ctx, id, req.Driver.ID); err != nil {
		return b.tripError(ctx, req.ChatID, err)
	}
	b.Log.Info("trip rejected", logger.Int64("trip_id", id), logger.Int64("driver_id", req.Driver.ID))
	return b.send(ctx, req.ChatID, msg("rejected", id), nil)
}

// visibleTrip loads a trip the driver may look at: their own or an unassigned one.
func (b *Bot) visibleTrip(ctx context.Context, req *callbackRequest) (*models.Trip, error) {
	id, _ := req.Cmd.ID()
	trip, err := b.Svc.Trip().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if trip.DriverID != nil && !trip.AssignedTo(req.Driver.ID) {
		return nil, service.ErrNotTripOwner
	}
	return trip, nil
}

func (b *Bot) onTripDetails(ctx context.Context, req *callbackRequest) error {
	trip, err := b.visibleTrip(ctx, req)
	if err != nil {
		return b.tripError(ctx, req.ChatID, err)
	}
	return b.send(ctx, req.ChatID, tripDetailsText(trip), &telegram.SendOptions{Keyboard: tripDetailsKeyboard(trip.ID)})
}

func (b *Bot) onStatusMenu(ctx context.Context, req *callbackRequest) error {
	trip, err := b.visibleTrip(ctx, req)
	if err != nil {
		return b.tripError(ctx, req.ChatID, err)
	}
	return b.send(ctx, req.ChatID, statusMenuText(trip), &telegram.SendOptions{Keyboard: statusMenuKeyboard(trip.ID)})
}

func (b *Bot) statusSetter(status models.TripStatus) func(ctx context.Context, req *callbackRequest) error {
	return func(ctx context.Context, req *callbackRequest) error {
		id, _ := req.Cmd.ID()
		trip, err := b.Svc.Trip().ChangeStatus(ctx, id, req.Driver.ID, status)
		if err != nil {
			return b.tripError(ctx, req.ChatID, err)
		}
		b.Log.Info("trip status changed by driver",
			logger.Int64("trip_id", trip.ID),
			logger.Int64("driver_id", req.Driver.ID),
			logger.String("status", string(status)),
		)
		if err := b.send(ctx, req.ChatID, msg("status_changed", trip.ID, status.Label()), nil); err != nil {
			return err
		}
		return b.showTripManagement(ctx, trip, req.ChatID)
	}
}

func (b *Bot) onWaybillAttach(ctx context.Context, req *callbackRequest) error {
	id, _ := req.Cmd.ID()
	_, err := b.Svc.Waybill().RequestAttach(ctx, req.Driver, req.ChatID, id)
	if err != nil {
		if errors.Is(err, service.ErrNotTripOwner) {
			return b.send(ctx, req.ChatID, msg("not_assigned"), nil)
		}
		return b.tripError(ctx, req.ChatID, err)
	}
	return b.send(ctx, req.ChatID, msg("waybill_prompt", id), &telegram.SendOptions{
		ForceReply:  true,
		Placeholder: msg("waybill_placeholder"),
	})
}

func (b *Bot) onAvailableTrips(ctx context.Context, req *callbackRequest) error {
	return b.showAvailableTrips(ctx, req.Driver, req.ChatID)
}

func (b *Bot) onActiveTrips(ctx context.Context, req *callbackRequest) error {
	return b.showActiveTrips(ctx, req.Driver, req.ChatID)
}

func (b *Bot) onSendWaybill(ctx context.Context, req *callbackRequest) error {
	return b.showWaybillTrips(ctx, req.Driver, req.ChatID)
}

func (b *Bot) onRefresh(ctx context.Context, req *callbackRequest) error {
	if _, ok := req.Cmd.ID(); !ok {
		return b.showMainMenu(ctx, req.Driver, req.ChatID, req.MessageID)
	}
	trip, err := b.visibleTrip(ctx, req)
	if err != nil {
		return b.tripError(ctx, req.ChatID, err)
	}
	return b.showTripManagement(ctx, trip, req.ChatID)
}
