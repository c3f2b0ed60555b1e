package bot

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"dispatchbot/pkg/logger"
	"dispatchbot/pkg/metrics"
	"dispatchbot/pkg/models"
	"dispatchbot/pkg/telegram"
	"dispatchbot/service"

	tele "gopkg.in/telebot.v3"
)

// CallbackCommand is a decoded inline button payload of the form
// namespace_action_id...
type CallbackCommand struct {
	Namespace string
	Action    string
	IDs       []int64
}

func (c CallbackCommand) Key() string {
	return c.Namespace + "/" + c.Action
}

// ID returns the first numeric argument.
func (c CallbackCommand) ID() (int64, bool) {
	if len(c.IDs) == 0 {
		return 0, false
	}
	return c.IDs[0], true
}

// ParseCallback decodes a payload. The first token is the namespace, trailing
// all-digit tokens are ids and whatever is left in between is the action.
func ParseCallback(data string) (CallbackCommand, bool) {
	data = strings.TrimSpace(data)
	if data == "" {
		return CallbackCommand{}, false
	}
	parts := strings.Split(data, "_")
	if parts[0] == "" {
		return CallbackCommand{}, false
	}

	end := len(parts)
	for end > 1 && isDigits(parts[end-1]) {
		end--
	}
	var ids []int64
	for _, p := range parts[end:] {
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return CallbackCommand{}, false
		}
		ids = append(ids, id)
	}

	cmd := CallbackCommand{
		Namespace: parts[0],
		Action:    strings.Join(parts[1:end], "_"),
		IDs:       ids,
	}
	return legacyAlias(cmd), true
}

func legacyAlias(c CallbackCommand) CallbackCommand {
	switch {
	case c.Namespace == "waybill" && c.Action == "" && len(c.IDs) > 0:
		c.Action = "attach"
	case c.Namespace == "trips" && c.Action == "refresh":
		c.Namespace = "menu"
	case c.Namespace == "refresh" && c.Action == "trip":
		c.Namespace, c.Action = "menu", "refresh"
	}
	return c
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

type callbackRequest struct {
	Cmd       CallbackCommand
	Driver    *models.Driver
	ChatID    int64
	MessageID int
}

type callbackHandler struct {
	needID bool
	fn     func(ctx context.Context, req *callbackRequest) error
}

func (b *Bot) registerCallbacks() {
	b.callbacks = map[string]callbackHandler{
		"trip/take":    {needID: true, fn: b.onTripTake},
		"trip/reject":  {needID: true, fn: b.onTripReject},
		"trip/details": {needID: true, fn: b.onTripDetails},

		"status/menu":       {needID: true, fn: b.onStatusMenu},
		"status/inprogress": {needID: true, fn: b.statusSetter(models.TripStatusInProgress)},
		"status/completed":  {needID: true, fn: b.statusSetter(models.TripStatusCompleted)},
		"status/postponed":  {needID: true, fn: b.statusSetter(models.TripStatusPostponed)},
		"status/rejected":   {needID: true, fn: b.statusSetter(models.TripStatusRejected)},

		"waybill/attach": {needID: true, fn: b.onWaybillAttach},

		"menu/available_trips": {fn: b.onAvailableTrips},
		"menu/active_trips":    {fn: b.onActiveTrips},
		"menu/send_waybill":    {fn: b.onSendWaybill},
		"menu/refresh":         {fn: b.onRefresh},
	}
}

func callbackChatID(cb *tele.Callback) int64 {
	if cb.Message != nil && cb.Message.Chat != nil {
		return cb.Message.Chat.ID
	}
	if cb.Sender != nil {
		return cb.Sender.ID
	}
	return 0
}

func (b *Bot) handleCallback(ctx context.Context, cb *tele.Callback) {
	chatID := callbackChatID(cb)
	log := b.Log.With(logger.Int64("chat_id", chatID), logger.String("data", cb.Data))

	// Telegram expects an answer within seconds; anything slower is stale.
	if err := b.Gw.AnswerCallback(ctx, cb.ID, ""); err != nil {
		log.Warning("callback answer failed, dropping stale interaction", logger.Error(err))
		metrics.CallbacksTotal.WithLabelValues("", "", "stale").Inc()
		return
	}

	driver, err := b.Svc.Driver().GetByChatID(ctx, chatID)
	if err != nil {
		if !errors.Is(err, service.ErrDriverNotFound) {
			log.Error("driver lookup failed", logger.Error(err))
		}
		b.reply(ctx, chatID, msg("driver_not_found"), nil)
		return
	}

	cmd, ok := ParseCallback(cb.Data)
	h, known := b.callbacks[cmd.Key()]
	if !ok || !known || (h.needID && len(cmd.IDs) == 0) {
		log.Warning("unknown callback")
		metrics.CallbacksTotal.WithLabelValues(cmd.Namespace, cmd.Action, "unknown").Inc()
		b.reply(ctx, chatID, msg("unknown_action"), nil)
		return
	}

	req := &callbackRequest{Cmd: cmd, Driver: driver, ChatID: chatID}
	if cb.Message != nil {
		req.MessageID = cb.Message.ID
	}

	err = h.fn(ctx, req)
	switch {
	case err == nil:
		metrics.CallbacksTotal.WithLabelValues(cmd.Namespace, cmd.Action, "ok").Inc()
	case telegram.IsStale(err):
		log.Warning("callback processing hit a stale interaction", logger.Error(err))
		metrics.CallbacksTotal.WithLabelValues(cmd.Namespace, cmd.Action, "stale").Inc()
	default:
		log.Error("callback processing failed", logger.Int64("driver_id", driver.ID), logger.Error(err))
		metrics.CallbacksTotal.WithLabelValues(cmd.Namespace, cmd.Action, "error").Inc()
		b.reply(ctx, chatID, msg("callback_failed"), nil)
	}
}

// tripError reports the domain errors a driver can cause and returns nil for
// them; anything else is passed through.
func (b *Bot) tripError(ctx context.Context, chatID int64, err error) error {
	switch {
	case errors.Is(err, service.ErrTripNotFound):
		b.reply(ctx, chatID, msg("trip_not_found"), nil)
	case errors.Is(err, service.ErrTripTaken):
		b.reply(ctx, chatID, msg("trip_taken"), nil)
	case errors.Is(err, service.ErrNotTripOwner):
		b.reply(ctx, chatID, msg("not_owner"), nil)
	default:
		return err
	}
	return nil
}
