package bot

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v3"

	"dispatchbot/pkg/models"
	"dispatchbot/pkg/telegram/telegramtest"
)

func TestParseCallback(t *testing.T) {
	tests := []struct {
		data string
		want CallbackCommand
		ok   bool
	}{
		{"trip_take_42", CallbackCommand{Namespace: "trip", Action: "take", IDs: []int64{42}}, true},
		{"status_inprogress_7", CallbackCommand{Namespace: "status", Action: "inprogress", IDs: []int64{7}}, true},
		{"menu_available_trips", CallbackCommand{Namespace: "menu", Action: "available_trips"}, true},
		{"menu_refresh_15", CallbackCommand{Namespace: "menu", Action: "refresh", IDs: []int64{15}}, true},
		{"waybill_attach_3", CallbackCommand{Namespace: "waybill", Action: "attach", IDs: []int64{3}}, true},
		{"waybill_3", CallbackCommand{Namespace: "waybill", Action: "attach", IDs: []int64{3}}, true},
		{"trips_refresh", CallbackCommand{Namespace: "menu", Action: "refresh"}, true},
		{"refresh_trip_9", CallbackCommand{Namespace: "menu", Action: "refresh", IDs: []int64{9}}, true},
		{"trip_take", CallbackCommand{Namespace: "trip", Action: "take"}, true},
		{"", CallbackCommand{}, false},
		{"   ", CallbackCommand{}, false},
		{"_take_1", CallbackCommand{}, false},
		{"trip_take_99999999999999999999", CallbackCommand{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.data, func(t *testing.T) {
			got, ok := ParseCallback(tt.data)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestCommandName(t *testing.T) {
	assert.Equal(t, "mytrips", commandName("/mytrips"))
	assert.Equal(t, "mytrips", commandName("/MyTrips@dispatch_bot extra"))
	assert.Equal(t, "start", commandName("  /start"))
	assert.Equal(t, "", commandName("hello"))
	assert.Equal(t, "", commandName(""))
}

func TestStaleCallbackIsDropped(t *testing.T) {
	tb := newTestBot(t)
	tb.driver(t, "Иван", "ivan", 1001)
	trip := tb.trip(t, nil, models.TripStatusNew)
	tb.gw.AnswerErr = errors.New("telegram: Bad Request: query is too old and response timeout expired or query ID is invalid (400)")

	tb.HandleUpdate(context.Background(), callbackUpdate(1001, fmt.Sprintf("trip_take_%d", trip.ID)))

	assert.Empty(t, tb.gw.Calls())
	got, err := tb.Svc.Trip().Get(context.Background(), trip.ID)
	require.NoError(t, err)
	assert.Nil(t, got.DriverID, "stale press must not take the trip")
}

func TestCallbackFromUnknownChat(t *testing.T) {
	tb := newTestBot(t)

	tb.HandleUpdate(context.Background(), callbackUpdate(4242, "menu_refresh"))

	last, ok := tb.gw.Last(4242)
	require.True(t, ok)
	assert.Equal(t, msg("driver_not_found"), last.Text)
}

func TestUnknownCallbackAction(t *testing.T) {
	tb := newTestBot(t)
	tb.driver(t, "Иван", "ivan", 1001)

	for _, data := range []string{"trip_fly_1", "trip_take", "garbage"} {
		tb.gw.Reset()
		tb.HandleUpdate(context.Background(), callbackUpdate(1001, data))

		last, ok := tb.gw.Last(1001)
		require.True(t, ok, data)
		assert.Equal(t, msg("unknown_action"), last.Text, data)
	}
}

func TestTakeFlow(t *testing.T) {
	tb := newTestBot(t)
	ctx := context.Background()
	first := tb.driver(t, "Иван", "ivan", 1001)
	tb.driver(t, "Пётр", "petr", 2002)
	trip := tb.trip(t, nil, models.TripStatusNew)
	data := fmt.Sprintf("trip_take_%d", trip.ID)

	tb.HandleUpdate(ctx, callbackUpdate(1001, data))

	last, ok := tb.gw.Last(1001)
	require.True(t, ok)
	assert.Contains(t, last.Text, fmt.Sprintf("ВАША ЗАЯВКА #%d", trip.ID))
	assert.Contains(t, last.CallbackData(), fmt.Sprintf("status_menu_%d", trip.ID))
	assert.True(t, tb.group.Contains(groupChat, "Водитель Иван принял заявку"))

	got, err := tb.Svc.Trip().Get(ctx, trip.ID)
	require.NoError(t, err)
	assert.True(t, got.AssignedTo(first.ID))
	assert.Equal(t, models.TripStatusInProgress, got.Status)

	tb.HandleUpdate(ctx, callbackUpdate(2002, data))
	last, ok = tb.gw.Last(2002)
	require.True(t, ok)
	assert.Equal(t, msg("trip_taken"), last.Text)
}

func TestStatusChangeFlow(t *testing.T) {
	tb := newTestBot(t)
	ctx := context.Background()
	d := tb.driver(t, "Иван", "ivan", 1001)
	tb.driver(t, "Пётр", "petr", 2002)
	trip := tb.trip(t, d, models.TripStatusInProgress)

	tb.HandleUpdate(ctx, callbackUpdate(2002, fmt.Sprintf("status_menu_%d", trip.ID)))
	last, _ := tb.gw.Last(2002)
	assert.Equal(t, msg("not_owner"), last.Text)

	tb.HandleUpdate(ctx, callbackUpdate(1001, fmt.Sprintf("status_completed_%d", trip.ID)))
	calls := tb.gw.To(1001)
	require.Len(t, calls, 2)
	assert.Equal(t, msg("status_changed", trip.ID, models.TripStatusCompleted.Label()), calls[0].Text)
	assert.Contains(t, calls[1].Text, "ЗАЯВКА ВЫПОЛНЕНА")
	assert.Equal(t, []string{fmt.Sprintf("waybill_attach_%d", trip.ID), "menu_active_trips"}, calls[1].CallbackData())
}

func TestRejectByStrangerIsRefused(t *testing.T) {
	tb := newTestBot(t)
	ctx := context.Background()
	owner := tb.driver(t, "Иван", "ivan", 1001)
	tb.driver(t, "Пётр", "petr", 2002)
	trip := tb.trip(t, owner, models.TripStatusInProgress)
	free := tb.trip(t, nil, models.TripStatusNew)

	tb.HandleUpdate(ctx, callbackUpdate(2002, fmt.Sprintf("trip_reject_%d", trip.ID)))

	last, ok := tb.gw.Last(2002)
	require.True(t, ok)
	assert.Equal(t, msg("not_owner"), last.Text)

	got, err := tb.Svc.Trip().Get(ctx, trip.ID)
	require.NoError(t, err)
	assert.True(t, got.AssignedTo(owner.ID))
	assert.Equal(t, models.TripStatusInProgress, got.Status)

	tb.HandleUpdate(ctx, callbackUpdate(2002, fmt.Sprintf("trip_reject_%d", free.ID)))

	last, ok = tb.gw.Last(2002)
	require.True(t, ok)
	assert.Equal(t, msg("not_owner"), last.Text)
}

func TestRejectByOwnerConfirms(t *testing.T) {
	tb := newTestBot(t)
	ctx := context.Background()
	owner := tb.driver(t, "Иван", "ivan", 1001)
	trip := tb.trip(t, owner, models.TripStatusNew)

	tb.HandleUpdate(ctx, callbackUpdate(1001, fmt.Sprintf("trip_reject_%d", trip.ID)))

	last, ok := tb.gw.Last(1001)
	require.True(t, ok)
	assert.Equal(t, msg("rejected", trip.ID), last.Text)
}

func TestHandlerTimeoutIsReportedAsFailure(t *testing.T) {
	tb := newTestBot(t)
	tb.driver(t, "Иван", "ivan", 1001)
	tb.callbacks["trip/take"] = callbackHandler{needID: true, fn: func(context.Context, *callbackRequest) error {
		return errors.New("failed to connect to `host=db`: dial error (timeout: context deadline exceeded)")
	}}

	tb.HandleUpdate(context.Background(), callbackUpdate(1001, "trip_take_1"))

	last, ok := tb.gw.Last(1001)
	require.True(t, ok)
	assert.Equal(t, msg("callback_failed"), last.Text)
}

func TestMainMenuEditsInPlace(t *testing.T) {
	tb := newTestBot(t)
	d := tb.driver(t, "Иван", "ivan", 1001)
	tb.trip(t, d, models.TripStatusNew)
	tb.trip(t, d, models.TripStatusInProgress)

	tb.HandleUpdate(context.Background(), callbackUpdate(1001, "menu_refresh"))

	last, ok := tb.gw.Last(1001)
	require.True(t, ok)
	assert.Equal(t, telegramtest.KindEdit, last.Kind)
	assert.Equal(t, 10, last.MessageID)
	assert.Equal(t, msg("main_menu", 1, 1, 2), last.Text)
}

func TestWaybillAttachFlow(t *testing.T) {
	tb := newTestBot(t)
	ctx := context.Background()
	d := tb.driver(t, "Иван", "ivan", 1001)
	trip := tb.trip(t, d, models.TripStatusInProgress)
	tb.gw.Files["doc-1"] = []byte("%PDF")

	tb.HandleUpdate(ctx, callbackUpdate(1001, fmt.Sprintf("waybill_%d", trip.ID)))
	prompt, ok := tb.gw.Last(1001)
	require.True(t, ok)
	assert.Equal(t, msg("waybill_prompt", trip.ID), prompt.Text)
	require.NotNil(t, prompt.Opts)
	assert.True(t, prompt.Opts.ForceReply)

	tb.HandleUpdate(ctx, documentUpdate(1001, "doc-1", "путевой.pdf"))
	done, ok := tb.gw.Last(1001)
	require.True(t, ok)
	assert.Equal(t, msg("waybill_saved", trip.ID, "путевой.pdf"), done.Text)
	assert.Len(t, tb.blobs.Paths(), 1)
	assert.True(t, tb.group.Contains(groupChat, "прикрепил путевой лист"))

	// the flag is consumed; a second photo is refused
	tb.gw.Files["photo-1"] = []byte{0xff}
	tb.HandleUpdate(ctx, photoUpdate(1001, "photo-1"))
	again, _ := tb.gw.Last(1001)
	assert.Equal(t, msg("waybill_no_pending"), again.Text)
}

func TestWaybillAttachForeignTrip(t *testing.T) {
	tb := newTestBot(t)
	owner := tb.driver(t, "Иван", "ivan", 1001)
	tb.driver(t, "Пётр", "petr", 2002)
	trip := tb.trip(t, owner, models.TripStatusInProgress)

	tb.HandleUpdate(context.Background(), callbackUpdate(2002, fmt.Sprintf("waybill_attach_%d", trip.ID)))

	last, ok := tb.gw.Last(2002)
	require.True(t, ok)
	assert.Equal(t, msg("not_assigned"), last.Text)
}

func TestPhotoIngest(t *testing.T) {
	tb := newTestBot(t)
	ctx := context.Background()
	d := tb.driver(t, "Иван", "ivan", 1001)
	trip := tb.trip(t, d, models.TripStatusCompleted)
	tb.gw.Files["photo-1"] = []byte{0xff, 0xd8}

	tb.HandleUpdate(ctx, callbackUpdate(1001, fmt.Sprintf("waybill_attach_%d", trip.ID)))
	tb.HandleUpdate(ctx, photoUpdate(1001, "photo-1"))

	last, ok := tb.gw.Last(1001)
	require.True(t, ok)
	assert.Equal(t, msg("waybill_photo_saved", trip.ID), last.Text)
}

func TestMyTripsCommand(t *testing.T) {
	tb := newTestBot(t)
	ctx := context.Background()

	tb.HandleUpdate(ctx, textUpdate(5005, &tele.User{ID: 5005, FirstName: "Незнакомец"}, "/mytrips"))
	last, ok := tb.gw.Last(5005)
	require.True(t, ok)
	assert.Equal(t, msg("driver_not_registered"), last.Text)

	tb.driver(t, "Иван", "ivan", 1001)
	tb.HandleUpdate(ctx, textUpdate(1001, &tele.User{ID: 1001, Username: "ivan"}, "/mytrips@dispatch_bot"))
	last, ok = tb.gw.Last(1001)
	require.True(t, ok)
	assert.Equal(t, telegramtest.KindMessage, last.Kind)
	assert.Equal(t, msg("main_menu", 0, 0, 0), last.Text)
}

func TestHelpNotifiesGroup(t *testing.T) {
	tb := newTestBot(t)
	tb.driver(t, "Иван", "ivan", 1001)

	tb.HandleUpdate(context.Background(), textUpdate(1001, &tele.User{ID: 1001, Username: "ivan"}, "/help"))

	assert.True(t, tb.gw.Contains(1001, "Ваш запрос передан диспетчеру"))
	assert.True(t, tb.group.Contains(groupChat, "Водитель Иван просит связаться"))
}

func TestFirstMessageRegistersDriver(t *testing.T) {
	tb := newTestBot(t)
	ctx := context.Background()
	d := tb.driver(t, "Иван Петров", "", 0)

	tb.HandleUpdate(ctx, textUpdate(1001, &tele.User{ID: 1001, FirstName: "Иван"}, "/start"))

	got, err := tb.Svc.Driver().GetByChatID(ctx, 1001)
	require.NoError(t, err)
	assert.Equal(t, d.ID, got.ID)

	calls := tb.gw.To(1001)
	require.Len(t, calls, 2)
	assert.Contains(t, calls[0].Text, "Вы успешно зарегистрированы")
	assert.Equal(t, msg("start"), calls[1].Text)
}

func TestGroupChatMessagesDoNotRegister(t *testing.T) {
	tb := newTestBot(t)
	ctx := context.Background()
	tb.driver(t, "Иван", "", 0)

	upd := textUpdate(-300, &tele.User{ID: 1001, FirstName: "Иван"}, "/start")
	upd.Message.Chat = &tele.Chat{ID: -300, Type: tele.ChatGroup}
	tb.HandleUpdate(ctx, upd)

	_, err := tb.Svc.Driver().GetByChatID(ctx, -300)
	assert.Error(t, err)
}
