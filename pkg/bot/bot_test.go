package bot

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v3"

	"dispatchbot/config"
	"dispatchbot/pkg/logger"
	"dispatchbot/pkg/models"
	"dispatchbot/pkg/telegram/telegramtest"
	"dispatchbot/service"
	"dispatchbot/storage/memory"
)

const groupChat int64 = -1001

type testBot struct {
	*Bot
	stg   *memory.Store
	blobs *memory.BlobStore
	gw    *telegramtest.Recorder
	group *telegramtest.Recorder
}

func newTestBot(t *testing.T) *testBot {
	t.Helper()
	tb := &testBot{
		stg:   memory.New(),
		blobs: memory.NewBlobStore(),
		gw:    telegramtest.New(),
		group: telegramtest.New(),
	}
	svc := service.New(service.Deps{
		Storage: tb.stg,
		Pending: memory.NewPendingStore(),
		Blobs:   tb.blobs,
		Gateway: tb.gw,
		Group:   tb.group,
		Options: service.Options{
			GroupChatID: groupChat,
			Sleep:       func(context.Context, time.Duration) error { return nil },
		},
	}, logger.NewNop())

	cfg := &config.Config{WebhookSecret: "s3cret"}
	tb.Bot = New(cfg, svc, tb.gw, logger.NewNop())
	return tb
}

func (tb *testBot) driver(t *testing.T, name, username string, chatID int64) *models.Driver {
	t.Helper()
	d := &models.Driver{Name: name}
	if username != "" {
		d.TelegramUsername = &username
	}
	if chatID != 0 {
		d.TelegramChatID = &chatID
	}
	d, err := tb.Svc.Driver().Create(context.Background(), d)
	require.NoError(t, err)
	return d
}

func (tb *testBot) trip(t *testing.T, driver *models.Driver, status models.TripStatus) *models.Trip {
	t.Helper()
	trip := &models.Trip{Name: "Вывоз мусора", Address: "ул. Мира, 5", ClientName: "ООО Ромашка", Status: status}
	if driver != nil {
		trip.DriverID = &driver.ID
	}
	trip, err := tb.Svc.Trip().Create(context.Background(), trip)
	require.NoError(t, err)
	return trip
}

func privateChat(id int64) *tele.Chat {
	return &tele.Chat{ID: id, Type: tele.ChatPrivate}
}

func callbackUpdate(chatID int64, data string) *tele.Update {
	return &tele.Update{
		ID: 1,
		Callback: &tele.Callback{
			ID:      "cb-1",
			Data:    data,
			Sender:  &tele.User{ID: chatID},
			Message: &tele.Message{ID: 10, Chat: privateChat(chatID)},
		},
	}
}

func textUpdate(chatID int64, from *tele.User, text string) *tele.Update {
	return &tele.Update{
		ID:      2,
		Message: &tele.Message{ID: 20, Sender: from, Chat: privateChat(chatID), Text: text},
	}
}

func documentUpdate(chatID int64, fileID, name string) *tele.Update {
	return &tele.Update{
		ID: 3,
		Message: &tele.Message{
			ID:     30,
			Sender: &tele.User{ID: chatID},
			Chat:   privateChat(chatID),
			Document: &tele.Document{
				File:     tele.File{FileID: fileID},
				FileName: name,
				MIME:     "application/pdf",
			},
		},
	}
}

func photoUpdate(chatID int64, fileID string) *tele.Update {
	return &tele.Update{
		ID: 4,
		Message: &tele.Message{
			ID:     40,
			Sender: &tele.User{ID: chatID},
			Chat:   privateChat(chatID),
			Photo:  &tele.Photo{File: tele.File{FileID: fileID}},
		},
	}
}
