package bot

import (
	"context"
	"errors"

	"dispatchbot/pkg/logger"
	"dispatchbot/service"

	tele "gopkg.in/telebot.v3"
)

func (b *Bot) handleDocument(ctx context.Context, chatID int64, doc *tele.Document) {
	in := service.IncomingFile{
		FileID:   doc.FileID,
		FileName: doc.FileName,
		MimeType: doc.MIME,
		Size:     int64(doc.FileSize),
	}
	w, trip, err := b.Svc.Waybill().Ingest(ctx, chatID, in)
	if err != nil {
		b.ingestFailed(ctx, chatID, err, msg("waybill_file_failed"))
		return
	}
	b.reply(ctx, chatID, msg("waybill_saved", trip.ID, w.OriginalName), nil)
}

func (b *Bot) handlePhoto(ctx context.Context, chatID int64, photo *tele.Photo) {
	in := service.IncomingFile{
		FileID: photo.FileID,
		Size:   int64(photo.FileSize),
		Photo:  true,
	}
	_, trip, err := b.Svc.Waybill().Ingest(ctx, chatID, in)
	if err != nil {
		b.ingestFailed(ctx, chatID, err, msg("waybill_photo_fail"))
		return
	}
	b.reply(ctx, chatID, msg("waybill_photo_saved", trip.ID), nil)
}

func (b *Bot) ingestFailed(ctx context.Context, chatID int64, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrNoPendingWaybill):
		b.reply(ctx, chatID, msg("waybill_no_pending"), nil)
	case errors.Is(err, service.ErrTripNotFound), errors.Is(err, service.ErrNotTripOwner):
		b.reply(ctx, chatID, msg("waybill_not_owner"), nil)
	default:
		b.Log.Error("waybill ingestion failed", logger.Int64("chat_id", chatID), logger.Error(err))
		b.reply(ctx, chatID, fallback, nil)
	}
}
