package telegram

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	tele "gopkg.in/telebot.v3"

	"dispatchbot/pkg/logger"
)

// Client implements Gateway on top of telebot. Updates arrive through the
// webhook handler, so the bot is never started.
type Client struct {
	bot *tele.Bot
	log logger.ILogger
}

func NewClient(token string, log logger.ILogger) (*Client, error) {
	b, err := tele.NewBot(tele.Settings{
		Token:       token,
		Synchronous: true,
		Client:      newHTTPClient(),
		OnError: func(err error, _ tele.Context) {
			log.Error("telebot error", logger.Error(err))
		},
	})
	if err != nil {
		return nil, err
	}
	return &Client{bot: b, log: log}, nil
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}

func (c *Client) Username() string {
	return c.bot.Me.Username
}

func toSendOptions(opts *SendOptions) *tele.SendOptions {
	so := &tele.SendOptions{}
	if opts == nil {
		return so
	}
	so.ParseMode = tele.ParseMode(opts.ParseMode)
	so.DisableWebPagePreview = opts.DisablePreview
	so.DisableNotification = opts.Silent

	switch {
	case opts.ForceReply:
		so.ReplyMarkup = &tele.ReplyMarkup{ForceReply: true, Placeholder: opts.Placeholder}
	case len(opts.Keyboard) > 0:
		rows := make([][]tele.InlineButton, 0, len(opts.Keyboard))
		for _, r := range opts.Keyboard {
			row := make([]tele.InlineButton, 0, len(r))
			for _, b := range r {
				// Data without Unique goes out verbatim as callback_data.
				row = append(row, tele.InlineButton{Text: b.Text, Data: b.Data})
			}
			rows = append(rows, row)
		}
		so.ReplyMarkup = &tele.ReplyMarkup{InlineKeyboard: rows}
	}
	return so
}

func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, opts *SendOptions) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	msg, err := c.bot.Send(tele.ChatID(chatID), text, toSendOptions(opts))
	if err != nil {
		return 0, err
	}
	return msg.ID, nil
}

func (c *Client) SendPhoto(ctx context.Context, chatID int64, photo Upload, opts *SendOptions) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	p := &tele.Photo{File: tele.FromReader(photo.Reader), Caption: photo.Caption}
	msg, err := c.bot.Send(tele.ChatID(chatID), p, toSendOptions(opts))
	if err != nil {
		return 0, err
	}
	return msg.ID, nil
}

func (c *Client) SendDocument(ctx context.Context, chatID int64, doc Upload, opts *SendOptions) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	d := &tele.Document{File: tele.FromReader(doc.Reader), FileName: doc.Name, Caption: doc.Caption}
	msg, err := c.bot.Send(tele.ChatID(chatID), d, toSendOptions(opts))
	if err != nil {
		return 0, err
	}
	return msg.ID, nil
}

func (c *Client) EditMessage(ctx context.Context, chatID int64, messageID int, text string, opts *SendOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := c.bot.Edit(tele.StoredMessage{MessageID: strconv.Itoa(messageID), ChatID: chatID}, text, toSendOptions(opts))
	return err
}

func (c *Client) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.bot.Delete(tele.StoredMessage{MessageID: strconv.Itoa(messageID), ChatID: chatID})
}

func (c *Client) AnswerCallback(ctx context.Context, callbackID, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.bot.Respond(&tele.Callback{ID: callbackID}, &tele.CallbackResponse{Text: text})
}

func (c *Client) GetFile(ctx context.Context, fileID string) (*File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := c.bot.FileByID(fileID)
	if err != nil {
		return nil, err
	}
	return &File{ID: f.FileID, Path: f.FilePath, Size: int64(f.FileSize)}, nil
}

func (c *Client) DownloadFile(ctx context.Context, f *File) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.bot.File(&tele.File{FileID: f.ID, FilePath: f.Path})
}

func (c *Client) SetWebhook(ctx context.Context, cfg WebhookConfig) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.bot.SetWebhook(&tele.Webhook{
		MaxConnections: cfg.MaxConnections,
		AllowedUpdates: cfg.AllowedUpdates,
		DropUpdates:    cfg.DropPending,
		SecretToken:    cfg.SecretToken,
		Endpoint:       &tele.WebhookEndpoint{PublicURL: cfg.URL},
	})
}

func (c *Client) WebhookInfo(ctx context.Context) (*WebhookInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	wh, err := c.bot.Webhook()
	if err != nil {
		return nil, err
	}
	return &WebhookInfo{
		URL:              wh.Listen,
		PendingUpdates:   wh.PendingUpdates,
		MaxConnections:   wh.MaxConnections,
		AllowedUpdates:   wh.AllowedUpdates,
		LastErrorDate:    wh.ErrorUnixtime,
		LastErrorMessage: wh.ErrorMessage,
	}, nil
}
