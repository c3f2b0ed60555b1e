// Package telegram is the narrow outbound surface the bot needs from the Bot API.
package telegram

import (
	"context"
	"io"
	"strings"
)

type Button struct {
	Text string
	Data string
}

type Keyboard [][]Button

func Btn(text, data string) Button {
	return Button{Text: text, Data: data}
}

func Row(btns ...Button) []Button {
	return btns
}

type ParseMode string

const (
	ModeDefault  ParseMode = ""
	ModeHTML     ParseMode = "HTML"
	ModeMarkdown ParseMode = "Markdown"
)

type SendOptions struct {
	Keyboard       Keyboard
	ParseMode      ParseMode
	ForceReply     bool
	Placeholder    string
	Silent         bool
	DisablePreview bool
}

type Upload struct {
	Name    string
	Reader  io.Reader
	Caption string
}

type File struct {
	ID   string
	Path string
	Size int64
}

type WebhookConfig struct {
	URL            string
	SecretToken    string
	MaxConnections int
	AllowedUpdates []string
	DropPending    bool
}

type WebhookInfo struct {
	URL              string
	PendingUpdates   int
	MaxConnections   int
	AllowedUpdates   []string
	LastErrorDate    int64
	LastErrorMessage string
}

type Gateway interface {
	SendMessage(ctx context.Context, chatID int64, text string, opts *SendOptions) (int, error)
	SendPhoto(ctx context.Context, chatID int64, photo Upload, opts *SendOptions) (int, error)
	SendDocument(ctx context.Context, chatID int64, doc Upload, opts *SendOptions) (int, error)
	EditMessage(ctx context.Context, chatID int64, messageID int, text string, opts *SendOptions) error
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
	GetFile(ctx context.Context, fileID string) (*File, error)
	DownloadFile(ctx context.Context, f *File) (io.ReadCloser, error)
	SetWebhook(ctx context.Context, cfg WebhookConfig) error
	WebhookInfo(ctx context.Context) (*WebhookInfo, error)
}

// IsStale reports the answerCallbackQuery errors Telegram returns for a
// callback that outlived its window. Those are dropped without telling the user.
// Network timeouts are not stale.
func IsStale(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "query is too old") ||
		strings.Contains(msg, "query id is invalid")
}
