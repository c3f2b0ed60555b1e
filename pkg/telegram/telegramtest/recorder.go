// Package telegramtest provides a recording Gateway for tests.
package telegramtest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"dispatchbot/pkg/telegram"
)

type Kind string

const (
	KindMessage  Kind = "message"
	KindPhoto    Kind = "photo"
	KindDocument Kind = "document"
	KindEdit     Kind = "edit"
	KindDelete   Kind = "delete"
	KindAnswer   Kind = "answer"
)

type Call struct {
	Kind      Kind
	ChatID    int64
	MessageID int
	Text      string
	FileName  string
	Body      []byte
	Opts      *telegram.SendOptions
}

// CallbackData returns every callback payload attached to the call's keyboard.
func (c Call) CallbackData() []string {
	if c.Opts == nil {
		return nil
	}
	var out []string
	for _, row := range c.Opts.Keyboard {
		for _, b := range row {
			out = append(out, b.Data)
		}
	}
	return out
}

type Recorder struct {
	mu     sync.Mutex
	calls  []Call
	nextID int

	// SendErr, when set for a chat, fails every send to that chat.
	SendErr map[int64]error
	// AnswerErr fails AnswerCallback.
	AnswerErr error
	// Files maps file id to content served by GetFile/DownloadFile.
	Files       map[string][]byte
	DownloadErr error

	Webhook telegram.WebhookConfig
}

func New() *Recorder {
	return &Recorder{SendErr: make(map[int64]error), Files: make(map[string][]byte)}
}

var _ telegram.Gateway = (*Recorder)(nil)

func (r *Recorder) record(c Call) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err, ok := r.SendErr[c.ChatID]; ok && c.Kind != KindAnswer {
		return 0, err
	}
	// edits and deletes keep the id they target
	if c.MessageID == 0 {
		r.nextID++
		c.MessageID = r.nextID
	}
	r.calls = append(r.calls, c)
	return c.MessageID, nil
}

func (r *Recorder) SendMessage(_ context.Context, chatID int64, text string, opts *telegram.SendOptions) (int, error) {
	return r.record(Call{Kind: KindMessage, ChatID: chatID, Text: text, Opts: opts})
}

func (r *Recorder) upload(kind Kind, chatID int64, u telegram.Upload, opts *telegram.SendOptions) (int, error) {
	var body []byte
	if u.Reader != nil {
		b, err := io.ReadAll(u.Reader)
		if err != nil {
			return 0, err
		}
		body = b
	}
	return r.record(Call{Kind: kind, ChatID: chatID, Text: u.Caption, FileName: u.Name, Body: body, Opts: opts})
}

func (r *Recorder) SendPhoto(_ context.Context, chatID int64, photo telegram.Upload, opts *telegram.SendOptions) (int, error) {
	return r.upload(KindPhoto, chatID, photo, opts)
}

func (r *Recorder) SendDocument(_ context.Context, chatID int64, doc telegram.Upload, opts *telegram.SendOptions) (int, error) {
	return r.upload(KindDocument, chatID, doc, opts)
}

func (r *Recorder) EditMessage(_ context.Context, chatID int64, messageID int, text string, opts *telegram.SendOptions) error {
	_, err := r.record(Call{Kind: KindEdit, ChatID: chatID, MessageID: messageID, Text: text, Opts: opts})
	return err
}

func (r *Recorder) DeleteMessage(_ context.Context, chatID int64, messageID int) error {
	_, err := r.record(Call{Kind: KindDelete, ChatID: chatID, MessageID: messageID})
	return err
}

func (r *Recorder) AnswerCallback(_ context.Context, callbackID, text string) error {
	if r.AnswerErr != nil {
		return r.AnswerErr
	}
	_, err := r.record(Call{Kind: KindAnswer, Text: callbackID})
	return err
}

func (r *Recorder) GetFile(_ context.Context, fileID string) (*telegram.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	data, ok := r.Files[fileID]
	if !ok {
		return nil, fmt.Errorf("telegram: Bad Request: invalid file_id %q", fileID)
	}
	return &telegram.File{ID: fileID, Path: "documents/" + fileID, Size: int64(len(data))}, nil
}

func (r *Recorder) DownloadFile(_ context.Context, f *telegram.File) (io.ReadCloser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.DownloadErr != nil {
		return nil, r.DownloadErr
	}
	data, ok := r.Files[f.ID]
	if !ok {
		return nil, errors.New("telegram: file not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (r *Recorder) SetWebhook(_ context.Context, cfg telegram.WebhookConfig) error {
	r.mu.Lock()
	r.Webhook = cfg
	r.mu.Unlock()
	return nil
}

func (r *Recorder) WebhookInfo(_ context.Context) (*telegram.WebhookInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return &telegram.WebhookInfo{
		URL:            r.Webhook.URL,
		MaxConnections: r.Webhook.MaxConnections,
		AllowedUpdates: r.Webhook.AllowedUpdates,
	}, nil
}

// Calls returns a snapshot of everything recorded so far.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// To returns the calls delivered to chatID, answers excluded.
func (r *Recorder) To(chatID int64) []Call {
	var out []Call
	for _, c := range r.Calls() {
		if c.ChatID == chatID && c.Kind != KindAnswer {
			out = append(out, c)
		}
	}
	return out
}

// Last returns the latest non-answer call to chatID.
func (r *Recorder) Last(chatID int64) (Call, bool) {
	calls := r.To(chatID)
	if len(calls) == 0 {
		return Call{}, false
	}
	return calls[len(calls)-1], true
}

// Contains reports whether some call to chatID has text containing sub.
func (r *Recorder) Contains(chatID int64, sub string) bool {
	for _, c := range r.To(chatID) {
		if strings.Contains(c.Text, sub) {
			return true
		}
	}
	return false
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	r.calls = nil
	r.mu.Unlock()
}
