// Package outbound maps high-level send calls (text, media, button and list
// menus) onto the Cloud API message schema.
package outbound

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lojasmm/wabot/internal/event"
	"github.com/lojasmm/wabot/internal/media"
	"github.com/lojasmm/wabot/internal/store"
	"github.com/lojasmm/wabot/internal/whatsapp"
)

// ErrNoRecipient is returned when neither To nor the triggering message names a recipient.
var ErrNoRecipient = errors.New("no recipient")

// Transport is the slice of the Graph API client the builder needs.
type Transport interface {
	SendMessage(ctx context.Context, msg whatsapp.SendMessageRequest) (string, error)
	UploadMedia(ctx context.Context, data []byte, filename, mimeType string) (string, error)
	DeleteMedia(ctx context.Context, mediaID string) (bool, error)
}

type Resolver interface {
	Resolve(ctx context.Context, src media.Source) (*media.Resolved, error)
}

// Ledger tracks uploads until a sent message references them.
type Ledger interface {
	RecordUpload(u store.Upload) error
	ReleaseUpload(mediaID string) error
}

// Sender holds the process-wide collaborators; Session binds them to one message.
type Sender struct {
	transport Transport
	resolver  Resolver
	ledger    Ledger
	log       *slog.Logger
}

// NewSender wires the builder. ledger may be nil.
func NewSender(t Transport, r Resolver, ledger Ledger, log *slog.Logger) *Sender {
	return &Sender{
		transport: t,
		resolver:  r,
		ledger:    ledger,
		log:       log.With("component", "outbound"),
	}
}

// Session is the handle command handlers use to answer one inbound message.
type Session struct {
	// Event is the message that triggered the command.
	Event  *event.Message
	sender *Sender
	log    *slog.Logger
}

func (s *Sender) Session(ev *event.Message) *Session {
	return &Session{
		Event:  ev,
		sender: s,
		log:    s.log.With("message_id", ev.ID, "user_id", ev.UserID),
	}
}

// UploadedMedia is the provider id of freshly uploaded media. It is meant to
// be referenced by exactly one following send.
type UploadedMedia struct {
	ID       string
	Category media.Category
	Filename string
}

// SendText sends a plain text message.
func (s *Session) SendText(ctx context.Context, body string, opts ...Option) (string, error) {
	o := collect(opts)
	msg := whatsapp.SendMessageRequest{
		Type: "text",
		Text: &whatsapp.SendText{Body: body},
	}
	return s.send(ctx, msg, o, "")
}

// SendMedia uploads src and sends it keyed by its sniffed category. A string
// source that is not a URL is sent as text instead.
func (s *Session) SendMedia(ctx context.Context, src media.Source, opts ...Option) (string, error) {
	if !src.IsBytes() && !src.IsURL() {
		return s.SendText(ctx, src.String(), opts...)
	}

	o := collect(opts)
	up, err := s.UploadMedia(ctx, src)
	if err != nil {
		return "", err
	}

	obj := &whatsapp.MediaObject{ID: up.ID}
	if up.Category != media.Audio {
		obj.Caption = o.caption
	}
	msg := whatsapp.SendMessageRequest{Type: string(up.Category)}
	switch up.Category {
	case media.Image:
		msg.Image = obj
	case media.Video:
		msg.Video = obj
	case media.Audio:
		msg.Audio = obj
	default:
		obj.Filename = up.Filename
		msg.Document = obj
	}
	return s.send(ctx, msg, o, up.ID)
}

// UploadMedia resolves src and uploads the bytes. The id is not cached.
func (s *Session) UploadMedia(ctx context.Context, src media.Source) (*UploadedMedia, error) {
	res, err := s.sender.resolver.Resolve(ctx, src)
	if err != nil {
		s.log.Warn("media resolution failed", "error", err)
		return nil, fmt.Errorf("resolving media: %w", err)
	}
	return s.upload(ctx, res)
}

func (s *Session) upload(ctx context.Context, res *media.Resolved) (*UploadedMedia, error) {
	filename := res.Filename()
	id, err := s.sender.transport.UploadMedia(ctx, res.Data, filename, res.MIME)
	if err != nil {
		s.log.Error("media upload failed", "mime", res.MIME, "bytes", len(res.Data), "error", err)
		return nil, fmt.Errorf("uploading media: %w", err)
	}
	s.log.Debug("media uploaded", "media_id", id, "mime", res.MIME, "bytes", len(res.Data))

	if s.sender.ledger != nil {
		err := s.sender.ledger.RecordUpload(store.Upload{
			MediaID:   id,
			Category:  string(res.Category),
			Recipient: s.Event.UserID,
		})
		if err != nil {
			s.log.Warn("failed to record upload", "media_id", id, "error", err)
		}
	}
	return &UploadedMedia{ID: id, Category: res.Category, Filename: filename}, nil
}

// DeleteMedia removes media from the provider.
func (s *Session) DeleteMedia(ctx context.Context, mediaID string) (bool, error) {
	ok, err := s.sender.transport.DeleteMedia(ctx, mediaID)
	if err != nil {
		s.log.Error("media delete failed", "media_id", mediaID, "error", err)
		return false, err
	}
	if ok {
		s.release(mediaID)
	}
	return ok, nil
}

func (s *Session) recipient(o options) string {
	if o.to != "" {
		return o.to
	}
	return s.Event.UserID
}

// send fills the envelope shared by all message kinds and submits it.
// mediaID, when set, is released from the ledger once the message is accepted.
func (s *Session) send(ctx context.Context, msg whatsapp.SendMessageRequest, o options, mediaID string) (string, error) {
	msg.MessagingProduct = whatsapp.MessagingProduct
	msg.RecipientType = whatsapp.RecipientIndividual
	msg.To = s.recipient(o)
	if msg.To == "" {
		return "", ErrNoRecipient
	}
	if o.reply && s.Event.ID != "" {
		msg.Context = &whatsapp.MessageContext{MessageID: s.Event.ID}
	}

	id, err := s.sender.transport.SendMessage(ctx, msg)
	if err != nil {
		s.log.Error("send failed", "type", msg.Type, "to", msg.To, "error", err)
		return "", fmt.Errorf("sending %s message: %w", msg.Type, err)
	}
	s.log.Debug("message sent", "type", msg.Type, "to", msg.To, "wamid", id)

	if mediaID != "" {
		s.release(mediaID)
	}
	return id, nil
}

func (s *Session) release(mediaID string) {
	if s.sender.ledger == nil {
		return
	}
	if err := s.sender.ledger.ReleaseUpload(mediaID); err != nil {
		s.log.Warn("failed to release upload", "media_id", mediaID, "error", err)
	}
}
