package event

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lojasmm/wabot/internal/whatsapp"
)

// ErrMalformedPayload is returned by Parse when the body is not a webhook JSON document.
var ErrMalformedPayload = errors.New("malformed webhook payload")

const (
	interactiveButtonReply = "button_reply"
	interactiveListReply   = "list_reply"
)

// Parse decodes raw webhook bytes and normalizes them. A nil Event with a nil
// error means the payload is valid JSON but carries nothing to act on.
func Parse(raw []byte) (Event, error) {
	var payload whatsapp.WebhookPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return Normalize(&payload), nil
}

// Normalize reduces entry[0].changes[0].value to a *Message or *Status.
// It returns nil when the value is absent or holds neither messages nor statuses.
func Normalize(payload *whatsapp.WebhookPayload) Event {
	value := firstValue(payload)
	if value == nil {
		return nil
	}

	if len(value.Messages) > 0 {
		return normalizeMessage(value.Messages[0], value.Contacts)
	}
	if len(value.Statuses) > 0 {
		s := value.Statuses[0]
		return &Status{
			ID:          s.ID,
			Timestamp:   s.Timestamp,
			Status:      s.Status,
			RecipientID: s.RecipientID,
		}
	}
	return nil
}

func firstValue(payload *whatsapp.WebhookPayload) *whatsapp.ChangeValue {
	if payload == nil || len(payload.Entry) == 0 {
		return nil
	}
	changes := payload.Entry[0].Changes
	if len(changes) == 0 {
		return nil
	}
	return changes[0].Value
}

func normalizeMessage(msg whatsapp.Message, contacts []whatsapp.Contact) *Message {
	m := &Message{
		ID:        msg.ID,
		Timestamp: msg.Timestamp,
		Type:      msg.Type,
	}

	if len(contacts) > 0 {
		m.UserID = contacts[0].WaID
		if contacts[0].Profile != nil {
			m.UserName = contacts[0].Profile.Name
		}
	}

	if reply := interactiveReply(msg.Interactive); reply != nil {
		title := reply.ReplyTitle()
		m.Type = TypeText
		m.Body = &title
		m.Reply = reply
		return m
	}

	if msg.Text != nil && msg.Text.Body != nil {
		body := *msg.Text.Body
		m.Body = &body
	}
	return m
}

func interactiveReply(in *whatsapp.InteractiveContent) Reply {
	if in == nil {
		return nil
	}
	switch {
	case in.Type == interactiveButtonReply && in.ButtonReply != nil:
		return ButtonReply{ID: in.ButtonReply.ID, Title: in.ButtonReply.Title}
	case in.Type == interactiveListReply && in.ListReply != nil:
		return ListReply{ID: in.ListReply.ID, Title: in.ListReply.Title, Description: in.ListReply.Description}
	}
	return nil
}
