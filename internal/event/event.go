// Package event turns WhatsApp webhook payloads into the two shapes the bot
// acts on: inbound user messages and delivery statuses.
package event

// Event is either *Message or *Status.
type Event interface {
	EventID() string
	isEvent()
}

// TypeText is the message type eligible for command dispatch. Button and list
// replies are normalized to it.
const TypeText = "text"

// Message is one inbound user message reduced to plain text.
type Message struct {
	ID        string
	Timestamp string
	UserID    string
	UserName  string
	// Type is "text" for typed text and interactive replies, otherwise the
	// provider's native type (image, audio, location, ...).
	Type string
	// Body is nil when the native message carries no text sub-object.
	Body  *string
	Reply Reply
}

// Reply is the interactive origin of a message: ButtonReply or ListReply.
type Reply interface {
	ReplyID() string
	ReplyTitle() string
}

type ButtonReply struct {
	ID    string
	Title string
}

type ListReply struct {
	ID          string
	Title       string
	Description string
}

// Status is a delivery-status callback (sent, delivered, read, failed).
type Status struct {
	ID          string
	Timestamp   string
	Status      string
	RecipientID string
}

func (m *Message) EventID() string { return m.ID }
func (s *Status) EventID() string  { return s.ID }

func (*Message) isEvent() {}
func (*Status) isEvent()  {}

func (b ButtonReply) ReplyID() string    { return b.ID }
func (b ButtonReply) ReplyTitle() string { return b.Title }
func (l ListReply) ReplyID() string      { return l.ID }
func (l ListReply) ReplyTitle() string   { return l.Title }

// Text returns the body, or "" when there is none.
func (m *Message) Text() string {
	if m.Body == nil {
		return ""
	}
	return *m.Body
}

// InteractiveID is the id of the tapped button or list row, "" for free text.
func (m *Message) InteractiveID() string {
	if m.Reply == nil {
		return ""
	}
	return m.Reply.ReplyID()
}

// InteractiveDescription is set only for list replies.
func (m *Message) InteractiveDescription() string {
	if l, ok := m.Reply.(ListReply); ok {
		return l.Description
	}
	return ""
}

// MatchText is what command patterns are matched against: the interactive id
// when present, the body otherwise.
func (m *Message) MatchText() string {
	if id := m.InteractiveID(); id != "" {
		return id
	}
	return m.Text()
}
