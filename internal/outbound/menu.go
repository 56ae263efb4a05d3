package outbound

import (
	"context"
	"errors"
	"fmt"

	"github.com/lojasmm/wabot/internal/media"
	"github.com/lojasmm/wabot/internal/whatsapp"
)

// Provider limits for interactive messages.
// Reference: https://developers.facebook.com/docs/whatsapp/cloud-api/messages/interactive-reply-buttons-messages
const (
	MaxButtons  = 3
	MaxSections = 10
	MaxRows     = 10
)

// ErrInvalidMenu is returned for menus the provider would reject.
var ErrInvalidMenu = errors.New("invalid menu")

// ButtonMenu is a body text with up to MaxButtons reply buttons.
type ButtonMenu struct {
	Text    string
	Buttons []Button
	// Media, when set, is uploaded and shown as the header.
	Media  media.Source
	Footer string
}

type Button struct {
	ID    string // Sent back as the interactive id when tapped
	Title string // Max 20 chars (WhatsApp limit)
}

// ListMenu opens a list of sections behind a single button.
type ListMenu struct {
	Header   string
	Body     string
	Footer   string
	Button   string // Text on the button that opens the list (max 20 chars)
	Sections []ListSection
}

type ListSection struct {
	Title string // Max 24 chars
	Rows  []ListRow
}

type ListRow struct {
	ID          string
	Title       string // Max 24 chars
	Description string // Max 72 chars
}

// SendButtonMenu sends an interactive "button" message.
func (s *Session) SendButtonMenu(ctx context.Context, menu ButtonMenu, opts ...Option) (string, error) {
	if len(menu.Buttons) == 0 || len(menu.Buttons) > MaxButtons {
		return "", fmt.Errorf("%w: %d buttons, want 1 to %d", ErrInvalidMenu, len(menu.Buttons), MaxButtons)
	}

	o := collect(opts)
	in := &whatsapp.Interactive{
		Type:   "button",
		Body:   whatsapp.InteractiveBody{Text: menu.Text},
		Footer: footer(menu.Footer),
		Action: whatsapp.InteractiveAction{Buttons: toWAButtons(menu.Buttons)},
	}

	var mediaID string
	if !menu.Media.IsZero() {
		header, id, err := s.mediaHeader(ctx, menu.Media)
		if err != nil {
			return "", err
		}
		in.Header = header
		mediaID = id
	}

	return s.send(ctx, whatsapp.SendMessageRequest{Type: "interactive", Interactive: in}, o, mediaID)
}

// SendListMenu sends an interactive "list" message.
func (s *Session) SendListMenu(ctx context.Context, menu ListMenu, opts ...Option) (string, error) {
	if err := validateList(menu); err != nil {
		return "", err
	}

	o := collect(opts)
	in := &whatsapp.Interactive{
		Type:   "list",
		Body:   whatsapp.InteractiveBody{Text: menu.Body},
		Footer: footer(menu.Footer),
		Action: whatsapp.InteractiveAction{
			Button:   menu.Button,
			Sections: toWASections(menu.Sections),
		},
	}
	if menu.Header != "" {
		in.Header = &whatsapp.InteractiveHeader{Type: "text", Text: menu.Header}
	}

	return s.send(ctx, whatsapp.SendMessageRequest{Type: "interactive", Interactive: in}, o, "")
}

// mediaHeader uploads src for use as an interactive header. Audio cannot be a header.
func (s *Session) mediaHeader(ctx context.Context, src media.Source) (*whatsapp.InteractiveHeader, string, error) {
	if !src.IsBytes() && !src.IsURL() {
		return nil, "", fmt.Errorf("%w: header media %q is not a URL", ErrInvalidMenu, src.String())
	}
	res, err := s.sender.resolver.Resolve(ctx, src)
	if err != nil {
		return nil, "", fmt.Errorf("resolving header media: %w", err)
	}
	if res.Category == media.Audio {
		return nil, "", fmt.Errorf("%w: audio cannot be used as a header", ErrInvalidMenu)
	}

	up, err := s.upload(ctx, res)
	if err != nil {
		return nil, "", err
	}

	h := &whatsapp.InteractiveHeader{Type: string(up.Category)}
	obj := &whatsapp.MediaObject{ID: up.ID}
	switch up.Category {
	case media.Image:
		h.Image = obj
	case media.Video:
		h.Video = obj
	default:
		obj.Filename = up.Filename
		h.Document = obj
	}
	return h, up.ID, nil
}

func validateList(menu ListMenu) error {
	if menu.Button == "" {
		return fmt.Errorf("%w: list button label is required", ErrInvalidMenu)
	}
	if len(menu.Sections) == 0 || len(menu.Sections) > MaxSections {
		return fmt.Errorf("%w: %d sections, want 1 to %d", ErrInvalidMenu, len(menu.Sections), MaxSections)
	}
	rows := 0
	for _, sec := range menu.Sections {
		if len(sec.Rows) == 0 {
			return fmt.Errorf("%w: section %q has no rows", ErrInvalidMenu, sec.Title)
		}
		rows += len(sec.Rows)
	}
	if rows > MaxRows {
		return fmt.Errorf("%w: %d rows, want at most %d", ErrInvalidMenu, rows, MaxRows)
	}
	return nil
}

func footer(text string) *whatsapp.InteractiveFooter {
	if text == "" {
		return nil
	}
	return &whatsapp.InteractiveFooter{Text: text}
}

func toWAButtons(buttons []Button) []whatsapp.Button {
	wa := make([]whatsapp.Button, len(buttons))
	for i, b := range buttons {
		wa[i] = whatsapp.Button{
			Type:  "reply",
			Reply: whatsapp.ButtonReply{ID: b.ID, Title: b.Title},
		}
	}
	return wa
}

func toWASections(sections []ListSection) []whatsapp.Section {
	wa := make([]whatsapp.Section, len(sections))
	for i, s := range sections {
		rows := make([]whatsapp.SectionRow, len(s.Rows))
		for j, r := range s.Rows {
			rows[j] = whatsapp.SectionRow{ID: r.ID, Title: r.Title, Description: r.Description}
		}
		wa[i] = whatsapp.Section{Title: s.Title, Rows: rows}
	}
	return wa
}
