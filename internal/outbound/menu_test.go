package outbound

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lojasmm/wabot/internal/media"
)

func TestSendButtonMenu(t *testing.T) {
	f := newFixture(media.Image, "image/png")

	_, err := f.session.SendButtonMenu(context.Background(), ButtonMenu{
		Text: "Please choose an option:",
		Buttons: []Button{
			{ID: "!ping", Title: "Option 1"},
			{ID: "button2", Title: "Option 2"},
		},
	})
	require.NoError(t, err)

	msg := f.transport.sent[0]
	assert.Equal(t, "interactive", msg.Type)
	raw, err := json.Marshal(msg.Interactive)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type": "button",
		"body": {"text": "Please choose an option:"},
		"action": {"buttons": [
			{"type": "reply", "reply": {"id": "!ping", "title": "Option 1"}},
			{"type": "reply", "reply": {"id": "button2", "title": "Option 2"}}
		]}
	}`, string(raw))
	assert.Empty(t, f.transport.uploads)
}

func TestSendButtonMenuWithMediaHeader(t *testing.T) {
	f := newFixture(media.Video, "video/mp4")

	_, err := f.session.SendButtonMenu(context.Background(), ButtonMenu{
		Text:    "Watch and choose",
		Media:   media.FromString("https://cdn.example.com/clip.mp4"),
		Footer:  "This is footer",
		Buttons: []Button{{ID: "a", Title: "A"}},
	}, AsReply())
	require.NoError(t, err)

	require.Equal(t, []string{"video/mp4"}, f.transport.uploads)
	in := f.transport.sent[0].Interactive
	require.NotNil(t, in.Header)
	assert.Equal(t, "video", in.Header.Type)
	assert.Equal(t, "media-1", in.Header.Video.ID)
	assert.Equal(t, "This is footer", in.Footer.Text)
	assert.Equal(t, "wamid.in", f.transport.sent[0].Context.MessageID)
	assert.Empty(t, f.ledger.recorded)
}

func TestSendButtonMenuRejectsAudioHeader(t *testing.T) {
	f := newFixture(media.Audio, "audio/ogg")

	_, err := f.session.SendButtonMenu(context.Background(), ButtonMenu{
		Text:    "x",
		Media:   media.FromBytes([]byte("OggS")),
		Buttons: []Button{{ID: "a", Title: "A"}},
	})
	assert.ErrorIs(t, err, ErrInvalidMenu)
	assert.Empty(t, f.transport.uploads)
}

func TestSendButtonMenuLimits(t *testing.T) {
	f := newFixture(media.Image, "image/png")

	_, err := f.session.SendButtonMenu(context.Background(), ButtonMenu{Text: "none"})
	assert.ErrorIs(t, err, ErrInvalidMenu)

	_, err = f.session.SendButtonMenu(context.Background(), ButtonMenu{
		Text:    "too many",
		Buttons: []Button{{ID: "1"}, {ID: "2"}, {ID: "3"}, {ID: "4"}},
	})
	assert.ErrorIs(t, err, ErrInvalidMenu)
	assert.Empty(t, f.transport.sent)
}

func TestSendListMenu(t *testing.T) {
	f := newFixture(media.Image, "image/png")

	menu := ListMenu{
		Header: "Choose an option",
		Body:   "Please select an option from the list below:",
		Footer: "Footer text here",
		Button: "View Options",
		Sections: []ListSection{
			{Title: "Section 1", Rows: []ListRow{
				{ID: "option1", Title: "Option 1", Description: "Description for option 1"},
				{ID: "option2", Title: "Option 2", Description: "Description for option 2"},
			}},
			{Title: "Section 2", Rows: []ListRow{
				{ID: "option3", Title: "Option 3", Description: "Description for option 3"},
				{ID: "option4", Title: "Option 4"},
			}},
		},
	}
	_, err := f.session.SendListMenu(context.Background(), menu)
	require.NoError(t, err)

	raw, err := json.Marshal(f.transport.sent[0].Interactive)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type": "list",
		"header": {"type": "text", "text": "Choose an option"},
		"body": {"text": "Please select an option from the list below:"},
		"footer": {"text": "Footer text here"},
		"action": {
			"button": "View Options",
			"sections": [
				{"title": "Section 1", "rows": [
					{"id": "option1", "title": "Option 1", "description": "Description for option 1"},
					{"id": "option2", "title": "Option 2", "description": "Description for option 2"}
				]},
				{"title": "Section 2", "rows": [
					{"id": "option3", "title": "Option 3", "description": "Description for option 3"},
					{"id": "option4", "title": "Option 4", "description": ""}
				]}
			]
		}
	}`, string(raw))
}

func TestSendListMenuValidation(t *testing.T) {
	f := newFixture(media.Image, "image/png")
	ctx := context.Background()

	_, err := f.session.SendListMenu(ctx, ListMenu{Body: "b", Sections: []ListSection{{Title: "s", Rows: []ListRow{{ID: "1"}}}}})
	assert.ErrorIs(t, err, ErrInvalidMenu, "button label required")

	_, err = f.session.SendListMenu(ctx, ListMenu{Body: "b", Button: "open"})
	assert.ErrorIs(t, err, ErrInvalidMenu, "sections required")

	_, err = f.session.SendListMenu(ctx, ListMenu{Body: "b", Button: "open", Sections: []ListSection{{Title: "empty"}}})
	assert.ErrorIs(t, err, ErrInvalidMenu, "rows required")

	rows := make([]ListRow, MaxRows+1)
	_, err = f.session.SendListMenu(ctx, ListMenu{Body: "b", Button: "open", Sections: []ListSection{{Title: "big", Rows: rows}}})
	assert.ErrorIs(t, err, ErrInvalidMenu, "row limit")

	assert.Empty(t, f.transport.sent)
}
