package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, raw string) Event {
	t.Helper()
	ev, err := Parse([]byte(raw))
	require.NoError(t, err)
	return ev
}

func TestParseMissingValue(t *testing.T) {
	for name, raw := range map[string]string{
		"empty object":  `{}`,
		"empty entry":   `{"entry":[]}`,
		"no changes":    `{"entry":[{"id":"1"}]}`,
		"empty changes": `{"entry":[{"changes":[]}]}`,
		"no value":      `{"entry":[{"changes":[{"field":"messages"}]}]}`,
		"empty value":   `{"entry":[{"changes":[{"value":{}}]}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			assert.Nil(t, parse(t, raw))
		})
	}
}

func TestParseNotJSON(t *testing.T) {
	ev, err := Parse([]byte("<html>"))
	assert.Nil(t, ev)
	assert.ErrorIs(t, err, ErrMalformedPayload)
}

func TestTextMessage(t *testing.T) {
	ev := parse(t, `{"entry":[{"changes":[{"value":{
		"contacts":[{"profile":{"name":"Ana"},"wa_id":"5511999"}],
		"messages":[{"from":"5511999","id":"wamid.A","timestamp":"1700000000","type":"text","text":{"body":"!ping now"}}]
	}}]}]}`)

	msg, ok := ev.(*Message)
	require.True(t, ok)
	assert.Equal(t, "wamid.A", msg.ID)
	assert.Equal(t, "1700000000", msg.Timestamp)
	assert.Equal(t, "5511999", msg.UserID)
	assert.Equal(t, "Ana", msg.UserName)
	assert.Equal(t, TypeText, msg.Type)
	require.NotNil(t, msg.Body)
	assert.Equal(t, "!ping now", *msg.Body)
	assert.Empty(t, msg.InteractiveID())
	assert.Equal(t, "!ping now", msg.MatchText())
}

func TestTextMessageWithoutBody(t *testing.T) {
	ev := parse(t, `{"entry":[{"changes":[{"value":{
		"messages":[{"id":"wamid.B","type":"text","text":{}}]
	}}]}]}`)

	msg := ev.(*Message)
	assert.Nil(t, msg.Body)
	assert.Equal(t, "", msg.Text())
}

func TestNonTextMessage(t *testing.T) {
	ev := parse(t, `{"entry":[{"changes":[{"value":{
		"contacts":[{"wa_id":"5511"}],
		"messages":[{"id":"wamid.C","type":"image","image":{"id":"m1"}}]
	}}]}]}`)

	msg := ev.(*Message)
	assert.Equal(t, "image", msg.Type)
	assert.Nil(t, msg.Body)
	assert.Equal(t, "5511", msg.UserID)
	assert.Empty(t, msg.UserName, "contact without profile keeps an empty name")
}

func TestMissingContacts(t *testing.T) {
	ev := parse(t, `{"entry":[{"changes":[{"value":{
		"messages":[{"id":"wamid.D","type":"text","text":{"body":"hi"}}]
	}}]}]}`)

	msg := ev.(*Message)
	assert.Empty(t, msg.UserID)
	assert.Empty(t, msg.UserName)
	assert.Equal(t, "hi", msg.Text())
}

func TestButtonReply(t *testing.T) {
	ev := parse(t, `{"entry":[{"changes":[{"value":{
		"contacts":[{"profile":{"name":"Bia"},"wa_id":"5521"}],
		"messages":[{"id":"wamid.E","type":"interactive","interactive":{
			"type":"button_reply","button_reply":{"id":"!ping","title":"Ping"}}}]
	}}]}]}`)

	msg := ev.(*Message)
	assert.Equal(t, TypeText, msg.Type)
	assert.Equal(t, "Ping", msg.Text())
	assert.Equal(t, "!ping", msg.InteractiveID())
	assert.Empty(t, msg.InteractiveDescription())
	assert.Equal(t, "!ping", msg.MatchText())
	assert.Equal(t, ButtonReply{ID: "!ping", Title: "Ping"}, msg.Reply)
}

func TestListReply(t *testing.T) {
	ev := parse(t, `{"entry":[{"changes":[{"value":{
		"messages":[{"id":"wamid.F","type":"interactive","interactive":{
			"type":"list_reply","list_reply":{"id":"option3","title":"Option 3","description":"Third"}}}]
	}}]}]}`)

	msg := ev.(*Message)
	assert.Equal(t, TypeText, msg.Type)
	assert.Equal(t, "Option 3", msg.Text())
	assert.Equal(t, "option3", msg.InteractiveID())
	assert.Equal(t, "Third", msg.InteractiveDescription())
}

func TestUnknownInteractiveKeepsNativeType(t *testing.T) {
	ev := parse(t, `{"entry":[{"changes":[{"value":{
		"messages":[{"id":"wamid.G","type":"interactive","interactive":{"type":"nfm_reply"}}]
	}}]}]}`)

	msg := ev.(*Message)
	assert.Equal(t, "interactive", msg.Type)
	assert.Nil(t, msg.Body)
	assert.Nil(t, msg.Reply)
}

func TestStatus(t *testing.T) {
	ev := parse(t, `{"entry":[{"changes":[{"value":{
		"statuses":[{"id":"wamid.H","status":"delivered","timestamp":"1700000001","recipient_id":"5511"}]
	}}]}]}`)

	st, ok := ev.(*Status)
	require.True(t, ok)
	assert.Equal(t, &Status{ID: "wamid.H", Status: "delivered", Timestamp: "1700000001", RecipientID: "5511"}, st)
	assert.Equal(t, "wamid.H", st.EventID())
}

func TestMessagesTakePriorityOverStatuses(t *testing.T) {
	ev := parse(t, `{"entry":[{"changes":[{"value":{
		"messages":[{"id":"wamid.I","type":"text","text":{"body":"x"}}],
		"statuses":[{"id":"wamid.J","status":"read"}]
	}}]}]}`)

	_, ok := ev.(*Message)
	assert.True(t, ok)
}
