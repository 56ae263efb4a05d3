package bot

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lojasmm/wabot/internal/event"
)

type fakeDispatcher struct {
	got []*event.Message
}

func (f *fakeDispatcher) Dispatch(_ context.Context, msg *event.Message) bool {
	f.got = append(f.got, msg)
	return true
}

type memDedup struct {
	seen map[string]bool
	err  error
}

func (m *memDedup) MarkProcessed(id string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if m.seen[id] {
		return false, nil
	}
	m.seen[id] = true
	return true, nil
}

func newTestHandler(dedup Deduper, onStatus StatusFunc) (*Handler, *fakeDispatcher) {
	d := &fakeDispatcher{}
	return NewHandler(d, dedup, onStatus, slog.New(slog.NewTextHandler(io.Discard, nil))), d
}

const textPayload = `{"entry":[{"changes":[{"value":{
	"contacts":[{"profile":{"name":"Ana"},"wa_id":"5511"}],
	"messages":[{"id":"wamid.1","type":"text","text":{"body":"!ping"}}]
}}]}]}`

func TestHandlePayloadDispatchesMessages(t *testing.T) {
	h, d := newTestHandler(nil, nil)

	h.HandlePayload(context.Background(), "d-1", []byte(textPayload))

	require.Len(t, d.got, 1)
	assert.Equal(t, "!ping", d.got[0].Text())
	assert.Equal(t, "Ana", d.got[0].UserName)
}

func TestHandlePayloadSkipsRedeliveries(t *testing.T) {
	h, d := newTestHandler(&memDedup{seen: map[string]bool{}}, nil)

	h.HandlePayload(context.Background(), "d-1", []byte(textPayload))
	h.HandlePayload(context.Background(), "d-2", []byte(textPayload))

	assert.Len(t, d.got, 1)
}

func TestHandlePayloadDedupFailureStillDispatches(t *testing.T) {
	h, d := newTestHandler(&memDedup{err: errors.New("db closed")}, nil)

	h.HandlePayload(context.Background(), "d-1", []byte(textPayload))

	assert.Len(t, d.got, 1)
}

func TestHandlePayloadStatus(t *testing.T) {
	var statuses []*event.Status
	h, d := newTestHandler(nil, func(_ context.Context, st *event.Status) {
		statuses = append(statuses, st)
	})

	h.HandlePayload(context.Background(), "d-1", []byte(`{"entry":[{"changes":[{"value":{
		"statuses":[{"id":"wamid.9","status":"read","recipient_id":"5511"}]}}]}]}`))

	assert.Empty(t, d.got)
	require.Len(t, statuses, 1)
	assert.Equal(t, "read", statuses[0].Status)
}

func TestHandlePayloadIgnoresJunk(t *testing.T) {
	h, d := newTestHandler(nil, nil)

	h.HandlePayload(context.Background(), "d-1", []byte(`garbage`))
	h.HandlePayload(context.Background(), "d-2", []byte(`{"object":"whatsapp_business_account"}`))

	assert.Empty(t, d.got)
}
