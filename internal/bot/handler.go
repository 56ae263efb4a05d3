package bot

import (
	"context"
	"errors"
	"log/slog"

	"github.com/lojasmm/wabot/internal/event"
)

// Dispatcher runs the command matching a message.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg *event.Message) bool
}

// Deduper remembers webhook message ids already handled.
type Deduper interface {
	MarkProcessed(messageID string) (bool, error)
}

// StatusFunc observes delivery-status callbacks.
type StatusFunc func(ctx context.Context, st *event.Status)

type Handler struct {
	dispatcher Dispatcher
	dedup      Deduper
	onStatus   StatusFunc
	log        *slog.Logger
}

// NewHandler builds the webhook consumer. dedup and onStatus may be nil.
func NewHandler(d Dispatcher, dedup Deduper, onStatus StatusFunc, log *slog.Logger) *Handler {
	return &Handler{
		dispatcher: d,
		dedup:      dedup,
		onStatus:   onStatus,
		log:        log.With("component", "bot"),
	}
}

// HandlePayload is the whatsapp.PayloadHandler of the webhook endpoint. It
// never fails: anything unrecognized is logged and skipped.
func (h *Handler) HandlePayload(ctx context.Context, deliveryID string, body []byte) {
	log := h.log.With("delivery_id", deliveryID)

	ev, err := event.Parse(body)
	if err != nil {
		if errors.Is(err, event.ErrMalformedPayload) {
			log.Warn("ignoring malformed payload", "error", err)
			return
		}
		log.Error("failed to parse payload", "error", err)
		return
	}

	switch ev := ev.(type) {
	case *event.Message:
		h.handleMessage(ctx, log, ev)
	case *event.Status:
		log.Info("delivery status", "wamid", ev.ID, "status", ev.Status, "recipient_id", ev.RecipientID)
		if h.onStatus != nil {
			h.onStatus(ctx, ev)
		}
	default:
		log.Debug("payload carries no message or status")
	}
}

func (h *Handler) handleMessage(ctx context.Context, log *slog.Logger, msg *event.Message) {
	log = log.With("message_id", msg.ID, "user_id", msg.UserID, "type", msg.Type)

	if h.dedup != nil && msg.ID != "" {
		fresh, err := h.dedup.MarkProcessed(msg.ID)
		if err != nil {
			log.Warn("dedup store error, processing anyway", "error", err)
		} else if !fresh {
			log.Info("skipping redelivered message")
			return
		}
	}

	log.Info("message received", "user_name", msg.UserName, "interactive_id", msg.InteractiveID())
	if !h.dispatcher.Dispatch(ctx, msg) {
		log.Debug("message not dispatched")
	}
}
