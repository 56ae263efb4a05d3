package whatsapp

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const (
	signatureHeader = "X-Hub-Signature-256"
	maxPayloadBytes = 1 << 20
)

// PayloadHandler receives the raw body of each accepted webhook delivery.
type PayloadHandler func(ctx context.Context, deliveryID string, body []byte)

type WebhookHandler struct {
	verifyToken string
	appSecret   string
	onPayload   PayloadHandler
	log         *slog.Logger
}

// NewWebhookHandler builds the webhook endpoints. An empty appSecret disables
// signature verification.
func NewWebhookHandler(verifyToken, appSecret string, onPayload PayloadHandler, log *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		verifyToken: verifyToken,
		appSecret:   appSecret,
		onPayload:   onPayload,
		log:         log.With("component", "webhook"),
	}
}

// HandleVerify handles the GET webhook verification from Meta.
// Reference: https://developers.facebook.com/docs/whatsapp/cloud-api/get-started#webhook-verification
func (h *WebhookHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("hub.mode")
	token := r.URL.Query().Get("hub.verify_token")
	challenge := r.URL.Query().Get("hub.challenge")

	if mode == "subscribe" && token == h.verifyToken {
		h.log.Info("webhook verified")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(challenge))
		return
	}

	http.Error(w, "Forbidden", http.StatusForbidden)
}

// HandleIncoming processes incoming webhook POST notifications.
// Meta retries deliveries that are not acknowledged, so everything past the
// signature check answers 200 whatever happens downstream.
// Reference: https://developers.facebook.com/docs/whatsapp/cloud-api/webhooks/components
func (h *WebhookHandler) HandleIncoming(w http.ResponseWriter, r *http.Request) {
	deliveryID := uuid.NewString()
	log := h.log.With("delivery_id", deliveryID)

	body, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes+1))
	if err != nil {
		log.Warn("failed to read payload", "error", err)
		w.WriteHeader(http.StatusOK)
		return
	}
	if len(body) > maxPayloadBytes {
		log.Warn("payload too large, dropped", "limit_bytes", maxPayloadBytes, "content_length", r.ContentLength)
		w.WriteHeader(http.StatusOK)
		return
	}

	if h.appSecret != "" && !ValidSignature(h.appSecret, body, r.Header.Get(signatureHeader)) {
		log.Warn("rejected payload with invalid signature", "remote_addr", r.RemoteAddr)
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	log.Debug("delivery received", "bytes", len(body))
	h.onPayload(r.Context(), deliveryID, body)

	w.WriteHeader(http.StatusOK)
}

// ValidSignature checks the sha256=<hex> HMAC Meta computes over the raw body.
func ValidSignature(appSecret string, body []byte, header string) bool {
	sig, ok := strings.CutPrefix(header, "sha256=")
	if !ok {
		return false
	}
	got, err := hex.DecodeString(sig)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(appSecret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}
