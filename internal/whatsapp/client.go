package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"
)

const DefaultGraphURL = "https://graph.facebook.com/v21.0"

type Client struct {
	graphURL      string
	phoneNumberID string
	accessToken   string
	http          *http.Client
}

// ClientConfig carries the credentials and endpoints of one phone number.
type ClientConfig struct {
	GraphURL      string // versioned Graph API root, e.g. https://graph.facebook.com/v21.0
	PhoneNumberID string
	AccessToken   string
	Timeout       time.Duration
}

func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.GraphURL == "" {
		cfg.GraphURL = DefaultGraphURL
	}
	if cfg.PhoneNumberID == "" || cfg.AccessToken == "" {
		return nil, fmt.Errorf("%w: phone number id and access token are required", ErrConfigurationMissing)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Client{
		graphURL:      strings.TrimRight(cfg.GraphURL, "/"),
		phoneNumberID: cfg.PhoneNumberID,
		accessToken:   cfg.AccessToken,
		http:          &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// apiBase is the per-phone-number endpoint root.
func (c *Client) apiBase() string {
	return c.graphURL + "/" + c.phoneNumberID
}

// SendMessage posts msg to /messages and returns the provider message id.
func (c *Client) SendMessage(ctx context.Context, msg SendMessageRequest) (string, error) {
	const op = "send_message"

	payload, err := json.Marshal(msg)
	if err != nil {
		return "", &Error{Type: ErrTransport, Op: op, Err: fmt.Errorf("marshaling message: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBase()+"/messages", bytes.NewReader(payload))
	if err != nil {
		return "", &Error{Type: ErrTransport, Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	var out sendMessageResponse
	if err := c.do(req, op, &out); err != nil {
		return "", err
	}
	if len(out.Messages) == 0 {
		return "", nil
	}
	return out.Messages[0].ID, nil
}

// UploadMedia stores data on the provider side and returns the media id.
// Reference: https://developers.facebook.com/docs/whatsapp/cloud-api/reference/media#upload-media
func (c *Client) UploadMedia(ctx context.Context, data []byte, filename, mimeType string) (string, error) {
	const op = "upload_media"

	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(filename)))
	h.Set("Content-Type", mimeType)
	part, err := w.CreatePart(h)
	if err != nil {
		return "", &Error{Type: ErrTransport, Op: op, Err: err}
	}
	if _, err := part.Write(data); err != nil {
		return "", &Error{Type: ErrTransport, Op: op, Err: err}
	}
	if err := w.WriteField("type", mimeType); err != nil {
		return "", &Error{Type: ErrTransport, Op: op, Err: err}
	}
	if err := w.WriteField("messaging_product", MessagingProduct); err != nil {
		return "", &Error{Type: ErrTransport, Op: op, Err: err}
	}
	if err := w.Close(); err != nil {
		return "", &Error{Type: ErrTransport, Op: op, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBase()+"/media", &body)
	if err != nil {
		return "", &Error{Type: ErrTransport, Op: op, Err: err}
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var out uploadMediaResponse
	if err := c.do(req, op, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", &Error{Type: ErrDecode, Op: op, Err: fmt.Errorf("response carries no media id")}
	}
	return out.ID, nil
}

// DeleteMedia removes uploaded media. It reports false when the provider
// answered 2xx without confirming the deletion.
// Reference: https://developers.facebook.com/docs/whatsapp/cloud-api/reference/media#delete-media
func (c *Client) DeleteMedia(ctx context.Context, mediaID string) (bool, error) {
	const op = "delete_media"

	u := c.graphURL + "/" + url.PathEscape(mediaID) + "?" + url.Values{"phone_number_id": {c.phoneNumberID}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, u, nil)
	if err != nil {
		return false, &Error{Type: ErrTransport, Op: op, Err: err}
	}

	var out deleteMediaResponse
	if err := c.do(req, op, &out); err != nil {
		return false, err
	}
	return out.Success, nil
}

func (c *Client) do(req *http.Request, op string, out any) error {
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Type: ErrTransport, Op: op, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Type: ErrTransport, Op: op, Err: fmt.Errorf("reading response: %w", err)}
	}

	if resp.StatusCode >= 400 {
		return &Error{Type: ErrTransport, Op: op, StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return &Error{Type: ErrDecode, Op: op, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}

func escapeQuotes(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}
