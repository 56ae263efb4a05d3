package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
)

// ErrMediaTypeUndetermined is returned when sniffing cannot classify the bytes.
var ErrMediaTypeUndetermined = errors.New("media type undetermined")

// ErrMediaTooLarge is returned when a remote body exceeds the fetch limit.
var ErrMediaTooLarge = errors.New("media too large")

const maxFetchBytes = 100 << 20

// Category is the coarse classification that selects the outbound message shape.
type Category string

const (
	Image    Category = "image"
	Video    Category = "video"
	Audio    Category = "audio"
	Document Category = "document"
)

// Source is what handlers hand to media sends: a string that may be a URL, or raw bytes.
type Source struct {
	text string
	data []byte
}

func FromString(s string) Source { return Source{text: s} }
func FromBytes(b []byte) Source  { return Source{data: b} }

func (s Source) IsBytes() bool { return s.data != nil }

// IsURL reports whether the string form is an absolute http(s) URL.
func (s Source) IsURL() bool {
	if s.IsBytes() {
		return false
	}
	u, err := url.Parse(strings.TrimSpace(s.text))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// IsZero reports whether the source carries neither a string nor bytes.
func (s Source) IsZero() bool { return s.text == "" && s.data == nil }

func (s Source) String() string { return s.text }

// Resolved is the fetched payload together with what sniffing found.
type Resolved struct {
	Data     []byte
	Ext      string // without the leading dot
	MIME     string
	Category Category
}

// Filename is a name to attach to the upload.
func (r *Resolved) Filename() string {
	if r.Ext == "" {
		return string(r.Category)
	}
	return string(r.Category) + "." + r.Ext
}

type Resolver struct {
	http     *http.Client
	maxBytes int64
}

func NewResolver(timeout time.Duration) *Resolver {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Resolver{http: &http.Client{Timeout: timeout}, maxBytes: maxFetchBytes}
}

// Resolve fetches URL sources and sniffs the content type of the bytes.
func (r *Resolver) Resolve(ctx context.Context, src Source) (*Resolved, error) {
	data := src.data
	if !src.IsBytes() {
		if !src.IsURL() {
			return nil, errors.Errorf("media source is neither a URL nor a buffer: %q", src.text)
		}
		var err error
		data, err = r.fetch(ctx, strings.TrimSpace(src.text))
		if err != nil {
			return nil, errors.Wrap(err, "fetching media")
		}
	}

	res, err := Sniff(data)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (r *Resolver) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("GET %s: status %d", rawURL, resp.StatusCode)
	}
	if resp.ContentLength > r.maxBytes {
		return nil, errors.Wrapf(ErrMediaTooLarge, "GET %s: %d bytes, limit %d", rawURL, resp.ContentLength, r.maxBytes)
	}
	// One byte past the limit tells a full body from a truncated one.
	data, err := io.ReadAll(io.LimitReader(resp.Body, r.maxBytes+1))
	if err != nil {
		return nil, errors.Wrap(err, "reading body")
	}
	if int64(len(data)) > r.maxBytes {
		return nil, errors.Wrapf(ErrMediaTooLarge, "GET %s: more than %d bytes", rawURL, r.maxBytes)
	}
	return data, nil
}

// Sniff classifies data by its leading bytes.
func Sniff(data []byte) (*Resolved, error) {
	if len(data) == 0 {
		return nil, errors.Wrap(ErrMediaTypeUndetermined, "empty buffer")
	}

	mt := mimetype.Detect(data)
	if mt.Is("application/octet-stream") {
		return nil, ErrMediaTypeUndetermined
	}

	mimeType, _, _ := strings.Cut(mt.String(), ";")
	cat, ok := categoryOf(mimeType)
	if !ok {
		return nil, errors.Wrapf(ErrMediaTypeUndetermined, "unsupported type %s", mimeType)
	}

	return &Resolved{
		Data:     data,
		Ext:      strings.TrimPrefix(mt.Extension(), "."),
		MIME:     mimeType,
		Category: cat,
	}, nil
}

func categoryOf(mimeType string) (Category, bool) {
	top, _, _ := strings.Cut(mimeType, "/")
	switch top {
	case "image":
		return Image, true
	case "video":
		return Video, true
	case "audio":
		return Audio, true
	case "application", "text":
		return Document, true
	}
	return "", false
}
