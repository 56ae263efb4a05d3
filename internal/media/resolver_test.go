package media

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R', 0, 0, 0, 1, 0, 0, 0, 1, 8, 2, 0, 0, 0}
	pdfHeader = []byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n1 0 obj\n<<>>\nendobj\n")
)

func TestSourceKinds(t *testing.T) {
	assert.True(t, FromString("https://cdn.example.com/a.png").IsURL())
	assert.True(t, FromString(" http://x.io/v.mp4 ").IsURL())
	assert.False(t, FromString("hello").IsURL())
	assert.False(t, FromString("ftp://x.io/file").IsURL())
	assert.False(t, FromString("/tmp/local.png").IsURL())
	assert.False(t, FromBytes(pngHeader).IsURL())
	assert.True(t, FromBytes(pngHeader).IsBytes())
	assert.True(t, Source{}.IsZero())
}

func TestSniff(t *testing.T) {
	res, err := Sniff(pngHeader)
	require.NoError(t, err)
	assert.Equal(t, Image, res.Category)
	assert.Equal(t, "image/png", res.MIME)
	assert.Equal(t, "png", res.Ext)
	assert.Equal(t, "image.png", res.Filename())

	res, err = Sniff(pdfHeader)
	require.NoError(t, err)
	assert.Equal(t, Document, res.Category)
	assert.Equal(t, "application/pdf", res.MIME)
}

func TestSniffUndetermined(t *testing.T) {
	_, err := Sniff(nil)
	assert.ErrorIs(t, err, ErrMediaTypeUndetermined)

	_, err = Sniff([]byte{0x00, 0x01, 0x02, 0x03, 0xfe, 0xff, 0x10, 0x80})
	assert.ErrorIs(t, err, ErrMediaTypeUndetermined)
}

func TestResolveURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Write(pngHeader)
	}))
	defer srv.Close()

	r := NewResolver(0)
	res, err := r.Resolve(context.Background(), FromString(srv.URL+"/pic"))
	require.NoError(t, err)
	assert.Equal(t, Image, res.Category)
	assert.Equal(t, pngHeader, res.Data)

	_, err = r.Resolve(context.Background(), FromString(srv.URL+"/missing"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestResolveRejectsOversizedBody(t *testing.T) {
	body := append(append([]byte{}, pngHeader...), make([]byte, 64)...)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/chunked" {
			// Flushing before the body is complete drops Content-Length.
			w.Write(body[:8])
			w.(http.Flusher).Flush()
			w.Write(body[8:])
			return
		}
		w.Write(body)
	}))
	defer srv.Close()

	r := NewResolver(0)
	assert.Equal(t, int64(maxFetchBytes), r.maxBytes)
	r.maxBytes = int64(len(body)) - 1

	for _, path := range []string{"/sized", "/chunked"} {
		t.Run(path, func(t *testing.T) {
			res, err := r.Resolve(context.Background(), FromString(srv.URL+path))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMediaTooLarge), "got %v", err)
			assert.Nil(t, res)
		})
	}

	r.maxBytes = int64(len(body))
	res, err := r.Resolve(context.Background(), FromString(srv.URL+"/chunked"))
	require.NoError(t, err)
	assert.Equal(t, body, res.Data, "a body exactly at the limit is accepted whole")
}

func TestResolveBytes(t *testing.T) {
	res, err := NewResolver(0).Resolve(context.Background(), FromBytes(pdfHeader))
	require.NoError(t, err)
	assert.Equal(t, Document, res.Category)
}

func TestResolveRejectsPlainText(t *testing.T) {
	_, err := NewResolver(0).Resolve(context.Background(), FromString("hello"))
	assert.Error(t, err)
}
