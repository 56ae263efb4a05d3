package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lojasmm/wabot/internal/config"
	"github.com/lojasmm/wabot/internal/whatsapp"
)

func TestRouter(t *testing.T) {
	var got []byte
	webhook := whatsapp.NewWebhookHandler("verify-me", "", func(_ context.Context, _ string, body []byte) {
		got = body
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	srv := httptest.NewServer(newRouter(webhook))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))

	resp, err = http.Get(srv.URL + "/webhook?hub.mode=subscribe&hub.verify_token=verify-me&hub.challenge=42")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "42", string(body))

	resp, err = http.Post(srv.URL+"/webhook", "application/json", strings.NewReader(`{"entry":[]}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"entry":[]}`, string(got))
}

func TestBuildRegistryAndPrint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "replies.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
- pattern: hours
  reply: 9 to 18
  description: Opening hours
  category: store
- pattern: internal
  reply: hidden
  listed: false
`), 0o600))

	reg, err := buildRegistry(&config.Config{CommandPrefix: ".", RepliesFile: path})
	require.NoError(t, err)

	cmds := reg.Commands()
	require.NotEmpty(t, cmds)
	assert.Equal(t, "ping", cmds[0].Pattern)
	assert.Equal(t, "internal", cmds[len(cmds)-1].Pattern)

	var out bytes.Buffer
	require.NoError(t, printCommands(&out, reg))
	text := out.String()
	assert.Contains(t, text, ".hours")
	assert.Contains(t, text, "Opening hours")
	assert.Regexp(t, `\.delmedia\s+media\s+owner`, text)
	assert.Regexp(t, `\.internal\s+misc\s+hidden`, text)
}

func TestBuildRegistryBadReplies(t *testing.T) {
	_, err := buildRegistry(&config.Config{CommandPrefix: "!", RepliesFile: filepath.Join(t.TempDir(), "nope.yaml")})
	assert.Error(t, err)
}
