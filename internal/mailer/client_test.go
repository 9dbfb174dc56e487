package mailer

import (
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

type capturedRequest struct {
	path    string
	auth    string
	payload sendRequest
}

func startMailerStub(t *testing.T, handler fasthttp.RequestHandler) string {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := &fasthttp.Server{Handler: handler}
	go func() {
		_ = srv.Serve(ln)
	}()
	t.Cleanup(func() {
		_ = srv.Shutdown()
	})

	return "http://" + ln.Addr().String()
}

func TestSend_Success(t *testing.T) {
	var captured capturedRequest
	url := startMailerStub(t, func(ctx *fasthttp.RequestCtx) {
		captured.path = string(ctx.Path())
		captured.auth = string(ctx.Request.Header.Peek("Authorization"))
		require.NoError(t, json.Unmarshal(ctx.PostBody(), &captured.payload))

		ctx.SetContentType("application/json")
		ctx.SetBodyString(`{"ok":true,"id":"msg-123"}`)
	})

	client, err := NewClient(Config{BaseURL: url, APIKey: "secret", Timeout: time.Second})
	require.NoError(t, err)

	err = client.Send(context.Background(), "jane@example.com", "Your appointment", "<p>hi</p>")
	require.NoError(t, err)

	assert.Equal(t, "/api/v1/email/send", captured.path)
	assert.Equal(t, "Bearer secret", captured.auth)
	assert.Equal(t, "jane@example.com", captured.payload.To)
	assert.Equal(t, "Your appointment", captured.payload.Subject)
	assert.Equal(t, "<p>hi</p>", captured.payload.HTMLBody)
}

func TestSend_ProviderRejection(t *testing.T) {
	url := startMailerStub(t, func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusAccepted)
		ctx.SetContentType("application/json")
		ctx.SetBodyString(`{"ok":false,"error":"mailbox full"}`)
	})

	client, err := NewClient(Config{BaseURL: url, Timeout: time.Second})
	require.NoError(t, err)

	err = client.Send(context.Background(), "jane@example.com", "s", "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mailbox full")
}

func TestSend_UnexpectedStatus(t *testing.T) {
	url := startMailerStub(t, func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		ctx.SetBodyString("boom")
	})

	client, err := NewClient(Config{BaseURL: url, Timeout: time.Second})
	require.NoError(t, err)

	err = client.Send(context.Background(), "jane@example.com", "s", "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestSend_NoAuthHeaderWithoutKey(t *testing.T) {
	var auth string
	url := startMailerStub(t, func(ctx *fasthttp.RequestCtx) {
		auth = string(ctx.Request.Header.Peek("Authorization"))
		ctx.SetBodyString(`{"ok":true}`)
	})

	client, err := NewClient(Config{BaseURL: url, Timeout: time.Second})
	require.NoError(t, err)

	require.NoError(t, client.Send(context.Background(), "jane@example.com", "s", "b"))
	assert.Empty(t, auth)
}

func TestNewClient_RequiresURL(t *testing.T) {
	_, err := NewClient(Config{})
	assert.ErrorIs(t, err, ErrMissingURL)
}
