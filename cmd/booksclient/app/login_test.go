package app_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/guireq/libreria-java-books/cmd/booksclient/app"
	"github.com/guireq/libreria-java-books/token"
	"github.com/stretchr/testify/require"
)

func listen(t *testing.T) *app.CallbackListener {
	t.Helper()
	l, err := app.ListenForCallback("http://127.0.0.1:0/callback")
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func get(t *testing.T, url string) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	resp.Body.Close()
	return resp.StatusCode
}

func TestCallbackListener_ReceivesCode(t *testing.T) {
	l := listen(t)

	require.Equal(t, http.StatusOK, get(t, "http://"+l.Addr()+"/callback?code=abc&state=xyz"))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	code, state, err := l.Wait(ctx)
	require.NoError(t, err)
	require.Equal(t, "abc", code)
	require.Equal(t, "xyz", state)
}

func TestCallbackListener_Denied(t *testing.T) {
	l := listen(t)

	require.Equal(t, http.StatusBadRequest, get(t, "http://"+l.Addr()+"/callback?error=access_denied&state=xyz"))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, _, err := l.Wait(ctx)
	require.ErrorIs(t, err, token.ErrAuthorizationDenied)
}

func TestCallbackListener_OtherPathsIgnored(t *testing.T) {
	l := listen(t)

	require.Equal(t, http.StatusNotFound, get(t, "http://"+l.Addr()+"/favicon.ico"))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, _, err := l.Wait(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestListenForCallback_RejectsHTTPS(t *testing.T) {
	_, err := app.ListenForCallback("https://127.0.0.1:0/callback")
	require.Error(t, err)
}
