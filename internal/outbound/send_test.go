package outbound_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/as2gw/gateway/internal/outbound"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSend_Success(t *testing.T) {
	var gotAuth, gotHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if ok {
			gotAuth = user + ":" + pass
		}
		gotHeader = r.Header.Get("As2-From")
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	result, err := outbound.Send(context.Background(), srv.URL,
		map[string]string{"As2-From": "SENDERORG"}, []byte("payload"),
		"user", "pass", "", 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, result.StatusCode)
	assert.Equal(t, []byte("ok"), result.Body)
	assert.Equal(t, "user:pass", gotAuth)
	assert.Equal(t, "SENDERORG", gotHeader)
}

func TestSend_NonSuccessStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer srv.Close()

	_, err := outbound.Send(context.Background(), srv.URL, map[string]string{}, []byte("payload"),
		"", "", "", 5*time.Second)
	assert.Error(t, err)
}

func TestSend_NoBasicAuthWhenUserEmpty(t *testing.T) {
	var sawAuth bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _, sawAuth = r.BasicAuth()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	_, err := outbound.Send(context.Background(), srv.URL, map[string]string{}, []byte("payload"),
		"", "", "", 5*time.Second)
	require.NoError(t, err)
	assert.False(t, sawAuth)
}

func TestSend_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := outbound.Send(ctx, srv.URL, map[string]string{}, []byte("payload"),
		"", "", "", 5*time.Second)
	assert.Error(t, err)
}
