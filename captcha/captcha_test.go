package captcha

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestTurnstileVerify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "s3cret", r.PostForm.Get("secret"))
		assert.Equal(t, "203.0.113.9", r.PostForm.Get("remoteip"))
		if r.PostForm.Get("response") == "good" {
			_, _ = w.Write([]byte(`{"success": true, "hostname": "example.com"}`))
			return
		}
		_, _ = w.Write([]byte(`{"success": false, "error-codes": ["invalid-input-response"]}`))
	}))
	defer srv.Close()

	core, logs := observer.New(zap.InfoLevel)
	v := NewTurnstile("s3cret", srv.URL, time.Second, zap.New(core))

	assert.NoError(t, v.Verify(context.Background(), "good", "203.0.113.9"))
	assert.ErrorIs(t, v.Verify(context.Background(), "bad", "203.0.113.9"), ErrRejected)
	assert.ErrorIs(t, v.Verify(context.Background(), " ", "203.0.113.9"), ErrMissingToken)

	entries := logs.FilterMessage("captcha rejected").All()
	require.Len(t, entries, 1)
	assert.Equal(t, []interface{}{"invalid-input-response"}, entries[0].ContextMap()["codes"])
}

func TestTurnstileUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	v := NewTurnstile("s3cret", srv.URL, time.Second, zap.NewNop())
	err := v.Verify(context.Background(), "good", "")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrRejected)
}

func TestNoop(t *testing.T) {
	assert.NoError(t, Noop{}.Verify(context.Background(), "anything", ""))
	assert.ErrorIs(t, Noop{}.Verify(context.Background(), "", ""), ErrMissingToken)
}
