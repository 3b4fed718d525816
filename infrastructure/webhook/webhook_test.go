package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domerrors "github.com/hoangpro/omen/domain/errors"
	"github.com/hoangpro/omen/domain/signal"
)

func TestPublisher_PublishEmptyURLIsNoOp(t *testing.T) {
	p := New("", "secret")
	err := p.Publish(context.Background(), signal.OmenSignal{SignalID: "OMEN-1"})
	assert.NoError(t, err)
}

func TestPublisher_PublishSignsBodyWithHMAC(t *testing.T) {
	secret := "topsecret"
	var gotSig string
	var gotBody []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get("X-Omen-Signature")
		buf := make([]byte, r.ContentLength)
		r.Body.Read(buf)
		gotBody = buf
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := New(srv.URL, secret)
	err := p.Publish(context.Background(), signal.OmenSignal{SignalID: "OMEN-1"})
	require.NoError(t, err)

	sum := hmac.New(sha256.New, []byte(secret))
	sum.Write(gotBody)
	want := "sha256=" + hex.EncodeToString(sum.Sum(nil))
	assert.Equal(t, want, gotSig)
}

func TestPublisher_PublishRetriesOnServerErrorThenExhausts(t *testing.T) {
	var attempts int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := New(srv.URL, "secret")
	p.MaxRetries = 2

	err := p.Publish(context.Background(), signal.OmenSignal{SignalID: "OMEN-1"})
	require.Error(t, err)
	assert.Equal(t, 2, attempts)

	var retriesErr *domerrors.RetriesExhaustedError
	require.ErrorAs(t, err, &retriesErr)
	assert.Equal(t, 2, retriesErr.Attempts)
}

func TestPublisher_PublishSucceedsOnFirstTry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	p := New(srv.URL, "secret")
	err := p.Publish(context.Background(), signal.OmenSignal{SignalID: "OMEN-1"})
	assert.NoError(t, err)
}
