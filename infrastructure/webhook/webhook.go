// Package webhook implements the HMAC-signed outbound publish step,
// configured via OMEN_WEBHOOK_URL / OMEN_WEBHOOK_SECRET.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	domerrors "github.com/hoangpro/omen/domain/errors"
	"github.com/hoangpro/omen/domain/signal"
)

// Publisher POSTs a signal's canonical JSON to a configured URL, signed
// with an HMAC-SHA256 header so the receiver can verify authenticity.
type Publisher struct {
	URL        string
	Secret     string
	Client     *http.Client
	MaxRetries int
}

// New constructs a Publisher with a sane default client timeout.
func New(url, secret string) *Publisher {
	return &Publisher{
		URL:        url,
		Secret:     secret,
		Client:     &http.Client{Timeout: 10 * time.Second},
		MaxRetries: 3,
	}
}

// Publish sends sig to the configured webhook URL, making at most
// MaxRetries attempts in total. A timeout surfaces as ErrPublishTimeout; exhausting
// retries surfaces as RetriesExhaustedError carrying the attempt count.
func (p *Publisher) Publish(ctx context.Context, sig signal.OmenSignal) error {
	if p.URL == "" {
		return nil
	}

	body, err := signal.CanonicalJSON(sig)
	if err != nil {
		return domerrors.Wrap("publish", fmt.Errorf("canonicalize signal for publish: %w", err))
	}
	sum := hmac.New(sha256.New, []byte(p.Secret))
	sum.Write(body)
	signature := hex.EncodeToString(sum.Sum(nil))

	var lastErr error
	for attempt := 1; attempt <= p.MaxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.URL, bytes.NewReader(body))
		if err != nil {
			return domerrors.Wrap("publish", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Omen-Signature", "sha256="+signature)

		resp, err := p.Client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return domerrors.Wrap("publish", domerrors.ErrPublishTimeout)
			}
			lastErr = err
			continue
		}
		resp.Body.Close()
		if resp.StatusCode < 300 {
			return nil
		}
		lastErr = fmt.Errorf("webhook responded %d", resp.StatusCode)
	}

	return domerrors.Wrap("publish", &domerrors.RetriesExhaustedError{Attempts: p.MaxRetries, Cause: lastErr})
}
