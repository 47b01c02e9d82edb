package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	HeaderID        = "svix-id"
	HeaderTimestamp = "svix-timestamp"
	HeaderSignature = "svix-signature"

	// Unbranded aliases sent by Standard Webhooks producers.
	HeaderAltID        = "webhook-id"
	HeaderAltTimestamp = "webhook-timestamp"
	HeaderAltSignature = "webhook-signature"

	secretPrefix     = "whsec_"
	signatureVersion = "v1"

	// DefaultTolerance bounds clock skew between the sender and this service.
	DefaultTolerance = 5 * time.Minute
)

var (
	ErrInvalidSecret       = errors.New("webhook secret is not valid base64")
	ErrMissingHeaders      = errors.New("missing required webhook headers")
	ErrInvalidHeaders      = errors.New("invalid webhook headers")
	ErrTimestampTooOld     = errors.New("webhook timestamp too old")
	ErrTimestampTooNew     = errors.New("webhook timestamp too new")
	ErrNoMatchingSignature = errors.New("no matching webhook signature")
)

// Delivery identifies a verified message.
type Delivery struct {
	ID        string
	Timestamp time.Time
}

// Verifier checks delivery signatures against a pre-shared secret. It is safe for concurrent use.
type Verifier struct {
	key       []byte
	tolerance time.Duration
	now       func() time.Time
}

// Option customises a Verifier.
type Option func(*Verifier)

// WithTolerance overrides DefaultTolerance. Non-positive values are ignored.
func WithTolerance(d time.Duration) Option {
	return func(v *Verifier) {
		if d > 0 {
			v.tolerance = d
		}
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(v *Verifier) {
		if now != nil {
			v.now = now
		}
	}
}

// NewVerifier decodes secret ("whsec_" prefix optional) once so requests never pay for it.
func NewVerifier(secret string, opts ...Option) (*Verifier, error) {
	raw := strings.TrimPrefix(strings.TrimSpace(secret), secretPrefix)
	if raw == "" {
		return nil, ErrInvalidSecret
	}
	key, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSecret, err)
	}

	v := &Verifier{key: key, tolerance: DefaultTolerance, now: time.Now}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// Verify authenticates body against the signature headers in h.
func (v *Verifier) Verify(body []byte, h http.Header) (Delivery, error) {
	id := firstHeader(h, HeaderID, HeaderAltID)
	rawTS := firstHeader(h, HeaderTimestamp, HeaderAltTimestamp)
	rawSig := firstHeader(h, HeaderSignature, HeaderAltSignature)
	if id == "" || rawTS == "" || rawSig == "" {
		return Delivery{}, ErrMissingHeaders
	}

	secs, err := strconv.ParseInt(rawTS, 10, 64)
	if err != nil {
		return Delivery{}, fmt.Errorf("%w: timestamp %q", ErrInvalidHeaders, rawTS)
	}
	ts := time.Unix(secs, 0)

	now := v.now()
	if now.Sub(ts) > v.tolerance {
		return Delivery{}, ErrTimestampTooOld
	}
	if ts.Sub(now) > v.tolerance {
		return Delivery{}, ErrTimestampTooNew
	}

	expected := v.mac(id, rawTS, body)
	for _, entry := range strings.Fields(rawSig) {
		version, sig, ok := strings.Cut(entry, ",")
		if !ok || version != signatureVersion {
			continue
		}
		decoded, err := base64.StdEncoding.DecodeString(sig)
		if err != nil {
			continue
		}
		if hmac.Equal(decoded, expected) {
			return Delivery{ID: id, Timestamp: ts}, nil
		}
	}

	return Delivery{}, ErrNoMatchingSignature
}

// Sign returns the svix-signature header value for body. Used by tooling and tests.
func (v *Verifier) Sign(id string, ts time.Time, body []byte) string {
	sig := v.mac(id, strconv.FormatInt(ts.Unix(), 10), body)
	return signatureVersion + "," + base64.StdEncoding.EncodeToString(sig)
}

// SignedHeaders returns a header set carrying a valid signature for body.
func (v *Verifier) SignedHeaders(id string, ts time.Time, body []byte) http.Header {
	h := http.Header{}
	h.Set(HeaderID, id)
	h.Set(HeaderTimestamp, strconv.FormatInt(ts.Unix(), 10))
	h.Set(HeaderSignature, v.Sign(id, ts, body))
	return h
}

func (v *Verifier) mac(id, ts string, body []byte) []byte {
	m := hmac.New(sha256.New, v.key)
	m.Write([]byte(id))
	m.Write([]byte{'.'})
	m.Write([]byte(ts))
	m.Write([]byte{'.'})
	m.Write(body)
	return m.Sum(nil)
}

func firstHeader(h http.Header, names ...string) string {
	for _, name := range names {
		if v := strings.TrimSpace(h.Get(name)); v != "" {
			return v
		}
	}
	return ""
}
