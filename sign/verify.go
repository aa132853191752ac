package sign

import (
	"crypto/hmac"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sagarc03/stowry"
)

// VerifierConfig configures a Verifier. Zero values take the package
// defaults.
type VerifierConfig struct {
	// MaxExpiry rejects URLs claiming a window beyond policy, even when
	// correctly signed.
	MaxExpiry time.Duration
	// ClockSkew is subtracted from the window's lower bound only. The
	// upper bound is never extended.
	ClockSkew time.Duration
}

// Verifier authenticates inbound requests against presigned URLs. Every
// registered scheme is tried for parameter detection; a request carrying
// no known signature parameter is rejected as unsigned.
type Verifier struct {
	schemes   []Scheme
	keys      stowry.KeySource
	maxExpiry time.Duration
	clockSkew time.Duration
}

func NewVerifier(keys stowry.KeySource, cfg VerifierConfig, schemes ...Scheme) *Verifier {
	maxExpiry := cfg.MaxExpiry
	if maxExpiry <= 0 {
		maxExpiry = DefaultMaxExpiry
	}
	clockSkew := cfg.ClockSkew
	if clockSkew <= 0 {
		clockSkew = DefaultClockSkew
	}

	return &Verifier{
		schemes:   schemes,
		keys:      keys,
		maxExpiry: maxExpiry,
		clockSkew: clockSkew,
	}
}

// Verify authenticates one request from its method, decoded path, query,
// and headers. The canonical request is rebuilt from what actually arrived,
// never from what was originally signed, so a signature minted for one
// method or path cannot be replayed against another.
//
// Each failure short-circuits with its specific kind; no partial
// authorization is ever returned.
func (v *Verifier) Verify(method, path string, query url.Values, headers http.Header) (Result, error) {
	scheme := v.detect(query)
	if scheme == nil {
		return Result{}, fmt.Errorf("verify: %w", ErrUnsignedRequest)
	}

	tok, err := scheme.Parse(query)
	if err != nil {
		return Result{}, fmt.Errorf("verify: %w", err)
	}

	if !strings.HasPrefix(path, "/") {
		return Result{}, fmt.Errorf("verify %q: %w", path, ErrMalformedKey)
	}
	if tok.Expires <= 0 || tok.Expires > v.maxExpiry {
		return Result{}, fmt.Errorf("verify: expires %s: %w", tok.Expires, ErrInvalidExpiry)
	}

	key, err := v.keys.Resolve(tok.AccessKeyID)
	if err != nil {
		return Result{}, fmt.Errorf("verify: %w", ErrUnknownKey)
	}

	expected := scheme.Signature(tok, method, path, query, headers, key.Secret)
	if !hmac.Equal([]byte(expected), []byte(tok.Signature)) {
		return Result{}, fmt.Errorf("verify: %w", ErrSignatureMismatch)
	}

	now := time.Now().UTC()
	if now.Before(tok.IssuedAt.Add(-v.clockSkew)) {
		return Result{}, fmt.Errorf("verify: %w", ErrNotYetValid)
	}
	// Upper bound inclusive: a request at exactly IssuedAt+Expires is
	// still valid.
	if now.After(tok.IssuedAt.Add(tok.Expires)) {
		return Result{}, fmt.Errorf("verify: %w", ErrSignatureExpired)
	}

	return Result{
		Key:    key,
		Scope:  Scope{Method: method, Path: path},
		Scheme: scheme.Name(),
	}, nil
}

func (v *Verifier) detect(query url.Values) Scheme {
	for _, s := range v.schemes {
		if s.Presigned(query) {
			return s
		}
	}
	return nil
}
