package sign

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sagarc03/stowry"
)

const (
	// DateTimeFormat is the compact ISO8601 timestamp both schemes embed.
	DateTimeFormat = "20060102T150405Z"
	// DateFormat is the date-only scope component.
	DateFormat = "20060102"

	// DefaultMaxExpiry caps the validity window when no policy is set.
	DefaultMaxExpiry = 7 * 24 * time.Hour
	// DefaultClockSkew widens the lower bound of the validity window to
	// tolerate issuer clocks slightly ahead of ours. It never extends the
	// upper bound.
	DefaultClockSkew = 5 * time.Second
)

// Signing-side errors are returned before any URL is produced.
// Verification-side errors all wrap stowry.ErrUnauthorized; the HTTP layer
// answers them with one generic 403 so callers cannot probe which check
// failed, while logs keep the specific kind.
var (
	ErrMalformedKey      = fmt.Errorf("object key must begin with a slash: %w", stowry.ErrInvalidInput)
	ErrInvalidExpiry     = fmt.Errorf("expiry out of allowed range: %w", stowry.ErrInvalidInput)
	ErrUnsignedRequest   = fmt.Errorf("no recognized signature parameters: %w", stowry.ErrUnauthorized)
	ErrUnknownKey        = fmt.Errorf("unknown access key: %w", stowry.ErrUnauthorized)
	ErrSignatureMismatch = fmt.Errorf("signature mismatch: %w", stowry.ErrUnauthorized)
	ErrSignatureExpired  = fmt.Errorf("signature expired: %w", stowry.ErrUnauthorized)
	ErrNotYetValid       = fmt.Errorf("signature not yet valid: %w", stowry.ErrUnauthorized)
)

// Request describes one URL to mint.
type Request struct {
	// Method is the single HTTP method the URL authorizes: GET, PUT,
	// DELETE, or HEAD.
	Method string
	// Bucket optionally namespaces the key as the leading path segment.
	Bucket string
	// Key is the object key and must begin with "/".
	Key string
	// ContentType, when set, is bound into the signature; the eventual
	// request must carry the same Content-Type header.
	ContentType string
	// Expires is the validity window, measured from IssuedAt.
	Expires time.Duration
	// IssuedAt defaults to the current time. Signing is deterministic for
	// a fixed IssuedAt.
	IssuedAt time.Time
}

// Path is the full request path the signature covers.
func (r Request) Path() string {
	if r.Bucket == "" {
		return r.Key
	}
	return "/" + r.Bucket + r.Key
}

// Scope is what a verified signature authorizes: exactly one method on
// exactly one path. The routing layer must check the inbound operation
// against it.
type Scope struct {
	Method string
	Path   string
}

// Result is a successful verification.
type Result struct {
	Key    stowry.AccessKey
	Scope  Scope
	Scheme string
}

// Token is the set of claims a presigned URL carries, extracted by a
// scheme before any cryptographic work happens.
type Token struct {
	AccessKeyID string
	IssuedAt    time.Time
	Expires     time.Duration

	// Signature is the hex signature embedded in the URL.
	Signature string

	// SignedHeaders is the semicolon-separated header list the signature
	// covers.
	SignedHeaders string

	// Region and Service are carried by the AWS scheme's credential scope;
	// the native scheme leaves them empty.
	Region  string
	Service string
}

// Scheme is one signing strategy. Both implementations share the
// canonical-request core; a scheme contributes its parameter names, its
// key derivation, and its string-to-sign layout.
type Scheme interface {
	// Name identifies the scheme in results and logs.
	Name() string

	// Presigned reports whether query carries this scheme's signature
	// parameter.
	Presigned(query url.Values) bool

	// Sign returns the complete signed query for req. The caller has
	// already validated req and filled IssuedAt.
	Sign(req Request, key stowry.AccessKey, host string) (url.Values, error)

	// Parse extracts the token embedded in query, checking only shape,
	// never secrets.
	Parse(query url.Values) (*Token, error)

	// Signature recomputes the expected hex signature for the actual
	// inbound request described by method, path, query, and headers.
	Signature(tok *Token, method, path string, query url.Values, headers http.Header, secret string) string
}

// SignerConfig configures a Signer.
type SignerConfig struct {
	// Endpoint is the gateway base URL, e.g. "https://files.example.com".
	// Its host is bound into every signature.
	Endpoint string
	// MaxExpiry is the policy ceiling for Request.Expires.
	// Defaults to DefaultMaxExpiry.
	MaxExpiry time.Duration
}

// Signer mints presigned URLs with the key source's active key.
type Signer struct {
	scheme    Scheme
	keys      stowry.KeySource
	endpoint  *url.URL
	maxExpiry time.Duration
}

func NewSigner(scheme Scheme, keys stowry.KeySource, cfg SignerConfig) (*Signer, error) {
	endpoint, err := url.Parse(cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("new signer: parse endpoint: %w", err)
	}
	if endpoint.Scheme == "" || endpoint.Host == "" {
		return nil, fmt.Errorf("new signer: endpoint must be an absolute URL: %s", cfg.Endpoint)
	}

	maxExpiry := cfg.MaxExpiry
	if maxExpiry <= 0 {
		maxExpiry = DefaultMaxExpiry
	}

	return &Signer{
		scheme:    scheme,
		keys:      keys,
		endpoint:  endpoint,
		maxExpiry: maxExpiry,
	}, nil
}

// Presign validates req and returns the full URL authorizing it. Signing
// the same req twice with the same IssuedAt yields the identical URL.
func (s *Signer) Presign(req Request) (string, error) {
	if !validMethod(req.Method) {
		return "", fmt.Errorf("presign: unsupported method %q: %w", req.Method, stowry.ErrInvalidInput)
	}
	if !strings.HasPrefix(req.Key, "/") {
		return "", fmt.Errorf("presign %q: %w", req.Key, ErrMalformedKey)
	}
	if req.Expires <= 0 || req.Expires > s.maxExpiry {
		return "", fmt.Errorf("presign: expires %s: %w", req.Expires, ErrInvalidExpiry)
	}

	if req.IssuedAt.IsZero() {
		req.IssuedAt = time.Now()
	}
	// The embedded timestamp has second precision; anything finer would
	// make sign and verify disagree on the derived key.
	req.IssuedAt = req.IssuedAt.UTC().Truncate(time.Second)

	key, err := s.keys.Active()
	if err != nil {
		return "", fmt.Errorf("presign: %w", err)
	}

	query, err := s.scheme.Sign(req, key, s.endpoint.Host)
	if err != nil {
		return "", fmt.Errorf("presign: %w", err)
	}

	return s.endpoint.Scheme + "://" + s.endpoint.Host + EncodePath(req.Path()) + "?" + EncodeQuery(query), nil
}

func validMethod(m string) bool {
	switch m {
	case http.MethodGet, http.MethodPut, http.MethodDelete, http.MethodHead:
		return true
	}
	return false
}
