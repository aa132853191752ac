package http

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/sagarc03/stowry"
	"github.com/sagarc03/stowry/sign"
)

// RequestVerifier authenticates one inbound request from its parts.
// Implemented by sign.Verifier.
type RequestVerifier interface {
	Verify(method, path string, query url.Values, headers http.Header) (sign.Result, error)
}

// AuthMiddleware enforces presigned-URL authentication. A nil verifier
// disables it (public access).
func AuthMiddleware(verifier RequestVerifier) func(http.Handler) http.Handler {
	if verifier == nil {
		return func(next http.Handler) http.Handler { return next }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Go keeps Host out of the header map; the signature covers it.
			headers := r.Header.Clone()
			headers.Set("Host", r.Host)

			result, err := verifier.Verify(r.Method, r.URL.Path, r.URL.Query(), headers)
			if err != nil {
				HandleError(w, err)
				return
			}

			// The verifier derives the scope from this same request, so a
			// mismatch here means a verifier bug, not a bad client. Reject
			// rather than trust a scope that does not cover the operation.
			if result.Scope.Method != r.Method || result.Scope.Path != r.URL.Path {
				HandleError(w, stowry.ErrUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// PathValidationMiddleware rejects paths the storage layer would refuse,
// before any authentication work happens.
func PathValidationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/")

		if path != "" && !stowry.IsValidPath(path) {
			WriteError(w, http.StatusBadRequest, "invalid_path", "Invalid path format")
			return
		}

		next.ServeHTTP(w, r)
	})
}
