// Package http exposes the gateway over a chi router.
//
// Routes are a flat object namespace: GET/HEAD fetch, PUT store, DELETE
// remove, and in store mode GET / lists. Read and write routes carry
// independent auth middleware, each backed by a RequestVerifier (see the
// sign package) or left nil for public access.
//
// Authorization failures are answered with a single generic 403 body;
// only the server log records which verification step rejected the
// request.
package http
