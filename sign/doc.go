// Package sign implements presigned URL issuance and verification.
//
// A Signer turns a Request (method, object key, expiry) into a URL whose
// query string embeds everything needed to authenticate it later: the
// access key id, the issue timestamp, the validity window, and an HMAC
// signature over a canonical rendering of the request. A Verifier rebuilds
// that canonical rendering from the request it actually receives and
// recomputes the signature, so a URL signed for one method and path can
// never authorize another.
//
// Two schemes share the canonical core: the native scheme (X-Stowry-*
// parameters, single-stage key derivation) and AWS Signature V4 query
// authentication (X-Amz-* parameters), which lets unmodified S3 client
// libraries presign against the gateway.
//
// Signing and verification are pure computations over immutable inputs;
// any number may run concurrently.
package sign
