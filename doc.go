// Package stowry is a lightweight object storage gateway authenticated
// entirely through presigned URLs.
//
// A holder of an access key pair mints a short-lived URL scoped to one
// method and one object key. Anyone holding that URL can perform exactly
// that operation against the gateway, which verifies the request from the
// URL itself plus its configured key set. No sessions, no per-request
// database lookups beyond key-id resolution.
//
// Two signing schemes are supported: Stowry's native scheme and AWS
// Signature V4 query authentication, so stock S3 client libraries work
// unmodified. See the sign package for the engine and the keyring package
// for key storage.
//
// The root package holds the domain types, the sentinel errors, and the
// contracts (MetaDataRepo, FileStorage, KeySource) that the subpackages
// implement.
package stowry
