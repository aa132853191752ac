package stowry

// AccessKey is a long-lived credential pair plus the region it signs for.
// Values are immutable once loaded; a KeySource hands out copies.
type AccessKey struct {
	ID     string `json:"access_key" yaml:"access_key" mapstructure:"access_key"`
	Secret string `json:"secret_key" yaml:"secret_key" mapstructure:"secret_key"`
	Region string `json:"region,omitempty" yaml:"region,omitempty" mapstructure:"region"`
}

// KeySource resolves access keys for signing and verification. Resolution
// happens on every authenticated request, so implementations must be safe
// for concurrent lock-free reads and must present a consistent snapshot for
// the duration of a single verification (see keyring.Store).
type KeySource interface {
	// Resolve returns the key pair for the given access key id.
	// Returns an error wrapping ErrUnauthorized if the id is unknown.
	Resolve(id string) (AccessKey, error)

	// Active returns the key pair new URLs should be signed with.
	// By convention this is the most recently configured key, so rotation
	// means adding a key: old URLs keep verifying, new URLs use the new key.
	Active() (AccessKey, error)
}
