package sign_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagarc03/stowry"
	"github.com/sagarc03/stowry/keyring"
	"github.com/sagarc03/stowry/sign"
)

var testKeys = []stowry.AccessKey{
	{ID: "STWRRETIRED", Secret: "retired-secret-retired-secret", Region: "us-east-1"},
	{ID: "STWRACTIVE", Secret: "active-secret-active-secret", Region: "us-east-1"},
}

func newTestStore(t *testing.T) *keyring.Store {
	t.Helper()
	return mustStore(t, testKeys)
}

func mustStore(t *testing.T, keys []stowry.AccessKey) *keyring.Store {
	t.Helper()
	store, err := keyring.NewStore(keys)
	require.NoError(t, err)
	return store
}

func newTestSigner(t *testing.T, scheme sign.Scheme) *sign.Signer {
	t.Helper()
	signer, err := sign.NewSigner(scheme, newTestStore(t), sign.SignerConfig{
		Endpoint: "https://files.example.com",
	})
	require.NoError(t, err)
	return signer
}

func TestNewSignerEndpoint(t *testing.T) {
	store := newTestStore(t)
	scheme := sign.NewNativeScheme()

	tests := []struct {
		name     string
		endpoint string
		wantErr  bool
	}{
		{name: "absolute https", endpoint: "https://files.example.com", wantErr: false},
		{name: "absolute http with port", endpoint: "http://localhost:5708", wantErr: false},
		{name: "missing scheme", endpoint: "files.example.com", wantErr: true},
		{name: "path only", endpoint: "/files", wantErr: true},
		{name: "empty", endpoint: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sign.NewSigner(scheme, store, sign.SignerConfig{Endpoint: tt.endpoint})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestPresignValidation(t *testing.T) {
	signer := newTestSigner(t, sign.NewNativeScheme())

	tests := []struct {
		name    string
		req     sign.Request
		wantErr error
	}{
		{
			name:    "unsupported method",
			req:     sign.Request{Method: "POST", Key: "/a.txt", Expires: time.Minute},
			wantErr: stowry.ErrInvalidInput,
		},
		{
			name:    "key without leading slash",
			req:     sign.Request{Method: "GET", Key: "a.txt", Expires: time.Minute},
			wantErr: sign.ErrMalformedKey,
		},
		{
			name:    "zero expiry",
			req:     sign.Request{Method: "GET", Key: "/a.txt"},
			wantErr: sign.ErrInvalidExpiry,
		},
		{
			name:    "negative expiry",
			req:     sign.Request{Method: "GET", Key: "/a.txt", Expires: -time.Second},
			wantErr: sign.ErrInvalidExpiry,
		},
		{
			name:    "expiry over ceiling",
			req:     sign.Request{Method: "GET", Key: "/a.txt", Expires: sign.DefaultMaxExpiry + time.Second},
			wantErr: sign.ErrInvalidExpiry,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := signer.Presign(tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestPresignDeterministic(t *testing.T) {
	issued := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	for _, scheme := range []sign.Scheme{
		sign.NewNativeScheme(),
		sign.NewAWSScheme("us-east-1", "s3"),
	} {
		t.Run(scheme.Name(), func(t *testing.T) {
			signer := newTestSigner(t, scheme)
			req := sign.Request{
				Method:   "GET",
				Key:      "/reports/q3.pdf",
				Expires:  15 * time.Minute,
				IssuedAt: issued,
			}

			first, err := signer.Presign(req)
			require.NoError(t, err)
			second, err := signer.Presign(req)
			require.NoError(t, err)
			assert.Equal(t, first, second)

			req.IssuedAt = issued.Add(time.Second)
			shifted, err := signer.Presign(req)
			require.NoError(t, err)
			assert.NotEqual(t, first, shifted)
		})
	}
}

func TestPresignUsesActiveKey(t *testing.T) {
	signer := newTestSigner(t, sign.NewNativeScheme())

	u, err := signer.Presign(sign.Request{
		Method:  "GET",
		Key:     "/a.txt",
		Expires: time.Minute,
	})
	require.NoError(t, err)
	assert.Contains(t, u, "X-Stowry-Key=STWRACTIVE")
	assert.NotContains(t, u, "STWRRETIRED")
}

func TestPresignBucketPath(t *testing.T) {
	signer := newTestSigner(t, sign.NewNativeScheme())

	u, err := signer.Presign(sign.Request{
		Method:  "GET",
		Bucket:  "assets",
		Key:     "/img/logo.png",
		Expires: time.Minute,
	})
	require.NoError(t, err)
	assert.Contains(t, u, "https://files.example.com/assets/img/logo.png?")
}
