package sign_test

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagarc03/stowry"
	"github.com/sagarc03/stowry/sign"
)

func nativeQuery() url.Values {
	q := url.Values{}
	q.Set(sign.ParamStowryKey, "STWRACTIVE")
	q.Set(sign.ParamStowryDate, "20260829T120000Z")
	q.Set(sign.ParamStowryExpires, "900")
	q.Set(sign.ParamStowrySignature, "deadbeef")
	return q
}

func TestNativePresigned(t *testing.T) {
	scheme := sign.NewNativeScheme()

	assert.True(t, scheme.Presigned(nativeQuery()))
	assert.False(t, scheme.Presigned(url.Values{}))

	q := nativeQuery()
	q.Del(sign.ParamStowrySignature)
	assert.False(t, scheme.Presigned(q))
}

func TestNativeParse(t *testing.T) {
	scheme := sign.NewNativeScheme()

	t.Run("valid", func(t *testing.T) {
		tok, err := scheme.Parse(nativeQuery())
		require.NoError(t, err)
		assert.Equal(t, "STWRACTIVE", tok.AccessKeyID)
		assert.Equal(t, time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC), tok.IssuedAt)
		assert.Equal(t, 15*time.Minute, tok.Expires)
		assert.Equal(t, "deadbeef", tok.Signature)
		assert.Equal(t, "host", tok.SignedHeaders)
	})

	t.Run("signed header list carried", func(t *testing.T) {
		q := nativeQuery()
		q.Set(sign.ParamStowrySignedHeaders, "content-type;host")

		tok, err := scheme.Parse(q)
		require.NoError(t, err)
		assert.Equal(t, "content-type;host", tok.SignedHeaders)
	})

	tests := []struct {
		name   string
		mutate func(url.Values)
	}{
		{name: "missing key", mutate: func(q url.Values) { q.Del(sign.ParamStowryKey) }},
		{name: "missing date", mutate: func(q url.Values) { q.Del(sign.ParamStowryDate) }},
		{name: "missing expires", mutate: func(q url.Values) { q.Del(sign.ParamStowryExpires) }},
		{name: "missing signature", mutate: func(q url.Values) { q.Del(sign.ParamStowrySignature) }},
		{name: "bad date format", mutate: func(q url.Values) { q.Set(sign.ParamStowryDate, "2026-08-29T12:00:00Z") }},
		{name: "non-numeric expires", mutate: func(q url.Values) { q.Set(sign.ParamStowryExpires, "soon") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := nativeQuery()
			tt.mutate(q)
			_, err := scheme.Parse(q)
			assert.ErrorIs(t, err, stowry.ErrUnauthorized)
		})
	}
}

func TestNativeSignatureContentType(t *testing.T) {
	signer := newTestSigner(t, sign.NewNativeScheme())
	issued := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	plain, err := signer.Presign(sign.Request{
		Method:   "PUT",
		Key:      "/a.txt",
		Expires:  time.Minute,
		IssuedAt: issued,
	})
	require.NoError(t, err)

	typed, err := signer.Presign(sign.Request{
		Method:      "PUT",
		Key:         "/a.txt",
		ContentType: "text/plain",
		Expires:     time.Minute,
		IssuedAt:    issued,
	})
	require.NoError(t, err)

	// Binding the content type must change the signature.
	assert.NotEqual(t, plain, typed)
}
