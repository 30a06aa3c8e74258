package jwks

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"testing"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/user-api/internal/jwtest"
)

func TestParseKeySet(t *testing.T) {
	k1 := jwtest.NewSigner(t, "k1")
	k2 := jwtest.NewSigner(t, "k2")

	t.Run("indexes keys by kid", func(t *testing.T) {
		data := jwtest.KeySetJSON(t, k1.PublicJWK(t), k2.PublicJWK(t))

		ks, err := ParseKeySet(data)
		require.NoError(t, err)

		assert.Equal(t, 2, ks.Len())
		assert.Equal(t, []string{"k1", "k2"}, ks.KeyIDs())

		key, ok := ks.Find("k2")
		require.True(t, ok)
		assert.Equal(t, "k2", key.KeyID())

		_, ok = ks.Find("unknown")
		assert.False(t, ok)
	})

	t.Run("first key wins on duplicate kid", func(t *testing.T) {
		dup := jwtest.NewSigner(t, "k1")
		data := jwtest.KeySetJSON(t, k1.PublicJWK(t), dup.PublicJWK(t))

		ks, err := ParseKeySet(data)
		require.NoError(t, err)
		assert.Equal(t, 2, ks.Len())
		assert.Equal(t, []string{"k1"}, ks.KeyIDs())

		key, ok := ks.Find("k1")
		require.True(t, ok)

		want, err := k1.PublicJWK(t).Thumbprint(crypto.SHA256)
		require.NoError(t, err)
		got, err := key.Thumbprint(crypto.SHA256)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("keys without kid are not selectable", func(t *testing.T) {
		anon := jwtest.NewSigner(t, "")
		data := jwtest.KeySetJSON(t, anon.PublicJWK(t))

		ks, err := ParseKeySet(data)
		require.NoError(t, err)
		assert.Equal(t, 1, ks.Len())
		assert.Empty(t, ks.KeyIDs())

		_, ok := ks.Find("")
		assert.False(t, ok)
	})

	t.Run("non RSA keys are indexed too", func(t *testing.T) {
		ecKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		require.NoError(t, err)
		ecJWK, err := jwk.FromRaw(&ecKey.PublicKey)
		require.NoError(t, err)
		require.NoError(t, ecJWK.Set(jwk.KeyIDKey, "ec1"))

		ks, err := ParseKeySet(jwtest.KeySetJSON(t, ecJWK))
		require.NoError(t, err)

		_, ok := ks.Find("ec1")
		assert.True(t, ok)
	})

	t.Run("malformed documents", func(t *testing.T) {
		tests := []struct {
			name  string
			input string
		}{
			{"empty", ""},
			{"not json", "not json at all"},
			{"truncated", `{"keys": [`},
			{"keys not an array", `{"keys": "nope"}`},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				ks, err := ParseKeySet([]byte(tt.input))
				assert.Nil(t, ks)
				assert.ErrorIs(t, err, ErrFetch)
			})
		}
	})
}

func TestKeySet_NilSafe(t *testing.T) {
	var ks *KeySet

	assert.Equal(t, 0, ks.Len())
	assert.Nil(t, ks.KeyIDs())

	_, ok := ks.Find("k1")
	assert.False(t, ok)

	empty := NewKeySet(nil)
	assert.Equal(t, 0, empty.Len())
}
