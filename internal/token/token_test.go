// File: internal/token/token_test.go
package token

import (
	"encoding/base64"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeJWT builds an unsigned-but-well-formed JWT with the given payload JSON.
func makeJWT(t *testing.T, payloadJSON string) string {
	t.Helper()
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"RS256","typ":"JWT"}`))
	payload := base64.RawURLEncoding.EncodeToString([]byte(payloadJSON))
	return fmt.Sprintf("%s.%s.%s", header, payload, "sig")
}

func TestIsJWT(t *testing.T) {
	valid := makeJWT(t, `{"tenant":"gminaX"}`)

	assert.True(t, IsJWT(valid))
	assert.False(t, IsJWT(""))
	assert.False(t, IsJWT("a.b"))
	assert.False(t, IsJWT("a.b.c.d"))
	assert.False(t, IsJWT("a..c"))
	assert.False(t, IsJWT(".b.c"))
	assert.False(t, IsJWT("a.b."))
	// Segment contents are deliberately not inspected.
	assert.True(t, IsJWT("not.base64.really"))
}

func TestDecodePayload(t *testing.T) {
	t.Run("decodes unpadded base64url", func(t *testing.T) {
		jwtStr := makeJWT(t, `{"tenant":"powiatY","exp":1893456000}`)

		claims, err := DecodePayload(jwtStr)
		require.NoError(t, err)
		assert.Equal(t, "powiatY", claims["tenant"])

		exp, err := claims.GetExpirationTime()
		require.NoError(t, err)
		assert.Equal(t, int64(1893456000), exp.Unix())
	})

	t.Run("rejects wrong segment count", func(t *testing.T) {
		_, err := DecodePayload("onlyonesegment")
		assert.ErrorIs(t, err, ErrPayloadDecode)
	})

	t.Run("rejects invalid base64", func(t *testing.T) {
		_, err := DecodePayload("aGVhZA.!!!not-base64!!!.c2ln")
		assert.ErrorIs(t, err, ErrPayloadDecode)
	})

	t.Run("rejects non-object payload", func(t *testing.T) {
		scalar := base64.RawURLEncoding.EncodeToString([]byte(`"just a string"`))
		_, err := DecodePayload(fmt.Sprintf("h.%s.s", scalar))
		assert.ErrorIs(t, err, ErrPayloadDecode)
	})
}

func TestExtract(t *testing.T) {
	jwtStr := makeJWT(t, `{"tenant":"gminaX"}`)

	t.Run("string element in Tokens", func(t *testing.T) {
		raw := fmt.Sprintf(`{"Tokens":[%q]}`, jwtStr)

		rec, err := Extract([]byte(raw))
		require.NoError(t, err)
		assert.Equal(t, jwtStr, rec.JWT)
		assert.Equal(t, "gminaX", rec.Tenant)
		assert.Equal(t, "gminaX", rec.Payload["tenant"])
	})

	t.Run("lower-case tokens fallback", func(t *testing.T) {
		raw := fmt.Sprintf(`{"tokens":[%q]}`, jwtStr)

		rec, err := Extract([]byte(raw))
		require.NoError(t, err)
		assert.Equal(t, jwtStr, rec.JWT)
	})

	t.Run("object element probed by candidate keys", func(t *testing.T) {
		raw := fmt.Sprintf(`{"Tokens":[{"AccessToken":%q,"Other":"x"}]}`, jwtStr)

		rec, err := Extract([]byte(raw))
		require.NoError(t, err)
		assert.Equal(t, jwtStr, rec.JWT)
	})

	t.Run("single object treated as one-element collection", func(t *testing.T) {
		raw := fmt.Sprintf(`{"Tokens":{"Token":%q}}`, jwtStr)

		rec, err := Extract([]byte(raw))
		require.NoError(t, err)
		assert.Equal(t, jwtStr, rec.JWT)
	})

	t.Run("first well-formed JWT wins", func(t *testing.T) {
		second := makeJWT(t, `{"tenant":"other"}`)
		raw := fmt.Sprintf(`{"Tokens":["not-a-jwt", %q, %q]}`, jwtStr, second)

		rec, err := Extract([]byte(raw))
		require.NoError(t, err)
		assert.Equal(t, jwtStr, rec.JWT)
		assert.Equal(t, "gminaX", rec.Tenant)
	})

	t.Run("malformed payload", func(t *testing.T) {
		_, err := Extract([]byte(`{{{`))
		assert.ErrorIs(t, err, ErrMalformedPayload)
	})

	t.Run("tokens field missing", func(t *testing.T) {
		_, err := Extract([]byte(`{"Something":"else"}`))
		assert.ErrorIs(t, err, ErrTokensFieldMissing)

		_, err = Extract([]byte(`{"Tokens":null}`))
		assert.ErrorIs(t, err, ErrTokensFieldMissing)
	})

	t.Run("no JWT in tokens", func(t *testing.T) {
		_, err := Extract([]byte(`{"Tokens":["garbage", {"Token":"also-garbage"}]}`))
		assert.ErrorIs(t, err, ErrJWTNotFound)
	})

	t.Run("tenant claim missing", func(t *testing.T) {
		noTenant := makeJWT(t, `{"sub":"somebody"}`)
		_, err := Extract([]byte(fmt.Sprintf(`{"Tokens":[%q]}`, noTenant)))
		assert.ErrorIs(t, err, ErrTenantClaimMissing)
	})
}

func TestTenantFromClaims(t *testing.T) {
	t.Run("lower-case claim preferred", func(t *testing.T) {
		tenant, err := TenantFromClaims(map[string]any{"tenant": "low", "Tenant": "cap"})
		require.NoError(t, err)
		assert.Equal(t, "low", tenant)
	})

	t.Run("capitalized fallback", func(t *testing.T) {
		tenant, err := TenantFromClaims(map[string]any{"Tenant": "cap"})
		require.NoError(t, err)
		assert.Equal(t, "cap", tenant)
	})

	t.Run("integral number stringified without fraction", func(t *testing.T) {
		tenant, err := TenantFromClaims(map[string]any{"tenant": float64(42)})
		require.NoError(t, err)
		assert.Equal(t, "42", tenant)
	})

	t.Run("empty string falls through to next key", func(t *testing.T) {
		tenant, err := TenantFromClaims(map[string]any{"tenant": "", "Tenant": "cap"})
		require.NoError(t, err)
		assert.Equal(t, "cap", tenant)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := TenantFromClaims(map[string]any{"sub": "x"})
		assert.ErrorIs(t, err, ErrTenantClaimMissing)
	})
}
