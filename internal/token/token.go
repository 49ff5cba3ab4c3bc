// File: internal/token/token.go
// Description: JWT well-formedness checks and unverified payload decoding.
// The portal issues the token through its own UI, so the signature is trusted
// by construction and never verified here.
package token

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Extraction and decoding failure kinds. All of them are fatal for the
// attempt they occur in; the orchestrator is the only retry authority.
var (
	ErrMalformedPayload   = errors.New("token payload is not valid JSON")
	ErrTokensFieldMissing = errors.New("tokens field not found in login payload")
	ErrJWTNotFound        = errors.New("no well-formed JWT found in tokens")
	ErrPayloadDecode      = errors.New("failed to decode JWT payload")
	ErrTenantClaimMissing = errors.New("tenant claim not found in JWT payload")
)

// IsJWT reports whether v is a well-formed JWT: exactly three dot-separated,
// non-empty segments. Nothing about the segment contents is checked.
func IsJWT(v string) bool {
	parts := strings.Split(v, ".")
	if len(parts) != 3 {
		return false
	}
	for _, p := range parts {
		if p == "" {
			return false
		}
	}
	return true
}

// DecodePayload decodes the middle segment of a well-formed JWT: base64url,
// padded to a multiple of 4, parsed as a JSON object. Scalars and arrays are
// rejected. The result is a jwt.MapClaims so callers get claim accessors
// (expiry parsing in particular) for free.
func DecodePayload(tokenString string) (jwt.MapClaims, error) {
	parts := strings.Split(tokenString, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: expected 3 segments, got %d", ErrPayloadDecode, len(parts))
	}

	seg := parts[1]
	if pad := len(seg) % 4; pad != 0 {
		seg += strings.Repeat("=", 4-pad)
	}

	raw, err := base64.URLEncoding.DecodeString(seg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPayloadDecode, err)
	}

	claims := jwt.MapClaims{}
	if err := json.Unmarshal(raw, &claims); err != nil {
		return nil, fmt.Errorf("%w: payload segment is not a JSON object: %v", ErrPayloadDecode, err)
	}
	return claims, nil
}
