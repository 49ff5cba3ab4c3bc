// File: internal/token/extract.go
package token

import (
	"fmt"
)

// candidateKeys is the fixed, case-varied key list probed on object elements
// of the Tokens collection, in priority order.
var candidateKeys = []string{
	"Token", "token",
	"Value", "value",
	"AccessToken", "access_token",
	"Jwt", "jwt",
}

// Extract parses the raw token payload emitted by the portal's login page and
// produces a complete Record. Scanning order is collection order, then key
// priority order within an object element; the first well-formed JWT wins.
func Extract(raw []byte) (Record, error) {
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	tokens, ok := payload["Tokens"]
	if !ok || tokens == nil {
		tokens, ok = payload["tokens"]
	}
	if !ok || tokens == nil {
		return Record{}, ErrTokensFieldMissing
	}

	// A single object is treated as a one-element collection.
	var elements []any
	switch t := tokens.(type) {
	case []any:
		elements = t
	case map[string]any:
		elements = []any{t}
	default:
		elements = []any{t}
	}

	jwtString := ""
scan:
	for _, el := range elements {
		if s, ok := el.(string); ok && IsJWT(s) {
			jwtString = s
			break
		}
		obj, ok := el.(map[string]any)
		if !ok {
			continue
		}
		for _, key := range candidateKeys {
			if s, ok := obj[key].(string); ok && IsJWT(s) {
				jwtString = s
				break scan
			}
		}
	}
	if jwtString == "" {
		return Record{}, ErrJWTNotFound
	}

	claims, err := DecodePayload(jwtString)
	if err != nil {
		return Record{}, err
	}

	tenant, err := TenantFromClaims(claims)
	if err != nil {
		return Record{}, err
	}

	return Record{JWT: jwtString, Tenant: tenant, Payload: claims}, nil
}
