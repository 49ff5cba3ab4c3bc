// File: internal/token/record.go
package token

import (
	"fmt"
	"math"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
)

// Record is the unit persisted to and loaded from the token cache. The JSON
// shape is a cross-run contract shared with older cache files:
// {"jwt": ..., "tenant": ..., "jwt_payload": {...}}.
type Record struct {
	JWT     string        `json:"jwt"`
	Tenant  string        `json:"tenant"`
	Payload jwt.MapClaims `json:"jwt_payload"`
}

// TenantFromClaims resolves the tenant identifier from the payload, probing
// the lower-case claim before the capitalized one. The claim value is
// stringified; integral numbers render without a fractional part.
func TenantFromClaims(claims jwt.MapClaims) (string, error) {
	for _, key := range []string{"tenant", "Tenant"} {
		v, ok := claims[key]
		if !ok || v == nil {
			continue
		}
		s := stringifyClaim(v)
		if s != "" {
			return s, nil
		}
	}
	return "", ErrTenantClaimMissing
}

func stringifyClaim(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == math.Trunc(t) {
			return strconv.FormatFloat(t, 'f', 0, 64)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprintf("%v", t)
	}
}
