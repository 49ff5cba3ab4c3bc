// File: internal/tokencache/cache.go
// Description: Persistence and freshness judgement for the last-fetched token
// record. The cache never serves a record it knows to be invalid or expired.
package tokencache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-jwt/jwt/v5"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/artgru/eduvulcan-for-ha/internal/token"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	// ErrAbsent means no usable record is persisted: the file is missing or
	// fails structural validation. Callers proceed straight to a fetch.
	ErrAbsent = errors.New("no cached token record")
	// ErrStale means a record is present but its exp claim has passed.
	// Distinguished from ErrAbsent so callers know a refetch is mandatory.
	ErrStale = errors.New("cached token is expired")
)

// Cache persists a single token.Record as a JSON file. The backing store is a
// single file; callers must serialize access across processes themselves.
type Cache struct {
	path string
	log  *zap.Logger
}

// New creates a Cache writing to the given path.
func New(path string, logger *zap.Logger) *Cache {
	return &Cache{path: path, log: logger.Named("tokencache")}
}

// Path returns the location of the persisted record.
func (c *Cache) Path() string { return c.path }

// Load reads and validates the persisted record. The boolean result reports
// whether the record was self-healed from an older cache format and should be
// rewritten by the caller.
//
// Error contract: ErrAbsent when nothing usable is persisted, ErrStale when
// the record's exp claim is at or before now, and any other error when the
// stored record is present but broken in a way the caller must clean up
// (undecodable payload, underivable tenant).
func (c *Cache) Load(now time.Time) (token.Record, bool, error) {
	raw, err := os.ReadFile(c.path)
	if err != nil {
		if !os.IsNotExist(err) {
			c.log.Debug("Token file unreadable.", zap.Error(err))
		}
		return token.Record{}, false, ErrAbsent
	}

	var rec token.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		c.log.Warn("Token file is not valid JSON; treating as absent.", zap.Error(err))
		return token.Record{}, false, ErrAbsent
	}
	if !token.IsJWT(rec.JWT) {
		c.log.Warn("Token file holds no well-formed JWT; treating as absent.")
		return token.Record{}, false, ErrAbsent
	}

	// Older cache formats stored only the jwt and tenant. Re-derive the
	// payload and flag the record for rewrite.
	needsRewrite := false
	if rec.Payload == nil {
		claims, err := token.DecodePayload(rec.JWT)
		if err != nil {
			return token.Record{}, false, fmt.Errorf("stored token invalid: %w", err)
		}
		rec.Payload = claims
		needsRewrite = true
	}

	if expired(rec.Payload, now) {
		return token.Record{}, false, ErrStale
	}

	if rec.Tenant == "" {
		tenant, err := token.TenantFromClaims(rec.Payload)
		if err != nil {
			return token.Record{}, false, fmt.Errorf("stored token invalid: %w", err)
		}
		rec.Tenant = tenant
	}

	return rec, needsRewrite, nil
}

// Save persists the record, fully overwriting any prior content.
func (c *Cache) Save(rec token.Record) error {
	if dir := filepath.Dir(c.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode token record: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	c.log.Debug("Token record persisted.", zap.String("path", c.path))
	return nil
}

// Invalidate deletes the persisted record. A missing file is not an error.
func (c *Cache) Invalidate() error {
	if err := os.Remove(c.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete token file: %w", err)
	}
	return nil
}

// expired reports whether the exp claim is parseable and at or before now.
// A missing or unparseable exp claim never expires a record.
func expired(claims jwt.MapClaims, now time.Time) bool {
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !now.Before(exp.Time)
}
