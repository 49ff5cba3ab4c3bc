// File: internal/fetcher/fetcher_test.go
package fetcher

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/artgru/eduvulcan-for-ha/internal/authflow"
	"github.com/artgru/eduvulcan-for-ha/internal/config"
	"github.com/artgru/eduvulcan-for-ha/internal/observability"
	"github.com/artgru/eduvulcan-for-ha/internal/token"
	"github.com/artgru/eduvulcan-for-ha/internal/tokencache"
)

func TestMain(m *testing.M) {
	logCfg := config.NewDefaultConfig().Logger
	logCfg.Level = "debug"
	logCfg.ServiceName = "test-suite"
	observability.Initialize(logCfg, zapcore.Lock(os.Stdout))

	exitCode := m.Run()

	observability.Sync()
	observability.ResetForTest()
	os.Exit(exitCode)
}

// stubRunner scripts the outcome of consecutive login attempts.
type stubRunner struct {
	results []func() (token.Record, error)
	calls   int
}

func (s *stubRunner) FetchToken(ctx context.Context, cred authflow.Credential) (token.Record, error) {
	i := s.calls
	s.calls++
	if i >= len(s.results) {
		return token.Record{}, errors.New("unexpected extra login attempt")
	}
	return s.results[i]()
}

func makeJWT(t *testing.T, tenant string, exp time.Time) string {
	t.Helper()
	payload := fmt.Sprintf(`{"tenant":%q,"exp":%d}`, tenant, exp.Unix())
	return fmt.Sprintf("%s.%s.%s",
		base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"RS256"}`)),
		base64.RawURLEncoding.EncodeToString([]byte(payload)),
		"sig")
}

func makeRecord(t *testing.T, tenant string, exp time.Time) token.Record {
	t.Helper()
	jwtStr := makeJWT(t, tenant, exp)
	rec, err := token.Extract([]byte(fmt.Sprintf(`{"Tokens":[%q]}`, jwtStr)))
	require.NoError(t, err)
	return rec
}

func newTestFetcher(t *testing.T, runner LoginRunner) (*Fetcher, *tokencache.Cache) {
	t.Helper()
	cache := tokencache.New(filepath.Join(t.TempDir(), "token.json"), zap.NewNop())
	return New(cache, runner, zap.NewNop()), cache
}

var testCred = authflow.Credential{Login: "user@example.com", Password: "s3cret"}

func TestGetTokenCacheHitSkipsLogin(t *testing.T) {
	runner := &stubRunner{}
	f, cache := newTestFetcher(t, runner)

	fresh := makeRecord(t, "gminaX", time.Now().Add(time.Hour))
	require.NoError(t, cache.Save(fresh))

	rec, err := f.GetToken(context.Background(), testCred)
	require.NoError(t, err)
	assert.Equal(t, fresh.JWT, rec.JWT)
	assert.Zero(t, runner.calls)
}

func TestGetTokenAbsentCacheLogsIn(t *testing.T) {
	fresh := makeRecord(t, "gminaX", time.Now().Add(time.Hour))
	runner := &stubRunner{results: []func() (token.Record, error){
		func() (token.Record, error) { return fresh, nil },
	}}
	f, cache := newTestFetcher(t, runner)

	rec, err := f.GetToken(context.Background(), testCred)
	require.NoError(t, err)
	assert.Equal(t, fresh.JWT, rec.JWT)
	assert.Equal(t, 1, runner.calls)

	// The fresh record must be persisted for the next call.
	loaded, _, err := cache.Load(time.Now())
	require.NoError(t, err)
	assert.Equal(t, fresh.JWT, loaded.JWT)
}

func TestGetTokenStaleCacheLogsIn(t *testing.T) {
	fresh := makeRecord(t, "gminaX", time.Now().Add(time.Hour))
	runner := &stubRunner{results: []func() (token.Record, error){
		func() (token.Record, error) { return fresh, nil },
	}}
	f, cache := newTestFetcher(t, runner)

	stale := makeRecord(t, "gminaX", time.Now().Add(-time.Hour))
	require.NoError(t, cache.Save(stale))

	rec, err := f.GetToken(context.Background(), testCred)
	require.NoError(t, err)
	assert.Equal(t, fresh.JWT, rec.JWT)
	assert.Equal(t, 1, runner.calls)
}

func TestGetTokenBrokenCacheInvalidatedBeforeLogin(t *testing.T) {
	fresh := makeRecord(t, "gminaX", time.Now().Add(time.Hour))
	runner := &stubRunner{results: []func() (token.Record, error){
		func() (token.Record, error) { return fresh, nil },
	}}
	f, cache := newTestFetcher(t, runner)

	// Well-formed JWT shape with an undecodable payload: present but broken.
	broken := `{"jwt":"aaaa.!!!!.cccc"}`
	require.NoError(t, os.WriteFile(cache.Path(), []byte(broken), 0o600))

	rec, err := f.GetToken(context.Background(), testCred)
	require.NoError(t, err)
	assert.Equal(t, fresh.JWT, rec.JWT)
	assert.Equal(t, 1, runner.calls)
}

func TestGetTokenRetriesOnceAfterFailure(t *testing.T) {
	fresh := makeRecord(t, "gminaX", time.Now().Add(time.Hour))
	runner := &stubRunner{results: []func() (token.Record, error){
		func() (token.Record, error) { return token.Record{}, errors.New("portal hiccup") },
		func() (token.Record, error) { return fresh, nil },
	}}
	f, _ := newTestFetcher(t, runner)

	rec, err := f.GetToken(context.Background(), testCred)
	require.NoError(t, err)
	assert.Equal(t, fresh.JWT, rec.JWT)
	assert.Equal(t, 2, runner.calls)
}

func TestGetTokenDoubleFailure(t *testing.T) {
	lastErr := errors.New("second failure")
	runner := &stubRunner{results: []func() (token.Record, error){
		func() (token.Record, error) { return token.Record{}, errors.New("first failure") },
		func() (token.Record, error) { return token.Record{}, lastErr },
	}}
	f, cache := newTestFetcher(t, runner)

	// A stale record in the cache must be gone after the double failure.
	stale := makeRecord(t, "gminaX", time.Now().Add(-time.Hour))
	require.NoError(t, cache.Save(stale))

	_, err := f.GetToken(context.Background(), testCred)
	require.Error(t, err)

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.ErrorIs(t, err, lastErr)
	assert.Equal(t, 2, runner.calls)

	_, statErr := os.Stat(cache.Path())
	assert.True(t, os.IsNotExist(statErr))
}

func TestGetTokenFlowErrorsSurfaceThroughFetchError(t *testing.T) {
	stepFailure := &authflow.StepError{Step: "submit", Err: authflow.ErrSubmitButtonNotFound}
	runner := &stubRunner{results: []func() (token.Record, error){
		func() (token.Record, error) { return token.Record{}, stepFailure },
		func() (token.Record, error) { return token.Record{}, stepFailure },
	}}
	f, _ := newTestFetcher(t, runner)

	_, err := f.GetToken(context.Background(), testCred)
	assert.ErrorIs(t, err, authflow.ErrSubmitButtonNotFound)
}

func TestGetTokenSelfHealedRecordIsRewritten(t *testing.T) {
	runner := &stubRunner{}
	f, cache := newTestFetcher(t, runner)

	// Legacy format: jwt and tenant only, no payload.
	jwtStr := makeJWT(t, "gminaX", time.Now().Add(time.Hour))
	legacy := fmt.Sprintf(`{"jwt":%q,"tenant":"gminaX"}`, jwtStr)
	require.NoError(t, os.WriteFile(cache.Path(), []byte(legacy), 0o600))

	rec, err := f.GetToken(context.Background(), testCred)
	require.NoError(t, err)
	assert.Equal(t, "gminaX", rec.Payload["tenant"])
	assert.Zero(t, runner.calls)

	// The upgraded record is persisted: a direct reload needs no healing.
	_, needsRewrite, err := cache.Load(time.Now())
	require.NoError(t, err)
	assert.False(t, needsRewrite)
}

func TestGetTokenCancelledContextStopsRetry(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	runner := &stubRunner{results: []func() (token.Record, error){
		func() (token.Record, error) {
			cancel()
			return token.Record{}, ctx.Err()
		},
	}}
	f, _ := newTestFetcher(t, runner)

	_, err := f.GetToken(ctx, testCred)
	require.Error(t, err)
	assert.Equal(t, 1, runner.calls)
}
