// File: internal/browser/browser_test.go
package browser

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/artgru/eduvulcan-for-ha/internal/config"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestCombineContext(t *testing.T) {
	t.Run("cancel of the second context cancels the combined one", func(t *testing.T) {
		ctx1 := context.Background()
		ctx2, cancel2 := context.WithCancel(context.Background())

		combined, cancel := CombineContext(ctx1, ctx2)
		defer cancel()

		cancel2()
		select {
		case <-combined.Done():
		case <-time.After(time.Second):
			t.Fatal("combined context was not canceled")
		}
	})

	t.Run("cancel of the first context cancels the combined one", func(t *testing.T) {
		ctx1, cancel1 := context.WithCancel(context.Background())
		ctx2 := context.Background()

		combined, cancel := CombineContext(ctx1, ctx2)
		defer cancel()

		cancel1()
		select {
		case <-combined.Done():
		case <-time.After(time.Second):
			t.Fatal("combined context was not canceled")
		}
	})

	t.Run("combined context inherits values from the first", func(t *testing.T) {
		type key struct{}
		ctx1 := context.WithValue(context.Background(), key{}, "session")

		combined, cancel := CombineContext(ctx1, context.Background())
		defer cancel()

		assert.Equal(t, "session", combined.Value(key{}))
	})
}

func TestJSString(t *testing.T) {
	assert.Equal(t, `"plain"`, jsString("plain"))
	assert.Equal(t, `"with \"quotes\""`, jsString(`with "quotes"`))
	assert.Equal(t, `"back\\slash"`, jsString(`back\slash`))
}

func TestLocatorExpressions(t *testing.T) {
	s := &Session{logger: zap.NewNop()}

	t.Run("selector locator embeds the escaped selector", func(t *testing.T) {
		es, ok := s.LocateBySelector(`input[name="Alias"]`).(*elementSet)
		require.True(t, ok)
		assert.Contains(t, es.expr, `querySelectorAll("input[name=\"Alias\"]")`)
		assert.Equal(t, `input[name="Alias"]`, es.desc)
	})

	t.Run("label locator normalizes diacritics", func(t *testing.T) {
		es, ok := s.LocateByLabel("Hasło").(*elementSet)
		require.True(t, ok)
		// The query text is embedded escaped and the matcher strips combining
		// marks, so "Haslo" and "Hasło" resolve identically in the page.
		assert.Contains(t, es.expr, `normalize('NFD')`)
		assert.Contains(t, es.expr, `\u0300-\u036f`)
		assert.Contains(t, es.expr, "aria-label")
		assert.Contains(t, es.expr, "button")
	})
}

func TestNewManagerDoesNotLaunch(t *testing.T) {
	// Construction must stay lazy; only the first session launches anything.
	m := NewManager(config.BrowserConfig{Headless: true}, zap.NewNop())
	assert.NotNil(t, m)
	m.Shutdown()
}
