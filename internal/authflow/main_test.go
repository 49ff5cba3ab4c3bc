// File: internal/authflow/main_test.go
package authflow

import (
	"os"
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/artgru/eduvulcan-for-ha/internal/config"
	"github.com/artgru/eduvulcan-for-ha/internal/observability"
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
