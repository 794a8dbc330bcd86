package observability

import (
	"testing"

	"github.com/fulmenhq/gofulmen/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInitCLILogger(t *testing.T) {
	t.Cleanup(func() { CLILogger = nil })

	InitCLILogger("honodemo-test", true)
	require.NotNil(t, CLILogger)
	CLILogger.Debug("verbose cli logger", zap.String("test", "value"))
}

func TestInitServerLogger(t *testing.T) {
	t.Cleanup(func() { ServerLogger = nil })

	for _, profile := range []string{"STRUCTURED", "SIMPLE", ""} {
		t.Run("Profile_"+profile, func(t *testing.T) {
			InitServerLogger(ServerLoggerOptions{
				Service:     "honodemo-test",
				Level:       "debug",
				Profile:     profile,
				Environment: "test",
				Namespace:   "honodemo",
			})
			require.NotNil(t, ServerLogger)
			ServerLogger.Info("server logger ready", zap.String("profile", profile))
		})
	}
}

func TestServerLoggerConfigProfiles(t *testing.T) {
	structured := serverLoggerConfig(ServerLoggerOptions{Service: "svc"})
	assert.Equal(t, logging.ProfileStructured, structured.Profile)
	assert.Equal(t, "production", structured.Environment)
	require.Len(t, structured.Middleware, 1)
	assert.Equal(t, "correlation", structured.Middleware[0].Name)

	simple := serverLoggerConfig(ServerLoggerOptions{Service: "svc", Profile: "simple"})
	assert.Equal(t, logging.ProfileSimple, simple.Profile)
	assert.Empty(t, simple.Middleware)
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]string{
		"trace":   "TRACE",
		"DEBUG":   "DEBUG",
		" info ":  "INFO",
		"warning": "WARN",
		"error":   "ERROR",
		"bogus":   "INFO",
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLogLevel(in), in)
	}
}

func TestResolvePort(t *testing.T) {
	port, err := resolvePort("127.0.0.1:9191")
	require.NoError(t, err)
	assert.Equal(t, 9191, port)

	_, err = resolvePort("not-an-addr")
	assert.Error(t, err)
}

func TestShutdownMetricsWithoutExporter(t *testing.T) {
	assert.NoError(t, ShutdownMetrics())
	assert.Nil(t, TelemetrySystem)
}
