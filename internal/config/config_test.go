package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

// unsetEnv clears a variable for the test while still restoring the
// original value afterwards.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	os.Unsetenv(key)
}

func TestLoadDefaults(t *testing.T) {
	unsetEnv(t, "CORS_ALLOWED_ORIGINS")
	unsetEnv(t, "APP_PORT")
	unsetEnv(t, "LLM_PROVIDER")

	cfg := Load()

	// A concrete origin, never a wildcard: the cors middleware runs
	// with credentials enabled and rejects "*" in that mode.
	assert.Equal(t, "http://localhost:5173", cfg.App.CorsAllowedOrigins)
	assert.Equal(t, "8000", cfg.App.Port)
	assert.Equal(t, "ollama", cfg.Ai.LLMProvider)
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://research.example.com")
	t.Setenv("REPORT_EMAIL", "reports@example.com")

	cfg := Load()

	assert.Equal(t, "https://research.example.com", cfg.App.CorsAllowedOrigins)
	assert.Equal(t, "reports@example.com", cfg.App.ReportEmail)
}
