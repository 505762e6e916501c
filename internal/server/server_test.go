package server

import (
	"testing"

	"deep-research-be/internal/config"

	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func corsTestConfig(origins string) *config.Config {
	return &config.Config{
		App: config.AppConfig{CorsAllowedOrigins: origins},
	}
}

func TestCorsConfigConcreteOriginKeepsCredentials(t *testing.T) {
	c := corsConfig(corsTestConfig("http://localhost:5173"))

	assert.True(t, c.AllowCredentials)
	require.NotPanics(t, func() {
		cors.New(c)
	})
}

func TestCorsConfigWildcardOriginDoesNotPanic(t *testing.T) {
	// fiber panics on AllowCredentials + wildcard; a "*" from the
	// environment must not take the server down at boot.
	c := corsConfig(corsTestConfig("*"))

	assert.False(t, c.AllowCredentials)
	require.NotPanics(t, func() {
		cors.New(c)
	})
}
