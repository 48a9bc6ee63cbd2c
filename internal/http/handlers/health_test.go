package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthHandler_GetLivez(t *testing.T) {
	handler := NewHealthHandler("1.0.0")

	output, err := handler.GetLivez(context.Background(), &LivezInput{})
	require.NoError(t, err)
	assert.Equal(t, "ok", output.Body.Status)
}

func TestHealthHandler_GetReadyz(t *testing.T) {
	t.Run("not ready without database", func(t *testing.T) {
		handler := NewHealthHandler("1.0.0")

		output, err := handler.GetReadyz(context.Background(), &ReadyzInput{})
		require.NoError(t, err)
		assert.Equal(t, "not_ready", output.Body.Status)
		assert.Equal(t, "not_configured", output.Body.Components["database"])
	})

	t.Run("ready with database", func(t *testing.T) {
		handler := NewHealthHandler("1.0.0").WithDB(setupTestDB(t))

		output, err := handler.GetReadyz(context.Background(), &ReadyzInput{})
		require.NoError(t, err)
		assert.Equal(t, "ready", output.Body.Status)
		assert.Equal(t, "ok", output.Body.Components["database"])
	})
}

func TestHealthHandler_GetHealth(t *testing.T) {
	handler := NewHealthHandler("1.0.0").WithDB(setupTestDB(t))

	output, err := handler.GetHealth(context.Background(), &HealthInput{})
	require.NoError(t, err)

	assert.Equal(t, "healthy", output.Body.Status)
	assert.Equal(t, "1.0.0", output.Body.Version)
	assert.NotEmpty(t, output.Body.Uptime)
	assert.NotZero(t, output.Body.CPUInfo.Cores)
	assert.Equal(t, "ok", output.Body.Database.Status)
	assert.Equal(t, "ok", output.Body.Checks["database"])
}
