package config

import (
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"WhatsappReminder/pkg/whatsapp/whatsapptest"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Server, *whatsapptest.FakeSender) {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	csvPath := filepath.Join(t.TempDir(), "EnvioWS.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("nombre,celular\nAna,3001112233\n"), 0o600))

	gateway := whatsapptest.NewFakeSender()
	server, err := NewServer(
		WithFiber(fiber.New()),
		WithLogger(logger),
		WithSettings(Settings{
			AppPort:        "3000",
			AllowListPath:  csvPath,
			MetricsEnabled: true,
			RatePerSecond:  100,
			RateBurst:      100,
		}),
		WithValidator(NewValidator()),
		WithMetrics(),
		WithAllowList(),
		WithConversationStore(),
		WithContent(),
		WithMiddleware(),
		WithUtils(),
		WithWhatsappSender(gateway),
	)
	require.NoError(t, err)

	server.RegisterHandler()
	server.mountRoutes()
	return server, gateway
}

func TestServerRoutes(t *testing.T) {
	server, _ := newTestServer(t)

	resp, err := server.engine.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "Servidor WhatsApp funcionando")

	resp, err = server.engine.Test(httptest.NewRequest("GET", "/qr", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = server.engine.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "wa_reminder_allowlist_entries 1")

	resp, err = server.engine.Test(httptest.NewRequest("POST", "/api/v1/reminders/run", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestServerWithoutRemindersHasNoScheduler(t *testing.T) {
	server, _ := newTestServer(t)

	assert.Nil(t, server.scheduler)
	assert.NotNil(t, server.dispatchLoop)
	assert.True(t, server.allowList.Contains("3001112233"))
}

func TestNewServerRequiresGateway(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	_, err := NewServer(WithFiber(fiber.New()), WithLogger(logger))
	assert.Error(t, err)
}
