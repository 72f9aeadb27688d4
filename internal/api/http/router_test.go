package http

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/support-bot/internal/api/http/handlers"
	"github.com/spec-kit/support-bot/internal/auth"
	"github.com/spec-kit/support-bot/internal/bot"
	"github.com/spec-kit/support-bot/internal/gateway"
	"github.com/spec-kit/support-bot/internal/observability"
)

type updateLog struct {
	mu      sync.Mutex
	updates []gateway.Update
}

func (l *updateLog) handle(ctx context.Context, u gateway.Update) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.updates = append(l.updates, u)
}

func (l *updateLog) all() []gateway.Update {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]gateway.Update(nil), l.updates...)
}

func newTestApp(t *testing.T, secret string) (*fiber.App, *bot.Dispatcher, *updateLog) {
	t.Helper()

	log := &updateLog{}
	dispatcher := bot.NewDispatcher(context.Background(), 900, log.handle)

	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), observability.NewMetrics(), 5*time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:      handlers.NewHealthHandler("support-bot", "test", nil, nil),
		Webhook:     handlers.NewWebhookHandler(dispatcher, zap.NewNop()),
		WebhookAuth: auth.NewWebhookAuth(secret),
	})
	return app, dispatcher, log
}

func TestHealthLive(t *testing.T) {
	app, _, _ := newTestApp(t, "")

	resp, err := app.Test(httptest.NewRequest("GET", "/health/live", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestHealthReadyWithoutBackends(t *testing.T) {
	app, _, _ := newTestApp(t, "")

	resp, err := app.Test(httptest.NewRequest("GET", "/health/ready", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestWebhookEnqueuesUpdate(t *testing.T) {
	app, dispatcher, log := newTestApp(t, "")

	body := `{"channel":42,"from":{"id":42,"display_name":"Alice"},"text":"hello"}`
	req := httptest.NewRequest("POST", "/gateway/updates", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusAccepted, resp.StatusCode)

	dispatcher.Wait()
	updates := log.all()
	require.Len(t, updates, 1)
	assert.Equal(t, int64(42), updates[0].Channel)
	assert.Equal(t, "hello", updates[0].Text)
}

func TestWebhookRejectsMissingSender(t *testing.T) {
	app, _, log := newTestApp(t, "")

	req := httptest.NewRequest("POST", "/gateway/updates", strings.NewReader(`{"channel":42}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, log.all())
}

func TestWebhookRequiresToken(t *testing.T) {
	app, dispatcher, log := newTestApp(t, "test-secret")

	body := `{"channel":42,"from":{"id":42},"text":"hello"}`

	req := httptest.NewRequest("POST", "/gateway/updates", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	token, err := auth.NewTokenManager("test-secret").GenerateToken("gw", time.Hour)
	require.NoError(t, err)

	req = httptest.NewRequest("POST", "/gateway/updates", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusAccepted, resp.StatusCode)

	dispatcher.Wait()
	assert.Len(t, log.all(), 1)
}
