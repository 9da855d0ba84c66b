package handler

import (
	"context"
	"iter"
	"net/http"
	"net/http/httptest"
	"testing"

	"ehr-navigator-be/internal/dto"
	"ehr-navigator-be/internal/pkg/logger"
	"ehr-navigator-be/pkg/navigator"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopStreamer struct{}

func (noopStreamer) Stream(ctx context.Context, req *dto.NavigateRequest) iter.Seq[navigator.Event] {
	return func(func(navigator.Event) bool) {}
}

func newWsApp(secret string) *fiber.App {
	app := fiber.New()
	NewNavigationHandler(noopStreamer{}, secret, logger.NewNopLogger()).RegisterRoutes(app.Group("/api"))
	return app
}

func TestServeWs_RejectsMissingToken(t *testing.T) {
	resp, err := newWsApp("s3cret").Test(httptest.NewRequest(http.MethodGet, "/api/ws/navigate", nil))
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServeWs_RejectsBadToken(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": "u"}).SignedString([]byte("other"))
	require.NoError(t, err)

	resp, err := newWsApp("s3cret").Test(httptest.NewRequest(http.MethodGet, "/api/ws/navigate?token="+token, nil))
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServeWs_RequiresUpgrade(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": "u"}).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	resp, err := newWsApp("s3cret").Test(httptest.NewRequest(http.MethodGet, "/api/ws/navigate?token="+token, nil))
	require.NoError(t, err)

	assert.Equal(t, http.StatusUpgradeRequired, resp.StatusCode)
}
