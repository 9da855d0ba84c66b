package handler

import (
	"ehr-navigator-be/internal/pkg/logger"
	"ehr-navigator-be/internal/pkg/serverutils"
	internalWS "ehr-navigator-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

type NavigationHandler struct {
	streamer  internalWS.Streamer
	jwtSecret string
	logger    logger.ILogger
}

func NewNavigationHandler(streamer internalWS.Streamer, jwtSecret string, log logger.ILogger) *NavigationHandler {
	return &NavigationHandler{
		streamer:  streamer,
		jwtSecret: jwtSecret,
		logger:    log,
	}
}

// ServeWs authenticates the handshake and upgrades to a navigation session.
func (h *NavigationHandler) ServeWs(c *fiber.Ctx) error {
	if h.jwtSecret != "" {
		// Query param first, then Authorization header.
		tokenStr := c.Query("token")
		if tokenStr == "" {
			authHeader := c.Get("Authorization")
			if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
				tokenStr = authHeader[7:]
			}
		}
		if tokenStr == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(401, "Missing token (Query 'token' or Header 'Authorization')"))
		}

		if _, err := serverutils.ParseToken(tokenStr, h.jwtSecret); err != nil {
			h.logger.Warn("NavigationHandler", "Invalid Token in WS Handshake", map[string]interface{}{"error": err.Error()})
			return c.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(401, "Invalid token"))
		}
	}

	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Info("NavigationHandler", "Starting WebSocket session", nil)
		internalWS.ServeNavigation(conn, h.streamer, h.logger)
		h.logger.Info("NavigationHandler", "WebSocket session ended", nil)
	})(c)
}

func (h *NavigationHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/ws/navigate", h.ServeWs)
}
