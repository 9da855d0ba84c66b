package websocket

import (
	"context"
	"iter"
	"time"

	"ehr-navigator-be/internal/dto"
	"ehr-navigator-be/internal/pkg/logger"
	"ehr-navigator-be/internal/pkg/serverutils"
	"ehr-navigator-be/pkg/navigator"

	"github.com/gofiber/websocket/v2"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8 * 1024
)

// Streamer starts one streamed navigation.
type Streamer interface {
	Stream(ctx context.Context, req *dto.NavigateRequest) iter.Seq[navigator.Event]
}

// Session serves one navigation over a websocket: the client sends a single
// request frame and receives every event as a text frame. Closing the
// socket cancels the run.
type Session struct {
	conn     *websocket.Conn
	streamer Streamer
	logger   logger.ILogger
	send     chan navigator.Event
}

func ServeNavigation(conn *websocket.Conn, streamer Streamer, log logger.ILogger) {
	s := &Session{
		conn:     conn,
		streamer: streamer,
		logger:   log,
		send:     make(chan navigator.Event),
	}
	defer conn.Close()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))

	var req dto.NavigateRequest
	if err := conn.ReadJSON(&req); err != nil {
		s.writeError(400, "Invalid request frame")
		return
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		s.writeError(400, err.Error())
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go s.readPump(cancel)
	go s.produce(ctx, &req)
	s.writePump(ctx)
}

// produce runs the navigation and hands events to writePump.
func (s *Session) produce(ctx context.Context, req *dto.NavigateRequest) {
	defer close(s.send)
	for ev := range s.streamer.Stream(ctx, req) {
		select {
		case s.send <- ev:
		case <-ctx.Done():
			return
		}
	}
}

// readPump only watches for the peer going away; further frames are ignored.
func (s *Session) readPump(cancel context.CancelFunc) {
	defer cancel()
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("NavigationSession", "Unexpected close", map[string]interface{}{"error": err.Error()})
			}
			return
		}
	}
}

func (s *Session) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := s.conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (s *Session) writeError(code int, message string) {
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = s.conn.WriteJSON(serverutils.ErrorResponse(code, message))
}
