package websocket

import (
	"context"
	"iter"
	"net"
	"testing"
	"time"

	"ehr-navigator-be/internal/dto"
	"ehr-navigator-be/internal/pkg/logger"
	"ehr-navigator-be/pkg/navigator"

	fasthttpws "github.com/fasthttp/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cannedStreamer struct {
	events []navigator.Event
	got    chan *dto.NavigateRequest
}

func (s *cannedStreamer) Stream(ctx context.Context, req *dto.NavigateRequest) iter.Seq[navigator.Event] {
	s.got <- req
	return func(yield func(navigator.Event) bool) {
		for _, ev := range s.events {
			if !yield(ev) {
				return
			}
		}
	}
}

func startServer(t *testing.T, streamer Streamer) string {
	t.Helper()
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		ServeNavigation(c, streamer, logger.NewNopLogger())
	}))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })

	return "ws://" + ln.Addr().String() + "/ws"
}

func TestServeNavigation(t *testing.T) {
	result := navigator.Result{Answer: "Glucose is high.", ResourcesConsulted: []string{"Observation (1)"}, FactsExtracted: 1}
	streamer := &cannedStreamer{
		events: []navigator.Event{
			{Step: navigator.StageDiscover, Label: "Discovering patient records...", Reasoning: "Found: Observation (1)"},
			{Step: navigator.StageDone, Data: &result},
		},
		got: make(chan *dto.NavigateRequest, 1),
	}
	url := startServer(t, streamer)

	conn, _, err := fasthttpws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	require.NoError(t, conn.WriteJSON(dto.NavigateRequest{Question: "What is the glucose?", PatientID: "p-42"}))

	var first, last navigator.Event
	require.NoError(t, conn.ReadJSON(&first))
	require.NoError(t, conn.ReadJSON(&last))

	assert.Equal(t, navigator.StageDiscover, first.Step)
	assert.True(t, last.IsFinal())
	require.NotNil(t, last.Data)
	assert.Equal(t, "Glucose is high.", last.Data.Answer)

	req := <-streamer.got
	assert.Equal(t, "p-42", req.PatientID)

	_, _, err = conn.ReadMessage()
	assert.True(t, fasthttpws.IsCloseError(err, fasthttpws.CloseNormalClosure), "got %v", err)
}

func TestServeNavigation_InvalidRequest(t *testing.T) {
	streamer := &cannedStreamer{got: make(chan *dto.NavigateRequest, 1)}
	url := startServer(t, streamer)

	conn, _, err := fasthttpws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	require.NoError(t, conn.WriteJSON(map[string]string{"question": "q"}))

	var body map[string]interface{}
	require.NoError(t, conn.ReadJSON(&body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, float64(400), body["code"])
	assert.Empty(t, streamer.got)
}
