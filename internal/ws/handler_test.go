package ws

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"blinkchat/internal/models"
)

type recordingEvents struct {
	mu          sync.Mutex
	joins       []string
	messages    []models.ClientEvent
	disconnects int
}

func (r *recordingEvents) OnJoin(_ context.Context, member Member, room string) {
	r.mu.Lock()
	r.joins = append(r.joins, room)
	r.mu.Unlock()
	member.Send(models.NewJoinedEvent(member.SID()))
}

func (r *recordingEvents) OnMessage(_ context.Context, _ Member, evt models.ClientEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, evt)
}

func (r *recordingEvents) OnDisconnect(Member) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.disconnects++
}

func (r *recordingEvents) snapshot() (joins []string, messages []models.ClientEvent, disconnects int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.joins...), append([]models.ClientEvent(nil), r.messages...), r.disconnects
}

func dialTestServer(t *testing.T, events EventHandler) *websocket.Conn {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := NewHandler(events, nil, zap.NewNop())
	router.GET("/ws", handler.Handle)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHandlerDispatchesJoinAndMessage(t *testing.T) {
	events := &recordingEvents{}
	conn := dialTestServer(t, events)

	require.NoError(t, conn.WriteJSON(models.ClientEvent{Type: "join", Room: "lobby"}))

	var joined models.JoinedEvent
	require.NoError(t, conn.ReadJSON(&joined))
	assert.Equal(t, "joined", joined.Type)
	assert.NotEmpty(t, joined.SID)

	require.NoError(t, conn.WriteJSON(models.ClientEvent{Type: "message", Room: "lobby", Text: "hi"}))

	assert.Eventually(t, func() bool {
		joins, messages, _ := events.snapshot()
		return len(joins) == 1 && len(messages) == 1
	}, time.Second, 10*time.Millisecond)

	joins, messages, _ := events.snapshot()
	assert.Equal(t, []string{"lobby"}, joins)
	assert.Equal(t, "hi", messages[0].Text)
}

func TestHandlerSkipsMalformedFrames(t *testing.T) {
	events := &recordingEvents{}
	conn := dialTestServer(t, events)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	require.NoError(t, conn.WriteJSON(models.ClientEvent{Type: "join", Room: "den"}))

	var joined models.JoinedEvent
	require.NoError(t, conn.ReadJSON(&joined))
	assert.Equal(t, "joined", joined.Type)

	joins, _, _ := events.snapshot()
	assert.Equal(t, []string{"den"}, joins)
}

func TestHandlerReportsDisconnect(t *testing.T) {
	events := &recordingEvents{}
	conn := dialTestServer(t, events)

	require.NoError(t, conn.WriteJSON(models.ClientEvent{Type: "join", Room: "lobby"}))
	var joined models.JoinedEvent
	require.NoError(t, conn.ReadJSON(&joined))

	conn.Close()

	assert.Eventually(t, func() bool {
		_, _, disconnects := events.snapshot()
		return disconnects == 1
	}, time.Second, 10*time.Millisecond)
}
