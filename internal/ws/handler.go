package ws

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"blinkchat/internal/models"
	"blinkchat/internal/observability"
	"blinkchat/internal/telemetry"
)

// EventHandler consumes decoded client events for one connection.
type EventHandler interface {
	OnJoin(ctx context.Context, member Member, room string)
	OnMessage(ctx context.Context, member Member, evt models.ClientEvent)
	OnDisconnect(member Member)
}

// Handler upgrades HTTP requests and runs the connection lifecycle.
type Handler struct {
	events  EventHandler
	emitter *telemetry.AuditEmitter
	logger  *zap.Logger
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// NewHandler constructs a Handler.
func NewHandler(events EventHandler, emitter *telemetry.AuditEmitter, logger *zap.Logger) *Handler {
	return &Handler{events: events, emitter: emitter, logger: logger}
}

// Handle upgrades the connection, assigns it an opaque identity, and pumps
// events until the peer disconnects.
func (h *Handler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("blinkchat/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}

	client := newClient(conn, newConnID(), h.logger)
	ip := observability.IPFromRequest(c.Request)

	observability.IncWSActive()
	observability.IncWSEvent("ws_connect")
	h.emitter.Emit(ctx, "ws_connect", map[string]any{"sid": client.SID(), "ip": ip})

	go client.writePump()

	// Events are handled past the lifetime of the upgrade request.
	connCtx := context.Background()
	client.readPump(func(evt models.ClientEvent) {
		switch evt.Type {
		case models.ClientEventJoin:
			h.events.OnJoin(connCtx, client, evt.Room)
		case models.ClientEventMessage:
			h.events.OnMessage(connCtx, client, evt)
		default:
			h.logger.Debug("unknown client event", zap.String("type", evt.Type), zap.String("sid", client.SID()))
		}
	})

	h.events.OnDisconnect(client)
	observability.DecWSActive()
	observability.IncWSEvent("ws_disconnect")
	h.emitter.Emit(context.Background(), "ws_disconnect", map[string]any{"sid": client.SID(), "ip": ip})
}
