package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/formbuilder/internal/dragdrop"
	"github.com/stemsi/formbuilder/internal/forest"
	"github.com/stemsi/formbuilder/internal/metrics"
	"github.com/stemsi/formbuilder/internal/model"
	"github.com/stemsi/formbuilder/internal/service"
	ws "github.com/stemsi/formbuilder/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if allowed == "*" || strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// DragHandler runs one drag-and-drop session per WebSocket connection.
type DragHandler struct {
	questionService *service.QuestionService
	log             zerolog.Logger
	upgrader        websocket.Upgrader
}

// NewDragHandler creates a new DragHandler.
func NewDragHandler(questionService *service.QuestionService, log zerolog.Logger, allowedOrigins []string) *DragHandler {
	return &DragHandler{
		questionService: questionService,
		log:             log.With().Str("component", "drag_handler").Logger(),
		upgrader:        buildUpgrader(allowedOrigins),
	}
}

// DragStream godoc
// WS /ws/v1/form/drag
// Reorders top-level questions live while the client drags one of them.
func (h *DragHandler) DragStream(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	metrics.DragSessions.Inc()
	defer metrics.DragSessions.Dec()

	ctx := c.Request.Context()
	var moved model.Forest
	session := dragdrop.NewSession(func(from, to int) error {
		f, err := h.questionService.MoveQuestion(ctx, from, to)
		if err != nil {
			return err
		}
		moved = f
		return nil
	}, func() int {
		return len(h.questionService.Questions())
	})

	wsLog := h.log.With().Str("remote", c.ClientIP()).Logger()
	wsLog.Debug().Msg("Drag client connected")

	for {
		msg, err := ws.ReadRequest(conn)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			break
		}

		switch msg.Action {
		case ws.ActionDragStart:
			if msg.Index == nil {
				_ = ws.WriteError(conn, "index is required")
				continue
			}
			if err := session.Begin(*msg.Index); err != nil {
				_ = ws.WriteError(conn, err.Error())
				continue
			}
			_ = ws.WriteTyped(conn, ws.DraggingResponse{Event: ws.EventDragging, Index: session.Index()})

		case ws.ActionHover:
			if msg.Index == nil {
				_ = ws.WriteError(conn, "index is required")
				continue
			}
			ok, from, err := session.Hover(*msg.Index)
			if err != nil {
				if !errors.Is(err, dragdrop.ErrInvalidTransition) && !errors.Is(err, forest.ErrIndexOutOfRange) {
					wsLog.Error().Err(err).Msg("Drag reorder failed")
				}
				_ = ws.WriteError(conn, err.Error())
				continue
			}
			if ok {
				_ = ws.WriteTyped(conn, ws.MovedResponse{
					Event:     ws.EventMoved,
					From:      from,
					To:        session.Index(),
					Questions: moved,
				})
			}

		case ws.ActionDrop:
			session.Drop()
			_ = ws.WriteTyped(conn, ws.IdleResponse{Event: ws.EventIdle})

		case ws.ActionCancel:
			session.Cancel()
			_ = ws.WriteTyped(conn, ws.IdleResponse{Event: ws.EventIdle})

		case ws.ActionPing:
			_ = ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})

		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			_ = ws.WriteError(conn, "unknown action: "+string(msg.Action))
		}
	}
}
