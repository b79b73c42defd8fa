package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/noah-isme/subject-catalog-api/internal/catalog"
	"github.com/noah-isme/subject-catalog-api/internal/models"
	ws "github.com/noah-isme/subject-catalog-api/internal/websocket"
	"github.com/noah-isme/subject-catalog-api/pkg/response"
)

// buildUpgrader validates the Origin header against allowedOrigins. An empty
// list permits every origin.
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// StreamHandler pushes live filtered catalog views over WebSocket.
type StreamHandler struct {
	engine   *catalog.Engine
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// NewStreamHandler constructs a stream handler.
func NewStreamHandler(engine *catalog.Engine, logger *zap.Logger, allowedOrigins []string) *StreamHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StreamHandler{
		engine:   engine,
		logger:   logger.With(zap.String("component", "catalog_stream")),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// Catalog godoc
// @Summary Live catalog view
// @Description Upgrades to WebSocket. The server sends a catalog event on connect, whenever the client changes its query, and whenever the catalog changes.
// @Tags Subjects
// @Param search query string false "Initial search text"
// @Param category query string false "Initial category" Enums(CS, IT, IS, ALL)
// @Success 101
// @Failure 400 {object} response.Envelope
// @Router /ws/catalog [get]
func (h *StreamHandler) Catalog(c *gin.Context) {
	initial, err := queryFromRequest(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close() //nolint:errcheck

	changes, cancel := h.engine.Subscribe()
	defer cancel()

	queries := make(chan ws.QueryMessage)
	done := make(chan struct{})
	stop := make(chan struct{})
	defer close(stop)
	go h.readLoop(conn, queries, done, stop)

	view := catalog.NewView()
	view.SetQuery(initial)
	if err := h.push(conn, view); err != nil {
		return
	}

	for {
		select {
		case <-done:
			return
		case msg := <-queries:
			next, err := applyQueryMessage(view.Query(), msg)
			if err != nil {
				if ws.WriteError(conn, err.Error()) != nil {
					return
				}
				continue
			}
			view.SetQuery(next)
			if err := h.push(conn, view); err != nil {
				return
			}
		case _, ok := <-changes:
			if !ok {
				return
			}
			if err := h.push(conn, view); err != nil {
				return
			}
		}
	}
}

// readLoop is the only reader of conn. It closes done when the client goes
// away and gives up on delivery once stop is closed.
func (h *StreamHandler) readLoop(conn *websocket.Conn, queries chan<- ws.QueryMessage, done chan<- struct{}, stop <-chan struct{}) {
	defer close(done)
	for {
		var msg ws.QueryMessage
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("unexpected websocket close", zap.Error(err))
			} else {
				h.logger.Debug("websocket closed")
			}
			return
		}
		select {
		case queries <- msg:
		case <-stop:
			return
		}
	}
}

func (h *StreamHandler) push(conn *websocket.Conn, view *catalog.View) error {
	visible := view.SetRecords(h.engine.Snapshot())
	event := ws.CatalogEvent{
		Event:    ws.EventCatalog,
		Version:  h.engine.Version(),
		Source:   h.engine.Source(),
		Query:    view.Query(),
		Total:    len(visible),
		Subjects: visible,
	}
	if err := ws.WriteTyped(conn, event); err != nil {
		h.logger.Debug("websocket write failed", zap.Error(err))
		return err
	}
	return nil
}

type invalidCategoryError string

func (e invalidCategoryError) Error() string {
	return "unknown category " + string(e)
}

func applyQueryMessage(current catalog.Query, msg ws.QueryMessage) (catalog.Query, error) {
	next := current
	if msg.Search != nil {
		next.Search = *msg.Search
	}
	if msg.Category != nil {
		category, ok := models.ParseCategory(*msg.Category)
		if !ok {
			return current, invalidCategoryError(*msg.Category)
		}
		next.Category = category
	}
	return next, nil
}
