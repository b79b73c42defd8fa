package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/subject-catalog-api/internal/catalog"
	"github.com/noah-isme/subject-catalog-api/internal/models"
	ws "github.com/noah-isme/subject-catalog-api/internal/websocket"
)

func streamFixture() *catalog.Engine {
	engine := catalog.NewEngine()
	engine.ApplyFetch(engine.BeginFetch(), models.SubjectSet{
		Subjects: []models.Subject{
			{ID: "1", Name: "CPCS-203", Description: "Programming", Category: models.CategoryCS},
			{ID: "2", Name: "Intro Psychology", Description: "Minds", Category: models.CategoryIS},
			{ID: "3", Name: "IT-101", Description: "Networks", Category: models.CategoryIT},
			{ID: "4", Name: "Academic Writing", Description: "Essays", Category: models.CategoryAll},
		},
		Source: models.SourceRemote,
	})
	return engine
}

func dialStream(t *testing.T, engine *catalog.Engine, query string) *websocket.Conn {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/ws/catalog", NewStreamHandler(engine, nil, nil).Catalog)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/catalog" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) ws.CatalogEvent {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var event ws.CatalogEvent
	require.NoError(t, conn.ReadJSON(&event))
	return event
}

func eventIDs(event ws.CatalogEvent) []string {
	ids := make([]string, 0, len(event.Subjects))
	for _, s := range event.Subjects {
		ids = append(ids, s.ID)
	}
	return ids
}

func TestStreamHandlerPushesInitialView(t *testing.T) {
	conn := dialStream(t, streamFixture(), "?category=CS")

	event := readEvent(t, conn)
	assert.Equal(t, ws.EventCatalog, event.Event)
	assert.Equal(t, []string{"1", "4"}, eventIDs(event))
	assert.Equal(t, models.SourceRemote, event.Source)
}

func TestStreamHandlerRecomputesOnQueryChange(t *testing.T) {
	conn := dialStream(t, streamFixture(), "")
	assert.Len(t, readEvent(t, conn).Subjects, 4)

	search := "psych"
	require.NoError(t, conn.WriteJSON(ws.QueryMessage{Search: &search}))
	event := readEvent(t, conn)
	assert.Equal(t, []string{"2"}, eventIDs(event))
	assert.Equal(t, "psych", event.Query.Search)

	category := "it"
	require.NoError(t, conn.WriteJSON(ws.QueryMessage{Category: &category}))
	event = readEvent(t, conn)
	assert.Empty(t, event.Subjects)
	assert.Equal(t, models.CategoryIT, event.Query.Category)
}

func TestStreamHandlerRejectsUnknownCategory(t *testing.T) {
	conn := dialStream(t, streamFixture(), "")
	readEvent(t, conn)

	category := "MATH"
	require.NoError(t, conn.WriteJSON(ws.QueryMessage{Category: &category}))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var event ws.ErrorEvent
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, ws.EventError, event.Event)
	assert.Contains(t, event.Error, "MATH")
}

func TestStreamHandlerPushesCatalogChanges(t *testing.T) {
	engine := streamFixture()
	conn := dialStream(t, engine, "?category=IT")
	first := readEvent(t, conn)
	assert.Equal(t, []string{"3", "4"}, eventIDs(first))

	engine.Append(models.Subject{ID: "doc_5", Name: "Databases", Description: "Tables", Category: models.CategoryIT})

	event := readEvent(t, conn)
	assert.Equal(t, []string{"3", "4", "doc_5"}, eventIDs(event))
	assert.Greater(t, event.Version, first.Version)
}

func TestStreamHandlerRejectsBadInitialCategory(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/ws/catalog", NewStreamHandler(streamFixture(), nil, nil).Catalog)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/ws/catalog?category=MATH", nil)

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBuildUpgraderOriginCheck(t *testing.T) {
	upgrader := buildUpgrader([]string{"https://catalog.example.edu"})
	req := httptest.NewRequest(http.MethodGet, "/ws/catalog", nil)

	req.Header.Set("Origin", "https://CATALOG.example.edu")
	assert.True(t, upgrader.CheckOrigin(req))

	req.Header.Set("Origin", "https://evil.example.com")
	assert.False(t, upgrader.CheckOrigin(req))

	assert.True(t, buildUpgrader(nil).CheckOrigin(req))
}
