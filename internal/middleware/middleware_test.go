package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/subject-catalog-api/internal/models"
	"github.com/noah-isme/subject-catalog-api/internal/service"
)

func newSessions(t *testing.T) *service.SessionService {
	t.Helper()
	svc, err := service.NewSessionService(service.SessionConfig{Secret: "secret", AdminPassphrase: "admin123"}, nil)
	require.NoError(t, err)
	return svc
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/probe", handlers...)
	return r
}

func TestSessionMiddlewareReadsTokenSources(t *testing.T) {
	sessions := newSessions(t)
	token, err := sessions.Issue(models.NewAppSession("abc", true, false))
	require.NoError(t, err)

	var seen *models.AppSession
	r := newRouter(Session(sessions), func(c *gin.Context) {
		seen = SessionFromContext(c)
		c.Status(http.StatusOK)
	})

	for _, header := range []struct{ name, value string }{
		{"Authorization", "Bearer " + token},
		{"Authorization", "bearer " + token},
		{SessionHeader, token},
	} {
		req := httptest.NewRequest(http.MethodGet, "/probe", nil)
		req.Header.Set(header.name, header.value)
		r.ServeHTTP(httptest.NewRecorder(), req)
		require.NotNil(t, seen)
		assert.Equal(t, "abc", seen.ID())
		assert.True(t, seen.IsAdmin())
	}

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set(SessionHeader, "garbage")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, seen.IsAdmin())
	assert.NotEmpty(t, seen.ID())
}

func TestRequireAdminView(t *testing.T) {
	sessions := newSessions(t)
	r := newRouter(Session(sessions), RequireAdminView(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/probe", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	token, err := sessions.Issue(models.NewAppSession("abc", true, false))
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set(SessionHeader, token)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestAuditLogsSuccessfulActions(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.DELETE("/subjects/:id", Audit(zap.New(core), "subject.delete"), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	r.DELETE("/fail/:id", Audit(zap.New(core), "subject.delete"), func(c *gin.Context) {
		c.Status(http.StatusBadGateway)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodDelete, "/subjects/doc_1", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodDelete, "/fail/doc_1", nil))

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "subject.delete", fields["action"])
	assert.Equal(t, "doc_1", fields["subject_id"])
}

func TestResponseMeta(t *testing.T) {
	var meta map[string]interface{}
	r := newRouter(WithResponseMeta(), func(c *gin.Context) {
		SetCacheHit(c, true)
		SetMeta(c, "source", "remote")
		SetMeta(c, "advisory", "")
		meta = ExtractMeta(c)
		c.Status(http.StatusOK)
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/probe", nil))

	assert.Equal(t, true, meta[cacheHitKey])
	assert.Equal(t, "remote", meta["source"])
	_, hasAdvisory := meta["advisory"]
	assert.False(t, hasAdvisory)
	_, hasTiming := meta["processing_time_ms"]
	assert.True(t, hasTiming)
}

func TestMetricsMiddleware(t *testing.T) {
	metrics := service.NewMetricsService()
	r := newRouter(Metrics(metrics), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/probe", nil))
	assert.Equal(t, uint64(1), metrics.Snapshot().RequestsTotal)
}
