package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/subject-catalog-api/internal/middleware"
	"github.com/noah-isme/subject-catalog-api/internal/models"
	appErrors "github.com/noah-isme/subject-catalog-api/pkg/errors"
	"github.com/noah-isme/subject-catalog-api/pkg/response"
)

type sessionService interface {
	New() *models.AppSession
	EnterAdmin(ctx context.Context, session *models.AppSession, passphrase string) (*models.AppSession, error)
	ExitAdmin(session *models.AppSession) *models.AppSession
	SetDarkMode(session *models.AppSession, dark bool) *models.AppSession
	State(session *models.AppSession) (*models.SessionState, error)
}

// AdminModeRequest unlocks the admin screens.
type AdminModeRequest struct {
	Passphrase string `json:"passphrase" binding:"required"`
}

// PreferencesRequest updates display preferences.
type PreferencesRequest struct {
	DarkMode *bool `json:"dark_mode" binding:"required"`
}

// SessionHandler exposes the per-client session flags.
type SessionHandler struct {
	service sessionService
}

// NewSessionHandler constructs a session handler.
func NewSessionHandler(svc sessionService) *SessionHandler {
	return &SessionHandler{service: svc}
}

// Get godoc
// @Summary Current session
// @Description Returns the session flags and a token to send back in X-Session-Token.
// @Tags Session
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /session [get]
func (h *SessionHandler) Get(c *gin.Context) {
	h.respond(c, h.current(c))
}

// EnterAdmin godoc
// @Summary Enter admin mode
// @Description Unlocks the admin screens for this session. This is a UI convenience, not access control.
// @Tags Session
// @Accept json
// @Produce json
// @Param payload body AdminModeRequest true "Passphrase"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /session/admin [post]
func (h *SessionHandler) EnterAdmin(c *gin.Context) {
	var req AdminModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	session, err := h.service.EnterAdmin(c.Request.Context(), h.current(c), req.Passphrase)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.respond(c, session)
}

// ExitAdmin godoc
// @Summary Leave admin mode
// @Tags Session
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /session/admin [delete]
func (h *SessionHandler) ExitAdmin(c *gin.Context) {
	h.respond(c, h.service.ExitAdmin(h.current(c)))
}

// UpdatePreferences godoc
// @Summary Update display preferences
// @Tags Session
// @Accept json
// @Produce json
// @Param payload body PreferencesRequest true "Preferences"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /session/preferences [put]
func (h *SessionHandler) UpdatePreferences(c *gin.Context) {
	var req PreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	h.respond(c, h.service.SetDarkMode(h.current(c), *req.DarkMode))
}

func (h *SessionHandler) current(c *gin.Context) *models.AppSession {
	if session := middleware.SessionFromContext(c); session != nil {
		return session
	}
	return h.service.New()
}

func (h *SessionHandler) respond(c *gin.Context, session *models.AppSession) {
	state, err := h.service.State(session)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header(middleware.SessionHeader, state.Token)
	response.JSON(c, http.StatusOK, state, nil)
}
