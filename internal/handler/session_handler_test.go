package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/subject-catalog-api/internal/middleware"
	"github.com/noah-isme/subject-catalog-api/internal/models"
	"github.com/noah-isme/subject-catalog-api/internal/service"
)

func newSessionHandlerForTest(t *testing.T) (*SessionHandler, *service.SessionService) {
	t.Helper()
	sessions, err := service.NewSessionService(service.SessionConfig{Secret: "test-secret", AdminPassphrase: "letmein"}, nil)
	require.NoError(t, err)
	return NewSessionHandler(sessions), sessions
}

func decodeSessionState(t *testing.T, data json.RawMessage) models.SessionState {
	t.Helper()
	var state models.SessionState
	require.NoError(t, json.Unmarshal(data, &state))
	return state
}

func TestSessionHandlerGetIssuesToken(t *testing.T) {
	handler, sessions := newSessionHandlerForTest(t)
	c, w := newTestContext(http.MethodGet, "/session", nil)

	handler.Get(c)

	require.Equal(t, http.StatusOK, w.Code)
	state := decodeSessionState(t, decodeEnvelope(t, w).Data)
	assert.False(t, state.IsAdmin)
	assert.NotEmpty(t, state.Token)
	assert.Equal(t, state.Token, w.Header().Get(middleware.SessionHeader))

	parsed, err := sessions.Parse(state.Token)
	require.NoError(t, err)
	assert.False(t, parsed.IsAdmin())
}

func TestSessionHandlerEnterAdmin(t *testing.T) {
	handler, sessions := newSessionHandlerForTest(t)
	c, w := newTestContext(http.MethodPost, "/session/admin", []byte(`{"passphrase":"letmein"}`))
	c.Set(middleware.ContextSessionKey, sessions.New().WithDarkMode(true))

	handler.EnterAdmin(c)

	require.Equal(t, http.StatusOK, w.Code)
	state := decodeSessionState(t, decodeEnvelope(t, w).Data)
	assert.True(t, state.IsAdmin)
	assert.True(t, state.DarkMode)
}

func TestSessionHandlerEnterAdminWrongPassphrase(t *testing.T) {
	handler, _ := newSessionHandlerForTest(t)
	c, w := newTestContext(http.MethodPost, "/session/admin", []byte(`{"passphrase":"nope"}`))

	handler.EnterAdmin(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSessionHandlerEnterAdminMissingPassphrase(t *testing.T) {
	handler, _ := newSessionHandlerForTest(t)
	c, w := newTestContext(http.MethodPost, "/session/admin", []byte(`{}`))

	handler.EnterAdmin(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionHandlerExitAdmin(t *testing.T) {
	handler, sessions := newSessionHandlerForTest(t)
	c, w := newTestContext(http.MethodDelete, "/session/admin", nil)
	c.Set(middleware.ContextSessionKey, sessions.New().WithAdmin(true))

	handler.ExitAdmin(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decodeSessionState(t, decodeEnvelope(t, w).Data).IsAdmin)
}

func TestSessionHandlerUpdatePreferences(t *testing.T) {
	handler, sessions := newSessionHandlerForTest(t)
	c, w := newTestContext(http.MethodPut, "/session/preferences", []byte(`{"dark_mode":true}`))
	c.Set(middleware.ContextSessionKey, sessions.New().WithAdmin(true))

	handler.UpdatePreferences(c)

	require.Equal(t, http.StatusOK, w.Code)
	state := decodeSessionState(t, decodeEnvelope(t, w).Data)
	assert.True(t, state.DarkMode)
	assert.True(t, state.IsAdmin)
}

func TestSessionHandlerUpdatePreferencesRequiresFlag(t *testing.T) {
	handler, _ := newSessionHandlerForTest(t)
	c, w := newTestContext(http.MethodPut, "/session/preferences", []byte(`{}`))

	handler.UpdatePreferences(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
