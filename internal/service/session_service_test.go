package service

import (
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/subject-catalog-api/internal/models"
	appErrors "github.com/noah-isme/subject-catalog-api/pkg/errors"
)

func newSessionServiceForTest(t *testing.T) *SessionService {
	t.Helper()
	svc, err := NewSessionService(SessionConfig{Secret: "test-secret", AdminPassphrase: "admin123"}, nil)
	require.NoError(t, err)
	return svc
}

func TestNewSessionServiceRequiresSecret(t *testing.T) {
	_, err := NewSessionService(SessionConfig{AdminPassphrase: "x"}, nil)
	assert.Error(t, err)
}

func TestSessionServiceRoundTrip(t *testing.T) {
	svc := newSessionServiceForTest(t)
	session := models.NewAppSession("abc", true, true)

	token, err := svc.Issue(session)
	require.NoError(t, err)

	parsed, err := svc.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "abc", parsed.ID())
	assert.True(t, parsed.IsAdmin())
	assert.True(t, parsed.DarkMode())
}

func TestSessionServiceRejectsForeignTokens(t *testing.T) {
	svc := newSessionServiceForTest(t)
	other, err := NewSessionService(SessionConfig{Secret: "other-secret", AdminPassphrase: "admin123"}, nil)
	require.NoError(t, err)

	token, err := other.Issue(models.NewAppSession("abc", true, false))
	require.NoError(t, err)

	_, err = svc.Parse(token)
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrUnauthorized.Code))

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, &models.SessionClaims{Admin: true})
	raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = svc.Parse(raw)
	assert.Error(t, err)
}

func TestSessionServiceResolve(t *testing.T) {
	svc := newSessionServiceForTest(t)

	fresh := svc.Resolve("")
	assert.NotEmpty(t, fresh.ID())
	assert.False(t, fresh.IsAdmin())

	garbage := svc.Resolve("not-a-token")
	assert.NotEmpty(t, garbage.ID())
	assert.False(t, garbage.IsAdmin())

	token, err := svc.Issue(models.NewAppSession("abc", false, true))
	require.NoError(t, err)
	assert.True(t, svc.Resolve(token).DarkMode())
}

func TestSessionServiceEnterAdmin(t *testing.T) {
	svc := newSessionServiceForTest(t)
	session := svc.New()

	_, err := svc.EnterAdmin(context.Background(), session, "wrong")
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrUnauthorized.Code))

	_, err = svc.EnterAdmin(context.Background(), session, "")
	assert.True(t, appErrors.IsCode(err, appErrors.ErrValidation.Code))

	admin, err := svc.EnterAdmin(context.Background(), session, "admin123")
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin())
	assert.Equal(t, session.ID(), admin.ID())
	assert.False(t, session.IsAdmin(), "original session is not mutated")

	assert.False(t, svc.ExitAdmin(admin).IsAdmin())
}

func TestSessionServiceState(t *testing.T) {
	svc := newSessionServiceForTest(t)
	session := svc.SetDarkMode(svc.New(), true)

	state, err := svc.State(session)
	require.NoError(t, err)
	assert.True(t, state.DarkMode)
	assert.False(t, state.IsAdmin)

	parsed, err := svc.Parse(state.Token)
	require.NoError(t, err)
	assert.True(t, parsed.DarkMode())
}
