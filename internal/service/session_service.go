package service

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/subject-catalog-api/internal/models"
	appErrors "github.com/noah-isme/subject-catalog-api/pkg/errors"
)

const sessionIssuer = "subject-catalog"

// SessionConfig holds the signing secret and the admin screen passphrase.
type SessionConfig struct {
	Secret          string
	AdminPassphrase string
}

// SessionService issues and reads the signed session token carrying the
// admin and dark mode flags. Tokens do not expire, matching the lifetime of
// the preferences they hold.
//
// The admin passphrase only unlocks admin screens. It is a UI convenience,
// not an access control: the document store decides whether a write is
// allowed.
type SessionService struct {
	secret     []byte
	passphrase []byte
	logger     *zap.Logger
	now        func() time.Time
}

// NewSessionService hashes the configured passphrase and returns the service.
func NewSessionService(cfg SessionConfig, logger *zap.Logger) (*SessionService, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("session secret is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassphrase), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash admin passphrase: %w", err)
	}
	return &SessionService{secret: []byte(cfg.Secret), passphrase: hash, logger: logger, now: time.Now}, nil
}

// New returns a fresh session with both flags cleared.
func (s *SessionService) New() *models.AppSession {
	return models.NewAppSession(uuid.NewString(), false, false)
}

// Issue signs session into a token.
func (s *SessionService) Issue(session *models.AppSession) (string, error) {
	claims := &models.SessionClaims{
		Admin:    session.IsAdmin(),
		DarkMode: session.DarkMode(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   sessionIssuer,
			Subject:  session.ID(),
			IssuedAt: jwt.NewNumericDate(s.now().UTC()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign session")
	}
	return signed, nil
}

// Parse verifies a token and returns the session it carries.
func (s *SessionService) Parse(tokenString string) (*models.AppSession, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(sessionIssuer))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid session token")
	}

	claims, ok := token.Claims.(*models.SessionClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid session claims")
	}
	return models.NewAppSession(claims.Subject, claims.Admin, claims.DarkMode), nil
}

// Resolve returns the session in tokenString, or a fresh one when the token
// is missing or unreadable.
func (s *SessionService) Resolve(tokenString string) *models.AppSession {
	if tokenString == "" {
		return s.New()
	}
	session, err := s.Parse(tokenString)
	if err != nil {
		s.logger.Debug("discarding unreadable session token", zap.Error(err))
		return s.New()
	}
	return session
}

// EnterAdmin unlocks the admin screens when passphrase matches.
func (s *SessionService) EnterAdmin(ctx context.Context, session *models.AppSession, passphrase string) (*models.AppSession, error) {
	if passphrase == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "passphrase is required")
	}
	if err := bcrypt.CompareHashAndPassword(s.passphrase, []byte(passphrase)); err != nil {
		s.logger.Info("admin passphrase rejected", zap.String("session_id", session.ID()))
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "incorrect passphrase")
	}
	return session.WithAdmin(true), nil
}

// ExitAdmin clears the admin flag.
func (s *SessionService) ExitAdmin(session *models.AppSession) *models.AppSession {
	return session.WithAdmin(false)
}

// SetDarkMode records the theme preference.
func (s *SessionService) SetDarkMode(session *models.AppSession, dark bool) *models.AppSession {
	return session.WithDarkMode(dark)
}

// State signs session and returns the client view of it.
func (s *SessionService) State(session *models.AppSession) (*models.SessionState, error) {
	token, err := s.Issue(session)
	if err != nil {
		return nil, err
	}
	return &models.SessionState{Token: token, IsAdmin: session.IsAdmin(), DarkMode: session.DarkMode()}, nil
}
