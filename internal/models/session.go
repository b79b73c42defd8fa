package models

import "github.com/golang-jwt/jwt/v5"

// AppSession holds the per-client flags that drive the browsing UI.
//
// The admin flag is a UI convenience that decides which screens a client is
// offered. It is not an authorization decision: write permissions are
// enforced by the document store.
type AppSession struct {
	id       string
	admin    bool
	darkMode bool
}

// NewAppSession builds a session value.
func NewAppSession(id string, admin, darkMode bool) *AppSession {
	return &AppSession{id: id, admin: admin, darkMode: darkMode}
}

// ID returns the session identifier, or "" for anonymous sessions.
func (s *AppSession) ID() string {
	if s == nil {
		return ""
	}
	return s.id
}

// IsAdmin reports whether the admin screens are unlocked.
func (s *AppSession) IsAdmin() bool {
	return s != nil && s.admin
}

// DarkMode reports the dark theme preference.
func (s *AppSession) DarkMode() bool {
	return s != nil && s.darkMode
}

// WithAdmin returns a copy with the admin flag set to admin.
func (s *AppSession) WithAdmin(admin bool) *AppSession {
	clone := s.clone()
	clone.admin = admin
	return clone
}

// WithDarkMode returns a copy with the dark mode preference set.
func (s *AppSession) WithDarkMode(dark bool) *AppSession {
	clone := s.clone()
	clone.darkMode = dark
	return clone
}

func (s *AppSession) clone() *AppSession {
	if s == nil {
		return &AppSession{}
	}
	c := *s
	return &c
}

// SessionClaims is the signed form of an AppSession.
type SessionClaims struct {
	Admin    bool `json:"admin"`
	DarkMode bool `json:"dark_mode"`
	jwt.RegisteredClaims
}

// SessionState is the JSON view of a session returned to clients.
type SessionState struct {
	Token    string `json:"token,omitempty"`
	IsAdmin  bool   `json:"is_admin"`
	DarkMode bool   `json:"dark_mode"`
}
