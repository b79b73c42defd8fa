package websocket

import (
	"github.com/noah-isme/subject-catalog-api/internal/catalog"
	"github.com/noah-isme/subject-catalog-api/internal/models"
)

// Event names sent by the server.
const (
	EventCatalog = "catalog"
	EventError   = "error"
)

// QueryMessage is sent by the client to change its filter. Absent fields
// keep their current value.
type QueryMessage struct {
	Search   *string `json:"search,omitempty"`
	Category *string `json:"category,omitempty"`
}

// CatalogEvent carries the subset visible to one client.
type CatalogEvent struct {
	Event    string           `json:"event"`
	Version  uint64           `json:"version"`
	Source   models.Source    `json:"source"`
	Query    catalog.Query    `json:"query"`
	Total    int              `json:"total"`
	Subjects []models.Subject `json:"subjects"`
}

// ErrorEvent reports a rejected client message.
type ErrorEvent struct {
	Event string `json:"event"`
	Error string `json:"error"`
}
