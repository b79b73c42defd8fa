// Package docstore talks to a remote document collection. It knows about
// documents and attributes only; mapping to domain records happens in the
// caller.
package docstore

import (
	"context"
	"encoding/json"
	"strings"
)

// KeyFieldName is the reserved wire attribute carrying the document key.
const KeyFieldName = "$id"

// KeyPrefix marks keys minted for documents written through this package.
const KeyPrefix = "doc_"

// Key builds a store key from a locally generated candidate identifier.
func Key(candidate string) string {
	return KeyPrefix + candidate
}

// HasKeyPrefix reports whether id was minted as a store key.
func HasKeyPrefix(id string) bool {
	return strings.HasPrefix(id, KeyPrefix)
}

// Attributes holds the user-defined fields of a document.
type Attributes map[string]interface{}

// String returns the attribute as a string, or "" when absent or not a string.
func (a Attributes) String(name string) string {
	if a == nil {
		return ""
	}
	if v, ok := a[name].(string); ok {
		return v
	}
	return ""
}

// Document is one stored entry in a collection.
type Document struct {
	Key        string
	Attributes Attributes
}

// UnmarshalJSON reads the flat wire shape: the reserved key field plus
// attributes. Other system fields ("$createdAt", "$permissions", ...) are dropped.
func (d *Document) UnmarshalJSON(data []byte) error {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	d.Key, _ = raw[KeyFieldName].(string)
	d.Attributes = make(Attributes, len(raw))
	for name, value := range raw {
		if strings.HasPrefix(name, "$") {
			continue
		}
		d.Attributes[name] = value
	}
	return nil
}

// MarshalJSON writes the flat wire shape.
func (d Document) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(d.Attributes)+1)
	for name, value := range d.Attributes {
		out[name] = value
	}
	out[KeyFieldName] = d.Key
	return json.Marshal(out)
}

// Collection is a remote document collection.
type Collection interface {
	// List returns every document in insertion order.
	List(ctx context.Context) ([]Document, error)
	Get(ctx context.Context, key string) (*Document, error)
	// Create stores attrs under the caller supplied key.
	Create(ctx context.Context, key string, attrs Attributes) (*Document, error)
	// Update merges attrs into the stored document.
	Update(ctx context.Context, key string, attrs Attributes) (*Document, error)
	Delete(ctx context.Context, key string) error
	// Search matches query case-insensitively against any of fields.
	Search(ctx context.Context, query string, fields ...string) ([]Document, error)
}
