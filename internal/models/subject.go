package models

import (
	"strings"

	"github.com/noah-isme/subject-catalog-api/pkg/docstore"
)

// Category classifies a subject by program track.
type Category string

const (
	CategoryCS  Category = "CS"
	CategoryIT  Category = "IT"
	CategoryIS  Category = "IS"
	CategoryAll Category = "ALL"
)

// Categories lists every accepted category in display order.
var Categories = []Category{CategoryCS, CategoryIT, CategoryIS, CategoryAll}

// Valid reports whether c is one of the enumerated categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryCS, CategoryIT, CategoryIS, CategoryAll:
		return true
	}
	return false
}

// Wildcard reports whether c is the catch-all category.
func (c Category) Wildcard() bool {
	return c == CategoryAll
}

// Admits reports whether a record tagged with category belongs to the view
// selected by c. An empty selection behaves like ALL.
func (c Category) Admits(category Category) bool {
	if c == "" || c == CategoryAll {
		return true
	}
	return category == c || category == CategoryAll
}

// ParseCategory normalises raw input into a Category. Empty input yields the
// empty category, which callers treat as "no filter".
func ParseCategory(raw string) (Category, bool) {
	trimmed := strings.ToUpper(strings.TrimSpace(raw))
	if trimmed == "" {
		return "", true
	}
	c := Category(trimmed)
	return c, c.Valid()
}

// PersistedIDPrefix marks identifiers assigned through the document store.
const PersistedIDPrefix = docstore.KeyPrefix

// Subject is a catalog entry with descriptive text and optional resource links.
type Subject struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	SlideLink       string   `json:"slide_link,omitempty"`
	TestBankLink    string   `json:"test_bank_link,omitempty"`
	TelegramChannel string   `json:"telegram_channel,omitempty"`
	Category        Category `json:"category"`
	CreatedAt       string   `json:"created_at"`
}

// Persisted reports whether the subject was written to the document store.
// Records synthesized after a failed write carry a bare local identifier.
func (s Subject) Persisted() bool {
	return strings.HasPrefix(s.ID, PersistedIDPrefix)
}

// SubjectDraft captures the fields supplied when creating a subject.
type SubjectDraft struct {
	Name            string   `json:"name" validate:"required"`
	Description     string   `json:"description" validate:"required"`
	SlideLink       string   `json:"slide_link" validate:"omitempty,url"`
	TestBankLink    string   `json:"test_bank_link" validate:"omitempty,url"`
	TelegramChannel string   `json:"telegram_channel" validate:"omitempty,url"`
	Category        Category `json:"category" validate:"required,oneof=CS IT IS ALL"`
}

// Normalize trims surrounding whitespace from every field.
func (d *SubjectDraft) Normalize() {
	d.Name = strings.TrimSpace(d.Name)
	d.Description = strings.TrimSpace(d.Description)
	d.SlideLink = strings.TrimSpace(d.SlideLink)
	d.TestBankLink = strings.TrimSpace(d.TestBankLink)
	d.TelegramChannel = strings.TrimSpace(d.TelegramChannel)
	d.Category = Category(strings.ToUpper(strings.TrimSpace(string(d.Category))))
}

// SubjectPatch carries a partial update. Nil fields are left untouched.
type SubjectPatch struct {
	Name            *string   `json:"name,omitempty"`
	Description     *string   `json:"description,omitempty"`
	SlideLink       *string   `json:"slide_link,omitempty"`
	TestBankLink    *string   `json:"test_bank_link,omitempty"`
	TelegramChannel *string   `json:"telegram_channel,omitempty"`
	Category        *Category `json:"category,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p SubjectPatch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.SlideLink == nil &&
		p.TestBankLink == nil && p.TelegramChannel == nil && p.Category == nil
}

// Apply returns a copy of s with the patch merged in.
func (p SubjectPatch) Apply(s Subject) Subject {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.Description != nil {
		s.Description = *p.Description
	}
	if p.SlideLink != nil {
		s.SlideLink = *p.SlideLink
	}
	if p.TestBankLink != nil {
		s.TestBankLink = *p.TestBankLink
	}
	if p.TelegramChannel != nil {
		s.TelegramChannel = *p.TelegramChannel
	}
	if p.Category != nil {
		s.Category = *p.Category
	}
	return s
}

// Source records where a subject collection came from.
type Source string

const (
	SourceRemote   Source = "remote"
	SourceFallback Source = "fallback"
)

// SubjectSet is a subject collection tagged with its provenance.
type SubjectSet struct {
	Subjects []Subject `json:"subjects"`
	Source   Source    `json:"source"`
}

// Fallback reports whether the set was substituted for unavailable remote data.
func (s SubjectSet) Fallback() bool {
	return s.Source == SourceFallback
}
