// Package catalog computes visible subsets of the subject catalog and holds
// the authoritative in-memory record set.
package catalog

import (
	"strings"

	"github.com/noah-isme/subject-catalog-api/internal/models"
)

// RelatedLimit caps the related subjects shown beside a detail view.
const RelatedLimit = 3

// Query is the pair of inputs that selects the visible subset.
type Query struct {
	Search   string          `json:"search"`
	Category models.Category `json:"category"`
}

// Filter returns the records admitted by q in their original order. The
// category step keeps records of the selected category plus wildcard
// records; the search step keeps records whose name or description
// contains the search text, ignoring case. Both steps apply together.
func Filter(records []models.Subject, q Query) []models.Subject {
	needle := strings.ToLower(q.Search)
	visible := make([]models.Subject, 0, len(records))
	for _, record := range records {
		if !q.Category.Admits(record.Category) {
			continue
		}
		if needle != "" && !matches(record, needle) {
			continue
		}
		visible = append(visible, record)
	}
	return visible
}

func matches(record models.Subject, needle string) bool {
	return strings.Contains(strings.ToLower(record.Name), needle) ||
		strings.Contains(strings.ToLower(record.Description), needle)
}

// Related picks up to limit records that share a category with subject.
// Wildcard records relate to everything, and a wildcard subject relates to
// every concrete category.
func Related(records []models.Subject, subject models.Subject, limit int) []models.Subject {
	related := make([]models.Subject, 0, limit)
	if limit <= 0 {
		return related
	}
	for _, record := range records {
		if record.ID == subject.ID {
			continue
		}
		if record.Category == subject.Category || record.Category.Wildcard() ||
			(subject.Category.Wildcard() && record.Category.Valid()) {
			related = append(related, record)
			if len(related) == limit {
				break
			}
		}
	}
	return related
}

// Find returns the record with id.
func Find(records []models.Subject, id string) (models.Subject, bool) {
	for _, record := range records {
		if record.ID == id {
			return record, true
		}
	}
	return models.Subject{}, false
}
