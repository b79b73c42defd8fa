package catalog

import "github.com/noah-isme/subject-catalog-api/internal/models"

// View keeps one client's filter inputs and the subset they select. Every
// setter recomputes the subset from scratch. A View is not safe for
// concurrent use.
type View struct {
	records []models.Subject
	query   Query
	visible []models.Subject
}

// NewView returns a view with no records, empty search and no category.
func NewView() *View {
	return &View{records: []models.Subject{}, visible: []models.Subject{}}
}

// SetRecords replaces the record set.
func (v *View) SetRecords(records []models.Subject) []models.Subject {
	v.records = records
	return v.recompute()
}

// SetSearch replaces the search text.
func (v *View) SetSearch(search string) []models.Subject {
	v.query.Search = search
	return v.recompute()
}

// SetCategory replaces the category selection. The empty category clears it.
func (v *View) SetCategory(category models.Category) []models.Subject {
	v.query.Category = category
	return v.recompute()
}

// SetQuery replaces both filter inputs at once.
func (v *View) SetQuery(q Query) []models.Subject {
	v.query = q
	return v.recompute()
}

// Query returns the current filter inputs.
func (v *View) Query() Query {
	return v.query
}

// Visible returns the current subset.
func (v *View) Visible() []models.Subject {
	return v.visible
}

func (v *View) recompute() []models.Subject {
	v.visible = Filter(v.records, v.query)
	return v.visible
}
