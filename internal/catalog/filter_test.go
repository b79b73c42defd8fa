package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/subject-catalog-api/internal/models"
)

func sampleRecords() []models.Subject {
	return []models.Subject{
		{ID: "1", Name: "Calculus", Description: "Limits and derivatives", Category: models.CategoryCS},
		{ID: "2", Name: "Psych 101", Description: "Human behaviour", Category: models.CategoryIS},
		{ID: "3", Name: "Writing", Description: "Essays and citations", Category: models.CategoryAll},
	}
}

func names(records []models.Subject) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Name)
	}
	return out
}

func TestFilterScenarios(t *testing.T) {
	records := sampleRecords()

	cases := []struct {
		name  string
		query Query
		want  []string
	}{
		{name: "cs includes wildcard", query: Query{Category: models.CategoryCS}, want: []string{"Calculus", "Writing"}},
		{name: "is with search", query: Query{Category: models.CategoryIS, Search: "psych"}, want: []string{"Psych 101"}},
		{name: "it only wildcard", query: Query{Category: models.CategoryIT}, want: []string{"Writing"}},
		{name: "all passes everything", query: Query{Category: models.CategoryAll}, want: []string{"Calculus", "Psych 101", "Writing"}},
		{name: "no filter passes everything", query: Query{}, want: []string{"Calculus", "Psych 101", "Writing"}},
		{name: "search is case insensitive", query: Query{Search: "CALC"}, want: []string{"Calculus"}},
		{name: "search matches description", query: Query{Search: "citations"}, want: []string{"Writing"}},
		{name: "search without match", query: Query{Search: "astronomy"}, want: []string{}},
		{name: "search narrows wildcard", query: Query{Category: models.CategoryCS, Search: "essays"}, want: []string{"Writing"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, names(Filter(records, tc.query)))
		})
	}
}

func TestFilterEmptyInput(t *testing.T) {
	got := Filter(nil, Query{Search: "x", Category: models.CategoryCS})
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFilterProperties(t *testing.T) {
	records := append(sampleRecords(),
		models.Subject{ID: "4", Name: "Networks", Description: "Packets and routing", Category: models.CategoryIT},
		models.Subject{ID: "5", Name: "Databases", Description: "Relational algebra and SQL", Category: models.CategoryIS},
		models.Subject{ID: "6", Name: "Ethics", Description: "Writing about technology", Category: models.CategoryAll},
	)
	categories := []models.Category{"", models.CategoryCS, models.CategoryIT, models.CategoryIS, models.CategoryAll}
	searches := []string{"", "a", "writ", "SQL", "zzz"}

	for _, c := range categories {
		unsearched := Filter(records, Query{Category: c})
		for _, r := range unsearched {
			if c != "" && c != models.CategoryAll {
				assert.True(t, r.Category == c || r.Category == models.CategoryAll)
			}
		}
		if c == "" || c == models.CategoryAll {
			assert.Equal(t, records, unsearched)
		}

		for _, q := range searches {
			query := Query{Search: q, Category: c}
			got := Filter(records, query)

			assert.Subset(t, unsearched, got, "search must only narrow")
			assert.Equal(t, got, Filter(got, query), "filter must be idempotent")
			assertOrderPreserved(t, records, got)
		}
	}
}

func assertOrderPreserved(t *testing.T, source, subset []models.Subject) {
	t.Helper()
	pos := make(map[string]int, len(source))
	for i, r := range source {
		pos[r.ID] = i
	}
	for i := 1; i < len(subset); i++ {
		assert.Less(t, pos[subset[i-1].ID], pos[subset[i].ID])
	}
}

func TestRelated(t *testing.T) {
	records := []models.Subject{
		{ID: "1", Name: "Calculus", Category: models.CategoryCS},
		{ID: "2", Name: "Psych", Category: models.CategoryIS},
		{ID: "3", Name: "Writing", Category: models.CategoryAll},
		{ID: "4", Name: "Algorithms", Category: models.CategoryCS},
		{ID: "5", Name: "Compilers", Category: models.CategoryCS},
		{ID: "6", Name: "Networks", Category: models.CategoryIT},
	}

	assert.Equal(t, []string{"Writing", "Algorithms", "Compilers"}, names(Related(records, records[0], RelatedLimit)))
	assert.Equal(t, []string{"Writing"}, names(Related(records, records[1], RelatedLimit)))
	assert.Equal(t, []string{"Calculus", "Psych", "Algorithms"}, names(Related(records, records[2], RelatedLimit)))
	assert.Empty(t, Related(records, records[0], 0))
}

func TestFind(t *testing.T) {
	records := sampleRecords()
	got, ok := Find(records, "2")
	require.True(t, ok)
	assert.Equal(t, "Psych 101", got.Name)

	_, ok = Find(records, "missing")
	assert.False(t, ok)
}
