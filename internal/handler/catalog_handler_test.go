package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/subject-catalog-api/internal/catalog"
	"github.com/noah-isme/subject-catalog-api/internal/models"
	appErrors "github.com/noah-isme/subject-catalog-api/pkg/errors"
)

type triggerMock struct {
	jobID   string
	err     error
	reasons []string
}

func (m *triggerMock) Trigger(reason string) (string, error) {
	m.reasons = append(m.reasons, reason)
	return m.jobID, m.err
}

func TestCatalogHandlerRefreshQueuesJob(t *testing.T) {
	trigger := &triggerMock{jobID: "job-1"}
	handler := NewCatalogHandler(catalog.NewEngine(), trigger)
	c, w := newTestContext(http.MethodPost, "/catalog/refresh", nil)

	handler.Refresh(c)

	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, []string{"admin"}, trigger.reasons)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &body))
	assert.Equal(t, "job-1", body["job_id"])
	assert.Equal(t, true, body["queued"])
}

func TestCatalogHandlerRefreshAlreadyPending(t *testing.T) {
	handler := NewCatalogHandler(catalog.NewEngine(), &triggerMock{})
	c, w := newTestContext(http.MethodPost, "/catalog/refresh", nil)

	handler.Refresh(c)

	require.Equal(t, http.StatusAccepted, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &body))
	assert.Equal(t, false, body["queued"])
}

func TestCatalogHandlerRefreshUnavailable(t *testing.T) {
	handler := NewCatalogHandler(catalog.NewEngine(), &triggerMock{err: appErrors.Clone(appErrors.ErrUnavailable, "catalog sync is not running")})
	c, w := newTestContext(http.MethodPost, "/catalog/refresh", nil)

	handler.Refresh(c)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestCatalogHandlerStatus(t *testing.T) {
	engine := catalog.NewEngine()
	engine.ApplyFetch(engine.BeginFetch(), models.SubjectSet{
		Subjects: []models.Subject{{ID: "1", Name: "CPCS-203", Category: models.CategoryCS}},
		Source:   models.SourceRemote,
	})
	handler := NewCatalogHandler(engine, &triggerMock{})
	c, w := newTestContext(http.MethodGet, "/catalog", nil)

	handler.Status(c)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &body))
	assert.Equal(t, true, body["loaded"])
	assert.Equal(t, "remote", body["source"])
	assert.EqualValues(t, 1, body["size"])
}
