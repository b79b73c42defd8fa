package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/subject-catalog-api/internal/catalog"
	"github.com/noah-isme/subject-catalog-api/internal/models"
	appErrors "github.com/noah-isme/subject-catalog-api/pkg/errors"
)

// Banner texts returned alongside catalog responses.
const (
	AdvisoryNotPersisted = "Subject was created but could not be saved to the database. It will disappear on page refresh."
	AdvisoryFallback     = "The subject database is unavailable. Showing sample subjects instead."
)

const maxPageSize = 100

type subjectGateway interface {
	ListAll(ctx context.Context) models.SubjectSet
	Create(ctx context.Context, draft models.SubjectDraft) (*models.Subject, error)
	Update(ctx context.Context, id string, patch models.SubjectPatch) *models.Subject
	Remove(ctx context.Context, id string) bool
	Search(ctx context.Context, query string) []models.Subject
}

// SubjectServiceConfig tunes catalog caching.
type SubjectServiceConfig struct {
	CacheTTL time.Duration
}

// BrowseRequest selects a page of the visible subset.
type BrowseRequest struct {
	Query    catalog.Query
	Page     int
	PageSize int
}

// BrowseResult is one page of the visible subset plus catalog provenance.
type BrowseResult struct {
	Subjects   []models.Subject
	Pagination *models.Pagination
	Source     models.Source
	Version    uint64
	Advisory   string
}

// SubjectDetail is a subject with the related subjects shown beside it.
type SubjectDetail struct {
	Subject models.Subject   `json:"subject"`
	Related []models.Subject `json:"related"`
}

// CreateResult reports the created record and whether it reached the store.
type CreateResult struct {
	Subject   models.Subject
	Persisted bool
	Advisory  string
}

// RefreshResult describes the outcome of one catalog fetch.
type RefreshResult struct {
	Applied  bool          `json:"applied"`
	Fallback bool          `json:"fallback"`
	Source   models.Source `json:"source"`
	Version  uint64        `json:"version"`
	Size     int           `json:"size"`
	CacheHit bool          `json:"cache_hit"`
}

// SubjectService orchestrates the catalog: it loads the record set through
// the gateway, answers browse and detail queries from memory and applies
// admin mutations. Mutations are not serialised against each other; the
// last write wins.
type SubjectService struct {
	gateway   subjectGateway
	engine    *catalog.Engine
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       SubjectServiceConfig
}

// NewSubjectService creates a new subject service.
func NewSubjectService(gateway subjectGateway, engine *catalog.Engine, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg SubjectServiceConfig) *SubjectService {
	if engine == nil {
		engine = catalog.NewEngine()
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubjectService{
		gateway:   gateway,
		engine:    engine,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// Load fetches the catalog, preferring a cached copy of the last remote list.
func (s *SubjectService) Load(ctx context.Context) RefreshResult {
	return s.fetch(ctx, true)
}

// Refresh fetches the catalog from the store, bypassing the cache read.
func (s *SubjectService) Refresh(ctx context.Context) RefreshResult {
	return s.fetch(ctx, false)
}

func (s *SubjectService) fetch(ctx context.Context, readCache bool) RefreshResult {
	seq := s.engine.BeginFetch()

	var set models.SubjectSet
	hit := false
	if readCache {
		var cached []models.Subject
		if ok, _ := s.cache.Get(ctx, CatalogCacheKey, &cached); ok {
			set = models.SubjectSet{Subjects: cached, Source: models.SourceRemote}
			hit = true
		}
	}
	if !hit {
		set = s.gateway.ListAll(ctx)
		if !set.Fallback() {
			_ = s.cache.Set(ctx, CatalogCacheKey, set.Subjects, s.cfg.CacheTTL)
		}
	}

	applied := s.engine.ApplyFetch(seq, set)
	if !applied && set.Fallback() {
		s.logger.Warn("catalog refresh failed, keeping current records", zap.Uint64("seq", seq))
	}
	s.publishState()

	return RefreshResult{
		Applied:  applied,
		Fallback: set.Fallback(),
		Source:   s.engine.Source(),
		Version:  s.engine.Version(),
		Size:     s.engine.Len(),
		CacheHit: hit,
	}
}

func (s *SubjectService) ensureLoaded(ctx context.Context) {
	if !s.engine.Loaded() {
		s.Load(ctx)
	}
}

// Ready reports whether a catalog has been loaded.
func (s *SubjectService) Ready() bool {
	return s.engine.Loaded()
}

// Engine exposes the shared record set for live views.
func (s *SubjectService) Engine() *catalog.Engine {
	return s.engine
}

// Browse filters the catalog and returns the requested page. A zero page
// size returns the whole visible subset.
func (s *SubjectService) Browse(ctx context.Context, req BrowseRequest) (*BrowseResult, error) {
	if req.Query.Category != "" && !req.Query.Category.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "category must be one of CS, IT, IS, ALL")
	}
	s.ensureLoaded(ctx)

	visible := catalog.Filter(s.engine.Snapshot(), req.Query)
	result := &BrowseResult{
		Subjects: visible,
		Source:   s.engine.Source(),
		Version:  s.engine.Version(),
	}
	if result.Source == models.SourceFallback {
		result.Advisory = AdvisoryFallback
	}

	if req.PageSize > 0 {
		page := req.Page
		if page < 1 {
			page = 1
		}
		size := req.PageSize
		if size > maxPageSize {
			size = maxPageSize
		}
		result.Subjects = paginate(visible, page, size)
		result.Pagination = &models.Pagination{Page: page, PageSize: size, TotalCount: len(visible)}
	}
	return result, nil
}

func paginate(records []models.Subject, page, size int) []models.Subject {
	start := (page - 1) * size
	if start >= len(records) {
		return []models.Subject{}
	}
	end := start + size
	if end > len(records) {
		end = len(records)
	}
	return records[start:end]
}

// Get returns subject by identifier with its related subjects.
func (s *SubjectService) Get(ctx context.Context, id string) (*SubjectDetail, error) {
	s.ensureLoaded(ctx)

	records := s.engine.Snapshot()
	subject, ok := catalog.Find(records, id)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
	}
	return &SubjectDetail{
		Subject: subject,
		Related: catalog.Related(records, subject, catalog.RelatedLimit),
	}, nil
}

// Create validates the draft, writes it through the gateway and reloads the
// catalog. A record the store refused is still returned, flagged as not
// persisted.
func (s *SubjectService) Create(ctx context.Context, draft models.SubjectDraft) (*CreateResult, error) {
	draft.Normalize()
	if err := s.validator.Struct(draft); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}

	created, err := s.gateway.Create(ctx, draft)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create subject")
	}

	s.engine.Append(*created)
	s.invalidate(ctx)
	s.Refresh(ctx)

	result := &CreateResult{Subject: *created, Persisted: created.Persisted()}
	if !result.Persisted {
		result.Advisory = AdvisoryNotPersisted
		s.logger.Warn("subject kept locally only", zap.String("subject_id", created.ID))
	}
	return result, nil
}

// Update applies a partial edit. The local record changes only after the
// store confirms the write.
func (s *SubjectService) Update(ctx context.Context, id string, patch models.SubjectPatch) (*models.Subject, error) {
	patch = normalizePatch(patch)
	if err := s.validatePatch(patch); err != nil {
		return nil, err
	}

	s.ensureLoaded(ctx)
	if _, ok := s.engine.Find(id); !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
	}

	updated := s.gateway.Update(ctx, id, patch)
	if updated == nil {
		return nil, appErrors.Clone(appErrors.ErrUpstream, "subject could not be updated")
	}

	s.engine.Replace(*updated)
	s.invalidate(ctx)
	s.publishState()
	return updated, nil
}

// Delete removes a subject once the store confirms the deletion.
func (s *SubjectService) Delete(ctx context.Context, id string) error {
	s.ensureLoaded(ctx)
	if _, ok := s.engine.Find(id); !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "subject not found")
	}

	if !s.gateway.Remove(ctx, id) {
		return appErrors.Clone(appErrors.ErrUpstream, "subject could not be deleted")
	}

	s.engine.Remove(id)
	s.invalidate(ctx)
	s.publishState()
	return nil
}

// Search asks the store for subjects matching query.
func (s *SubjectService) Search(ctx context.Context, query string) ([]models.Subject, error) {
	if strings.TrimSpace(query) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "search query is required")
	}
	return s.gateway.Search(ctx, query), nil
}

func (s *SubjectService) invalidate(ctx context.Context) {
	_ = s.cache.Invalidate(ctx, CatalogCachePattern)
}

func (s *SubjectService) publishState() {
	s.metrics.SetCatalogState(s.engine.Len(), s.engine.Source())
}

func normalizePatch(p models.SubjectPatch) models.SubjectPatch {
	trim := func(v *string) *string {
		if v == nil {
			return nil
		}
		t := strings.TrimSpace(*v)
		return &t
	}
	p.Name = trim(p.Name)
	p.Description = trim(p.Description)
	p.SlideLink = trim(p.SlideLink)
	p.TestBankLink = trim(p.TestBankLink)
	p.TelegramChannel = trim(p.TelegramChannel)
	if p.Category != nil {
		c := models.Category(strings.ToUpper(strings.TrimSpace(string(*p.Category))))
		p.Category = &c
	}
	return p
}

func (s *SubjectService) validatePatch(p models.SubjectPatch) error {
	if p.Empty() {
		return appErrors.Clone(appErrors.ErrValidation, "no fields to update")
	}
	checks := []struct {
		value *string
		tag   string
		field string
	}{
		{p.Name, "required", "name"},
		{p.Description, "required", "description"},
		{p.SlideLink, "omitempty,url", "slide_link"},
		{p.TestBankLink, "omitempty,url", "test_bank_link"},
		{p.TelegramChannel, "omitempty,url", "telegram_channel"},
	}
	for _, check := range checks {
		if check.value == nil {
			continue
		}
		if err := s.validator.Var(*check.value, check.tag); err != nil {
			return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid "+check.field)
		}
	}
	if p.Category != nil && !p.Category.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, "category must be one of CS, IT, IS, ALL")
	}
	return nil
}
