package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/subject-catalog-api/internal/models"
	"github.com/noah-isme/subject-catalog-api/pkg/docstore"
)

// Gateway operation outcomes reported to the observer.
const (
	OutcomeOK       = "ok"
	OutcomeError    = "error"
	OutcomeFallback = "fallback"
)

// subjectSearchFields are the attributes matched by server-side search.
var subjectSearchFields = []string{"name", "description"}

// GatewayObserver receives timing and fallback signals from the gateway.
type GatewayObserver interface {
	ObserveGatewayOperation(operation, outcome string, duration time.Duration)
	IncGatewayFallback(operation string)
}

// GatewayOptions tunes the gateway.
type GatewayOptions struct {
	// RemapWildcardOnCreate rewrites ALL to CS before a create is written.
	RemapWildcardOnCreate bool
	Now                   func() time.Time
	NewID                 func() (string, error)
}

// SubjectGateway is the only component that talks to the document store.
// It maps documents to subjects and absorbs store failures according to a
// per-operation policy.
type SubjectGateway struct {
	collection docstore.Collection
	observer   GatewayObserver
	logger     *zap.Logger
	opts       GatewayOptions
}

// NewSubjectGateway constructs a gateway. observer may be nil.
func NewSubjectGateway(collection docstore.Collection, observer GatewayObserver, logger *zap.Logger, opts GatewayOptions) *SubjectGateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = newCandidateID
	}
	return &SubjectGateway{collection: collection, observer: observer, logger: logger, opts: opts}
}

// ListAll returns every stored subject. When the store cannot be read the
// fixed fallback catalog is returned instead, tagged with SourceFallback.
func (g *SubjectGateway) ListAll(ctx context.Context) models.SubjectSet {
	start := time.Now()
	docs, err := g.collection.List(ctx)
	if err != nil {
		g.fallback("list", start, err)
		return models.SubjectSet{Subjects: FallbackSubjects(g.opts.Now()), Source: models.SourceFallback}
	}
	g.observe("list", OutcomeOK, start)

	subjects := make([]models.Subject, 0, len(docs))
	for _, doc := range docs {
		subjects = append(subjects, subjectFromDocument(doc))
	}
	return models.SubjectSet{Subjects: subjects, Source: models.SourceRemote}
}

// Create writes a new subject. A failed write still yields a record carrying
// the bare local identifier so the caller can show it; such records report
// Persisted() == false. An error is returned only when no record could be
// built at all.
func (g *SubjectGateway) Create(ctx context.Context, draft models.SubjectDraft) (*models.Subject, error) {
	candidate, err := g.opts.NewID()
	if err != nil {
		g.logger.Error("generate subject id", zap.Error(err))
		return nil, fmt.Errorf("generate subject id: %w", err)
	}

	category := draft.Category
	if g.opts.RemapWildcardOnCreate && category == models.CategoryAll {
		category = models.CategoryCS
	}

	local := models.Subject{
		ID:              candidate,
		Name:            draft.Name,
		Description:     draft.Description,
		SlideLink:       draft.SlideLink,
		TestBankLink:    draft.TestBankLink,
		TelegramChannel: draft.TelegramChannel,
		Category:        category,
		CreatedAt:       g.opts.Now().UTC().Format(time.RFC3339),
	}

	start := time.Now()
	doc, err := g.collection.Create(ctx, docstore.Key(candidate), attributesFromSubject(local))
	if err != nil {
		g.fallback("create", start, err, zap.String("local_id", candidate))
		return &local, nil
	}
	g.observe("create", OutcomeOK, start)

	created := subjectFromDocument(*doc)
	return &created, nil
}

// Update merges patch into the stored subject. It returns nil on any failure.
func (g *SubjectGateway) Update(ctx context.Context, id string, patch models.SubjectPatch) *models.Subject {
	start := time.Now()
	doc, err := g.collection.Update(ctx, id, attributesFromPatch(patch))
	if err != nil {
		g.failure("update", start, err, zap.String("id", id))
		return nil
	}
	g.observe("update", OutcomeOK, start)

	updated := subjectFromDocument(*doc)
	return &updated
}

// Remove deletes the stored subject and reports whether the store confirmed it.
func (g *SubjectGateway) Remove(ctx context.Context, id string) bool {
	start := time.Now()
	if err := g.collection.Delete(ctx, id); err != nil {
		g.failure("delete", start, err, zap.String("id", id))
		return false
	}
	g.observe("delete", OutcomeOK, start)
	return true
}

// Search runs a server-side match over name and description. Failures
// yield an empty result.
func (g *SubjectGateway) Search(ctx context.Context, query string) []models.Subject {
	start := time.Now()
	docs, err := g.collection.Search(ctx, query, subjectSearchFields...)
	if err != nil {
		g.failure("search", start, err)
		return []models.Subject{}
	}
	g.observe("search", OutcomeOK, start)

	subjects := make([]models.Subject, 0, len(docs))
	for _, doc := range docs {
		subjects = append(subjects, subjectFromDocument(doc))
	}
	return subjects
}

// Get reads a single stored subject, or nil when it cannot be read.
func (g *SubjectGateway) Get(ctx context.Context, id string) *models.Subject {
	start := time.Now()
	doc, err := g.collection.Get(ctx, id)
	if err != nil {
		g.failure("get", start, err, zap.String("id", id))
		return nil
	}
	g.observe("get", OutcomeOK, start)

	subject := subjectFromDocument(*doc)
	return &subject
}

func (g *SubjectGateway) fallback(op string, start time.Time, err error, fields ...zap.Field) {
	g.observe(op, OutcomeFallback, start)
	if g.observer != nil {
		g.observer.IncGatewayFallback(op)
	}
	kind := docstore.Classify(err)
	g.logger.Warn("document store unavailable, serving local data",
		append(fields,
			zap.String("operation", op),
			zap.String("kind", string(kind)),
			zap.String("hint", kind.Hint()),
			zap.Error(err),
		)...)
}

func (g *SubjectGateway) failure(op string, start time.Time, err error, fields ...zap.Field) {
	g.observe(op, OutcomeError, start)
	kind := docstore.Classify(err)
	g.logger.Warn("document store operation failed",
		append(fields,
			zap.String("operation", op),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)...)
}

func (g *SubjectGateway) observe(op, outcome string, start time.Time) {
	if g.observer == nil {
		return
	}
	g.observer.ObserveGatewayOperation(op, outcome, time.Since(start))
}

func newCandidateID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(id.String(), "-", ""), nil
}

func subjectFromDocument(doc docstore.Document) models.Subject {
	attrs := doc.Attributes
	return models.Subject{
		ID:              doc.Key,
		Name:            attrs.String("name"),
		Description:     attrs.String("description"),
		SlideLink:       attrs.String("slide_link"),
		TestBankLink:    attrs.String("test_bank_link"),
		TelegramChannel: attrs.String("telegram_channel"),
		Category:        models.Category(attrs.String("category")),
		CreatedAt:       attrs.String("created_at"),
	}
}

func attributesFromSubject(s models.Subject) docstore.Attributes {
	return docstore.Attributes{
		"name":             s.Name,
		"description":      s.Description,
		"slide_link":       s.SlideLink,
		"test_bank_link":   s.TestBankLink,
		"telegram_channel": s.TelegramChannel,
		"category":         string(s.Category),
		"created_at":       s.CreatedAt,
	}
}

func attributesFromPatch(p models.SubjectPatch) docstore.Attributes {
	attrs := docstore.Attributes{}
	if p.Name != nil {
		attrs["name"] = *p.Name
	}
	if p.Description != nil {
		attrs["description"] = *p.Description
	}
	if p.SlideLink != nil {
		attrs["slide_link"] = *p.SlideLink
	}
	if p.TestBankLink != nil {
		attrs["test_bank_link"] = *p.TestBankLink
	}
	if p.TelegramChannel != nil {
		attrs["telegram_channel"] = *p.TelegramChannel
	}
	if p.Category != nil {
		attrs["category"] = string(*p.Category)
	}
	return attrs
}
