package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/handover-core/internal/core/domain"
	"github.com/custodia-labs/handover-core/internal/core/ports/driven"
	"github.com/custodia-labs/handover-core/internal/core/ports/driving"
	"github.com/custodia-labs/handover-core/internal/metrics"
	"github.com/custodia-labs/handover-core/internal/normalisers"
	"github.com/custodia-labs/handover-core/internal/ranking"
)

// Ensure aggregationService implements AggregationService
var _ driving.AggregationService = (*aggregationService)(nil)

// DefaultCacheTTL is how long an aggregate response stays cached
const DefaultCacheTTL = 5 * time.Minute

// AggregationDeps wires the aggregation pipeline. Documents, Emails,
// Entities, Cache and Metrics may be nil.
type AggregationDeps struct {
	Documents   driven.DocumentSearcher
	Emails      driven.EmailSearcher
	Entities    driven.EntityExtractor
	Normalisers *normalisers.Registry
	Cascader    *ranking.Cascader
	Extractor   driven.FieldExtractor
	Cache       driven.ResultCache
	CacheTTL    time.Duration
	Metrics     *metrics.Metrics
	Logger      *zap.Logger
}

// aggregationService implements the AggregationService interface
type aggregationService struct {
	documents   driven.DocumentSearcher
	emails      driven.EmailSearcher
	entities    driven.EntityExtractor
	normalisers *normalisers.Registry
	cascader    *ranking.Cascader
	extractor   driven.FieldExtractor
	cache       driven.ResultCache
	cacheTTL    time.Duration
	metrics     *metrics.Metrics
	logger      *zap.Logger
}

// NewAggregationService creates a new AggregationService
func NewAggregationService(deps AggregationDeps) driving.AggregationService {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Cascader == nil {
		deps.Cascader = ranking.NewCascader(ranking.DefaultConfig())
	}
	if deps.CacheTTL <= 0 {
		deps.CacheTTL = DefaultCacheTTL
	}
	return &aggregationService{
		documents:   deps.Documents,
		emails:      deps.Emails,
		entities:    deps.Entities,
		normalisers: deps.Normalisers,
		cascader:    deps.Cascader,
		extractor:   deps.Extractor,
		cache:       deps.Cache,
		cacheTTL:    deps.CacheTTL,
		metrics:     deps.Metrics,
		logger:      deps.Logger.Named("aggregate"),
	}
}

// upstreamHits collects what the concurrent upstream calls returned
type upstreamHits struct {
	mu        sync.Mutex
	documents []*domain.DocumentRecord
	emails    []*domain.EmailRecord
	entities  []domain.Entity
	failed    map[domain.SourceKind]error
}

func (h *upstreamHits) fail(kind domain.SourceKind, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.failed[kind] = err
}

// Aggregate runs the search pipeline for a query
func (s *aggregationService) Aggregate(ctx context.Context, req domain.AggregateRequest) (*domain.AggregateResponse, error) {
	start := time.Now()

	if err := req.Normalize(); err != nil {
		return nil, err
	}

	key := CacheKey(req)
	if cached := s.lookup(ctx, key); cached != nil {
		return cached, nil
	}

	hits, err := s.fetch(ctx, req)
	if err != nil {
		return nil, err
	}

	degraded := make([]string, 0, len(hits.failed))
	for _, kind := range req.Sources {
		if _, ok := hits.failed[kind]; ok {
			degraded = append(degraded, string(kind))
		}
	}
	if len(degraded) == len(req.Sources) {
		errs := make([]error, 0, len(hits.failed))
		for _, kind := range req.Sources {
			errs = append(errs, hits.failed[kind])
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrServiceUnavailable, errors.Join(errs...))
	}

	records := make([]domain.SourceRecord, 0, len(hits.documents)+len(hits.emails))
	for _, d := range hits.documents {
		records = append(records, domain.DocumentSourceRecord(d))
	}
	for _, e := range hits.emails {
		records = append(records, domain.EmailSourceRecord(e))
	}

	results := s.normalisers.NormaliseAll(records, func(kind domain.SourceKind, _ error) {
		s.metrics.RecordDropped(string(kind))
	})
	set := s.cascader.Cascade(results)

	fields := s.extractor.ExtractFields(hits.entities, req.Query)
	draft, meta := BuildDraft(fields, set.Top())
	attachHints(&set, fields)

	entities := hits.entities
	if entities == nil {
		entities = []domain.Entity{}
	}

	resp := &domain.AggregateResponse{
		ResultSet:        set,
		HandoverDraft:    draft,
		HandoverMetadata: meta,
		Entities:         entities,
	}
	if len(degraded) > 0 {
		resp.DegradedSources = degraded
	}

	s.metrics.ObserveAggregation(set.Summary.Found, set.Hidden.Count, draft.Confidence)

	// Partial answers are not cached so the next call retries the failed source
	if len(degraded) == 0 {
		s.store(ctx, key, resp)
	}

	s.logger.Info("aggregated",
		zap.String("user_id", req.UserID),
		zap.Int("found", set.Summary.Found),
		zap.Int("shown", set.Summary.Shown),
		zap.Int("hidden", set.Hidden.Count),
		zap.Float64("query_confidence", set.Summary.QueryConfidence),
		zap.Strings("auto_filled", draft.AutoFilledFields),
		zap.Strings("degraded", degraded),
		zap.Duration("took", time.Since(start)),
	)

	return resp, nil
}

// fetch calls the requested back-ends and the entity extractor concurrently.
// Per-source failures are recorded, not returned; only cancellation aborts.
func (s *aggregationService) fetch(ctx context.Context, req domain.AggregateRequest) (*upstreamHits, error) {
	q := domain.SearchQuery{
		Query:   req.Query,
		UserID:  req.UserID,
		YachtID: req.YachtID,
		Limit:   req.Limit,
	}
	hits := &upstreamHits{failed: make(map[domain.SourceKind]error)}

	var g errgroup.Group

	if req.Wants(domain.SourceDocument) {
		g.Go(func() error {
			if s.documents == nil {
				hits.fail(domain.SourceDocument, errors.New("document search not configured"))
				return nil
			}
			docs, err := s.documents.SearchDocuments(ctx, q)
			if err != nil {
				s.upstreamFailed(domain.SourceDocument, err)
				hits.fail(domain.SourceDocument, err)
				return nil
			}
			s.metrics.RecordUpstream(string(domain.SourceDocument), "ok")
			hits.documents = docs
			return nil
		})
	}

	if req.Wants(domain.SourceEmail) {
		g.Go(func() error {
			if s.emails == nil {
				hits.fail(domain.SourceEmail, errors.New("email search not configured"))
				return nil
			}
			emails, err := s.emails.SearchEmails(ctx, q)
			if err != nil {
				s.upstreamFailed(domain.SourceEmail, err)
				hits.fail(domain.SourceEmail, err)
				return nil
			}
			s.metrics.RecordUpstream(string(domain.SourceEmail), "ok")
			hits.emails = emails
			return nil
		})
	}

	if s.entities != nil {
		g.Go(func() error {
			entities, err := s.entities.Extract(ctx, req.Query)
			if err != nil {
				// Entity extraction is optional, the draft falls back to the query
				s.logger.Warn("entity extraction unavailable", zap.Error(err))
				s.metrics.RecordUpstream("entities", "error")
				return nil
			}
			s.metrics.RecordUpstream("entities", "ok")
			hits.entities = entities
			return nil
		})
	}

	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return hits, nil
}

func (s *aggregationService) upstreamFailed(kind domain.SourceKind, err error) {
	s.logger.Warn("upstream search failed", zap.String("source", string(kind)), zap.Error(err))
	s.metrics.RecordUpstream(string(kind), "error")
}

func (s *aggregationService) lookup(ctx context.Context, key string) *domain.AggregateResponse {
	if s.cache == nil {
		return nil
	}
	resp, err := s.cache.Get(ctx, key)
	switch {
	case err == nil:
		s.metrics.RecordCache("hit")
		return resp
	case errors.Is(err, domain.ErrNotFound):
		s.metrics.RecordCache("miss")
	default:
		s.metrics.RecordCache("error")
		s.logger.Warn("result cache read failed", zap.Error(err))
	}
	return nil
}

func (s *aggregationService) store(ctx context.Context, key string, resp *domain.AggregateResponse) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, resp, s.cacheTTL); err != nil {
		s.logger.Warn("result cache write failed", zap.Error(err))
	}
}

// CacheKey identifies a normalized request. Results are per user and yacht,
// so both are part of the key.
func CacheKey(req domain.AggregateRequest) string {
	sources := make([]string, len(req.Sources))
	for i, s := range req.Sources {
		sources[i] = string(s)
	}

	h := sha256.New()
	for _, part := range []string{req.UserID, req.YachtID, strings.Join(sources, ","), fmt.Sprint(req.Limit), req.Query} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return "aggregate:" + hex.EncodeToString(h.Sum(nil))
}
