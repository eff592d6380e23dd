package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/handover-core/internal/core/domain"
	"github.com/custodia-labs/handover-core/internal/core/ports/driven/mocks"
	"github.com/custodia-labs/handover-core/internal/extractors"
	"github.com/custodia-labs/handover-core/internal/metrics"
	"github.com/custodia-labs/handover-core/internal/normalisers"
)

func ptr(v float64) *float64 { return &v }

type aggregationFixture struct {
	docs     *mocks.MockDocumentSearcher
	emails   *mocks.MockEmailSearcher
	entities *mocks.MockEntityExtractor
	cache    *mocks.MockResultCache
	registry *normalisers.Registry
	metrics  *metrics.Metrics
	svc      *aggregationService
}

func newTestAggregation() *aggregationFixture {
	f := &aggregationFixture{
		docs:     mocks.NewMockDocumentSearcher(),
		emails:   mocks.NewMockEmailSearcher(),
		entities: mocks.NewMockEntityExtractor(),
		cache:    mocks.NewMockResultCache(),
		registry: normalisers.DefaultRegistry(domain.DefaultScoringSettings(), domain.DefaultLinkSettings(), nil),
		metrics:  metrics.New(),
	}
	f.svc = NewAggregationService(AggregationDeps{
		Documents:   f.docs,
		Emails:      f.emails,
		Entities:    f.entities,
		Normalisers: f.registry,
		Extractor:   extractors.DefaultChain(),
		Cache:       f.cache,
		Metrics:     f.metrics,
	}).(*aggregationService)
	return f
}

func request(query string) domain.AggregateRequest {
	return domain.AggregateRequest{Query: query, UserID: "user-1", YachtID: "yacht-1"}
}

func TestAggregationService_PortEngineScenario(t *testing.T) {
	f := newTestAggregation()
	f.docs.Records = []*domain.DocumentRecord{
		{ID: "doc-manual", Filename: "cat3512.pdf", MatchRatio: ptr(0.91)},
		{ID: "doc-log", Filename: "log.pdf", MatchRatio: ptr(0.40)},
	}
	f.emails.Records = []*domain.EmailRecord{
		{ID: "AAMk=1", Subject: "Port engine turbo", RelevanceScore: ptr(0.72)},
	}
	f.entities.Entities = []domain.Entity{
		{Term: "engine", Type: "equipment"},
		{Term: "port", Type: "location_on_board"},
		{Term: "P0234", Type: "fault_code"},
	}

	resp, err := f.svc.Aggregate(context.Background(), request("port engine error P0234"))
	require.NoError(t, err)

	assert.Equal(t, 3, resp.Summary.Found)
	require.Len(t, resp.Primary, 3)
	assert.Equal(t, "doc-manual", resp.Primary[0].ID)
	assert.Equal(t, "AAMk=1", resp.Primary[1].ID)
	assert.InDelta(t, 0.91, resp.Summary.QueryConfidence, 1e-9)

	draft := resp.HandoverDraft
	assert.Equal(t, "Port - Engine", draft.System)
	assert.Equal(t, "P0234", draft.FaultCode)
	assert.Equal(t, "port engine error P0234", draft.Symptoms)
	assert.Equal(t, resp.Primary[0].Links.Primary, draft.LinkedDocument)
	assert.Equal(t, []string{"system", "faultCode", "symptoms", "linkedDocument"}, draft.AutoFilledFields)

	assert.Equal(t, 4, resp.HandoverMetadata.AutoFilledCount)
	assert.Equal(t, "doc-manual", resp.HandoverMetadata.LinkedResultID)
	assert.Len(t, resp.Entities, 3)
	assert.Empty(t, resp.DegradedSources)

	for _, r := range resp.Shown() {
		require.NotNil(t, r.HandoverHint)
		assert.Equal(t, r.Links.Primary, r.HandoverHint.LinkedDocument)
	}

	q := f.docs.Last
	assert.Equal(t, "user-1", q.UserID)
	assert.Equal(t, domain.DefaultSearchLimit, q.Limit)
}

func TestAggregationService_SingleWeakDocument(t *testing.T) {
	f := newTestAggregation()
	f.docs.Records = []*domain.DocumentRecord{{ID: "doc-1", MatchRatio: ptr(0.024)}}

	resp, err := f.svc.Aggregate(context.Background(), request("bilge alarm"))
	require.NoError(t, err)

	assert.Empty(t, resp.Primary)
	assert.Empty(t, resp.Secondary)
	require.Len(t, resp.Tertiary, 1)
	assert.Equal(t, 1, resp.Summary.Found)
	assert.Equal(t, resp.Tertiary[0].Links.Primary, resp.HandoverDraft.LinkedDocument)
}

func TestAggregationService_TwentyEmails(t *testing.T) {
	f := newTestAggregation()
	for i := 0; i < 20; i++ {
		score := 0.95 - float64(i)*(0.90/19)
		f.emails.Records = append(f.emails.Records, &domain.EmailRecord{
			ID:             fmt.Sprintf("mail-%02d", i),
			Subject:        "Re: generator",
			RelevanceScore: ptr(score),
		})
	}

	resp, err := f.svc.Aggregate(context.Background(), request("generator"))
	require.NoError(t, err)

	require.Len(t, resp.Primary, 5)
	assert.Equal(t, "mail-00", resp.Primary[0].ID)
	assert.Len(t, resp.Secondary, 5)
	assert.Len(t, resp.Tertiary, 5)
	assert.Equal(t, 5, resp.Hidden.Count)
	assert.Equal(t, 20, resp.Summary.Found)
	assert.Equal(t, 15, resp.Summary.Shown)
	assert.Equal(t, 5.0, testutil.ToFloat64(f.metrics.ResultsHidden))
}

func TestAggregationService_EmptyResults(t *testing.T) {
	f := newTestAggregation()

	resp, err := f.svc.Aggregate(context.Background(), request("nothing matches"))
	require.NoError(t, err)

	assert.NotNil(t, resp.Primary)
	assert.Equal(t, 0, resp.Summary.Found)
	assert.Equal(t, "", resp.HandoverDraft.LinkedDocument)
	assert.Equal(t, []string{"symptoms"}, resp.HandoverDraft.AutoFilledFields)
	assert.NotNil(t, resp.Entities)
}

func TestAggregationService_InvalidRequest(t *testing.T) {
	f := newTestAggregation()

	_, err := f.svc.Aggregate(context.Background(), request("   "))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	req := request("engine")
	req.Sources = []domain.SourceKind{"fax"}
	_, err = f.svc.Aggregate(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrUnknownSource)

	assert.Equal(t, 0, f.docs.Calls)
}

func TestAggregationService_DegradesToOtherSource(t *testing.T) {
	f := newTestAggregation()
	f.docs.Records = []*domain.DocumentRecord{{ID: "doc-1", MatchRatio: ptr(0.7)}}
	f.emails.Err = &domain.UpstreamError{Source: "email", StatusCode: 503}

	resp, err := f.svc.Aggregate(context.Background(), request("watermaker"))
	require.NoError(t, err)

	assert.Equal(t, []string{"email"}, resp.DegradedSources)
	assert.Equal(t, 1, resp.Summary.Found)
	assert.Equal(t, 0, f.cache.Len(), "partial responses are not cached")
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.UpstreamRequests.WithLabelValues("email", "error")))
}

func TestAggregationService_AllSourcesFail(t *testing.T) {
	f := newTestAggregation()
	f.docs.Err = errors.New("connection refused")
	f.emails.Err = &domain.UpstreamError{Source: "email", StatusCode: 502}

	_, err := f.svc.Aggregate(context.Background(), request("watermaker"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrServiceUnavailable)

	var upstream *domain.UpstreamError
	assert.True(t, errors.As(err, &upstream))
}

func TestAggregationService_RequestedSourceOnly(t *testing.T) {
	f := newTestAggregation()
	f.docs.Err = errors.New("down")
	f.emails.Records = []*domain.EmailRecord{{ID: "m1", RelevanceScore: ptr(0.5)}}

	req := request("watermaker")
	req.Sources = []domain.SourceKind{domain.SourceEmail}

	resp, err := f.svc.Aggregate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 0, f.docs.Calls)
	assert.Empty(t, resp.DegradedSources)
	assert.Equal(t, 1, resp.Summary.Found)
}

func TestAggregationService_EntityFailureGivesQueryOnlyDraft(t *testing.T) {
	f := newTestAggregation()
	f.entities.Err = errors.New("timeout")

	resp, err := f.svc.Aggregate(context.Background(), request("port engine error P0234"))
	require.NoError(t, err)

	assert.Equal(t, "Engine", resp.HandoverDraft.System)
	assert.Equal(t, "P0234", resp.HandoverDraft.FaultCode)
	assert.Equal(t, 0.0, resp.HandoverDraft.Confidence)
	assert.Empty(t, resp.Entities)
	assert.Empty(t, resp.DegradedSources)
}

func TestAggregationService_DropsMalformedRecords(t *testing.T) {
	f := newTestAggregation()
	f.docs.Records = []*domain.DocumentRecord{
		{ID: "", MatchRatio: ptr(0.99)},
		nil,
		{ID: "doc-ok", MatchRatio: ptr(0.3)},
	}
	f.emails.Records = []*domain.EmailRecord{{ID: "  ", RelevanceScore: ptr(0.9)}}

	resp, err := f.svc.Aggregate(context.Background(), request("engine"))
	require.NoError(t, err)

	require.Equal(t, 1, resp.Summary.Found)
	assert.Equal(t, "doc-ok", resp.Top().ID)
	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.RecordsDropped.WithLabelValues("document")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.RecordsDropped.WithLabelValues("email")))
}

func TestAggregationService_NormaliserOverride(t *testing.T) {
	f := newTestAggregation()
	override := mocks.NewMockNormaliser(domain.SourceEmail)
	override.NormaliseFn = func(record domain.SourceRecord) (domain.Result, error) {
		return domain.Result{
			ID:          "override-" + record.Email.ID,
			DisplayName: "Override",
			Confidence:  0.9,
			SourceKind:  domain.SourceEmail,
			Links:       domain.Links{Primary: "https://mail.example/x", Alternates: []string{}},
		}, nil
	}
	f.registry.Register(override)
	f.emails.Records = []*domain.EmailRecord{{ID: "m1"}}

	resp, err := f.svc.Aggregate(context.Background(), request("engine"))
	require.NoError(t, err)

	require.Equal(t, 1, resp.Summary.Found)
	assert.Equal(t, "override-m1", resp.Top().ID)
}

func TestAggregationService_CachesResponses(t *testing.T) {
	f := newTestAggregation()
	f.docs.Records = []*domain.DocumentRecord{{ID: "doc-1", MatchRatio: ptr(0.7)}}

	first, err := f.svc.Aggregate(context.Background(), request("engine"))
	require.NoError(t, err)
	second, err := f.svc.Aggregate(context.Background(), request(" engine "))
	require.NoError(t, err)

	assert.Equal(t, 1, f.docs.Calls)
	assert.Equal(t, first.Summary, second.Summary)
	assert.Equal(t, first.HandoverDraft, second.HandoverDraft)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.CacheLookups.WithLabelValues("hit")))

	other := request("engine")
	other.UserID = "user-2"
	_, err = f.svc.Aggregate(context.Background(), other)
	require.NoError(t, err)
	assert.Equal(t, 2, f.docs.Calls)

	for _, ttl := range f.cache.TTLs {
		assert.Equal(t, DefaultCacheTTL, ttl)
	}
}

func TestAggregationService_CacheErrorFallsThrough(t *testing.T) {
	f := newTestAggregation()
	f.cache.GetErr = errors.New("redis down")
	f.docs.Records = []*domain.DocumentRecord{{ID: "doc-1", MatchRatio: ptr(0.7)}}

	resp, err := f.svc.Aggregate(context.Background(), request("engine"))
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Summary.Found)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.CacheLookups.WithLabelValues("error")))
}

func TestAggregationService_Cancelled(t *testing.T) {
	f := newTestAggregation()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.svc.Aggregate(ctx, request("engine"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAggregationService_NilDependencies(t *testing.T) {
	svc := NewAggregationService(AggregationDeps{
		Emails:      mocks.NewMockEmailSearcher(&domain.EmailRecord{ID: "m1", RelevanceScore: ptr(0.6)}),
		Normalisers: normalisers.DefaultRegistry(domain.DefaultScoringSettings(), domain.DefaultLinkSettings(), nil),
		Extractor:   extractors.DefaultChain(),
	})

	resp, err := svc.Aggregate(context.Background(), request("engine"))
	require.NoError(t, err)
	assert.Equal(t, []string{"document"}, resp.DegradedSources)
	assert.Equal(t, 1, resp.Summary.Found)
}

func TestCacheKey(t *testing.T) {
	a := request("engine")
	require.NoError(t, a.Normalize())
	b := request("engine")
	require.NoError(t, b.Normalize())
	assert.Equal(t, CacheKey(a), CacheKey(b))

	c := request("engine")
	c.YachtID = "yacht-2"
	require.NoError(t, c.Normalize())
	assert.NotEqual(t, CacheKey(a), CacheKey(c))

	d := request("engine")
	d.Sources = []domain.SourceKind{domain.SourceEmail}
	require.NoError(t, d.Normalize())
	assert.NotEqual(t, CacheKey(a), CacheKey(d))
}
