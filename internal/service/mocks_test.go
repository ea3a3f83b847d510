package service

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/DTSP-AI/numen-ai-sub001/internal/domain"
	"github.com/DTSP-AI/numen-ai-sub001/internal/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

var testSubject = domain.Subject{TenantID: "tenant-1", UserID: "user-1", AgentID: "agent-1"}

// clock hands out strictly increasing timestamps so store ordering in tests
// does not depend on wall-clock resolution.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) next(t time.Time) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !t.IsZero() {
		return t
	}
	if c.now.IsZero() {
		c.now = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	c.now = c.now.Add(time.Second)
	return c.now
}

// mockKernelStore implements domain.KernelStore for testing.
type mockKernelStore struct {
	mu      sync.Mutex
	kernels map[string]domain.CognitiveKernelConfig
	gets    int
	err     error
}

func newMockKernelStore() *mockKernelStore {
	return &mockKernelStore{kernels: make(map[string]domain.CognitiveKernelConfig)}
}

func (m *mockKernelStore) Create(ctx context.Context, k *domain.CognitiveKernelConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.kernels[k.Version]; ok {
		return store.ErrConflict
	}
	k.CreatedAt = time.Now()
	m.kernels[k.Version] = k.Clone()
	return nil
}

func (m *mockKernelStore) GetByVersion(ctx context.Context, version string) (*domain.CognitiveKernelConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if m.err != nil {
		return nil, m.err
	}
	k, ok := m.kernels[version]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := k.Clone()
	return &out, nil
}

func (m *mockKernelStore) List(ctx context.Context) ([]domain.CognitiveKernelConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.CognitiveKernelConfig
	for _, k := range m.kernels {
		out = append(out, k.Clone())
	}
	slices.SortFunc(out, func(a, b domain.CognitiveKernelConfig) int {
		if a.Version < b.Version {
			return -1
		}
		if a.Version > b.Version {
			return 1
		}
		return 0
	})
	return out, nil
}

// mockAgentStore implements domain.AgentStore for testing.
type mockAgentStore struct {
	mu     sync.Mutex
	agents map[string]*domain.Agent
}

func newMockAgentStore() *mockAgentStore {
	return &mockAgentStore{agents: make(map[string]*domain.Agent)}
}

func (m *mockAgentStore) Create(ctx context.Context, a *domain.Agent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := a.TenantID + "/" + a.ExternalID
	if _, ok := m.agents[key]; ok {
		return store.ErrConflict
	}
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	cp := *a
	m.agents[key] = &cp
	return nil
}

func (m *mockAgentStore) GetByExternalID(ctx context.Context, tenantID, externalID string) (*domain.Agent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.agents[tenantID+"/"+externalID]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

// mockGoalStore implements domain.GoalAssessmentStore for testing. Rows are
// kept in insertion order.
type mockGoalStore struct {
	mu    sync.Mutex
	clock clock
	rows  []domain.GoalAssessment
	err   error
}

func newMockGoalStore() *mockGoalStore {
	return &mockGoalStore{}
}

func (m *mockGoalStore) Create(ctx context.Context, g *domain.GoalAssessment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	g.ID = uuid.New()
	g.MeasuredAt = m.clock.next(g.MeasuredAt)
	m.rows = append(m.rows, *g)
	return nil
}

// newestFirst returns the subject's rows ordered by measured_at, then
// insertion order, newest first.
func (m *mockGoalStore) newestFirst(s domain.Subject) []domain.GoalAssessment {
	var out []domain.GoalAssessment
	for i := len(m.rows) - 1; i >= 0; i-- {
		if m.rows[i].Subject() == s {
			out = append(out, m.rows[i])
		}
	}
	slices.SortStableFunc(out, func(a, b domain.GoalAssessment) int {
		return b.MeasuredAt.Compare(a.MeasuredAt)
	})
	return out
}

func (m *mockGoalStore) GetLatest(ctx context.Context, s domain.Subject, goalText string) (*domain.GoalAssessment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, g := range m.newestFirst(s) {
		if g.GoalText == goalText {
			return &g, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *mockGoalStore) ListLatest(ctx context.Context, s domain.Subject) ([]domain.GoalAssessment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	seen := make(map[string]bool)
	var out []domain.GoalAssessment
	for _, g := range m.newestFirst(s) {
		if seen[g.GoalText] {
			continue
		}
		seen[g.GoalText] = true
		out = append(out, g)
	}
	return out, nil
}

func (m *mockGoalStore) ListHistory(ctx context.Context, s domain.Subject, goalText string) ([]domain.GoalAssessment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.GoalAssessment
	for _, g := range m.newestFirst(s) {
		if g.GoalText == goalText {
			out = append(out, g)
		}
	}
	slices.Reverse(out)
	return out, nil
}

// mockGraphStore implements domain.BeliefGraphStore for testing.
type mockGraphStore struct {
	mu     sync.Mutex
	clock  clock
	graphs []domain.BeliefGraph
	err    error
}

func newMockGraphStore() *mockGraphStore {
	return &mockGraphStore{}
}

func (m *mockGraphStore) Create(ctx context.Context, g *domain.BeliefGraph) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	g.ID = uuid.New()
	g.CreatedAt = m.clock.next(g.CreatedAt)
	m.graphs = append(m.graphs, *g)
	return nil
}

func (m *mockGraphStore) GetLatest(ctx context.Context, s domain.Subject) (*domain.BeliefGraph, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for i := len(m.graphs) - 1; i >= 0; i-- {
		if m.graphs[i].Subject() == s {
			g := m.graphs[i]
			return &g, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *mockGraphStore) GetByID(ctx context.Context, id uuid.UUID, s domain.Subject) (*domain.BeliefGraph, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, g := range m.graphs {
		if g.ID == id && g.Subject() == s {
			return &g, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *mockGraphStore) List(ctx context.Context, s domain.Subject, limit int) ([]domain.BeliefGraph, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.BeliefGraph
	for i := len(m.graphs) - 1; i >= 0 && len(out) < limit; i-- {
		if m.graphs[i].Subject() == s {
			out = append(out, m.graphs[i])
		}
	}
	return out, nil
}

// mockMetricStore implements domain.MetricStore for testing.
type mockMetricStore struct {
	mu      sync.Mutex
	clock   clock
	metrics []domain.CognitiveMetric
	err     error
}

func newMockMetricStore() *mockMetricStore {
	return &mockMetricStore{}
}

func (m *mockMetricStore) Create(ctx context.Context, cm *domain.CognitiveMetric) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	cm.ID = uuid.New()
	cm.MeasuredAt = m.clock.next(cm.MeasuredAt)
	m.metrics = append(m.metrics, *cm)
	return nil
}

func (m *mockMetricStore) GetLatestByType(ctx context.Context, s domain.Subject, t domain.MetricType) (*domain.CognitiveMetric, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for i := len(m.metrics) - 1; i >= 0; i-- {
		if m.metrics[i].Subject() == s && m.metrics[i].Type == t {
			cm := m.metrics[i]
			return &cm, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *mockMetricStore) ListByType(ctx context.Context, s domain.Subject, t domain.MetricType, since time.Time, limit int) ([]domain.CognitiveMetric, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.CognitiveMetric
	for i := len(m.metrics) - 1; i >= 0 && len(out) < limit; i-- {
		cm := m.metrics[i]
		if cm.Subject() == s && cm.Type == t && !cm.MeasuredAt.Before(since) {
			out = append(out, cm)
		}
	}
	return out, nil
}

// byType returns every recorded metric of type t, oldest first.
func (m *mockMetricStore) byType(t domain.MetricType) []domain.CognitiveMetric {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.CognitiveMetric
	for _, cm := range m.metrics {
		if cm.Type == t {
			out = append(out, cm)
		}
	}
	return out
}

// mockSummaryStore implements domain.SummaryStore for testing.
type mockSummaryStore struct {
	mu        sync.Mutex
	summaries []domain.Summary
	err       error
}

func newMockSummaryStore() *mockSummaryStore {
	return &mockSummaryStore{}
}

func (m *mockSummaryStore) Create(ctx context.Context, sum *domain.Summary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	sum.ID = uuid.New()
	sum.CreatedAt = time.Now()
	m.summaries = append(m.summaries, *sum)
	return nil
}

func (m *mockSummaryStore) ListBySubject(ctx context.Context, s domain.Subject, limit int) ([]domain.Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Summary
	for i := len(m.summaries) - 1; i >= 0 && len(out) < limit; i-- {
		if m.summaries[i].TenantID == s.TenantID && m.summaries[i].UserID == s.UserID && m.summaries[i].AgentID == s.AgentID {
			out = append(out, m.summaries[i])
		}
	}
	return out, nil
}

func (m *mockSummaryStore) all() []domain.Summary {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.summaries)
}

// recordingSink captures published summaries synchronously.
type recordingSink struct {
	mu    sync.Mutex
	kinds []domain.SummaryKind
	texts []string
	err   error
}

func (r *recordingSink) Publish(_ context.Context, _ domain.Subject, _ string, kind domain.SummaryKind, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.kinds = append(r.kinds, kind)
	r.texts = append(r.texts, text)
	return nil
}

// mockEmbedder is a testify mock of domain.EmbeddingClient.
type mockEmbedder struct {
	mock.Mock
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	vec, _ := args.Get(0).([]float32)
	return vec, args.Error(1)
}
