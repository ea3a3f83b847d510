package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/DTSP-AI/numen-ai-sub001/internal/domain"
	"go.uber.org/zap"
)

const summaryWriteTimeout = 30 * time.Second

var (
	ErrSummaryQueueFull       = errors.New("summary queue is full")
	ErrSummaryPublisherClosed = errors.New("summary publisher is closed")
)

type summaryJob struct {
	subject    domain.Subject
	sessionRef string
	kind       domain.SummaryKind
	text       string
}

// SummaryPublisher is the write-behind side channel to long-term memory.
// Publish never blocks: it enqueues, and a single worker embeds the text and
// writes the summary row. Every failure past the queue is logged and dropped.
type SummaryPublisher struct {
	store    domain.SummaryStore
	embedder domain.EmbeddingClient
	logger   *zap.Logger

	queue    chan summaryJob
	stopCh   chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once

	mu     sync.RWMutex
	closed bool
}

// NewSummaryPublisher returns a stopped publisher. embedder may be nil, in
// which case summaries are stored without an embedding.
func NewSummaryPublisher(s domain.SummaryStore, embedder domain.EmbeddingClient, queueSize int, logger *zap.Logger) *SummaryPublisher {
	if queueSize <= 0 {
		queueSize = 1
	}
	return &SummaryPublisher{
		store:    s,
		embedder: embedder,
		logger:   logger,
		queue:    make(chan summaryJob, queueSize),
		stopCh:   make(chan struct{}),
	}
}

// Start runs the worker in a background goroutine.
func (p *SummaryPublisher) Start() {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.logger.Info("summary publisher started", zap.Int("queue_size", cap(p.queue)))

		for {
			select {
			case job := <-p.queue:
				p.write(job)
			case <-p.stopCh:
				p.drain()
				p.logger.Info("summary publisher stopped")
				return
			}
		}
	}()
}

// Stop rejects new summaries, writes whatever is already queued and waits
// for the worker to exit. Safe to call more than once.
func (p *SummaryPublisher) Stop() {
	p.stopOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		p.mu.Unlock()
		close(p.stopCh)
	})
	p.wg.Wait()
}

func (p *SummaryPublisher) Publish(_ context.Context, s domain.Subject, sessionRef string, kind domain.SummaryKind, text string) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrSummaryPublisherClosed
	}

	select {
	case p.queue <- summaryJob{subject: s, sessionRef: sessionRef, kind: kind, text: text}:
		return nil
	default:
		return ErrSummaryQueueFull
	}
}

func (p *SummaryPublisher) drain() {
	for {
		select {
		case job := <-p.queue:
			p.write(job)
		default:
			return
		}
	}
}

func (p *SummaryPublisher) write(job summaryJob) {
	ctx, cancel := context.WithTimeout(context.Background(), summaryWriteTimeout)
	defer cancel()

	sum := &domain.Summary{
		TenantID:   job.subject.TenantID,
		UserID:     job.subject.UserID,
		AgentID:    job.subject.AgentID,
		SessionRef: job.sessionRef,
		Kind:       job.kind,
		Text:       job.text,
	}

	if p.embedder != nil {
		vec, err := p.embedder.Embed(ctx, job.text)
		if err != nil {
			p.logger.Warn("failed to embed summary, storing without embedding",
				zap.String("agent_id", job.subject.AgentID), zap.Error(err))
		} else {
			sum.Embedding = vec
		}
	}

	if err := p.store.Create(ctx, sum); err != nil {
		p.logger.Warn("failed to store summary",
			zap.String("agent_id", job.subject.AgentID),
			zap.String("kind", string(job.kind)),
			zap.Error(err))
	}
}

// publishSummary hands text to sink and swallows any failure.
func publishSummary(ctx context.Context, sink domain.SummarySink, logger *zap.Logger, s domain.Subject, sessionRef string, kind domain.SummaryKind, text string) {
	if sink == nil {
		return
	}
	if err := sink.Publish(ctx, s, sessionRef, kind, text); err != nil {
		logger.Warn("failed to publish summary",
			zap.String("agent_id", s.AgentID),
			zap.String("kind", string(kind)),
			zap.Error(err))
	}
}

func forwards(kernel domain.CognitiveKernelConfig, kind domain.SummaryKind) bool {
	mi := kernel.MemoryIntegration
	if !mi.Enabled {
		return false
	}
	switch kind {
	case domain.SummaryGoal:
		return mi.ForwardGoalSummaries
	case domain.SummaryGraph:
		return mi.ForwardGraphSummaries
	case domain.SummaryTrigger:
		return mi.ForwardTriggerSummaries
	}
	return false
}
