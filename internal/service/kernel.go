package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/DTSP-AI/numen-ai-sub001/internal/domain"
	"github.com/DTSP-AI/numen-ai-sub001/internal/store"
	"go.uber.org/zap"
)

// KernelService is the registry of kernel config versions. Stored versions
// are immutable, so resolved configs are cached for the life of the process.
type KernelService struct {
	store  domain.KernelStore
	logger *zap.Logger

	mu    sync.RWMutex
	cache map[string]domain.CognitiveKernelConfig
}

func NewKernelService(s domain.KernelStore, logger *zap.Logger) *KernelService {
	return &KernelService{
		store:  s,
		logger: logger,
		cache:  make(map[string]domain.CognitiveKernelConfig),
	}
}

// Seed stores the built-in default kernel plus any extra configs, skipping
// versions that already exist. A stored version whose content differs from
// the seed is kept as is.
func (s *KernelService) Seed(ctx context.Context, extra ...domain.CognitiveKernelConfig) error {
	seeds := append([]domain.CognitiveKernelConfig{domain.DefaultKernelConfig()}, extra...)

	for _, k := range seeds {
		k.Normalize()
		if err := k.Validate(); err != nil {
			return fmt.Errorf("seed kernel %q: %w", k.Version, err)
		}

		err := s.store.Create(ctx, &k)
		if err == nil {
			s.logger.Info("seeded kernel config", zap.String("version", k.Version))
			s.remember(k)
			continue
		}
		if !errors.Is(err, store.ErrConflict) {
			return domain.NewStorageError("seed kernel config", err)
		}

		existing, err := s.store.GetByVersion(ctx, k.Version)
		if err != nil {
			return domain.NewStorageError("get kernel config", err)
		}
		if !sameKernel(*existing, k) {
			s.logger.Warn("kernel version already stored with different content, keeping stored config",
				zap.String("version", k.Version))
		}
		s.remember(*existing)
	}
	return nil
}

// Create registers a new kernel version. Existing versions are never replaced.
func (s *KernelService) Create(ctx context.Context, k *domain.CognitiveKernelConfig) error {
	k.Normalize()
	if err := k.Validate(); err != nil {
		return err
	}
	if err := s.store.Create(ctx, k); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return ErrKernelVersionExists
		}
		return domain.NewStorageError("create kernel config", err)
	}
	s.remember(*k)
	return nil
}

// Resolve returns a private copy of the config for version. An empty version
// resolves to the default.
func (s *KernelService) Resolve(ctx context.Context, version string) (domain.CognitiveKernelConfig, error) {
	if version == "" {
		version = domain.DefaultKernelVersion
	}

	s.mu.RLock()
	k, ok := s.cache[version]
	s.mu.RUnlock()
	if ok {
		return k.Clone(), nil
	}

	stored, err := s.store.GetByVersion(ctx, version)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.CognitiveKernelConfig{}, fmt.Errorf("%w: %s", ErrKernelNotFound, version)
		}
		return domain.CognitiveKernelConfig{}, domain.NewStorageError("get kernel config", err)
	}
	s.remember(*stored)
	return stored.Clone(), nil
}

func (s *KernelService) List(ctx context.Context) ([]domain.CognitiveKernelConfig, error) {
	kernels, err := s.store.List(ctx)
	if err != nil {
		return nil, domain.NewStorageError("list kernel configs", err)
	}
	return kernels, nil
}

func (s *KernelService) remember(k domain.CognitiveKernelConfig) {
	s.mu.Lock()
	s.cache[k.Version] = k.Clone()
	s.mu.Unlock()
}

// sameKernel compares two configs by their stored form, ignoring CreatedAt.
func sameKernel(a, b domain.CognitiveKernelConfig) bool {
	a.CreatedAt, b.CreatedAt = time.Time{}, time.Time{}
	ja, errA := json.Marshal(a)
	jb, errB := json.Marshal(b)
	return errA == nil && errB == nil && string(ja) == string(jb)
}
