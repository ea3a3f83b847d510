package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/DTSP-AI/numen-ai-sub001/internal/domain"
	"github.com/DTSP-AI/numen-ai-sub001/internal/store"
)

// AgentService binds opaque agent ids to the kernel version they run with.
type AgentService struct {
	store   domain.AgentStore
	kernels *KernelService
}

func NewAgentService(s domain.AgentStore, kernels *KernelService) *AgentService {
	return &AgentService{store: s, kernels: kernels}
}

func (s *AgentService) Create(ctx context.Context, a *domain.Agent) error {
	a.TenantID = strings.TrimSpace(a.TenantID)
	a.ExternalID = strings.TrimSpace(a.ExternalID)
	if a.TenantID == "" {
		return domain.Invalid("tenant_id", "is required")
	}
	if a.ExternalID == "" {
		return domain.Invalid("external_id", "is required")
	}
	if a.KernelVersion == "" {
		a.KernelVersion = domain.DefaultKernelVersion
	}
	if _, err := s.kernels.Resolve(ctx, a.KernelVersion); err != nil {
		if errors.Is(err, ErrKernelNotFound) {
			return domain.Invalid("kernel_version", "unknown kernel version %q", a.KernelVersion)
		}
		return err
	}

	if err := s.store.Create(ctx, a); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return ErrAgentConflict
		}
		return domain.NewStorageError("create agent", err)
	}
	return nil
}

func (s *AgentService) Get(ctx context.Context, tenantID, agentID string) (*domain.Agent, error) {
	a, err := s.store.GetByExternalID(ctx, tenantID, agentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrAgentNotFound, agentID)
		}
		return nil, domain.NewStorageError("get agent", err)
	}
	return a, nil
}

// ResolveKernel returns the kernel config the agent is bound to.
func (s *AgentService) ResolveKernel(ctx context.Context, tenantID, agentID string) (domain.CognitiveKernelConfig, error) {
	a, err := s.Get(ctx, tenantID, agentID)
	if err != nil {
		return domain.CognitiveKernelConfig{}, err
	}
	return s.kernels.Resolve(ctx, a.KernelVersion)
}
