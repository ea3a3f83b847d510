package service

import (
	"errors"
	"fmt"

	"github.com/DTSP-AI/numen-ai-sub001/internal/domain"
)

// Not-found errors wrap domain.ErrNotFound so callers can test the class.
var (
	ErrKernelNotFound  = fmt.Errorf("kernel config %w", domain.ErrNotFound)
	ErrAgentNotFound   = fmt.Errorf("agent %w", domain.ErrNotFound)
	ErrNoAssessments   = fmt.Errorf("goal assessments %w", domain.ErrNotFound)
	ErrGoalNotFound    = fmt.Errorf("goal %w", domain.ErrNotFound)
	ErrGraphNotFound   = fmt.Errorf("belief graph %w", domain.ErrNotFound)
	ErrNoPreviousGraph = fmt.Errorf("previous belief graph %w", domain.ErrNotFound)
	ErrMetricNotFound  = fmt.Errorf("metric %w", domain.ErrNotFound)
)

var (
	ErrKernelVersionExists    = errors.New("kernel config version already exists")
	ErrAgentConflict          = errors.New("agent with this external_id already exists")
	ErrGoalAssessmentDisabled = errors.New("goal assessment is disabled for this kernel")
	ErrBeliefMappingDisabled  = errors.New("belief mapping is disabled for this kernel")
)
