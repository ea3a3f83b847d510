package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Agent binds an opaque, caller-supplied agent id to the kernel config version
// it runs with. Several agents may reference the same version.
type Agent struct {
	ID            uuid.UUID      `json:"id"`
	TenantID      string         `json:"tenant_id"`
	ExternalID    string         `json:"external_id"`
	Name          string         `json:"name"`
	KernelVersion string         `json:"kernel_version"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// Subject identifies whose cognitive state an operation reads or writes.
// All three ids are opaque strings; authorization is not checked here.
type Subject struct {
	TenantID string `json:"tenant_id"`
	UserID   string `json:"user_id"`
	AgentID  string `json:"agent_id"`
}

func (s Subject) Validate() error {
	switch {
	case strings.TrimSpace(s.TenantID) == "":
		return Invalid("tenant_id", "is required")
	case strings.TrimSpace(s.UserID) == "":
		return Invalid("user_id", "is required")
	case strings.TrimSpace(s.AgentID) == "":
		return Invalid("agent_id", "is required")
	}
	return nil
}
