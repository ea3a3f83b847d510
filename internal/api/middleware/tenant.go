package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

type contextKey string

const (
	// TenantHeader carries the caller's opaque tenant id.
	TenantHeader     = "X-Tenant-ID"
	tenantContextKey = contextKey("tenant")
)

func TenantFromContext(ctx context.Context) string {
	t, _ := ctx.Value(tenantContextKey).(string)
	return t
}

// WithTenant stores tenantID in ctx the way the Tenant middleware does.
func WithTenant(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, tenantContextKey, tenantID)
}

// Tenant rejects requests without an X-Tenant-ID header. The id is opaque
// and not checked against any registry.
func Tenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenantID := strings.TrimSpace(r.Header.Get(TenantHeader))
		if tenantID == "" {
			writeError(w, http.StatusUnauthorized, "missing X-Tenant-ID header")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithTenant(r.Context(), tenantID)))
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
