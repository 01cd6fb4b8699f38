package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/terra-clan/learnpath/internal/config"
	"github.com/terra-clan/learnpath/internal/models"
)

// anonymousClient is attached to every request when no API clients are configured
var anonymousClient = &models.ApiClient{Name: "anonymous", IsActive: true, Permissions: []string{"*"}}

// AuthMiddleware handles API key authentication against static clients.
// Last use is tracked in memory, keyed by API key.
type AuthMiddleware struct {
	clients map[string]*models.ApiClient
	now     func() time.Time

	mu       sync.Mutex
	lastUsed map[string]time.Time
}

// NewAuthMiddleware creates new auth middleware. With no clients every
// request is treated as the anonymous client.
func NewAuthMiddleware(clients []config.ClientConfig) *AuthMiddleware {
	m := &AuthMiddleware{
		clients:  make(map[string]*models.ApiClient, len(clients)),
		now:      time.Now,
		lastUsed: make(map[string]time.Time),
	}
	for _, c := range clients {
		m.clients[c.Key] = &models.ApiClient{
			Name:        c.Name,
			ApiKey:      c.Key,
			IsActive:    !c.Disabled,
			Permissions: c.Permissions,
		}
	}
	return m
}

// Clients returns every configured client with its last use, sorted by name
func (m *AuthMiddleware) Clients() []models.ApiClient {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.ApiClient, 0, len(m.clients))
	for key, c := range m.clients {
		client := *c
		if t, ok := m.lastUsed[key]; ok {
			client.LastUsedAt = &t
		}
		out = append(out, client)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (m *AuthMiddleware) markUsed(apiKey string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastUsed[apiKey] = m.now().UTC()
}

// Enabled reports whether requests must carry an API key
func (m *AuthMiddleware) Enabled() bool {
	return len(m.clients) > 0
}

// Authenticate verifies API key from Authorization header
// Supports formats: "Bearer sk_xxx" or "sk_xxx" in Authorization header
// Also supports X-API-Key header
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.Enabled() {
			next.ServeHTTP(w, r.WithContext(ContextWithClient(r.Context(), anonymousClient)))
			return
		}

		apiKey := extractAPIKey(r)
		if apiKey == "" {
			writeAuthError(w, http.StatusUnauthorized, "missing api key", "provide Authorization header with Bearer token or X-API-Key header")
			return
		}

		client, ok := m.clients[apiKey]
		if !ok {
			slog.Warn("invalid api key attempt", "key_prefix", maskKey(apiKey), "remote_addr", r.RemoteAddr)
			writeAuthError(w, http.StatusUnauthorized, "invalid api key", "the provided api key is not valid")
			return
		}

		if !client.IsActive {
			slog.Warn("inactive client attempt", "client", client.Name, "key_prefix", maskKey(apiKey))
			writeAuthError(w, http.StatusUnauthorized, "client inactive", "this api key has been deactivated")
			return
		}

		m.markUsed(apiKey)

		slog.Debug("authenticated request", "client", client.Name, "key_prefix", client.MaskedApiKey())

		ctx := ContextWithClient(r.Context(), client)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequirePermission returns middleware that checks for specific permission
func (m *AuthMiddleware) RequirePermission(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client := ClientFromContext(r.Context())
			if client == nil {
				writeAuthError(w, http.StatusUnauthorized, "not authenticated", "authentication required")
				return
			}

			if !client.HasPermission(permission) {
				slog.Warn("permission denied",
					"client", client.Name,
					"required", permission,
					"has", client.Permissions,
				)
				writeAuthError(w, http.StatusForbidden, "permission denied",
					"client does not have required permission: "+permission)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// extractAPIKey extracts API key from request headers
func extractAPIKey(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return r.Header.Get("X-API-Key")
}

// maskKey returns first 8 chars of key for safe logging
func maskKey(key string) string {
	if len(key) < 8 {
		return "***"
	}
	return key[:8] + "..."
}

// AuthError represents an authentication error response
type AuthError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// writeAuthError writes JSON error response
func writeAuthError(w http.ResponseWriter, status int, error, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(AuthError{
		Error:   error,
		Message: message,
	})
}
