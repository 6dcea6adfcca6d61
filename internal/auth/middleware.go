package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/odyssey-erp/odyssey-todo/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-todo/internal/shared"
)

// TokenVerifier validates an access token.
type TokenVerifier interface {
	Verify(token string) (shared.Identity, bool)
}

// Guard protects routes behind a bearer token.
type Guard struct {
	verifier TokenVerifier
	logger   *slog.Logger
}

// NewGuard builds a Guard.
func NewGuard(verifier TokenVerifier, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{verifier: verifier, logger: logger}
}

// Require rejects requests without a valid bearer token and stores the
// caller identity in the request context otherwise.
func (g *Guard) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			httpx.Unauthorized(w, shared.ErrUnauthenticated.Error())
			return
		}
		id, ok := g.verifier.Verify(token)
		if !ok {
			g.logger.Debug("bearer token rejected", slog.String("path", r.URL.Path))
			httpx.Unauthorized(w, shared.ErrUnauthenticated.Error())
			return
		}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithIdentity(r.Context(), id)))
	})
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}
