package auth

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/certhub/admin-gateway/internal/identity"
	"github.com/certhub/admin-gateway/internal/repository"
	apperrors "github.com/certhub/admin-gateway/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// TokenVerifier checks ID tokens against the identity provider.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, raw string) (*identity.Token, error)
}

// Principal represents the authenticated caller.
type Principal struct {
	UID   string
	Email string
}

// AuthMiddleware validates bearer tokens and authorizes administrators.
// Nothing is cached between requests.
type AuthMiddleware struct {
	verifier TokenVerifier
	users    repository.UserRepository
	logger   *zap.Logger
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(verifier TokenVerifier, users repository.UserRepository, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier, users: users, logger: logger}
}

// Authenticate enforces a valid bearer token and binds the caller's identity.
func (m *AuthMiddleware) Authenticate(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return apperrors.NewUnauthorized("Unauthorized: No token provided")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return apperrors.NewUnauthorized("Unauthorized: malformed authorization header")
	}

	token, err := m.verifier.VerifyToken(c.UserContext(), strings.TrimSpace(parts[1]))
	if err != nil {
		m.logger.Debug("token verification failed", zap.Error(err))
		return apperrors.NewInvalidToken(err)
	}

	c.Locals(principalKey, &Principal{UID: token.UID, Email: token.Email})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated caller.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}

// ActorUID returns the authenticated caller's UID or "".
func ActorUID(c *fiber.Ctx) string {
	if principal, ok := PrincipalFromContext(c); ok {
		return principal.UID
	}
	return ""
}
