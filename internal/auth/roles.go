package auth

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/certhub/admin-gateway/internal/repository"
	apperrors "github.com/certhub/admin-gateway/pkg/util/errorutil"
)

// RequireAdmin loads the caller's user document and admits only administrators.
// A store failure is an internal error, not a denial.
func (m *AuthMiddleware) RequireAdmin(c *fiber.Ctx) error {
	principal, ok := PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("Unauthorized: No token provided")
	}

	user, err := m.users.GetByID(c.UserContext(), principal.UID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			m.logger.Info("admin check denied", zap.String("uid", principal.UID), zap.String("reason", "no user document"))
			return apperrors.NewForbidden("Forbidden: admin access required")
		}
		m.logger.Error("admin lookup failed", zap.String("uid", principal.UID), zap.Error(err))
		return apperrors.NewInternalError(fmt.Errorf("failed to verify admin status: %w", err))
	}
	if !user.IsAdmin {
		m.logger.Info("admin check denied", zap.String("uid", principal.UID), zap.String("reason", "not admin"))
		return apperrors.NewForbidden("Forbidden: admin access required")
	}

	return c.Next()
}
