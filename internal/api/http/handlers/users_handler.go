package handlers

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/certhub/admin-gateway/internal/api/dto"
	"github.com/certhub/admin-gateway/internal/identity"
	apperrors "github.com/certhub/admin-gateway/pkg/util/errorutil"
)

// UsersHandler exposes sign-in against the identity provider.
type UsersHandler struct {
	identity  *identity.Provider
	validator *validator.Validate
}

// NewUsersHandler constructs handler.
func NewUsersHandler(provider *identity.Provider) *UsersHandler {
	return &UsersHandler{identity: provider, validator: newValidator()}
}

// Login handles POST /auth/login.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := validateRequest(h.validator, req); err != nil {
		return err
	}

	account, token, exp, err := h.identity.SignIn(c.UserContext(), req.Email, req.Password)
	switch {
	case errors.Is(err, identity.ErrInvalidCredentials):
		return apperrors.NewDomainError(apperrors.CodeUnauthenticated, "invalid email or password", http.StatusUnauthorized, nil)
	case errors.Is(err, identity.ErrAccountDisabled):
		return apperrors.NewForbidden("account disabled")
	case err != nil:
		return err
	}

	return c.JSON(dto.OK(dto.AuthResponse{UID: account.UID, Token: token, ExpiresAt: exp}))
}
