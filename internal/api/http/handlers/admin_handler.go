package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/certhub/admin-gateway/internal/api/dto"
	"github.com/certhub/admin-gateway/internal/auth"
	"github.com/certhub/admin-gateway/internal/domain"
	"github.com/certhub/admin-gateway/internal/service"
	apperrors "github.com/certhub/admin-gateway/pkg/util/errorutil"
)

// AdminHandler exposes the admin API. Every route runs behind authentication
// and the admin check.
type AdminHandler struct {
	admin     *service.AdminService
	validator *validator.Validate
}

// NewAdminHandler constructs handler.
func NewAdminHandler(adminService *service.AdminService) *AdminHandler {
	return &AdminHandler{admin: adminService, validator: newValidator()}
}

// ToggleUser POST /admin/toggleUser.
func (h *AdminHandler) ToggleUser(c *fiber.Ctx) error {
	var req dto.ToggleUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := validateRequest(h.validator, req); err != nil {
		return err
	}

	if err := h.admin.ToggleUser(c.UserContext(), auth.ActorUID(c), req.UID, req.Action); err != nil {
		return err
	}
	return c.JSON(dto.OK(nil))
}

// CreateUser POST /admin/createUser.
func (h *AdminHandler) CreateUser(c *fiber.Ctx) error {
	var req dto.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := validateRequest(h.validator, req); err != nil {
		return err
	}

	result, err := h.admin.CreateUser(c.UserContext(), auth.ActorUID(c), service.CreateUserInput{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		Phone:       req.Phone,
		Role:        req.Role,
	})
	if err != nil {
		return err
	}
	return c.JSON(dto.OK(result))
}

// CreateEnrollment POST /admin/createEnrollment.
func (h *AdminHandler) CreateEnrollment(c *fiber.Ctx) error {
	var req dto.CreateEnrollmentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := validateRequest(h.validator, req); err != nil {
		return err
	}

	input := service.CreateEnrollmentInput{
		UserID:      req.UserID,
		CourseID:    req.CourseID,
		CourseTitle: req.CourseTitle,
		CoursePrice: req.CoursePrice,
		EnrolledBy:  req.EnrolledBy,
	}
	if p := req.PaymentData; p != nil {
		input.Payment = &service.PaymentInput{
			PaymentID:            p.PaymentID,
			PaymentDate:          p.PaymentDate,
			PaymentMethod:        p.PaymentMethod,
			TransactionReference: p.TransactionReference,
			AmountPaid:           p.AmountPaid,
		}
	}

	enrollment, err := h.admin.CreateEnrollment(c.UserContext(), auth.ActorUID(c), input)
	if err != nil {
		return err
	}
	return c.JSON(dto.OK(enrollment))
}

// ListEnrollments GET /admin/enrollments/:userId.
func (h *AdminHandler) ListEnrollments(c *fiber.Ctx) error {
	var query dto.ListEnrollmentsQuery
	if err := c.QueryParser(&query); err != nil {
		return apperrors.NewValidationError("invalid query", nil)
	}
	if err := validateRequest(h.validator, query); err != nil {
		return err
	}

	enrollments, err := h.admin.ListEnrollments(c.UserContext(), c.Params("userId"), domain.EnrollmentStatus(query.Status))
	if err != nil {
		return err
	}
	return c.JSON(dto.OK(enrollments))
}

// UpdateEnrollment PUT /admin/enrollments/:enrollmentId.
func (h *AdminHandler) UpdateEnrollment(c *fiber.Ctx) error {
	var req dto.UpdateEnrollmentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := validateRequest(h.validator, req); err != nil {
		return err
	}

	if err := h.admin.UpdateEnrollment(c.UserContext(), auth.ActorUID(c), c.Params("enrollmentId"), req.Fields()); err != nil {
		return err
	}
	return c.JSON(dto.OK(nil))
}

// DeleteEnrollment DELETE /admin/enrollments/:enrollmentId.
func (h *AdminHandler) DeleteEnrollment(c *fiber.Ctx) error {
	if err := h.admin.DeleteEnrollment(c.UserContext(), auth.ActorUID(c), c.Params("enrollmentId")); err != nil {
		return err
	}
	return c.JSON(dto.OK(nil))
}

// ListUsers GET /admin/users.
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	var query dto.ListUsersQuery
	if err := c.QueryParser(&query); err != nil {
		return apperrors.NewValidationError("limit and offset must be integers", nil)
	}
	if err := validateRequest(h.validator, query); err != nil {
		return err
	}

	users, err := h.admin.ListUsers(c.UserContext(), query.Limit, query.Offset)
	if err != nil {
		return err
	}
	return c.JSON(dto.OK(users))
}

// ListCourses GET /admin/courses.
func (h *AdminHandler) ListCourses(c *fiber.Ctx) error {
	courses, err := h.admin.ListCourses(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(dto.OK(courses))
}
