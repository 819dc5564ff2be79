package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/certhub/admin-gateway/internal/domain"
	"github.com/certhub/admin-gateway/internal/events"
	"github.com/certhub/admin-gateway/internal/identity"
	"github.com/certhub/admin-gateway/internal/repository"
	apperrors "github.com/certhub/admin-gateway/pkg/util/errorutil"
)

const (
	// DefaultUserPageSize applies when a listing omits limit.
	DefaultUserPageSize = 100
	// MaxUserPageSize bounds a single user listing page.
	MaxUserPageSize = 1000

	defaultEnrolledBy = "admin"
	enrollmentIDChars = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// Toggle actions.
const (
	ActionEnable  = "enable"
	ActionDisable = "disable"
)

// IdentityProvider is the subset of the identity provider the admin service drives.
type IdentityProvider interface {
	CreateUser(ctx context.Context, params identity.CreateAccountParams) (*identity.Account, error)
	GetUserByEmail(ctx context.Context, email string) (*identity.Account, error)
	SetDisabled(ctx context.Context, uid string, disabled bool) error
	DeleteUser(ctx context.Context, uid string) error
}

// AdminService implements the admin operations over the identity provider and document store.
type AdminService struct {
	identity    IdentityProvider
	users       repository.UserRepository
	courses     repository.CourseRepository
	enrollments repository.EnrollmentRepository
	tx          repository.TxRunner
	dispatcher  events.Dispatcher
	logger      *zap.Logger
	now         func() time.Time
}

// AdminDependencies bundles collaborators for the admin service.
type AdminDependencies struct {
	Identity       IdentityProvider
	UserRepo       repository.UserRepository
	CourseRepo     repository.CourseRepository
	EnrollmentRepo repository.EnrollmentRepository
	Tx             repository.TxRunner
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
}

// NewAdminService builds the service.
func NewAdminService(deps AdminDependencies) *AdminService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminService{
		identity:    deps.Identity,
		users:       deps.UserRepo,
		courses:     deps.CourseRepo,
		enrollments: deps.EnrollmentRepo,
		tx:          deps.Tx,
		dispatcher:  deps.Dispatcher,
		logger:      logger,
		now:         time.Now,
	}
}

// ToggleUser enables or disables an account and mirrors the state on the profile.
func (s *AdminService) ToggleUser(ctx context.Context, actorUID, uid, action string) error {
	var disabled bool
	switch action {
	case ActionEnable:
	case ActionDisable:
		disabled = true
	default:
		return apperrors.NewValidationError("action must be enable or disable", map[string]any{"action": action})
	}

	if err := s.identity.SetDisabled(ctx, uid, disabled); err != nil {
		return fmt.Errorf("set account disabled: %w", err)
	}
	status := domain.StatusForDisabled(disabled)
	if err := s.users.SetStatus(ctx, uid, status, s.now().UTC()); err != nil {
		return fmt.Errorf("update user status: %w", err)
	}

	s.publish(ctx, events.EventUserToggled, uid, actorUID, events.UserToggledPayload{Status: status})
	return nil
}

// CreateUserInput describes an admin-provisioned account.
type CreateUserInput struct {
	Email       string
	Password    string
	DisplayName string
	Phone       string
	Role        string
}

// Credentials are echoed back so the admin can hand them to the new user.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CreateUserResult is returned by CreateUser.
type CreateUserResult struct {
	UID         string      `json:"uid"`
	Email       string      `json:"email"`
	Credentials Credentials `json:"credentials"`
}

// CreateUser provisions an identity account and its profile document. If the
// profile cannot be written the account is deleted again.
func (s *AdminService) CreateUser(ctx context.Context, actorUID string, input CreateUserInput) (*CreateUserResult, error) {
	account, err := s.identity.CreateUser(ctx, identity.CreateAccountParams{
		Email:       input.Email,
		Password:    input.Password,
		DisplayName: input.DisplayName,
		Phone:       input.Phone,
	})
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	user := &domain.User{
		UID:         account.UID,
		Email:       account.Email,
		DisplayName: account.DisplayName,
		Phone:       account.Phone,
		IsAdmin:     strings.EqualFold(strings.TrimSpace(input.Role), "admin"),
		Status:      domain.UserStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if delErr := s.identity.DeleteUser(ctx, account.UID); delErr != nil {
			s.logger.Error("orphaned identity account",
				zap.String("uid", account.UID), zap.Error(delErr))
		}
		return nil, err
	}

	s.publish(ctx, events.EventUserCreated, user.UID, actorUID, events.UserCreatedPayload{
		Email:   user.Email,
		IsAdmin: user.IsAdmin,
	})
	return &CreateUserResult{
		UID:         user.UID,
		Email:       user.Email,
		Credentials: Credentials{Email: user.Email, Password: input.Password},
	}, nil
}

// PaymentInput carries optional payment data for an admin-entered enrollment.
type PaymentInput struct {
	PaymentID            string
	PaymentDate          *time.Time
	PaymentMethod        string
	TransactionReference string
	AmountPaid           *float64
}

// CreateEnrollmentInput describes an admin-entered enrollment.
type CreateEnrollmentInput struct {
	UserID      string
	CourseID    string
	CourseTitle string
	CoursePrice float64
	Payment     *PaymentInput
	EnrolledBy  string
}

// CreateEnrollment records a successful enrollment and bumps both counters in
// one transaction.
func (s *AdminService) CreateEnrollment(ctx context.Context, actorUID string, input CreateEnrollmentInput) (*domain.Enrollment, error) {
	if input.UserID == "" || input.CourseID == "" {
		return nil, apperrors.NewValidationError("userId and courseId are required", nil)
	}

	now := s.now().UTC()
	enrollment := newEnrollment(now, input)

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.enrollments.Create(ctx, enrollment); err != nil {
			return err
		}
		if err := s.courses.IncrementEnrollments(ctx, input.CourseID, 1, now); err != nil {
			return err
		}
		return s.users.IncrementCoursesEnrolled(ctx, input.UserID, 1, now)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventEnrollmentCreated, enrollment.ID, actorUID, events.EnrollmentPayload{
		UserID:   enrollment.UserID,
		CourseID: enrollment.CourseID,
		Status:   enrollment.Status,
	})
	return enrollment, nil
}

func newEnrollment(now time.Time, input CreateEnrollmentInput) *domain.Enrollment {
	ms := now.UnixMilli()
	id := fmt.Sprintf("ENR_%d_%s", ms, randomBase36(9))

	payment := domain.PaymentDetails{
		PaymentID:     fmt.Sprintf("ADMIN_%d", ms),
		PaymentDate:   now,
		PaymentMethod: domain.PaymentMethodOffline,
		AmountPaid:    input.CoursePrice,
	}
	if p := input.Payment; p != nil {
		if p.PaymentID != "" {
			payment.PaymentID = p.PaymentID
		}
		if p.PaymentDate != nil {
			payment.PaymentDate = p.PaymentDate.UTC()
		}
		if p.PaymentMethod != "" {
			payment.PaymentMethod = p.PaymentMethod
		}
		if p.AmountPaid != nil {
			payment.AmountPaid = *p.AmountPaid
		}
		payment.TransactionReference = p.TransactionReference
	}

	enrolledBy := strings.TrimSpace(input.EnrolledBy)
	if enrolledBy == "" {
		enrolledBy = defaultEnrolledBy
	}

	return &domain.Enrollment{
		ID:             id,
		EnrollmentID:   id,
		UserID:         input.UserID,
		CourseID:       input.CourseID,
		CourseTitle:    input.CourseTitle,
		CoursePrice:    input.CoursePrice,
		Status:         domain.EnrollmentStatusSuccess,
		AmountPaid:     payment.AmountPaid,
		PaymentDetails: payment,
		EnrolledAt:     now,
		EnrolledBy:     enrolledBy,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func randomBase36(n int) string {
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		b.WriteByte(enrollmentIDChars[rand.Intn(len(enrollmentIDChars))])
	}
	return b.String()
}

// ListEnrollments returns a user's enrollments in the given status, newest first.
// An empty status means SUCCESS.
func (s *AdminService) ListEnrollments(ctx context.Context, userID string, status domain.EnrollmentStatus) ([]domain.Enrollment, error) {
	if status == "" {
		status = domain.EnrollmentStatusSuccess
	}
	if !status.Valid() {
		return nil, apperrors.NewValidationError("status must be one of SUCCESS, PENDING, FAILED", map[string]any{"status": status})
	}
	return s.enrollments.ListByUser(ctx, userID, status)
}

// UpdateEnrollment applies a partial update. Identity, foreign-key and creation
// fields are dropped from fields before anything is written.
func (s *AdminService) UpdateEnrollment(ctx context.Context, actorUID, id string, fields map[string]any) error {
	update := make(map[string]any, len(fields)+1)
	for key, value := range fields {
		update[key] = value
	}
	for _, key := range domain.ImmutableEnrollmentFields {
		delete(update, key)
	}

	changed := make([]string, 0, len(update))
	for key := range update {
		changed = append(changed, key)
	}
	update["updatedAt"] = s.now().UTC()

	if err := s.enrollments.Update(ctx, id, update); err != nil {
		return err
	}

	s.publish(ctx, events.EventEnrollmentUpdated, id, actorUID, events.EnrollmentPayload{Fields: changed})
	return nil
}

// DeleteEnrollment removes an enrollment and decrements both counters in one transaction.
func (s *AdminService) DeleteEnrollment(ctx context.Context, actorUID, id string) error {
	var deleted *domain.Enrollment
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		enrollment, err := s.enrollments.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.NewNotFound("Enrollment", map[string]any{"enrollmentId": id})
			}
			return err
		}
		now := s.now().UTC()
		if err := s.enrollments.Delete(ctx, id); err != nil {
			return err
		}
		if err := s.courses.IncrementEnrollments(ctx, enrollment.CourseID, -1, now); err != nil {
			return err
		}
		if err := s.users.IncrementCoursesEnrolled(ctx, enrollment.UserID, -1, now); err != nil {
			return err
		}
		deleted = enrollment
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(ctx, events.EventEnrollmentDeleted, id, actorUID, events.EnrollmentPayload{
		UserID:   deleted.UserID,
		CourseID: deleted.CourseID,
		Status:   deleted.Status,
	})
	return nil
}

// ListUsers returns a page of users, newest first.
func (s *AdminService) ListUsers(ctx context.Context, limit, offset int) ([]domain.User, error) {
	if limit <= 0 {
		limit = DefaultUserPageSize
	}
	if limit > MaxUserPageSize {
		limit = MaxUserPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return s.users.List(ctx, limit, offset)
}

// ListCourses returns every course, newest first.
func (s *AdminService) ListCourses(ctx context.Context) ([]domain.Course, error) {
	return s.courses.List(ctx)
}

// BootstrapAdmin makes sure an administrator with the given credentials exists.
// It is safe to call on every start.
func (s *AdminService) BootstrapAdmin(ctx context.Context, email, password string) error {
	account, err := s.identity.GetUserByEmail(ctx, email)
	switch {
	case errors.Is(err, identity.ErrAccountNotFound):
		_, err := s.CreateUser(ctx, "", CreateUserInput{Email: email, Password: password, Role: "admin"})
		if err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
		s.logger.Info("bootstrap admin created", zap.String("email", email))
		return nil
	case err != nil:
		return fmt.Errorf("bootstrap admin lookup: %w", err)
	}

	user, err := s.users.GetByID(ctx, account.UID)
	if err == nil {
		if !user.IsAdmin {
			s.logger.Warn("bootstrap account exists without admin flag", zap.String("uid", user.UID))
		}
		return nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("bootstrap admin profile: %w", err)
	}

	now := s.now().UTC()
	return s.users.Create(ctx, &domain.User{
		UID:         account.UID,
		Email:       account.Email,
		DisplayName: account.DisplayName,
		Phone:       account.Phone,
		IsAdmin:     true,
		Status:      domain.StatusForDisabled(account.Disabled),
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

func (s *AdminService) publish(ctx context.Context, eventType events.EventType, subjectID, actorUID string, payload any) {
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		SubjectID: subjectID,
		ActorUID:  actorUID,
		Timestamp: s.now().UTC(),
		Payload:   payload,
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event delivery failed", zap.String("type", string(eventType)), zap.Error(err))
	}
}
