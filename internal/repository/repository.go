package repository

import (
	"context"
	"errors"
	"time"

	"github.com/certhub/admin-gateway/internal/domain"
)

// ErrNotFound is returned when a referenced document does not exist.
var ErrNotFound = errors.New("document not found")

// Collection names in the document store.
const (
	UsersCollection       = "users"
	CoursesCollection     = "courses"
	EnrollmentsCollection = "enrollments"
)

// UserRepository defines persistence access for user profile documents.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, uid string) (*domain.User, error)
	SetStatus(ctx context.Context, uid string, status domain.UserStatus, at time.Time) error
	IncrementCoursesEnrolled(ctx context.Context, uid string, delta int64, at time.Time) error
	List(ctx context.Context, limit, offset int) ([]domain.User, error)
}

// CourseRepository defines persistence access for courses.
type CourseRepository interface {
	IncrementEnrollments(ctx context.Context, id string, delta int64, at time.Time) error
	List(ctx context.Context) ([]domain.Course, error)
}

// EnrollmentRepository defines persistence access for enrollments.
type EnrollmentRepository interface {
	Create(ctx context.Context, enrollment *domain.Enrollment) error
	GetByID(ctx context.Context, id string) (*domain.Enrollment, error)
	ListByUser(ctx context.Context, userID string, status domain.EnrollmentStatus) ([]domain.Enrollment, error)
	Update(ctx context.Context, id string, fields map[string]any) error
	Delete(ctx context.Context, id string) error
}

// TxRunner runs fn so that every write it performs through the repositories
// commits or aborts together. fn may be invoked more than once on transient
// conflicts and must not have side effects outside the store.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
