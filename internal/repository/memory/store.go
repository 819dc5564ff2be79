// Package memory holds an in-process document store used for local
// development and tests. Writes made through a transaction context are
// journaled and undone when the callback fails; other writes are untouched.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/certhub/admin-gateway/internal/domain"
	"github.com/certhub/admin-gateway/internal/repository"
)

// Store keeps users, courses and enrollments in maps.
type Store struct {
	mu          sync.RWMutex
	txMu        sync.Mutex
	users       map[string]domain.User
	courses     map[string]domain.Course
	enrollments map[string]domain.Enrollment
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		users:       make(map[string]domain.User),
		courses:     make(map[string]domain.Course),
		enrollments: make(map[string]domain.Enrollment),
	}
}

// Users returns the user repository view.
func (s *Store) Users() repository.UserRepository { return userRepo{s} }

// Courses returns the course repository view.
func (s *Store) Courses() repository.CourseRepository { return courseRepo{s} }

// Enrollments returns the enrollment repository view.
func (s *Store) Enrollments() repository.EnrollmentRepository { return enrollmentRepo{s} }

// PutCourse inserts or replaces a course.
func (s *Store) PutCourse(course domain.Course) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.courses[course.ID] = course
}

// PutUser inserts or replaces a user.
func (s *Store) PutUser(user domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.UID] = user
}

// Course returns a copy of a stored course.
func (s *Store) Course(id string) (domain.Course, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	course, ok := s.courses[id]
	return course, ok
}

type txKey struct{}

// txJournal records how to undo each write made inside one transaction.
type txJournal struct {
	store *Store
	undo  []func()
}

// RunInTx implements repository.TxRunner. Transactions are serialized.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	journal := &txJournal{store: s}
	if err := fn(context.WithValue(ctx, txKey{}, journal)); err != nil {
		s.mu.Lock()
		for i := len(journal.undo) - 1; i >= 0; i-- {
			journal.undo[i]()
		}
		s.mu.Unlock()
		return err
	}
	return nil
}

// remember journals the current state of m[key] when ctx belongs to a
// transaction on s. Callers hold s.mu.
func remember[V any](ctx context.Context, s *Store, m map[string]V, key string) {
	journal, ok := ctx.Value(txKey{}).(*txJournal)
	if !ok || journal.store != s {
		return
	}
	key = strings.Clone(key)
	prev, existed := m[key]
	journal.undo = append(journal.undo, func() {
		if existed {
			m[key] = prev
		} else {
			delete(m, key)
		}
	})
}

type userRepo struct{ s *Store }

func (r userRepo) Create(ctx context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.users[user.UID]; exists {
		return fmt.Errorf("create user %s: document already exists", user.UID)
	}
	remember(ctx, r.s, r.s.users, user.UID)
	r.s.users[strings.Clone(user.UID)] = *user
	return nil
}

func (r userRepo) GetByID(_ context.Context, uid string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	user, ok := r.s.users[uid]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}

func (r userRepo) SetStatus(ctx context.Context, uid string, status domain.UserStatus, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	user, ok := r.s.users[uid]
	if !ok {
		return missing(repository.UsersCollection, uid)
	}
	remember(ctx, r.s, r.s.users, user.UID)
	user.Status = status
	user.UpdatedAt = at
	r.s.users[user.UID] = user
	return nil
}

func (r userRepo) IncrementCoursesEnrolled(ctx context.Context, uid string, delta int64, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	user, ok := r.s.users[uid]
	if !ok {
		return missing(repository.UsersCollection, uid)
	}
	remember(ctx, r.s, r.s.users, user.UID)
	user.TotalCoursesEnrolled += delta
	user.UpdatedAt = at
	r.s.users[user.UID] = user
	return nil
}

func (r userRepo) List(_ context.Context, limit, offset int) ([]domain.User, error) {
	r.s.mu.RLock()
	users := make([]domain.User, 0, len(r.s.users))
	for _, user := range r.s.users {
		users = append(users, user)
	}
	r.s.mu.RUnlock()

	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.After(users[j].CreatedAt) })
	if offset >= len(users) {
		return []domain.User{}, nil
	}
	users = users[offset:]
	if limit < len(users) {
		users = users[:limit]
	}
	return users, nil
}

type courseRepo struct{ s *Store }

func (r courseRepo) IncrementEnrollments(ctx context.Context, id string, delta int64, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	course, ok := r.s.courses[id]
	if !ok {
		return missing(repository.CoursesCollection, id)
	}
	remember(ctx, r.s, r.s.courses, course.ID)
	course.TotalEnrollments += delta
	course.UpdatedAt = at
	r.s.courses[course.ID] = course
	return nil
}

func (r courseRepo) List(context.Context) ([]domain.Course, error) {
	r.s.mu.RLock()
	courses := make([]domain.Course, 0, len(r.s.courses))
	for _, course := range r.s.courses {
		courses = append(courses, course)
	}
	r.s.mu.RUnlock()

	sort.Slice(courses, func(i, j int) bool { return courses[i].CreatedAt.After(courses[j].CreatedAt) })
	return courses, nil
}

type enrollmentRepo struct{ s *Store }

func (r enrollmentRepo) Create(ctx context.Context, enrollment *domain.Enrollment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.enrollments[enrollment.ID]; exists {
		return fmt.Errorf("create enrollment %s: document already exists", enrollment.ID)
	}
	remember(ctx, r.s, r.s.enrollments, enrollment.ID)
	r.s.enrollments[strings.Clone(enrollment.ID)] = *enrollment
	return nil
}

func (r enrollmentRepo) GetByID(_ context.Context, id string) (*domain.Enrollment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	enrollment, ok := r.s.enrollments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &enrollment, nil
}

func (r enrollmentRepo) ListByUser(_ context.Context, userID string, status domain.EnrollmentStatus) ([]domain.Enrollment, error) {
	r.s.mu.RLock()
	enrollments := make([]domain.Enrollment, 0)
	for _, enrollment := range r.s.enrollments {
		if enrollment.UserID == userID && enrollment.Status == status {
			enrollments = append(enrollments, enrollment)
		}
	}
	r.s.mu.RUnlock()

	sort.Slice(enrollments, func(i, j int) bool { return enrollments[i].EnrolledAt.After(enrollments[j].EnrolledAt) })
	return enrollments, nil
}

// Update merges fields into the stored document through its JSON form, which
// shares key names with the document encoding.
func (r enrollmentRepo) Update(ctx context.Context, id string, fields map[string]any) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.enrollments[id]
	if !ok {
		return missing(repository.EnrollmentsCollection, id)
	}

	doc, err := toMap(current)
	if err != nil {
		return err
	}
	patch, err := toMap(fields)
	if err != nil {
		return err
	}
	for key, value := range patch {
		doc[key] = value
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	var updated domain.Enrollment
	if err := json.Unmarshal(raw, &updated); err != nil {
		return fmt.Errorf("apply update to %s/%s: %w", repository.EnrollmentsCollection, id, err)
	}
	remember(ctx, r.s, r.s.enrollments, current.ID)
	updated.ID = current.ID
	r.s.enrollments[current.ID] = updated
	return nil
}

func (r enrollmentRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.enrollments[id]; !ok {
		return repository.ErrNotFound
	}
	remember(ctx, r.s, r.s.enrollments, id)
	delete(r.s.enrollments, id)
	return nil
}

func toMap(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func missing(collection, id string) error {
	return fmt.Errorf("no document to update: %s/%s: %w", collection, id, repository.ErrNotFound)
}
