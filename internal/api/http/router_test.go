package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/certhub/admin-gateway/internal/api/http/handlers"
	"github.com/certhub/admin-gateway/internal/auth"
	"github.com/certhub/admin-gateway/internal/domain"
	"github.com/certhub/admin-gateway/internal/events"
	"github.com/certhub/admin-gateway/internal/identity"
	"github.com/certhub/admin-gateway/internal/observability"
	"github.com/certhub/admin-gateway/internal/repository/memory"
	"github.com/certhub/admin-gateway/internal/service"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type testServer struct {
	app        *fiber.App
	store      *memory.Store
	provider   *identity.Provider
	adminToken string
	userToken  string
}

func newTestServer(t *testing.T, exposeInternal bool) *testServer {
	t.Helper()
	ctx := context.Background()
	logger := zap.NewNop()

	store := memory.NewStore()
	provider := identity.NewProvider(
		identity.NewMemoryAccountStore(),
		identity.NewMemoryRevocationStore(),
		identity.NewTokenManager("router-secret", "router-test", 60),
		bcrypt.MinCost,
	)

	adminSvc := service.NewAdminService(service.AdminDependencies{
		Identity:       provider,
		UserRepo:       store.Users(),
		CourseRepo:     store.Courses(),
		EnrollmentRepo: store.Enrollments(),
		Tx:             store,
		Dispatcher:     events.NewInMemoryDispatcher(),
		Logger:         logger,
	})
	require.NoError(t, adminSvc.BootstrapAdmin(ctx, "root@example.com", "rootpass"))

	learner, err := provider.CreateUser(ctx, identity.CreateAccountParams{Email: "learner@example.com", Password: "learnpass"})
	require.NoError(t, err)
	store.PutUser(domain.User{UID: learner.UID, Email: learner.Email, Status: domain.UserStatusActive, CreatedAt: time.Now().Add(-time.Hour)})
	store.PutCourse(domain.Course{ID: "course-1", Title: "Networking Basics", Price: 120, CreatedAt: time.Now().Add(-time.Hour)})

	_, adminToken, _, err := provider.SignIn(ctx, "root@example.com", "rootpass")
	require.NoError(t, err)
	_, userToken, _, err := provider.SignIn(ctx, "learner@example.com", "learnpass")
	require.NoError(t, err)

	metrics := observability.NewMetrics()
	app := NewApp("admin-gateway-test", logger, exposeInternal)
	RegisterMiddlewares(app, logger, metrics, MiddlewareConfig{Timeout: 5 * time.Second, ExposeInternal: exposeInternal})
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("admin-gateway", "test", map[string]handlers.Pinger{"identity": provider}),
		Users:          handlers.NewUsersHandler(provider),
		Admin:          handlers.NewAdminHandler(adminSvc),
		AuthMiddleware: auth.NewAuthMiddleware(provider, store.Users(), logger),
		Metrics:        metrics,
	})

	return &testServer{app: app, store: store, provider: provider, adminToken: adminToken, userToken: userToken}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func (s *testServer) learnerUID(t *testing.T) string {
	t.Helper()
	account, err := s.provider.GetUserByEmail(context.Background(), "learner@example.com")
	require.NoError(t, err)
	return account.UID
}

func TestAdminRoutesRequireBearerToken(t *testing.T) {
	s := newTestServer(t, true)

	status, env := s.do(t, fiber.MethodPost, "/admin/createEnrollment", "", map[string]any{"userId": s.learnerUID(t), "courseId": "course-1"})
	assert.Equal(t, nethttp.StatusUnauthorized, status)
	assert.False(t, env.Success)
	assert.Equal(t, "Unauthorized: No token provided", env.Error)

	course, _ := s.store.Course("course-1")
	assert.Zero(t, course.TotalEnrollments)

	req := httptest.NewRequest(fiber.MethodGet, "/admin/users", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Token abc")
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, nethttp.StatusUnauthorized, resp.StatusCode)

	status, env = s.do(t, fiber.MethodGet, "/admin/users", "not-a-jwt", nil)
	assert.Equal(t, nethttp.StatusUnauthorized, status)
	assert.Equal(t, "Unauthorized: invalid token", env.Error)
}

func TestAdminRoutesRejectNonAdmin(t *testing.T) {
	s := newTestServer(t, true)

	status, env := s.do(t, fiber.MethodGet, "/admin/courses", s.userToken, nil)
	assert.Equal(t, nethttp.StatusForbidden, status)
	assert.Equal(t, "Forbidden: admin access required", env.Error)

	status, _ = s.do(t, fiber.MethodPost, "/admin/createEnrollment", s.userToken, map[string]any{"userId": s.learnerUID(t), "courseId": "course-1"})
	assert.Equal(t, nethttp.StatusForbidden, status)
	course, _ := s.store.Course("course-1")
	assert.Zero(t, course.TotalEnrollments)
}

func TestToggleUserValidation(t *testing.T) {
	s := newTestServer(t, true)

	status, env := s.do(t, fiber.MethodPost, "/admin/toggleUser", s.adminToken, map[string]any{"uid": s.learnerUID(t), "action": "suspend"})
	assert.Equal(t, nethttp.StatusBadRequest, status)
	assert.Contains(t, env.Error, "action must be one of: enable, disable")

	status, env = s.do(t, fiber.MethodPost, "/admin/toggleUser", s.adminToken, map[string]any{"action": "enable"})
	assert.Equal(t, nethttp.StatusBadRequest, status)
	assert.Contains(t, env.Error, "uid is required")
}

func TestToggleUserDisableRevokesToken(t *testing.T) {
	s := newTestServer(t, true)
	uid := s.learnerUID(t)

	status, env := s.do(t, fiber.MethodPost, "/admin/toggleUser", s.adminToken, map[string]any{"uid": uid, "action": "disable"})
	require.Equal(t, nethttp.StatusOK, status)
	assert.True(t, env.Success)

	user, err := s.store.Users().GetByID(context.Background(), uid)
	require.NoError(t, err)
	assert.Equal(t, domain.UserStatusInactive, user.Status)

	status, _ = s.do(t, fiber.MethodPost, "/auth/login", "", map[string]any{"email": "learner@example.com", "password": "learnpass"})
	assert.Equal(t, nethttp.StatusForbidden, status)
}

func TestEnrollmentLifecycle(t *testing.T) {
	s := newTestServer(t, true)
	uid := s.learnerUID(t)

	status, env := s.do(t, fiber.MethodPost, "/admin/createEnrollment", s.adminToken, map[string]any{
		"userId":      uid,
		"courseId":    "course-1",
		"courseTitle": "Networking Basics",
		"coursePrice": 120,
	})
	require.Equal(t, nethttp.StatusOK, status, env.Error)
	var created domain.Enrollment
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, domain.EnrollmentStatusSuccess, created.Status)
	assert.Equal(t, 120.0, created.AmountPaid)

	status, env = s.do(t, fiber.MethodGet, "/admin/enrollments/"+uid, s.adminToken, nil)
	require.Equal(t, nethttp.StatusOK, status)
	var listed []domain.Enrollment
	require.NoError(t, json.Unmarshal(env.Data, &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, created.ID, listed[0].ID)

	status, _ = s.do(t, fiber.MethodPut, "/admin/enrollments/"+created.ID, s.adminToken, map[string]any{
		"status": "PENDING",
		"userId": "someone-else",
	})
	require.Equal(t, nethttp.StatusOK, status)
	updated, err := s.store.Enrollments().GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EnrollmentStatusPending, updated.Status)
	assert.Equal(t, uid, updated.UserID)

	status, env = s.do(t, fiber.MethodGet, "/admin/enrollments/"+uid, s.adminToken, nil)
	require.Equal(t, nethttp.StatusOK, status)
	assert.JSONEq(t, "[]", string(env.Data))

	status, _ = s.do(t, fiber.MethodDelete, "/admin/enrollments/"+created.ID, s.adminToken, nil)
	require.Equal(t, nethttp.StatusOK, status)
	course, _ := s.store.Course("course-1")
	assert.Zero(t, course.TotalEnrollments)

	status, env = s.do(t, fiber.MethodDelete, "/admin/enrollments/"+created.ID, s.adminToken, nil)
	assert.Equal(t, nethttp.StatusNotFound, status)
	assert.Equal(t, "Enrollment not found", env.Error)
}

func TestEnrollmentStaysAddressableAfterUpdate(t *testing.T) {
	s := newTestServer(t, true)
	uid := s.learnerUID(t)

	status, env := s.do(t, fiber.MethodPost, "/admin/createEnrollment", s.adminToken, map[string]any{"userId": uid, "courseId": "course-1"})
	require.Equal(t, nethttp.StatusOK, status, env.Error)
	var created domain.Enrollment
	require.NoError(t, json.Unmarshal(env.Data, &created))

	status, _ = s.do(t, fiber.MethodPut, "/admin/enrollments/"+created.ID, s.adminToken, map[string]any{"status": "FAILED"})
	require.Equal(t, nethttp.StatusOK, status)

	other := strings.Repeat("Z", len(created.ID))
	status, _ = s.do(t, fiber.MethodPut, "/admin/enrollments/"+other, s.adminToken, map[string]any{"status": "FAILED"})
	require.Equal(t, nethttp.StatusInternalServerError, status)

	stored, err := s.store.Enrollments().GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EnrollmentStatusFailed, stored.Status)

	status, env = s.do(t, fiber.MethodGet, "/admin/enrollments/"+uid+"?status=FAILED", s.adminToken, nil)
	require.Equal(t, nethttp.StatusOK, status)
	var listed []domain.Enrollment
	require.NoError(t, json.Unmarshal(env.Data, &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, created.ID, listed[0].ID)

	status, _ = s.do(t, fiber.MethodDelete, "/admin/enrollments/"+created.ID, s.adminToken, nil)
	assert.Equal(t, nethttp.StatusOK, status)
}

func TestUpdateUnknownEnrollmentSurfacesStoreMessage(t *testing.T) {
	s := newTestServer(t, true)

	status, env := s.do(t, fiber.MethodPut, "/admin/enrollments/ENR_missing", s.adminToken, map[string]any{"status": "FAILED"})
	assert.Equal(t, nethttp.StatusInternalServerError, status)
	assert.Contains(t, env.Error, "no document to update")
}

func TestInternalMessagesCanBeMasked(t *testing.T) {
	s := newTestServer(t, false)

	status, env := s.do(t, fiber.MethodPut, "/admin/enrollments/ENR_missing", s.adminToken, map[string]any{"status": "FAILED"})
	assert.Equal(t, nethttp.StatusInternalServerError, status)
	assert.Equal(t, "internal server error", env.Error)
}

func TestListUsersDefaultsAndValidation(t *testing.T) {
	s := newTestServer(t, true)

	status, env := s.do(t, fiber.MethodGet, "/admin/users", s.adminToken, nil)
	require.Equal(t, nethttp.StatusOK, status)
	var users []domain.User
	require.NoError(t, json.Unmarshal(env.Data, &users))
	assert.Len(t, users, 2)

	status, _ = s.do(t, fiber.MethodGet, "/admin/users?limit=1&offset=1", s.adminToken, nil)
	assert.Equal(t, nethttp.StatusOK, status)

	status, _ = s.do(t, fiber.MethodGet, "/admin/users?limit=-5", s.adminToken, nil)
	assert.Equal(t, nethttp.StatusBadRequest, status)
}

func TestCreateUserEchoesCredentials(t *testing.T) {
	s := newTestServer(t, true)

	status, env := s.do(t, fiber.MethodPost, "/admin/createUser", s.adminToken, map[string]any{
		"email":    "new@example.com",
		"password": "secret123",
		"role":     "Admin",
	})
	require.Equal(t, nethttp.StatusOK, status, env.Error)

	var result service.CreateUserResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, "new@example.com", result.Credentials.Email)
	assert.Equal(t, "secret123", result.Credentials.Password)

	user, err := s.store.Users().GetByID(context.Background(), result.UID)
	require.NoError(t, err)
	assert.True(t, user.IsAdmin)

	status, env = s.do(t, fiber.MethodPost, "/admin/createUser", s.adminToken, map[string]any{"email": "not-an-email", "password": "x"})
	assert.Equal(t, nethttp.StatusBadRequest, status)
	assert.Contains(t, env.Error, "email must be a valid email address")
}

func TestPanicsBecomeEnvelopes(t *testing.T) {
	s := newTestServer(t, true)
	s.app.Get("/boom", func(*fiber.Ctx) error { panic("kaboom") })
	s.app.Get("/fail", func(*fiber.Ctx) error { return errors.New("plain failure") })

	status, env := s.do(t, fiber.MethodGet, "/boom", "", nil)
	assert.Equal(t, nethttp.StatusInternalServerError, status)
	assert.False(t, env.Success)
	assert.Equal(t, "panic: kaboom", env.Error)

	status, env = s.do(t, fiber.MethodGet, "/fail", "", nil)
	assert.Equal(t, nethttp.StatusInternalServerError, status)
	assert.Equal(t, "plain failure", env.Error)
}

func TestLoginAndHealth(t *testing.T) {
	s := newTestServer(t, true)

	status, env := s.do(t, fiber.MethodPost, "/auth/login", "", map[string]any{"email": "root@example.com", "password": "wrong-pass"})
	assert.Equal(t, nethttp.StatusUnauthorized, status)
	assert.Equal(t, "invalid email or password", env.Error)

	status, env = s.do(t, fiber.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, nethttp.StatusOK, status)
	assert.True(t, env.Success)
}
