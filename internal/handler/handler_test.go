package handler_test

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/org-tasks-api/internal/auth"
	"github.com/org-tasks-api/internal/database/dbtest"
	"github.com/org-tasks-api/internal/domain"
	"github.com/org-tasks-api/internal/dto"
	"github.com/org-tasks-api/internal/handler"
	"github.com/org-tasks-api/internal/policy"
	"github.com/org-tasks-api/internal/repository"
	"github.com/org-tasks-api/internal/service"
	"github.com/org-tasks-api/internal/storage"
)

const adminCode = "let-me-in"

type testAPI struct {
	server      *httptest.Server
	departments repository.DepartmentRepository
}

func setupTestAPI(t *testing.T) *testAPI {
	t.Helper()

	db := dbtest.New(t)
	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	tx := repository.NewTxManager(db)
	users := repository.NewUserRepository(db)
	departments := repository.NewDepartmentRepository(db)
	projects := repository.NewProjectRepository(db)
	tasks := repository.NewTaskRepository(db)
	attachments := repository.NewAttachmentRepository(db)
	hasher := auth.NewPasswordHasher(bcrypt.MinCost)
	roles := service.NewRoleSynchronizer(users, departments, policy.DefaultCatalog())

	svc := handler.Services{
		Auth:          service.NewAuthService(tx, users, departments, auth.NewTokenService("test-secret", time.Hour), hasher, roles, adminCode),
		Users:         service.NewUserService(tx, users, departments, hasher, roles),
		Departments:   service.NewDepartmentService(tx, departments, users, roles),
		Projects:      service.NewProjectService(tx, projects, users, departments, attachments, store),
		Tasks:         service.NewTaskService(tx, tasks, projects, users, departments, attachments, store),
		Comments:      service.NewCommentService(tx, repository.NewCommentRepository(db), tasks),
		Attachments:   service.NewAttachmentService(attachments, tasks, projects, users, store, 1<<20),
		Loans:         service.NewLoanService(tx, repository.NewLoanRepository(db), users, departments),
		Emergencies:   service.NewEmergencyService(tx, repository.NewEmergencyRepository(db), departments),
		Conversations: service.NewConversationService(tx, repository.NewConversationRepository(db), users),
		Notifications: service.NewNotificationService(repository.NewNotificationRepository(db), users),
		Analytics:     service.NewAnalyticsService(repository.NewAnalyticsRepository(db)),
		Calendar:      service.NewCalendarService(tasks, projects),
	}

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	router := handler.NewRouter(svc, 1<<20, prometheus.NewRegistry(), logger)

	server := httptest.NewServer(router.Setup())
	t.Cleanup(server.Close)

	return &testAPI{server: server, departments: departments}
}

func (a *testAPI) department(t *testing.T, name string) uuid.UUID {
	t.Helper()
	dept := &domain.Department{Name: name, Color: domain.DefaultDepartmentColor, WorkloadCapacity: 100}
	require.NoError(t, a.departments.Create(context.Background(), dept))
	return dept.ID
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, a.server.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

// register регистрирует пользователя и возвращает его токен
func (a *testAPI) register(t *testing.T, username, role string, dept *uuid.UUID) string {
	t.Helper()

	req := dto.RegisterRequest{Username: username, Password: "password123", Role: role, DepartmentID: dept}
	if role == "ADMIN" || role == "MANAGER" {
		req.AdminCode = adminCode
	}
	resp := a.do(t, http.MethodPost, "/api/register/", "", req)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = a.do(t, http.MethodPost, "/api/token/", "", dto.LoginRequest{Username: username, Password: "password123"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var token dto.TokenResponse
	decode(t, resp, &token)
	return token.Access
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestHealthAndMetrics(t *testing.T) {
	api := setupTestAPI(t)

	resp := api.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	resp = api.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "orgtasks_http_requests_total")
}

func TestAuthenticationRequired(t *testing.T) {
	api := setupTestAPI(t)

	resp := api.do(t, http.MethodGet, "/api/tasks/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = api.do(t, http.MethodGet, "/api/tasks/", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = api.do(t, http.MethodPost, "/api/token/", "", dto.LoginRequest{Username: "nobody", Password: "password123"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRegister_ValidationErrorsCarryField(t *testing.T) {
	api := setupTestAPI(t)

	resp := api.do(t, http.MethodPost, "/api/register/", "", dto.RegisterRequest{Username: "shorty", Password: "123"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var errResp dto.ErrorResponse
	decode(t, resp, &errResp)
	assert.Equal(t, "password", errResp.Field)

	resp = api.do(t, http.MethodPost, "/api/register/", "", dto.RegisterRequest{Username: "boss", Password: "password123", Role: "KING"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	decode(t, resp, &errResp)
	assert.Equal(t, "role", errResp.Field)
}

func TestRegister_SecondManagerIsValidationError(t *testing.T) {
	api := setupTestAPI(t)
	dept := api.department(t, "Support")
	api.register(t, "zed", "MANAGER", &dept)

	resp := api.do(t, http.MethodPost, "/api/register/", "", dto.RegisterRequest{
		Username: "max", Password: "password123", Role: "MANAGER", DepartmentID: &dept, AdminCode: adminCode,
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var errResp dto.ErrorResponse
	decode(t, resp, &errResp)
	assert.Equal(t, "department_id", errResp.Field)

	resp = api.do(t, http.MethodGet, "/api/public-services/", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var public []dto.PublicDepartmentResponse
	decode(t, resp, &public)
	assert.Empty(t, public)
}

func TestAvailabilityChecks(t *testing.T) {
	api := setupTestAPI(t)
	api.register(t, "taken", "", nil)

	resp := api.do(t, http.MethodGet, "/api/check-username/?username=taken", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var avail dto.AvailabilityResponse
	decode(t, resp, &avail)
	assert.False(t, avail.Available)

	resp = api.do(t, http.MethodGet, "/api/check-email/?email=free@example.com", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &avail)
	assert.True(t, avail.Available)
}

func TestProvisionEndpoint(t *testing.T) {
	api := setupTestAPI(t)

	resp := api.do(t, http.MethodPost, "/api/register-service-manager/", "", dto.ProvisionRequest{
		DepartmentName:   "Logistics",
		ManagerUsername:  "boss",
		ManagerEmail:     "boss@example.com",
		ManagerPassword:  "password123",
		ManagerFirstName: "Ada",
		ManagerLastName:  "Boss",
		AdminCode:        adminCode,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created dto.ProvisionResponse
	decode(t, resp, &created)
	assert.Equal(t, "boss", created.ManagerUsername)

	dept, err := api.departments.GetByID(context.Background(), created.DepartmentID)
	require.NoError(t, err)
	assert.Equal(t, created.ManagerID, *dept.LeaderID)
}

func TestProfile_DerivedPermissionsAndDepartmentGuard(t *testing.T) {
	api := setupTestAPI(t)
	dept := api.department(t, "Support")
	other := api.department(t, "Other")
	token := api.register(t, "emp", "", &dept)

	resp := api.do(t, http.MethodGet, "/api/me/", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var profile dto.ProfileResponse
	decode(t, resp, &profile)
	assert.Equal(t, []string{"EMPLOYEE"}, profile.Groups)
	assert.ElementsMatch(t, policy.DefaultCatalog().PermissionsFor(domain.RoleEmployee), profile.Permissions)
	require.NotNil(t, profile.DepartmentName)
	assert.Equal(t, "Support", *profile.DepartmentName)

	resp = api.do(t, http.MethodPatch, "/api/me/", token, map[string]any{"department_id": other})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var errResp dto.ErrorResponse
	decode(t, resp, &errResp)
	assert.Equal(t, "department_id", errResp.Field)

	resp = api.do(t, http.MethodGet, "/api/debug/permissions/", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var debug dto.DebugPermissionsResponse
	decode(t, resp, &debug)
	assert.Equal(t, "EMPLOYEE", debug.Role)
}

func TestTasks_ForbiddenNotFoundAndSearch(t *testing.T) {
	api := setupTestAPI(t)
	dept := api.department(t, "Ops")
	employee := api.register(t, "emp", "", &dept)
	manager := api.register(t, "mgr", "MANAGER", &dept)

	resp := api.do(t, http.MethodPost, "/api/tasks/", employee, dto.CreateTaskRequest{Type: "service", Title: "x", DepartmentID: &dept})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = api.do(t, http.MethodPost, "/api/tasks/", manager, dto.CreateTaskRequest{Type: "service", Title: "Fix printer", DepartmentID: &dept})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var task dto.TaskResponse
	decode(t, resp, &task)
	assert.Equal(t, []string{}, task.Tags)

	resp = api.do(t, http.MethodGet, "/api/tasks/", employee, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []dto.TaskResponse
	decode(t, resp, &list)
	require.Len(t, list, 1)
	assert.Equal(t, task.ID, list[0].ID)

	resp = api.do(t, http.MethodGet, "/api/tasks/search/?q=", employee, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(body))

	resp = api.do(t, http.MethodGet, "/api/tasks/"+uuid.NewString(), manager, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = api.do(t, http.MethodGet, "/api/tasks/not-a-uuid", manager, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = api.do(t, http.MethodGet, "/api/tasks/?status=archived", manager, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = api.do(t, http.MethodPatch, "/api/tasks/"+task.ID.String(), manager, map[string]any{"type": "personnel"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var errResp dto.ErrorResponse
	decode(t, resp, &errResp)
	assert.Equal(t, "department_id", errResp.Field)
}

func TestAttachments_UploadAndDownload(t *testing.T) {
	api := setupTestAPI(t)
	dept := api.department(t, "Ops")
	manager := api.register(t, "mgr", "MANAGER", &dept)
	outsider := api.register(t, "outsider", "", nil)

	resp := api.do(t, http.MethodPost, "/api/tasks/", manager, dto.CreateTaskRequest{Type: "service", Title: "t", DepartmentID: &dept})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var task dto.TaskResponse
	decode(t, resp, &task)

	content := []byte("%PDF-1.4 quarterly report")
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("file", "report.pdf")
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, form.WriteField("related_to", "task"))
	require.NoError(t, form.WriteField("related_id", task.ID.String()))
	require.NoError(t, form.Close())

	req, err := http.NewRequest(http.MethodPost, api.server.URL+"/api/attachments/upload/", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+manager)
	upload, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer upload.Body.Close()
	require.Equal(t, http.StatusCreated, upload.StatusCode)

	var attachment dto.AttachmentResponse
	decode(t, upload, &attachment)
	sum := sha256.Sum256(content)
	assert.Equal(t, hex.EncodeToString(sum[:]), attachment.Checksum)
	assert.Equal(t, "application/pdf", attachment.MimeType)
	require.NotNil(t, attachment.RelatedTo)
	assert.Equal(t, "task", *attachment.RelatedTo)

	resp = api.do(t, http.MethodGet, "/api/attachments/"+attachment.ID.String()+"/download", manager, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "report.pdf")
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, content, body)

	resp = api.do(t, http.MethodGet, "/api/attachments/"+attachment.ID.String()+"/download", outsider, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAnalytics_EmployeeForbidden(t *testing.T) {
	api := setupTestAPI(t)
	dept := api.department(t, "Ops")
	employee := api.register(t, "emp", "", &dept)
	manager := api.register(t, "mgr", "MANAGER", &dept)

	resp := api.do(t, http.MethodGet, "/api/analytics/", employee, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = api.do(t, http.MethodGet, "/api/analytics/", manager, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var analytics dto.AnalyticsResponse
	decode(t, resp, &analytics)
	require.Len(t, analytics.Departments, 1)
	assert.Equal(t, "Ops", analytics.Departments[0].Name)

	resp = api.do(t, http.MethodGet, "/api/calendar/events/?start=2026-01-01&end=2025-01-01", manager, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = api.do(t, http.MethodGet, "/api/calendar/events/?types=meeting", manager, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
