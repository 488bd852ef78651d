package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"

	"github.com/ezparkk/site-api/internal/dtos"
	"github.com/ezparkk/site-api/internal/metrics"
	"github.com/ezparkk/site-api/internal/middleware"
	"github.com/ezparkk/site-api/internal/models"
	"github.com/ezparkk/site-api/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type memRepo struct {
	mu           sync.Mutex
	emails       map[string]bool
	applications []models.JobApplication
	createErr    error
}

func (r *memRepo) WaitlistEmailExists(_ context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.emails[email], nil
}

func (r *memRepo) CreateWaitlistEntry(_ context.Context, entry *models.WaitlistEntry) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.emails == nil {
		r.emails = map[string]bool{}
	}
	r.emails[entry.Email] = true
	return fmt.Sprintf("wl-%d", len(r.emails)), nil
}

func (r *memRepo) CreateJobApplication(_ context.Context, app *models.JobApplication) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return "", r.createErr
	}
	r.applications = append(r.applications, *app)
	return fmt.Sprintf("app-%d", len(r.applications)), nil
}

type memBlobs struct {
	mu   sync.Mutex
	keys []string
}

func (b *memBlobs) Upload(_ context.Context, key string, _ []byte, _ string, _ map[string]string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.keys = append(b.keys, key)
	return nil
}

func (b *memBlobs) DownloadURL(_ context.Context, key string) (string, error) {
	return "https://blobs.test/" + key, nil
}

type testServer struct {
	router *gin.Engine
	repo   *memRepo
	blobs  *memBlobs
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newLimitedTestServer(t, nil)
}

func newLimitedTestServer(t *testing.T, limiter *middleware.RateLimiter) *testServer {
	t.Helper()
	repo := &memRepo{}
	blobs := &memBlobs{}
	logger := zap.NewNop()
	m := metrics.New()

	submissions := services.NewSubmissionService(repo, blobs, logger, m)
	roles := services.NewRoleService(services.OpenRoles)
	router, err := NewRouter(
		RouterConfig{Logger: logger, Metrics: m, RateLimiter: limiter},
		NewSubmissionHandler(submissions, roles, logger),
		NewRoleHandler(roles),
	)
	require.NoError(t, err)
	return &testServer{router: router, repo: repo, blobs: blobs}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func jsonRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	return req
}

type formFile struct {
	field, name, contentType string
	content                  []byte
}

func multipartRequest(t *testing.T, path string, fields map[string]string, file *formFile) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if file != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, file.field, file.name))
		h.Set("Content-Type", file.contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(file.content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) dtos.ErrorResponse {
	t.Helper()
	var resp dtos.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestJoinWaitlist(t *testing.T) {
	s := newTestServer(t)
	body := dtos.WaitlistRequest{Name: "Ada", Email: "ada@example.com", Role: "driver", Message: "hi"}

	rec := s.do(jsonRequest(t, http.MethodPost, "/api/v1/waitlist", body))
	require.Equal(t, http.StatusCreated, rec.Code)
	var created dtos.IDResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)

	rec = s.do(jsonRequest(t, http.MethodPost, "/api/v1/waitlist", body))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, string(services.KindDuplicateEntry), decodeError(t, rec).Code)
}

func TestJoinWaitlistRejectsBadBody(t *testing.T) {
	s := newTestServer(t)
	body := dtos.WaitlistRequest{Name: "Ada", Email: "not-an-email", Role: "driver", Message: "hi"}

	rec := s.do(jsonRequest(t, http.MethodPost, "/api/v1/waitlist", body))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "InvalidRequest", decodeError(t, rec).Code)
}

func TestSubmitApplication(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(jsonRequest(t, http.MethodPost, "/api/v1/applications", map[string]string{
		"name": "Ada", "email": "ada@example.com", "role": "marketing-intern",
	}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(services.KindMissingFields), decodeError(t, rec).Code)

	rec = s.do(jsonRequest(t, http.MethodPost, "/api/v1/applications", map[string]string{
		"name": " Ada ", "email": "ada@example.com", "role": "marketing-intern", "coverLetter": "Hello",
	}))
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, s.repo.applications, 1)
	assert.Equal(t, "Ada", s.repo.applications[0].Name)
}

func TestUploadResume(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(multipartRequest(t, "/api/v1/resumes",
		map[string]string{"email": "ada@example.com"},
		&formFile{field: "file", name: "cv.pdf", contentType: "application/pdf", content: []byte("%PDF-1.4")},
	))

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp dtos.URLResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, s.blobs.keys, 1)
	assert.Equal(t, "https://blobs.test/"+s.blobs.keys[0], resp.URL)
	assert.True(t, strings.HasPrefix(s.blobs.keys[0], "resumes/"))
	assert.True(t, strings.HasSuffix(s.blobs.keys[0], "_ada_example_com_cv.pdf"))
}

func TestUploadResumeRejections(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]string
		file   *formFile
		status int
		code   string
	}{
		{
			name:   "missing email",
			fields: map[string]string{},
			file:   &formFile{field: "file", name: "cv.pdf", contentType: "application/pdf", content: []byte("%PDF")},
			status: http.StatusBadRequest,
			code:   string(services.KindMissingFields),
		},
		{
			name:   "unsupported type",
			fields: map[string]string{"email": "ada@example.com"},
			file:   &formFile{field: "file", name: "cv.png", contentType: "image/png", content: []byte("png")},
			status: http.StatusUnsupportedMediaType,
			code:   string(services.KindUnsupportedFileType),
		},
		{
			name:   "too large",
			fields: map[string]string{"email": "ada@example.com"},
			file: &formFile{field: "file", name: "cv.pdf", contentType: "application/pdf",
				content: bytes.Repeat([]byte("a"), services.MaxResumeSize+1)},
			status: http.StatusRequestEntityTooLarge,
			code:   string(services.KindFileTooLarge),
		},
		{
			name:   "empty file",
			fields: map[string]string{"email": "ada@example.com"},
			file:   &formFile{field: "file", name: "cv.pdf", contentType: "application/pdf"},
			status: http.StatusBadRequest,
			code:   string(services.KindInvalidFile),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			rec := s.do(multipartRequest(t, "/api/v1/resumes", tt.fields, tt.file))

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decodeError(t, rec).Code)
			assert.Empty(t, s.blobs.keys)
		})
	}
}

func TestApplyForRole(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(multipartRequest(t, "/api/v1/careers/Marketing-Intern/apply",
		map[string]string{"name": "Ada", "email": "ada@example.com", "coverLetter": "Hi", "role": "ignored"},
		&formFile{field: "resume", name: "cv.pdf", contentType: "application/pdf", content: []byte("%PDF-1.4")},
	))

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, s.repo.applications, 1)
	app := s.repo.applications[0]
	assert.Equal(t, "marketing-intern", app.Role)
	require.Len(t, s.blobs.keys, 1)
	assert.Equal(t, "https://blobs.test/"+s.blobs.keys[0], app.Resume)
}

func TestApplyForRoleUnknownRole(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(multipartRequest(t, "/api/v1/careers/astronaut/apply",
		map[string]string{"name": "Ada", "email": "ada@example.com", "coverLetter": "Hi"}, nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "RoleNotFound", decodeError(t, rec).Code)
}

func TestApplyForRoleValidatesBeforeUpload(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(multipartRequest(t, "/api/v1/careers/marketing-intern/apply",
		map[string]string{"name": "Ada", "email": "nope", "coverLetter": "Hi"},
		&formFile{field: "resume", name: "cv.pdf", contentType: "application/pdf", content: []byte("%PDF")},
	))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(services.KindInvalidEmail), decodeError(t, rec).Code)
	assert.Empty(t, s.blobs.keys)
}

func TestApplyForRoleReportsOrphanedBlob(t *testing.T) {
	s := newTestServer(t)
	s.repo.createErr = &services.SubmissionError{Kind: services.KindServiceUnavailable, Message: "down"}

	rec := s.do(multipartRequest(t, "/api/v1/careers/operations-intern/apply",
		map[string]string{"name": "Ada", "email": "ada@example.com", "coverLetter": "Hi"},
		&formFile{field: "resume", name: "cv.pdf", contentType: "application/pdf", content: []byte("%PDF")},
	))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, string(services.KindServiceUnavailable), resp.Code)
	require.Len(t, s.blobs.keys, 1)
	assert.Equal(t, s.blobs.keys[0], resp.BlobKey)
}

func TestRoles(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/v1/roles", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var roles []models.Role
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &roles))
	assert.Len(t, roles, len(services.OpenRoles))

	rec = s.do(httptest.NewRequest(http.MethodGet, "/api/v1/roles/operations-intern", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var role models.Role
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &role))
	assert.Equal(t, "Operations Intern", role.Title)

	rec = s.do(httptest.NewRequest(http.MethodGet, "/api/v1/roles/astronaut", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.do(httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	rec := s.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ezparkk_http_requests_total")
}

func TestStatusForKind(t *testing.T) {
	tests := map[services.ErrorKind]int{
		services.KindMissingFields:       http.StatusBadRequest,
		services.KindDuplicateEntry:      http.StatusConflict,
		services.KindFileTooLarge:        http.StatusRequestEntityTooLarge,
		services.KindUnsupportedFileType: http.StatusUnsupportedMediaType,
		services.KindPermissionDenied:    http.StatusForbidden,
		services.KindAuthRequired:        http.StatusUnauthorized,
		services.KindQuotaExceeded:       http.StatusTooManyRequests,
		services.KindServiceUnavailable:  http.StatusServiceUnavailable,
		services.KindSubmissionTimeout:   http.StatusGatewayTimeout,
		services.KindConfigurationError:  http.StatusInternalServerError,
		services.KindUploadFailed:        http.StatusBadGateway,
		services.KindSubmissionFailed:    http.StatusBadGateway,
	}
	for kind, want := range tests {
		assert.Equal(t, want, StatusForKind(kind), string(kind))
	}
}

func TestRateLimitIgnoresForwardedForFromUntrustedPeer(t *testing.T) {
	s := newLimitedTestServer(t, middleware.NewRateLimiter(0.001, 1))

	var statuses []int
	for i := 0; i < 3; i++ {
		req := jsonRequest(t, http.MethodPost, "/api/v1/waitlist", dtos.WaitlistRequest{
			Name: "Ada", Email: fmt.Sprintf("ada%d@example.com", i), Role: "driver", Message: "hi",
		})
		req.RemoteAddr = "9.9.9.9:4000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i+1))
		statuses = append(statuses, s.do(req).Code)
	}

	assert.Equal(t, []int{http.StatusCreated, http.StatusTooManyRequests, http.StatusTooManyRequests}, statuses)
}

func TestNewRouterRejectsBadTrustedProxy(t *testing.T) {
	_, err := NewRouter(RouterConfig{Logger: zap.NewNop(), TrustedProxies: []string{"not-an-ip"}}, nil, nil)
	assert.Error(t, err)
}
