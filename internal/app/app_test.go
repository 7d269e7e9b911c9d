package app

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	structValidator "github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/haguru/myblog/config"
	"github.com/haguru/myblog/internal/auth"
	"github.com/haguru/myblog/internal/interfaces/mocks"
	"github.com/haguru/myblog/internal/models"
	"github.com/haguru/myblog/internal/policy"
	"github.com/haguru/myblog/pkg/hasher"
)

func testConfig(t *testing.T, accessPolicy config.AccessPolicyConfig) *config.ServiceConfig {
	t.Helper()
	return &config.ServiceConfig{
		ServiceName:    "test",
		LogLevel:       "error",
		Host:           "127.0.0.1",
		Port:           "0",
		PrivateKeyPath: filepath.Join(t.TempDir(), "keys", "session.pem"),
		SessionTTL:     15 * time.Minute,
		BcryptCost:     4,
		Database:       config.Database{Type: config.DatabaseTypePostgres},
		AccessPolicy:   accessPolicy,
	}
}

func blogAccessPolicy() config.AccessPolicyConfig {
	return config.AccessPolicyConfig{
		Rules: []config.RuleConfig{
			{Pattern: "/auth/register", Access: policy.PermitAll},
			{Pattern: "/healthz", Access: policy.PermitAll},
			{Pattern: "/metrics", Access: policy.PermitAll},
			{Pattern: "/**", Access: policy.Authenticated},
		},
	}
}

func tistoryAccessPolicy() config.AccessPolicyConfig {
	return config.AccessPolicyConfig{
		AdminUsers: []string{"admin"},
		Rules: []config.RuleConfig{
			{Pattern: "/", Access: policy.PermitAll},
			{Pattern: "/login", Access: policy.PermitAll},
			{Pattern: "/admin", Access: policy.HasAnyRole, Roles: []string{auth.RoleAdmin}},
			{Pattern: "/my/**", Access: policy.HasAnyRole, Roles: []string{auth.RoleAdmin, auth.RoleUser}},
			{Pattern: "/**", Access: policy.Authenticated},
		},
		FormLogin: &config.FormLoginConfig{
			LoginPage:         "/login",
			ProcessingURL:     "/loginProcess",
			DefaultSuccessURL: "/",
		},
	}
}

func newTestApp(t *testing.T, cfg *config.ServiceConfig, mount func(app *App) error) (*App, *mocks.MockUserRepository) {
	t.Helper()
	repo := mocks.NewMockUserRepository(t)
	app, err := newApp(cfg, repo, structValidator.New())
	require.NoError(t, err)
	require.NoError(t, mount(app))
	return app, repo
}

func serve(app *App, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	app.Server.Handler().ServeHTTP(rec, req)
	return rec
}

func registerRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestBlogApp_Register(t *testing.T) {
	app, repo := newTestApp(t, testConfig(t, blogAccessPolicy()), mountBlog)

	repo.On("ExistsByUsername", mock.Anything, "testuser").Return(false, nil).Once()
	repo.On("ExistsByEmail", mock.Anything, "testuser@example.com").Return(false, nil).Once()
	repo.On("Save", mock.Anything, mock.AnythingOfType("models.User")).
		Return(&models.User{ID: 1, Username: "testuser", Email: "testuser@example.com"}, nil).Once()

	rec := serve(app, registerRequest(`{"username":"testuser","email":"testuser@example.com","password":"password123"}`))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"message":"User registered successfully!"}`, rec.Body.String())

	repo.On("ExistsByUsername", mock.Anything, "testuser").Return(true, nil).Once()

	rec = serve(app, registerRequest(`{"username":"testuser","email":"other@example.com","password":"password123"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Username is already in use"}`, rec.Body.String())

	rec = serve(app, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "test_register_success_total 1")
	assert.Contains(t, rec.Body.String(), `test_register_rejected_total{reason="conflict"} 1`)
}

func TestBlogApp_Authorization(t *testing.T) {
	app, repo := newTestApp(t, testConfig(t, blogAccessPolicy()), mountBlog)

	rec := serve(app, httptest.NewRequest(http.MethodGet, "/posts", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"unauthorized"}`, rec.Body.String())

	token, err := auth.CreateToken("testuser", app.Config.ServiceName, app.privateKey, time.Minute)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/posts", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = serve(app, req)
	// past the policy; nothing is mounted there
	assert.Equal(t, http.StatusNotFound, rec.Code)

	repo.On("Ping", mock.Anything).Return(nil).Once()
	rec = serve(app, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBlogApp_RateLimit(t *testing.T) {
	cfg := testConfig(t, blogAccessPolicy())
	cfg.RateLimit = config.RateLimitConfig{RequestsPerSecond: 0.001, Burst: 1}
	app, _ := newTestApp(t, cfg, mountBlog)

	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader("x"))
	req.Header.Set("Content-Type", "text/plain")
	rec := serve(app, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader("x"))
	req.Header.Set("Content-Type", "text/plain")
	rec = serve(app, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestBlogApp_DuplicateMount(t *testing.T) {
	app, _ := newTestApp(t, testConfig(t, blogAccessPolicy()), mountBlog)
	assert.ErrorContains(t, mountBlog(app), ErrFailedToAddRoute)
}

func TestTistoryApp_FormLogin(t *testing.T) {
	app, repo := newTestApp(t, testConfig(t, tistoryAccessPolicy()), mountTistory)

	bcryptHasher, err := hasher.NewBcryptHasher(4)
	require.NoError(t, err)
	hashed, err := bcryptHasher.Hash("password123")
	require.NoError(t, err)
	repo.On("FindByUsername", mock.Anything, "testuser").
		Return(&models.User{ID: 1, Username: "testuser", Email: "testuser@example.com", Password: hashed}, nil)

	rec := serve(app, httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	rec = serve(app, httptest.NewRequest(http.MethodGet, "/login", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	login := func(password string) *httptest.ResponseRecorder {
		form := url.Values{"username": {"testuser"}, "password": {password}}
		req := httptest.NewRequest(http.MethodPost, "/loginProcess", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return serve(app, req)
	}

	rec = login("wrong")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login?error", rec.Header().Get("Location"))

	rec = login("password123")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	session := cookies[0]

	withSession := func(method, target string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, target, nil)
		req.AddCookie(session)
		return serve(app, req)
	}

	rec = withSession(http.MethodGet, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Welcome, testuser!")

	rec = withSession(http.MethodGet, "/admin")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":"forbidden"}`, rec.Body.String())

	rec = withSession(http.MethodGet, "/my/posts")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestApps_DoNotShareSessions(t *testing.T) {
	blogCfg := testConfig(t, blogAccessPolicy())
	blogCfg.ServiceName = "myblog"
	tistoryCfg := testConfig(t, tistoryAccessPolicy())
	tistoryCfg.ServiceName = "tistory"
	// same signing key, so only the audience keeps the two apart
	tistoryCfg.PrivateKeyPath = blogCfg.PrivateKeyPath

	blog, _ := newTestApp(t, blogCfg, mountBlog)
	tistory, repo := newTestApp(t, tistoryCfg, mountTistory)

	bcryptHasher, err := hasher.NewBcryptHasher(4)
	require.NoError(t, err)
	hashed, err := bcryptHasher.Hash("password123")
	require.NoError(t, err)
	repo.On("FindByUsername", mock.Anything, "testuser").
		Return(&models.User{ID: 1, Username: "testuser", Email: "testuser@example.com", Password: hashed}, nil).Once()

	form := url.Values{"username": {"testuser"}, "password": {"password123"}}
	req := httptest.NewRequest(http.MethodPost, "/loginProcess", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := serve(tistory, req)
	require.Equal(t, http.StatusFound, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)

	req = httptest.NewRequest(http.MethodGet, "/posts", nil)
	req.AddCookie(cookies[0])
	rec = serve(blog, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/posts", nil)
	req.Header.Set("Authorization", "Bearer "+cookies[0].Value)
	rec = serve(blog, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBlogApp_RegisterOverlongPassword(t *testing.T) {
	app, repo := newTestApp(t, testConfig(t, blogAccessPolicy()), mountBlog)
	repo.On("ExistsByUsername", mock.Anything, "testuser").Return(false, nil).Once()
	repo.On("ExistsByEmail", mock.Anything, "testuser@example.com").Return(false, nil).Once()

	body, err := json.Marshal(map[string]string{
		"username": "testuser",
		"email":    "testuser@example.com",
		"password": strings.Repeat("a", 73),
	})
	require.NoError(t, err)

	rec := serve(app, registerRequest(string(body)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Password cannot be longer than 72 bytes"}`, rec.Body.String())
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestTistoryApp_AdminRole(t *testing.T) {
	app, _ := newTestApp(t, testConfig(t, tistoryAccessPolicy()), mountTistory)

	token, err := auth.CreateToken("admin", app.Config.ServiceName, app.privateKey, time.Minute)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(&http.Cookie{Name: auth.SessionCookie, Value: token})

	rec := serve(app, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMountTistory_RequiresFormLogin(t *testing.T) {
	repo := mocks.NewMockUserRepository(t)
	app, err := newApp(testConfig(t, blogAccessPolicy()), repo, structValidator.New())
	require.NoError(t, err)

	assert.EqualError(t, mountTistory(app), ErrFormLoginRequired)
}

func TestNewApp_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(t *testing.T, cfg *config.ServiceConfig)
		wantErr string
	}{
		{
			name:    "bcrypt cost out of range",
			mutate:  func(t *testing.T, cfg *config.ServiceConfig) { cfg.BcryptCost = 40 },
			wantErr: ErrFailedToInitHasher,
		},
		{
			name: "malformed key file",
			mutate: func(t *testing.T, cfg *config.ServiceConfig) {
				require.NoError(t, os.MkdirAll(filepath.Dir(cfg.PrivateKeyPath), 0o700))
				require.NoError(t, os.WriteFile(cfg.PrivateKeyPath, []byte("not a key"), 0o600))
			},
			wantErr: ErrFailedToInitPrivateKey,
		},
		{
			name: "catch-all rule missing",
			mutate: func(t *testing.T, cfg *config.ServiceConfig) {
				cfg.AccessPolicy.Rules = cfg.AccessPolicy.Rules[:1]
			},
			wantErr: ErrFailedToInitPolicy,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t, blogAccessPolicy())
			tt.mutate(t, cfg)

			_, err := newApp(cfg, mocks.NewMockUserRepository(t), structValidator.New())
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestNewApp_PersistsGeneratedKey(t *testing.T) {
	cfg := testConfig(t, blogAccessPolicy())
	first, err := newApp(cfg, mocks.NewMockUserRepository(t), structValidator.New())
	require.NoError(t, err)
	second, err := newApp(cfg, mocks.NewMockUserRepository(t), structValidator.New())
	require.NoError(t, err)

	assert.True(t, first.privateKey.Equal(second.privateKey))
}

func TestLoadConfig(t *testing.T) {
	validator := structValidator.New()

	cfg, err := loadConfig("../../res/config.yaml", validator)
	require.NoError(t, err)
	assert.Equal(t, "myblog", cfg.ServiceName)

	blogKeyPath := cfg.PrivateKeyPath

	cfg, err = loadConfig("../../res/tistory.yaml", validator)
	require.NoError(t, err)
	assert.Equal(t, "tistory", cfg.ServiceName)
	assert.NotEqual(t, blogKeyPath, cfg.PrivateKeyPath)

	_, err = loadConfig(filepath.Join(t.TempDir(), "missing.yaml"), validator)
	assert.ErrorContains(t, err, ErrFailedToReadConfig)

	invalid := filepath.Join(t.TempDir(), "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("service_name: x\nloglevel: info\n"), 0o600))
	_, err = loadConfig(invalid, validator)
	assert.Error(t, err)
}

func TestInitializeDBClient_Unsupported(t *testing.T) {
	cfg := testConfig(t, blogAccessPolicy())
	cfg.Database.Type = "redis"

	_, err := initializeDBClient(t.Context(), cfg)
	assert.ErrorContains(t, err, ErrUnsupportedDatabaseType)

	cfg.Database.Type = config.DatabaseTypeMongo
	_, err = initializeDBClient(t.Context(), cfg)
	assert.ErrorContains(t, err, ErrMissingDatabaseSettings)
}

func TestNewBlogApp_MissingConfig(t *testing.T) {
	_, err := NewBlogApp(filepath.Join(t.TempDir(), "config.yaml"))
	assert.ErrorContains(t, err, ErrFailedToReadConfig)

	_, err = NewTistoryApp(filepath.Join(t.TempDir(), "tistory.yaml"))
	assert.ErrorContains(t, err, ErrFailedToReadConfig)
}

func TestApp_Shutdown(t *testing.T) {
	app, repo := newTestApp(t, testConfig(t, blogAccessPolicy()), mountBlog)
	repo.On("Close", mock.Anything).Return(errors.New("already closed")).Once()

	err := app.shutdown()
	assert.ErrorContains(t, err, ErrFailedToCloseUserRepo)
}

func TestHealth_DatabaseDown(t *testing.T) {
	app, repo := newTestApp(t, testConfig(t, blogAccessPolicy()), mountBlog)
	repo.On("Ping", mock.Anything).Return(errors.New("connection refused")).Once()

	rec := serve(app, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	body := map[string]string{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body["error"])
}
