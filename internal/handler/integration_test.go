package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AadeshhhGavhane/c3/internal/crypto"
	"github.com/AadeshhhGavhane/c3/internal/handler"
	"github.com/AadeshhhGavhane/c3/internal/repository/memory"
	"github.com/AadeshhhGavhane/c3/internal/service"
)

const testSecret = "integration-test-secret"

var testHashParams = crypto.HashParams{Memory: crypto.MinHashMemoryKiB, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

type captureNotifier struct {
	mu    sync.Mutex
	codes map[string]string
}

func (n *captureNotifier) SendCode(_ context.Context, email, code string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.codes[email] = code
	return nil
}

func (n *captureNotifier) code(email string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.codes[email]
}

type testServer struct {
	*httptest.Server
	users    *memory.UserRepository
	otps     *memory.OTPRepository
	notifier *captureNotifier
	now      time.Time
	mu       sync.Mutex
}

func (s *testServer) clock() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

func (s *testServer) advance(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = s.now.Add(d)
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{
		users:    memory.NewUserRepository(),
		otps:     memory.NewOTPRepository(),
		notifier: &captureNotifier{codes: make(map[string]string)},
		now:      time.Now(),
	}

	svc := service.NewAuthService(ts.users, ts.otps, ts.notifier, service.AuthConfig{
		JWTSecret:  testSecret,
		JWTExpiry:  time.Hour,
		OTPExpiry:  10 * time.Minute,
		HashParams: testHashParams,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:        ts.clock,
	})

	ts.Server = httptest.NewServer(handler.NewRouter(handler.RouterConfig{
		Auth:           handler.NewAuthHandler(svc),
		Users:          ts.users,
		JWTSecret:      testSecret,
		AllowedOrigins: "*",
		RateLimitRPS:   1000,
		RateLimitBurst: 1000,
	}))
	t.Cleanup(ts.Close)
	return ts
}

type response struct {
	Status  int
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

func (s *testServer) do(t *testing.T, method, path string, body any, token string) response {
	t.Helper()

	var buf io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		buf = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		buf = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, s.URL+path, buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := response{Status: resp.StatusCode}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func (s *testServer) post(t *testing.T, path string, body any) response {
	t.Helper()
	return s.do(t, http.MethodPost, path, body, "")
}

type userData struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

type signInData struct {
	Token string   `json:"token"`
	User  userData `json:"user"`
}

func decodeData[T any](t *testing.T, r response) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(r.Data, &v))
	return v
}

func signUpBody(email, password string) map[string]string {
	return map[string]string{"name": "Jane Doe", "email": email, "password": password, "confirmPassword": password}
}

func TestIntegration_SignUpVerifySignIn(t *testing.T) {
	s := newTestServer(t)

	// 1. Sign up with a mixed-case email.
	resp := s.post(t, "/api/auth/signup", signUpBody("JANE@X.com", "secret1"))
	require.Equal(t, http.StatusCreated, resp.Status, resp.Error)
	assert.True(t, resp.Success)
	created := decodeData[userData](t, resp)
	assert.Equal(t, "jane@x.com", created.Email)
	assert.Equal(t, "Jane Doe", created.Name)
	assert.NotContains(t, string(resp.Data), "password")

	stored, err := s.users.GetByEmail(context.Background(), "jane@x.com")
	require.NoError(t, err)
	assert.False(t, stored.IsVerified)

	// 2. Sign in before verification is forbidden.
	resp = s.post(t, "/api/auth/signin", map[string]string{"email": "jane@x.com", "password": "secret1"})
	assert.Equal(t, http.StatusForbidden, resp.Status)
	assert.Equal(t, "Please verify your email with OTP first", resp.Error)

	// 3. Verify with the emailed code.
	code := s.notifier.code("jane@x.com")
	require.Len(t, code, 4)
	resp = s.post(t, "/api/auth/verify-otp", map[string]string{"email": "jane@x.com", "otp": code})
	require.Equal(t, http.StatusOK, resp.Status, resp.Error)
	assert.Equal(t, created, decodeData[userData](t, resp))

	stored, err = s.users.GetByEmail(context.Background(), "jane@x.com")
	require.NoError(t, err)
	assert.True(t, stored.IsVerified)

	// 4. The code cannot be replayed.
	resp = s.post(t, "/api/auth/verify-otp", map[string]string{"email": "jane@x.com", "otp": code})
	assert.Equal(t, http.StatusBadRequest, resp.Status)
	assert.Equal(t, "Invalid OTP", resp.Error)

	// 5. Sign in.
	resp = s.post(t, "/api/auth/signin", map[string]string{"email": "Jane@X.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, resp.Status, resp.Error)
	session := decodeData[signInData](t, resp)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, created, session.User)

	// 6. Wrong password and unknown email look identical.
	wrong := s.post(t, "/api/auth/signin", map[string]string{"email": "jane@x.com", "password": "wrong-pass"})
	unknown := s.post(t, "/api/auth/signin", map[string]string{"email": "nobody@x.com", "password": "secret1"})
	assert.Equal(t, http.StatusUnauthorized, wrong.Status)
	assert.Equal(t, wrong, unknown)
	assert.Equal(t, "Invalid email or password", wrong.Error)

	// 7. The token opens the gated route.
	resp = s.do(t, http.MethodGet, "/api/auth/me", nil, session.Token)
	require.Equal(t, http.StatusOK, resp.Status, resp.Error)
	assert.Equal(t, created, decodeData[userData](t, resp))
}

func TestIntegration_DuplicateSignUp(t *testing.T) {
	s := newTestServer(t)

	resp := s.post(t, "/api/auth/signup", signUpBody("jane@x.com", "secret1"))
	require.Equal(t, http.StatusCreated, resp.Status)
	firstCode := s.notifier.code("jane@x.com")

	resp = s.post(t, "/api/auth/signup", signUpBody("JANE@x.COM", "secret2"))
	assert.Equal(t, http.StatusConflict, resp.Status)
	assert.False(t, resp.Success)
	assert.Equal(t, "User with this email already exists", resp.Error)

	assert.Equal(t, 1, s.otps.Count("jane@x.com"))
	assert.Equal(t, firstCode, s.notifier.code("jane@x.com"))
}

func TestIntegration_ValidationRejectsBeforeStore(t *testing.T) {
	s := newTestServer(t)

	body := signUpBody("jane@x.com", "secret1")
	body["confirmPassword"] = "secret2"
	resp := s.post(t, "/api/auth/signup", body)

	assert.Equal(t, http.StatusBadRequest, resp.Status)
	assert.Equal(t, "confirmPassword: Passwords don't match", resp.Error)
	_, err := s.users.GetByEmail(context.Background(), "jane@x.com")
	assert.Error(t, err, "no user should be created")

	resp = s.post(t, "/api/auth/verify-otp", map[string]string{"email": "jane@x.com", "otp": "12"})
	assert.Equal(t, http.StatusBadRequest, resp.Status)
	assert.Equal(t, "otp: OTP must be exactly 4 digits", resp.Error)

	resp = s.post(t, "/api/auth/signin", `{"email":`)
	assert.Equal(t, http.StatusBadRequest, resp.Status)
	assert.Equal(t, "Invalid request body", resp.Error)
}

func TestIntegration_SendOTP(t *testing.T) {
	s := newTestServer(t)

	resp := s.post(t, "/api/auth/send-otp", map[string]string{"email": "nobody@x.com"})
	assert.Equal(t, http.StatusNotFound, resp.Status)
	assert.Equal(t, "User not found", resp.Error)

	require.Equal(t, http.StatusCreated, s.post(t, "/api/auth/signup", signUpBody("jane@x.com", "secret1")).Status)

	resp = s.post(t, "/api/auth/send-otp", map[string]string{"email": "jane@x.com"})
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "OTP sent to email successfully", resp.Message)
	assert.Nil(t, resp.Data, "the code must never be returned")
	assert.Equal(t, 1, s.otps.Count("jane@x.com"))
}

func TestIntegration_ExpiredOTP(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusCreated, s.post(t, "/api/auth/signup", signUpBody("jane@x.com", "secret1")).Status)
	code := s.notifier.code("jane@x.com")

	s.advance(11 * time.Minute)

	resp := s.post(t, "/api/auth/verify-otp", map[string]string{"email": "jane@x.com", "otp": code})
	assert.Equal(t, http.StatusBadRequest, resp.Status)
	assert.Equal(t, "OTP has expired", resp.Error)
	assert.Equal(t, 0, s.otps.Count("jane@x.com"))
}

func TestIntegration_ForgotAndResetPassword(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusCreated, s.post(t, "/api/auth/signup", signUpBody("jane@x.com", "secret1")).Status)
	require.Equal(t, http.StatusOK, s.post(t, "/api/auth/verify-otp", map[string]string{
		"email": "jane@x.com", "otp": s.notifier.code("jane@x.com"),
	}).Status)

	known := s.post(t, "/api/auth/forgot-password", map[string]string{"email": "jane@x.com"})
	unknown := s.post(t, "/api/auth/forgot-password", map[string]string{"email": "nobody@x.com"})
	assert.Equal(t, http.StatusOK, known.Status)
	assert.Equal(t, known, unknown, "responses must not reveal registration")
	assert.Equal(t, "If the email exists, a password reset OTP has been sent.", known.Message)

	resp := s.post(t, "/api/auth/reset-password", map[string]string{
		"email": "jane@x.com", "otp": s.notifier.code("jane@x.com"), "newPassword": "newsecret",
	})
	require.Equal(t, http.StatusOK, resp.Status, resp.Error)
	assert.Equal(t, "Password reset successfully", resp.Message)

	resp = s.post(t, "/api/auth/signin", map[string]string{"email": "jane@x.com", "password": "secret1"})
	assert.Equal(t, http.StatusUnauthorized, resp.Status)
	resp = s.post(t, "/api/auth/signin", map[string]string{"email": "jane@x.com", "password": "newsecret"})
	assert.Equal(t, http.StatusOK, resp.Status)
}

func TestIntegration_LongPasswords(t *testing.T) {
	s := newTestServer(t)
	long := strings.Repeat("a", 100)

	resp := s.post(t, "/api/auth/signup", signUpBody("jane@x.com", long))
	require.Equal(t, http.StatusCreated, resp.Status, resp.Error)
	require.Equal(t, http.StatusOK, s.post(t, "/api/auth/verify-otp", map[string]string{
		"email": "jane@x.com", "otp": s.notifier.code("jane@x.com"),
	}).Status)

	resp = s.post(t, "/api/auth/signin", map[string]string{"email": "jane@x.com", "password": long})
	require.Equal(t, http.StatusOK, resp.Status, resp.Error)

	require.Equal(t, http.StatusOK, s.post(t, "/api/auth/forgot-password", map[string]string{"email": "jane@x.com"}).Status)
	newLong := strings.Repeat("b", 100)
	resp = s.post(t, "/api/auth/reset-password", map[string]string{
		"email": "jane@x.com", "otp": s.notifier.code("jane@x.com"), "newPassword": newLong,
	})
	require.Equal(t, http.StatusOK, resp.Status, resp.Error)

	resp = s.post(t, "/api/auth/signin", map[string]string{"email": "jane@x.com", "password": newLong})
	assert.Equal(t, http.StatusOK, resp.Status, resp.Error)

	resp = s.post(t, "/api/auth/signup", signUpBody("john@x.com", strings.Repeat("a", 101)))
	assert.Equal(t, http.StatusBadRequest, resp.Status)
}

func TestIntegration_SignUpTrimsNameBeforeValidation(t *testing.T) {
	s := newTestServer(t)

	body := signUpBody("jane@x.com", "secret1")
	body["name"] = "  J"
	resp := s.post(t, "/api/auth/signup", body)
	assert.Equal(t, http.StatusBadRequest, resp.Status)
	assert.Equal(t, "name: Name must be at least 2 characters", resp.Error)

	body["name"] = "Jane\tDoe"
	resp = s.post(t, "/api/auth/signup", body)
	assert.Equal(t, http.StatusBadRequest, resp.Status)
	assert.Equal(t, "name: Name can only contain letters and spaces", resp.Error)

	_, err := s.users.GetByEmail(context.Background(), "jane@x.com")
	assert.Error(t, err, "no user should be created")

	body["name"] = "  Jane Doe  "
	resp = s.post(t, "/api/auth/signup", body)
	require.Equal(t, http.StatusCreated, resp.Status, resp.Error)
	assert.Equal(t, "Jane Doe", decodeData[userData](t, resp).Name)
}

func TestIntegration_ResetWithExpiredCodeKeepsPassword(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusCreated, s.post(t, "/api/auth/signup", signUpBody("jane@x.com", "secret1")).Status)
	require.Equal(t, http.StatusOK, s.post(t, "/api/auth/verify-otp", map[string]string{
		"email": "jane@x.com", "otp": s.notifier.code("jane@x.com"),
	}).Status)
	require.Equal(t, http.StatusOK, s.post(t, "/api/auth/forgot-password", map[string]string{"email": "jane@x.com"}).Status)
	code := s.notifier.code("jane@x.com")

	s.advance(10*time.Minute + time.Second)

	resp := s.post(t, "/api/auth/reset-password", map[string]string{
		"email": "jane@x.com", "otp": code, "newPassword": "newsecret",
	})
	assert.Equal(t, http.StatusBadRequest, resp.Status)
	assert.Equal(t, "OTP has expired", resp.Error)

	resp = s.post(t, "/api/auth/signin", map[string]string{"email": "jane@x.com", "password": "secret1"})
	assert.Equal(t, http.StatusOK, resp.Status)

	resp = s.post(t, "/api/auth/reset-password", map[string]string{
		"email": "jane@x.com", "otp": "1234", "newPassword": "newsecret",
	})
	assert.Equal(t, http.StatusBadRequest, resp.Status)
	assert.Equal(t, "Invalid or expired OTP", resp.Error)
}

func TestIntegration_GateRejectsDeletedUser(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusCreated, s.post(t, "/api/auth/signup", signUpBody("jane@x.com", "secret1")).Status)
	require.Equal(t, http.StatusOK, s.post(t, "/api/auth/verify-otp", map[string]string{
		"email": "jane@x.com", "otp": s.notifier.code("jane@x.com"),
	}).Status)
	session := decodeData[signInData](t, s.post(t, "/api/auth/signin", map[string]string{"email": "jane@x.com", "password": "secret1"}))

	resp := s.do(t, http.MethodGet, "/api/auth/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.Status)

	require.NoError(t, s.users.Delete(context.Background(), session.User.UserID))

	resp = s.do(t, http.MethodGet, "/api/auth/me", nil, session.Token)
	assert.Equal(t, http.StatusUnauthorized, resp.Status)
	assert.False(t, resp.Success)
}

func TestIntegration_HealthAndUnknownRoutes(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.True(t, resp.Success)
	assert.Equal(t, "Server is running", resp.Message)

	resp = s.do(t, http.MethodGet, "/api/auth/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, resp.Status)
	assert.Equal(t, "Route not found", resp.Error)

	resp = s.do(t, http.MethodGet, "/api/auth/signup", nil, "")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.Status)
}

func TestIntegration_BodyTooLarge(t *testing.T) {
	s := newTestServer(t)

	big := `{"email":"` + strings.Repeat("a", 2<<20) + `@x.com"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/forgot-password", strings.NewReader(big))
	rec := httptest.NewRecorder()
	s.Config.Handler.ServeHTTP(rec, req)

	var resp response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "Request body too large", resp.Error)
}

func TestIntegration_RateLimit(t *testing.T) {
	svc := service.NewAuthService(memory.NewUserRepository(), memory.NewOTPRepository(), &captureNotifier{codes: map[string]string{}}, service.AuthConfig{
		JWTSecret:  testSecret,
		HashParams: testHashParams,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	srv := httptest.NewServer(handler.NewRouter(handler.RouterConfig{
		Auth:           handler.NewAuthHandler(svc),
		Users:          memory.NewUserRepository(),
		JWTSecret:      testSecret,
		AllowedOrigins: "*",
		RateLimitRPS:   0.001,
		RateLimitBurst: 2,
	}))
	defer srv.Close()
	s := &testServer{Server: srv}

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, s.post(t, "/api/auth/forgot-password", map[string]string{"email": "a@x.com"}).Status)
	}
	resp := s.post(t, "/api/auth/forgot-password", map[string]string{"email": "a@x.com"})
	assert.Equal(t, http.StatusTooManyRequests, resp.Status)
	assert.Equal(t, "Too many requests", resp.Error)

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/health", nil, "").Status, "health is not rate limited")
}
