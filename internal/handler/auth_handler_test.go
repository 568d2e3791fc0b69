package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Raymond16-cyber/aura-backend/internal/handler"
	"github.com/Raymond16-cyber/aura-backend/internal/model"
	"github.com/Raymond16-cyber/aura-backend/internal/service"
)

// mockAuthService implements service.AuthService for handler tests.
type mockAuthService struct {
	registerResult *service.RegisterResult
	registerErr    error

	verifyErr error

	loginResult *service.LoginResult
	loginErr    error

	forgotResult *service.ForgotPasswordResult
	forgotErr    error

	resetErr error
}

func (m *mockAuthService) Register(ctx context.Context, in service.RegisterInput) (*service.RegisterResult, error) {
	if m.registerErr != nil {
		return nil, m.registerErr
	}
	return m.registerResult, nil
}

func (m *mockAuthService) VerifyEmail(ctx context.Context, tok string) error {
	return m.verifyErr
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*service.LoginResult, error) {
	if m.loginErr != nil {
		return nil, m.loginErr
	}
	return m.loginResult, nil
}

func (m *mockAuthService) ForgotPassword(ctx context.Context, email string) (*service.ForgotPasswordResult, error) {
	if m.forgotErr != nil {
		return nil, m.forgotErr
	}
	return m.forgotResult, nil
}

func (m *mockAuthService) ResetPassword(ctx context.Context, tok, pw string) error {
	return m.resetErr
}

func doJSON(h echo.HandlerFunc, method, path, body string) (*httptest.ResponseRecorder, error) {
	e := echo.New()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return rec, h(c)
}

func testUser() *model.User {
	return &model.User{
		ID:    primitive.NewObjectID(),
		Name:  "Alice",
		Email: "alice@example.com",
	}
}

func TestAuthHandler_Register_Created(t *testing.T) {
	u := testUser()
	mockSvc := &mockAuthService{
		registerResult: &service.RegisterResult{User: u, EmailSent: true, VerifyURL: "/api/auth/verify-email/tok"},
	}
	h := handler.NewAuthHandler(mockSvc, false)

	rec, err := doJSON(h.Register, http.MethodPost, "/api/auth/register",
		`{"name":"Alice","email":"alice@example.com","password":"pw"}`)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, rec.Code)

	var body map[string]any
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "/api/auth/verify-email/tok", body["url"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "alice@example.com", user["email"])
}

func TestAuthHandler_Register_Conflict(t *testing.T) {
	mockSvc := &mockAuthService{registerErr: service.ErrEmailTaken}
	h := handler.NewAuthHandler(mockSvc, false)

	rec, err := doJSON(h.Register, http.MethodPost, "/api/auth/register",
		`{"name":"Alice","email":"alice@example.com","password":"pw"}`)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "already exists")
}

func TestAuthHandler_VerifyEmail(t *testing.T) {
	h := handler.NewAuthHandler(&mockAuthService{}, false)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/auth/verify-email/some-token", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("token")
	c.SetParamValues("some-token")

	assert.NoError(t, h.VerifyEmail(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthHandler_VerifyEmail_MissingToken(t *testing.T) {
	h := handler.NewAuthHandler(&mockAuthService{}, false)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/auth/verify-email/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	assert.NoError(t, h.VerifyEmail(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthHandler_Login_SetsCookie(t *testing.T) {
	mockSvc := &mockAuthService{
		loginResult: &service.LoginResult{Token: "session-jwt", User: testUser()},
	}
	h := handler.NewAuthHandler(mockSvc, false)

	rec, err := doJSON(h.Login, http.MethodPost, "/api/auth/login",
		`{"email":"alice@example.com","password":"pw"}`)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "session-jwt")

	cookies := rec.Result().Cookies()
	assert.Len(t, cookies, 1)
	cookie := cookies[0]
	assert.Equal(t, "token", cookie.Name)
	assert.Equal(t, "session-jwt", cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.False(t, cookie.Secure)
	assert.Equal(t, 7*24*3600, cookie.MaxAge)
}

func TestAuthHandler_Login_ProductionCookieFlags(t *testing.T) {
	mockSvc := &mockAuthService{
		loginResult: &service.LoginResult{Token: "session-jwt", User: testUser()},
	}
	h := handler.NewAuthHandler(mockSvc, true)

	rec, err := doJSON(h.Login, http.MethodPost, "/api/auth/login",
		`{"email":"alice@example.com","password":"pw"}`)
	assert.NoError(t, err)

	cookie := rec.Result().Cookies()[0]
	assert.True(t, cookie.Secure)
	assert.Equal(t, http.SameSiteNoneMode, cookie.SameSite)
}

func TestAuthHandler_Login_BadCredentials(t *testing.T) {
	mockSvc := &mockAuthService{loginErr: service.ErrInvalidCredentials}
	h := handler.NewAuthHandler(mockSvc, false)

	rec, err := doJSON(h.Login, http.MethodPost, "/api/auth/login",
		`{"email":"alice@example.com","password":"nope"}`)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
}

func TestAuthHandler_ForgotPassword(t *testing.T) {
	mockSvc := &mockAuthService{
		forgotResult: &service.ForgotPasswordResult{EmailSent: true, ResetURL: "/api/auth/reset-password"},
	}
	h := handler.NewAuthHandler(mockSvc, false)

	rec, err := doJSON(h.ForgotPassword, http.MethodPost, "/api/auth/forgot-password",
		`{"email":"alice@example.com"}`)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/api/auth/reset-password")
}

func TestAuthHandler_ForgotPassword_UnknownUser(t *testing.T) {
	mockSvc := &mockAuthService{forgotErr: service.ErrUserNotFound}
	h := handler.NewAuthHandler(mockSvc, false)

	rec, err := doJSON(h.ForgotPassword, http.MethodPost, "/api/auth/forgot-password",
		`{"email":"nobody@example.com"}`)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthHandler_ResetPassword(t *testing.T) {
	h := handler.NewAuthHandler(&mockAuthService{}, false)

	rec, err := doJSON(h.ResetPassword, http.MethodPost, "/api/auth/reset-password",
		`{"token":"tok","password":"newpass"}`)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthHandler_ResetPassword_Rejected(t *testing.T) {
	mockSvc := &mockAuthService{resetErr: service.ErrResetNotAllowed}
	h := handler.NewAuthHandler(mockSvc, false)

	rec, err := doJSON(h.ResetPassword, http.MethodPost, "/api/auth/reset-password",
		`{"token":"stale","password":"newpass"}`)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Unable to reset")
}
