package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/memstore"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"github.com/tabhome/tabhome/internal/api/models"
	"github.com/tabhome/tabhome/internal/database/mock"
)

type HandlerTestSuite struct {
	suite.Suite
	db     *mock.MockDB
	auth   *Authenticator
	router *gin.Engine
}

func (s *HandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.db = mock.NewMockDB()
	s.Require().NoError(EnsureAdmin(context.Background(), s.db, "admin", "admin123"))
	store := memstore.NewStore([]byte("test-secret"))
	s.auth = New(s.db, store, "test_session")

	s.router = gin.New()
	s.router.Use(sessions.Sessions("test_session", store))
	s.router.POST("/login", s.auth.Login)
	s.router.POST("/logout", s.auth.Logout)
	s.router.GET("/check-auth", s.auth.CheckAuth)

	protected := s.router.Group("/", s.auth.RequireAuth())
	protected.POST("/change-password", s.auth.ChangePassword)
	protected.GET("/whoami", func(c *gin.Context) {
		user, ok := CurrentUser(c)
		s.True(ok)
		c.String(http.StatusOK, user.Username)
	})
}

func (s *HandlerTestSuite) do(method, path string, body any, cookies []*http.Cookie) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *HandlerTestSuite) login(username, password string) []*http.Cookie {
	w := s.do(http.MethodPost, "/login", models.LoginRequest{Username: username, Password: password}, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	return w.Result().Cookies()
}

func (s *HandlerTestSuite) checkAuth(cookies []*http.Cookie) models.CheckAuthResponse {
	w := s.do(http.MethodGet, "/check-auth", nil, cookies)
	s.Require().Equal(http.StatusOK, w.Code)
	var resp models.CheckAuthResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func (s *HandlerTestSuite) TestLoginSuccess() {
	w := s.do(http.MethodPost, "/login", models.LoginRequest{Username: "admin", Password: "admin123"}, nil)
	s.Equal(http.StatusOK, w.Code)

	var resp models.LoginResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal(models.MsgLoginSuccess, resp.Message)
	s.Equal("admin", resp.Username)

	status := s.checkAuth(w.Result().Cookies())
	s.True(status.Authenticated)
	s.Equal("admin", status.Username)
}

func (s *HandlerTestSuite) TestLoginFailureSetsNoSession() {
	for _, req := range []models.LoginRequest{
		{Username: "admin", Password: "wrong"},
		{Username: "ghost", Password: "admin123"},
		{},
	} {
		w := s.do(http.MethodPost, "/login", req, nil)
		s.Equal(http.StatusUnauthorized, w.Code)
		s.JSONEq(`{"error":"用户名或密码错误"}`, w.Body.String())
		s.Empty(w.Result().Cookies())
	}
}

func (s *HandlerTestSuite) TestLoginMalformedBody() {
	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlerTestSuite) TestCheckAuthAnonymous() {
	w := s.do(http.MethodGet, "/check-auth", nil, nil)
	s.Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"authenticated":false}`, w.Body.String())
}

func (s *HandlerTestSuite) TestCheckAuthVanishedUser() {
	cookies := s.login("admin", "admin123")
	user, err := s.db.GetUserByUsername(context.Background(), "admin")
	s.Require().NoError(err)
	s.db.DeleteUser(user.ID)

	s.False(s.checkAuth(cookies).Authenticated)

	w := s.do(http.MethodGet, "/whoami", nil, cookies)
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *HandlerTestSuite) TestRequireAuth() {
	w := s.do(http.MethodGet, "/whoami", nil, nil)
	s.Equal(http.StatusUnauthorized, w.Code)
	s.JSONEq(`{"error":"请先登录"}`, w.Body.String())

	cookies := s.login("admin", "admin123")
	w = s.do(http.MethodGet, "/whoami", nil, cookies)
	s.Equal(http.StatusOK, w.Code)
	s.Equal("admin", w.Body.String())
}

func (s *HandlerTestSuite) TestLogout() {
	cookies := s.login("admin", "admin123")

	w := s.do(http.MethodPost, "/logout", nil, cookies)
	s.Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"message":"已退出登录"}`, w.Body.String())

	s.False(s.checkAuth(cookies).Authenticated)

	// anonymous logout is fine too
	w = s.do(http.MethodPost, "/logout", nil, nil)
	s.Equal(http.StatusOK, w.Code)
}

func (s *HandlerTestSuite) TestLoginIssuesNewSession() {
	// an anonymous session planted before login
	w := s.do(http.MethodPost, "/logout", nil, nil)
	planted := w.Result().Cookies()
	s.Require().Len(planted, 1)

	w = s.do(http.MethodPost, "/login", models.LoginRequest{Username: "admin", Password: "admin123"}, planted)
	s.Require().Equal(http.StatusOK, w.Code)
	issued := w.Result().Cookies()
	s.Require().Len(issued, 1)
	s.Equal("test_session", issued[0].Name)
	s.NotEqual(planted[0].Value, issued[0].Value)

	s.True(s.checkAuth(issued).Authenticated)
	s.False(s.checkAuth(planted).Authenticated)
}

func (s *HandlerTestSuite) TestReloginDropsPreviousSession() {
	first := s.login("admin", "admin123")

	w := s.do(http.MethodPost, "/login", models.LoginRequest{Username: "admin", Password: "admin123"}, first)
	s.Require().Equal(http.StatusOK, w.Code)
	second := w.Result().Cookies()

	s.True(s.checkAuth(second).Authenticated)
	s.False(s.checkAuth(first).Authenticated)
}

func (s *HandlerTestSuite) TestChangePassword() {
	w := s.do(http.MethodPost, "/change-password", models.ChangePasswordRequest{OldPassword: "admin123", NewPassword: "x"}, nil)
	s.Equal(http.StatusUnauthorized, w.Code)

	cookies := s.login("admin", "admin123")

	w = s.do(http.MethodPost, "/change-password", models.ChangePasswordRequest{OldPassword: "bad", NewPassword: "new-pass"}, cookies)
	s.Equal(http.StatusBadRequest, w.Code)
	s.JSONEq(`{"error":"原密码错误"}`, w.Body.String())

	w = s.do(http.MethodPost, "/change-password", models.ChangePasswordRequest{OldPassword: "admin123", NewPassword: ""}, cookies)
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/change-password", models.ChangePasswordRequest{OldPassword: "admin123", NewPassword: "new-pass"}, cookies)
	s.Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"message":"密码修改成功"}`, w.Body.String())

	w = s.do(http.MethodPost, "/login", models.LoginRequest{Username: "admin", Password: "admin123"}, nil)
	s.Equal(http.StatusUnauthorized, w.Code)
	s.login("admin", "new-pass")
}

func TestHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(HandlerTestSuite))
}
