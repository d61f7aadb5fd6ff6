package auth

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	gsessions "github.com/gorilla/sessions"
	"github.com/tabhome/tabhome/internal/api/models"
	"github.com/tabhome/tabhome/internal/database"
)

const (
	sessionUserKey = "user_id"
	contextUserKey = "user"
)

// Login checks the credentials and stores the user id in the session.
func (a *Authenticator) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: models.MsgBadRequest})
		return
	}

	user, err := a.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			log.Warn("failed login attempt", "username", req.Username, "ip", c.ClientIP())
			c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: models.MsgInvalidCredentials})
			return
		}
		log.Error("failed to authenticate user", "error", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: models.MsgInternalError})
		return
	}

	if err := a.renewSession(c, user.ID); err != nil {
		log.Error("failed to save session", "error", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: models.MsgInternalError})
		return
	}

	c.JSON(http.StatusOK, models.LoginResponse{Message: models.MsgLoginSuccess, Username: user.Username})
}

// renewSession replaces the request's session with a new one holding userID.
// The previous session id is emptied and expired, so it never becomes authenticated.
func (a *Authenticator) renewSession(c *gin.Context, userID uint) error {
	if a.store == nil {
		return fmt.Errorf("no session store configured")
	}

	old, err := a.store.Get(c.Request, a.sessionName)
	if old == nil {
		return fmt.Errorf("failed to load session: %w", err)
	}

	opts := gsessions.Options{Path: "/", HttpOnly: true, SameSite: http.SameSiteLaxMode}
	if old.Options != nil {
		opts = *old.Options
	}

	if !old.IsNew {
		clear(old.Values)
		expired := opts
		expired.MaxAge = -1
		old.Options = &expired
		if err := a.store.Save(c.Request, c.Writer, old); err != nil {
			return fmt.Errorf("failed to expire session: %w", err)
		}
		// only the new session cookie may reach the client
		c.Writer.Header().Del("Set-Cookie")
	}

	fresh := gsessions.NewSession(a.store, a.sessionName)
	fresh.IsNew = true
	fresh.Options = &opts
	fresh.Values[sessionUserKey] = userID
	return a.store.Save(c.Request, c.Writer, fresh)
}

// Logout drops the session. It succeeds for anonymous callers too.
func (a *Authenticator) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		log.Error("failed to clear session", "error", err)
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: models.MsgLogoutSuccess})
}

// CheckAuth reports whether the session belongs to an existing user.
func (a *Authenticator) CheckAuth(c *gin.Context) {
	user, err := a.sessionUser(c)
	if err != nil {
		if !errors.Is(err, ErrUnauthenticated) {
			log.Error("failed to load session user", "error", err)
		}
		c.JSON(http.StatusOK, models.CheckAuthResponse{Authenticated: false})
		return
	}
	c.JSON(http.StatusOK, models.CheckAuthResponse{Authenticated: true, Username: user.Username})
}

// ChangePassword changes the password of the logged-in user. It must run behind RequireAuth.
func (a *Authenticator) ChangePassword(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: models.MsgLoginRequired})
		return
	}

	var req models.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: models.MsgBadRequest})
		return
	}

	err := a.UpdatePassword(c.Request.Context(), user.ID, req.OldPassword, req.NewPassword)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, models.MessageResponse{Message: models.MsgPasswordChanged})
	case errors.Is(err, ErrWrongPassword):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: models.MsgWrongPassword})
	case errors.Is(err, ErrInvalidPassword):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: models.MsgInvalidNewPassword})
	case errors.Is(err, ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: models.MsgLoginRequired})
	default:
		log.Error("failed to change password", "error", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: models.MsgInternalError})
	}
}

// RequireAuth aborts with 401 unless the session references an existing user.
// The user is stored in the gin context and can be read with CurrentUser.
func (a *Authenticator) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := a.sessionUser(c)
		if err != nil {
			if !errors.Is(err, ErrUnauthenticated) {
				log.Error("failed to load session user", "error", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, models.ErrorResponse{Error: models.MsgInternalError})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: models.MsgLoginRequired})
			return
		}
		c.Set(contextUserKey, user)
		c.Next()
	}
}

// CurrentUser returns the user set by RequireAuth.
func CurrentUser(c *gin.Context) (*database.User, bool) {
	v, ok := c.Get(contextUserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*database.User)
	return user, ok && user != nil
}

func (a *Authenticator) sessionUser(c *gin.Context) (*database.User, error) {
	session := sessions.Default(c)
	userID, ok := session.Get(sessionUserKey).(uint)
	if !ok {
		return nil, ErrUnauthenticated
	}
	user, err := a.db.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	return user, nil
}
