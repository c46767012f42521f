package middleware

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"

	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/service"
	"github.com/d60-Lab/yatube/pkg/logger"
)

const (
	SessionName = "yatube_session"
	userKey     = "current_user"
	sessUserID  = "user_id"
)

// NewCookieStore 签名 cookie 会话
func NewCookieStore(secret string, maxAge int) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// Sessions 负责 HTML 站点的登录态
type Sessions struct {
	store sessions.Store
	users service.UserService
}

func NewSessions(store sessions.Store, users service.UserService) *Sessions {
	return &Sessions{store: store, users: users}
}

// Load 从 cookie 中恢复当前用户，失败时按匿名处理
func (s *Sessions) Load() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := s.store.Get(c.Request, SessionName)
		if err != nil {
			logger.Debug("bad session cookie", zap.Error(err))
		}
		if id, ok := sess.Values[sessUserID].(uint); ok && id != 0 {
			u, err := s.users.GetByID(c.Request.Context(), id)
			switch {
			case err == nil:
				c.Set(userKey, u)
			case !errors.Is(err, service.ErrUserNotFound):
				logger.Warn("load session user", zap.Uint("user", id), zap.Error(err))
			}
		}
		c.Next()
	}
}

func (s *Sessions) Login(c *gin.Context, u *model.User) error {
	sess, _ := s.store.Get(c.Request, SessionName)
	sess.Values[sessUserID] = u.ID
	if err := sess.Save(c.Request, c.Writer); err != nil {
		return err
	}
	c.Set(userKey, u)
	return nil
}

func (s *Sessions) Logout(c *gin.Context) error {
	sess, _ := s.store.Get(c.Request, SessionName)
	delete(sess.Values, sessUserID)
	sess.Options.MaxAge = -1
	return sess.Save(c.Request, c.Writer)
}

// CurrentUser 未登录返回 nil
func CurrentUser(c *gin.Context) *model.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	u, _ := v.(*model.User)
	return u
}

// SetCurrentUser 供 API 鉴权使用
func SetCurrentUser(c *gin.Context, u *model.User) { c.Set(userKey, u) }

// LoginURL /auth/login/?next=<原始地址>，路径中的 / 不转义
func LoginURL(next string) string {
	return "/auth/login/?next=" + strings.ReplaceAll(url.QueryEscape(next), "%2F", "/")
}

// LoginRequired 未登录时重定向到登录页并带上 next
func LoginRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			c.Redirect(http.StatusFound, LoginURL(c.Request.URL.RequestURI()))
			c.Abort()
			return
		}
		c.Next()
	}
}
