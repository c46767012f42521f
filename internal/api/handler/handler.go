package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/yatube/internal/media"
	"github.com/d60-Lab/yatube/internal/middleware"
	"github.com/d60-Lab/yatube/internal/service"
	"github.com/d60-Lab/yatube/pkg/logger"
	"github.com/d60-Lab/yatube/pkg/token"
)

// Handler HTML 页面与 JSON API 共用的处理器
type Handler struct {
	users    service.UserService
	groups   service.GroupService
	posts    service.PostService
	feeds    service.FeedService
	rel      service.RelationshipService
	sessions *middleware.Sessions
	tokens   *token.Manager
	images   media.Store
}

type Deps struct {
	Users         service.UserService
	Groups        service.GroupService
	Posts         service.PostService
	Feeds         service.FeedService
	Relationships service.RelationshipService
	Sessions      *middleware.Sessions
	Tokens        *token.Manager
	Images        media.Store
}

func New(d Deps) *Handler {
	return &Handler{
		users:    d.Users,
		groups:   d.Groups,
		posts:    d.Posts,
		feeds:    d.Feeds,
		rel:      d.Relationships,
		sessions: d.Sessions,
		tokens:   d.Tokens,
		images:   d.Images,
	}
}

// render 补上当前用户后渲染模板
func (h *Handler) render(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	if _, ok := data["User"]; !ok {
		data["User"] = middleware.CurrentUser(c)
	}
	c.HTML(status, name, data)
}

func (h *Handler) notFound(c *gin.Context) {
	c.HTML(http.StatusNotFound, "core/404.html", gin.H{
		"Title": "Страница не найдена",
		"User":  middleware.CurrentUser(c),
		"Path":  c.Request.URL.Path,
	})
}

func (h *Handler) serverError(c *gin.Context, err error) {
	logger.Error("request failed", zap.Error(err), zap.String("path", c.Request.URL.Path),
		zap.String("request_id", c.GetString(middleware.RequestIDKey)))
	_ = c.Error(err)
	c.HTML(http.StatusInternalServerError, "core/500.html", gin.H{"Title": "Ошибка сервера", "User": nil})
}

// fail 把服务层错误映射到 404 / 500
func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPostNotFound),
		errors.Is(err, service.ErrGroupNotFound),
		errors.Is(err, service.ErrUserNotFound):
		h.notFound(c)
	default:
		h.serverError(c, err)
	}
}

func postID(c *gin.Context) (uint, bool) {
	n, err := strconv.ParseUint(c.Param("post_id"), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

func viewerID(c *gin.Context) uint {
	if u := middleware.CurrentUser(c); u != nil {
		return u.ID
	}
	return 0
}

// NotFound 未匹配路由
func (h *Handler) NotFound(c *gin.Context) { h.notFound(c) }

// Health 健康检查
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
