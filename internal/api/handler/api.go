package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/yatube/internal/middleware"
	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/service"
	"github.com/d60-Lab/yatube/pkg/response"
)

// PostDTO 帖子的 API 表示
type PostDTO struct {
	ID      uint      `json:"id"`
	Text    string    `json:"text"`
	PubDate time.Time `json:"pub_date"`
	Author  string    `json:"author"`
	Group   string    `json:"group,omitempty"`
	Image   string    `json:"image,omitempty"`
}

// PostPageDTO 一页帖子
type PostPageDTO struct {
	Items    []PostDTO `json:"items"`
	Number   int       `json:"number"`
	NumPages int       `json:"num_pages"`
	Total    int64     `json:"total"`
	HasNext  bool      `json:"has_next"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type followResponse struct {
	Result string `json:"result"`
}

func (h *Handler) postDTO(p *model.Post) PostDTO {
	d := PostDTO{ID: p.ID, Text: p.Text, PubDate: p.PubDate}
	if p.Author != nil {
		d.Author = p.Author.Username
	}
	if p.Group != nil {
		d.Group = p.Group.Slug
	}
	if p.Image != "" && h.images != nil {
		d.Image = h.images.URL(p.Image)
	}
	return d
}

func (h *Handler) pageDTO(p *service.PostPage) PostPageDTO {
	items := make([]PostDTO, len(p.Items))
	for i, post := range p.Items {
		items[i] = h.postDTO(post)
	}
	return PostPageDTO{Items: items, Number: p.Number, NumPages: p.NumPages, Total: p.Total, HasNext: p.HasNext()}
}

func apiFail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrGroupNotFound):
		response.NotFound(c, "group not found")
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, "user not found")
	case errors.Is(err, service.ErrPostNotFound):
		response.NotFound(c, "post not found")
	default:
		response.InternalError(c, err)
	}
}

// IssueToken 用户名密码换取访问令牌
// @Summary 获取访问令牌
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body loginForm true "用户名和密码"
// @Success 200 {object} response.Response{data=tokenResponse}
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /api/v1/auth/token [post]
func (h *Handler) IssueToken(c *gin.Context) {
	var req loginForm
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if errs := check(&req); errs.Any() {
		response.BadRequest(c, "username and password are required")
		return
	}
	u, err := h.users.Authenticate(c.Request.Context(), req.Username, req.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		response.Unauthorized(c, err.Error())
		return
	}
	if err != nil {
		response.InternalError(c, err)
		return
	}
	tok, err := h.tokens.Generate(u.ID, u.Username)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, tokenResponse{Token: tok})
}

// APIIndex 全部帖子
// @Summary 帖子列表
// @Tags 帖子
// @Produce json
// @Param page query int false "页码" default(1)
// @Success 200 {object} response.Response{data=PostPageDTO}
// @Router /api/v1/posts [get]
func (h *Handler) APIIndex(c *gin.Context) {
	page, err := h.feeds.Index(c.Request.Context(), c.Query("page"))
	if err != nil {
		apiFail(c, err)
		return
	}
	response.Success(c, h.pageDTO(page))
}

// APIGroupPosts 分组下的帖子
// @Summary 分组帖子
// @Tags 帖子
// @Produce json
// @Param slug path string true "分组 slug"
// @Param page query int false "页码" default(1)
// @Success 200 {object} response.Response{data=PostPageDTO}
// @Failure 404 {object} response.Response
// @Router /api/v1/groups/{slug}/posts [get]
func (h *Handler) APIGroupPosts(c *gin.Context) {
	feed, err := h.feeds.Group(c.Request.Context(), c.Param("slug"), c.Query("page"))
	if err != nil {
		apiFail(c, err)
		return
	}
	response.Success(c, h.pageDTO(feed.Page))
}

// APIProfilePosts 作者的帖子
// @Summary 作者帖子
// @Tags 帖子
// @Produce json
// @Param username path string true "用户名"
// @Param page query int false "页码" default(1)
// @Success 200 {object} response.Response{data=PostPageDTO}
// @Failure 404 {object} response.Response
// @Router /api/v1/profiles/{username}/posts [get]
func (h *Handler) APIProfilePosts(c *gin.Context) {
	feed, err := h.feeds.Profile(c.Request.Context(), c.Param("username"), 0, c.Query("page"))
	if err != nil {
		apiFail(c, err)
		return
	}
	response.Success(c, h.pageDTO(feed.Page))
}

// APIFollowPosts 关注作者的帖子
// @Summary 关注流
// @Tags 关系链
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码" default(1)
// @Success 200 {object} response.Response{data=PostPageDTO}
// @Failure 401 {object} response.Response
// @Router /api/v1/follow/posts [get]
func (h *Handler) APIFollowPosts(c *gin.Context) {
	u := middleware.CurrentUser(c)
	page, err := h.feeds.Followed(c.Request.Context(), u.ID, c.Query("page"))
	if err != nil {
		apiFail(c, err)
		return
	}
	response.Success(c, h.pageDTO(page))
}

// APIFollow 关注作者
// @Summary 关注作者
// @Description 重复关注与关注自己都返回 200，result 字段说明结果
// @Tags 关系链
// @Produce json
// @Security BearerAuth
// @Param username path string true "作者用户名"
// @Success 200 {object} response.Response{data=followResponse}
// @Failure 401 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/profiles/{username}/follow [post]
func (h *Handler) APIFollow(c *gin.Context) {
	u := middleware.CurrentUser(c)
	res, err := h.rel.Follow(c.Request.Context(), u.ID, c.Param("username"))
	if err != nil {
		apiFail(c, err)
		return
	}
	response.Success(c, followResponse{Result: res.String()})
}

// APIUnfollow 取消关注
// @Summary 取消关注
// @Tags 关系链
// @Produce json
// @Security BearerAuth
// @Param username path string true "作者用户名"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/profiles/{username}/follow [delete]
func (h *Handler) APIUnfollow(c *gin.Context) {
	u := middleware.CurrentUser(c)
	if err := h.rel.Unfollow(c.Request.Context(), u.ID, c.Param("username")); err != nil {
		apiFail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Response{Code: 0, Message: "unfollowed"})
}
