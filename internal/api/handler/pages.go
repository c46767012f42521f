package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/middleware"
)

// Index 首页。结果整页缓存，模板数据不能包含当前访问者
func (h *Handler) Index(c *gin.Context) {
	page, err := h.feeds.Index(c.Request.Context(), c.Query("page"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.render(c, http.StatusOK, "posts/index.html", gin.H{
		"User":  (*model.User)(nil),
		"Title": "Последние обновления на сайте",
		"Page":  page,
		"Index": true,
	})
}

func (h *Handler) GroupList(c *gin.Context) {
	groups, err := h.groups.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	h.render(c, http.StatusOK, "posts/group_list.html", gin.H{"Title": "Сообщества", "Groups": groups})
}

func (h *Handler) GroupPosts(c *gin.Context) {
	feed, err := h.feeds.Group(c.Request.Context(), c.Param("slug"), c.Query("page"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.render(c, http.StatusOK, "posts/group_list_posts.html", gin.H{
		"Title": "Записи сообщества " + feed.Group.Title,
		"Group": feed.Group,
		"Page":  feed.Page,
	})
}

func (h *Handler) Profile(c *gin.Context) {
	feed, err := h.feeds.Profile(c.Request.Context(), c.Param("username"), viewerID(c), c.Query("page"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.render(c, http.StatusOK, "posts/profile.html", gin.H{
		"Title":   "Профайл пользователя " + feed.Author.FullName(),
		"Author":  feed.Author,
		"Page":    feed.Page,
		"Profile": feed,
	})
}

func (h *Handler) PostDetail(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		h.notFound(c)
		return
	}
	h.renderDetail(c, id, http.StatusOK, "", nil)
}

// renderDetail 详情页；评论表单校验失败时带上输入和错误重新渲染
func (h *Handler) renderDetail(c *gin.Context, id uint, status int, text string, errs FieldErrors) {
	detail, err := h.posts.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	if errs == nil {
		errs = FieldErrors{}
	}
	h.render(c, status, "posts/post_detail.html", gin.H{
		"Title":       "Пост " + detail.Post.Excerpt(),
		"Post":        detail.Post,
		"AuthorPosts": detail.AuthorPosts,
		"Comments":    detail.Post.Comments,
		"Form":        gin.H{"Text": text},
		"Errors":      errs,
	})
}

// FollowIndex 关注作者的帖子流
func (h *Handler) FollowIndex(c *gin.Context) {
	u := middleware.CurrentUser(c)
	page, err := h.feeds.Followed(c.Request.Context(), u.ID, c.Query("page"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.render(c, http.StatusOK, "posts/follow.html", gin.H{
		"Title":  "Избранные авторы",
		"Page":   page,
		"Follow": true,
	})
}

func (h *Handler) AboutAuthor(c *gin.Context) {
	h.render(c, http.StatusOK, "about/author.html", gin.H{"Title": "Об авторе"})
}

func (h *Handler) AboutTech(c *gin.Context) {
	h.render(c, http.StatusOK, "about/tech.html", gin.H{"Title": "Технологии"})
}
