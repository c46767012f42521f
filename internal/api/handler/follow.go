package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/yatube/internal/middleware"
	"github.com/d60-Lab/yatube/pkg/logger"
)

const followURL = "/follow/"

// ProfileFollow 关注作者；重复关注、关注自己都静默忽略
func (h *Handler) ProfileFollow(c *gin.Context) {
	u := middleware.CurrentUser(c)
	res, err := h.rel.Follow(c.Request.Context(), u.ID, c.Param("username"))
	if err != nil {
		h.fail(c, err)
		return
	}
	logger.Debug("follow", zap.Uint("user", u.ID), zap.String("author", c.Param("username")), zap.Stringer("result", res))
	c.Redirect(http.StatusFound, followURL)
}

func (h *Handler) ProfileUnfollow(c *gin.Context) {
	u := middleware.CurrentUser(c)
	if err := h.rel.Unfollow(c.Request.Context(), u.ID, c.Param("username")); err != nil {
		h.fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, followURL)
}
