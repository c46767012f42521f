package handler

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/yatube/internal/media"
	"github.com/d60-Lab/yatube/internal/middleware"
	"github.com/d60-Lab/yatube/internal/service"
)

// postFormView 创建/编辑共用一个模板
func (h *Handler) postFormView(c *gin.Context, status int, form *postForm, errs FieldErrors, editID uint) {
	groups, err := h.groups.List(c.Request.Context())
	if err != nil {
		h.serverError(c, err)
		return
	}
	if errs == nil {
		errs = FieldErrors{}
	}
	title := "Новый пост"
	if editID != 0 {
		title = "Редактировать пост"
	}
	h.render(c, status, "posts/create_post.html", gin.H{
		"Title":  title,
		"Form":   form,
		"Errors": errs,
		"Groups": groups,
		"IsEdit": editID != 0,
		"PostID": editID,
	})
}

func (h *Handler) CreateForm(c *gin.Context) {
	h.postFormView(c, http.StatusOK, &postForm{}, nil, 0)
}

func (h *Handler) Create(c *gin.Context) {
	u := middleware.CurrentUser(c)
	var form postForm
	_ = c.ShouldBind(&form)
	errs := check(&form)

	image, closeImage, err := uploadedImage(c)
	if err != nil {
		h.serverError(c, err)
		return
	}
	defer closeImage()

	if errs.Any() {
		h.postFormView(c, http.StatusOK, &form, errs, 0)
		return
	}
	_, err = h.posts.Create(c.Request.Context(), u.ID, service.PostInput{Text: form.Text, GroupID: form.GroupID(), Image: image})
	if ferr := formError(err); ferr != nil {
		h.postFormView(c, http.StatusOK, &form, ferr, 0)
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, fmt.Sprintf("/profile/%s/", u.Username))
}

// EditForm 非作者直接回到详情页
func (h *Handler) EditForm(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		h.notFound(c)
		return
	}
	access, p, err := h.posts.Authorize(c.Request.Context(), viewerID(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	if access != service.AccessOwner {
		c.Redirect(http.StatusFound, detailURL(id))
		return
	}
	form := &postForm{Text: p.Text}
	if p.GroupID != nil {
		form.Group = fmt.Sprint(*p.GroupID)
	}
	h.postFormView(c, http.StatusOK, form, nil, id)
}

func (h *Handler) Edit(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		h.notFound(c)
		return
	}
	access, _, err := h.posts.Authorize(c.Request.Context(), viewerID(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	if access != service.AccessOwner {
		c.Redirect(http.StatusFound, detailURL(id))
		return
	}

	var form postForm
	_ = c.ShouldBind(&form)
	errs := check(&form)
	image, closeImage, err := uploadedImage(c)
	if err != nil {
		h.serverError(c, err)
		return
	}
	defer closeImage()
	if errs.Any() {
		h.postFormView(c, http.StatusOK, &form, errs, id)
		return
	}

	_, err = h.posts.Edit(c.Request.Context(), viewerID(c), id, service.PostInput{Text: form.Text, GroupID: form.GroupID(), Image: image})
	if errors.Is(err, service.ErrNotOwner) {
		c.Redirect(http.StatusFound, detailURL(id))
		return
	}
	if ferr := formError(err); ferr != nil {
		h.postFormView(c, http.StatusOK, &form, ferr, id)
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, detailURL(id))
}

// AddComment 空评论不保存，带错误重新渲染详情页
func (h *Handler) AddComment(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		h.notFound(c)
		return
	}
	var form commentForm
	_ = c.ShouldBind(&form)
	if errs := check(&form); errs.Any() {
		h.renderDetail(c, id, http.StatusOK, form.Text, errs)
		return
	}
	_, err := h.posts.AddComment(c.Request.Context(), viewerID(c), id, form.Text)
	if errors.Is(err, service.ErrEmptyText) {
		h.renderDetail(c, id, http.StatusOK, form.Text, FieldErrors{"text": "Обязательное поле."})
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, detailURL(id))
}

func detailURL(id uint) string { return fmt.Sprintf("/posts/%d/", id) }

// formError 可以显示在表单上的服务层错误
func formError(err error) FieldErrors {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, service.ErrEmptyText):
		return FieldErrors{"text": "Обязательное поле."}
	case errors.Is(err, service.ErrGroupNotFound):
		return FieldErrors{"group": "Выберите корректный вариант."}
	case errors.Is(err, media.ErrNotImage):
		return FieldErrors{"image": "Загрузите правильное изображение."}
	case errors.Is(err, media.ErrTooLarge):
		return FieldErrors{"image": "Файл слишком большой."}
	}
	return nil
}

// uploadedImage 没有上传文件时返回 nil reader
func uploadedImage(c *gin.Context) (io.Reader, func(), error) {
	noop := func() {}
	fh, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, noop, nil
	}
	if err != nil {
		return nil, noop, err
	}
	if fh.Size == 0 {
		return nil, noop, nil
	}
	f, err := fh.Open()
	if err != nil {
		return nil, noop, err
	}
	return f, func() { closeFile(f) }, nil
}

func closeFile(f multipart.File) { _ = f.Close() }
