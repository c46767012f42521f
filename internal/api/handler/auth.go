package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/yatube/internal/service"
)

// safeNext 只允许站内相对地址
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}

func (h *Handler) SignupForm(c *gin.Context) {
	h.render(c, http.StatusOK, "users/signup.html", gin.H{"Title": "Зарегистрироваться", "Form": &signupForm{}, "Errors": FieldErrors{}})
}

func (h *Handler) Signup(c *gin.Context) {
	var form signupForm
	_ = c.ShouldBind(&form)
	errs := check(&form)
	if !errs.Any() {
		u, err := h.users.Register(c.Request.Context(), service.RegisterInput{
			Username:  form.Username,
			Email:     form.Email,
			Password:  form.Password1,
			FirstName: form.FirstName,
			LastName:  form.LastName,
		})
		switch {
		case errors.Is(err, service.ErrUsernameTaken):
			errs.Add("username", "Пользователь с таким именем уже существует.")
		case err != nil:
			h.serverError(c, err)
			return
		default:
			if err := h.sessions.Login(c, u); err != nil {
				h.serverError(c, err)
				return
			}
			c.Redirect(http.StatusFound, "/")
			return
		}
	}
	form.Password1, form.Password2 = "", ""
	h.render(c, http.StatusOK, "users/signup.html", gin.H{"Title": "Зарегистрироваться", "Form": &form, "Errors": errs})
}

func (h *Handler) LoginForm(c *gin.Context) {
	h.render(c, http.StatusOK, "users/login.html", gin.H{
		"Title":  "Войти",
		"Form":   &loginForm{},
		"Errors": FieldErrors{},
		"Next":   c.Query("next"),
	})
}

func (h *Handler) Login(c *gin.Context) {
	var form loginForm
	_ = c.ShouldBind(&form)
	next := c.PostForm("next")
	if next == "" {
		next = c.Query("next")
	}
	errs := check(&form)
	if !errs.Any() {
		u, err := h.users.Authenticate(c.Request.Context(), form.Username, form.Password)
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			errs.Add("__all__", "Введите правильные имя пользователя и пароль.")
		case err != nil:
			h.serverError(c, err)
			return
		default:
			if err := h.sessions.Login(c, u); err != nil {
				h.serverError(c, err)
				return
			}
			c.Redirect(http.StatusFound, safeNext(next))
			return
		}
	}
	form.Password = ""
	h.render(c, http.StatusOK, "users/login.html", gin.H{"Title": "Войти", "Form": &form, "Errors": errs, "Next": next})
}

func (h *Handler) Logout(c *gin.Context) {
	if err := h.sessions.Logout(c); err != nil {
		h.serverError(c, err)
		return
	}
	h.render(c, http.StatusOK, "users/logged_out.html", gin.H{"Title": "Вы вышли из системы", "User": nil})
}
