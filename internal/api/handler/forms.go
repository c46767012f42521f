package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// FieldErrors 字段名 -> 错误提示，渲染在表单旁
type FieldErrors map[string]string

func (e FieldErrors) Add(field, msg string) { e[field] = msg }

func (e FieldErrors) Any() bool { return len(e) > 0 }

type postForm struct {
	Text  string `form:"text" validate:"required"`
	Group string `form:"group" validate:"omitempty,number"`
}

// GroupID 空字符串表示不选分组
func (f *postForm) GroupID() *uint {
	if f.Group == "" {
		return nil
	}
	n, err := strconv.ParseUint(f.Group, 10, 64)
	if err != nil {
		return nil
	}
	id := uint(n)
	return &id
}

type commentForm struct {
	Text string `form:"text" validate:"required"`
}

type signupForm struct {
	FirstName string `form:"first_name" validate:"max=150"`
	LastName  string `form:"last_name" validate:"max=150"`
	Username  string `form:"username" validate:"required,max=150,username"`
	Email     string `form:"email" validate:"omitempty,email"`
	Password1 string `form:"password1" validate:"required,min=8"`
	Password2 string `form:"password2" validate:"required,eqfield=Password1"`
}

type loginForm struct {
	Username string `form:"username" json:"username" validate:"required"`
	Password string `form:"password" json:"password" validate:"required"`
}

func init() {
	// 字母、数字以及 @.+-_
	_ = validate.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		for _, r := range fl.Field().String() {
			switch {
			case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			case strings.ContainsRune("@.+-_", r):
			default:
				return false
			}
		}
		return true
	})
}

var fieldNames = map[string]string{
	"Text":      "text",
	"Group":     "group",
	"FirstName": "first_name",
	"LastName":  "last_name",
	"Username":  "username",
	"Email":     "email",
	"Password":  "password",
	"Password1": "password1",
	"Password2": "password2",
}

// check 先去掉首尾空白再校验
func check(form any) FieldErrors {
	trim(form)
	errs := FieldErrors{}
	err := validate.Struct(form)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errs
	}
	for _, fe := range verrs {
		name := fieldNames[fe.Field()]
		if name == "" {
			name = strings.ToLower(fe.Field())
		}
		errs.Add(name, message(fe))
	}
	return errs
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Обязательное поле."
	case "max":
		return "Слишком длинное значение (максимум " + fe.Param() + ")."
	case "min":
		return "Слишком короткое значение (минимум " + fe.Param() + ")."
	case "email":
		return "Введите правильный адрес электронной почты."
	case "eqfield":
		return "Пароли не совпадают."
	case "number":
		return "Выберите корректный вариант."
	case "username":
		return "Допустимы только буквы, цифры и символы @/./+/-/_."
	}
	return "Некорректное значение."
}

func trim(form any) {
	switch f := form.(type) {
	case *postForm:
		f.Text = strings.TrimSpace(f.Text)
		f.Group = strings.TrimSpace(f.Group)
	case *commentForm:
		f.Text = strings.TrimSpace(f.Text)
	case *signupForm:
		f.FirstName = strings.TrimSpace(f.FirstName)
		f.LastName = strings.TrimSpace(f.LastName)
		f.Username = strings.TrimSpace(f.Username)
		f.Email = strings.TrimSpace(f.Email)
	case *loginForm:
		f.Username = strings.TrimSpace(f.Username)
	}
}
