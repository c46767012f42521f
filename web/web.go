// Package web 内嵌的 HTML 模板
package web

import (
	"embed"
	"html/template"
	"time"
)

//go:embed templates
var files embed.FS

// Templates 解析全部模板；mediaURL 把图片相对路径转换为可访问的地址
func Templates(mediaURL func(string) string) (*template.Template, error) {
	if mediaURL == nil {
		mediaURL = func(s string) string { return "/media/" + s }
	}
	funcs := template.FuncMap{
		"media": mediaURL,
		"date": func(t time.Time) string {
			return t.Format("02.01.2006")
		},
		"datetime": func(t time.Time) string {
			return t.Format("02.01.2006 15:04")
		},
		"add": func(a, b int) int { return a + b },
	}
	return template.New("").Funcs(funcs).ParseFS(files,
		"templates/includes/*.html",
		"templates/core/*.html",
		"templates/posts/*.html",
		"templates/users/*.html",
		"templates/about/*.html",
	)
}
