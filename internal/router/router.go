package router

import (
	"html/template"
	"net/http"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	_ "github.com/d60-Lab/yatube/docs"
	"github.com/d60-Lab/yatube/config"
	"github.com/d60-Lab/yatube/internal/api/handler"
	"github.com/d60-Lab/yatube/internal/cache"
	"github.com/d60-Lab/yatube/internal/metrics"
	"github.com/d60-Lab/yatube/internal/middleware"
	"github.com/d60-Lab/yatube/internal/service"
	"github.com/d60-Lab/yatube/pkg/token"
)

// Options 组装路由所需的依赖
type Options struct {
	Config    *config.Config
	Handler   *handler.Handler
	Templates *template.Template
	Sessions  *middleware.Sessions
	Tokens    *token.Manager
	Users     service.UserService
	PageCache cache.PageCache
	Metrics   *metrics.Metrics
}

func Setup(o Options) *gin.Engine {
	cfg := o.Config
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.SetHTMLTemplate(o.Templates)
	r.Use(middleware.RequestID(), middleware.Logger())
	if cfg.Sentry.DSN != "" {
		r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	r.Use(gin.Recovery())
	if cfg.Tracing.Enabled {
		r.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	}
	if o.Metrics != nil {
		r.Use(o.Metrics.Middleware())
	}
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics", "/media/"})))
	r.Use(o.Sessions.Load())
	r.Use(middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst).Middleware())

	h := o.Handler
	r.NoRoute(h.NotFound)
	r.GET("/health", h.Health)
	if o.Metrics != nil {
		r.GET("/metrics", o.Metrics.Handler())
	}
	r.Static(cfg.Media.URLPrefix, cfg.Media.Dir)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	var observe func(bool)
	if o.Metrics != nil {
		observe = o.Metrics.ObserveCache
	}
	r.GET("/", cache.Middleware(o.PageCache, cfg.Cache.IndexTTL, observe), h.Index)
	r.GET("/group/", h.GroupList)
	r.GET("/group/:slug/", h.GroupPosts)
	r.GET("/profile/:username/", h.Profile)
	r.GET("/posts/:post_id/", h.PostDetail)
	r.GET("/about/author/", h.AboutAuthor)
	r.GET("/about/tech/", h.AboutTech)

	auth := r.Group("/auth")
	{
		auth.GET("/signup/", h.SignupForm)
		auth.POST("/signup/", h.Signup)
		auth.GET("/login/", h.LoginForm)
		auth.POST("/login/", h.Login)
		auth.GET("/logout/", h.Logout)
		auth.POST("/logout/", h.Logout)
	}

	private := r.Group("/", middleware.LoginRequired())
	{
		private.GET("/create/", h.CreateForm)
		private.POST("/create/", h.Create)
		private.GET("/posts/:post_id/edit/", h.EditForm)
		private.POST("/posts/:post_id/edit/", h.Edit)
		private.POST("/posts/:post_id/comment/", h.AddComment)
		private.GET("/follow/", h.FollowIndex)
		for _, method := range []string{http.MethodGet, http.MethodPost} {
			private.Handle(method, "/profile/:username/follow/", h.ProfileFollow)
			private.Handle(method, "/profile/:username/unfollow/", h.ProfileUnfollow)
		}
	}

	api := r.Group("/api/v1")
	{
		api.POST("/auth/token", h.IssueToken)
		api.GET("/posts", h.APIIndex)
		api.GET("/groups/:slug/posts", h.APIGroupPosts)
		api.GET("/profiles/:username/posts", h.APIProfilePosts)

		authed := api.Group("", middleware.APIAuth(o.Tokens, o.Users))
		authed.GET("/follow/posts", h.APIFollowPosts)
		authed.POST("/profiles/:username/follow", h.APIFollow)
		authed.DELETE("/profiles/:username/follow", h.APIUnfollow)
	}

	return r
}
