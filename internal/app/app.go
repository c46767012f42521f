// Package app 把配置、存储、服务和路由组装成可运行的应用
package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/yatube/config"
	"github.com/d60-Lab/yatube/internal/api/handler"
	"github.com/d60-Lab/yatube/internal/cache"
	"github.com/d60-Lab/yatube/internal/media"
	"github.com/d60-Lab/yatube/internal/metrics"
	"github.com/d60-Lab/yatube/internal/middleware"
	"github.com/d60-Lab/yatube/internal/repository"
	"github.com/d60-Lab/yatube/internal/router"
	"github.com/d60-Lab/yatube/internal/service"
	"github.com/d60-Lab/yatube/pkg/logger"
	"github.com/d60-Lab/yatube/pkg/token"
	"github.com/d60-Lab/yatube/web"
)

type App struct {
	Engine    *gin.Engine
	PageCache cache.PageCache
	Events    *service.Dispatcher
	Metrics   *metrics.Metrics

	Users         service.UserService
	Groups        service.GroupService
	Posts         service.PostService
	Feeds         service.FeedService
	Relationships service.RelationshipService

	redis      *redis.Client
	stopEvents func(context.Context) error
	cancel     context.CancelFunc
}

// New 组装应用。pc 为空时按配置选择 Redis 或进程内缓存
func New(cfg *config.Config, db *gorm.DB, pc cache.PageCache) (*App, error) {
	a := &App{PageCache: pc}
	if a.PageCache == nil {
		if cfg.Redis.Enabled {
			a.redis = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
			if err := a.redis.Ping(context.Background()).Err(); err != nil {
				return nil, fmt.Errorf("connect redis: %w", err)
			}
			a.PageCache = cache.NewRedisPageCache(a.redis, "yatube:")
		} else {
			a.PageCache = cache.NewMemoryPageCache()
		}
	}

	a.Events = service.NewDispatcher(cfg.Events.QueueSize)
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.Metrics = metrics.New(reg, a.Events)
	a.Events.Register(a.Metrics.Hook())
	if cfg.Cache.InvalidateOnWrite {
		a.Events.Register(cache.InvalidateHook(a.PageCache, cache.IndexPrefix))
	}

	userRepo := repository.NewUserRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	followRepo := repository.NewFollowRepository(db)
	postRepo := repository.NewPostRepository(db)

	images := media.NewFSStore(cfg.Media.Dir, cfg.Media.URLPrefix, cfg.Media.MaxUploadMB<<20)
	a.Users = service.NewUserService(userRepo)
	a.Groups = service.NewGroupService(groupRepo)
	a.Posts = service.NewPostService(db, images, a.Events)
	a.Relationships = service.NewRelationshipService(followRepo, userRepo, a.Events)
	a.Feeds = service.NewFeedService(postRepo, groupRepo, userRepo, followRepo, a.Relationships, cfg.Feed.PageSize)

	tmpl, err := web.Templates(images.URL)
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	sessions := middleware.NewSessions(middleware.NewCookieStore(cfg.Auth.SessionSecret, cfg.Auth.SessionMaxAge), a.Users)
	tokens := token.NewManager(cfg.Auth.JWTSecret, cfg.Auth.JWTExpire)

	h := handler.New(handler.Deps{
		Users:         a.Users,
		Groups:        a.Groups,
		Posts:         a.Posts,
		Feeds:         a.Feeds,
		Relationships: a.Relationships,
		Sessions:      sessions,
		Tokens:        tokens,
		Images:        images,
	})
	a.Engine = router.Setup(router.Options{
		Config:    cfg,
		Handler:   h,
		Templates: tmpl,
		Sessions:  sessions,
		Tokens:    tokens,
		Users:     a.Users,
		PageCache: a.PageCache,
		Metrics:   a.Metrics,
	})

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.stopEvents = a.Events.Start(cfg.Events.Workers)
	go a.Metrics.CollectLatency(ctx, a.Events)
	return a, nil
}

// Close 排空事件队列并释放连接
func (a *App) Close(ctx context.Context) error {
	err := a.stopEvents(ctx)
	a.cancel()
	if a.redis != nil {
		if cerr := a.redis.Close(); cerr != nil {
			logger.Warn("close redis", zap.Error(cerr))
		}
	}
	return err
}
