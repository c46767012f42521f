package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/d60-Lab/yatube/config"
	"github.com/d60-Lab/yatube/internal/app"
	"github.com/d60-Lab/yatube/internal/benchutil"
	"github.com/d60-Lab/yatube/internal/cache"
	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/repository"
	"github.com/d60-Lab/yatube/internal/service"
	"github.com/d60-Lab/yatube/pkg/database"
	"github.com/d60-Lab/yatube/pkg/logger"
)

// cachebench: 对比首页在无缓存、进程内缓存、Redis 缓存下的响应耗时。
// REDIS_ADDR 为空时使用 miniredis。
type pageCache interface {
	cache.PageCache
	Stats() cache.Stats
}

func main() {
	ctx := context.Background()
	POSTS := benchutil.EnvInt("POSTS", 2000)
	REQS := benchutil.EnvInt("REQS", 2000)
	PAGES := benchutil.EnvInt("PAGES", 5)

	cfg := config.Default()
	cfg.Server.Mode = "test"
	cfg.RateLimit.RPS = 0
	cfg.Events.QueueSize = 0
	cfg.Media.Dir = benchutil.Must(os.MkdirTemp("", "cachebench"))
	defer os.RemoveAll(cfg.Media.Dir)
	benchutil.MustDo(logger.Init(cfg.Server.Mode))

	db := benchutil.Must(database.OpenMemory())
	defer database.Close(db)
	seed(ctx, db, POSTS)

	var rdb redis.UniversalClient
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: addr})
	} else {
		mr := benchutil.Must(miniredis.Run())
		defer mr.Close()
		rdb = redis.NewClient(&redis.Options{Addr: mr.Addr()})
	}
	defer rdb.Close()
	benchutil.MustDo(rdb.Ping(ctx).Err())

	ttl := cfg.Cache.IndexTTL
	cases := []struct {
		name string
		ttl  time.Duration
		pc   pageCache
	}{
		{"none", 0, cache.NewMemoryPageCache()},
		{"memory", ttl, cache.NewMemoryPageCache()},
		{"redis", ttl, cache.NewRedisPageCache(rdb, "cachebench:")},
	}

	fmt.Printf("POSTS=%d REQS=%d PAGES=%d TTL=%v\n", POSTS, REQS, PAGES, ttl)
	for _, tc := range cases {
		c := *cfg
		c.Cache.IndexTTL = tc.ttl
		a := benchutil.Must(app.New(&c, db, tc.pc))
		benchutil.MustDo(tc.pc.Invalidate(ctx, cache.PagePrefix))

		lat := make([]time.Duration, 0, REQS)
		for i := 0; i < REQS; i++ {
			path := "/?page=" + strconv.Itoa(i%PAGES+1)
			req := httptest.NewRequest(http.MethodGet, path, nil)
			w := httptest.NewRecorder()
			st := time.Now()
			a.Engine.ServeHTTP(w, req)
			lat = append(lat, time.Since(st))
			if w.Code != http.StatusOK {
				benchutil.MustDo(fmt.Errorf("GET %s: status %d", path, w.Code))
			}
		}
		s := tc.pc.Stats()
		fmt.Printf("%-7s avg=%v p50=%v p95=%v p99=%v hits=%d misses=%d\n", tc.name,
			benchutil.Avg(lat), benchutil.Pct(lat, 0.50), benchutil.Pct(lat, 0.95), benchutil.Pct(lat, 0.99), s.Hits, s.Misses)
		benchutil.MustDo(a.Close(ctx))
	}
}

// seed 注册 10 个作者并轮流发帖
func seed(ctx context.Context, db *gorm.DB, n int) {
	users := service.NewUserService(repository.NewUserRepository(db))
	posts := service.NewPostService(db, nil, nil)
	authors := make([]*model.User, 10)
	for i := range authors {
		authors[i] = benchutil.Must(users.Register(ctx, service.RegisterInput{
			Username: fmt.Sprintf("author%d", i),
			Password: "cachebench-password",
		}))
	}
	for i := 0; i < n; i++ {
		a := authors[i%len(authors)]
		_, err := posts.Create(ctx, a.ID, service.PostInput{Text: fmt.Sprintf("post #%d by %s", i, a.Username)})
		benchutil.MustDo(err)
	}
}
