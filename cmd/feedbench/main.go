package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/d60-Lab/yatube/config"
	"github.com/d60-Lab/yatube/internal/benchutil"
	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/repository"
	"github.com/d60-Lab/yatube/internal/service"
	"github.com/d60-Lab/yatube/pkg/database"
)

// feedbench: AUTHORS 个作者各发 POSTS 篇帖子，读者关注其中 FOLLOW 个，测量发帖与各类帖子流的读取耗时
func main() {
	cfg := benchutil.Must(config.Load())
	db := benchutil.Must(database.InitDB(cfg))
	ctx := context.Background()

	AUTHORS := benchutil.EnvInt("AUTHORS", 200)
	POSTS := benchutil.EnvInt("POSTS", 50)
	FOLLOW := benchutil.EnvInt("FOLLOW", 20)
	READS := benchutil.EnvInt("READS", 200)

	// 只清理本基准自己创建的数据
	benchutil.MustDo(benchutil.CleanupUsers(db, "feedbench_"))
	benchutil.MustDo(db.Where("slug = ?", "feedbench").Delete(&model.Group{}).Error)

	userRepo := repository.NewUserRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	followRepo := repository.NewFollowRepository(db)
	postRepo := repository.NewPostRepository(db)
	events := service.NewDispatcher(0)
	posts := service.NewPostService(db, nil, events)
	rel := service.NewRelationshipService(followRepo, userRepo, events)
	feeds := service.NewFeedService(postRepo, groupRepo, userRepo, followRepo, rel, cfg.Feed.PageSize)

	group := &model.Group{Title: "feedbench", Slug: "feedbench"}
	benchutil.MustDo(groupRepo.Create(ctx, group))
	reader := model.User{Username: "feedbench_reader", PasswordHash: "x"}
	benchutil.MustDo(db.Create(&reader).Error)
	authors := make([]model.User, AUTHORS)
	for i := range authors {
		authors[i] = model.User{Username: fmt.Sprintf("feedbench_%d", i), PasswordHash: "x"}
	}
	benchutil.MustDo(db.CreateInBatches(&authors, 500).Error)
	for i := 0; i < FOLLOW && i < AUTHORS; i++ {
		_, err := rel.Follow(ctx, reader.ID, authors[i].Username)
		benchutil.MustDo(err)
	}

	pub := make([]time.Duration, 0, AUTHORS*POSTS)
	for p := 0; p < POSTS; p++ {
		for i := range authors {
			in := service.PostInput{Text: fmt.Sprintf("post %d by %s", p, authors[i].Username)}
			if p%2 == 0 {
				in.GroupID = &group.ID
			}
			st := time.Now()
			_, err := posts.Create(ctx, authors[i].ID, in)
			benchutil.MustDo(err)
			pub = append(pub, time.Since(st))
		}
	}

	measure := func(name string, read func(page string) (*service.PostPage, error)) {
		first := make([]time.Duration, 0, READS)
		last := make([]time.Duration, 0, READS)
		var pages int
		for i := 0; i < READS; i++ {
			st := time.Now()
			pg, err := read("1")
			benchutil.MustDo(err)
			first = append(first, time.Since(st))
			pages = pg.NumPages

			st = time.Now()
			_, err = read(strconv.Itoa(pages))
			benchutil.MustDo(err)
			last = append(last, time.Since(st))
		}
		fmt.Printf("%-10s pages=%-5d first: avg=%v p95=%v | last: avg=%v p95=%v\n", name, pages,
			benchutil.Avg(first), benchutil.Pct(first, 0.95), benchutil.Avg(last), benchutil.Pct(last, 0.95))
	}

	fmt.Printf("AUTHORS=%d POSTS=%d FOLLOW=%d READS=%d PAGE_SIZE=%d\n", AUTHORS, POSTS, FOLLOW, READS, cfg.Feed.PageSize)
	fmt.Printf("Create post latency: avg=%v p95=%v p99=%v\n", benchutil.Avg(pub), benchutil.Pct(pub, 0.95), benchutil.Pct(pub, 0.99))
	measure("index", func(page string) (*service.PostPage, error) { return feeds.Index(ctx, page) })
	measure("group", func(page string) (*service.PostPage, error) {
		f, err := feeds.Group(ctx, group.Slug, page)
		if err != nil {
			return nil, err
		}
		return f.Page, nil
	})
	measure("profile", func(page string) (*service.PostPage, error) {
		f, err := feeds.Profile(ctx, authors[0].Username, reader.ID, page)
		if err != nil {
			return nil, err
		}
		return f.Page, nil
	})
	measure("followed", func(page string) (*service.PostPage, error) { return feeds.Followed(ctx, reader.ID, page) })
}
