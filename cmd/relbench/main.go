package main

import (
	"context"
	"fmt"
	"time"

	"github.com/d60-Lab/yatube/config"
	"github.com/d60-Lab/yatube/internal/benchutil"
	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/repository"
	"github.com/d60-Lab/yatube/internal/service"
	"github.com/d60-Lab/yatube/pkg/database"
)

// relbench: N 个用户并发关注同一个作者，统计关注延迟、事件落地延迟和列表查询耗时
func main() {
	cfg := benchutil.Must(config.Load())
	db := benchutil.Must(database.InitDB(cfg))
	ctx := context.Background()

	N := benchutil.EnvInt("N", 10000)
	CONC := benchutil.EnvInt("CONC", 1)
	PAGE := benchutil.EnvInt("PAGE", 50)

	userRepo := repository.NewUserRepository(db)
	followRepo := repository.NewFollowRepository(db)
	events := service.NewDispatcher(100000)
	stop := events.Start(8)
	relSvc := service.NewRelationshipService(followRepo, userRepo, events)

	// 先清理上一次运行的数据
	benchutil.MustDo(benchutil.CleanupUsers(db, "relbench_"))

	celeb := model.User{Username: "relbench_celeb", PasswordHash: "x"}
	benchutil.MustDo(db.Create(&celeb).Error)
	users := make([]model.User, N)
	for i := range users {
		users[i] = model.User{Username: fmt.Sprintf("relbench_%d", i), PasswordHash: "x"}
	}
	benchutil.MustDo(db.CreateInBatches(&users, 1000).Error)

	landing := make([]time.Duration, 0, N)
	doneLanding := make(chan struct{})
	landed := make(chan struct{})
	go func() {
		defer close(landed)
		for {
			select {
			case d := <-events.Metrics():
				landing = append(landing, d)
			case <-doneLanding:
				return
			}
		}
	}()

	maxQ := 0
	quitSample := make(chan struct{})
	sampled := make(chan struct{})
	go func() {
		defer close(sampled)
		ticker := time.NewTicker(50 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if q := events.QueueLen(); q > maxQ {
					maxQ = q
				}
			case <-quitSample:
				return
			}
		}
	}()

	workers := CONC
	if workers > N {
		workers = N
	}
	if workers < 1 {
		workers = 1
	}
	feed := make(chan int, N)
	for i := 0; i < N; i++ {
		feed <- i
	}
	close(feed)
	latCh := make(chan time.Duration, N)
	doneCh := make(chan struct{}, workers)

	t0 := time.Now()
	for w := 0; w < workers; w++ {
		go func() {
			for i := range feed {
				st := time.Now()
				_, _ = relSvc.Follow(ctx, users[i].ID, celeb.Username)
				latCh <- time.Since(st)
			}
			doneCh <- struct{}{}
		}()
	}
	for w := 0; w < workers; w++ {
		<-doneCh
	}
	close(latCh)
	followDur := time.Since(t0)
	close(quitSample)
	<-sampled
	lat := make([]time.Duration, 0, N)
	for d := range latCh {
		lat = append(lat, d)
	}

	// 再关注一次：全部走 AlreadyExists 分支
	t1 := time.Now()
	already := 0
	for i := 0; i < N; i++ {
		if res, _ := relSvc.Follow(ctx, users[i].ID, celeb.Username); res == service.FollowAlreadyExists {
			already++
		}
	}
	repeatDur := time.Since(t1)

	q0 := time.Now()
	_, _ = relSvc.ListFollowers(ctx, celeb.ID, 1, PAGE)
	followersDur := time.Since(q0)
	q1 := time.Now()
	_, _ = relSvc.ListFollowing(ctx, users[0].ID, 1, PAGE)
	followingDur := time.Since(q1)
	cnt, _ := followRepo.CountFollowers(ctx, celeb.ID)

	drainStart := time.Now()
	_ = stop(context.Background())
	drainDur := time.Since(drainStart)
	close(doneLanding)
	<-landed

	fmt.Printf("N=%d, CONC=%d, PAGE=%d, followers=%d\n", N, CONC, PAGE, cnt)
	fmt.Printf("Follow latency total: %v, per op: %v, p50: %v, p95: %v, p99: %v\n",
		followDur, followDur/time.Duration(N), benchutil.Pct(lat, 0.50), benchutil.Pct(lat, 0.95), benchutil.Pct(lat, 0.99))
	fmt.Printf("Repeat follow (already=%d) total: %v, per op: %v\n", already, repeatDur, repeatDur/time.Duration(N))
	fmt.Printf("Query followers(%d) latency: %v\n", PAGE, followersDur)
	fmt.Printf("Query following(%d) latency: %v\n", PAGE, followingDur)
	if len(landing) > 0 {
		fmt.Printf("Event landing: samples=%d, p50=%v, p95=%v, p99=%v, maxQueue=%d, drain=%v\n",
			len(landing), benchutil.Pct(landing, 0.50), benchutil.Pct(landing, 0.95), benchutil.Pct(landing, 0.99), maxQ, drainDur)
	}
}
