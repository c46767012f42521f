package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/yatube/pkg/logger"
)

type EventKind int

const (
	EventPostCreated EventKind = iota + 1
	EventPostEdited
	EventCommentAdded
	EventFollowed
	EventUnfollowed
)

func (k EventKind) String() string {
	switch k {
	case EventPostCreated:
		return "post_created"
	case EventPostEdited:
		return "post_edited"
	case EventCommentAdded:
		return "comment_added"
	case EventFollowed:
		return "followed"
	case EventUnfollowed:
		return "unfollowed"
	}
	return "unknown"
}

// Event 写操作完成后发出的领域事件
type Event struct {
	Kind     EventKind
	PostID   uint
	UserID   uint
	AuthorID uint
	At       time.Time
}

// Hook 事件处理函数，不能阻塞太久
type Hook func(ctx context.Context, ev Event)

// Dispatcher 本地异步事件分发（有界队列 + 若干 worker）。
// queueSize <= 0 时同步调用 hook。
type Dispatcher struct {
	hooks     []Hook
	ch        chan Event
	metricsCh chan time.Duration
}

func NewDispatcher(queueSize int, hooks ...Hook) *Dispatcher {
	d := &Dispatcher{hooks: hooks, metricsCh: make(chan time.Duration, 1024)}
	if queueSize > 0 {
		d.ch = make(chan Event, queueSize)
	}
	return d
}

// Register 在 Start 之前注册 hook
func (d *Dispatcher) Register(h Hook) { d.hooks = append(d.hooks, h) }

// Start 启动 worker；返回的 stop 会先等待队列排空（最多到 ctx 超时）
func (d *Dispatcher) Start(workers int) func(context.Context) error {
	if d.ch == nil {
		return func(context.Context) error { return nil }
	}
	if workers <= 0 {
		workers = 2
	}
	stopCh := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for {
				select {
				case ev := <-d.ch:
					d.deliver(ev)
				case <-stopCh:
					return
				}
			}
		}()
	}
	return func(ctx context.Context) error {
		ticker := time.NewTicker(20 * time.Millisecond)
		defer ticker.Stop()
	drain:
		for len(d.ch) > 0 {
			select {
			case <-ctx.Done():
				logger.Warn("event queue not drained before shutdown", zap.Int("pending", len(d.ch)))
				break drain
			case <-ticker.C:
			}
		}
		close(stopCh)
		wg.Wait()
		return nil
	}
}

// Publish 投递事件；队列满时丢弃并告警
func (d *Dispatcher) Publish(ev Event) {
	if d == nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	if d.ch == nil {
		d.deliver(ev)
		return
	}
	select {
	case d.ch <- ev:
	default:
		logger.Warn("event queue full, drop", zap.Stringer("kind", ev.Kind), zap.Uint("post", ev.PostID))
	}
}

func (d *Dispatcher) deliver(ev Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, h := range d.hooks {
		h(ctx, ev)
	}
	select {
	case d.metricsCh <- time.Since(ev.At):
	default:
	}
}

// Metrics 返回事件从发布到处理完成的耗时
func (d *Dispatcher) Metrics() <-chan time.Duration { return d.metricsCh }

// QueueLen 返回当前队列长度（采样值）。
func (d *Dispatcher) QueueLen() int {
	if d == nil {
		return 0
	}
	return len(d.ch)
}
