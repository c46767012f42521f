package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/d60-Lab/yatube/internal/media"
	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/repository"
	"github.com/d60-Lab/yatube/pkg/database"
)

type env struct {
	db     *gorm.DB
	users  UserService
	groups GroupService
	posts  PostService
	feeds  FeedService
	rel    RelationshipService

	mu     sync.Mutex
	events []Event
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db, err := database.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	e := &env{db: db}
	disp := NewDispatcher(0, func(_ context.Context, ev Event) {
		e.mu.Lock()
		e.events = append(e.events, ev)
		e.mu.Unlock()
	})

	userRepo := repository.NewUserRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	followRepo := repository.NewFollowRepository(db)
	postRepo := repository.NewPostRepository(db)

	e.users = NewUserService(userRepo)
	e.groups = NewGroupService(groupRepo)
	e.rel = NewRelationshipService(followRepo, userRepo, disp)
	e.feeds = NewFeedService(postRepo, groupRepo, userRepo, followRepo, e.rel, 10)

	ps := NewPostService(db, media.NewFSStore(t.TempDir(), "/media/", 1<<20), disp).(*postService)
	// 每次调用递增一秒，保证 pub_date 可区分
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var tick int
	ps.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	e.posts = ps
	return e
}

func (e *env) user(t *testing.T, name string) *model.User {
	t.Helper()
	u, err := e.users.Register(context.Background(), RegisterInput{Username: name, Password: "pass-" + name})
	require.NoError(t, err)
	return u
}

func (e *env) post(t *testing.T, author *model.User, text string, group *model.Group) *model.Post {
	t.Helper()
	in := PostInput{Text: text}
	if group != nil {
		in.GroupID = &group.ID
	}
	p, err := e.posts.Create(context.Background(), author.ID, in)
	require.NoError(t, err)
	return p
}

func (e *env) count(t *testing.T, m any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(m).Count(&n).Error)
	return n
}

func (e *env) kinds() []EventKind {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]EventKind, len(e.events))
	for i, ev := range e.events {
		out[i] = ev.Kind
	}
	return out
}

func TestFollow_Idempotent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a, b := e.user(t, "author"), e.user(t, "reader")

	res, err := e.rel.Follow(ctx, b.ID, a.Username)
	require.NoError(t, err)
	assert.Equal(t, FollowCreated, res)
	assert.NoError(t, res.Reason())

	res, err = e.rel.Follow(ctx, b.ID, a.Username)
	require.NoError(t, err)
	assert.Equal(t, FollowAlreadyExists, res)
	assert.ErrorIs(t, res.Reason(), ErrAlreadyFollowing)

	assert.EqualValues(t, 1, e.count(t, &model.Follow{}))
	assert.Equal(t, []EventKind{EventFollowed}, e.kinds())

	ok, err := e.rel.IsFollowing(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFollow_SelfIsRejected(t *testing.T) {
	e := newEnv(t)
	a := e.user(t, "author")

	res, err := e.rel.Follow(context.Background(), a.ID, a.Username)
	require.NoError(t, err)
	assert.Equal(t, FollowRejectedSelf, res)
	assert.ErrorIs(t, res.Reason(), ErrFollowSelf)
	assert.Zero(t, e.count(t, &model.Follow{}))
	assert.Empty(t, e.kinds())
}

func TestFollow_UnknownAuthor(t *testing.T) {
	e := newEnv(t)
	b := e.user(t, "reader")
	_, err := e.rel.Follow(context.Background(), b.ID, "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUnfollow_MissingEdgeIsNoop(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a, b := e.user(t, "author"), e.user(t, "reader")

	require.NoError(t, e.rel.Unfollow(ctx, b.ID, a.Username))
	assert.Zero(t, e.count(t, &model.Follow{}))

	_, err := e.rel.Follow(ctx, b.ID, a.Username)
	require.NoError(t, err)
	require.NoError(t, e.rel.Unfollow(ctx, b.ID, a.Username))
	require.NoError(t, e.rel.Unfollow(ctx, b.ID, a.Username))
	assert.Zero(t, e.count(t, &model.Follow{}))
	// 只有真正删除关注时才发事件
	assert.Equal(t, []EventKind{EventFollowed, EventUnfollowed}, e.kinds())
}

func TestListFollowingAndFollowers(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a, b, c := e.user(t, "a"), e.user(t, "b"), e.user(t, "c")
	for _, name := range []string{"b", "c"} {
		_, err := e.rel.Follow(ctx, a.ID, name)
		require.NoError(t, err)
	}
	_, err := e.rel.Follow(ctx, c.ID, "b")
	require.NoError(t, err)

	following, err := e.rel.ListFollowing(ctx, a.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, following, 2)
	assert.Equal(t, "c", following[0].Username)

	followers, err := e.rel.ListFollowers(ctx, b.ID, 0, 0)
	require.NoError(t, err)
	assert.Len(t, followers, 2)
}

func TestGroupFeed(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	author := e.user(t, "auth")
	g, err := e.groups.Create(ctx, "Тестовая группа", "slug", "Тестовое описание")
	require.NoError(t, err)

	inGroup := e.post(t, author, "Тестовый пост", g)
	e.post(t, author, "без группы", nil)

	feed, err := e.feeds.Group(ctx, "slug", "")
	require.NoError(t, err)
	assert.Equal(t, "Тестовая группа", feed.Group.Title)
	require.Len(t, feed.Page.Items, 1)
	assert.Equal(t, inGroup.ID, feed.Page.Items[0].ID)
	assert.Equal(t, "auth", feed.Page.Items[0].Author.Username)
	require.NotNil(t, feed.Page.Items[0].Group)
	assert.Equal(t, "slug", feed.Page.Items[0].Group.Slug)

	_, err = e.feeds.Group(ctx, "missing", "")
	assert.ErrorIs(t, err, ErrGroupNotFound)
}

func TestFollowedFeed(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a, b, c := e.user(t, "a"), e.user(t, "b"), e.user(t, "c")

	_, err := e.rel.Follow(ctx, b.ID, a.Username)
	require.NoError(t, err)
	p := e.post(t, a, "новая запись", nil)

	feedB, err := e.feeds.Followed(ctx, b.ID, "")
	require.NoError(t, err)
	require.Len(t, feedB.Items, 1)
	assert.Equal(t, p.ID, feedB.Items[0].ID)

	feedC, err := e.feeds.Followed(ctx, c.ID, "")
	require.NoError(t, err)
	assert.Empty(t, feedC.Items)
	assert.Equal(t, 1, feedC.NumPages)
}

func TestIndexPagination(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.user(t, "a")
	var last *model.Post
	for i := 0; i < 13; i++ {
		last = e.post(t, a, fmt.Sprintf("post %d", i), nil)
	}

	p1, err := e.feeds.Index(ctx, "")
	require.NoError(t, err)
	assert.Len(t, p1.Items, 10)
	assert.Equal(t, 2, p1.NumPages)
	assert.Equal(t, last.ID, p1.Items[0].ID)
	for i := 1; i < len(p1.Items); i++ {
		assert.False(t, p1.Items[i].PubDate.After(p1.Items[i-1].PubDate))
	}

	p2, err := e.feeds.Index(ctx, "2")
	require.NoError(t, err)
	assert.Len(t, p2.Items, 3)

	clamped, err := e.feeds.Index(ctx, "99")
	require.NoError(t, err)
	assert.Equal(t, 2, clamped.Number)
	assert.Len(t, clamped.Items, 3)
}

func TestProfileFeed(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a, b := e.user(t, "a"), e.user(t, "b")
	e.post(t, a, "one", nil)
	e.post(t, a, "two", nil)
	e.post(t, b, "other", nil)

	anon, err := e.feeds.Profile(ctx, "a", 0, "")
	require.NoError(t, err)
	assert.Len(t, anon.Page.Items, 2)
	assert.EqualValues(t, 2, anon.PostsCount)
	assert.False(t, anon.Following)

	_, err = e.rel.Follow(ctx, b.ID, "a")
	require.NoError(t, err)
	viewer, err := e.feeds.Profile(ctx, "a", b.ID, "")
	require.NoError(t, err)
	assert.True(t, viewer.Following)
	assert.EqualValues(t, 1, viewer.FollowersCount)

	self, err := e.feeds.Profile(ctx, "a", a.ID, "")
	require.NoError(t, err)
	assert.True(t, self.IsSelf)
	assert.False(t, self.Following)

	_, err = e.feeds.Profile(ctx, "ghost", 0, "")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

type countingRelationships struct {
	RelationshipService
	calls int
}

func (c *countingRelationships) IsFollowing(ctx context.Context, userID, authorID uint) (bool, error) {
	c.calls++
	return c.RelationshipService.IsFollowing(ctx, userID, authorID)
}

func TestProfileFeed_FollowingFlagFromRelationshipService(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a, b := e.user(t, "a"), e.user(t, "b")
	rels := &countingRelationships{RelationshipService: e.rel}
	feeds := NewFeedService(repository.NewPostRepository(e.db), repository.NewGroupRepository(e.db),
		repository.NewUserRepository(e.db), repository.NewFollowRepository(e.db), rels, 10)

	_, err := e.rel.Follow(ctx, b.ID, "a")
	require.NoError(t, err)
	f, err := feeds.Profile(ctx, "a", b.ID, "")
	require.NoError(t, err)
	assert.True(t, f.Following)
	assert.Equal(t, 1, rels.calls)

	require.NoError(t, e.rel.Unfollow(ctx, b.ID, "a"))
	f, err = feeds.Profile(ctx, "a", b.ID, "")
	require.NoError(t, err)
	assert.False(t, f.Following)

	f, err = feeds.Profile(ctx, "a", a.ID, "")
	require.NoError(t, err)
	assert.False(t, f.Following)
	assert.Equal(t, 3, rels.calls)
}

func TestPostService_CreateValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.user(t, "a")

	_, err := e.posts.Create(ctx, a.ID, PostInput{Text: "   "})
	assert.ErrorIs(t, err, ErrEmptyText)

	missing := uint(999)
	_, err = e.posts.Create(ctx, a.ID, PostInput{Text: "text", GroupID: &missing})
	assert.ErrorIs(t, err, ErrGroupNotFound)

	_, err = e.posts.Create(ctx, a.ID, PostInput{Text: "text", Image: strings.NewReader("not an image")})
	assert.ErrorIs(t, err, media.ErrNotImage)

	assert.Zero(t, e.count(t, &model.Post{}))
	assert.Empty(t, e.kinds())
}

func TestPostService_CreateWithImage(t *testing.T) {
	e := newEnv(t)
	a := e.user(t, "a")
	gif := []byte("GIF89a\x01\x00\x01\x00\x00\x00\x00;")

	p, err := e.posts.Create(context.Background(), a.ID, PostInput{Text: "pic", Image: bytes.NewReader(gif)})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(p.Image, "posts/"))
	assert.Equal(t, []EventKind{EventPostCreated}, e.kinds())
}

func TestPostService_AuthorizeAndEdit(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner, other := e.user(t, "owner"), e.user(t, "other")
	g, err := e.groups.Create(ctx, "G", "g", "")
	require.NoError(t, err)
	p := e.post(t, owner, "before", nil)

	access, _, err := e.posts.Authorize(ctx, other.ID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, AccessReadOnly, access)
	access, _, err = e.posts.Authorize(ctx, owner.ID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, AccessOwner, access)
	_, _, err = e.posts.Authorize(ctx, owner.ID, 12345)
	assert.ErrorIs(t, err, ErrPostNotFound)

	_, err = e.posts.Edit(ctx, other.ID, p.ID, PostInput{Text: "hijack"})
	assert.ErrorIs(t, err, ErrNotOwner)

	_, err = e.posts.Edit(ctx, owner.ID, p.ID, PostInput{Text: "after", GroupID: &g.ID})
	require.NoError(t, err)

	detail, err := e.posts.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "after", detail.Post.Text)
	require.NotNil(t, detail.Post.GroupID)
	assert.Equal(t, g.ID, *detail.Post.GroupID)
	assert.True(t, detail.Post.PubDate.Equal(p.PubDate))
	assert.EqualValues(t, 1, detail.AuthorPosts)
}

func TestPostService_AddComment(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a, b := e.user(t, "a"), e.user(t, "b")
	p := e.post(t, a, "post", nil)

	_, err := e.posts.AddComment(ctx, b.ID, p.ID, "  ")
	assert.ErrorIs(t, err, ErrEmptyText)
	assert.Zero(t, e.count(t, &model.Comment{}))

	_, err = e.posts.AddComment(ctx, b.ID, 777, "hi")
	assert.ErrorIs(t, err, ErrPostNotFound)

	_, err = e.posts.AddComment(ctx, b.ID, p.ID, "first")
	require.NoError(t, err)
	_, err = e.posts.AddComment(ctx, a.ID, p.ID, "second")
	require.NoError(t, err)

	detail, err := e.posts.Get(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, detail.Post.Comments, 2)
	assert.Equal(t, "first", detail.Post.Comments[0].Text)
	assert.Equal(t, "b", detail.Post.Comments[0].Author.Username)
}

func TestUserService(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.user(t, "leo")

	_, err := e.users.Register(ctx, RegisterInput{Username: "leo", Password: "x"})
	assert.ErrorIs(t, err, ErrUsernameTaken)

	u, err := e.users.Authenticate(ctx, "leo", "pass-leo")
	require.NoError(t, err)
	assert.Equal(t, "leo", u.Username)

	_, err = e.users.Authenticate(ctx, "leo", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = e.users.Authenticate(ctx, "nobody", "x")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, e.users.Delete(ctx, "leo"))
	_, err = e.users.GetByUsername(ctx, "leo")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestGroupService(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.groups.Create(ctx, "Bad", "not a slug", "")
	assert.ErrorIs(t, err, ErrInvalidSlug)
	_, err = e.groups.Create(ctx, " ", "ok", "")
	assert.ErrorIs(t, err, ErrEmptyTitle)

	_, err = e.groups.Create(ctx, "B", "b", "")
	require.NoError(t, err)
	_, err = e.groups.Create(ctx, "A", "a", "")
	require.NoError(t, err)
	_, err = e.groups.Create(ctx, "Again", "b", "")
	assert.ErrorIs(t, err, ErrSlugTaken)

	list, err := e.groups.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "A", list[0].Title)

	require.NoError(t, e.groups.Delete(ctx, "a"))
	assert.ErrorIs(t, e.groups.Delete(ctx, "a"), ErrGroupNotFound)
}

func TestDispatcher_Async(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []EventKind
	)
	d := NewDispatcher(16, func(_ context.Context, ev Event) {
		mu.Lock()
		seen = append(seen, ev.Kind)
		mu.Unlock()
	})
	stop := d.Start(2)
	for i := 0; i < 5; i++ {
		d.Publish(Event{Kind: EventPostCreated, PostID: uint(i + 1)})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, stop(ctx))

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, seen, 5)
}

func TestDispatcher_NilIsSafe(t *testing.T) {
	var d *Dispatcher
	assert.NotPanics(t, func() { d.Publish(Event{Kind: EventFollowed}) })
}
