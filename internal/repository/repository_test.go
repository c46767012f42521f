package repository

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/pkg/database"
	"github.com/d60-Lab/yatube/pkg/pagination"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func mkUser(t *testing.T, db *gorm.DB, name string) *model.User {
	t.Helper()
	u := &model.User{Username: name, PasswordHash: "x"}
	require.NoError(t, db.Create(u).Error)
	return u
}

func TestFollowRepository_CreateIsIdempotent(t *testing.T) {
	db := setupDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()
	a, b := mkUser(t, db, "a"), mkUser(t, db, "b")

	created, err := repo.Create(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.Create(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, created)

	var cnt int64
	require.NoError(t, db.Model(&model.Follow{}).Count(&cnt).Error)
	assert.EqualValues(t, 1, cnt)

	ok, err := repo.Exists(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.Exists(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFollowRepository_SelfFollowRejectedByStorage(t *testing.T) {
	db := setupDB(t)
	repo := NewFollowRepository(db)
	a := mkUser(t, db, "a")

	_, err := repo.Create(context.Background(), a.ID, a.ID)
	assert.Error(t, err)
}

func TestFollowRepository_ListsAndCounts(t *testing.T) {
	db := setupDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()
	a, b, c := mkUser(t, db, "a"), mkUser(t, db, "b"), mkUser(t, db, "c")

	_, _ = repo.Create(ctx, a.ID, b.ID)
	_, _ = repo.Create(ctx, a.ID, c.ID)
	_, _ = repo.Create(ctx, c.ID, b.ID)

	followings, err := repo.ListFollowings(ctx, a.ID, 0, 10)
	require.NoError(t, err)
	require.Len(t, followings, 2)
	assert.Equal(t, "c", followings[0].Author.Username)

	followers, err := repo.ListFollowers(ctx, b.ID, 0, 10)
	require.NoError(t, err)
	require.Len(t, followers, 2)

	n, err := repo.CountFollowers(ctx, b.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	n, err = repo.CountFollowings(ctx, b.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)

	deleted, err := repo.Delete(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
	deleted, err = repo.Delete(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
	n, err = repo.CountFollowings(ctx, a.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestPostRepository_FeedOrderAndFilters(t *testing.T) {
	db := setupDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	a, b := mkUser(t, db, "a"), mkUser(t, db, "b")
	g := &model.Group{Title: "Тестовая группа", Slug: "slug"}
	require.NoError(t, db.Create(g).Error)

	same := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	p1 := &model.Post{Text: "first", AuthorID: a.ID, PubDate: same, GroupID: &g.ID}
	p2 := &model.Post{Text: "second", AuthorID: a.ID, PubDate: same}
	p3 := &model.Post{Text: "third", AuthorID: b.ID, PubDate: same.Add(-time.Hour), GroupID: &g.ID}
	for _, p := range []*model.Post{p1, p2, p3} {
		require.NoError(t, repo.Create(ctx, p))
	}

	all, err := repo.Find(ctx, PostFilter{}, pagination.New(3, "1", 10))
	require.NoError(t, err)
	require.Len(t, all, 3)
	// 相同 pub_date 按 id 倒序
	assert.Equal(t, []uint{p2.ID, p1.ID, p3.ID}, []uint{all[0].ID, all[1].ID, all[2].ID})
	assert.Equal(t, "a", all[0].Author.Username)

	inGroup, err := repo.Find(ctx, PostFilter{GroupID: &g.ID}, pagination.New(2, "1", 10))
	require.NoError(t, err)
	require.Len(t, inGroup, 2)
	for _, p := range inGroup {
		require.NotNil(t, p.GroupID)
		assert.Equal(t, g.ID, *p.GroupID)
		assert.Equal(t, "slug", p.Group.Slug)
	}

	n, err := repo.Count(ctx, PostFilter{AuthorID: &b.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	require.NoError(t, db.Create(&model.Follow{UserID: b.ID, AuthorID: a.ID}).Error)
	followed, err := repo.Find(ctx, PostFilter{FollowerID: &b.ID}, pagination.New(2, "1", 10))
	require.NoError(t, err)
	require.Len(t, followed, 2)
	for _, p := range followed {
		assert.Equal(t, a.ID, p.AuthorID)
	}
	n, err = repo.Count(ctx, PostFilter{FollowerID: &a.ID})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPostRepository_PagesPartitionFeed(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, total := range []int{0, 1, 9, 10, 11, 13, 27} {
		t.Run(strconv.Itoa(total), func(t *testing.T) {
			db := setupDB(t)
			repo := NewPostRepository(db)
			a := mkUser(t, db, "a")
			if total > 0 {
				posts := make([]*model.Post, total)
				for i := range posts {
					// 每两篇共用一个 pub_date，覆盖 id 排序
					posts[i] = &model.Post{Text: "p" + strconv.Itoa(i), AuthorID: a.ID, PubDate: base.Add(time.Duration(i/2) * time.Minute)}
				}
				require.NoError(t, db.CreateInBatches(posts, 100).Error)
			}

			want, err := repo.Find(ctx, PostFilter{}, pagination.New(int64(total), "1", total+1))
			require.NoError(t, err)
			require.Len(t, want, total)

			for _, size := range []int{1, 3, 10} {
				cnt, err := repo.Count(ctx, PostFilter{})
				require.NoError(t, err)
				first := pagination.New(cnt, "1", size)
				wantPages := (total + size - 1) / size
				if wantPages == 0 {
					wantPages = 1
				}
				require.Equal(t, wantPages, first.NumPages, "size %d", size)

				var got []uint
				for n := 1; n <= first.NumPages; n++ {
					w := pagination.New(cnt, strconv.Itoa(n), size)
					items, err := repo.Find(ctx, PostFilter{}, w)
					require.NoError(t, err)
					assert.Len(t, items, w.Limit(), "size %d page %d", size, n)
					for _, p := range items {
						got = append(got, p.ID)
					}
				}
				ids := make([]uint, 0, total)
				for _, p := range want {
					ids = append(ids, p.ID)
				}
				assert.Equal(t, ids, append([]uint{}, got...), "size %d", size)

				last, err := repo.Find(ctx, PostFilter{}, pagination.New(cnt, "99", size))
				require.NoError(t, err)
				tail, err := repo.Find(ctx, PostFilter{}, pagination.New(cnt, strconv.Itoa(first.NumPages), size))
				require.NoError(t, err)
				assert.Equal(t, tail, last)
			}
		})
	}
}

func TestPostRepository_UpdateKeepsPubDate(t *testing.T) {
	db := setupDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	a := mkUser(t, db, "a")
	pub := time.Date(2023, 5, 1, 8, 0, 0, 0, time.UTC)
	p := &model.Post{Text: "before", AuthorID: a.ID, PubDate: pub}
	require.NoError(t, repo.Create(ctx, p))

	p.Text = "after"
	p.PubDate = time.Now()
	require.NoError(t, repo.Update(ctx, p))

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "after", got.Text)
	assert.True(t, pub.Equal(got.PubDate))
}

func TestPostRepository_GetDetailNotFound(t *testing.T) {
	db := setupDB(t)
	_, err := NewPostRepository(db).GetDetail(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGroupRepository_DeleteNullsPostGroup(t *testing.T) {
	db := setupDB(t)
	groups := NewGroupRepository(db)
	posts := NewPostRepository(db)
	ctx := context.Background()
	a := mkUser(t, db, "a")
	g := &model.Group{Title: "g", Slug: "g"}
	require.NoError(t, groups.Create(ctx, g))
	p := &model.Post{Text: "t", AuthorID: a.ID, PubDate: time.Now(), GroupID: &g.ID}
	require.NoError(t, posts.Create(ctx, p))

	require.NoError(t, groups.DeleteBySlug(ctx, "g"))

	got, err := posts.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, got.GroupID)
	_, err = groups.GetBySlug(ctx, "g")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepository_DeleteCascadesPosts(t *testing.T) {
	db := setupDB(t)
	users := NewUserRepository(db)
	posts := NewPostRepository(db)
	comments := NewCommentRepository(db)
	ctx := context.Background()
	a, b := mkUser(t, db, "a"), mkUser(t, db, "b")
	p := &model.Post{Text: "t", AuthorID: a.ID, PubDate: time.Now()}
	require.NoError(t, posts.Create(ctx, p))
	require.NoError(t, comments.Create(ctx, &model.Comment{Text: "c", AuthorID: b.ID, PostID: p.ID, Created: time.Now()}))

	require.NoError(t, users.DeleteByUsername(ctx, "a"))

	n, err := posts.Count(ctx, PostFilter{})
	require.NoError(t, err)
	assert.Zero(t, n)
	list, err := comments.ListByPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}
