package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/pkg/pagination"
)

// PostFilter 帖子列表过滤条件，字段为 nil 表示不过滤
type PostFilter struct {
	GroupID *uint
	// AuthorID 指定作者
	AuthorID *uint
	// FollowerID 只取该用户关注的作者的帖子
	FollowerID *uint
}

// PostRepository 帖子仓储接口
type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	// Update 只更新 text/group_id/image，pub_date 不变
	Update(ctx context.Context, post *model.Post) error
	GetByID(ctx context.Context, id uint) (*model.Post, error)
	// GetDetail 带作者、分组和按时间正序的评论
	GetDetail(ctx context.Context, id uint) (*model.Post, error)
	Count(ctx context.Context, f PostFilter) (int64, error)
	// Find 按 pub_date 倒序、id 倒序取一页
	Find(ctx context.Context, f PostFilter, w pagination.Window) ([]*model.Post, error)
}

type postRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) PostRepository { return &postRepository{db: db} }

func (r *postRepository) Create(ctx context.Context, post *model.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *postRepository) Update(ctx context.Context, post *model.Post) error {
	return r.db.WithContext(ctx).
		Model(&model.Post{ID: post.ID}).
		Select("text", "group_id", "image").
		Updates(map[string]any{"text": post.Text, "group_id": post.GroupID, "image": post.Image}).Error
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*model.Post, error) {
	var p model.Post
	if err := r.db.WithContext(ctx).Preload("Author").Preload("Group").First(&p, id).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *postRepository) GetDetail(ctx context.Context, id uint) (*model.Post, error) {
	var p model.Post
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Group").
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("comments.created ASC, comments.id ASC")
		}).
		Preload("Comments.Author").
		First(&p, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *postRepository) Count(ctx context.Context, f PostFilter) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&model.Post{}).Scopes(f.scope).Count(&cnt).Error
	return cnt, err
}

func (r *postRepository) Find(ctx context.Context, f PostFilter, w pagination.Window) ([]*model.Post, error) {
	var posts []*model.Post
	err := r.db.WithContext(ctx).
		Model(&model.Post{}).
		Scopes(f.scope, w.Scope).
		Preload("Author").
		Preload("Group").
		Order(model.FeedOrder).
		Find(&posts).Error
	return posts, err
}

func (f PostFilter) scope(db *gorm.DB) *gorm.DB {
	if f.GroupID != nil {
		db = db.Where("posts.group_id = ?", *f.GroupID)
	}
	if f.AuthorID != nil {
		db = db.Where("posts.author_id = ?", *f.AuthorID)
	}
	if f.FollowerID != nil {
		sub := db.Session(&gorm.Session{NewDB: true}).
			Model(&model.Follow{}).
			Select("author_id").
			Where("user_id = ?", *f.FollowerID)
		db = db.Where("posts.author_id IN (?)", sub)
	}
	return db
}
