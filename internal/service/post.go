package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/yatube/internal/media"
	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/repository"
	"github.com/d60-Lab/yatube/pkg/logger"
)

// Access 编辑权限判定结果
type Access int

const (
	AccessOwner Access = iota + 1
	// AccessReadOnly 非作者，界面层重定向到帖子详情
	AccessReadOnly
)

// PostInput 创建/编辑帖子的表单数据
type PostInput struct {
	Text    string
	GroupID *uint
	// Image 为空表示不上传（编辑时保留原图）
	Image io.Reader
}

// PostDetail 帖子详情页数据
type PostDetail struct {
	Post        *model.Post
	AuthorPosts int64
}

type PostService interface {
	Create(ctx context.Context, authorID uint, in PostInput) (*model.Post, error)
	Get(ctx context.Context, postID uint) (*PostDetail, error)
	Authorize(ctx context.Context, editorID, postID uint) (Access, *model.Post, error)
	Edit(ctx context.Context, editorID, postID uint, in PostInput) (*model.Post, error)
	AddComment(ctx context.Context, authorID, postID uint, text string) (*model.Comment, error)
	CountByAuthor(ctx context.Context, authorID uint) (int64, error)
}

type postService struct {
	db     *gorm.DB
	posts  repository.PostRepository
	events *Dispatcher
	images media.Store
	now    func() time.Time
}

func NewPostService(db *gorm.DB, images media.Store, events *Dispatcher) PostService {
	return &postService{
		db:     db,
		posts:  repository.NewPostRepository(db),
		events: events,
		images: images,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Create 在一个事务内校验分组并写入帖子，pub_date 取当前时间
func (s *postService) Create(ctx context.Context, authorID uint, in PostInput) (*model.Post, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, ErrEmptyText
	}
	image, err := s.saveImage(ctx, in.Image)
	if err != nil {
		return nil, err
	}

	post := &model.Post{Text: text, PubDate: s.now(), AuthorID: authorID, GroupID: in.GroupID, Image: image}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkGroup(ctx, tx, in.GroupID); err != nil {
			return err
		}
		return repository.NewPostRepository(tx).Create(ctx, post)
	})
	if err != nil {
		s.dropImage(ctx, image)
		return nil, err
	}

	logger.Debug("post created", zap.Uint("post", post.ID), zap.Uint("author", authorID), zap.String("excerpt", post.Excerpt()))
	s.events.Publish(Event{Kind: EventPostCreated, PostID: post.ID, AuthorID: authorID})
	return post, nil
}

func (s *postService) Get(ctx context.Context, postID uint) (*PostDetail, error) {
	p, err := s.posts.GetDetail(ctx, postID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, err
	}
	cnt, err := s.CountByAuthor(ctx, p.AuthorID)
	if err != nil {
		return nil, err
	}
	return &PostDetail{Post: p, AuthorPosts: cnt}, nil
}

// Authorize 只有作者可以编辑
func (s *postService) Authorize(ctx context.Context, editorID, postID uint) (Access, *model.Post, error) {
	p, err := s.posts.GetByID(ctx, postID)
	if errors.Is(err, repository.ErrNotFound) {
		return 0, nil, ErrPostNotFound
	}
	if err != nil {
		return 0, nil, err
	}
	if editorID == 0 || p.AuthorID != editorID {
		return AccessReadOnly, p, nil
	}
	return AccessOwner, p, nil
}

// Edit 修改正文、分组和图片；pub_date 保持不变
func (s *postService) Edit(ctx context.Context, editorID, postID uint, in PostInput) (*model.Post, error) {
	access, p, err := s.Authorize(ctx, editorID, postID)
	if err != nil {
		return nil, err
	}
	if access != AccessOwner {
		return nil, ErrNotOwner
	}
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, ErrEmptyText
	}
	image := p.Image
	if in.Image != nil {
		if image, err = s.saveImage(ctx, in.Image); err != nil {
			return nil, err
		}
	}

	old := p.Image
	p.Text, p.GroupID, p.Image = text, in.GroupID, image
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkGroup(ctx, tx, in.GroupID); err != nil {
			return err
		}
		return repository.NewPostRepository(tx).Update(ctx, p)
	})
	if err != nil {
		if image != old {
			s.dropImage(ctx, image)
		}
		return nil, err
	}
	if image != old {
		s.dropImage(ctx, old)
	}

	s.events.Publish(Event{Kind: EventPostEdited, PostID: p.ID, AuthorID: p.AuthorID})
	return p, nil
}

func (s *postService) AddComment(ctx context.Context, authorID, postID uint, text string) (*model.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}
	c := &model.Comment{Text: text, Created: s.now(), AuthorID: authorID, PostID: postID}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := repository.NewPostRepository(tx).GetByID(ctx, postID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrPostNotFound
			}
			return err
		}
		return repository.NewCommentRepository(tx).Create(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	s.events.Publish(Event{Kind: EventCommentAdded, PostID: postID, UserID: authorID})
	return c, nil
}

func (s *postService) CountByAuthor(ctx context.Context, authorID uint) (int64, error) {
	return s.posts.Count(ctx, repository.PostFilter{AuthorID: &authorID})
}

func (s *postService) saveImage(ctx context.Context, r io.Reader) (string, error) {
	if r == nil {
		return "", nil
	}
	if s.images == nil {
		return "", errors.New("image uploads are not configured")
	}
	rel, err := s.images.SaveImage(ctx, r)
	if err != nil {
		return "", fmt.Errorf("save image: %w", err)
	}
	return rel, nil
}

func (s *postService) dropImage(ctx context.Context, rel string) {
	if rel == "" || s.images == nil {
		return
	}
	if err := s.images.Delete(ctx, rel); err != nil {
		logger.Warn("remove image failed", zap.String("image", rel), zap.Error(err))
	}
}

func checkGroup(ctx context.Context, tx *gorm.DB, groupID *uint) error {
	if groupID == nil {
		return nil
	}
	_, err := repository.NewGroupRepository(tx).GetByID(ctx, *groupID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrGroupNotFound
	}
	return err
}
