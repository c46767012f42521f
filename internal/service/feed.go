package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/repository"
	"github.com/d60-Lab/yatube/pkg/pagination"
)

// PostPage 一页帖子
type PostPage = pagination.Page[*model.Post]

// GroupFeed 分组页
type GroupFeed struct {
	Group *model.Group
	Page  *PostPage
}

// ProfileFeed 作者主页；Following 表示当前访问者是否已关注
type ProfileFeed struct {
	Author         *model.User
	Page           *PostPage
	Following      bool
	IsSelf         bool
	PostsCount     int64
	FollowersCount int64
	FollowingCount int64
}

// FeedService 组装各类帖子流；排序统一为 pub_date 倒序、id 倒序
type FeedService interface {
	Index(ctx context.Context, rawPage string) (*PostPage, error)
	Group(ctx context.Context, slug, rawPage string) (*GroupFeed, error)
	// Profile viewerID 为 0 表示匿名访问
	Profile(ctx context.Context, username string, viewerID uint, rawPage string) (*ProfileFeed, error)
	Followed(ctx context.Context, userID uint, rawPage string) (*PostPage, error)
}

type feedService struct {
	posts    repository.PostRepository
	groups   repository.GroupRepository
	users    repository.UserRepository
	follows  repository.FollowRepository
	rels     RelationshipService
	pageSize int
}

func NewFeedService(posts repository.PostRepository, groups repository.GroupRepository, users repository.UserRepository, follows repository.FollowRepository, rels RelationshipService, pageSize int) FeedService {
	if pageSize <= 0 {
		pageSize = 10
	}
	return &feedService{posts: posts, groups: groups, users: users, follows: follows, rels: rels, pageSize: pageSize}
}

func (s *feedService) page(ctx context.Context, f repository.PostFilter, rawPage string) (*PostPage, error) {
	total, err := s.posts.Count(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("count posts: %w", err)
	}
	w := pagination.New(total, rawPage, s.pageSize)
	if w.Limit() == 0 {
		return pagination.NewPage[*model.Post](w, nil), nil
	}
	posts, err := s.posts.Find(ctx, f, w)
	if err != nil {
		return nil, fmt.Errorf("find posts: %w", err)
	}
	return pagination.NewPage(w, posts), nil
}

func (s *feedService) Index(ctx context.Context, rawPage string) (*PostPage, error) {
	return s.page(ctx, repository.PostFilter{}, rawPage)
}

func (s *feedService) Group(ctx context.Context, slug, rawPage string) (*GroupFeed, error) {
	g, err := s.groups.GetBySlug(ctx, slug)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrGroupNotFound
	}
	if err != nil {
		return nil, err
	}
	p, err := s.page(ctx, repository.PostFilter{GroupID: &g.ID}, rawPage)
	if err != nil {
		return nil, err
	}
	return &GroupFeed{Group: g, Page: p}, nil
}

func (s *feedService) Profile(ctx context.Context, username string, viewerID uint, rawPage string) (*ProfileFeed, error) {
	author, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	p, err := s.page(ctx, repository.PostFilter{AuthorID: &author.ID}, rawPage)
	if err != nil {
		return nil, err
	}
	feed := &ProfileFeed{Author: author, Page: p, PostsCount: p.Total, IsSelf: viewerID == author.ID}
	if feed.Following, err = s.rels.IsFollowing(ctx, viewerID, author.ID); err != nil {
		return nil, err
	}
	if feed.FollowersCount, err = s.follows.CountFollowers(ctx, author.ID); err != nil {
		return nil, err
	}
	if feed.FollowingCount, err = s.follows.CountFollowings(ctx, author.ID); err != nil {
		return nil, err
	}
	return feed, nil
}

func (s *feedService) Followed(ctx context.Context, userID uint, rawPage string) (*PostPage, error) {
	return s.page(ctx, repository.PostFilter{FollowerID: &userID}, rawPage)
}
