package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/repository"
)

// FollowResult 关注操作的结果；界面层可以忽略差异
type FollowResult int

const (
	FollowCreated FollowResult = iota + 1
	FollowAlreadyExists
	FollowRejectedSelf
)

// Reason 非新建时返回原因
func (r FollowResult) Reason() error {
	switch r {
	case FollowAlreadyExists:
		return ErrAlreadyFollowing
	case FollowRejectedSelf:
		return ErrFollowSelf
	}
	return nil
}

func (r FollowResult) String() string {
	switch r {
	case FollowCreated:
		return "created"
	case FollowAlreadyExists:
		return "already_following"
	case FollowRejectedSelf:
		return "self_follow"
	}
	return "unknown"
}

// RelationshipService 关系链服务
type RelationshipService interface {
	Follow(ctx context.Context, userID uint, authorUsername string) (FollowResult, error)
	Unfollow(ctx context.Context, userID uint, authorUsername string) error
	IsFollowing(ctx context.Context, userID, authorID uint) (bool, error)
	ListFollowing(ctx context.Context, userID uint, page, pageSize int) ([]*model.User, error)
	ListFollowers(ctx context.Context, authorID uint, page, pageSize int) ([]*model.User, error)
}

type relationshipService struct {
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
	events     *Dispatcher
}

func NewRelationshipService(followRepo repository.FollowRepository, userRepo repository.UserRepository, events *Dispatcher) RelationshipService {
	return &relationshipService{followRepo: followRepo, userRepo: userRepo, events: events}
}

func (s *relationshipService) author(ctx context.Context, username string) (*model.User, error) {
	u, err := s.userRepo.GetByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load author %q: %w", username, err)
	}
	return u, nil
}

func (s *relationshipService) Follow(ctx context.Context, userID uint, authorUsername string) (FollowResult, error) {
	author, err := s.author(ctx, authorUsername)
	if err != nil {
		return 0, err
	}
	if author.ID == userID {
		return FollowRejectedSelf, nil
	}
	exists, err := s.followRepo.Exists(ctx, userID, author.ID)
	if err != nil {
		return 0, err
	}
	if exists {
		return FollowAlreadyExists, nil
	}
	// 预检查之后仍可能并发插入，唯一键冲突按已关注处理
	created, err := s.followRepo.Create(ctx, userID, author.ID)
	if err != nil {
		return 0, err
	}
	if !created {
		return FollowAlreadyExists, nil
	}
	s.events.Publish(Event{Kind: EventFollowed, UserID: userID, AuthorID: author.ID})
	return FollowCreated, nil
}

func (s *relationshipService) Unfollow(ctx context.Context, userID uint, authorUsername string) error {
	author, err := s.author(ctx, authorUsername)
	if err != nil {
		return err
	}
	deleted, err := s.followRepo.Delete(ctx, userID, author.ID)
	if err != nil {
		return err
	}
	if deleted {
		s.events.Publish(Event{Kind: EventUnfollowed, UserID: userID, AuthorID: author.ID})
	}
	return nil
}

func (s *relationshipService) IsFollowing(ctx context.Context, userID, authorID uint) (bool, error) {
	if userID == 0 || userID == authorID {
		return false, nil
	}
	return s.followRepo.Exists(ctx, userID, authorID)
}

func (s *relationshipService) ListFollowing(ctx context.Context, userID uint, page, pageSize int) ([]*model.User, error) {
	offset, limit := bounds(page, pageSize)
	items, err := s.followRepo.ListFollowings(ctx, userID, offset, limit)
	if err != nil {
		return nil, err
	}
	res := make([]*model.User, len(items))
	for i, it := range items {
		res[i] = it.Author
	}
	return res, nil
}

func (s *relationshipService) ListFollowers(ctx context.Context, authorID uint, page, pageSize int) ([]*model.User, error) {
	offset, limit := bounds(page, pageSize)
	items, err := s.followRepo.ListFollowers(ctx, authorID, offset, limit)
	if err != nil {
		return nil, err
	}
	res := make([]*model.User, len(items))
	for i, it := range items {
		res[i] = it.User
	}
	return res, nil
}

func bounds(page, pageSize int) (offset, limit int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	return (page - 1) * pageSize, pageSize
}
