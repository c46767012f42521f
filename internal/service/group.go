package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/repository"
)

var slugPattern = regexp.MustCompile(`^[-a-zA-Z0-9_]{1,50}$`)

type GroupService interface {
	List(ctx context.Context) ([]*model.Group, error)
	GetBySlug(ctx context.Context, slug string) (*model.Group, error)
	GetByID(ctx context.Context, id uint) (*model.Group, error)
	Create(ctx context.Context, title, slug, description string) (*model.Group, error)
	// Delete 删除分组，原分组下的帖子变为无分组
	Delete(ctx context.Context, slug string) error
}

type groupService struct {
	groups repository.GroupRepository
}

func NewGroupService(groups repository.GroupRepository) GroupService {
	return &groupService{groups: groups}
}

func (s *groupService) List(ctx context.Context) ([]*model.Group, error) {
	return s.groups.List(ctx)
}

func (s *groupService) GetBySlug(ctx context.Context, slug string) (*model.Group, error) {
	g, err := s.groups.GetBySlug(ctx, slug)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrGroupNotFound
	}
	return g, err
}

func (s *groupService) GetByID(ctx context.Context, id uint) (*model.Group, error) {
	g, err := s.groups.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrGroupNotFound
	}
	return g, err
}

func (s *groupService) Create(ctx context.Context, title, slug, description string) (*model.Group, error) {
	title = strings.TrimSpace(title)
	if title == "" || utf8.RuneCountInString(title) > 200 {
		return nil, ErrEmptyTitle
	}
	if !slugPattern.MatchString(slug) {
		return nil, ErrInvalidSlug
	}
	_, err := s.groups.GetBySlug(ctx, slug)
	if err == nil {
		return nil, ErrSlugTaken
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	g := &model.Group{Title: title, Slug: slug, Description: strings.TrimSpace(description)}
	if err := s.groups.Create(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

func (s *groupService) Delete(ctx context.Context, slug string) error {
	err := s.groups.DeleteBySlug(ctx, slug)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrGroupNotFound
	}
	return err
}
