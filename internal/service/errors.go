package service

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrGroupNotFound      = errors.New("group not found")
	ErrPostNotFound       = errors.New("post not found")
	ErrFollowSelf         = errors.New("cannot follow self")
	ErrAlreadyFollowing   = errors.New("already following")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrSlugTaken          = errors.New("group slug already taken")
	ErrInvalidSlug        = errors.New("slug may contain only latin letters, digits, hyphens and underscores")
	ErrEmptyText          = errors.New("text must not be empty")
	ErrEmptyTitle         = errors.New("title must be between 1 and 200 characters")
	ErrNotOwner           = errors.New("only the author can edit the post")
)
