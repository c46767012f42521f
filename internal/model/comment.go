package model

import "time"

// Comment 帖子评论，随帖子一起删除
type Comment struct {
	ID       uint      `json:"id" gorm:"primaryKey"`
	Text     string    `json:"text" gorm:"type:text;not null"`
	Created  time.Time `json:"created" gorm:"<-:create;not null;index:idx_comment_post_created,priority:2"`
	AuthorID uint      `json:"author_id" gorm:"not null"`
	Author   *User     `json:"author,omitempty" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	PostID   uint      `json:"post_id" gorm:"not null;index:idx_comment_post_created,priority:1"`
	Post     *Post     `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (Comment) TableName() string { return "comments" }
