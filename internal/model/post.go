package model

import "time"

// Post 帖子；pub_date 只在创建时写入
type Post struct {
	ID       uint      `json:"id" gorm:"primaryKey"`
	Text     string    `json:"text" gorm:"type:text;not null"`
	PubDate  time.Time `json:"pub_date" gorm:"<-:create;not null;index:idx_post_pub_date"`
	AuthorID uint      `json:"author_id" gorm:"not null;index:idx_post_author"`
	Author   *User     `json:"author,omitempty" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	// 分组删除时置空
	GroupID  *uint     `json:"group_id" gorm:"index:idx_post_group"`
	Group    *Group    `json:"group,omitempty" gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"`
	Image    string    `json:"image,omitempty" gorm:"type:varchar(255)"`
	Comments []Comment `json:"comments,omitempty"`
}

func (Post) TableName() string { return "posts" }

// Excerpt 前 15 个字符，用于日志与标题
func (p *Post) Excerpt() string {
	r := []rune(p.Text)
	if len(r) > 15 {
		return string(r[:15])
	}
	return p.Text
}

// FeedOrder 帖子默认排序：pub_date 倒序，相同时间按主键倒序
const FeedOrder = "posts.pub_date DESC, posts.id DESC"
