package model

// Follow 关注关系（User 关注 Author）
type Follow struct {
	ID       uint  `json:"id" gorm:"primaryKey"`
	UserID   uint  `json:"user_id" gorm:"not null;index:idx_follow_user;uniqueIndex:idx_follow_pair"`
	User     *User `json:"-" gorm:"constraint:OnDelete:CASCADE;"`
	AuthorID uint  `json:"author_id" gorm:"not null;index:idx_follow_author;uniqueIndex:idx_follow_pair;check:chk_follow_not_self,user_id <> author_id"`
	Author   *User `json:"-" gorm:"constraint:OnDelete:CASCADE;"`
	// 复合唯一键，避免重复关注
	// idx_follow_pair = (user_id, author_id)
}

func (Follow) TableName() string { return "follows" }

// All 返回需要迁移的全部模型
func All() []any {
	return []any{&User{}, &Group{}, &Post{}, &Comment{}, &Follow{}}
}
