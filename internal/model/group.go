package model

// Group 帖子分组，由管理员创建
type Group struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	Title       string `json:"title" gorm:"type:varchar(200);not null"`
	Slug        string `json:"slug" gorm:"type:varchar(50);uniqueIndex;not null"`
	Description string `json:"description" gorm:"type:text"`
}

func (Group) TableName() string { return "groups" }

func (g *Group) String() string { return "Группа " + g.Title }
