package model

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User 站点用户（作者 / 订阅者）
type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Username     string    `json:"username" gorm:"type:varchar(150);uniqueIndex;not null"`
	Email        string    `json:"email" gorm:"type:varchar(254)"`
	PasswordHash string    `json:"-" gorm:"type:varchar(128);not null"`
	FirstName    string    `json:"first_name" gorm:"type:varchar(150)"`
	LastName     string    `json:"last_name" gorm:"type:varchar(150)"`
	CreatedAt    time.Time `json:"created_at"`
}

func (User) TableName() string { return "users" }

// SetPassword 使用 bcrypt 保存口令哈希
func (u *User) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// FullName 没有姓名时退回用户名
func (u *User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.LastName != "":
		return u.LastName
	}
	return u.Username
}
