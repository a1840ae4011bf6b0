package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User 用户表 — 对应 users
type User struct {
	UserID       string  `gorm:"type:varchar(36);primaryKey"                         json:"user_id"`
	Username     string  `gorm:"type:varchar(50);not null;uniqueIndex:ux_users_username" json:"username"`
	Email        string  `gorm:"type:varchar(100);not null;uniqueIndex:ux_users_email"   json:"email"`
	PasswordHash string  `gorm:"type:varchar(255);not null"                          json:"-"`
	IsAdmin      bool    `gorm:"not null;default:false"                              json:"is_admin"`
	IsVerified   bool    `gorm:"not null;default:false"                              json:"is_verified"`
	VerifyToken  *string `gorm:"type:varchar(100);index:ix_users_verify_token"       json:"-"`
	ResetToken   *string `gorm:"type:varchar(100);index:ix_users_reset_token"        json:"-"`
	BaseModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// BeforeCreate 生成主键
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.UserID == "" {
		u.UserID = uuid.NewString()
	}
	return nil
}

// Role JWT 中使用的角色名
func (u *User) Role() string {
	if u.IsAdmin {
		return "admin"
	}
	return "member"
}
