package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleUser  = "user"
	RoleOwner = "owner"
	RoleAdmin = "admin"
)

type Role struct {
	ID   uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"unique;not null" json:"name"`
}

type Profile struct {
	ID            uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
	Email         string         `gorm:"unique;not null" json:"email"`
	DisplayName   string         `json:"displayName"`
	Password      *string        `json:"-"`
	Provider      string         `gorm:"not null;default:'email'" json:"provider"`
	GoogleID      *string        `gorm:"unique" json:"-"`
	Avatar        string         `json:"avatar"`
	Role          Role           `json:"role" gorm:"foreignKey:RoleID"`
	RoleID        uint           `json:"roleId"`
	RefreshTokens []RefreshToken `json:"-" gorm:"foreignKey:ProfileID"`
	EmailVerified bool           `json:"emailVerified"`
}
