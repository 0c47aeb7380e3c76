package domain

import (
	"time"
)

type User struct {
	ID           int64     `gorm:"primaryKey;autoIncrement:false" json:"id,string"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	LastLogin    time.Time `json:"lastLogin"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// TableName Specify table name
func (User) TableName() string {
	return "users"
}

// Identity is what a verified session token proves.
type Identity struct {
	UserID int64
	Email  string
}
