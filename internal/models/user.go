package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// User is a registered principal. Its friend set lives in friend_edges.
type User struct {
	BaseModel
	Name               string     `gorm:"type:varchar(255);not null;index" json:"name"`
	NameLower          string     `gorm:"type:varchar(255);not null;default:'';index" json:"-"`
	Email              string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash       string     `gorm:"type:varchar(255);not null" json:"-"`
	ResetCode          *string    `gorm:"type:varchar(16)" json:"-"`
	ResetCodeExpiresAt *time.Time `json:"-"`
}

// UserBasicInfo is the lightweight projection other principals may see.
type UserBasicInfo struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// FoldName is the case folding used for name search. It runs in Go so that
// accented names fold the same way on every database backend.
func FoldName(name string) string {
	return strings.ToLower(name)
}

// BeforeSave keeps NameLower in step with Name.
func (u *User) BeforeSave(tx *gorm.DB) error {
	u.NameLower = FoldName(u.Name)
	return nil
}

// TableName pins the users table name.
func (User) TableName() string {
	return "users"
}
