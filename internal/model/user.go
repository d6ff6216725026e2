package model

import (
	"time"

	"QA_Community/internal/pkg"

	"gorm.io/gorm"
)

type User struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement:false" json:"id,string"`
	Username  string    `gorm:"uniqueIndex;size:64;not null" json:"username"`
	Password  string    `gorm:"size:255;not null" json:"-"`
	Email     string    `gorm:"uniqueIndex;size:128;not null" json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == 0 {
		u.ID = pkg.NewID()
	}
	return nil
}
