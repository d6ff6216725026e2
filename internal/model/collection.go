package model

import (
	"time"

	"QA_Community/internal/pkg"

	"gorm.io/gorm"
)

type Collection struct {
	ID          uint64     `gorm:"primaryKey;autoIncrement:false" json:"id,string"`
	Name        string     `gorm:"size:128;not null" json:"name"`
	Description string     `gorm:"type:text" json:"description"`
	Username    string     `gorm:"size:64;not null;index" json:"username"`
	IsPrivate   bool       `gorm:"not null;default:false" json:"isPrivate"`
	Questions   []Question `gorm:"-" json:"questions"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (c *Collection) BeforeCreate(_ *gorm.DB) error {
	if c.ID == 0 {
		c.ID = pkg.NewID()
	}
	return nil
}

// CollectionQuestion 收藏夹与问题的关联，按 ID 保持插入顺序
type CollectionQuestion struct {
	ID           uint64 `gorm:"primaryKey"`
	CollectionID uint64 `gorm:"not null;index;uniqueIndex:uk_collection_question"`
	QuestionID   uint64 `gorm:"not null;uniqueIndex:uk_collection_question"`
	CreatedAt    time.Time
}
