package model

import (
	"time"

	"QA_Community/internal/pkg"

	"gorm.io/gorm"
)

const (
	VisibilityPublic  = "PUBLIC"
	VisibilityPrivate = "PRIVATE"
)

const (
	RoleMember = 0
	RoleAdmin  = 1
)

type Community struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement:false" json:"id,string"`
	Name         string    `gorm:"size:128;not null" json:"name"`
	Description  string    `gorm:"type:text" json:"description"`
	Admin        string    `gorm:"size:64;not null;index" json:"admin"`
	Visibility   string    `gorm:"size:16;not null;default:PUBLIC" json:"visibility"`
	Participants []string  `gorm:"-" json:"participants"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (c *Community) BeforeCreate(_ *gorm.DB) error {
	if c.ID == 0 {
		c.ID = pkg.NewID()
	}
	return nil
}

// HasParticipant 管理员也算参与者
func (c *Community) HasParticipant(username string) bool {
	if username == c.Admin {
		return true
	}
	for _, p := range c.Participants {
		if p == username {
			return true
		}
	}
	return false
}

func (c *Community) IsPrivate() bool {
	return c.Visibility == VisibilityPrivate
}

type CommunityMember struct {
	ID          uint64 `gorm:"primaryKey"`
	CommunityID uint64 `gorm:"not null;index;uniqueIndex:uk_community_user"`
	Username    string `gorm:"size:64;not null;uniqueIndex:uk_community_user"`
	Role        int    `gorm:"not null;default:0"` // 0=member, 1=admin
	CreatedAt   time.Time
}
