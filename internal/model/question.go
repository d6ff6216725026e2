package model

import (
	"time"

	"QA_Community/internal/pkg"

	"gorm.io/gorm"
)

type Question struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement:false" json:"id,string"`
	CommunityID uint64    `gorm:"index:idx_community_question,priority:1" json:"communityId,string,omitempty"`
	Title       string    `gorm:"size:200;not null" json:"title"`
	Text        string    `gorm:"type:text" json:"text"`
	AskedBy     string    `gorm:"size:64;not null;index" json:"askedBy"`
	Views       int64     `gorm:"not null;default:0" json:"views"`
	UpVotes     []string  `gorm:"-" json:"upVotes"`
	AskDateTime time.Time `gorm:"index:idx_community_question,priority:2" json:"askDateTime"`
}

func (q *Question) BeforeCreate(_ *gorm.DB) error {
	if q.ID == 0 {
		q.ID = pkg.NewID()
	}
	if q.AskDateTime.IsZero() {
		q.AskDateTime = time.Now()
	}
	return nil
}

type QuestionVote struct {
	ID         uint64 `gorm:"primaryKey"`
	QuestionID uint64 `gorm:"not null;index;uniqueIndex:uk_question_user"`
	Username   string `gorm:"size:64;not null;uniqueIndex:uk_question_user"`
	CreatedAt  time.Time
}
