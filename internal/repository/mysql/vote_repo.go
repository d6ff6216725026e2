package mysql

import (
	"context"

	"QA_Community/internal/model"

	"gorm.io/gorm"
)

type VoteRepository struct {
	DB *gorm.DB
}

func NewVoteRepository(db *gorm.DB) *VoteRepository {
	return &VoteRepository{DB: db}
}

// Toggle 已投票则撤销，否则投票；返回 true 表示当前为已投票
func (r *VoteRepository) Toggle(ctx context.Context, questionID uint64, username string) (bool, error) {
	var voted bool
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("question_id = ? AND username = ?", questionID, username).
			Delete(&model.QuestionVote{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			voted = false
			return nil
		}
		if err := tx.Create(&model.QuestionVote{QuestionID: questionID, Username: username}).Error; err != nil {
			return err
		}
		voted = true
		return nil
	})
	return voted, err
}

func (r *VoteRepository) Voters(ctx context.Context, questionID uint64) ([]string, error) {
	names := []string{}
	err := r.DB.WithContext(ctx).Model(&model.QuestionVote{}).
		Where("question_id = ?", questionID).
		Order("id ASC").
		Pluck("username", &names).Error
	return names, err
}

func (r *VoteRepository) Count(ctx context.Context, questionID uint64) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.QuestionVote{}).
		Where("question_id = ?", questionID).
		Count(&n).Error
	return n, err
}
