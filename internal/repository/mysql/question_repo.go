package mysql

import (
	"context"

	"QA_Community/internal/model"

	"gorm.io/gorm"
)

type QuestionRepository struct {
	DB *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) *QuestionRepository {
	return &QuestionRepository{DB: db}
}

func (r *QuestionRepository) Create(ctx context.Context, q *model.Question) error {
	return r.DB.WithContext(ctx).Create(q).Error
}

func (r *QuestionRepository) FindByID(ctx context.Context, id uint64) (*model.Question, error) {
	var q model.Question
	if err := r.DB.WithContext(ctx).First(&q, id).Error; err != nil {
		return nil, err
	}
	return &q, nil
}

// FindByIDs 按入参顺序返回，不存在的 ID 直接跳过
func (r *QuestionRepository) FindByIDs(ctx context.Context, ids []uint64) ([]model.Question, error) {
	if len(ids) == 0 {
		return []model.Question{}, nil
	}
	var rows []model.Question
	if err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	byID := make(map[uint64]model.Question, len(rows))
	for _, q := range rows {
		byID[q.ID] = q
	}
	out := make([]model.Question, 0, len(ids))
	for _, id := range ids {
		if q, ok := byID[id]; ok {
			out = append(out, q)
		}
	}
	return out, nil
}

// CountExisting 统计给定 ID 中真实存在的问题数
func (r *QuestionRepository) CountExisting(ctx context.Context, ids []uint64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Question{}).Where("id IN ?", ids).Count(&n).Error
	return n, err
}

// ListByCommunityCursor snowflake ID 随时间递增，按 id 倒序即按时间倒序；lastID=0 表示第一页
func (r *QuestionRepository) ListByCommunityCursor(ctx context.Context, communityID, lastID uint64, limit int) ([]model.Question, error) {
	q := r.DB.WithContext(ctx).Where("community_id = ?", communityID)
	if lastID > 0 {
		q = q.Where("id < ?", lastID)
	}
	var list []model.Question
	err := q.Order("id DESC").Limit(limit).Find(&list).Error
	return list, err
}

func (r *QuestionRepository) IncrementViews(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Model(&model.Question{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + 1")).Error
}
