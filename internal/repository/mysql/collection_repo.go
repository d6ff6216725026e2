package mysql

import (
	"context"

	"QA_Community/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CollectionRepository struct {
	DB *gorm.DB
}

func NewCollectionRepository(db *gorm.DB) *CollectionRepository {
	return &CollectionRepository{DB: db}
}

// Create 建收藏夹并按给定顺序关联问题，重复的问题 ID 只保留第一次
func (r *CollectionRepository) Create(ctx context.Context, c *model.Collection, questionIDs []uint64) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(c).Error; err != nil {
			return err
		}
		for _, qid := range questionIDs {
			if err := linkQuestion(tx, c.ID, qid); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *CollectionRepository) FindByID(ctx context.Context, id uint64) (*model.Collection, error) {
	var c model.Collection
	if err := r.DB.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// ListByUsername includePrivate=false 时过滤私有收藏夹
func (r *CollectionRepository) ListByUsername(ctx context.Context, username string, includePrivate bool) ([]model.Collection, error) {
	q := r.DB.WithContext(ctx).Where("username = ?", username)
	if !includePrivate {
		q = q.Where("is_private = ?", false)
	}
	var list []model.Collection
	err := q.Order("id asc").Find(&list).Error
	return list, err
}

// QuestionIDs 按加入顺序返回问题 ID
func (r *CollectionRepository) QuestionIDs(ctx context.Context, collectionID uint64) ([]uint64, error) {
	var ids []uint64
	err := r.DB.WithContext(ctx).Model(&model.CollectionQuestion{}).
		Where("collection_id = ?", collectionID).
		Order("id ASC").
		Pluck("question_id", &ids).Error
	return ids, err
}

// ToggleQuestion 已收藏则移除，否则追加到末尾；返回 true 表示本次是加入
func (r *CollectionRepository) ToggleQuestion(ctx context.Context, collectionID, questionID uint64) (bool, error) {
	var added bool
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("collection_id = ? AND question_id = ?", collectionID, questionID).
			Delete(&model.CollectionQuestion{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			if err := linkQuestion(tx, collectionID, questionID); err != nil {
				return err
			}
			added = true
		}
		return touch(tx, &model.Collection{}, collectionID)
	})
	return added, err
}

func (r *CollectionRepository) Delete(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("collection_id = ?", id).Delete(&model.CollectionQuestion{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Collection{}, id).Error
	})
}

func linkQuestion(tx *gorm.DB, collectionID, questionID uint64) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "collection_id"}, {Name: "question_id"}},
		DoNothing: true,
	}).Create(&model.CollectionQuestion{
		CollectionID: collectionID,
		QuestionID:   questionID,
	}).Error
}
