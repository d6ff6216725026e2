package mysql

import (
	"context"

	"QA_Community/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CommunityMemberRepository struct {
	DB *gorm.DB
}

func NewCommunityMemberRepository(db *gorm.DB) *CommunityMemberRepository {
	return &CommunityMemberRepository{DB: db}
}

func (r *CommunityMemberRepository) Join(ctx context.Context, member *model.CommunityMember) error {
	// 幂等插入：若已存在 (community_id, username) 则不报错
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "community_id"}, {Name: "username"}},
		DoNothing: true,
	}).Create(member).Error
}

// Leave 返回受影响行数，0 表示本来就不是成员
func (r *CommunityMemberRepository) Leave(ctx context.Context, communityID uint64, username string) (int64, error) {
	tx := r.DB.WithContext(ctx).
		Where("community_id = ? AND username = ? AND role = ?", communityID, username, model.RoleMember).
		Delete(&model.CommunityMember{})
	return tx.RowsAffected, tx.Error
}

func (r *CommunityMemberRepository) IsMember(ctx context.Context, communityID uint64, username string) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.CommunityMember{}).
		Where("community_id = ? AND username = ?", communityID, username).
		Count(&count).Error
	return count > 0, err
}

// Usernames 按加入顺序返回成员
func (r *CommunityMemberRepository) Usernames(ctx context.Context, communityID uint64) ([]string, error) {
	var names []string
	err := r.DB.WithContext(ctx).Model(&model.CommunityMember{}).
		Where("community_id = ?", communityID).
		Order("id ASC").
		Pluck("username", &names).Error
	return names, err
}

// UsernamesByCommunity 批量加载多个社区的成员
func (r *CommunityMemberRepository) UsernamesByCommunity(ctx context.Context, communityIDs []uint64) (map[uint64][]string, error) {
	out := make(map[uint64][]string, len(communityIDs))
	if len(communityIDs) == 0 {
		return out, nil
	}
	var rows []model.CommunityMember
	if err := r.DB.WithContext(ctx).
		Where("community_id IN ?", communityIDs).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, m := range rows {
		out[m.CommunityID] = append(out[m.CommunityID], m.Username)
	}
	return out, nil
}

func (r *CommunityMemberRepository) DeleteByCommunity(ctx context.Context, communityID uint64) error {
	return r.DB.WithContext(ctx).
		Where("community_id = ?", communityID).
		Delete(&model.CommunityMember{}).Error
}
