package mysql

import (
	"context"
	"time"

	"QA_Community/internal/model"

	"gorm.io/gorm"
)

type CommunityRepository struct {
	DB *gorm.DB
}

func NewCommunityRepository(db *gorm.DB) *CommunityRepository {
	return &CommunityRepository{DB: db}
}

// Create 建社区并按 Participants 顺序写入成员，管理员角色=1
func (r *CommunityRepository) Create(ctx context.Context, c *model.Community) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(c).Error; err != nil {
			return err
		}

		mRepo := &CommunityMemberRepository{DB: tx}
		for _, name := range c.Participants {
			role := model.RoleMember
			if name == c.Admin {
				role = model.RoleAdmin
			}
			if err := mRepo.Join(ctx, &model.CommunityMember{
				CommunityID: c.ID,
				Username:    name,
				Role:        role,
			}); err != nil {
				return err
			}
		}
		return nil
	})
}

// FindByID 找不到时返回 gorm.ErrRecordNotFound
func (r *CommunityRepository) FindByID(ctx context.Context, id uint64) (*model.Community, error) {
	var community model.Community
	if err := r.DB.WithContext(ctx).First(&community, id).Error; err != nil {
		return nil, err
	}
	names, err := (&CommunityMemberRepository{DB: r.DB}).Usernames(ctx, id)
	if err != nil {
		return nil, err
	}
	community.Participants = names
	return &community, nil
}

func (r *CommunityRepository) List(ctx context.Context) ([]model.Community, error) {
	var list []model.Community
	if err := r.DB.WithContext(ctx).Order("id desc").Find(&list).Error; err != nil {
		return nil, err
	}
	ids := make([]uint64, 0, len(list))
	for _, c := range list {
		ids = append(ids, c.ID)
	}
	members, err := (&CommunityMemberRepository{DB: r.DB}).UsernamesByCommunity(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i].Participants = members[list[i].ID]
		if list[i].Participants == nil {
			list[i].Participants = []string{}
		}
	}
	return list, nil
}

// AddParticipant 加入并刷新 updated_at
func (r *CommunityRepository) AddParticipant(ctx context.Context, communityID uint64, username string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := (&CommunityMemberRepository{DB: tx}).Join(ctx, &model.CommunityMember{
			CommunityID: communityID,
			Username:    username,
			Role:        model.RoleMember,
		}); err != nil {
			return err
		}
		return touch(tx, &model.Community{}, communityID)
	})
}

// RemoveParticipant 管理员行不会被删除
func (r *CommunityRepository) RemoveParticipant(ctx context.Context, communityID uint64, username string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := (&CommunityMemberRepository{DB: tx}).Leave(ctx, communityID, username); err != nil {
			return err
		}
		return touch(tx, &model.Community{}, communityID)
	})
}

// Delete 硬删除社区及成员关系，幂等
func (r *CommunityRepository) Delete(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := (&CommunityMemberRepository{DB: tx}).DeleteByCommunity(ctx, id); err != nil {
			return err
		}
		return tx.Delete(&model.Community{}, id).Error
	})
}

func touch(tx *gorm.DB, m any, id uint64) error {
	return tx.Model(m).Where("id = ?", id).UpdateColumn("updated_at", time.Now()).Error
}
