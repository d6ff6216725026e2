package service

import (
	"context"
	"strings"

	"QA_Community/internal/model"
	"QA_Community/internal/repository/mysql"

	"gorm.io/gorm"
)

type CommunityService struct {
	repo *mysql.CommunityRepository
}

func NewCommunityService(db *gorm.DB) *CommunityService {
	return &CommunityService{
		repo: mysql.NewCommunityRepository(db),
	}
}

type CreateCommunityInput struct {
	Name         string
	Description  string
	Admin        string
	Visibility   string
	Participants []string
}

// CreateCommunity 管理员不在 Participants 中时追加到末尾
func (s *CommunityService) CreateCommunity(ctx context.Context, in CreateCommunityInput) (*model.Community, error) {
	name := strings.TrimSpace(in.Name)
	desc := strings.TrimSpace(in.Description)
	admin := strings.TrimSpace(in.Admin)
	if name == "" || desc == "" || admin == "" {
		return nil, InvalidInput("name, description and admin are required")
	}

	visibility, err := normalizeVisibility(in.Visibility)
	if err != nil {
		return nil, err
	}

	community := &model.Community{
		Name:         name,
		Description:  desc,
		Admin:        admin,
		Visibility:   visibility,
		Participants: withAdmin(in.Participants, admin),
	}
	if err := s.repo.Create(ctx, community); err != nil {
		return nil, Internal("error creating community", err)
	}
	return community, nil
}

func (s *CommunityService) GetCommunity(ctx context.Context, id uint64) (*model.Community, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "community")
	}
	return c, nil
}

func (s *CommunityService) ListCommunities(ctx context.Context) ([]model.Community, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, Internal("error listing communities", err)
	}
	if list == nil {
		list = []model.Community{}
	}
	return list, nil
}

// ToggleMembership 非成员加入，普通成员退出，管理员退出被拒绝
func (s *CommunityService) ToggleMembership(ctx context.Context, id uint64, username string) (*model.Community, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, InvalidInput("username is required")
	}

	c, err := s.GetCommunity(ctx, id)
	if err != nil {
		return nil, err
	}

	join, err := CheckToggleMembership(c, username)
	if err != nil {
		return nil, err
	}
	if join {
		err = s.repo.AddParticipant(ctx, id, username)
	} else {
		err = s.repo.RemoveParticipant(ctx, id, username)
	}
	if err != nil {
		return nil, Internal("error updating community membership", err)
	}

	return s.GetCommunity(ctx, id)
}

// DeleteCommunity 返回删除前的社区
func (s *CommunityService) DeleteCommunity(ctx context.Context, id uint64, username string) (*model.Community, error) {
	c, err := s.GetCommunity(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := CheckDeleteCommunity(c, strings.TrimSpace(username)); err != nil {
		return nil, err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, Internal("error deleting community", err)
	}
	return c, nil
}

func normalizeVisibility(v string) (string, error) {
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case "", model.VisibilityPublic:
		return model.VisibilityPublic, nil
	case model.VisibilityPrivate:
		return model.VisibilityPrivate, nil
	default:
		return "", InvalidInput("visibility must be PUBLIC or PRIVATE")
	}
}

// withAdmin 去空、去重，保证 admin 在列表中
func withAdmin(participants []string, admin string) []string {
	seen := make(map[string]bool, len(participants)+1)
	out := make([]string, 0, len(participants)+1)
	for _, p := range participants {
		p = strings.TrimSpace(p)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	if !seen[admin] {
		out = append(out, admin)
	}
	return out
}
