package service

import (
	"context"
	"strings"

	"QA_Community/internal/model"
	"QA_Community/internal/pkg"
	"QA_Community/internal/repository/mysql"

	"gorm.io/gorm"
)

type CollectionService struct {
	repo      *mysql.CollectionRepository
	questions *QuestionService
}

func NewCollectionService(db *gorm.DB, questions *QuestionService) *CollectionService {
	return &CollectionService{
		repo:      mysql.NewCollectionRepository(db),
		questions: questions,
	}
}

type CreateCollectionInput struct {
	Name        string
	Description string
	Username    string
	Questions   []string
	IsPrivate   bool
}

func (s *CollectionService) CreateCollection(ctx context.Context, in CreateCollectionInput) (*model.Collection, error) {
	name := strings.TrimSpace(in.Name)
	desc := strings.TrimSpace(in.Description)
	username := strings.TrimSpace(in.Username)
	if name == "" || desc == "" || username == "" {
		return nil, InvalidInput("name, description and username are required")
	}

	ids := make([]uint64, 0, len(in.Questions))
	seen := make(map[uint64]bool, len(in.Questions))
	for _, raw := range in.Questions {
		id, ok := pkg.ParseID(raw)
		if !ok {
			return nil, InvalidInput("invalid question id: " + raw)
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	if len(ids) > 0 {
		if err := s.questions.FindExisting(ctx, ids); err != nil {
			return nil, err
		}
	}

	c := &model.Collection{
		Name:        name,
		Description: desc,
		Username:    username,
		IsPrivate:   in.IsPrivate,
	}
	if err := s.repo.Create(ctx, c, ids); err != nil {
		return nil, Internal("error creating collection", err)
	}
	return s.populate(ctx, c)
}

// GetCollection 私有收藏夹只有拥有者能看
func (s *CollectionService) GetCollection(ctx context.Context, id uint64, viewer string) (*model.Collection, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "collection")
	}
	if !CanViewCollection(c, strings.TrimSpace(viewer)) {
		return nil, Forbidden("this collection is private")
	}
	return s.populate(ctx, c)
}

// ListByUsername viewer 不是 owner 时只返回公开的
func (s *CollectionService) ListByUsername(ctx context.Context, owner, viewer string) ([]model.Collection, error) {
	owner = strings.TrimSpace(owner)
	viewer = strings.TrimSpace(viewer)
	if owner == "" || viewer == "" {
		return nil, InvalidInput("username and currentUsername are required")
	}

	list, err := s.repo.ListByUsername(ctx, owner, owner == viewer)
	if err != nil {
		return nil, Internal("error listing collections", err)
	}
	out := make([]model.Collection, 0, len(list))
	for i := range list {
		c, err := s.populate(ctx, &list[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, nil
}

// ToggleQuestion 问题已在收藏夹中则移除，否则追加
func (s *CollectionService) ToggleQuestion(ctx context.Context, collectionID, questionID uint64, username string) (*model.Collection, error) {
	c, err := s.repo.FindByID(ctx, collectionID)
	if err != nil {
		return nil, lookupErr(err, "collection")
	}
	if err := CheckCollectionOwner(c, strings.TrimSpace(username)); err != nil {
		return nil, err
	}
	if err := s.questions.FindExisting(ctx, []uint64{questionID}); err != nil {
		if KindOf(err) == KindInvalidInput {
			return nil, NotFound("question not found")
		}
		return nil, err
	}

	if _, err := s.repo.ToggleQuestion(ctx, collectionID, questionID); err != nil {
		return nil, Internal("error updating collection", err)
	}

	c, err = s.repo.FindByID(ctx, collectionID)
	if err != nil {
		return nil, lookupErr(err, "collection")
	}
	return s.populate(ctx, c)
}

// DeleteCollection 返回删除前的收藏夹
func (s *CollectionService) DeleteCollection(ctx context.Context, id uint64, username string) (*model.Collection, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "collection")
	}
	if err := CheckCollectionOwner(c, strings.TrimSpace(username)); err != nil {
		return nil, err
	}
	populated, err := s.populate(ctx, c)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, Internal("error deleting collection", err)
	}
	return populated, nil
}

func (s *CollectionService) populate(ctx context.Context, c *model.Collection) (*model.Collection, error) {
	ids, err := s.repo.QuestionIDs(ctx, c.ID)
	if err != nil {
		return nil, Internal("error loading collection questions", err)
	}
	qs, err := s.questions.LoadOrdered(ctx, ids)
	if err != nil {
		return nil, err
	}
	c.Questions = qs
	return c, nil
}
