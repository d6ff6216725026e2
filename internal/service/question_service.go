package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"QA_Community/internal/model"
	"QA_Community/internal/pkg"
	"QA_Community/internal/repository/mysql"
	rdsrepo "QA_Community/internal/repository/redis"

	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type QuestionService struct {
	repo      *mysql.QuestionRepository
	votes     *mysql.VoteRepository
	community *mysql.CommunityRepository
	voteCache *rdsrepo.VoteCacheRepository
	lock      *rdsrepo.DistLock
}

// NewQuestionService rdb 为 nil 时投票数直接读库
func NewQuestionService(db *gorm.DB, rdb *goredis.Client) *QuestionService {
	s := &QuestionService{
		repo:      mysql.NewQuestionRepository(db),
		votes:     mysql.NewVoteRepository(db),
		community: mysql.NewCommunityRepository(db),
	}
	if rdb != nil {
		s.voteCache = rdsrepo.NewVoteCacheRepository(rdb)
		s.lock = rdsrepo.NewDistLock(rdb)
	}
	return s
}

type AskQuestionInput struct {
	Title       string
	Text        string
	AskedBy     string
	CommunityID uint64
}

// AskQuestion 指定社区时提问者必须是参与者
func (s *QuestionService) AskQuestion(ctx context.Context, in AskQuestionInput) (*model.Question, error) {
	title := strings.TrimSpace(in.Title)
	askedBy := strings.TrimSpace(in.AskedBy)
	if title == "" || askedBy == "" {
		return nil, InvalidInput("title and askedBy are required")
	}

	if in.CommunityID != 0 {
		c, err := s.community.FindByID(ctx, in.CommunityID)
		if err != nil {
			return nil, lookupErr(err, "community")
		}
		if err := CheckPostToCommunity(c, askedBy); err != nil {
			return nil, err
		}
	}

	q := &model.Question{
		CommunityID: in.CommunityID,
		Title:       title,
		Text:        in.Text,
		AskedBy:     askedBy,
		UpVotes:     []string{},
	}
	if err := s.repo.Create(ctx, q); err != nil {
		return nil, Internal("error creating question", err)
	}
	return q, nil
}

// GetQuestion 每次读取浏览数 +1
func (s *QuestionService) GetQuestion(ctx context.Context, id uint64) (*model.Question, error) {
	if err := s.repo.IncrementViews(ctx, id); err != nil {
		return nil, Internal("error updating views", err)
	}
	q, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "question")
	}
	list := []model.Question{*q}
	if err := s.hydrate(ctx, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

// ListCommunityQuestions 游标分页；私有社区只对参与者可见
func (s *QuestionService) ListCommunityQuestions(ctx context.Context, communityID uint64, viewer string, lastID uint64, size int) ([]model.Question, uint64, error) {
	c, err := s.community.FindByID(ctx, communityID)
	if err != nil {
		return nil, 0, lookupErr(err, "community")
	}
	if !CanViewCommunity(c, viewer) {
		return nil, 0, Forbidden("you do not have permission to view this community")
	}

	if size <= 0 || size > 50 {
		size = 20
	}
	list, err := s.repo.ListByCommunityCursor(ctx, communityID, lastID, size)
	if err != nil {
		return nil, 0, Internal("error listing questions", err)
	}
	if list == nil {
		list = []model.Question{}
	}
	if err := s.hydrate(ctx, list); err != nil {
		return nil, 0, err
	}
	var next uint64
	if len(list) == size {
		next = list[len(list)-1].ID
	}
	return list, next, nil
}

// ToggleUpvote 写库后删计数缓存，交给读侧回填
func (s *QuestionService) ToggleUpvote(ctx context.Context, id uint64, username string) ([]string, int64, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, 0, InvalidInput("username is required")
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, 0, lookupErr(err, "question")
	}
	if _, err := s.votes.Toggle(ctx, id, username); err != nil {
		return nil, 0, Internal("error toggling vote", err)
	}
	if s.voteCache != nil {
		if err := s.voteCache.Invalidate(ctx, id); err != nil {
			pkg.Log(ctx).WithError(err).WithField("question_id", id).Warn("vote cache invalidate failed")
		}
	}

	voters, err := s.votes.Voters(ctx, id)
	if err != nil {
		return nil, 0, Internal("error loading votes", err)
	}
	cnt, err := s.VoteCount(ctx, id)
	if err != nil {
		return nil, 0, err
	}
	return voters, cnt, nil
}

// VoteCount 先读缓存；未命中时拿到锁的请求回源并回填，其余请求短暂退避后再读一次
func (s *QuestionService) VoteCount(ctx context.Context, id uint64) (int64, error) {
	if s.voteCache == nil {
		return s.countFromDB(ctx, id)
	}
	if v, ok, err := s.voteCache.Get(ctx, id); err == nil && ok {
		return v, nil
	}

	token := fmt.Sprintf("%d-%d", id, time.Now().UnixNano())
	got, _ := s.lock.Acquire(ctx, id, token)
	if got {
		defer func() {
			if err := s.lock.Release(ctx, id, token); err != nil {
				pkg.Log(ctx).WithError(err).Warn("vote lock release failed")
			}
		}()
		if v, ok, err := s.voteCache.Get(ctx, id); err == nil && ok {
			return v, nil
		}
		v, err := s.countFromDB(ctx, id)
		if err != nil {
			return 0, err
		}
		_ = s.voteCache.Set(ctx, id, v)
		return v, nil
	}

	time.Sleep(50 * time.Millisecond)
	if v, ok, err := s.voteCache.Get(ctx, id); err == nil && ok {
		return v, nil
	}
	return s.countFromDB(ctx, id)
}

func (s *QuestionService) countFromDB(ctx context.Context, id uint64) (int64, error) {
	n, err := s.votes.Count(ctx, id)
	if err != nil {
		return 0, Internal("error counting votes", err)
	}
	return n, nil
}

// FindExisting 校验问题 ID 全部存在
func (s *QuestionService) FindExisting(ctx context.Context, ids []uint64) error {
	n, err := s.repo.CountExisting(ctx, ids)
	if err != nil {
		return Internal("error loading questions", err)
	}
	if int(n) != len(ids) {
		return InvalidInput("unknown question id")
	}
	return nil
}

// LoadOrdered 按给定顺序加载并填充投票人
func (s *QuestionService) LoadOrdered(ctx context.Context, ids []uint64) ([]model.Question, error) {
	list, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, Internal("error loading questions", err)
	}
	if err := s.hydrate(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *QuestionService) hydrate(ctx context.Context, list []model.Question) error {
	for i := range list {
		voters, err := s.votes.Voters(ctx, list[i].ID)
		if err != nil {
			return Internal("error loading votes", err)
		}
		list[i].UpVotes = voters
	}
	return nil
}
