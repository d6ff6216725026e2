package service

import (
	"context"
	"errors"
	"strings"

	"QA_Community/internal/model"
	"QA_Community/internal/pkg"
	"QA_Community/internal/repository/mysql"
	rdsrepo "QA_Community/internal/repository/redis"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var ErrUnauthorized = errors.New("unauthorized")

type UserService struct {
	repo   *mysql.UserRepository
	tokens *rdsrepo.TokenRepository
}

func NewUserService(db *gorm.DB, rdb *goredis.Client) *UserService {
	return &UserService{
		repo:   mysql.NewUserRepository(db),
		tokens: rdsrepo.NewTokenRepository(rdb),
	}
}

func (s *UserService) Register(ctx context.Context, username, password, email string) (*model.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || len(password) < 6 {
		return nil, InvalidInput("username, email and a password of at least 6 characters are required")
	}

	if _, err := s.repo.FindByUsername(ctx, username); err == nil {
		return nil, InvalidInput("username already taken")
	}
	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, InvalidInput("email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, Internal("error hashing password", err)
	}

	user := &model.User{
		Username: username,
		Password: string(hash),
		Email:    email,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, Internal("error creating user", err)
	}
	return user, nil
}

// Login 用户名或邮箱登录，access token 写入 redis 作为当前会话
func (s *UserService) Login(ctx context.Context, username, password string) (*pkg.Pair, error) {
	user, err := s.repo.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, InvalidInput("invalid username or password")
		}
		return nil, Internal("error loading user", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, InvalidInput("invalid username or password")
	}

	pair, err := pkg.GeneratePair(user.ID, user.Username)
	if err != nil {
		return nil, Internal("error signing token", err)
	}
	if err := s.tokens.Save(ctx, user.ID, pair.AccessToken); err != nil {
		return nil, Internal("error saving token", err)
	}
	return pair, nil
}

func (s *UserService) Logout(ctx context.Context, userID uint64) error {
	if err := s.tokens.Delete(ctx, userID); err != nil {
		return Internal("error logging out", err)
	}
	return nil
}

// Refresh 换发新的一对 token，并替换 redis 中的会话
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*pkg.Pair, error) {
	pair, err := pkg.Refresh(refreshToken)
	if err != nil {
		return nil, InvalidInput(err.Error())
	}
	claims, err := pkg.ParseAccess(pair.AccessToken)
	if err != nil {
		return nil, Internal("error parsing new token", err)
	}
	if err := s.tokens.Save(ctx, claims.UserID, pair.AccessToken); err != nil {
		return nil, Internal("error saving token", err)
	}
	return pair, nil
}

// ValidateAccess 校验签名并确认 token 仍是该用户当前会话，成功后续期
func (s *UserService) ValidateAccess(ctx context.Context, token string) (*pkg.Claims, error) {
	claims, err := pkg.ParseAccess(token)
	if err != nil {
		return nil, err
	}
	stored, err := s.tokens.Get(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, rdsrepo.ErrTokenNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	if stored != token {
		return nil, ErrUnauthorized
	}
	if err := s.tokens.Extend(ctx, claims.UserID); err != nil {
		pkg.Log(ctx).WithError(err).Warn("token extend failed")
	}
	return claims, nil
}

// ChangePassword 登录态修改密码，成功后强制重新登录
func (s *UserService) ChangePassword(ctx context.Context, username, oldPassword, newPassword string) error {
	if len(newPassword) < 6 {
		return InvalidInput("new password must be at least 6 characters")
	}
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return lookupErr(err, "user")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)) != nil {
		return InvalidInput("old password is incorrect")
	}
	if err := s.setPassword(ctx, user.ID, newPassword); err != nil {
		return err
	}
	return s.Logout(ctx, user.ID)
}

func (s *UserService) setPassword(ctx context.Context, userID uint64, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Internal("error hashing password", err)
	}
	if err := s.repo.UpdatePassword(ctx, userID, string(hash)); err != nil {
		return Internal("error updating password", err)
	}
	return nil
}
