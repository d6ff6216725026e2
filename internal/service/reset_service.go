package service

import (
	"context"
	"errors"
	"strings"

	"QA_Community/internal/pkg"
	"QA_Community/internal/repository/mysql"
	rdsrepo "QA_Community/internal/repository/redis"

	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const resetCodeLen = 6

type ResetService struct {
	users  *UserService
	repo   *mysql.UserRepository
	codes  *rdsrepo.ResetCodeRepository
	mailer pkg.Mailer
}

func NewResetService(db *gorm.DB, rdb *goredis.Client, users *UserService, mailer pkg.Mailer) *ResetService {
	return &ResetService{
		users:  users,
		repo:   mysql.NewUserRepository(db),
		codes:  rdsrepo.NewResetCodeRepository(rdb),
		mailer: mailer,
	}
}

// SendResetCode 发送失败时丢弃验证码和冷却，允许立即重试
func (s *ResetService) SendResetCode(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return InvalidInput("email is required")
	}
	if _, err := s.repo.FindByEmail(ctx, email); err != nil {
		return lookupErr(err, "user")
	}

	code, err := pkg.RandDigits(resetCodeLen)
	if err != nil {
		return Internal("error generating code", err)
	}
	if err := s.codes.Save(ctx, email, code); err != nil {
		if errors.Is(err, rdsrepo.ErrCodeTooOften) {
			return InvalidInput(err.Error())
		}
		return Internal("error saving code", err)
	}

	if err := s.mailer.Send(email, "Password reset code", pkg.ResetCodeHTML(code, s.codes.TTL)); err != nil {
		s.codes.Discard(ctx, email)
		return Internal("error sending email", err)
	}
	return nil
}

// ResetPassword 验证码一次性使用，成功后踢掉当前会话
func (s *ResetService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	email = strings.TrimSpace(email)
	if email == "" || code == "" || len(newPassword) < 6 {
		return InvalidInput("email, code and a password of at least 6 characters are required")
	}

	if err := s.codes.Consume(ctx, email, code); err != nil {
		if errors.Is(err, rdsrepo.ErrCodeNotFound) || errors.Is(err, rdsrepo.ErrCodeMismatch) {
			return InvalidInput("verification failed")
		}
		return Internal("error verifying code", err)
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return lookupErr(err, "user")
	}
	if err := s.users.setPassword(ctx, user.ID, newPassword); err != nil {
		return err
	}
	return s.users.Logout(ctx, user.ID)
}
