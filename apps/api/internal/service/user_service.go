package service

import (
	"context"
	"errors"

	"WaveChat/apps/api/internal/bizerr"
	"WaveChat/apps/api/internal/dto"
	"WaveChat/apps/api/internal/repository"
	"WaveChat/consts"
	"WaveChat/pkg/logger"
	"WaveChat/pkg/util"

	"golang.org/x/crypto/bcrypt"
)

// userServiceImpl 用户服务实现
type userServiceImpl struct {
	userRepo repository.IUserRepository
}

// NewUserService 创建用户服务实例
func NewUserService(userRepo repository.IUserRepository) UserService {
	return &userServiceImpl{
		userRepo: userRepo,
	}
}

// Login 邮箱密码登录。
// 账号不存在与密码错误对外统一报密码错误，避免探测注册邮箱。
func (s *userServiceImpl) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return nil, bizerr.New(consts.CodePasswordError)
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, bizerr.New(consts.CodePasswordError)
	}

	if !user.Active {
		return nil, bizerr.New(consts.CodeUserDisabled)
	}
	if user.Frozen {
		return nil, bizerr.New(consts.CodeUserFrozen)
	}

	token, err := util.GenerateToken(user.Uuid)
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "用户登录成功", logger.String("user_uuid", user.Uuid))

	return &dto.LoginResponse{
		UserUUID: user.Uuid,
		Nickname: user.Nickname,
		Token:    token,
	}, nil
}

// GetMessageSettings 获取私信设置
func (s *userServiceImpl) GetMessageSettings(ctx context.Context, userUUID string) (*dto.MessageSettingsResponse, error) {
	user, err := s.userRepo.GetByUUID(ctx, userUUID)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return nil, bizerr.Wrap(consts.CodeUserNotFound, err)
		}
		return nil, err
	}
	return &dto.MessageSettingsResponse{
		Private:           user.Private,
		AllowsAllMessages: user.AllowsAllMessages,
		AllowsReceipts:    user.AllowsReceipts,
	}, nil
}

// UpdateMessageSettings 更新私信设置。
// 开关即时生效：下一次发送的资格判定与回执计算使用新值，
// 已落库消息的 has_receipt 不回溯修改。
func (s *userServiceImpl) UpdateMessageSettings(ctx context.Context, userUUID string, req *dto.UpdateMessageSettingsRequest) (*dto.MessageSettingsResponse, error) {
	// 先确认用户存在（更新语句不区分无变化与无此人）
	if _, err := s.userRepo.GetByUUID(ctx, userUUID); err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return nil, bizerr.Wrap(consts.CodeUserNotFound, err)
		}
		return nil, err
	}

	err := s.userRepo.UpdateMessageSettings(ctx, userUUID,
		*req.Private, *req.AllowsAllMessages, *req.AllowsReceipts)
	if err != nil {
		return nil, err
	}

	return &dto.MessageSettingsResponse{
		Private:           *req.Private,
		AllowsAllMessages: *req.AllowsAllMessages,
		AllowsReceipts:    *req.AllowsReceipts,
	}, nil
}
