package service

import (
	"context"
	"testing"

	"WaveChat/apps/api/internal/bizerr"
	"WaveChat/apps/api/internal/dto"
	"WaveChat/apps/api/internal/repository"
	"WaveChat/consts"
	"WaveChat/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func hashPassword(t *testing.T, raw string) string {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hashed)
}

func TestLoginSuccess(t *testing.T) {
	initServiceTestEnv()

	userRepo := &fakeUserRepository{
		getByEmailFn: func(_ context.Context, email string) (*model.UserInfo, error) {
			assert.Equal(t, "alice@example.com", email)
			return &model.UserInfo{
				Uuid:     "alice-uuid",
				Email:    email,
				Nickname: "Alice",
				Password: hashPassword(t, "secret-pass"),
				Active:   true,
			}, nil
		},
	}
	svc := NewUserService(userRepo)

	resp, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "alice@example.com",
		Password: "secret-pass",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice-uuid", resp.UserUUID)
	assert.Equal(t, "Alice", resp.Nickname)
	assert.NotEmpty(t, resp.Token)
}

func TestLoginWrongPassword(t *testing.T) {
	initServiceTestEnv()

	userRepo := &fakeUserRepository{
		getByEmailFn: func(_ context.Context, email string) (*model.UserInfo, error) {
			return &model.UserInfo{
				Uuid:     "alice-uuid",
				Password: hashPassword(t, "secret-pass"),
				Active:   true,
			}, nil
		},
	}
	svc := NewUserService(userRepo)

	_, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "alice@example.com",
		Password: "wrong-pass",
	})
	require.Error(t, err)
	assert.Equal(t, int32(consts.CodePasswordError), bizerr.ExtractErrorCode(err))
}

func TestLoginUnknownEmail(t *testing.T) {
	initServiceTestEnv()

	userRepo := &fakeUserRepository{
		getByEmailFn: func(context.Context, string) (*model.UserInfo, error) {
			return nil, repository.ErrRecordNotFound
		},
	}
	svc := NewUserService(userRepo)

	_, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "ghost@example.com",
		Password: "whatever",
	})
	require.Error(t, err)
	// 不区分"邮箱不存在"与"密码错误"，避免探测注册邮箱
	assert.Equal(t, int32(consts.CodePasswordError), bizerr.ExtractErrorCode(err))
}

func TestLoginFrozenAccount(t *testing.T) {
	initServiceTestEnv()

	userRepo := &fakeUserRepository{
		getByEmailFn: func(context.Context, string) (*model.UserInfo, error) {
			return &model.UserInfo{
				Uuid:     "alice-uuid",
				Password: hashPassword(t, "secret-pass"),
				Active:   true,
				Frozen:   true,
			}, nil
		},
	}
	svc := NewUserService(userRepo)

	_, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "alice@example.com",
		Password: "secret-pass",
	})
	require.Error(t, err)
	assert.Equal(t, int32(consts.CodeUserFrozen), bizerr.ExtractErrorCode(err))
}

func TestUpdateMessageSettings(t *testing.T) {
	initServiceTestEnv()

	var gotPrivate, gotAllowsAll, gotReceipts bool
	userRepo := &fakeUserRepository{
		getByUUIDFn: func(_ context.Context, uuid string) (*model.UserInfo, error) {
			return &model.UserInfo{Uuid: uuid, Active: true}, nil
		},
		updateMessageSettingsFn: func(_ context.Context, uuid string, private, allowsAllMessages, allowsReceipts bool) error {
			assert.Equal(t, "alice-uuid", uuid)
			gotPrivate, gotAllowsAll, gotReceipts = private, allowsAllMessages, allowsReceipts
			return nil
		},
	}
	svc := NewUserService(userRepo)

	boolPtr := func(v bool) *bool { return &v }
	resp, err := svc.UpdateMessageSettings(context.Background(), "alice-uuid", &dto.UpdateMessageSettingsRequest{
		Private:           boolPtr(true),
		AllowsAllMessages: boolPtr(false),
		AllowsReceipts:    boolPtr(true),
	})
	require.NoError(t, err)
	assert.True(t, gotPrivate)
	assert.False(t, gotAllowsAll)
	assert.True(t, gotReceipts)
	assert.True(t, resp.Private)
	assert.False(t, resp.AllowsAllMessages)
	assert.True(t, resp.AllowsReceipts)
}

func TestGetMessageSettingsUserNotFound(t *testing.T) {
	initServiceTestEnv()

	userRepo := &fakeUserRepository{
		getByUUIDFn: func(context.Context, string) (*model.UserInfo, error) {
			return nil, repository.ErrRecordNotFound
		},
	}
	svc := NewUserService(userRepo)

	_, err := svc.GetMessageSettings(context.Background(), "ghost-uuid")
	require.Error(t, err)
	assert.Equal(t, int32(consts.CodeUserNotFound), bizerr.ExtractErrorCode(err))
}
