package service

import (
	"context"
	"errors"
	"testing"

	"WaveChat/apps/api/internal/bizerr"
	"WaveChat/apps/api/internal/repository"
	"WaveChat/consts"
	"WaveChat/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeUserRepository 函数字段式假仓储
type fakeUserRepository struct {
	getByUUIDFn             func(ctx context.Context, uuid string) (*model.UserInfo, error)
	getByEmailFn            func(ctx context.Context, email string) (*model.UserInfo, error)
	updateMessageSettingsFn func(ctx context.Context, uuid string, private, allowsAllMessages, allowsReceipts bool) error
}

func (f *fakeUserRepository) GetByUUID(ctx context.Context, uuid string) (*model.UserInfo, error) {
	if f.getByUUIDFn == nil {
		return nil, errors.New("unexpected GetByUUID call")
	}
	return f.getByUUIDFn(ctx, uuid)
}

func (f *fakeUserRepository) GetByEmail(ctx context.Context, email string) (*model.UserInfo, error) {
	if f.getByEmailFn == nil {
		return nil, errors.New("unexpected GetByEmail call")
	}
	return f.getByEmailFn(ctx, email)
}

func (f *fakeUserRepository) UpdateMessageSettings(ctx context.Context, uuid string, private, allowsAllMessages, allowsReceipts bool) error {
	if f.updateMessageSettingsFn == nil {
		return errors.New("unexpected UpdateMessageSettings call")
	}
	return f.updateMessageSettingsFn(ctx, uuid, private, allowsAllMessages, allowsReceipts)
}

// fakeRelationRepository 函数字段式假仓储
type fakeRelationRepository struct {
	isFollowingFn func(ctx context.Context, fromUUID, toUUID string) (bool, error)
	hasBlockRelFn func(ctx context.Context, aUUID, bUUID string) (bool, error)
	getRelationFn func(ctx context.Context, userUUID, peerUUID string) (*model.UserRelation, error)
	followFn      func(ctx context.Context, userUUID, peerUUID string) error
	unfollowFn    func(ctx context.Context, userUUID, peerUUID string) error
	blockFn       func(ctx context.Context, userUUID, peerUUID string) error
	unblockFn     func(ctx context.Context, userUUID, peerUUID string) error
}

func (f *fakeRelationRepository) IsFollowing(ctx context.Context, fromUUID, toUUID string) (bool, error) {
	if f.isFollowingFn == nil {
		return false, errors.New("unexpected IsFollowing call")
	}
	return f.isFollowingFn(ctx, fromUUID, toUUID)
}

func (f *fakeRelationRepository) HasBlockRel(ctx context.Context, aUUID, bUUID string) (bool, error) {
	if f.hasBlockRelFn == nil {
		return false, errors.New("unexpected HasBlockRel call")
	}
	return f.hasBlockRelFn(ctx, aUUID, bUUID)
}

func (f *fakeRelationRepository) GetRelation(ctx context.Context, userUUID, peerUUID string) (*model.UserRelation, error) {
	if f.getRelationFn == nil {
		return nil, errors.New("unexpected GetRelation call")
	}
	return f.getRelationFn(ctx, userUUID, peerUUID)
}

func (f *fakeRelationRepository) Follow(ctx context.Context, userUUID, peerUUID string) error {
	if f.followFn == nil {
		return errors.New("unexpected Follow call")
	}
	return f.followFn(ctx, userUUID, peerUUID)
}

func (f *fakeRelationRepository) Unfollow(ctx context.Context, userUUID, peerUUID string) error {
	if f.unfollowFn == nil {
		return errors.New("unexpected Unfollow call")
	}
	return f.unfollowFn(ctx, userUUID, peerUUID)
}

func (f *fakeRelationRepository) Block(ctx context.Context, userUUID, peerUUID string) error {
	if f.blockFn == nil {
		return errors.New("unexpected Block call")
	}
	return f.blockFn(ctx, userUUID, peerUUID)
}

func (f *fakeRelationRepository) Unblock(ctx context.Context, userUUID, peerUUID string) error {
	if f.unblockFn == nil {
		return errors.New("unexpected Unblock call")
	}
	return f.unblockFn(ctx, userUUID, peerUUID)
}

func existingUserRepo() *fakeUserRepository {
	return &fakeUserRepository{
		getByUUIDFn: func(_ context.Context, uuid string) (*model.UserInfo, error) {
			return &model.UserInfo{Uuid: uuid, Active: true}, nil
		},
	}
}

func TestFollowSelf(t *testing.T) {
	initServiceTestEnv()

	svc := NewRelationService(existingUserRepo(), &fakeRelationRepository{})

	err := svc.Follow(context.Background(), "alice-uuid", "alice-uuid")
	require.Error(t, err)
	assert.Equal(t, int32(consts.CodeSelfRelation), bizerr.ExtractErrorCode(err))
}

func TestFollowBlockedPair(t *testing.T) {
	initServiceTestEnv()

	relRepo := &fakeRelationRepository{
		hasBlockRelFn: func(context.Context, string, string) (bool, error) {
			return true, nil
		},
	}
	svc := NewRelationService(existingUserRepo(), relRepo)

	err := svc.Follow(context.Background(), "alice-uuid", "bob-uuid")
	require.Error(t, err)
	assert.Equal(t, int32(consts.CodeBlocked), bizerr.ExtractErrorCode(err))
}

func TestFollowSuccess(t *testing.T) {
	initServiceTestEnv()

	followed := false
	relRepo := &fakeRelationRepository{
		hasBlockRelFn: func(context.Context, string, string) (bool, error) { return false, nil },
		followFn: func(_ context.Context, userUUID, peerUUID string) error {
			followed = true
			assert.Equal(t, "alice-uuid", userUUID)
			assert.Equal(t, "bob-uuid", peerUUID)
			return nil
		},
	}
	svc := NewRelationService(existingUserRepo(), relRepo)

	require.NoError(t, svc.Follow(context.Background(), "alice-uuid", "bob-uuid"))
	assert.True(t, followed)
}

func TestFollowPeerNotFound(t *testing.T) {
	initServiceTestEnv()

	userRepo := &fakeUserRepository{
		getByUUIDFn: func(context.Context, string) (*model.UserInfo, error) {
			return nil, repository.ErrRecordNotFound
		},
	}
	svc := NewRelationService(userRepo, &fakeRelationRepository{})

	err := svc.Follow(context.Background(), "alice-uuid", "ghost-uuid")
	require.Error(t, err)
	assert.Equal(t, int32(consts.CodeUserNotFound), bizerr.ExtractErrorCode(err))
}

func TestUnfollowNotFollowing(t *testing.T) {
	initServiceTestEnv()

	relRepo := &fakeRelationRepository{
		unfollowFn: func(context.Context, string, string) error {
			return repository.ErrRecordNotFound
		},
	}
	svc := NewRelationService(existingUserRepo(), relRepo)

	err := svc.Unfollow(context.Background(), "alice-uuid", "bob-uuid")
	require.Error(t, err)
	assert.Equal(t, int32(consts.CodeNotFollowing), bizerr.ExtractErrorCode(err))
}

func TestBlockAlreadyBlocked(t *testing.T) {
	initServiceTestEnv()

	relRepo := &fakeRelationRepository{
		getRelationFn: func(_ context.Context, userUUID, peerUUID string) (*model.UserRelation, error) {
			return &model.UserRelation{UserUuid: userUUID, PeerUuid: peerUUID, Status: model.RelationBlock}, nil
		},
	}
	svc := NewRelationService(existingUserRepo(), relRepo)

	err := svc.Block(context.Background(), "alice-uuid", "bob-uuid")
	require.Error(t, err)
	assert.Equal(t, int32(consts.CodeAlreadyBlocked), bizerr.ExtractErrorCode(err))
}

func TestBlockSuccess(t *testing.T) {
	initServiceTestEnv()

	blocked := false
	relRepo := &fakeRelationRepository{
		getRelationFn: func(context.Context, string, string) (*model.UserRelation, error) {
			return nil, repository.ErrRecordNotFound
		},
		blockFn: func(context.Context, string, string) error {
			blocked = true
			return nil
		},
	}
	svc := NewRelationService(existingUserRepo(), relRepo)

	require.NoError(t, svc.Block(context.Background(), "alice-uuid", "bob-uuid"))
	assert.True(t, blocked)
}

func TestUnblockNotBlocked(t *testing.T) {
	initServiceTestEnv()

	relRepo := &fakeRelationRepository{
		unblockFn: func(context.Context, string, string) error {
			return repository.ErrRecordNotFound
		},
	}
	svc := NewRelationService(existingUserRepo(), relRepo)

	err := svc.Unblock(context.Background(), "alice-uuid", "bob-uuid")
	require.Error(t, err)
	assert.Equal(t, int32(consts.CodeNotBlocked), bizerr.ExtractErrorCode(err))
}

func TestGetRelationStatus(t *testing.T) {
	initServiceTestEnv()

	relRepo := &fakeRelationRepository{
		isFollowingFn: func(_ context.Context, fromUUID, toUUID string) (bool, error) {
			// alice 关注 bob，bob 未关注 alice
			return fromUUID == "alice-uuid", nil
		},
		getRelationFn: func(context.Context, string, string) (*model.UserRelation, error) {
			return nil, repository.ErrRecordNotFound
		},
	}
	svc := NewRelationService(existingUserRepo(), relRepo)

	resp, err := svc.GetRelationStatus(context.Background(), "alice-uuid", "bob-uuid")
	require.NoError(t, err)
	assert.True(t, resp.Following)
	assert.False(t, resp.FollowedBy)
	assert.False(t, resp.Blocking)
}
