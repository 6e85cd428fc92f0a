package service

import (
	"context"
	"errors"

	"WaveChat/apps/api/internal/bizerr"
	"WaveChat/apps/api/internal/dto"
	"WaveChat/apps/api/internal/repository"
	"WaveChat/consts"
	"WaveChat/model"
)

// relationServiceImpl 关注/拉黑服务实现
type relationServiceImpl struct {
	userRepo     repository.IUserRepository
	relationRepo repository.IRelationRepository
}

// NewRelationService 创建关系服务实例
func NewRelationService(userRepo repository.IUserRepository, relationRepo repository.IRelationRepository) RelationService {
	return &relationServiceImpl{
		userRepo:     userRepo,
		relationRepo: relationRepo,
	}
}

// checkPeer 公共前置：对端必须存在且不能是自己
func (s *relationServiceImpl) checkPeer(ctx context.Context, userUUID, peerUUID string) error {
	if userUUID == peerUUID {
		return bizerr.New(consts.CodeSelfRelation)
	}
	if _, err := s.userRepo.GetByUUID(ctx, peerUUID); err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return bizerr.Wrap(consts.CodeUserNotFound, err)
		}
		return err
	}
	return nil
}

// Follow 关注用户。
// 拉黑关系存在时（无论哪一方拉黑）不允许建立关注。
func (s *relationServiceImpl) Follow(ctx context.Context, userUUID, peerUUID string) error {
	if err := s.checkPeer(ctx, userUUID, peerUUID); err != nil {
		return err
	}

	blocked, err := s.relationRepo.HasBlockRel(ctx, userUUID, peerUUID)
	if err != nil {
		return err
	}
	if blocked {
		return bizerr.New(consts.CodeBlocked)
	}

	return s.relationRepo.Follow(ctx, userUUID, peerUUID)
}

// Unfollow 取消关注
func (s *relationServiceImpl) Unfollow(ctx context.Context, userUUID, peerUUID string) error {
	if err := s.checkPeer(ctx, userUUID, peerUUID); err != nil {
		return err
	}

	err := s.relationRepo.Unfollow(ctx, userUUID, peerUUID)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return bizerr.Wrap(consts.CodeNotFollowing, err)
		}
		return err
	}
	return nil
}

// Block 拉黑用户。
// 级联移除双方之间的关注边；既有会话请求保留，
// 后续发送统一由资格判定拦截。
func (s *relationServiceImpl) Block(ctx context.Context, userUUID, peerUUID string) error {
	if err := s.checkPeer(ctx, userUUID, peerUUID); err != nil {
		return err
	}

	relation, err := s.relationRepo.GetRelation(ctx, userUUID, peerUUID)
	if err != nil && !errors.Is(err, repository.ErrRecordNotFound) {
		return err
	}
	if relation != nil && relation.Status == model.RelationBlock {
		return bizerr.New(consts.CodeAlreadyBlocked)
	}

	return s.relationRepo.Block(ctx, userUUID, peerUUID)
}

// Unblock 取消拉黑。
// 不恢复拉黑时被级联删除的关注边。
func (s *relationServiceImpl) Unblock(ctx context.Context, userUUID, peerUUID string) error {
	if err := s.checkPeer(ctx, userUUID, peerUUID); err != nil {
		return err
	}

	err := s.relationRepo.Unblock(ctx, userUUID, peerUUID)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return bizerr.Wrap(consts.CodeNotBlocked, err)
		}
		return err
	}
	return nil
}

// GetRelationStatus 查询与对方的关系状态
func (s *relationServiceImpl) GetRelationStatus(ctx context.Context, userUUID, peerUUID string) (*dto.RelationStatusResponse, error) {
	if err := s.checkPeer(ctx, userUUID, peerUUID); err != nil {
		return nil, err
	}

	following, err := s.relationRepo.IsFollowing(ctx, userUUID, peerUUID)
	if err != nil {
		return nil, err
	}
	followedBy, err := s.relationRepo.IsFollowing(ctx, peerUUID, userUUID)
	if err != nil {
		return nil, err
	}

	blocking := false
	relation, err := s.relationRepo.GetRelation(ctx, userUUID, peerUUID)
	if err != nil && !errors.Is(err, repository.ErrRecordNotFound) {
		return nil, err
	}
	if relation != nil && relation.Status == model.RelationBlock {
		blocking = true
	}

	return &dto.RelationStatusResponse{
		Following:  following,
		FollowedBy: followedBy,
		Blocking:   blocking,
	}, nil
}
