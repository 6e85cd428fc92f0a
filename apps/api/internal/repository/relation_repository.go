package repository

import (
	rediskey "WaveChat/consts/redisKey"
	"WaveChat/model"
	"WaveChat/pkg/async"
	"context"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// relationRepositoryImpl 关注/拉黑关系数据访问层实现
type relationRepositoryImpl struct {
	db          *gorm.DB
	redisClient *redis.Client
}

// NewRelationRepository 创建关系仓储实例
func NewRelationRepository(db *gorm.DB, redisClient *redis.Client) IRelationRepository {
	return &relationRepositoryImpl{db: db, redisClient: redisClient}
}

// checkSetCache 检查单个关系集合缓存
// 返回值: cacheHit(该 Key 是否存在), isMember(是否包含对方)
// 采用 Pipeline 一次性发送命令，减少网络 RTT。
// redisClient 为 nil 时（Redis 初始化失败的降级模式）视为未命中，直接回源 MySQL。
func (r *relationRepositoryImpl) checkSetCache(ctx context.Context, cacheKey, member string) (bool, bool) {
	if r.redisClient == nil {
		return false, false
	}
	pipe := r.redisClient.Pipeline()

	// 命令1: 检查 Key 是否存在 (区分缓存命中/未命中)
	existsCmd := pipe.Exists(ctx, cacheKey)
	// 命令2: 检查成员 (只有 Key 存在时此结果才有效)
	isMemberCmd := pipe.SIsMember(ctx, cacheKey, member)

	// 概率续期优化：1% 的概率在读取时顺便续期
	// 无论 Key 是否存在，Expire 都是安全的 (不存在则返回0)
	if getRandomBool(0.01) {
		pipe.Expire(ctx, cacheKey, getRandomExpireTime(rediskey.RelationCacheTTL))
	}

	_, err := pipe.Exec(ctx)
	if err != nil && err != redis.Nil {
		if isRedisWrongType(err) {
			_ = r.redisClient.Del(ctx, cacheKey).Err()
		} else {
			// Redis 挂了，记录日志，降级去查 DB
			LogRedisError(ctx, err)
		}
		return false, false
	}

	if existsCmd.Val() == 0 {
		return false, false
	}

	// 缓存命中时 Redis 是权威的：哪怕 Set 里只有 "__EMPTY__"，
	// SIsMember 也会正确返回 false。
	return true, isMemberCmd.Val()
}

// rebuildSetCacheAsync 异步重建关系集合缓存
// 空集合写入占位成员并用较短 TTL，防止缓存穿透。
func (r *relationRepositoryImpl) rebuildSetCacheAsync(ctx context.Context, cacheKey string, members []string) {
	if r.redisClient == nil {
		return
	}
	async.RunSafe(ctx, func(runCtx context.Context) {
		pipe := r.redisClient.Pipeline()
		pipe.Del(runCtx, cacheKey)

		if len(members) == 0 {
			pipe.SAdd(runCtx, cacheKey, rediskey.RelationCacheEmptyMember)
			pipe.Expire(runCtx, cacheKey, rediskey.RelationCacheEmptyTTL)
		} else {
			args := make([]interface{}, 0, len(members))
			for _, m := range members {
				if m == "" {
					continue
				}
				args = append(args, m)
			}
			pipe.SAdd(runCtx, cacheKey, args...)
			pipe.Expire(runCtx, cacheKey, getRandomExpireTime(rediskey.RelationCacheTTL))
		}

		if _, err := pipe.Exec(runCtx); err != nil && err != redis.Nil {
			if isRedisWrongType(err) {
				_ = r.redisClient.Del(runCtx, cacheKey).Err()
				return
			}
			LogRedisError(runCtx, err)
		}
	}, 0)
}

// invalidateCacheAsync 异步删除缓存 Key（写路径统一用失效而非增量更新，
// 下一次读取回源重建，避免并发写把集合改出不一致状态）
func (r *relationRepositoryImpl) invalidateCacheAsync(ctx context.Context, keys ...string) {
	if r.redisClient == nil {
		return
	}
	async.RunSafe(ctx, func(runCtx context.Context) {
		if err := r.redisClient.Del(runCtx, keys...).Err(); err != nil && err != redis.Nil {
			LogRedisError(runCtx, err)
		}
	}, 0)
}

// loadPeerSet 回源查询某用户在指定状态下的全部 peer_uuid
func (r *relationRepositoryImpl) loadPeerSet(ctx context.Context, userUUID string, status int8) ([]string, error) {
	var peers []string
	err := r.db.WithContext(ctx).
		Model(&model.UserRelation{}).
		Where("user_uuid = ? AND status = ?", userUUID, status).
		Pluck("peer_uuid", &peers).Error
	if err != nil {
		return nil, WrapDBError(err)
	}
	return peers, nil
}

// IsFollowing 检查 from 是否关注 to（有向）
// 采用 Cache-Aside Pattern：优先查 Redis Set，未命中则回源 MySQL 并重建缓存
func (r *relationRepositoryImpl) IsFollowing(ctx context.Context, fromUUID, toUUID string) (bool, error) {
	cacheKey := rediskey.FollowSetKey(fromUUID)

	if hit, isMember := r.checkSetCache(ctx, cacheKey, toUUID); hit {
		return isMember, nil
	}

	// 缓存未命中，回源查询 MySQL 并重建整侧集合
	peers, err := r.loadPeerSet(ctx, fromUUID, model.RelationFollow)
	if err != nil {
		return false, err
	}

	r.rebuildSetCacheAsync(ctx, cacheKey, peers)

	for _, peer := range peers {
		if peer == toUUID {
			return true, nil
		}
	}
	return false, nil
}

// HasBlockRel 检查两人之间是否存在拉黑边（任一方向）
// 先查双方的拉黑集合缓存，任一侧命中且包含对方即为拉黑；
// 只要有一侧未命中就回源 DB 一次查清两个方向。
func (r *relationRepositoryImpl) HasBlockRel(ctx context.Context, aUUID, bUUID string) (bool, error) {
	aHit, aBlocked := r.checkSetCache(ctx, rediskey.BlockSetKey(aUUID), bUUID)
	if aHit && aBlocked {
		return true, nil
	}
	bHit, bBlocked := r.checkSetCache(ctx, rediskey.BlockSetKey(bUUID), aUUID)
	if bHit && bBlocked {
		return true, nil
	}
	if aHit && bHit {
		return false, nil
	}

	// 缓存未命中，回源查询 MySQL（一条 SQL 覆盖两个方向）
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.UserRelation{}).
		Where("status = ?", model.RelationBlock).
		Where("(user_uuid = ? AND peer_uuid = ?) OR (user_uuid = ? AND peer_uuid = ?)",
			aUUID, bUUID, bUUID, aUUID).
		Count(&count).Error
	if err != nil {
		return false, WrapDBError(err)
	}

	// 重建未命中的那一侧
	if !aHit {
		if peers, loadErr := r.loadPeerSet(ctx, aUUID, model.RelationBlock); loadErr == nil {
			r.rebuildSetCacheAsync(ctx, rediskey.BlockSetKey(aUUID), peers)
		}
	}
	if !bHit {
		if peers, loadErr := r.loadPeerSet(ctx, bUUID, model.RelationBlock); loadErr == nil {
			r.rebuildSetCacheAsync(ctx, rediskey.BlockSetKey(bUUID), peers)
		}
	}

	return count > 0, nil
}

// GetRelation 查询有序对上的关系行
func (r *relationRepositoryImpl) GetRelation(ctx context.Context, userUUID, peerUUID string) (*model.UserRelation, error) {
	var relation model.UserRelation
	err := r.db.WithContext(ctx).
		Where("user_uuid = ? AND peer_uuid = ?", userUUID, peerUUID).
		Take(&relation).Error
	if err != nil {
		return nil, WrapDBError(err)
	}
	return &relation, nil
}

// Follow 建立关注边（幂等 upsert）
// 使用 Upsert (INSERT ON DUPLICATE KEY UPDATE) 策略：
//   - 原子性：不存在"查不到然后插入报错"的时间差
//   - 幂等：重复关注不报错
//
// 调用方负责先行排除拉黑关系；这里不允许 upsert 把既有拉黑边降级成关注。
func (r *relationRepositoryImpl) Follow(ctx context.Context, userUUID, peerUUID string) error {
	relation := &model.UserRelation{
		UserUuid: userUUID,
		PeerUuid: peerUUID,
		Status:   model.RelationFollow,
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		// 指定冲突列（必须是数据库的唯一索引列）
		Columns: []clause.Column{{Name: "user_uuid"}, {Name: "peer_uuid"}},
		// 已有同向边时不做任何修改：既有关注保持幂等，既有拉黑保持不变
		DoNothing: true,
	}).Create(relation).Error
	if err != nil {
		return WrapDBError(err)
	}

	r.invalidateCacheAsync(ctx, rediskey.FollowSetKey(userUUID))

	return nil
}

// Unfollow 删除关注边（单向）
func (r *relationRepositoryImpl) Unfollow(ctx context.Context, userUUID, peerUUID string) error {
	result := r.db.WithContext(ctx).
		Where("user_uuid = ? AND peer_uuid = ? AND status = ?", userUUID, peerUUID, model.RelationFollow).
		Delete(&model.UserRelation{})
	if result.Error != nil {
		return WrapDBError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}

	r.invalidateCacheAsync(ctx, rediskey.FollowSetKey(userUUID))

	return nil
}

// Block 建立拉黑边，并级联删除双向关注边
// 同一事务内完成：拉黑边 upsert + 双向关注边删除。
// 既有会话请求行保留不动，后续发送由资格判定拦截。
func (r *relationRepositoryImpl) Block(ctx context.Context, userUUID, peerUUID string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		relation := &model.UserRelation{
			UserUuid: userUUID,
			PeerUuid: peerUUID,
			Status:   model.RelationBlock,
		}

		// 同一有序对已有关注边时直接覆盖为拉黑
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_uuid"}, {Name: "peer_uuid"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"status": model.RelationBlock,
			}),
		}).Create(relation).Error; err != nil {
			return err
		}

		// 级联删除双向关注边（反方向的关注也一并移除）
		if err := tx.
			Where("user_uuid = ? AND peer_uuid = ? AND status = ?", peerUUID, userUUID, model.RelationFollow).
			Delete(&model.UserRelation{}).Error; err != nil {
			return err
		}

		return nil
	})
	if err != nil {
		return WrapDBError(err)
	}

	r.invalidateCacheAsync(ctx,
		rediskey.BlockSetKey(userUUID),
		rediskey.FollowSetKey(userUUID),
		rediskey.FollowSetKey(peerUUID),
	)

	return nil
}

// Unblock 删除拉黑边（单向）
// 解除拉黑不恢复曾被级联删除的关注边。
func (r *relationRepositoryImpl) Unblock(ctx context.Context, userUUID, peerUUID string) error {
	result := r.db.WithContext(ctx).
		Where("user_uuid = ? AND peer_uuid = ? AND status = ?", userUUID, peerUUID, model.RelationBlock).
		Delete(&model.UserRelation{})
	if result.Error != nil {
		return WrapDBError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}

	r.invalidateCacheAsync(ctx, rediskey.BlockSetKey(userUUID))

	return nil
}
