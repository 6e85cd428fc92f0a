package repository

import (
	"WaveChat/apps/api/internal/eligibility"
	"WaveChat/model"
	"WaveChat/pkg/idgen"
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// conversationRepositoryImpl 会话/消息/请求数据访问层实现
type conversationRepositoryImpl struct {
	db *gorm.DB
}

// NewConversationRepository 创建会话仓储实例
func NewConversationRepository(db *gorm.DB) IConversationRepository {
	return &conversationRepositoryImpl{db: db}
}

// ==================== 发送事务 ====================

// composeSnapshot 事务内一次性预取的判定快照
type composeSnapshot struct {
	sender    *model.UserInfo
	recipient *model.UserInfo
	input     eligibility.Input
}

// loadSnapshot 预取双方用户、关系边与既有请求。
// 请求行加 FOR UPDATE：并发发送时串行化请求 upsert，
// 防止同一无序对出现正反两条请求。
func (r *conversationRepositoryImpl) loadSnapshot(tx *gorm.DB, senderUUID, recipientUUID string) (*composeSnapshot, error) {
	// 1. 双方用户主档（一条 IN 查询）
	var users []model.UserInfo
	if err := tx.
		Where("uuid IN ?", []string{senderUUID, recipientUUID}).
		Find(&users).Error; err != nil {
		return nil, err
	}

	snap := &composeSnapshot{}
	for i := range users {
		switch users[i].Uuid {
		case senderUUID:
			snap.sender = &users[i]
		case recipientUUID:
			snap.recipient = &users[i]
		}
	}
	if snap.sender == nil {
		return nil, gorm.ErrRecordNotFound
	}

	// 2. 关系边（两个方向一次查清）
	var relations []model.UserRelation
	if err := tx.
		Where("(user_uuid = ? AND peer_uuid = ?) OR (user_uuid = ? AND peer_uuid = ?)",
			senderUUID, recipientUUID, recipientUUID, senderUUID).
		Find(&relations).Error; err != nil {
		return nil, err
	}

	blocked := false
	recipientFollowsSender := false
	for _, rel := range relations {
		if rel.Status == model.RelationBlock {
			blocked = true
		}
		if rel.Status == model.RelationFollow &&
			rel.UserUuid == recipientUUID && rel.PeerUuid == senderUUID {
			recipientFollowsSender = true
		}
	}

	// 3. 既有请求（无序对，正反都查，FOR UPDATE 锁行）
	var requests []model.ConversationRequest
	if err := tx.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("(sender_uuid = ? AND recipient_uuid = ?) OR (sender_uuid = ? AND recipient_uuid = ?)",
			senderUUID, recipientUUID, recipientUUID, senderUUID).
		Find(&requests).Error; err != nil {
		return nil, err
	}

	var pairReq *eligibility.PairRequest
	if len(requests) > 0 {
		pairReq = &eligibility.PairRequest{
			SenderUuid:    requests[0].SenderUuid,
			RecipientUuid: requests[0].RecipientUuid,
			Accepted:      requests[0].IsAccepted(),
		}
	}

	snap.input = eligibility.Input{
		SenderUuid:             senderUUID,
		RecipientUuid:          recipientUUID,
		SenderAccessible:       snap.sender.IsAccessible(),
		RecipientAccessible:    snap.recipient.IsAccessible(),
		Blocked:                blocked,
		RecipientFollowsSender: recipientFollowsSender,
		RecipientAllowsAll:     snap.recipient != nil && snap.recipient.AllowsAllMessages,
		PairRequest:            pairReq,
	}
	return snap, nil
}

// ensureConversation 幂等保证 holder→target 的会话视图存在并返回其 id
func (r *conversationRepositoryImpl) ensureConversation(tx *gorm.DB, holderUUID, targetUUID string, now time.Time) (int64, error) {
	conv := &model.Conversation{
		HolderUuid:     holderUUID,
		TargetUuid:     targetUUID,
		LastActivityAt: now,
	}
	// 已存在时什么都不做，id 统一回查（DoNothing 不回填主键）
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "holder_uuid"}, {Name: "target_uuid"}},
		DoNothing: true,
	}).Create(conv).Error; err != nil {
		return 0, err
	}

	var existing model.Conversation
	if err := tx.
		Select("id").
		Where("holder_uuid = ? AND target_uuid = ?", holderUUID, targetUUID).
		Take(&existing).Error; err != nil {
		return 0, err
	}
	return existing.Id, nil
}

// upsertRequest 维护无序对上的会话请求：
//   - 无既有请求：创建，信任路径（接收方关注发送方）视为即时接受；
//   - 既有未接受请求、且本次是原请求接收方经信任路径回信：补记接受时间；
//   - 其余情况保持原状。
func (r *conversationRepositoryImpl) upsertRequest(tx *gorm.DB, in eligibility.Input, now time.Time) error {
	if in.PairRequest == nil {
		req := &model.ConversationRequest{
			SenderUuid:    in.SenderUuid,
			RecipientUuid: in.RecipientUuid,
		}
		if in.RecipientFollowsSender {
			req.AcceptedAt = &now
		}
		return tx.Create(req).Error
	}

	// 延迟自动接受：原请求接收方开口回复，等同于接受
	if !in.PairRequest.Accepted &&
		in.PairRequest.SenderUuid == in.RecipientUuid {
		return tx.Model(&model.ConversationRequest{}).
			Where("sender_uuid = ? AND recipient_uuid = ? AND accepted_at IS NULL",
				in.PairRequest.SenderUuid, in.PairRequest.RecipientUuid).
			Update("accepted_at", now).Error
	}

	return nil
}

// ComposeMessage 端到端发送事务。
// 事务结构：快照预取 → 纯函数资格判定 → 消息落库 → 双侧会话视图/
// 链接 → 请求 upsert → 活跃时间更新。判定未通过时不产生任何写入。
// 唯一键冲突（并发首次发送同时建会话/请求）整体重试一次。
func (r *conversationRepositoryImpl) ComposeMessage(ctx context.Context, senderUUID, recipientUUID, body string) (*ComposeResult, eligibility.Decision, error) {
	// 自发自收不需要进事务
	if senderUUID == recipientUUID {
		return nil, eligibility.DenySelf, nil
	}

	var (
		res      *ComposeResult
		decision eligibility.Decision
		err      error
	)

	// 并发首发的双方可能同时插入会话/请求行，唯一索引兜底后重试一次即可收敛
	for attempt := 0; attempt < 2; attempt++ {
		res, decision, err = r.composeOnce(ctx, senderUUID, recipientUUID, body)
		if err == nil || !errors.Is(WrapDBError(err), ErrDuplicateKey) {
			break
		}
	}
	if err != nil {
		return nil, decision, WrapDBError(err)
	}
	return res, decision, nil
}

func (r *conversationRepositoryImpl) composeOnce(ctx context.Context, senderUUID, recipientUUID, body string) (*ComposeResult, eligibility.Decision, error) {
	var (
		result   ComposeResult
		decision eligibility.Decision
	)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		snap, err := r.loadSnapshot(tx, senderUUID, recipientUUID)
		if err != nil {
			return err
		}

		decision = eligibility.Decide(snap.input)
		if decision != eligibility.Allow {
			// 只读快照，无写入需要回滚
			return nil
		}

		now := time.Now()

		// 1. 消息落库（snowflake 预生成主键）
		msgID, err := idgen.NextID()
		if err != nil {
			return err
		}
		msg := model.Message{
			Id:            msgID,
			SenderUuid:    senderUUID,
			RecipientUuid: recipientUUID,
			Body:          body,
			HasReceipt: eligibility.HasReceipt(
				snap.sender.AllowsReceipts,
				snap.recipient.AllowsReceipts,
				snap.input,
			),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.Create(&msg).Error; err != nil {
			return err
		}

		// 2. 双侧会话视图（被删过的一侧在这里重建）
		senderConvID, err := r.ensureConversation(tx, senderUUID, recipientUUID, now)
		if err != nil {
			return err
		}
		recipientConvID, err := r.ensureConversation(tx, recipientUUID, senderUUID, now)
		if err != nil {
			return err
		}

		// 3. 双侧消息链接
		links := []model.ConversationMessage{
			{ConversationId: senderConvID, MessageId: msgID},
			{ConversationId: recipientConvID, MessageId: msgID},
		}
		if err := tx.Create(&links).Error; err != nil {
			return err
		}

		// 4. 请求握手维护
		if err := r.upsertRequest(tx, snap.input, now); err != nil {
			return err
		}

		// 5. 双侧活跃时间
		if err := tx.Model(&model.Conversation{}).
			Where("id IN ?", []int64{senderConvID, recipientConvID}).
			Update("last_activity_at", now).Error; err != nil {
			return err
		}

		result = ComposeResult{
			Message:                 msg,
			SenderConversationId:    senderConvID,
			RecipientConversationId: recipientConvID,
		}
		return nil
	})
	if err != nil {
		return nil, decision, err
	}
	if decision != eligibility.Allow {
		return nil, decision, nil
	}
	return &result, decision, nil
}

// ==================== 会话读路径 ====================

// GetOwnedConversation 查询 holder 名下的会话视图
func (r *conversationRepositoryImpl) GetOwnedConversation(ctx context.Context, holderUUID string, conversationID int64) (*model.Conversation, error) {
	var conv model.Conversation
	err := r.db.WithContext(ctx).
		Where("id = ? AND holder_uuid = ?", conversationID, holderUUID).
		Take(&conv).Error
	if err != nil {
		return nil, WrapDBError(err)
	}
	return &conv, nil
}

// ListConversations 按口径列出会话视图。
// 口径由无序对上的请求状态决定：
//   - inbox: 自己发起过请求，或收到的请求已接受；
//   - requests: 收到的请求尚未接受。
//
// 键集分页（last_activity_at, id 双列倒序），避免深分页 OFFSET。
func (r *conversationRepositoryImpl) ListConversations(ctx context.Context, holderUUID string, mode ConversationMode, cursor *ConversationCursor, limit int) ([]*model.Conversation, error) {
	if limit <= 0 {
		limit = 20
	}

	query := r.db.WithContext(ctx).
		Model(&model.Conversation{}).
		Where("holder_uuid = ?", holderUUID)

	switch mode {
	case ModeRequests:
		query = query.Where(`EXISTS (
			SELECT 1 FROM conversation_request cr
			WHERE cr.sender_uuid = conversation.target_uuid
			  AND cr.recipient_uuid = conversation.holder_uuid
			  AND cr.accepted_at IS NULL
		)`)
	default:
		query = query.Where(`EXISTS (
			SELECT 1 FROM conversation_request cr
			WHERE (cr.sender_uuid = conversation.holder_uuid AND cr.recipient_uuid = conversation.target_uuid)
			   OR (cr.sender_uuid = conversation.target_uuid AND cr.recipient_uuid = conversation.holder_uuid
			       AND cr.accepted_at IS NOT NULL)
		)`)
	}

	if cursor != nil {
		query = query.Where(
			"(last_activity_at < ?) OR (last_activity_at = ? AND id < ?)",
			cursor.BeforeActivity, cursor.BeforeActivity, cursor.BeforeId,
		)
	}

	var conversations []*model.Conversation
	if err := query.
		Order("last_activity_at DESC, id DESC").
		Limit(limit).
		Find(&conversations).Error; err != nil {
		return nil, WrapDBError(err)
	}
	return conversations, nil
}

// LastMessage 会话视图中最新一条仍可见的消息
func (r *conversationRepositoryImpl) LastMessage(ctx context.Context, conversationID int64) (*model.Message, error) {
	var msg model.Message
	err := r.db.WithContext(ctx).
		Joins("JOIN conversation_message cm ON cm.message_id = message.id").
		Where("cm.conversation_id = ?", conversationID).
		Order("message.created_at DESC, message.id DESC").
		Take(&msg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 视图存在但消息都被删光了，不算错误
			return nil, nil
		}
		return nil, WrapDBError(err)
	}
	return &msg, nil
}

// ListMessages 列出会话视图内可见消息（created_at DESC 键集分页）
func (r *conversationRepositoryImpl) ListMessages(ctx context.Context, conversationID int64, cursor *MessageCursor, limit int) ([]*model.Message, error) {
	if limit <= 0 {
		limit = 50
	}

	query := r.db.WithContext(ctx).
		Model(&model.Message{}).
		Joins("JOIN conversation_message cm ON cm.message_id = message.id").
		Where("cm.conversation_id = ?", conversationID)

	if cursor != nil {
		query = query.Where(
			"(message.created_at < ?) OR (message.created_at = ? AND message.id < ?)",
			cursor.BeforeCreated, cursor.BeforeCreated, cursor.BeforeId,
		)
	}

	var messages []*model.Message
	if err := query.
		Order("message.created_at DESC, message.id DESC").
		Limit(limit).
		Find(&messages).Error; err != nil {
		return nil, WrapDBError(err)
	}
	return messages, nil
}

// ==================== 删除路径（孤儿消息回收） ====================

// DeleteMessageForHolder 删除 holder 视图中的一条消息链接。
// 若删除后底层消息不再被任何视图链接，同事务删除消息本体。
func (r *conversationRepositoryImpl) DeleteMessageForHolder(ctx context.Context, holderUUID string, conversationID, messageID int64) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 归属校验：会话视图必须属于 holder
		var conv model.Conversation
		if err := tx.
			Select("id").
			Where("id = ? AND holder_uuid = ?", conversationID, holderUUID).
			Take(&conv).Error; err != nil {
			return err
		}

		result := tx.
			Where("conversation_id = ? AND message_id = ?", conversationID, messageID).
			Delete(&model.ConversationMessage{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		// 最后一条链接被删除时回收消息本体
		var remaining int64
		if err := tx.Model(&model.ConversationMessage{}).
			Where("message_id = ?", messageID).
			Count(&remaining).Error; err != nil {
			return err
		}
		if remaining == 0 {
			if err := tx.Where("id = ?", messageID).
				Delete(&model.Message{}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	return WrapDBError(err)
}

// DeleteConversation 删除 holder 的会话视图及其全部链接。
// 对端视图与请求行不受影响；只被本视图链接的消息同事务回收。
func (r *conversationRepositoryImpl) DeleteConversation(ctx context.Context, holderUUID string, conversationID int64) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var conv model.Conversation
		if err := tx.
			Select("id").
			Where("id = ? AND holder_uuid = ?", conversationID, holderUUID).
			Take(&conv).Error; err != nil {
			return err
		}

		// 先收集本视图链接的消息 id，链接删除后用于孤儿判定
		var messageIDs []int64
		if err := tx.Model(&model.ConversationMessage{}).
			Where("conversation_id = ?", conversationID).
			Pluck("message_id", &messageIDs).Error; err != nil {
			return err
		}

		if err := tx.
			Where("conversation_id = ?", conversationID).
			Delete(&model.ConversationMessage{}).Error; err != nil {
			return err
		}

		// 回收不再被任何视图链接的消息
		if len(messageIDs) > 0 {
			if err := tx.
				Where("id IN ?", messageIDs).
				Where("NOT EXISTS (SELECT 1 FROM conversation_message cm WHERE cm.message_id = message.id)").
				Delete(&model.Message{}).Error; err != nil {
				return err
			}
		}

		return tx.Delete(&model.Conversation{}, conv.Id).Error
	})
	return WrapDBError(err)
}

// ==================== 请求接受与已读 ====================

// AcceptConversation 接受该视图对应的待处理请求（幂等）。
// 请求行加 FOR UPDATE，与 compose 事务内的延迟自动接受互斥。
func (r *conversationRepositoryImpl) AcceptConversation(ctx context.Context, holderUUID string, conversationID int64) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var conv model.Conversation
		if err := tx.
			Where("id = ? AND holder_uuid = ?", conversationID, holderUUID).
			Take(&conv).Error; err != nil {
			return err
		}

		var req model.ConversationRequest
		err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("sender_uuid = ? AND recipient_uuid = ? AND accepted_at IS NULL",
				conv.TargetUuid, holderUUID).
			Take(&req).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// 无待处理请求（已接受过或自己是发起方），幂等成功
				return nil
			}
			return err
		}

		now := time.Now()
		if err := tx.Model(&model.ConversationRequest{}).
			Where("id = ?", req.Id).
			Update("accepted_at", now).Error; err != nil {
			return err
		}

		// 接受会把会话从请求箱挪进收件箱，顺带刷新活跃时间
		return tx.Model(&model.Conversation{}).
			Where("id = ?", conv.Id).
			Update("last_activity_at", now).Error
	})
	return WrapDBError(err)
}

// MarkRead 批量已读。
// 只动 recipient=holder、时间戳不晚于 upTo、尚未已读的消息；
// read_at 一经写入不再变化（重复调用幂等，返回 0 行）。
func (r *conversationRepositoryImpl) MarkRead(ctx context.Context, holderUUID string, conversationID int64, upTo time.Time) (int64, error) {
	// 归属校验
	if _, err := r.GetOwnedConversation(ctx, holderUUID, conversationID); err != nil {
		return 0, err
	}

	now := time.Now()
	result := r.db.WithContext(ctx).Exec(`
		UPDATE message m
		JOIN conversation_message cm ON cm.message_id = m.id
		SET m.read_at = ?, m.updated_at = ?
		WHERE cm.conversation_id = ?
		  AND m.recipient_uuid = ?
		  AND m.created_at <= ?
		  AND m.read_at IS NULL`,
		now, now, conversationID, holderUUID, upTo,
	)
	if result.Error != nil {
		return 0, WrapDBError(result.Error)
	}
	return result.RowsAffected, nil
}
