package service

import (
	"context"
	"errors"
	"time"

	"WaveChat/apps/api/internal/bizerr"
	"WaveChat/apps/api/internal/dto"
	"WaveChat/apps/api/internal/eligibility"
	"WaveChat/apps/api/internal/repository"
	"WaveChat/consts"
	rediskey "WaveChat/consts/redisKey"
	"WaveChat/pkg/async"
	"WaveChat/pkg/logger"
	"WaveChat/pkg/wsevent"
)

// Publisher 事件发布接口（便于测试注入）
type Publisher interface {
	PublishConversationMessage(ctx context.Context, channel string, event wsevent.ConversationMessage)
}

// 正文按 UTF-8 字节限长，与存储列宽一致
const maxMessageBodyBytes = 4096

// messageServiceImpl 私信发送服务实现
type messageServiceImpl struct {
	convRepo  repository.IConversationRepository
	publisher Publisher
}

// NewMessageService 创建私信服务实例
func NewMessageService(convRepo repository.IConversationRepository, pub Publisher) MessageService {
	return &messageServiceImpl{
		convRepo:  convRepo,
		publisher: pub,
	}
}

// decisionCode 资格判定结果到业务错误码的映射
func decisionCode(d eligibility.Decision) int32 {
	switch d {
	case eligibility.DenySelf:
		return consts.CodeSelfTarget
	case eligibility.DenyInaccessible:
		return consts.CodeNotAccessible
	case eligibility.DenyBlock:
		return consts.CodeBlocked
	case eligibility.DenyNotAccepted:
		return consts.CodeNotAccepted
	case eligibility.DenyRequestsDisabled:
		return consts.CodeRequestsDisabled
	default:
		return consts.CodeMessageSendFail
	}
}

// SendMessage 发送私信。
// 事务提交成功即视为发送成功；事件推送在事务外异步进行，
// 推送失败不回滚也不报错（重投队列与客户端拉取兜底）。
func (s *messageServiceImpl) SendMessage(ctx context.Context, senderUUID string, req *dto.SendMessageRequest) (*dto.SendMessageResponse, error) {
	if len(req.Body) == 0 || len(req.Body) > maxMessageBodyBytes {
		return nil, bizerr.New(consts.CodeBodyTooLarge)
	}

	res, decision, err := s.convRepo.ComposeMessage(ctx, senderUUID, req.RecipientUUID, req.Body)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return nil, bizerr.Wrap(consts.CodeUserNotFound, err)
		}
		return nil, err
	}
	if decision != eligibility.Allow {
		return nil, bizerr.New(decisionCode(decision))
	}

	s.fanoutAsync(ctx, senderUUID, req.RecipientUUID, res)

	return &dto.SendMessageResponse{
		MessageID:      formatID(res.Message.Id),
		ConversationID: formatID(res.SenderConversationId),
		CreatedAt:      res.Message.CreatedAt.UnixMilli(),
		HasReceipt:     res.Message.HasReceipt,
	}, nil
}

// fanoutAsync 事务提交后的事件扇出：
// 接收方频道带接收方视图的会话 id，发送方频道带发送方视图的
// 会话 id（用于同账号其它在线端同步）。
func (s *messageServiceImpl) fanoutAsync(ctx context.Context, senderUUID, recipientUUID string, res *repository.ComposeResult) {
	msg := res.Message
	recipientConvID := res.RecipientConversationId
	senderConvID := res.SenderConversationId

	async.RunSafe(ctx, func(runCtx context.Context) {
		s.publisher.PublishConversationMessage(runCtx,
			rediskey.ConvEventChannel(recipientUUID),
			wsevent.NewConversationMessage(recipientConvID, msg.Id, msg.CreatedAt),
		)
		s.publisher.PublishConversationMessage(runCtx,
			rediskey.ConvEventChannel(senderUUID),
			wsevent.NewConversationMessage(senderConvID, msg.Id, msg.CreatedAt),
		)
	}, 5*time.Second)
}

// DeleteMessage 从自己的会话视图中删除一条消息
func (s *messageServiceImpl) DeleteMessage(ctx context.Context, userUUID string, conversationID, messageID int64) error {
	err := s.convRepo.DeleteMessageForHolder(ctx, userUUID, conversationID, messageID)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return bizerr.Wrap(consts.CodeMessageNotFound, err)
		}
		return err
	}
	return nil
}

// MarkRead 批量已读（幂等，重复调用返回 0 行）
func (s *messageServiceImpl) MarkRead(ctx context.Context, userUUID string, conversationID int64, req *dto.MarkReadRequest) (*dto.MarkReadResponse, error) {
	upTo := time.UnixMilli(req.UpTo)
	updated, err := s.convRepo.MarkRead(ctx, userUUID, conversationID, upTo)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return nil, bizerr.Wrap(consts.CodeConversationNotFound, err)
		}
		return nil, err
	}

	logger.Debug(ctx, "批量已读完成",
		logger.Int64("conversation_id", conversationID),
		logger.Int64("updated", updated),
	)
	return &dto.MarkReadResponse{UpdatedCount: updated}, nil
}
