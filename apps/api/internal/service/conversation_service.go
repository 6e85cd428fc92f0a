package service

import (
	"context"
	"errors"

	"WaveChat/apps/api/internal/bizerr"
	"WaveChat/apps/api/internal/dto"
	"WaveChat/apps/api/internal/repository"
	"WaveChat/consts"
	"WaveChat/pkg/logger"
	"WaveChat/pkg/ticket"
)

// conversationServiceImpl 会话视图服务实现
type conversationServiceImpl struct {
	convRepo     repository.IConversationRepository
	ticketIssuer *ticket.Issuer
}

// NewConversationService 创建会话服务实例
func NewConversationService(convRepo repository.IConversationRepository, issuer *ticket.Issuer) ConversationService {
	return &conversationServiceImpl{
		convRepo:     convRepo,
		ticketIssuer: issuer,
	}
}

// ListConversations 按口径列出会话。
// 每个会话附带视图内最新可见消息；两侧删除不对称，
// last_message 可能为空（消息都被本侧删光）。
func (s *conversationServiceImpl) ListConversations(ctx context.Context, userUUID string, req *dto.ListConversationsRequest) (*dto.ListConversationsResponse, error) {
	mode := repository.ModeInbox
	if req.Mode == string(repository.ModeRequests) {
		mode = repository.ModeRequests
	}

	cursor, err := decodeConversationCursor(req.Cursor)
	if err != nil {
		return nil, bizerr.Wrap(consts.CodeInvalidCursor, err)
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 20
	}

	conversations, err := s.convRepo.ListConversations(ctx, userUUID, mode, cursor, limit)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.ConversationItem, 0, len(conversations))
	for _, conv := range conversations {
		last, err := s.convRepo.LastMessage(ctx, conv.Id)
		if err != nil {
			// 单个会话的预览取不出来不影响整页
			logger.Warn(ctx, "读取会话最新消息失败",
				logger.Int64("conversation_id", conv.Id),
				logger.ErrorField("error", err),
			)
		}
		items = append(items, &dto.ConversationItem{
			ConversationID: formatID(conv.Id),
			TargetUUID:     conv.TargetUuid,
			LastActivityAt: conv.LastActivityAt.UnixMilli(),
			LastMessage:    toMessageItem(last),
		})
	}

	resp := &dto.ListConversationsResponse{Items: items}
	if len(conversations) == limit {
		tail := conversations[len(conversations)-1]
		resp.NextCursor = encodeCursor(tail.LastActivityAt, tail.Id)
	}
	return resp, nil
}

// ListMessages 列出会话内可见消息
func (s *conversationServiceImpl) ListMessages(ctx context.Context, userUUID string, conversationID int64, req *dto.ListMessagesRequest) (*dto.ListMessagesResponse, error) {
	// 归属校验：视图必须属于当前用户
	if _, err := s.convRepo.GetOwnedConversation(ctx, userUUID, conversationID); err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return nil, bizerr.Wrap(consts.CodeConversationNotFound, err)
		}
		return nil, err
	}

	cursor, err := decodeMessageCursor(req.Cursor)
	if err != nil {
		return nil, bizerr.Wrap(consts.CodeInvalidCursor, err)
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}

	messages, err := s.convRepo.ListMessages(ctx, conversationID, cursor, limit)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.MessageItem, 0, len(messages))
	for _, m := range messages {
		items = append(items, toMessageItem(m))
	}

	resp := &dto.ListMessagesResponse{Items: items}
	if len(messages) == limit {
		tail := messages[len(messages)-1]
		resp.NextCursor = encodeCursor(tail.CreatedAt, tail.Id)
	}
	return resp, nil
}

// DeleteConversation 删除自己的会话视图（对端不受影响）
func (s *conversationServiceImpl) DeleteConversation(ctx context.Context, userUUID string, conversationID int64) error {
	err := s.convRepo.DeleteConversation(ctx, userUUID, conversationID)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return bizerr.Wrap(consts.CodeConversationNotFound, err)
		}
		return err
	}
	return nil
}

// AcceptConversation 接受私信请求（幂等）
func (s *conversationServiceImpl) AcceptConversation(ctx context.Context, userUUID string, conversationID int64) error {
	err := s.convRepo.AcceptConversation(ctx, userUUID, conversationID)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return bizerr.Wrap(consts.CodeConversationNotFound, err)
		}
		return err
	}
	return nil
}

// IssueWSTicket 签发 WebSocket 升级票据。
// 票据时效极短（秒级）且一次性，换取 connect 服务的升级许可。
func (s *conversationServiceImpl) IssueWSTicket(ctx context.Context, userUUID string) (*dto.WSTicketResponse, error) {
	raw, err := s.ticketIssuer.Issue(userUUID, ticket.PurposeConversationsWS)
	if err != nil {
		return nil, err
	}
	return &dto.WSTicketResponse{Ticket: raw}, nil
}
