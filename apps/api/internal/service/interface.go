package service

import (
	"context"

	"WaveChat/apps/api/internal/dto"
)

// UserService 用户服务接口
type UserService interface {
	// Login 邮箱密码登录，签发访问令牌
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error)

	// GetMessageSettings 获取私信设置
	GetMessageSettings(ctx context.Context, userUUID string) (*dto.MessageSettingsResponse, error)

	// UpdateMessageSettings 更新私信设置（整体提交）
	UpdateMessageSettings(ctx context.Context, userUUID string, req *dto.UpdateMessageSettingsRequest) (*dto.MessageSettingsResponse, error)
}

// RelationService 关注/拉黑关系服务接口
type RelationService interface {
	// Follow 关注用户
	Follow(ctx context.Context, userUUID, peerUUID string) error

	// Unfollow 取消关注
	Unfollow(ctx context.Context, userUUID, peerUUID string) error

	// Block 拉黑用户（级联移除双向关注）
	Block(ctx context.Context, userUUID, peerUUID string) error

	// Unblock 取消拉黑
	Unblock(ctx context.Context, userUUID, peerUUID string) error

	// GetRelationStatus 查询与对方的关系状态
	GetRelationStatus(ctx context.Context, userUUID, peerUUID string) (*dto.RelationStatusResponse, error)
}

// MessageService 私信发送与消息级操作服务接口
type MessageService interface {
	// SendMessage 发送私信（资格判定 + 落库 + 事件推送）
	SendMessage(ctx context.Context, senderUUID string, req *dto.SendMessageRequest) (*dto.SendMessageResponse, error)

	// DeleteMessage 从自己的会话视图中删除一条消息
	DeleteMessage(ctx context.Context, userUUID string, conversationID, messageID int64) error

	// MarkRead 批量已读（幂等）
	MarkRead(ctx context.Context, userUUID string, conversationID int64, req *dto.MarkReadRequest) (*dto.MarkReadResponse, error)
}

// ConversationService 会话视图服务接口
type ConversationService interface {
	// ListConversations 按口径列出会话
	ListConversations(ctx context.Context, userUUID string, req *dto.ListConversationsRequest) (*dto.ListConversationsResponse, error)

	// ListMessages 列出会话内可见消息
	ListMessages(ctx context.Context, userUUID string, conversationID int64, req *dto.ListMessagesRequest) (*dto.ListMessagesResponse, error)

	// DeleteConversation 删除自己的会话视图
	DeleteConversation(ctx context.Context, userUUID string, conversationID int64) error

	// AcceptConversation 接受该会话对应的私信请求（幂等）
	AcceptConversation(ctx context.Context, userUUID string, conversationID int64) error

	// IssueWSTicket 签发 WebSocket 升级票据
	IssueWSTicket(ctx context.Context, userUUID string) (*dto.WSTicketResponse, error)
}
