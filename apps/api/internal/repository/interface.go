package repository

import (
	"context"
	"time"

	"WaveChat/apps/api/internal/eligibility"
	"WaveChat/model"
)

// ==================== 用户 Repository ====================

// IUserRepository 用户信息数据访问接口
type IUserRepository interface {
	// GetByUUID 根据UUID查询用户
	GetByUUID(ctx context.Context, uuid string) (*model.UserInfo, error)

	// GetByEmail 根据邮箱查询用户（登录用）
	GetByEmail(ctx context.Context, email string) (*model.UserInfo, error)

	// UpdateMessageSettings 更新私信相关开关位
	UpdateMessageSettings(ctx context.Context, uuid string, private, allowsAllMessages, allowsReceipts bool) error
}

// ==================== 关系 Repository ====================

// IRelationRepository 关注/拉黑关系数据访问接口
type IRelationRepository interface {
	// IsFollowing from 是否关注 to（有向）
	IsFollowing(ctx context.Context, fromUUID, toUUID string) (bool, error)

	// HasBlockRel 两人之间是否存在拉黑边（任一方向）
	HasBlockRel(ctx context.Context, aUUID, bUUID string) (bool, error)

	// GetRelation 查询有序对上的关系行，不存在返回 ErrRecordNotFound
	GetRelation(ctx context.Context, userUUID, peerUUID string) (*model.UserRelation, error)

	// Follow 建立关注边（幂等 upsert）
	Follow(ctx context.Context, userUUID, peerUUID string) error

	// Unfollow 删除关注边，不存在返回 ErrRecordNotFound
	Unfollow(ctx context.Context, userUUID, peerUUID string) error

	// Block 建立拉黑边，并在同一事务内级联删除双向关注边。
	// 既有会话请求保留（后续发送由资格检查拒绝）。
	Block(ctx context.Context, userUUID, peerUUID string) error

	// Unblock 删除拉黑边，不存在返回 ErrRecordNotFound
	Unblock(ctx context.Context, userUUID, peerUUID string) error
}

// ==================== 会话 Repository ====================

// ConversationMode 会话列表口径。
type ConversationMode string

const (
	// ModeInbox 收件箱：自己发起过请求，或收到的请求已接受。
	ModeInbox ConversationMode = "inbox"
	// ModeRequests 请求箱：收到的请求尚未接受。
	ModeRequests ConversationMode = "requests"
)

// ComposeResult 一次成功发送的事务产物。
type ComposeResult struct {
	Message                 model.Message
	SenderConversationId    int64
	RecipientConversationId int64
}

// ConversationCursor 会话列表键集游标（last_activity_at, id 双列倒序）。
type ConversationCursor struct {
	BeforeActivity time.Time
	BeforeId       int64
}

// MessageCursor 消息列表键集游标（created_at, id 双列倒序）。
type MessageCursor struct {
	BeforeCreated time.Time
	BeforeId      int64
}

// IConversationRepository 会话/消息/请求数据访问接口。
// 写路径全部运行在单事务内，孤儿消息回收（删除最后一条链接时
// 连带删除 message 行）在各删除路径内部保证。
type IConversationRepository interface {
	// ComposeMessage 端到端发送事务：
	// 预取快照 → 资格判定 → 落消息 → 双侧会话/链接 → 请求 upsert。
	// 判定未通过时返回非 Allow 的 denial，不产生任何写入。
	ComposeMessage(ctx context.Context, senderUUID, recipientUUID, body string) (*ComposeResult, eligibility.Decision, error)

	// GetOwnedConversation 查询 holder 名下的会话视图，不属于该用户时返回 ErrRecordNotFound
	GetOwnedConversation(ctx context.Context, holderUUID string, conversationID int64) (*model.Conversation, error)

	// ListConversations 按口径列出会话视图，last_activity_at DESC 排序
	ListConversations(ctx context.Context, holderUUID string, mode ConversationMode, cursor *ConversationCursor, limit int) ([]*model.Conversation, error)

	// LastMessage 会话视图中最新一条仍可见的消息，无剩余链接时返回 (nil, nil)
	LastMessage(ctx context.Context, conversationID int64) (*model.Message, error)

	// ListMessages 列出会话视图内可见消息，created_at DESC 排序
	ListMessages(ctx context.Context, conversationID int64, cursor *MessageCursor, limit int) ([]*model.Message, error)

	// DeleteMessageForHolder 删除 holder 视图中的一条消息链接；
	// 若为最后一条链接则同事务删除底层消息。
	DeleteMessageForHolder(ctx context.Context, holderUUID string, conversationID, messageID int64) error

	// DeleteConversation 删除 holder 的会话视图及其全部链接；
	// 因此成为孤儿的消息同事务删除。
	DeleteConversation(ctx context.Context, holderUUID string, conversationID int64) error

	// AcceptConversation 接受该视图对应的待处理请求（幂等）。
	// 无待处理请求时静默成功；会话不属于 holder 时返回 ErrRecordNotFound。
	AcceptConversation(ctx context.Context, holderUUID string, conversationID int64) error

	// MarkRead 批量已读：将会话内 recipient=holder、created_at<=upTo、
	// 尚未已读的消息置为已读，返回受影响行数。
	MarkRead(ctx context.Context, holderUUID string, conversationID int64, upTo time.Time) (int64, error)
}
