package dto

// ==================== 会话相关 DTO ====================

// ListConversationsRequest 会话列表请求 DTO
// mode 为口径：inbox 收件箱（默认），requests 待接受的请求箱。
type ListConversationsRequest struct {
	Mode   string `form:"mode" binding:"omitempty,oneof=inbox requests"` // 列表口径
	Cursor string `form:"cursor" binding:"omitempty,max=128"`            // 键集分页游标
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=100"`       // 每页大小
}

// ConversationItem 会话信息 DTO
type ConversationItem struct {
	ConversationID string       `json:"conversationId"`        // 会话ID（holder 视图）
	TargetUUID     string       `json:"targetUuid"`            // 对端用户UUID
	LastActivityAt int64        `json:"lastActivityAt"`        // 最近活跃时间（毫秒时间戳）
	LastMessage    *MessageItem `json:"lastMessage,omitempty"` // 视图内最新可见消息，可能为空
}

// ListConversationsResponse 会话列表响应 DTO
type ListConversationsResponse struct {
	Items      []*ConversationItem `json:"items"`                // 会话列表（活跃时间倒序）
	NextCursor string              `json:"nextCursor,omitempty"` // 下一页游标，空表示没有更多
}

// WSTicketResponse WebSocket 升级票据响应 DTO
type WSTicketResponse struct {
	Ticket string `json:"ticket"` // 短时效一次性票据
}
