package dto

// ==================== 消息相关 DTO ====================

// SendMessageRequest 发送私信请求 DTO
// 正文按 UTF-8 字节数限长，与存储列宽一致。
type SendMessageRequest struct {
	RecipientUUID string `json:"recipientUuid" binding:"required"` // 接收方UUID
	Body          string `json:"body" binding:"required,max=4096"` // 消息正文
}

// SendMessageResponse 发送私信响应 DTO
type SendMessageResponse struct {
	MessageID      string `json:"messageId"`      // 消息ID（snowflake，字符串避免前端精度丢失）
	ConversationID string `json:"conversationId"` // 发送方视图的会话ID
	CreatedAt      int64  `json:"createdAt"`      // 发送时间（毫秒时间戳）
	HasReceipt     bool   `json:"hasReceipt"`     // 本条消息是否参与已读回执
}

// MessageItem 消息信息 DTO
// ReadAt 仅在 hasReceipt=true 且已读时返回；
// 不参与回执的消息即使内部已记录已读时间也不对外暴露。
type MessageItem struct {
	MessageID     string `json:"messageId"`        // 消息ID
	SenderUUID    string `json:"senderUuid"`       // 发送方UUID
	RecipientUUID string `json:"recipientUuid"`    // 接收方UUID
	Body          string `json:"body"`             // 消息正文
	HasReceipt    bool   `json:"hasReceipt"`       // 是否参与已读回执
	ReadAt        int64  `json:"readAt,omitempty"` // 已读时间（毫秒时间戳，未读或不可见为 0 并省略）
	CreatedAt     int64  `json:"createdAt"`        // 发送时间（毫秒时间戳）
}

// ListMessagesRequest 消息列表请求 DTO
type ListMessagesRequest struct {
	Cursor string `form:"cursor" binding:"omitempty,max=128"`      // 键集分页游标
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=100"` // 每页大小
}

// ListMessagesResponse 消息列表响应 DTO
type ListMessagesResponse struct {
	Items      []*MessageItem `json:"items"`                // 消息列表（时间倒序）
	NextCursor string         `json:"nextCursor,omitempty"` // 下一页游标，空表示没有更多
}

// MarkReadRequest 批量已读请求 DTO
// UpTo 为毫秒时间戳：只将不晚于该时刻的消息置为已读。
type MarkReadRequest struct {
	UpTo int64 `json:"upTo" binding:"required,min=1"` // 已读水位（毫秒时间戳）
}

// MarkReadResponse 批量已读响应 DTO
type MarkReadResponse struct {
	UpdatedCount int64 `json:"updatedCount"` // 本次置为已读的消息数
}
