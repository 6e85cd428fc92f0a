package wsevent

import (
	"encoding/json"
	"strconv"
	"time"
)

// TypeConversationMessage 新消息事件类型。
const TypeConversationMessage = "conversation.message"

// ConversationMessage 下行 WebSocket 事件（api 发布、connect 透传）。
// conversation_id 是接收方视图的会话 id；timestamp 为 unix 秒的字符串，
// 客户端用 message_id（全序）或 timestamp 排序，事件本身不保证跨发送方有序。
type ConversationMessage struct {
	Type           string `json:"type"`
	ConversationId int64  `json:"conversation_id"`
	MessageId      int64  `json:"message_id"`
	Timestamp      string `json:"timestamp"`
}

// NewConversationMessage 构造新消息事件。
func NewConversationMessage(conversationID, messageID int64, createdAt time.Time) ConversationMessage {
	return ConversationMessage{
		Type:           TypeConversationMessage,
		ConversationId: conversationID,
		MessageId:      messageID,
		Timestamp:      strconv.FormatInt(createdAt.Unix(), 10),
	}
}

// Marshal 序列化为下行 JSON。
func (e ConversationMessage) Marshal() ([]byte, error) {
	return json.Marshal(e)
}
