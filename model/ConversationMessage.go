package model

// ConversationMessage 会话与消息的链接行，表示“消息在该视图中可见”。
// 一条消息正常有两行链接（双方视图各一）；
// 删除最后一行链接时，必须在同一事务里删除底层 message（孤儿消息回收）。
type ConversationMessage struct {
	Id             int64 `gorm:"column:id;primaryKey;autoIncrement;comment:自增id"`
	ConversationId int64 `gorm:"column:conversation_id;not null;uniqueIndex:uidx_conv_msg;comment:会话id"`
	MessageId      int64 `gorm:"column:message_id;not null;index;uniqueIndex:uidx_conv_msg;comment:消息id"`
}

func (ConversationMessage) TableName() string { return "conversation_message" }
