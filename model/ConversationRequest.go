package model

import "time"

// ConversationRequest 陌生人私信的握手记录，每个无序用户对最多一条。
// sender_uuid 是第一条消息的发起方；唯一索引只约束有序对，
// 反向对的排他性由 compose 事务内的显式双向查询保证。
// accepted_at 非空即视为已接受；拉黑不会删除该行，后续发送由资格检查拒绝。
type ConversationRequest struct {
	Id            int64      `gorm:"column:id;primaryKey;autoIncrement;comment:自增id"`
	SenderUuid    string     `gorm:"column:sender_uuid;type:char(20);not null;uniqueIndex:uidx_req_pair;comment:发起方uuid"`
	RecipientUuid string     `gorm:"column:recipient_uuid;type:char(20);not null;index;uniqueIndex:uidx_req_pair;comment:接收方uuid"`
	AcceptedAt    *time.Time `gorm:"column:accepted_at;comment:接受时间"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (ConversationRequest) TableName() string { return "conversation_request" }

// IsAccepted 请求是否已被接受。
func (r *ConversationRequest) IsAccepted() bool {
	return r != nil && r.AcceptedAt != nil
}
