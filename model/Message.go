package model

import "time"

// Message 私信消息。
// 主键由 snowflake 预生成（非自增），保证单节点严格单调，
// 可直接作为分页游标与客户端排序依据。
// read_at 只会被已读批量更新写入一次；has_receipt=false 的消息
// 即使 read_at 已写入，也不得对外暴露（回执可见性策略在 DTO 层执行）。
type Message struct {
	Id            int64      `gorm:"column:id;primaryKey;autoIncrement:false;comment:snowflake消息id"`
	SenderUuid    string     `gorm:"column:sender_uuid;type:char(20);not null;index;comment:发送方uuid"`
	RecipientUuid string     `gorm:"column:recipient_uuid;type:char(20);not null;index:idx_recipient_read,priority:1;comment:接收方uuid"`
	Body          string     `gorm:"column:body;type:varchar(4096);not null;comment:消息正文(UTF-8)"`
	HasReceipt    bool       `gorm:"column:has_receipt;not null;default:0;comment:是否参与已读回执"`
	ReadAt        *time.Time `gorm:"column:read_at;index:idx_recipient_read,priority:2;comment:已读时间"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Message) TableName() string { return "message" }
