package model

import "time"

// Conversation 会话的单方视图。
// 一对一私信在库里始终表现为两行：holder 各自持有一份视图，
// 删除会话只影响自己这一行（以及自己的消息链接），对端视图不受影响。
type Conversation struct {
	Id         int64  `gorm:"column:id;primaryKey;autoIncrement;comment:自增id"`
	HolderUuid string `gorm:"column:holder_uuid;type:char(20);not null;uniqueIndex:uidx_holder_target;index:idx_holder_activity,priority:1;comment:视图持有者uuid"`
	TargetUuid string `gorm:"column:target_uuid;type:char(20);not null;uniqueIndex:uidx_holder_target;comment:对端用户uuid"`

	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	LastActivityAt time.Time `gorm:"column:last_activity_at;not null;index:idx_holder_activity,priority:2,sort:desc;comment:最近活跃时间(链接消息时更新)"`
}

func (Conversation) TableName() string { return "conversation" }
