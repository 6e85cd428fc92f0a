package model

import (
	"time"

	"gorm.io/gorm"
)

// UserInfo 用户主档。
// 消息核心只消费开关位：active/frozen 决定可达性，
// allows_all_messages/allows_receipts 决定陌生人私信与已读回执策略。
type UserInfo struct {
	Id       int64  `gorm:"column:id;primaryKey;autoIncrement;comment:自增id"`
	Uuid     string `gorm:"column:uuid;type:char(20);not null;uniqueIndex;comment:用户uuid"`
	Email    string `gorm:"column:email;type:varchar(128);not null;uniqueIndex;comment:邮箱"`
	Nickname string `gorm:"column:nickname;type:varchar(64);comment:昵称"`
	Password string `gorm:"column:password;type:varchar(255);not null;comment:bcrypt密码哈希"`

	Active            bool `gorm:"column:active;not null;default:1;comment:账号是否激活"`
	Frozen            bool `gorm:"column:frozen;not null;default:0;comment:账号是否冻结"`
	Private           bool `gorm:"column:private;not null;default:0;comment:是否私密账号"`
	AllowsAllMessages bool `gorm:"column:allows_all_messages;not null;default:0;comment:是否接收陌生人私信"`
	AllowsReceipts    bool `gorm:"column:allows_receipts;not null;default:1;comment:是否参与已读回执"`

	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (UserInfo) TableName() string { return "user_info" }

// IsAccessible 账号是否可参与消息收发（激活且未冻结）。
func (u *UserInfo) IsAccessible() bool {
	return u != nil && u.Active && !u.Frozen
}
