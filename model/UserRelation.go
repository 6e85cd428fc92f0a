package model

import "time"

// 关系状态取值。
// 同一有序对 (user_uuid, peer_uuid) 最多一行：拉黑会覆盖关注
// （建立拉黑时级联删除双向关注边）。
const (
	RelationFollow int8 = 0 // user 关注 peer（有向）
	RelationBlock  int8 = 1 // user 拉黑 peer（判定时双向生效）
)

// UserRelation 维护用户之间的单向关系边（关注/拉黑）。
// 约束：uniqueIndex:uidx_user_peer 确保同一有序对不重复；长度与 user_info.uuid 保持一致（char(20)）。
type UserRelation struct {
	Id        int64     `gorm:"column:id;primaryKey;autoIncrement;comment:自增id"`
	UserUuid  string    `gorm:"column:user_uuid;type:char(20);not null;uniqueIndex:uidx_user_peer;comment:发起方uuid"`
	PeerUuid  string    `gorm:"column:peer_uuid;type:char(20);not null;index;uniqueIndex:uidx_user_peer;comment:对端用户uuid"`
	Status    int8      `gorm:"column:status;not null;default:0;comment:关系状态 0.关注 1.拉黑"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (UserRelation) TableName() string { return "user_relation" }
