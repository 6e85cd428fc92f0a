package dto

// ==================== 关系相关 DTO ====================

// FollowRequest 关注请求 DTO
type FollowRequest struct {
	PeerUUID string `json:"peerUuid" binding:"required"` // 目标用户UUID
}

// BlockRequest 拉黑请求 DTO
type BlockRequest struct {
	PeerUUID string `json:"peerUuid" binding:"required"` // 目标用户UUID
}

// RelationStatusResponse 关系状态响应 DTO
type RelationStatusResponse struct {
	Following  bool `json:"following"`  // 我是否关注对方
	FollowedBy bool `json:"followedBy"` // 对方是否关注我
	Blocking   bool `json:"blocking"`   // 我是否拉黑对方
}
